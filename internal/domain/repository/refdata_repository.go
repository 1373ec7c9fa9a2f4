package repository

import (
	"context"

	"github.com/paulmach/orb/geojson"
)

// ReferenceDataLoader загружает GeoJSON FeatureCollection со станциями или районами
type ReferenceDataLoader interface {
	Load(ctx context.Context, resourcePath string) (*geojson.FeatureCollection, error)
}
