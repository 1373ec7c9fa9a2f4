package refdata

import (
	"fmt"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/trip-planner/internal/domain"
	"github.com/trip-planner/internal/pkg/utils"
)

// Имена свойств в исходных GeoJSON
const (
	propPlace       = "Place"
	propAddress     = "Address"
	propDistrict    = "District"
	propDescription = "Description"
)

// BuildStations превращает features в станции
func BuildStations(fc *geojson.FeatureCollection) ([]domain.Station, error) {
	if fc == nil {
		return nil, fmt.Errorf("stations: empty feature collection")
	}

	stations := make([]domain.Station, 0, len(fc.Features))
	for i, f := range fc.Features {
		pos, err := featurePoint(f)
		if err != nil {
			return nil, fmt.Errorf("station feature %d: %w", i, err)
		}
		stations = append(stations, domain.Station{
			ID:           featureID(f, "station", i),
			Name:         f.Properties.MustString(propPlace, ""),
			Address:      f.Properties.MustString(propAddress, ""),
			Position:     pos,
			DistrictName: f.Properties.MustString(propDistrict, ""),
		})
	}
	return stations, nil
}

// BuildDistricts превращает features в районы
func BuildDistricts(fc *geojson.FeatureCollection) ([]domain.District, error) {
	if fc == nil {
		return nil, fmt.Errorf("districts: empty feature collection")
	}

	districts := make([]domain.District, 0, len(fc.Features))
	for i, f := range fc.Features {
		pos, err := featurePoint(f)
		if err != nil {
			return nil, fmt.Errorf("district feature %d: %w", i, err)
		}
		districts = append(districts, domain.District{
			ID:          featureID(f, "district", i),
			Name:        f.Properties.MustString(propDistrict, ""),
			Position:    pos,
			Description: f.Properties.MustString(propDescription, ""),
		})
	}
	return districts, nil
}

func featurePoint(f *geojson.Feature) (domain.Point, error) {
	if f == nil || f.Geometry == nil {
		return domain.Point{}, fmt.Errorf("missing geometry")
	}
	p, ok := f.Geometry.(orb.Point)
	if !ok {
		return domain.Point{}, fmt.Errorf("geometry %s is not a point", f.Geometry.GeoJSONType())
	}
	// GeoJSON хранит [lng, lat]
	if !utils.ValidateCoordinates(p.Lat(), p.Lon()) {
		return domain.Point{}, fmt.Errorf("coordinates [%f, %f] out of range", p.Lon(), p.Lat())
	}
	return domain.Point{Lat: p.Lat(), Lng: p.Lon()}, nil
}

func featureID(f *geojson.Feature, prefix string, index int) string {
	switch id := f.ID.(type) {
	case string:
		if id != "" {
			return id
		}
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	case int:
		return strconv.Itoa(id)
	case int64:
		return strconv.FormatInt(id, 10)
	}
	return fmt.Sprintf("%s-%d", prefix, index)
}
