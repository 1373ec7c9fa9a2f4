// Package proximity narrows stations to those around the user.
package proximity

import (
	"github.com/trip-planner/internal/domain"
	"github.com/trip-planner/internal/pkg/utils"
)

// DefaultRings - радиусы окружностей вокруг пользователя в Me-виде, метры
var DefaultRings = []float64{500, 1000}

// Filter возвращает станции не дальше radiusMeters от origin (граница включительно).
// Без origin возвращается весь список; порядок сохраняется
func Filter(stations []*domain.Station, origin *domain.Point, radiusMeters float64) []*domain.Station {
	if origin == nil {
		return stations
	}

	result := make([]*domain.Station, 0, len(stations))
	for _, st := range stations {
		if WithinRadius(*origin, st.Position, radiusMeters) {
			result = append(result, st)
		}
	}
	return result
}

// WithinRadius - расстояние по большому кругу не больше radiusMeters
func WithinRadius(origin, p domain.Point, radiusMeters float64) bool {
	return Distance(origin, p) <= radiusMeters
}

// Distance - расстояние в метрах
func Distance(a, b domain.Point) float64 {
	return utils.HaversineMeters(a.Lat, a.Lng, b.Lat, b.Lng)
}

// Rings возвращает радиусы окружностей, не превышающие radiusMeters
func Rings(radiusMeters float64) []float64 {
	rings := make([]float64, 0, len(DefaultRings))
	for _, r := range DefaultRings {
		if r <= radiusMeters {
			rings = append(rings, r)
		}
	}
	return rings
}
