package utils

import "math"

const earthRadiusMeters = 6371000.0

// HaversineMeters вычисляет расстояние по большому кругу в метрах
func HaversineMeters(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180.0
	dLon := (lon2 - lon1) * math.Pi / 180.0

	lat1Rad := lat1 * math.Pi / 180.0
	lat2Rad := lat2 * math.Pi / 180.0

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLon/2)*math.Sin(dLon/2)*math.Cos(lat1Rad)*math.Cos(lat2Rad)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// ValidateCoordinates проверяет валидность координат
func ValidateCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// Midpoint - середина отрезка в градусах; для расстояний внутри города этого достаточно
func Midpoint(lat1, lon1, lat2, lon2 float64) (float64, float64) {
	return (lat1 + lat2) / 2, (lon1 + lon2) / 2
}
