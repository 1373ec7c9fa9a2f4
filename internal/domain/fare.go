package domain

// FareQuote - сравнение цены сервиса с оценкой такси
type FareQuote struct {
	OurFare          float64 `json:"our_fare"`
	TaxiFareEstimate float64 `json:"taxi_fare_estimate"`
	DistanceKm       string  `json:"distance_km"`
	EstTime          string  `json:"est_time"`
	IsPeak           bool    `json:"is_peak"`
}

// RouteResult - ответ сервиса маршрутизации
type RouteResult struct {
	DistanceMeters  float64 `json:"distance_meters"`
	DurationSeconds float64 `json:"duration_seconds"`
	Path            []Point `json:"path,omitempty"`
}
