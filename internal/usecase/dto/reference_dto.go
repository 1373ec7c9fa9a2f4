package dto

import "github.com/trip-planner/internal/domain"

// StationsQuery - фильтр списка станций по расстоянию до точки
type StationsQuery struct {
	Lat    float64 `query:"lat" validate:"min=-90,max=90"`
	Lng    float64 `query:"lng" validate:"min=-180,max=180"`
	Radius float64 `query:"radius" validate:"omitempty,gt=0,lte=50000"`
}

// DistrictStationsResponse - район и его станции
type DistrictStationsResponse struct {
	District *domain.District `json:"district"`
	Stations []*domain.Station `json:"stations"`
}

// FareEstimateResponse - котировка и параметры тарифа
type FareEstimateResponse struct {
	Quote    domain.FareQuote `json:"quote"`
	TimeZone string           `json:"time_zone"`
}

// HealthResponse - состояние сервиса и зависимостей
type HealthResponse struct {
	Status        string            `json:"status"`
	ReferenceData string            `json:"reference_data"`
	Checks        map[string]string `json:"checks,omitempty"`
	Sessions      int               `json:"sessions"`
}
