package dto

import "time"

// Типы событий сессии
const (
	EventStationTapped     = "station_tapped"
	EventDistrictTapped    = "district_tapped"
	EventChooseDestination = "choose_destination"
	EventClearDeparture    = "clear_departure"
	EventClearArrival      = "clear_arrival"
	EventGoHome            = "go_home"
	EventContinue          = "continue"
	EventRetryRoute        = "retry_route"
	EventDismissNotice     = "dismiss_notice"
)

// SessionEventRequest - событие интерфейса карты
type SessionEventRequest struct {
	Type       string `json:"type" validate:"required,oneof=station_tapped district_tapped choose_destination clear_departure clear_arrival go_home continue retry_route dismiss_notice"`
	StationID  string `json:"station_id,omitempty" validate:"required_if=Type station_tapped"`
	DistrictID string `json:"district_id,omitempty" validate:"required_if=Type district_tapped"`
	// Wait - дождаться ответа маршрута перед возвратом состояния
	Wait bool `json:"wait,omitempty"`
}

// LocateRequest - координаты устройства; без них используется IP-геолокация.
// Lat и Lng передаются только вместе
type LocateRequest struct {
	Lat  *float64 `json:"lat,omitempty" validate:"omitempty,min=-90,max=90"`
	Lng  *float64 `json:"lng,omitempty" validate:"omitempty,min=-180,max=180"`
	Wait bool     `json:"wait,omitempty"`
}

// FareEstimateRequest - расчёт цены без сессии
type FareEstimateRequest struct {
	DistanceMeters  float64    `json:"distance_meters" validate:"gte=0"`
	DurationSeconds float64    `json:"duration_seconds" validate:"gte=0"`
	At              *time.Time `json:"at,omitempty"`
}

// HasPoint - клиент прислал обе координаты
func (r LocateRequest) HasPoint() bool {
	return r.Lat != nil && r.Lng != nil
}

// PartialPoint - прислана только одна координата
func (r LocateRequest) PartialPoint() bool {
	return (r.Lat == nil) != (r.Lng == nil)
}
