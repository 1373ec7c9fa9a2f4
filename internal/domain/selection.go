package domain

import "fmt"

// Mode - шаг пользовательского сценария выбора поездки
type Mode string

const (
	ModeSelectingDeparture Mode = "SelectingDeparture"
	ModeSelectedDeparture  Mode = "SelectedDeparture"
	ModeSelectingArrival   Mode = "SelectingArrival"
	ModeSelectedArrival    Mode = "SelectedArrival"
	ModeFareDisplayed      Mode = "FareDisplayed"
)

// Valid проверяет, что режим известен
func (m Mode) Valid() bool {
	switch m {
	case ModeSelectingDeparture, ModeSelectedDeparture, ModeSelectingArrival,
		ModeSelectedArrival, ModeFareDisplayed:
		return true
	}
	return false
}

// Selection - текущий выбор. Станции ссылаются на справочник и не копируются
type Selection struct {
	Mode      Mode     `json:"mode"`
	Departure *Station `json:"departure"`
	Arrival   *Station `json:"arrival"`
}

// EmptySelection - начальное состояние
func EmptySelection() Selection {
	return Selection{Mode: ModeSelectingDeparture}
}

// Validate проверяет инварианты выбора
func (s Selection) Validate() error {
	if !s.Mode.Valid() {
		return fmt.Errorf("unknown mode %q", s.Mode)
	}
	if s.Arrival != nil && s.Departure == nil {
		return fmt.Errorf("arrival set without departure")
	}
	if s.Arrival != nil && s.Departure.ID == s.Arrival.ID {
		return fmt.Errorf("departure and arrival are the same station %q", s.Departure.ID)
	}

	switch s.Mode {
	case ModeSelectingDeparture:
		// отправление может остаться после сброса прибытия
		if s.Arrival != nil {
			return fmt.Errorf("mode %s with arrival set", s.Mode)
		}
	case ModeSelectedDeparture, ModeSelectingArrival:
		if s.Departure == nil || s.Arrival != nil {
			return fmt.Errorf("mode %s requires departure only", s.Mode)
		}
	case ModeSelectedArrival, ModeFareDisplayed:
		if s.Departure == nil || s.Arrival == nil {
			return fmt.Errorf("mode %s requires both endpoints", s.Mode)
		}
	}
	return nil
}

// RouteKey - ключ маршрута для пары (отправление, прибытие)
type RouteKey struct {
	DepartureID string `json:"departure_id"`
	ArrivalID   string `json:"arrival_id"`
}

func (k RouteKey) IsZero() bool {
	return k.DepartureID == "" && k.ArrivalID == ""
}

func (k RouteKey) String() string {
	return k.DepartureID + "->" + k.ArrivalID
}

// Key возвращает ключ маршрута, если выбраны обе точки
func (s Selection) Key() (RouteKey, bool) {
	if s.Departure == nil || s.Arrival == nil {
		return RouteKey{}, false
	}
	return RouteKey{DepartureID: s.Departure.ID, ArrivalID: s.Arrival.ID}, true
}
