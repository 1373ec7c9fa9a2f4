package selection

import (
	"strings"

	"github.com/trip-planner/internal/domain"
	"github.com/trip-planner/internal/proximity"
)

// ProjectionInput - всё, от чего зависят видимые маркеры и панели
type ProjectionInput struct {
	Selection domain.Selection
	View      domain.View
	Stations  []*domain.Station
	Districts []*domain.District
	// NearbyStations - результат фильтра близости; nil если положение неизвестно
	NearbyStations []*domain.Station
	UserLocation   *domain.Point
	RadiusMeters   float64
}

// Project - чистая функция от состояния к набору маркеров и панелей
func Project(in ProjectionInput) domain.Projection {
	sel := in.Selection
	view := in.View.Name

	p := domain.Projection{
		Stations:  []*domain.Station{},
		Districts: []*domain.District{},
		Panels: domain.Panels{
			DepartureInfo:     sel.Departure != nil,
			ArrivalInfo:       sel.Arrival != nil,
			ChooseDestination: sel.Mode == domain.ModeSelectedDeparture,
			Scene:             sel.Mode == domain.ModeSelectedDeparture,
			Fare:              sel.Mode == domain.ModeFareDisplayed,
			ViewAllStations:   view == domain.ViewMe || view == domain.ViewDistrict || view == domain.ViewStation,
			LocateMe:          view != domain.ViewMe,
		},
	}

	switch sel.Mode {
	case domain.ModeSelectingDeparture, domain.ModeSelectingArrival:
		// прежнее отправление (если есть) видно вместе с кандидатами
		if sel.Departure != nil {
			p.Stations = append(p.Stations, sel.Departure)
		}
		if view == domain.ViewCity {
			p.Districts = append(p.Districts, in.Districts...)
		} else {
			for _, st := range candidates(in) {
				if sel.Departure == nil || st.ID != sel.Departure.ID {
					p.Stations = append(p.Stations, st)
				}
			}
		}

	case domain.ModeSelectedDeparture:
		p.Stations = append(p.Stations, sel.Departure)

	case domain.ModeSelectedArrival, domain.ModeFareDisplayed:
		p.Stations = append(p.Stations, sel.Departure, sel.Arrival)
	}

	if view == domain.ViewMe && in.UserLocation != nil {
		p.Rings = proximity.Rings(in.RadiusMeters)
	}

	return p
}

// candidates - станции для выбора в текущем виде
func candidates(in ProjectionInput) []*domain.Station {
	switch in.View.Name {
	case domain.ViewDistrict:
		if in.View.DistrictName == "" {
			return in.Stations
		}
		return inDistrict(in.Stations, in.View.DistrictName)
	case domain.ViewMe:
		if in.NearbyStations != nil {
			return in.NearbyStations
		}
	}
	return in.Stations
}

func inDistrict(stations []*domain.Station, name string) []*domain.Station {
	key := strings.ToLower(strings.TrimSpace(name))
	var members []*domain.Station
	for _, st := range stations {
		if strings.ToLower(strings.TrimSpace(st.DistrictName)) == key {
			members = append(members, st)
		}
	}
	return members
}
