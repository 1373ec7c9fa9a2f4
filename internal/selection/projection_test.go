package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trip-planner/internal/domain"
)

var (
	allStations  = []*domain.Station{stationA, stationB, stationC}
	allDistricts = []*domain.District{central, {ID: "d2", Name: "Tsim Sha Tsui"}}
)

func ids(stations []*domain.Station) []string {
	out := make([]string, 0, len(stations))
	for _, st := range stations {
		out = append(out, st.ID)
	}
	return out
}

func TestProject_SelectingDepartureCityShowsDistrictsOnly(t *testing.T) {
	p := Project(ProjectionInput{
		Selection: domain.EmptySelection(),
		View:      domain.View{Name: domain.ViewCity},
		Stations:  allStations,
		Districts: allDistricts,
	})

	assert.Empty(t, p.Stations)
	assert.Len(t, p.Districts, 2)
	assert.True(t, p.Panels.LocateMe)
	assert.False(t, p.Panels.ViewAllStations)
}

func TestProject_DistrictNarrowsStations(t *testing.T) {
	p := Project(ProjectionInput{
		Selection: domain.EmptySelection(),
		View:      domain.View{Name: domain.ViewDistrict, DistrictName: " CENTRAL"},
		Stations:  allStations,
		Districts: allDistricts,
	})

	assert.Equal(t, []string{"a", "b"}, ids(p.Stations))
	assert.Empty(t, p.Districts)
	assert.True(t, p.Panels.ViewAllStations)
}

func TestProject_MeViewUsesProximity(t *testing.T) {
	loc := &domain.Point{Lat: 22.28, Lng: 114.16}
	p := Project(ProjectionInput{
		Selection:      domain.EmptySelection(),
		View:           domain.View{Name: domain.ViewMe},
		Stations:       allStations,
		NearbyStations: []*domain.Station{stationB},
		UserLocation:   loc,
		RadiusMeters:   1000,
	})

	assert.Equal(t, []string{"b"}, ids(p.Stations))
	assert.Equal(t, []float64{500, 1000}, p.Rings)
	assert.False(t, p.Panels.LocateMe)

	// без известного положения - все станции, без колец
	p = Project(ProjectionInput{
		Selection: domain.EmptySelection(),
		View:      domain.View{Name: domain.ViewMe},
		Stations:  allStations,
	})
	assert.Len(t, p.Stations, 3)
	assert.Empty(t, p.Rings)
}

func TestProject_SelectedDeparture(t *testing.T) {
	p := Project(ProjectionInput{
		Selection: domain.Selection{Mode: domain.ModeSelectedDeparture, Departure: stationA},
		View:      domain.View{Name: domain.ViewStation},
		Stations:  allStations,
	})

	assert.Equal(t, []string{"a"}, ids(p.Stations))
	assert.True(t, p.Panels.DepartureInfo)
	assert.True(t, p.Panels.ChooseDestination)
	assert.True(t, p.Panels.Scene)
	assert.False(t, p.Panels.ArrivalInfo)
}

func TestProject_SelectingArrival(t *testing.T) {
	sel := domain.Selection{Mode: domain.ModeSelectingArrival, Departure: stationA}

	p := Project(ProjectionInput{
		Selection: sel,
		View:      domain.View{Name: domain.ViewStation},
		Stations:  allStations,
	})
	assert.Equal(t, []string{"a", "b", "c"}, ids(p.Stations), "departure first and not duplicated")

	p = Project(ProjectionInput{
		Selection: sel,
		View:      domain.View{Name: domain.ViewCity},
		Stations:  allStations,
		Districts: allDistricts,
	})
	assert.Equal(t, []string{"a"}, ids(p.Stations))
	assert.Len(t, p.Districts, 2)

	p = Project(ProjectionInput{
		Selection: sel,
		View:      domain.View{Name: domain.ViewDistrict, DistrictName: "Tsim Sha Tsui"},
		Stations:  allStations,
	})
	assert.Equal(t, []string{"a", "c"}, ids(p.Stations))
}

func TestProject_BothEndpoints(t *testing.T) {
	for _, mode := range []domain.Mode{domain.ModeSelectedArrival, domain.ModeFareDisplayed} {
		p := Project(ProjectionInput{
			Selection: domain.Selection{Mode: mode, Departure: stationA, Arrival: stationC},
			View:      domain.View{Name: domain.ViewDrive},
			Stations:  allStations,
			Districts: allDistricts,
		})

		assert.Equal(t, []string{"a", "c"}, ids(p.Stations))
		assert.Empty(t, p.Districts)
		assert.True(t, p.Panels.ArrivalInfo)
		assert.Equal(t, mode == domain.ModeFareDisplayed, p.Panels.Fare)
	}
}

func TestProject_DistrictScenario(t *testing.T) {
	m := NewMachine("")
	_, err := m.Tap(domain.DistrictTarget(central))
	assert.NoError(t, err)

	p := Project(ProjectionInput{
		Selection: m.Selection(),
		View:      domain.View{Name: domain.ViewDistrict, DistrictName: central.Name},
		Stations:  allStations,
		Districts: allDistricts,
	})

	assert.Equal(t, domain.ModeSelectingDeparture, m.Mode())
	assert.Equal(t, []string{"a", "b"}, ids(p.Stations))
}

func TestProject_SelectingDepartureKeepsPreviousDeparture(t *testing.T) {
	sel := domain.Selection{Mode: domain.ModeSelectingDeparture, Departure: stationA}

	p := Project(ProjectionInput{
		Selection: sel,
		View:      domain.View{Name: domain.ViewStation},
		Stations:  allStations,
	})
	assert.Equal(t, []string{"a", "b", "c"}, ids(p.Stations))
	assert.True(t, p.Panels.DepartureInfo)
	assert.False(t, p.Panels.ChooseDestination)

	p = Project(ProjectionInput{
		Selection: sel,
		View:      domain.View{Name: domain.ViewCity},
		Stations:  allStations,
		Districts: allDistricts,
	})
	assert.Equal(t, []string{"a"}, ids(p.Stations))
	assert.Len(t, p.Districts, 2)
}
