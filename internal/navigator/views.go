package navigator

import (
	"fmt"

	"github.com/trip-planner/internal/config"
	"github.com/trip-planner/internal/domain"
	"github.com/trip-planner/internal/pkg/utils"
)

// Views строит именованные позы камеры из конфигурации
type Views struct {
	cfg config.TripConfig
}

func NewViews(cfg config.TripConfig) Views {
	return Views{cfg: cfg}
}

func (v Views) City() domain.View {
	return domain.View{
		Name:    domain.ViewCity,
		Center:  domain.Point{Lat: v.cfg.CityCenterLat, Lng: v.cfg.CityCenterLng},
		Zoom:    v.cfg.CityZoom,
		Tilt:    domain.Float(0),
		Heading: domain.Float(0),
	}
}

func (v Views) Station(st *domain.Station) domain.View {
	return domain.View{
		Name:        domain.ViewStation,
		Center:      st.Position,
		Zoom:        v.cfg.StationZoom,
		StationName: st.Name,
	}
}

// District - вид района; центр и zoom обычно приходят из FitBounds по станциям района
func (v Views) District(d *domain.District, center domain.Point, zoom float64) domain.View {
	return domain.View{
		Name:         domain.ViewDistrict,
		Center:       center,
		Zoom:         zoom,
		Tilt:         domain.Float(v.cfg.DistrictTilt),
		Heading:      domain.Float(0),
		DistrictName: d.Name,
	}
}

func (v Views) Me(p domain.Point) domain.View {
	return domain.View{
		Name:   domain.ViewMe,
		Center: p,
		Zoom:   v.cfg.MeZoom,
	}
}

// Drive - вид маршрута с центром посередине между станциями
func (v Views) Drive(departure, arrival *domain.Station, quote domain.FareQuote) domain.View {
	lat, lng := utils.Midpoint(departure.Position.Lat, departure.Position.Lng,
		arrival.Position.Lat, arrival.Position.Lng)
	return domain.View{
		Name:         domain.ViewDrive,
		Center:       domain.Point{Lat: lat, Lng: lng},
		Zoom:         v.cfg.DriveZoom,
		RouteSummary: fmt.Sprintf("Distance: %s km | Est Time: %s", quote.DistanceKm, quote.EstTime),
	}
}
