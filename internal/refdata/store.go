// Package refdata holds the immutable station and district reference data.
package refdata

import (
	"fmt"
	"strings"
	"time"

	"github.com/trip-planner/internal/domain"
)

// Store - неизменяемый справочник станций и районов.
// Станции отдаются указателями на внутренний срез, вызывающий код их не изменяет
type Store struct {
	stations  []domain.Station
	districts []domain.District

	stationByID  map[string]*domain.Station
	districtByID map[string]*domain.District
	byDistrict   map[string][]*domain.Station

	loadedAt time.Time
}

// NewStore строит справочник; дубликаты ID считаются ошибкой данных
func NewStore(stations []domain.Station, districts []domain.District) (*Store, error) {
	s := &Store{
		stations:     append([]domain.Station(nil), stations...),
		districts:    append([]domain.District(nil), districts...),
		stationByID:  make(map[string]*domain.Station, len(stations)),
		districtByID: make(map[string]*domain.District, len(districts)),
		byDistrict:   make(map[string][]*domain.Station),
		loadedAt:     time.Now(),
	}

	for i := range s.stations {
		st := &s.stations[i]
		if _, dup := s.stationByID[st.ID]; dup {
			return nil, fmt.Errorf("duplicate station id %q", st.ID)
		}
		s.stationByID[st.ID] = st
		if key := districtKey(st.DistrictName); key != "" {
			s.byDistrict[key] = append(s.byDistrict[key], st)
		}
	}

	for i := range s.districts {
		d := &s.districts[i]
		if _, dup := s.districtByID[d.ID]; dup {
			return nil, fmt.Errorf("duplicate district id %q", d.ID)
		}
		s.districtByID[d.ID] = d
	}

	return s, nil
}

func (s *Store) Stations() []*domain.Station {
	out := make([]*domain.Station, len(s.stations))
	for i := range s.stations {
		out[i] = &s.stations[i]
	}
	return out
}

func (s *Store) Districts() []*domain.District {
	out := make([]*domain.District, len(s.districts))
	for i := range s.districts {
		out[i] = &s.districts[i]
	}
	return out
}

func (s *Store) Station(id string) (*domain.Station, bool) {
	st, ok := s.stationByID[id]
	return st, ok
}

func (s *Store) District(id string) (*domain.District, bool) {
	d, ok := s.districtByID[id]
	return d, ok
}

// StationsInDistrict - станции района; имя сравнивается без учёта регистра и пробелов по краям
func (s *Store) StationsInDistrict(name string) []*domain.Station {
	members := s.byDistrict[districtKey(name)]
	return append([]*domain.Station(nil), members...)
}

// Points - все координаты справочника, для начального fitBounds
func (s *Store) Points() []domain.Point {
	points := make([]domain.Point, 0, len(s.stations)+len(s.districts))
	for _, st := range s.stations {
		points = append(points, st.Position)
	}
	for _, d := range s.districts {
		points = append(points, d.Position)
	}
	return points
}

// Bounds - bbox всех станций и районов
func (s *Store) Bounds() (domain.BoundingBox, bool) {
	return domain.NewBoundingBox(s.Points())
}

func (s *Store) LoadedAt() time.Time {
	return s.loadedAt
}

func districtKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
