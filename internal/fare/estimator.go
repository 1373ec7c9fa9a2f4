// Package fare compares the service price with an estimated taxi fare.
package fare

import (
	"fmt"
	"math"
	"time"
	_ "time/tzdata"

	"github.com/trip-planner/internal/config"
	"github.com/trip-planner/internal/domain"
	"github.com/trip-planner/internal/pkg/errors"
)

// Estimator - чистая функция расчёта цены поверх конфигурации тарифа
type Estimator struct {
	cfg config.FareConfig
	loc *time.Location
}

func NewEstimator(cfg config.FareConfig) (*Estimator, error) {
	loc := time.UTC
	if cfg.TimeZone != "" {
		var err error
		loc, err = time.LoadLocation(cfg.TimeZone)
		if err != nil {
			return nil, fmt.Errorf("load fare time zone: %w", err)
		}
	}
	if cfg.IncrementMeters <= 0 {
		return nil, fmt.Errorf("fare increment must be positive, got %v", cfg.IncrementMeters)
	}
	return &Estimator{cfg: cfg, loc: loc}, nil
}

// Estimate считает котировку для маршрута. now передаётся явно, результат детерминирован
func (e *Estimator) Estimate(distanceMeters, durationSeconds float64, now time.Time) (domain.FareQuote, error) {
	if distanceMeters < 0 || durationSeconds < 0 || math.IsNaN(distanceMeters) || math.IsNaN(durationSeconds) {
		return domain.FareQuote{}, errors.ErrInvalidRequest.WithDetails(map[string]interface{}{
			"distance_meters":  distanceMeters,
			"duration_seconds": durationSeconds,
		})
	}

	taxi := e.TaxiFare(distanceMeters)
	peak := e.IsPeak(now)

	floor := e.cfg.OffPeakFloor
	if peak {
		floor = e.cfg.PeakFloor
	}

	return domain.FareQuote{
		OurFare:          math.Max(taxi*e.cfg.DiscountFactor, floor),
		TaxiFareEstimate: taxi,
		DistanceKm:       FormatDistanceKm(distanceMeters),
		EstTime:          FormatDuration(durationSeconds),
		IsPeak:           peak,
	}, nil
}

// TaxiFare - базовый тариф плюс надбавка за каждый полный шаг сверх базовой дистанции
func (e *Estimator) TaxiFare(distanceMeters float64) float64 {
	extra := math.Max(0, distanceMeters-e.cfg.BaseDistanceMeters)
	increments := math.Floor(extra / e.cfg.IncrementMeters)
	return e.cfg.BaseFare + increments*e.cfg.IncrementAmount
}

// IsPeak проверяет час now в часовом поясе тарифа
func (e *Estimator) IsPeak(now time.Time) bool {
	hour := now.In(e.loc).Hour()
	for _, w := range e.cfg.PeakWindows {
		if hour >= w.StartHour && hour < w.EndHour {
			return true
		}
	}
	return false
}

func (e *Estimator) Location() *time.Location {
	return e.loc
}

// FormatDistanceKm - километры с двумя знаками
func FormatDistanceKm(distanceMeters float64) string {
	return fmt.Sprintf("%.2f", distanceMeters/1000)
}

// FormatDuration - "H hr M mins", часы опускаются при H=0
func FormatDuration(durationSeconds float64) string {
	total := int64(durationSeconds)
	hours := total / 3600
	mins := (total % 3600) / 60
	if hours > 0 {
		return fmt.Sprintf("%d hr %d mins", hours, mins)
	}
	return fmt.Sprintf("%d mins", mins)
}
