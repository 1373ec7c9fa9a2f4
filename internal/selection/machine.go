// Package selection implements the departure/arrival state machine.
package selection

import (
	"fmt"

	"github.com/trip-planner/internal/config"
	"github.com/trip-planner/internal/domain"
	"github.com/trip-planner/internal/pkg/errors"
)

// EffectKind - что контроллер должен сделать после перехода
type EffectKind string

const (
	EffectNone          EffectKind = "none"
	EffectFocusStation  EffectKind = "focus_station"
	EffectFocusDistrict EffectKind = "focus_district"
	EffectRequestRoute  EffectKind = "request_route"
	EffectShowCity      EffectKind = "show_city"
)

// Effect - результат перехода
type Effect struct {
	Kind     EffectKind
	Station  *domain.Station
	District *domain.District
	// Key заполняется для EffectRequestRoute
	Key domain.RouteKey
	// CancelRoute - активный ключ маршрута сброшен, ответы по нему не применяются
	CancelRoute bool
	// ResetLocation - сбросить положение пользователя и фильтр близости
	ResetLocation bool
}

// Machine владеет единственным Selection сессии. Не потокобезопасен:
// все вызовы идут из цикла событий контроллера
type Machine struct {
	policy    config.ClearArrivalPolicy
	sel       domain.Selection
	quote     *domain.FareQuote
	activeKey domain.RouteKey
}

func NewMachine(policy config.ClearArrivalPolicy) *Machine {
	if policy == "" {
		policy = config.ClearArrivalKeepDeparture
	}
	return &Machine{
		policy: policy,
		sel:    domain.EmptySelection(),
	}
}

func (m *Machine) Selection() domain.Selection {
	return m.sel
}

func (m *Machine) Mode() domain.Mode {
	return m.sel.Mode
}

// Quote - текущая котировка; nil пока цена не рассчитана
func (m *Machine) Quote() *domain.FareQuote {
	return m.quote
}

// ActiveKey - ключ маршрута, ответ по которому будет принят
func (m *Machine) ActiveKey() (domain.RouteKey, bool) {
	if m.activeKey.IsZero() {
		return domain.RouteKey{}, false
	}
	return m.activeKey, true
}

// FarePending - обе точки выбраны, цена ещё не пришла
func (m *Machine) FarePending() bool {
	return m.sel.Mode == domain.ModeSelectedArrival
}

func (m *Machine) Policy() config.ClearArrivalPolicy {
	return m.policy
}

// Tap обрабатывает клик по станции или району
func (m *Machine) Tap(target domain.Target) (Effect, error) {
	switch target.Kind {
	case domain.TargetDistrict:
		if target.District == nil {
			return Effect{}, errors.ErrInvalidRequest.WithMessage("district target without district")
		}
		// район меняет только камеру
		return Effect{Kind: EffectFocusDistrict, District: target.District}, nil
	case domain.TargetStation:
		if target.Station == nil {
			return Effect{}, errors.ErrInvalidRequest.WithMessage("station target without station")
		}
		return m.stationTapped(target.Station)
	}
	return Effect{}, errors.ErrInvalidRequest.WithMessage(fmt.Sprintf("unknown target kind %q", target.Kind))
}

func (m *Machine) stationTapped(st *domain.Station) (Effect, error) {
	switch m.sel.Mode {
	case domain.ModeSelectingDeparture:
		m.sel = domain.Selection{Mode: domain.ModeSelectedDeparture, Departure: st}
		return Effect{Kind: EffectFocusStation, Station: st}, nil

	case domain.ModeSelectingArrival:
		if st.ID == m.sel.Departure.ID {
			return Effect{}, errors.ErrSameStation.WithDetails(map[string]interface{}{
				"station_id": st.ID,
			})
		}
		m.sel = domain.Selection{
			Mode:      domain.ModeSelectedArrival,
			Departure: m.sel.Departure,
			Arrival:   st,
		}
		m.quote = nil
		m.activeKey, _ = m.sel.Key()
		return Effect{Kind: EffectRequestRoute, Station: st, Key: m.activeKey}, nil
	}

	return Effect{}, m.invalid("station_tapped")
}

// ChooseDestination - переход к выбору точки прибытия, отправление сохраняется
func (m *Machine) ChooseDestination() (Effect, error) {
	if m.sel.Mode != domain.ModeSelectedDeparture {
		return Effect{}, m.invalid("choose_destination")
	}
	m.sel.Mode = domain.ModeSelectingArrival
	return Effect{Kind: EffectShowCity}, nil
}

// ClearDeparture сбрасывает выбор полностью. На пустом выборе ничего не делает
func (m *Machine) ClearDeparture() (Effect, error) {
	if m.sel.Departure == nil {
		return Effect{Kind: EffectNone}, nil
	}
	m.reset()
	return Effect{Kind: EffectShowCity, CancelRoute: true}, nil
}

// ClearArrival сбрасывает точку прибытия согласно политике
func (m *Machine) ClearArrival() (Effect, error) {
	if m.sel.Arrival == nil {
		return Effect{}, m.invalid("clear_arrival")
	}

	mode := domain.ModeSelectingArrival
	if m.policy == config.ClearArrivalReset {
		// отправление остаётся, пока пользователь не выберет новое
		mode = domain.ModeSelectingDeparture
	}
	m.sel = domain.Selection{Mode: mode, Departure: m.sel.Departure}
	m.quote = nil
	m.activeKey = domain.RouteKey{}
	return Effect{Kind: EffectShowCity, CancelRoute: true}, nil
}

// GoHome - полный сброс, включая фильтр близости. Идемпотентен
func (m *Machine) GoHome() Effect {
	m.reset()
	return Effect{Kind: EffectShowCity, CancelRoute: true, ResetLocation: true}
}

// Continue начинает новую поездку после показа цены
func (m *Machine) Continue() (Effect, error) {
	if m.sel.Mode != domain.ModeFareDisplayed {
		return Effect{}, m.invalid("continue")
	}
	m.reset()
	return Effect{Kind: EffectShowCity}, nil
}

// ApplyQuote применяет котировку, только если key совпадает с активным ключом.
// Возвращает false для устаревших ответов
func (m *Machine) ApplyQuote(key domain.RouteKey, quote domain.FareQuote) bool {
	if m.sel.Mode != domain.ModeSelectedArrival || m.activeKey.IsZero() || key != m.activeKey {
		return false
	}
	m.quote = &quote
	m.sel.Mode = domain.ModeFareDisplayed
	return true
}

// Restore подменяет состояние сохранённым после проверки инвариантов
func (m *Machine) Restore(sel domain.Selection, quote *domain.FareQuote) error {
	if err := sel.Validate(); err != nil {
		return fmt.Errorf("restore selection: %w", err)
	}
	if sel.Mode == domain.ModeFareDisplayed && quote == nil {
		return fmt.Errorf("restore selection: mode %s without quote", sel.Mode)
	}
	if sel.Mode != domain.ModeFareDisplayed {
		quote = nil
	}

	m.sel = sel
	m.quote = quote
	m.activeKey, _ = sel.Key()
	return nil
}

func (m *Machine) reset() {
	m.sel = domain.EmptySelection()
	m.quote = nil
	m.activeKey = domain.RouteKey{}
}

func (m *Machine) invalid(event string) error {
	return errors.ErrInvalidTransition.WithDetails(map[string]interface{}{
		"event": event,
		"mode":  string(m.sel.Mode),
	})
}
