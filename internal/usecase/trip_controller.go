package usecase

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/trip-planner/internal/config"
	"github.com/trip-planner/internal/domain"
	"github.com/trip-planner/internal/domain/repository"
	"github.com/trip-planner/internal/fare"
	"github.com/trip-planner/internal/navigator"
	"github.com/trip-planner/internal/pkg/errors"
	"github.com/trip-planner/internal/proximity"
	"github.com/trip-planner/internal/refdata"
	"github.com/trip-planner/internal/selection"
)

// MapSurface - поверхность карты сессии
type MapSurface interface {
	navigator.Surface
	MarkLoaded()
}

// TripObserver получает изменения состояния и рассчитанные котировки.
// Вызывается из цикла событий контроллера, поэтому должен быть быстрым
type TripObserver interface {
	OnStateChanged(snapshot *domain.SessionSnapshot)
	OnQuote(event domain.QuoteEvent)
}

// TripDeps - зависимости контроллера
type TripDeps struct {
	RefData   *refdata.Provider
	Router    repository.RoutingRepository
	Estimator *fare.Estimator
	Surface   MapSurface
	Observer  TripObserver
	Config    config.TripConfig
	// Clock по умолчанию time.Now
	Clock  func() time.Time
	Logger *zap.Logger
}

type tripEvent struct {
	name    string
	fn      func() error
	done    chan error // nil для внутренних событий
	mutates bool
}

// TripController - единственный владелец Selection и истории видов сессии.
// Все изменения проходят через одну горутину цикла событий
type TripController struct {
	sessionID string
	deps      TripDeps
	logger    *zap.Logger

	machine *selection.Machine
	nav     *navigator.Navigator
	views   navigator.Views

	// состояние цикла событий, доступно только из run
	userLocation  *domain.Point
	nearby        []*domain.Station
	notice        *domain.Notice
	route         *domain.RouteResult
	routeFailed   bool
	locatePending bool
	locateGen     int64
	mapReady      bool

	events   chan tripEvent
	stopChan chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once
	baseCtx  context.Context
	cancel   context.CancelFunc

	inflight     inflightTracker
	lastActivity atomic.Int64
}

// NewTripController создаёт контроллер и запускает его цикл событий
func NewTripController(sessionID string, deps TripDeps) *TripController {
	if deps.Clock == nil {
		deps.Clock = time.Now
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	logger := deps.Logger.With(zap.String("session_id", sessionID))
	views := navigator.NewViews(deps.Config)

	ctx, cancel := context.WithCancel(context.Background())
	c := &TripController{
		sessionID: sessionID,
		deps:      deps,
		logger:    logger,
		machine:   selection.NewMachine(deps.Config.ClearArrivalPolicy),
		nav:       navigator.New(deps.Surface, views.City(), logger.Named("navigator")),
		views:     views,
		events:    make(chan tripEvent, 16),
		stopChan:  make(chan struct{}),
		stopped:   make(chan struct{}),
		baseCtx:   ctx,
		cancel:    cancel,
	}
	c.touch()

	go c.run()
	return c
}

func (c *TripController) SessionID() string {
	return c.sessionID
}

// LastActivity - время последнего пользовательского события
func (c *TripController) LastActivity() time.Time {
	return time.Unix(0, c.lastActivity.Load())
}

// Close останавливает цикл событий; незавершённые запросы отбрасываются
func (c *TripController) Close() {
	c.stopOnce.Do(func() {
		c.cancel()
		close(c.stopChan)
	})
	<-c.stopped
}

// WaitIdle ждёт, пока все асинхронные запросы (маршрут, геолокация) будут применены
func (c *TripController) WaitIdle(ctx context.Context) error {
	return c.inflight.wait(ctx)
}

func (c *TripController) TapStation(ctx context.Context, stationID string) error {
	return c.submit(ctx, "station_tapped", true, func() error {
		store, err := c.deps.RefData.Current()
		if err != nil {
			return err
		}
		st, ok := store.Station(stationID)
		if !ok {
			return errors.ErrStationNotFound.WithDetails(map[string]interface{}{"station_id": stationID})
		}
		eff, err := c.machine.Tap(domain.StationTarget(st))
		if err != nil {
			return err
		}
		c.applyEffect(eff)
		return nil
	})
}

func (c *TripController) TapDistrict(ctx context.Context, districtID string) error {
	return c.submit(ctx, "district_tapped", true, func() error {
		store, err := c.deps.RefData.Current()
		if err != nil {
			return err
		}
		d, ok := store.District(districtID)
		if !ok {
			return errors.ErrDistrictNotFound.WithDetails(map[string]interface{}{"district_id": districtID})
		}
		eff, err := c.machine.Tap(domain.DistrictTarget(d))
		if err != nil {
			return err
		}
		c.applyEffect(eff)
		return nil
	})
}

func (c *TripController) ChooseDestination(ctx context.Context) error {
	return c.submitEffect(ctx, "choose_destination", c.machine.ChooseDestination)
}

func (c *TripController) ClearDeparture(ctx context.Context) error {
	return c.submitEffect(ctx, "clear_departure", c.machine.ClearDeparture)
}

func (c *TripController) ClearArrival(ctx context.Context) error {
	return c.submitEffect(ctx, "clear_arrival", c.machine.ClearArrival)
}

func (c *TripController) Continue(ctx context.Context) error {
	return c.submitEffect(ctx, "continue", c.machine.Continue)
}

func (c *TripController) GoHome(ctx context.Context) error {
	return c.submitEffect(ctx, "go_home", func() (selection.Effect, error) {
		return c.machine.GoHome(), nil
	})
}

// RetryRoute повторяет запрос маршрута после ошибки сервиса маршрутизации
func (c *TripController) RetryRoute(ctx context.Context) error {
	return c.submit(ctx, "retry_route", true, func() error {
		key, ok := c.machine.ActiveKey()
		if !ok || !c.routeFailed || c.machine.Mode() != domain.ModeSelectedArrival {
			return errors.ErrInvalidTransition.WithDetails(map[string]interface{}{
				"event": "retry_route",
				"mode":  string(c.machine.Mode()),
			})
		}
		sel := c.machine.Selection()
		c.requestRoute(key, sel.Departure, sel.Arrival)
		return nil
	})
}

func (c *TripController) DismissNotice(ctx context.Context) error {
	return c.submit(ctx, "dismiss_notice", true, func() error {
		c.notice = nil
		return nil
	})
}

// MapLoaded - клиент загрузил карту; текущий вид применяется к поверхности
func (c *TripController) MapLoaded(ctx context.Context) error {
	return c.submit(ctx, "map_loaded", true, func() error {
		c.deps.Surface.MarkLoaded()
		c.mapReady = true
		c.nav.Sync()
		return nil
	})
}

// LocateMe запрашивает положение пользователя. Повторный вызов во время
// ожидающего запроса ничего не делает
func (c *TripController) LocateMe(ctx context.Context, locator repository.LocationService) error {
	return c.submit(ctx, "locate_me", true, func() error {
		if locator == nil {
			return errors.ErrLocationUnavailable
		}
		if c.locatePending {
			c.logger.Debug("Locate already pending, ignored")
			return nil
		}
		if !c.nav.Ready() {
			c.logger.Warn("Map not ready, locate skipped")
			return nil
		}

		c.locatePending = true
		gen := c.locateGen
		c.inflight.add()

		go func() {
			ctx := c.baseCtx
			if c.deps.Config.LocateTimeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, c.deps.Config.LocateTimeout)
				defer cancel()
			}

			point, err := locateWithin(ctx, locator)
			c.post("locate_result", func() {
				c.onLocate(gen, point, err)
			})
		}()
		return nil
	})
}

// State возвращает снимок состояния для клиента
func (c *TripController) State(ctx context.Context) (domain.TripState, error) {
	var state domain.TripState
	err := c.submit(ctx, "state", false, func() error {
		state = c.buildState()
		return nil
	})
	return state, err
}

// Snapshot - сериализуемое состояние для сохранения
func (c *TripController) Snapshot(ctx context.Context) (*domain.SessionSnapshot, error) {
	var snap *domain.SessionSnapshot
	err := c.submit(ctx, "snapshot", false, func() error {
		snap = c.snapshot()
		return nil
	})
	return snap, err
}

// Restore подменяет состояние сохранённым снимком
func (c *TripController) Restore(ctx context.Context, snap *domain.SessionSnapshot) error {
	return c.submit(ctx, "restore", false, func() error {
		store, err := c.deps.RefData.Current()
		if err != nil {
			return err
		}

		sel := domain.Selection{Mode: snap.Mode}
		if snap.DepartureID != "" {
			st, ok := store.Station(snap.DepartureID)
			if !ok {
				return errors.ErrStationNotFound.WithDetails(map[string]interface{}{"station_id": snap.DepartureID})
			}
			sel.Departure = st
		}
		if snap.ArrivalID != "" {
			st, ok := store.Station(snap.ArrivalID)
			if !ok {
				return errors.ErrStationNotFound.WithDetails(map[string]interface{}{"station_id": snap.ArrivalID})
			}
			sel.Arrival = st
		}

		if err := c.machine.Restore(sel, snap.Quote); err != nil {
			return errors.ErrInvalidRequest.WithMessage(err.Error())
		}
		if len(snap.ViewHistory) > 0 {
			if err := c.nav.Restore(snap.ViewHistory); err != nil {
				return errors.ErrInvalidRequest.WithMessage(err.Error())
			}
		}

		c.userLocation = snap.UserLocation
		c.nearby = nil
		if c.userLocation != nil {
			c.nearby = proximity.Filter(store.Stations(), c.userLocation, c.deps.Config.ProximityRadiusMeters)
		}
		if snap.MapReady {
			c.deps.Surface.MarkLoaded()
			c.mapReady = true
		}
		// котировка без ответа: маршрут запрашивается заново
		if key, ok := c.machine.ActiveKey(); ok && c.machine.FarePending() {
			c.requestRoute(key, sel.Departure, sel.Arrival)
		}
		return nil
	})
}

func (c *TripController) submitEffect(ctx context.Context, name string, transition func() (selection.Effect, error)) error {
	return c.submit(ctx, name, true, func() error {
		eff, err := transition()
		if err != nil {
			return err
		}
		c.applyEffect(eff)
		return nil
	})
}

// submit ставит событие в очередь и ждёт его синхронного перехода
func (c *TripController) submit(ctx context.Context, name string, mutates bool, fn func() error) error {
	if mutates {
		c.touch()
	}
	ev := tripEvent{name: name, fn: fn, done: make(chan error, 1), mutates: mutates}

	select {
	case c.events <- ev:
	case <-c.stopChan:
		return errors.ErrSessionNotFound
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-ev.done:
		return err
	case <-c.stopped:
		return errors.ErrSessionNotFound
	}
}

// post доставляет результат асинхронного запроса в цикл событий
func (c *TripController) post(name string, fn func()) {
	ev := tripEvent{
		name: name,
		fn: func() error {
			defer c.inflight.done()
			fn()
			return nil
		},
		mutates: true,
	}

	select {
	case c.events <- ev:
	case <-c.stopChan:
		c.inflight.done()
	}
}

func (c *TripController) run() {
	defer close(c.stopped)

	for {
		select {
		case <-c.stopChan:
			c.logger.Debug("Trip controller stopped")
			return

		case ev := <-c.events:
			err := ev.fn()
			if err != nil {
				c.logger.Debug("Event rejected", zap.String("event", ev.name), zap.Error(err))
			} else if ev.mutates {
				c.notify()
			}
			if ev.done != nil {
				ev.done <- err
			}
		}
	}
}

func (c *TripController) applyEffect(eff selection.Effect) {
	if eff.CancelRoute {
		c.route = nil
		c.routeFailed = false
		c.clearNotice(errors.ErrRouteUnavailable.Code)
	}
	if eff.ResetLocation {
		c.userLocation = nil
		c.nearby = nil
		c.locatePending = false
		c.locateGen++
	}

	switch eff.Kind {
	case selection.EffectFocusStation:
		c.nav.NavigateTo(c.views.Station(eff.Station))

	case selection.EffectFocusDistrict:
		c.focusDistrict(eff.District)

	case selection.EffectShowCity:
		c.nav.NavigateTo(c.views.City())

	case selection.EffectRequestRoute:
		sel := c.machine.Selection()
		c.requestRoute(eff.Key, sel.Departure, sel.Arrival)
	}
}

// focusDistrict вписывает станции района в экран и наклоняет камеру
func (c *TripController) focusDistrict(d *domain.District) {
	var points []domain.Point
	if store, err := c.deps.RefData.Current(); err == nil {
		for _, st := range store.StationsInDistrict(d.Name) {
			points = append(points, st.Position)
		}
	}
	if len(points) == 0 {
		points = []domain.Point{d.Position}
	}

	center, zoom, ok := c.nav.FitBounds(points)
	if !ok {
		c.logger.Warn("Map not ready, district focus skipped", zap.String("district", d.Name))
		return
	}
	c.nav.NavigateTo(c.views.District(d, center, zoom))
}

// requestRoute запускает запрос маршрута для ключа. Ответ применяется,
// только если ключ всё ещё активен
func (c *TripController) requestRoute(key domain.RouteKey, departure, arrival *domain.Station) {
	c.route = nil
	c.routeFailed = false
	c.clearNotice(errors.ErrRouteUnavailable.Code)
	c.inflight.add()

	c.logger.Debug("Route requested", zap.String("route_key", key.String()))

	go func() {
		ctx := c.baseCtx
		if c.deps.Config.RouteTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.deps.Config.RouteTimeout)
			defer cancel()
		}

		result, err := c.deps.Router.Route(ctx, departure.Position, arrival.Position)
		c.post("route_result", func() {
			c.onRoute(key, result, err)
		})
	}()
}

func (c *TripController) onRoute(key domain.RouteKey, result *domain.RouteResult, err error) {
	active, ok := c.machine.ActiveKey()
	if !ok || active != key || !c.machine.FarePending() {
		c.logger.Debug("Stale route response dropped", zap.String("route_key", key.String()))
		return
	}

	if err != nil {
		c.routeFailed = true
		c.setNotice(errors.ErrRouteUnavailable, true)
		c.logger.Warn("Route request failed", zap.String("route_key", key.String()), zap.Error(err))
		return
	}

	now := c.deps.Clock()
	quote, err := c.deps.Estimator.Estimate(result.DistanceMeters, result.DurationSeconds, now)
	if err != nil {
		c.routeFailed = true
		c.setNotice(errors.ErrRouteUnavailable, true)
		c.logger.Warn("Route result rejected by fare estimator", zap.Error(err))
		return
	}

	if !c.machine.ApplyQuote(key, quote) {
		return
	}
	c.route = result

	sel := c.machine.Selection()
	c.nav.NavigateTo(c.views.Drive(sel.Departure, sel.Arrival, quote))

	c.logger.Info("Fare quoted",
		zap.String("route_key", key.String()),
		zap.Float64("our_fare", quote.OurFare),
		zap.Float64("taxi_fare", quote.TaxiFareEstimate),
		zap.Bool("peak", quote.IsPeak))

	if c.deps.Observer != nil {
		c.deps.Observer.OnQuote(domain.QuoteEvent{
			EventID:     uuid.New(),
			SessionID:   c.sessionID,
			DepartureID: key.DepartureID,
			ArrivalID:   key.ArrivalID,
			Quote:       quote,
			DistanceM:   result.DistanceMeters,
			DurationS:   result.DurationSeconds,
			ViewPath:    c.nav.ViewPath(),
			QuotedAt:    now,
		})
	}
}

// locateWithin не даёт зависшему сервису геолокации держать запрос дольше ctx
func locateWithin(ctx context.Context, locator repository.LocationService) (domain.Point, error) {
	type result struct {
		point domain.Point
		err   error
	}
	ch := make(chan result, 1)
	go func() {
		p, err := locator.GetCurrentPosition(ctx)
		ch <- result{point: p, err: err}
	}()

	select {
	case r := <-ch:
		return r.point, r.err
	case <-ctx.Done():
		return domain.Point{}, ctx.Err()
	}
}

func (c *TripController) onLocate(gen int64, point domain.Point, err error) {
	if gen != c.locateGen {
		c.logger.Debug("Stale location dropped")
		return
	}
	c.locatePending = false

	if err != nil {
		c.setNotice(errors.ErrLocationUnavailable, false)
		c.logger.Warn("Location unavailable", zap.Error(err))
		return
	}

	c.userLocation = &point
	c.clearNotice(errors.ErrLocationUnavailable.Code)
	if store, err := c.deps.RefData.Current(); err == nil {
		c.nearby = proximity.Filter(store.Stations(), &point, c.deps.Config.ProximityRadiusMeters)
	}
	c.nav.NavigateTo(c.views.Me(point))
}

func (c *TripController) setNotice(appErr *errors.AppError, retryable bool) {
	c.notice = &domain.Notice{
		Code:        appErr.Code,
		Message:     appErr.Message,
		Dismissible: true,
		Retryable:   retryable,
	}
}

func (c *TripController) clearNotice(code string) {
	if c.notice != nil && c.notice.Code == code {
		c.notice = nil
	}
}

func (c *TripController) buildState() domain.TripState {
	sel := c.machine.Selection()
	view := c.nav.CurrentView()

	in := selection.ProjectionInput{
		Selection:      sel,
		View:           view,
		UserLocation:   c.userLocation,
		NearbyStations: c.nearby,
		RadiusMeters:   c.deps.Config.ProximityRadiusMeters,
	}
	if store, err := c.deps.RefData.Current(); err == nil {
		in.Stations = store.Stations()
		in.Districts = store.Districts()
	}

	state := domain.TripState{
		SessionID:     c.sessionID,
		Selection:     sel,
		Quote:         c.machine.Quote(),
		View:          view,
		ViewHistory:   c.nav.History(),
		Caption:       c.nav.Caption(),
		Projection:    selection.Project(in),
		UserLocation:  c.userLocation,
		Notice:        c.notice,
		FarePending:   c.machine.FarePending(),
		LocatePending: c.locatePending,
		MapReady:      c.mapReady,
		Route:         c.route,
	}
	if key, ok := c.machine.ActiveKey(); ok {
		state.RouteKey = &key
	}
	return state
}

func (c *TripController) snapshot() *domain.SessionSnapshot {
	sel := c.machine.Selection()
	snap := &domain.SessionSnapshot{
		SessionID:    c.sessionID,
		Mode:         sel.Mode,
		Quote:        c.machine.Quote(),
		ViewHistory:  c.nav.History(),
		UserLocation: c.userLocation,
		MapReady:     c.mapReady,
		UpdatedAt:    c.deps.Clock(),
	}
	if sel.Departure != nil {
		snap.DepartureID = sel.Departure.ID
	}
	if sel.Arrival != nil {
		snap.ArrivalID = sel.Arrival.ID
	}
	return snap
}

func (c *TripController) notify() {
	if c.deps.Observer != nil {
		c.deps.Observer.OnStateChanged(c.snapshot())
	}
}

func (c *TripController) touch() {
	c.lastActivity.Store(c.deps.Clock().UnixNano())
}

// inflightTracker считает незавершённые асинхронные запросы
type inflightTracker struct {
	mu   sync.Mutex
	n    int
	idle chan struct{}
}

func (t *inflightTracker) add() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.n == 0 {
		t.idle = make(chan struct{})
	}
	t.n++
}

func (t *inflightTracker) done() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.n--
	if t.n == 0 {
		close(t.idle)
	}
}

func (t *inflightTracker) wait(ctx context.Context) error {
	t.mu.Lock()
	if t.n == 0 {
		t.mu.Unlock()
		return nil
	}
	idle := t.idle
	t.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
