package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/trip-planner/internal/config"
	"github.com/trip-planner/internal/domain"
	"github.com/trip-planner/internal/domain/repository"
	"github.com/trip-planner/internal/fare"
	"github.com/trip-planner/internal/infrastructure/render"
	"github.com/trip-planner/internal/pkg/errors"
	"github.com/trip-planner/internal/refdata"
	"github.com/trip-planner/internal/usecase/dto"
)

const persistTimeout = time.Second

type sessionEntry struct {
	ctrl    *TripController
	surface *render.CommandSurface
}

// SessionUseCase - реестр сессий карты. Каждая сессия владеет одним TripController
type SessionUseCase struct {
	refData     *refdata.Provider
	router      repository.RoutingRepository
	estimator   *fare.Estimator
	sessionRepo repository.SessionRepository
	streamRepo  repository.StreamRepository
	cfg         *config.Config
	clock       func() time.Time
	logger      *zap.Logger

	mu       sync.Mutex
	sessions map[string]*sessionEntry
}

// NewSessionUseCase создает новый SessionUseCase. sessionRepo и streamRepo могут быть nil
func NewSessionUseCase(
	refData *refdata.Provider,
	router repository.RoutingRepository,
	estimator *fare.Estimator,
	sessionRepo repository.SessionRepository,
	streamRepo repository.StreamRepository,
	cfg *config.Config,
	logger *zap.Logger,
) *SessionUseCase {
	return &SessionUseCase{
		refData:     refData,
		router:      router,
		estimator:   estimator,
		sessionRepo: sessionRepo,
		streamRepo:  streamRepo,
		cfg:         cfg,
		clock:       time.Now,
		logger:      logger,
		sessions:    make(map[string]*sessionEntry),
	}
}

// SetClock подменяет часы (для тестов)
func (uc *SessionUseCase) SetClock(clock func() time.Time) {
	uc.clock = clock
}

// Create создаёт новую сессию в начальном состоянии
func (uc *SessionUseCase) Create(ctx context.Context) (*domain.TripState, error) {
	id := uuid.New().String()
	entry := uc.newEntry(id)

	uc.mu.Lock()
	uc.sessions[id] = entry
	uc.mu.Unlock()

	snap, err := entry.ctrl.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	uc.persist(snap)

	state, err := uc.stateOf(ctx, entry)
	if err != nil {
		return nil, err
	}

	uc.logger.Info("Session created", zap.String("session_id", id))
	return state, nil
}

// Get возвращает состояние сессии, восстанавливая её из Redis при необходимости
func (uc *SessionUseCase) Get(ctx context.Context, id string) (*domain.TripState, error) {
	entry, err := uc.entry(ctx, id)
	if err != nil {
		return nil, err
	}
	return uc.stateOf(ctx, entry)
}

// Delete закрывает сессию и удаляет снимок. Неизвестный id - SESSION_NOT_FOUND
func (uc *SessionUseCase) Delete(ctx context.Context, id string) error {
	uc.mu.Lock()
	entry, ok := uc.sessions[id]
	delete(uc.sessions, id)
	uc.mu.Unlock()

	if ok {
		entry.ctrl.Close()
	}

	found := ok
	if uc.sessionRepo != nil {
		stored, err := uc.sessionRepo.Delete(ctx, id)
		if err != nil {
			uc.logger.Error("Failed to delete session snapshot", zap.String("session_id", id), zap.Error(err))
			return errors.ErrCacheError
		}
		found = found || stored
	}
	if !found {
		return errors.ErrSessionNotFound
	}

	uc.logger.Info("Session deleted", zap.String("session_id", id))
	return nil
}

// MapLoaded отмечает карту клиента загруженной
func (uc *SessionUseCase) MapLoaded(ctx context.Context, id string) (*domain.TripState, error) {
	entry, err := uc.entry(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := entry.ctrl.MapLoaded(ctx); err != nil {
		return nil, err
	}
	return uc.stateOf(ctx, entry)
}

// Dispatch применяет событие интерфейса к сессии
func (uc *SessionUseCase) Dispatch(ctx context.Context, id string, req dto.SessionEventRequest) (*domain.TripState, error) {
	entry, err := uc.entry(ctx, id)
	if err != nil {
		return nil, err
	}

	ctrl := entry.ctrl
	switch req.Type {
	case dto.EventStationTapped:
		err = ctrl.TapStation(ctx, req.StationID)
	case dto.EventDistrictTapped:
		err = ctrl.TapDistrict(ctx, req.DistrictID)
	case dto.EventChooseDestination:
		err = ctrl.ChooseDestination(ctx)
	case dto.EventClearDeparture:
		err = ctrl.ClearDeparture(ctx)
	case dto.EventClearArrival:
		err = ctrl.ClearArrival(ctx)
	case dto.EventGoHome:
		err = ctrl.GoHome(ctx)
	case dto.EventContinue:
		err = ctrl.Continue(ctx)
	case dto.EventRetryRoute:
		err = ctrl.RetryRoute(ctx)
	case dto.EventDismissNotice:
		err = ctrl.DismissNotice(ctx)
	default:
		err = errors.ErrInvalidRequest.WithDetails(map[string]interface{}{"type": req.Type})
	}
	if err != nil {
		return nil, err
	}

	if req.Wait {
		uc.waitIdle(ctx, ctrl)
	}
	return uc.stateOf(ctx, entry)
}

// Locate запрашивает положение пользователя через locator
func (uc *SessionUseCase) Locate(ctx context.Context, id string, locator repository.LocationService, wait bool) (*domain.TripState, error) {
	entry, err := uc.entry(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := entry.ctrl.LocateMe(ctx, locator); err != nil {
		return nil, err
	}
	if wait {
		uc.waitIdle(ctx, entry.ctrl)
	}
	return uc.stateOf(ctx, entry)
}

// SweepIdle закрывает сессии без активности дольше TTL. Возвращает число закрытых
func (uc *SessionUseCase) SweepIdle(ctx context.Context) int {
	cutoff := uc.clock().Add(-uc.cfg.Session.TTL)

	uc.mu.Lock()
	var idle []*sessionEntry
	for id, entry := range uc.sessions {
		if entry.ctrl.LastActivity().Before(cutoff) {
			idle = append(idle, entry)
			delete(uc.sessions, id)
		}
	}
	uc.mu.Unlock()

	for _, entry := range idle {
		entry.ctrl.Close()
		uc.logger.Debug("Idle session closed", zap.String("session_id", entry.ctrl.SessionID()))
	}
	return len(idle)
}

// Count - число активных сессий в памяти
func (uc *SessionUseCase) Count() int {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return len(uc.sessions)
}

// Close закрывает все сессии
func (uc *SessionUseCase) Close() {
	uc.mu.Lock()
	entries := make([]*sessionEntry, 0, len(uc.sessions))
	for _, e := range uc.sessions {
		entries = append(entries, e)
	}
	uc.sessions = make(map[string]*sessionEntry)
	uc.mu.Unlock()

	for _, e := range entries {
		e.ctrl.Close()
	}
}

func (uc *SessionUseCase) entry(ctx context.Context, id string) (*sessionEntry, error) {
	uc.mu.Lock()
	entry, ok := uc.sessions[id]
	uc.mu.Unlock()
	if ok {
		return entry, nil
	}

	if uc.sessionRepo == nil {
		return nil, errors.ErrSessionNotFound
	}

	snap, err := uc.sessionRepo.Get(ctx, id)
	if err != nil {
		uc.logger.Error("Failed to load session snapshot", zap.String("session_id", id), zap.Error(err))
		return nil, errors.ErrCacheError
	}
	if snap == nil {
		return nil, errors.ErrSessionNotFound
	}

	entry = uc.newEntry(id)
	if err := entry.ctrl.Restore(ctx, snap); err != nil {
		entry.ctrl.Close()
		return nil, err
	}

	uc.mu.Lock()
	if existing, ok := uc.sessions[id]; ok {
		// параллельный запрос успел восстановить ту же сессию
		uc.mu.Unlock()
		entry.ctrl.Close()
		return existing, nil
	}
	uc.sessions[id] = entry
	uc.mu.Unlock()

	uc.logger.Info("Session restored", zap.String("session_id", id), zap.String("mode", string(snap.Mode)))
	return entry, nil
}

func (uc *SessionUseCase) newEntry(id string) *sessionEntry {
	surface := render.NewCommandSurface(uc.cfg.Trip.ViewportWidth, uc.cfg.Trip.ViewportHeight, uc.logger.Named("surface"))
	ctrl := NewTripController(id, TripDeps{
		RefData:   uc.refData,
		Router:    uc.router,
		Estimator: uc.estimator,
		Surface:   surface,
		Observer:  &sessionObserver{uc: uc},
		Config:    uc.cfg.Trip,
		Clock:     uc.clock,
		Logger:    uc.logger.Named("trip"),
	})
	return &sessionEntry{ctrl: ctrl, surface: surface}
}

func (uc *SessionUseCase) stateOf(ctx context.Context, entry *sessionEntry) (*domain.TripState, error) {
	state, err := entry.ctrl.State(ctx)
	if err != nil {
		return nil, err
	}
	state.CameraCommands = entry.surface.Drain()
	return &state, nil
}

func (uc *SessionUseCase) waitIdle(ctx context.Context, ctrl *TripController) {
	timeout := uc.cfg.Server.EventWaitTimeout
	if timeout <= 0 {
		return
	}
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := ctrl.WaitIdle(waitCtx); err != nil {
		uc.logger.Debug("Async work still pending", zap.String("session_id", ctrl.SessionID()), zap.Error(err))
	}
}

func (uc *SessionUseCase) persist(snap *domain.SessionSnapshot) {
	if uc.sessionRepo == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if err := uc.sessionRepo.Save(ctx, snap, uc.cfg.Session.TTL); err != nil {
		uc.logger.Warn("Failed to save session snapshot", zap.String("session_id", snap.SessionID), zap.Error(err))
	}
}

func (uc *SessionUseCase) publishQuote(event domain.QuoteEvent) {
	if uc.streamRepo == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if err := uc.streamRepo.PublishToStream(ctx, domain.StreamTripQuoted, event); err != nil {
		uc.logger.Warn("Failed to publish quote event",
			zap.String("session_id", event.SessionID),
			zap.String("event_id", event.EventID.String()),
			zap.Error(err))
	}
}

// sessionObserver сохраняет снимки в Redis и публикует котировки в стрим
type sessionObserver struct {
	uc *SessionUseCase
}

func (o *sessionObserver) OnStateChanged(snapshot *domain.SessionSnapshot) {
	o.uc.persist(snapshot)
}

func (o *sessionObserver) OnQuote(event domain.QuoteEvent) {
	o.uc.publishQuote(event)
}
