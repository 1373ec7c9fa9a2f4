package refdata

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/trip-planner/internal/domain/repository"
	"github.com/trip-planner/internal/pkg/errors"
)

// Status - состояние загрузки справочника
type Status string

const (
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusFailed  Status = "failed"
)

// Provider владеет текущим Store и перезагружает его
type Provider struct {
	loader        repository.ReferenceDataLoader
	stationsPath  string
	districtsPath string
	timeout       time.Duration
	logger        *zap.Logger

	mu      sync.RWMutex
	store   *Store
	status  Status
	lastErr error
}

func NewProvider(
	loader repository.ReferenceDataLoader,
	stationsPath string,
	districtsPath string,
	timeout time.Duration,
	logger *zap.Logger,
) *Provider {
	return &Provider{
		loader:        loader,
		stationsPath:  stationsPath,
		districtsPath: districtsPath,
		timeout:       timeout,
		logger:        logger,
		status:        StatusLoading,
	}
}

// NewStaticProvider оборачивает готовый Store
func NewStaticProvider(store *Store) *Provider {
	return &Provider{
		store:  store,
		status: StatusReady,
		logger: zap.NewNop(),
	}
}

type loadResult struct {
	store *Store
	err   error
}

// Load загружает станции и районы. Если загрузка не укладывается в timeout,
// возвращается ошибка и статус становится failed; зависания нет
func (p *Provider) Load(ctx context.Context) error {
	if p.loader == nil {
		return nil
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	done := make(chan loadResult, 1)
	go func() {
		store, err := p.load(ctx)
		done <- loadResult{store: store, err: err}
	}()

	var res loadResult
	select {
	case res = <-done:
	case <-ctx.Done():
		res = loadResult{err: fmt.Errorf("reference data load: %w", ctx.Err())}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if res.err != nil {
		p.lastErr = res.err
		if p.store == nil {
			p.status = StatusFailed
		}
		p.logger.Error("Failed to load reference data", zap.Error(res.err))
		return res.err
	}

	p.store = res.store
	p.status = StatusReady
	p.lastErr = nil
	p.logger.Info("Reference data loaded",
		zap.Int("stations", len(res.store.stations)),
		zap.Int("districts", len(res.store.districts)))
	return nil
}

func (p *Provider) load(ctx context.Context) (*Store, error) {
	stationsFC, err := p.loader.Load(ctx, p.stationsPath)
	if err != nil {
		return nil, fmt.Errorf("load stations: %w", err)
	}
	districtsFC, err := p.loader.Load(ctx, p.districtsPath)
	if err != nil {
		return nil, fmt.Errorf("load districts: %w", err)
	}

	stations, err := BuildStations(stationsFC)
	if err != nil {
		return nil, err
	}
	districts, err := BuildDistricts(districtsFC)
	if err != nil {
		return nil, err
	}
	return NewStore(stations, districts)
}

// Current возвращает Store или REFERENCE_DATA_UNAVAILABLE
func (p *Provider) Current() (*Store, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.store == nil {
		details := map[string]interface{}{"status": string(p.status)}
		if p.lastErr != nil {
			details["reason"] = p.lastErr.Error()
		}
		return nil, errors.ErrReferenceDataUnavailable.WithDetails(details)
	}
	return p.store, nil
}

// Status возвращает состояние и последнюю ошибку загрузки
func (p *Provider) Status() (Status, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.status, p.lastErr
}

// Ready - справочник загружен; после этого Store не подменяется
func (p *Provider) Ready() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.status == StatusReady
}
