package session

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/trip-planner/internal/worker"
)

// Sweeper закрывает сессии без активности
type Sweeper interface {
	SweepIdle(ctx context.Context) int
}

// JanitorWorker периодически закрывает простаивающие сессии
type JanitorWorker struct {
	*worker.BaseWorker
	sweeper  Sweeper
	interval time.Duration
}

// NewJanitorWorker создает новый JanitorWorker
func NewJanitorWorker(sweeper Sweeper, interval time.Duration, logger *zap.Logger) *JanitorWorker {
	return &JanitorWorker{
		BaseWorker: worker.NewBaseWorker("session-janitor", "", logger),
		sweeper:    sweeper,
		interval:   interval,
	}
}

// Start запускает воркер
func (w *JanitorWorker) Start(ctx context.Context) error {
	w.Logger().Info("Starting JanitorWorker", zap.Duration("interval", w.interval))
	return w.RunEvery(ctx, w.interval, w.Sweep)
}

// Sweep выполняет один проход
func (w *JanitorWorker) Sweep(ctx context.Context) {
	if n := w.sweeper.SweepIdle(ctx); n > 0 {
		w.Logger().Info("Idle sessions closed", zap.Int("count", n))
	}
}
