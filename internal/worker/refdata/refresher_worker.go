package refdata

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/trip-planner/internal/worker"
)

// Reloader перечитывает справочник. При ошибке прежние данные остаются в силе
type Reloader interface {
	Load(ctx context.Context) error
	Ready() bool
}

// RefresherWorker повторяет загрузку станций и районов, пока она не удалась.
// Загруженный справочник неизменен: живые сессии ссылаются на его станции
type RefresherWorker struct {
	*worker.BaseWorker
	reloader Reloader
	interval time.Duration
}

// NewRefresherWorker создает новый RefresherWorker
func NewRefresherWorker(reloader Reloader, interval time.Duration, logger *zap.Logger) *RefresherWorker {
	return &RefresherWorker{
		BaseWorker: worker.NewBaseWorker("refdata-refresher", "", logger),
		reloader:   reloader,
		interval:   interval,
	}
}

// Start запускает воркер
func (w *RefresherWorker) Start(ctx context.Context) error {
	w.Logger().Info("Starting RefresherWorker", zap.Duration("interval", w.interval))
	return w.RunEvery(ctx, w.interval, w.Refresh)
}

// Refresh выполняет одну попытку загрузки, если справочник ещё не готов
func (w *RefresherWorker) Refresh(ctx context.Context) {
	if w.reloader.Ready() {
		return
	}
	if err := w.reloader.Load(ctx); err != nil {
		w.Logger().Warn("Reference data refresh failed", zap.Error(err))
		return
	}
	w.Logger().Info("Reference data loaded after retry")
}
