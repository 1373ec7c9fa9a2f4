package worker_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/trip-planner/internal/worker"
)

type tickingWorker struct {
	*worker.BaseWorker
	ticks atomic.Int32
}

func newTickingWorker(name string) *tickingWorker {
	return &tickingWorker{BaseWorker: worker.NewBaseWorker(name, "", zap.NewNop())}
}

func (w *tickingWorker) Start(ctx context.Context) error {
	return w.RunEvery(ctx, 5*time.Millisecond, func(context.Context) { w.ticks.Add(1) })
}

type stuckWorker struct {
	*worker.BaseWorker
	release chan struct{}
}

func (w *stuckWorker) Start(ctx context.Context) error {
	<-w.release
	return nil
}

func TestWorkerManager_NoWorkers(t *testing.T) {
	m := worker.NewWorkerManager(zap.NewNop())
	assert.Error(t, m.Start(context.Background()))
}

func TestWorkerManager_StartStop(t *testing.T) {
	m := worker.NewWorkerManager(zap.NewNop())
	a, b := newTickingWorker("a"), newTickingWorker("b")
	m.Register(a)
	m.Register(b)
	assert.Equal(t, 2, m.Len())

	require.NoError(t, m.Start(context.Background()))
	assert.Eventually(t, func() bool {
		return a.ticks.Load() > 0 && b.ticks.Load() > 0
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, m.Stop())
	assert.True(t, a.IsStopped())
	assert.True(t, b.IsStopped())
}

func TestWorkerManager_ShutdownTimeout(t *testing.T) {
	m := worker.NewWorkerManager(zap.NewNop())
	m.SetShutdownTimeout(20 * time.Millisecond)

	w := &stuckWorker{BaseWorker: worker.NewBaseWorker("stuck", "", zap.NewNop()), release: make(chan struct{})}
	defer close(w.release)
	m.Register(w)

	require.NoError(t, m.Start(context.Background()))
	assert.Error(t, m.Stop())
}

func TestBaseWorker_RunEveryContextCancel(t *testing.T) {
	w := newTickingWorker("ctx")
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("worker did not stop on context cancellation")
	}
}

func TestBaseWorker_StopIsIdempotent(t *testing.T) {
	w := worker.NewBaseWorker("idempotent", "group", zap.NewNop())
	assert.Equal(t, "idempotent", w.Name())
	assert.Equal(t, "group", w.ConsumerGroup())
	assert.NoError(t, w.Stop())
	assert.NoError(t, w.Stop())
	assert.True(t, w.IsStopped())
}
