package session_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/trip-planner/internal/worker/session"
)

type MockSweeper struct {
	mock.Mock
}

func (m *MockSweeper) SweepIdle(ctx context.Context) int {
	return m.Called(ctx).Int(0)
}

func TestJanitorWorker_Sweep(t *testing.T) {
	sweeper := &MockSweeper{}
	sweeper.On("SweepIdle", mock.Anything).Return(2).Once()

	w := session.NewJanitorWorker(sweeper, time.Minute, zap.NewNop())
	assert.Equal(t, "session-janitor", w.Name())

	w.Sweep(context.Background())
	sweeper.AssertExpectations(t)
}

type countingSweeper struct {
	calls atomic.Int32
}

func (s *countingSweeper) SweepIdle(context.Context) int {
	s.calls.Add(1)
	return 0
}

func TestJanitorWorker_RunsUntilStopped(t *testing.T) {
	sweeper := &countingSweeper{}

	w := session.NewJanitorWorker(sweeper, 5*time.Millisecond, zap.NewNop())

	done := make(chan error, 1)
	go func() { done <- w.Start(context.Background()) }()

	assert.Eventually(t, func() bool {
		return sweeper.calls.Load() > 0
	}, time.Second, 5*time.Millisecond)

	assert.NoError(t, w.Stop())
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}
