package refdata_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/trip-planner/internal/worker/refdata"
)

type MockReloader struct {
	mock.Mock
}

func (m *MockReloader) Load(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockReloader) Ready() bool {
	return m.Called().Bool(0)
}

func TestRefresherWorker_Refresh(t *testing.T) {
	reloader := &MockReloader{}
	reloader.On("Ready").Return(false).Twice()
	reloader.On("Load", mock.Anything).Return(errors.New("timeout")).Once()
	reloader.On("Load", mock.Anything).Return(nil).Once()

	w := refdata.NewRefresherWorker(reloader, time.Minute, zap.NewNop())
	assert.Equal(t, "refdata-refresher", w.Name())

	w.Refresh(context.Background())
	w.Refresh(context.Background())

	reloader.AssertExpectations(t)
}

func TestRefresherWorker_ReadyStoreIsNotReloaded(t *testing.T) {
	reloader := &MockReloader{}
	reloader.On("Ready").Return(true)

	w := refdata.NewRefresherWorker(reloader, time.Minute, zap.NewNop())
	w.Refresh(context.Background())
	w.Refresh(context.Background())

	reloader.AssertNotCalled(t, "Load", mock.Anything)
	reloader.AssertNumberOfCalls(t, "Ready", 2)
}

func TestRefresherWorker_StopsOnContextCancel(t *testing.T) {
	reloader := &MockReloader{}
	reloader.On("Ready").Return(false).Maybe()
	reloader.On("Load", mock.Anything).Return(errors.New("no data")).Maybe()

	w := refdata.NewRefresherWorker(reloader, 5*time.Millisecond, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}
