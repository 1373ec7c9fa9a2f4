package quote_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/trip-planner/internal/domain"
	"github.com/trip-planner/internal/worker/quote"
)

// MockStreamRepository is a mock of StreamRepository
type MockStreamRepository struct {
	mock.Mock
}

func (m *MockStreamRepository) ConsumeBatch(ctx context.Context, stream, group, consumer string, maxCount int) ([]domain.StreamMessage, error) {
	args := m.Called(ctx, stream, group, consumer, maxCount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.StreamMessage), args.Error(1)
}

func (m *MockStreamRepository) AckMessage(ctx context.Context, stream, group, messageID string) error {
	return m.Called(ctx, stream, group, messageID).Error(0)
}

func (m *MockStreamRepository) AckMessages(ctx context.Context, stream, group string, messageIDs []string) error {
	return m.Called(ctx, stream, group, messageIDs).Error(0)
}

func (m *MockStreamRepository) CreateConsumerGroup(ctx context.Context, stream, group string) error {
	return m.Called(ctx, stream, group).Error(0)
}

func (m *MockStreamRepository) PublishToStream(ctx context.Context, stream string, data interface{}) error {
	return m.Called(ctx, stream, data).Error(0)
}

// MockQuoteRepository is a mock of QuoteRepository
type MockQuoteRepository struct {
	mock.Mock
}

func (m *MockQuoteRepository) SaveBatch(ctx context.Context, events []domain.QuoteEvent) error {
	return m.Called(ctx, events).Error(0)
}

func message(t *testing.T, id string, sessionID string) domain.StreamMessage {
	t.Helper()
	data, err := json.Marshal(domain.QuoteEvent{
		EventID:     uuid.New(),
		SessionID:   sessionID,
		DepartureID: "a",
		ArrivalID:   "b",
		Quote:       domain.FareQuote{OurFare: 35, TaxiFareEstimate: 29},
		ViewPath:    []string{"City", "Drive"},
	})
	require.NoError(t, err)
	return domain.StreamMessage{ID: id, Data: string(data)}
}

func newWorker(streams *MockStreamRepository, quotes *MockQuoteRepository, maxRetries int) *quote.RecorderWorker {
	return quote.NewRecorderWorker(streams, quotes, "recorders", maxRetries, zap.NewNop())
}

func TestRecorderWorker_Name(t *testing.T) {
	w := newWorker(&MockStreamRepository{}, &MockQuoteRepository{}, 3)
	assert.Equal(t, "quote-recorder", w.Name())
	assert.Equal(t, "recorders", w.ConsumerGroup())
}

func TestRecorderWorker_ProcessBatch(t *testing.T) {
	streams := &MockStreamRepository{}
	quotes := &MockQuoteRepository{}
	ctx := context.Background()

	streams.On("ConsumeBatch", ctx, domain.StreamTripQuoted, "recorders", mock.Anything, mock.Anything).
		Return([]domain.StreamMessage{message(t, "1-0", "s1"), {ID: "2-0", Data: "not json"}, message(t, "3-0", "s2")}, nil)
	streams.On("AckMessage", ctx, domain.StreamTripQuoted, "recorders", "2-0").Return(nil)
	streams.On("AckMessages", ctx, domain.StreamTripQuoted, "recorders", []string{"1-0", "3-0"}).Return(nil)
	quotes.On("SaveBatch", ctx, mock.MatchedBy(func(events []domain.QuoteEvent) bool {
		return len(events) == 2 && events[0].SessionID == "s1" && events[1].SessionID == "s2"
	})).Return(nil)

	n, err := newWorker(streams, quotes, 3).ProcessBatch(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	streams.AssertExpectations(t)
	quotes.AssertExpectations(t)
}

func TestRecorderWorker_EmptyQueue(t *testing.T) {
	streams := &MockStreamRepository{}
	streams.On("ConsumeBatch", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)

	n, err := newWorker(streams, &MockQuoteRepository{}, 3).ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRecorderWorker_SaveFailureRetriesThenDrops(t *testing.T) {
	streams := &MockStreamRepository{}
	quotes := &MockQuoteRepository{}
	ctx := context.Background()

	streams.On("ConsumeBatch", ctx, domain.StreamTripQuoted, "recorders", mock.Anything, mock.Anything).
		Return([]domain.StreamMessage{message(t, "1-0", "s1")}, nil)
	quotes.On("SaveBatch", ctx, mock.Anything).Return(errors.New("connection refused"))
	streams.On("AckMessages", ctx, domain.StreamTripQuoted, "recorders", []string{"1-0"}).Return(nil).Once()

	w := newWorker(streams, quotes, 2)

	_, err := w.ProcessBatch(ctx)
	assert.Error(t, err)
	streams.AssertNotCalled(t, "AckMessages", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	_, err = w.ProcessBatch(ctx)
	assert.Error(t, err)
	streams.AssertExpectations(t)
}

func TestRecorderWorker_ConsumeError(t *testing.T) {
	streams := &MockStreamRepository{}
	streams.On("ConsumeBatch", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("redis down"))

	_, err := newWorker(streams, &MockQuoteRepository{}, 3).ProcessBatch(context.Background())
	assert.ErrorContains(t, err, "redis down")
}

func TestRecorderWorker_StartStop(t *testing.T) {
	streams := &MockStreamRepository{}
	streams.On("CreateConsumerGroup", mock.Anything, domain.StreamTripQuoted, "recorders").Return(nil)
	streams.On("ConsumeBatch", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)

	w := newWorker(streams, &MockQuoteRepository{}, 3)

	done := make(chan error, 1)
	go func() { done <- w.Start(context.Background()) }()

	time.Sleep(20 * time.Millisecond)
	require.NoError(t, w.Stop())

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestRecorderWorker_ConsumerGroupFailure(t *testing.T) {
	streams := &MockStreamRepository{}
	streams.On("CreateConsumerGroup", mock.Anything, domain.StreamTripQuoted, "recorders").Return(errors.New("NOAUTH"))

	err := newWorker(streams, &MockQuoteRepository{}, 3).Start(context.Background())
	assert.ErrorContains(t, err, "consumer group")
}
