package quote

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/trip-planner/internal/domain"
	"github.com/trip-planner/internal/domain/repository"
	"github.com/trip-planner/internal/worker"
)

const (
	maxBatchSize    = 50                     // максимум сообщений за раз
	emptyQueueSleep = 500 * time.Millisecond // пауза если очередь пуста
	errorSleep      = time.Second
)

// RecorderWorker переносит события котировок из Redis Stream в Postgres
type RecorderWorker struct {
	*worker.BaseWorker
	streamRepo   repository.StreamRepository
	quoteRepo    repository.QuoteRepository
	consumerName string
	maxRetries   int

	// attempts - число неудачных сохранений по ID сообщения
	attempts map[string]int
}

// NewRecorderWorker создает новый RecorderWorker
func NewRecorderWorker(
	streamRepo repository.StreamRepository,
	quoteRepo repository.QuoteRepository,
	consumerGroup string,
	maxRetries int,
	logger *zap.Logger,
) *RecorderWorker {
	hostname, _ := os.Hostname()

	return &RecorderWorker{
		BaseWorker:   worker.NewBaseWorker("quote-recorder", consumerGroup, logger),
		streamRepo:   streamRepo,
		quoteRepo:    quoteRepo,
		consumerName: fmt.Sprintf("%s-%d", hostname, os.Getpid()),
		maxRetries:   maxRetries,
		attempts:     make(map[string]int),
	}
}

// Start запускает воркер
func (w *RecorderWorker) Start(ctx context.Context) error {
	logger := w.Logger()
	logger.Info("Starting RecorderWorker",
		zap.String("consumer_group", w.ConsumerGroup()),
		zap.String("consumer_name", w.consumerName),
		zap.Int("max_batch_size", maxBatchSize))

	if err := w.streamRepo.CreateConsumerGroup(ctx, domain.StreamTripQuoted, w.ConsumerGroup()); err != nil {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	for {
		select {
		case <-w.StopChan():
			logger.Info("Worker stopped")
			return nil
		case <-ctx.Done():
			logger.Info("Context cancelled")
			return ctx.Err()
		default:
		}

		processed, err := w.ProcessBatch(ctx)
		if err != nil {
			logger.Error("Failed to process batch", zap.Error(err))
			w.pause(ctx, errorSleep)
			continue
		}
		if processed == 0 {
			w.pause(ctx, emptyQueueSleep)
		}
	}
}

// ProcessBatch читает и сохраняет пачку событий. Возвращает число прочитанных сообщений
func (w *RecorderWorker) ProcessBatch(ctx context.Context) (int, error) {
	logger := w.Logger()

	messages, err := w.streamRepo.ConsumeBatch(ctx, domain.StreamTripQuoted, w.ConsumerGroup(), w.consumerName, maxBatchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to consume batch: %w", err)
	}
	if len(messages) == 0 {
		return 0, nil
	}

	events := make([]domain.QuoteEvent, 0, len(messages))
	messageIDs := make([]string, 0, len(messages))

	for _, msg := range messages {
		var event domain.QuoteEvent
		if err := json.Unmarshal([]byte(msg.Data), &event); err != nil {
			logger.Warn("Failed to parse message, skipping",
				zap.String("message_id", msg.ID),
				zap.Error(err))
			// ACK битое сообщение чтобы не застревало
			_ = w.streamRepo.AckMessage(ctx, domain.StreamTripQuoted, w.ConsumerGroup(), msg.ID)
			continue
		}
		events = append(events, event)
		messageIDs = append(messageIDs, msg.ID)
	}

	if len(events) == 0 {
		return len(messages), nil
	}

	if err := w.quoteRepo.SaveBatch(ctx, events); err != nil {
		return len(messages), w.handleSaveFailure(ctx, messageIDs, err)
	}

	for _, id := range messageIDs {
		delete(w.attempts, id)
	}
	if err := w.streamRepo.AckMessages(ctx, domain.StreamTripQuoted, w.ConsumerGroup(), messageIDs); err != nil {
		// не критично: сообщения будут сохранены повторно, вставка идемпотентна
		logger.Error("Failed to ack messages", zap.Error(err))
	}

	logger.Info("Batch recorded", zap.Int("quotes", len(events)))
	return len(messages), nil
}

// handleSaveFailure оставляет сообщения в pending до maxRetries попыток, затем подтверждает их
func (w *RecorderWorker) handleSaveFailure(ctx context.Context, messageIDs []string, saveErr error) error {
	var exhausted []string
	for _, id := range messageIDs {
		w.attempts[id]++
		if w.attempts[id] >= w.maxRetries {
			exhausted = append(exhausted, id)
			delete(w.attempts, id)
		}
	}

	if len(exhausted) > 0 {
		w.Logger().Error("Dropping quote events after max retries",
			zap.Int("count", len(exhausted)),
			zap.Int("max_retries", w.maxRetries),
			zap.Error(saveErr))
		if err := w.streamRepo.AckMessages(ctx, domain.StreamTripQuoted, w.ConsumerGroup(), exhausted); err != nil {
			w.Logger().Error("Failed to ack dropped messages", zap.Error(err))
		}
	}

	return fmt.Errorf("failed to save quotes: %w", saveErr)
}

func (w *RecorderWorker) pause(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-w.StopChan():
	case <-ctx.Done():
	}
}
