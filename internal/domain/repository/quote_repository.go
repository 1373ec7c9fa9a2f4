package repository

import (
	"context"

	"github.com/trip-planner/internal/domain"
)

// QuoteRepository - хранилище рассчитанных котировок для аналитики
type QuoteRepository interface {
	// SaveBatch сохраняет события; повторная вставка того же EventID игнорируется
	SaveBatch(ctx context.Context, events []domain.QuoteEvent) error
}
