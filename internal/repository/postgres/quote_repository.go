package postgres

import (
	"context"
	"fmt"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/trip-planner/internal/domain"
	"github.com/trip-planner/internal/domain/repository"
)

const insertQuoteQuery = `
	INSERT INTO trip_quotes (
		event_id, session_id, departure_id, arrival_id,
		our_fare, taxi_fare_estimate, distance_m, duration_s,
		is_peak, view_path, quoted_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	ON CONFLICT (event_id) DO NOTHING`

type quoteRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewQuoteRepository создает репозиторий котировок для аналитики
func NewQuoteRepository(db *DB, logger *zap.Logger) repository.QuoteRepository {
	return &quoteRepository{
		db:     db,
		logger: logger,
	}
}

// SaveBatch сохраняет события одной транзакцией
func (r *quoteRepository) SaveBatch(ctx context.Context, events []domain.QuoteEvent) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, insertQuoteQuery)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	inserted := int64(0)
	for _, e := range events {
		viewPath := e.ViewPath
		if viewPath == nil {
			viewPath = []string{}
		}
		res, err := stmt.ExecContext(ctx,
			e.EventID, e.SessionID, e.DepartureID, e.ArrivalID,
			e.Quote.OurFare, e.Quote.TaxiFareEstimate, e.DistanceM, e.DurationS,
			e.Quote.IsPeak, pq.Array(viewPath), e.QuotedAt,
		)
		if err != nil {
			return fmt.Errorf("insert quote %s: %w", e.EventID, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += n
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	r.logger.Debug("Quotes saved",
		zap.Int("batch", len(events)),
		zap.Int64("inserted", inserted))
	return nil
}
