package testhelpers

import (
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/trip-planner/internal/domain/repository"
	"github.com/trip-planner/internal/repository/postgres"
)

// NewDBForTest creates a postgres.DB with test database and logger
func NewDBForTest(db *sqlx.DB, logger *zap.Logger) *postgres.DB {
	return postgres.NewDBForTest(db, logger)
}

// NewQuoteRepositoryForTest creates a quote repository with test database and logger
func NewQuoteRepositoryForTest(db *sqlx.DB, logger *zap.Logger) repository.QuoteRepository {
	return postgres.NewQuoteRepository(NewDBForTest(db, logger), logger)
}
