package repository

import (
	"context"
	"time"

	"github.com/trip-planner/internal/domain"
)

// SessionRepository хранит снимки сессий с TTL
type SessionRepository interface {
	// Save сохраняет снимок и продлевает TTL
	Save(ctx context.Context, snapshot *domain.SessionSnapshot, ttl time.Duration) error

	// Get возвращает снимок; (nil, nil) если сессия не найдена
	Get(ctx context.Context, sessionID string) (*domain.SessionSnapshot, error)

	// Delete удаляет снимок; found=false если снимка не было
	Delete(ctx context.Context, sessionID string) (found bool, err error)
}
