package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/trip-planner/internal/domain"
	"github.com/trip-planner/internal/domain/repository"
)

const sessionKeyPrefix = "session:"

type sessionRepository struct {
	cache  repository.CacheRepository
	logger *zap.Logger
}

// NewSessionRepository хранит снимки сессий в Redis как JSON
func NewSessionRepository(cache repository.CacheRepository, logger *zap.Logger) repository.SessionRepository {
	return &sessionRepository{
		cache:  cache,
		logger: logger,
	}
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

func (r *sessionRepository) Save(ctx context.Context, snapshot *domain.SessionSnapshot, ttl time.Duration) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal session snapshot: %w", err)
	}
	return r.cache.Set(ctx, sessionKey(snapshot.SessionID), data, ttl)
}

func (r *sessionRepository) Get(ctx context.Context, sessionID string) (*domain.SessionSnapshot, error) {
	data, err := r.cache.Get(ctx, sessionKey(sessionID))
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}

	var snapshot domain.SessionSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		r.logger.Error("Failed to unmarshal session snapshot", zap.String("session_id", sessionID), zap.Error(err))
		return nil, fmt.Errorf("unmarshal session snapshot: %w", err)
	}
	return &snapshot, nil
}

func (r *sessionRepository) Delete(ctx context.Context, sessionID string) (bool, error) {
	key := sessionKey(sessionID)
	found, err := r.cache.Exists(ctx, key)
	if err != nil {
		return false, err
	}
	if !found {
		return false, nil
	}
	if err := r.cache.Delete(ctx, key); err != nil {
		return false, err
	}
	return true, nil
}
