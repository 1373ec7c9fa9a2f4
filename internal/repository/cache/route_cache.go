package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bluele/gcache"
	"go.uber.org/zap"

	"github.com/trip-planner/internal/config"
	"github.com/trip-planner/internal/domain"
	"github.com/trip-planner/internal/domain/repository"
)

const defaultRouteCacheSize = 1000

// RouteCache кеширует ответы сервиса маршрутизации: LRU в памяти (L1) и Redis (L2).
// Ошибки не кешируются
type RouteCache struct {
	next   repository.RoutingRepository
	local  gcache.Cache
	remote repository.CacheRepository
	ttl    time.Duration
	logger *zap.Logger
}

// NewRouteCache оборачивает next. remote может быть nil
func NewRouteCache(next repository.RoutingRepository, remote repository.CacheRepository, cfg config.CacheConfig, logger *zap.Logger) *RouteCache {
	size := cfg.RouteCacheSize
	if size <= 0 {
		size = defaultRouteCacheSize
	}

	builder := gcache.New(size).LRU()
	if cfg.RouteCacheTTL > 0 {
		builder = builder.Expiration(cfg.RouteCacheTTL)
	}

	return &RouteCache{
		next:   next,
		local:  builder.Build(),
		remote: remote,
		ttl:    cfg.RouteCacheTTL,
		logger: logger,
	}
}

// RouteKey - ключ кеша для пары точек, округлённых до ~1 м
func RouteKey(origin, destination domain.Point) string {
	return fmt.Sprintf("route:%.5f,%.5f:%.5f,%.5f", origin.Lat, origin.Lng, destination.Lat, destination.Lng)
}

func (c *RouteCache) Route(ctx context.Context, origin, destination domain.Point) (*domain.RouteResult, error) {
	key := RouteKey(origin, destination)

	if cached, err := c.local.Get(key); err == nil {
		if result, ok := cached.(*domain.RouteResult); ok {
			c.logger.Debug("Route cache hit", zap.String("key", key), zap.String("level", "memory"))
			return cloneRoute(result), nil
		}
	}

	if result := c.fromRemote(ctx, key); result != nil {
		c.remember(key, result)
		return cloneRoute(result), nil
	}

	result, err := c.next.Route(ctx, origin, destination)
	if err != nil {
		return nil, err
	}

	c.remember(key, result)
	c.toRemote(ctx, key, result)
	return cloneRoute(result), nil
}

// Len - число маршрутов в памяти
func (c *RouteCache) Len() int {
	return c.local.Len(true)
}

func (c *RouteCache) fromRemote(ctx context.Context, key string) *domain.RouteResult {
	if c.remote == nil {
		return nil
	}
	data, err := c.remote.Get(ctx, key)
	if err != nil || data == nil {
		return nil
	}

	var result domain.RouteResult
	if err := json.Unmarshal(data, &result); err != nil {
		c.logger.Warn("Corrupted route cache entry", zap.String("key", key), zap.Error(err))
		return nil
	}
	c.logger.Debug("Route cache hit", zap.String("key", key), zap.String("level", "redis"))
	return &result
}

func (c *RouteCache) toRemote(ctx context.Context, key string, result *domain.RouteResult) {
	if c.remote == nil {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := c.remote.Set(ctx, key, data, c.ttl); err != nil && !errors.Is(err, context.Canceled) {
		c.logger.Warn("Failed to store route in cache", zap.String("key", key), zap.Error(err))
	}
}

func (c *RouteCache) remember(key string, result *domain.RouteResult) {
	if err := c.local.Set(key, cloneRoute(result)); err != nil {
		c.logger.Debug("Failed to store route in memory", zap.String("key", key), zap.Error(err))
	}
}

func cloneRoute(r *domain.RouteResult) *domain.RouteResult {
	cp := *r
	if r.Path != nil {
		cp.Path = append([]domain.Point(nil), r.Path...)
	}
	return &cp
}
