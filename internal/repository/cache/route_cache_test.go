package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/trip-planner/internal/config"
	"github.com/trip-planner/internal/domain"
)

type MockRoutingRepository struct {
	mock.Mock
}

func (m *MockRoutingRepository) Route(ctx context.Context, origin, destination domain.Point) (*domain.RouteResult, error) {
	args := m.Called(ctx, origin, destination)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RouteResult), args.Error(1)
}

type MockCacheRepository struct {
	mock.Mock
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return m.Called(ctx, key, value, ttl).Error(0)
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

var (
	origin      = domain.Point{Lat: 22.2871, Lng: 114.1617}
	destination = domain.Point{Lat: 22.2936, Lng: 114.1688}
	cacheCfg    = config.CacheConfig{RouteCacheTTL: time.Hour, RouteCacheSize: 10}
)

func TestRouteKey(t *testing.T) {
	assert.Equal(t, "route:22.28710,114.16170:22.29360,114.16880", RouteKey(origin, destination))
	assert.NotEqual(t, RouteKey(origin, destination), RouteKey(destination, origin))
}

func TestRouteCache_MemoryOnly(t *testing.T) {
	next := &MockRoutingRepository{}
	next.On("Route", mock.Anything, origin, destination).
		Return(&domain.RouteResult{DistanceMeters: 3000, DurationSeconds: 1200, Path: []domain.Point{origin, destination}}, nil).
		Once()

	c := NewRouteCache(next, nil, cacheCfg, zap.NewNop())
	ctx := context.Background()

	first, err := c.Route(ctx, origin, destination)
	require.NoError(t, err)
	second, err := c.Route(ctx, origin, destination)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, c.Len())

	// копии независимы
	second.Path[0] = domain.Point{}
	third, err := c.Route(ctx, origin, destination)
	require.NoError(t, err)
	assert.Equal(t, origin, third.Path[0])

	next.AssertExpectations(t)
}

func TestRouteCache_ErrorsAreNotCached(t *testing.T) {
	next := &MockRoutingRepository{}
	next.On("Route", mock.Anything, origin, destination).Return(nil, errors.New("upstream down")).Once()
	next.On("Route", mock.Anything, origin, destination).Return(&domain.RouteResult{DistanceMeters: 10}, nil).Once()

	c := NewRouteCache(next, nil, cacheCfg, zap.NewNop())

	_, err := c.Route(context.Background(), origin, destination)
	assert.Error(t, err)

	result, err := c.Route(context.Background(), origin, destination)
	require.NoError(t, err)
	assert.Equal(t, 10.0, result.DistanceMeters)
	next.AssertNumberOfCalls(t, "Route", 2)
}

func TestRouteCache_RedisHit(t *testing.T) {
	key := RouteKey(origin, destination)
	data, err := json.Marshal(domain.RouteResult{DistanceMeters: 4200, DurationSeconds: 600})
	require.NoError(t, err)

	next := &MockRoutingRepository{}
	remote := &MockCacheRepository{}
	remote.On("Get", mock.Anything, key).Return(data, nil).Once()

	c := NewRouteCache(next, remote, cacheCfg, zap.NewNop())

	result, err := c.Route(context.Background(), origin, destination)
	require.NoError(t, err)
	assert.Equal(t, 4200.0, result.DistanceMeters)

	// теперь из памяти
	_, err = c.Route(context.Background(), origin, destination)
	require.NoError(t, err)

	next.AssertNotCalled(t, "Route", mock.Anything, mock.Anything, mock.Anything)
	remote.AssertExpectations(t)
}

func TestRouteCache_MissStoresInRedis(t *testing.T) {
	key := RouteKey(origin, destination)

	next := &MockRoutingRepository{}
	next.On("Route", mock.Anything, origin, destination).Return(&domain.RouteResult{DistanceMeters: 3000}, nil).Once()

	remote := &MockCacheRepository{}
	remote.On("Get", mock.Anything, key).Return(nil, nil)
	remote.On("Set", mock.Anything, key, mock.MatchedBy(func(b []byte) bool {
		var r domain.RouteResult
		return json.Unmarshal(b, &r) == nil && r.DistanceMeters == 3000
	}), time.Hour).Return(nil).Once()

	c := NewRouteCache(next, remote, cacheCfg, zap.NewNop())

	_, err := c.Route(context.Background(), origin, destination)
	require.NoError(t, err)

	remote.AssertExpectations(t)
}

func TestRouteCache_RedisFailureFallsThrough(t *testing.T) {
	key := RouteKey(origin, destination)

	next := &MockRoutingRepository{}
	next.On("Route", mock.Anything, origin, destination).Return(&domain.RouteResult{DistanceMeters: 3000}, nil)

	remote := &MockCacheRepository{}
	remote.On("Get", mock.Anything, key).Return(nil, errors.New("connection refused"))
	remote.On("Set", mock.Anything, key, mock.Anything, time.Hour).Return(errors.New("connection refused"))

	c := NewRouteCache(next, remote, cacheCfg, zap.NewNop())

	result, err := c.Route(context.Background(), origin, destination)
	require.NoError(t, err)
	assert.Equal(t, 3000.0, result.DistanceMeters)
}
