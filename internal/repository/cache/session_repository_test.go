package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/trip-planner/internal/domain"
)

func TestSessionRepository_RoundTrip(t *testing.T) {
	store := map[string][]byte{}
	cache := &MockCacheRepository{}
	cache.On("Set", mock.Anything, "session:abc", mock.Anything, 30*time.Minute).
		Run(func(args mock.Arguments) { store["session:abc"] = args.Get(2).([]byte) }).
		Return(nil)

	repo := NewSessionRepository(cache, zap.NewNop())
	ctx := context.Background()

	snap := &domain.SessionSnapshot{
		SessionID:   "abc",
		Mode:        domain.ModeFareDisplayed,
		DepartureID: "a",
		ArrivalID:   "b",
		Quote:       &domain.FareQuote{OurFare: 65, TaxiFareEstimate: 29, DistanceKm: "3.00", EstTime: "20 mins", IsPeak: true},
		ViewHistory: []domain.View{{Name: domain.ViewCity, Zoom: 11}},
		MapReady:    true,
	}
	require.NoError(t, repo.Save(ctx, snap, 30*time.Minute))
	cache.On("Get", mock.Anything, "session:abc").Return(store["session:abc"], nil)

	got, err := repo.Get(ctx, "abc")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, snap.Mode, got.Mode)
	assert.Equal(t, snap.Quote, got.Quote)
	assert.Equal(t, snap.ViewHistory, got.ViewHistory)
}

func TestSessionRepository_Miss(t *testing.T) {
	cache := &MockCacheRepository{}
	cache.On("Get", mock.Anything, "session:none").Return(nil, nil)

	got, err := NewSessionRepository(cache, zap.NewNop()).Get(context.Background(), "none")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSessionRepository_Corrupted(t *testing.T) {
	cache := &MockCacheRepository{}
	cache.On("Get", mock.Anything, "session:bad").Return([]byte("{"), nil)

	_, err := NewSessionRepository(cache, zap.NewNop()).Get(context.Background(), "bad")
	assert.Error(t, err)
}

func TestSessionRepository_Delete(t *testing.T) {
	cache := &MockCacheRepository{}
	cache.On("Exists", mock.Anything, "session:abc").Return(true, nil)
	cache.On("Delete", mock.Anything, "session:abc").Return(nil)
	cache.On("Exists", mock.Anything, "session:none").Return(false, nil)

	repo := NewSessionRepository(cache, zap.NewNop())
	ctx := context.Background()

	found, err := repo.Delete(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, found)

	found, err = repo.Delete(ctx, "none")
	require.NoError(t, err)
	assert.False(t, found)
	cache.AssertNotCalled(t, "Delete", mock.Anything, "session:none")
}
