package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/metinatakli/pcbuilder/internal/cart"
	"github.com/metinatakli/pcbuilder/internal/domain"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T, ttl time.Duration) (*RedisCartStateRepository, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRedisCartStateRepository(client, ttl), mr
}

func sampleState() domain.CartState {
	s := cart.New(domain.NewCartState(), cart.WithClock(func() time.Time { return time.UnixMilli(42) }))
	s.UpdateSelection("CPU", domain.ProductOption{ID: "c1", Name: "Ryzen", Price: decimal.RequireFromString("199.4")})
	s.AddToCart()

	return s.State()
}

func TestRedisCartStateRepository_SaveAndGet(t *testing.T) {
	repo, mr := setupTestRedis(t, time.Hour)
	ctx := context.Background()
	state := sampleState()

	require.NoError(t, repo.Save(ctx, "session-1", state))
	assert.True(t, mr.Exists("product-customizer-storage:session-1"))
	assert.Equal(t, time.Hour, mr.TTL("product-customizer-storage:session-1"))

	got, err := repo.Get(ctx, "session-1")
	require.NoError(t, err)

	want, err := cart.Encode(state)
	require.NoError(t, err)
	gotBytes, err := cart.Encode(*got)
	require.NoError(t, err)
	assert.Equal(t, string(want), string(gotBytes))
	assert.Equal(t, "config-42-cpu-c1", got.CartItems[0].ID)
}

func TestRedisCartStateRepository_GetNotFound(t *testing.T) {
	repo, _ := setupTestRedis(t, time.Hour)

	_, err := repo.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)
}

func TestRedisCartStateRepository_GetCorrupt(t *testing.T) {
	repo, mr := setupTestRedis(t, time.Hour)
	require.NoError(t, mr.Set("product-customizer-storage:bad", "not-json"))

	_, err := repo.Get(context.Background(), "bad")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrRecordNotFound)
}

func TestRedisCartStateRepository_Delete(t *testing.T) {
	repo, mr := setupTestRedis(t, 0)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, "session-1", sampleState()))
	assert.Equal(t, time.Duration(0), mr.TTL("product-customizer-storage:session-1"))

	require.NoError(t, repo.Delete(ctx, "session-1"))
	assert.False(t, mr.Exists("product-customizer-storage:session-1"))
}

func TestRedisCartStateRepository_ConnectionError(t *testing.T) {
	repo, mr := setupTestRedis(t, time.Hour)
	mr.Close()

	_, err := repo.Get(context.Background(), "session-1")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrRecordNotFound)

	err = repo.Save(context.Background(), "session-1", sampleState())
	assert.Error(t, err)
}

func TestRedisCartStateRepository_UpdateStartsFromEmptyState(t *testing.T) {
	repo, mr := setupTestRedis(t, time.Hour)
	ctx := context.Background()

	err := repo.Update(ctx, "session-1", func(state *domain.CartState) error {
		assert.Empty(t, state.Selections)
		assert.Empty(t, state.CartItems)
		state.CartItems = sampleState().CartItems
		return nil
	})
	require.NoError(t, err)

	got, err := repo.Get(ctx, "session-1")
	require.NoError(t, err)
	assert.Len(t, got.CartItems, 1)
	assert.Equal(t, time.Hour, mr.TTL("product-customizer-storage:session-1"))
}

func TestRedisCartStateRepository_UpdateRetriesOnConcurrentWrite(t *testing.T) {
	repo, mr := setupTestRedis(t, time.Hour)
	ctx := context.Background()

	other := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { other.Close() })
	otherRepo := NewRedisCartStateRepository(other, time.Hour)

	require.NoError(t, repo.Save(ctx, "session-1", domain.NewCartState()))

	calls := 0
	err := repo.Update(ctx, "session-1", func(state *domain.CartState) error {
		calls++
		if calls == 1 {
			// another request from the same session lands between read and write
			require.NoError(t, otherRepo.Save(ctx, "session-1", sampleState()))
		}

		state.Selections["GPU"] = domain.ProductOption{ID: "g1", Name: "RTX 4060", Price: decimal.NewFromInt(50000)}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	got, err := repo.Get(ctx, "session-1")
	require.NoError(t, err)
	assert.Len(t, got.CartItems, 1, "the concurrent write is not lost")
	assert.Contains(t, got.Selections, "CPU")
	assert.Contains(t, got.Selections, "GPU")
}

func TestRedisCartStateRepository_UpdateGivesUpAfterRepeatedConflicts(t *testing.T) {
	repo, mr := setupTestRedis(t, time.Hour)
	ctx := context.Background()

	other := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { other.Close() })
	otherRepo := NewRedisCartStateRepository(other, time.Hour)

	calls := 0
	err := repo.Update(ctx, "session-1", func(state *domain.CartState) error {
		calls++
		require.NoError(t, otherRepo.Save(ctx, "session-1", sampleState()))
		state.CartItems = nil
		return nil
	})

	assert.ErrorIs(t, err, domain.ErrEditConflict)
	assert.Equal(t, maxUpdateAttempts, calls)

	got, err := repo.Get(ctx, "session-1")
	require.NoError(t, err)
	assert.Len(t, got.CartItems, 1)
}

func TestRedisCartStateRepository_UpdateDoesNotSaveOnError(t *testing.T) {
	repo, mr := setupTestRedis(t, time.Hour)

	err := repo.Update(context.Background(), "session-1", func(state *domain.CartState) error {
		state.CartItems = sampleState().CartItems
		return domain.ErrIncompleteConfiguration
	})

	assert.ErrorIs(t, err, domain.ErrIncompleteConfiguration)
	assert.False(t, mr.Exists("product-customizer-storage:session-1"))
}
