package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/metinatakli/pcbuilder/internal/cart"
	"github.com/metinatakli/pcbuilder/internal/domain"
	"github.com/redis/go-redis/v9"
)

// maxUpdateAttempts bounds how often Update retries after a concurrent write
// to the same key.
const maxUpdateAttempts = 5

type RedisCartStateRepository struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisCartStateRepository stores snapshots under "<namespace>:<key>".
// Every save pushes the expiry out by ttl; zero keeps snapshots forever.
func NewRedisCartStateRepository(client redis.UniversalClient, ttl time.Duration) *RedisCartStateRepository {
	return &RedisCartStateRepository{
		client: client,
		ttl:    ttl,
	}
}

func (r *RedisCartStateRepository) Get(ctx context.Context, key string) (*domain.CartState, error) {
	data, err := r.client.Get(ctx, cartStateKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrRecordNotFound
		}

		return nil, fmt.Errorf("failed to get cart state %s: %w", key, err)
	}

	return cart.Decode(data)
}

func (r *RedisCartStateRepository) Save(ctx context.Context, key string, state domain.CartState) error {
	data, err := cart.Encode(state)
	if err != nil {
		return err
	}

	err = r.client.Set(ctx, cartStateKey(key), data, r.ttl).Err()
	if err != nil {
		return fmt.Errorf("failed to save cart state %s: %w", key, err)
	}

	return nil
}

// Update runs fn inside a WATCH on the key so a concurrent write from the same
// session aborts the transaction instead of being overwritten.
func (r *RedisCartStateRepository) Update(ctx context.Context, key string, fn func(state *domain.CartState) error) error {
	redisKey := cartStateKey(key)

	var fnErr error

	txf := func(tx *redis.Tx) error {
		state := domain.NewCartState()

		data, err := tx.Get(ctx, redisKey).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			stored, err := cart.Decode(data)
			if err != nil {
				return err
			}
			state = *stored
		}

		fnErr = fn(&state)
		if fnErr != nil {
			return fnErr
		}

		data, err = cart.Encode(state)
		if err != nil {
			return err
		}

		pipe := tx.TxPipeline()
		pipe.Set(ctx, redisKey, data, r.ttl)

		_, err = pipe.Exec(ctx)

		return err
	}

	for range maxUpdateAttempts {
		err := r.client.Watch(ctx, txf, redisKey)
		switch {
		case err == nil:
			return nil
		case fnErr != nil:
			return fnErr
		case errors.Is(err, redis.TxFailedErr):
			continue
		default:
			return fmt.Errorf("failed to update cart state %s: %w", key, err)
		}
	}

	return domain.ErrEditConflict
}

func (r *RedisCartStateRepository) Delete(ctx context.Context, key string) error {
	err := r.client.Del(ctx, cartStateKey(key)).Err()
	if err != nil {
		return fmt.Errorf("failed to delete cart state %s: %w", key, err)
	}

	return nil
}

func cartStateKey(key string) string {
	return fmt.Sprintf("%s:%s", domain.StateNamespace, key)
}
