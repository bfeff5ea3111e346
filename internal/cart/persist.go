package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/metinatakli/pcbuilder/internal/domain"
)

// Load rehydrates the Store saved under key, or returns an empty Store when
// nothing has been saved yet.
func Load(ctx context.Context, repo domain.CartStateRepository, key string, opts ...Option) (*Store, error) {
	state, err := repo.Get(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return New(domain.NewCartState(), opts...), nil
		}

		return nil, fmt.Errorf("load cart state: %w", err)
	}

	return New(*state, opts...), nil
}

// Save persists the Store's current state under key.
func Save(ctx context.Context, repo domain.CartStateRepository, key string, s *Store) error {
	err := repo.Save(ctx, key, s.State())
	if err != nil {
		return fmt.Errorf("save cart state: %w", err)
	}

	return nil
}

// Update applies fn to the Store saved under key through the repository's
// atomic update. fn may run more than once when the state changes
// concurrently. Nothing is saved when fn returns an error.
func Update(ctx context.Context, repo domain.CartStateRepository, key string, fn func(*Store) error, opts ...Option) (*Store, error) {
	var s *Store

	err := repo.Update(ctx, key, func(state *domain.CartState) error {
		s = New(*state, opts...)

		err := fn(s)
		if err != nil {
			return err
		}

		*state = s.State()
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s, nil
}
