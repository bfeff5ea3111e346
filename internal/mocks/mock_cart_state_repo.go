package mocks

import (
	"context"

	"github.com/metinatakli/pcbuilder/internal/domain"
)

type MockCartStateRepo struct {
	domain.CartStateRepository
	GetFunc    func(ctx context.Context, key string) (*domain.CartState, error)
	SaveFunc   func(ctx context.Context, key string, state domain.CartState) error
	UpdateFunc func(ctx context.Context, key string, fn func(state *domain.CartState) error) error
	DeleteFunc func(ctx context.Context, key string) error
}

func (m *MockCartStateRepo) Get(ctx context.Context, key string) (*domain.CartState, error) {
	return m.GetFunc(ctx, key)
}

func (m *MockCartStateRepo) Save(ctx context.Context, key string, state domain.CartState) error {
	return m.SaveFunc(ctx, key, state)
}

func (m *MockCartStateRepo) Update(ctx context.Context, key string, fn func(state *domain.CartState) error) error {
	return m.UpdateFunc(ctx, key, fn)
}

func (m *MockCartStateRepo) Delete(ctx context.Context, key string) error {
	return m.DeleteFunc(ctx, key)
}
