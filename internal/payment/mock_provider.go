package payment

import (
	"context"
	"fmt"
	"sync"

	"github.com/metinatakli/pcbuilder/internal/domain"
)

// MockPaymentProvider records orders and hands out fake sessions without any
// network traffic. It backs integration tests and local runs without a key.
type MockPaymentProvider struct {
	mu      sync.Mutex
	baseURL string
	orders  []domain.CheckoutOrder
}

func NewMockPaymentProvider(baseURL string) *MockPaymentProvider {
	return &MockPaymentProvider{baseURL: baseURL}
}

func (m *MockPaymentProvider) CreateCheckoutSession(
	ctx context.Context,
	order domain.CheckoutOrder) (*domain.CheckoutSession, error) {

	m.mu.Lock()
	defer m.mu.Unlock()

	m.orders = append(m.orders, order)
	id := fmt.Sprintf("cs_test_%d", len(m.orders))

	return &domain.CheckoutSession{
		ID:  id,
		URL: fmt.Sprintf("%s/pay/%s", m.baseURL, id),
	}, nil
}

// Orders returns a copy of every order received so far.
func (m *MockPaymentProvider) Orders() []domain.CheckoutOrder {
	m.mu.Lock()
	defer m.mu.Unlock()

	orders := make([]domain.CheckoutOrder, len(m.orders))
	copy(orders, m.orders)

	return orders
}
