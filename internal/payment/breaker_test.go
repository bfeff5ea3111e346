package payment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/metinatakli/pcbuilder/internal/domain"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"
)

type stubProvider struct {
	calls int
	err   error
}

func (p *stubProvider) CreateCheckoutSession(ctx context.Context, order domain.CheckoutOrder) (*domain.CheckoutSession, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}

	return &domain.CheckoutSession{ID: "cs_test", URL: "https://pay.example.com/cs_test"}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBreakerPaymentProvider_Disabled(t *testing.T) {
	stub := &stubProvider{}

	provider := NewBreakerPaymentProvider(stub, BreakerConfig{Name: "stripe"}, discardLogger())

	assert.Same(t, stub, provider)
}

func TestBreakerPaymentProvider_OpensAfterOutages(t *testing.T) {
	stub := &stubProvider{err: fmt.Errorf("%w: %w", domain.ErrProviderFailure, errors.New("connection reset"))}

	provider := NewBreakerPaymentProvider(stub, BreakerConfig{
		Name:                "stripe",
		ConsecutiveFailures: 2,
		Timeout:             time.Minute,
	}, discardLogger())

	for range 2 {
		_, err := provider.CreateCheckoutSession(context.Background(), domain.CheckoutOrder{})
		require.ErrorIs(t, err, domain.ErrProviderFailure)
	}

	breaker := provider.(*BreakerPaymentProvider)
	assert.Equal(t, gobreaker.StateOpen, breaker.State())

	_, err := provider.CreateCheckoutSession(context.Background(), domain.CheckoutOrder{})

	assert.ErrorIs(t, err, domain.ErrProviderFailure)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 2, stub.calls, "an open breaker must not reach the provider")
}

func TestBreakerPaymentProvider_RejectedRequestsKeepItClosed(t *testing.T) {
	stripeErr := &stripe.Error{HTTPStatusCode: http.StatusBadRequest, Msg: "Invalid currency"}
	stub := &stubProvider{err: fmt.Errorf("%w: %w", domain.ErrProviderFailure, stripeErr)}

	provider := NewBreakerPaymentProvider(stub, BreakerConfig{
		Name:                "stripe",
		ConsecutiveFailures: 1,
		Timeout:             time.Minute,
	}, discardLogger())

	for range 3 {
		_, err := provider.CreateCheckoutSession(context.Background(), domain.CheckoutOrder{})
		require.Error(t, err)
		assert.Equal(t, "Invalid currency", ErrorMessage(err))
	}

	assert.Equal(t, gobreaker.StateClosed, provider.(*BreakerPaymentProvider).State())
	assert.Equal(t, 3, stub.calls)
}

func TestIsProviderHealthy(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "no error", err: nil, want: true},
		{name: "canceled by caller", err: context.Canceled, want: true},
		{name: "invalid request", err: &stripe.Error{HTTPStatusCode: http.StatusBadRequest}, want: true},
		{name: "rate limited", err: &stripe.Error{HTTPStatusCode: http.StatusTooManyRequests}, want: false},
		{name: "server error", err: &stripe.Error{HTTPStatusCode: http.StatusBadGateway}, want: false},
		{name: "network error", err: errors.New("dial tcp: connection refused"), want: false},
		{name: "missing url", err: domain.ErrMissingCheckoutURL, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isProviderHealthy(tt.err))
		})
	}
}
