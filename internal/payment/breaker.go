package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/metinatakli/pcbuilder/internal/domain"
	"github.com/sony/gobreaker/v2"
	"github.com/stripe/stripe-go/v82"
)

type BreakerConfig struct {
	Name string

	// ConsecutiveFailures trips the breaker. Zero disables it.
	ConsecutiveFailures uint32

	// Timeout is how long the breaker stays open before letting a trial request through.
	Timeout time.Duration
}

// BreakerPaymentProvider fails fast while the wrapped provider keeps failing.
// Nothing is retried; an open breaker surfaces as a provider failure.
type BreakerPaymentProvider struct {
	next    domain.PaymentProvider
	breaker *gobreaker.CircuitBreaker[*domain.CheckoutSession]
}

func NewBreakerPaymentProvider(next domain.PaymentProvider, cfg BreakerConfig, logger *slog.Logger) domain.PaymentProvider {
	if cfg.ConsecutiveFailures == 0 {
		return next
	}

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		IsSuccessful: isProviderHealthy,
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("payment provider circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	}

	return &BreakerPaymentProvider{
		next:    next,
		breaker: gobreaker.NewCircuitBreaker[*domain.CheckoutSession](settings),
	}
}

func (b *BreakerPaymentProvider) CreateCheckoutSession(
	ctx context.Context,
	order domain.CheckoutOrder) (*domain.CheckoutSession, error) {

	checkoutSession, err := b.breaker.Execute(func() (*domain.CheckoutSession, error) {
		return b.next.CreateCheckoutSession(ctx, order)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %w", domain.ErrProviderFailure, err)
		}

		return nil, err
	}

	return checkoutSession, nil
}

func (b *BreakerPaymentProvider) State() gobreaker.State {
	return b.breaker.State()
}

// isProviderHealthy counts only outages against the breaker. Requests the
// provider rejected as invalid mean it is up.
func isProviderHealthy(err error) bool {
	if err == nil {
		return true
	}

	if errors.Is(err, context.Canceled) {
		return true
	}

	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		return stripeErr.HTTPStatusCode > 0 &&
			stripeErr.HTTPStatusCode < http.StatusInternalServerError &&
			stripeErr.HTTPStatusCode != http.StatusTooManyRequests
	}

	return false
}
