package client

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/metinatakli/pcbuilder/internal/domain"
)

type Status string

const (
	StatusIdle       Status = "idle"
	StatusSubmitting Status = "submitting"
	StatusRedirected Status = "redirected"
	StatusFailed     Status = "failed"
)

func (s Status) IsTerminal() bool {
	return s == StatusRedirected
}

func (s Status) String() string {
	return string(s)
}

var ErrAlreadyRedirected = errors.New("checkout already redirected to the payment page")

// SessionCreator opens a payment session for items and returns where to send
// the shopper.
type SessionCreator interface {
	CreateCheckoutSession(ctx context.Context, items []domain.CartItem, idempotencyKey string) (string, error)
}

// Checkout drives a single shopper's checkout:
//
//	idle -> submitting -> redirected
//	            |
//	            +-> failed -> idle
//
// Only one submission may be in flight. The cart is never modified here.
type Checkout struct {
	mu       sync.Mutex
	status   Status
	gateway  SessionCreator
	logger   *slog.Logger
	newKey   func() string
	observer func(Status)
}

type CheckoutOption func(*Checkout)

// WithObserver registers fn to be called on every status transition.
func WithObserver(fn func(Status)) CheckoutOption {
	return func(c *Checkout) {
		c.observer = fn
	}
}

func WithIdempotencyKeys(fn func() string) CheckoutOption {
	return func(c *Checkout) {
		c.newKey = fn
	}
}

func NewCheckout(gateway SessionCreator, logger *slog.Logger, opts ...CheckoutOption) *Checkout {
	c := &Checkout{
		status:  StatusIdle,
		gateway: gateway,
		logger:  logger,
		newKey:  uuid.NewString,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Checkout) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.status
}

// Submit sends items to the gateway and returns the payment page URL. A
// failed submission is logged, leaves the Checkout idle again and returns the
// error for the caller to show.
func (c *Checkout) Submit(ctx context.Context, items []domain.CartItem) (string, error) {
	if len(items) == 0 {
		return "", domain.ErrEmptyCart
	}

	c.mu.Lock()
	switch {
	case c.status == StatusSubmitting:
		c.mu.Unlock()
		return "", domain.ErrCheckoutInProgress
	case c.status.IsTerminal():
		c.mu.Unlock()
		return "", ErrAlreadyRedirected
	}
	c.transition(StatusSubmitting)
	c.mu.Unlock()

	key := c.newKey()
	url, err := c.gateway.CreateCheckoutSession(ctx, items, key)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.transition(StatusFailed)
		c.logger.Error("checkout failed", "error", err, "idempotency_key", key)
		c.transition(StatusIdle)

		return "", err
	}

	c.transition(StatusRedirected)
	c.logger.Info("redirecting to payment page", "url", url)

	return url, nil
}

// transition must be called with mu held.
func (c *Checkout) transition(to Status) {
	c.status = to

	if c.observer != nil {
		c.observer(to)
	}
}
