package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/metinatakli/pcbuilder/internal/domain"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
)

type StripeConfig struct {
	Currency        string
	ShippingCountry string
	OrderType       string
}

type StripePaymentProvider struct {
	cfg        StripeConfig
	newSession func(*stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

func NewStripePaymentProvider(cfg StripeConfig) *StripePaymentProvider {
	return &StripePaymentProvider{
		cfg:        cfg,
		newSession: session.New,
	}
}

func (s *StripePaymentProvider) CreateCheckoutSession(
	ctx context.Context,
	order domain.CheckoutOrder) (*domain.CheckoutSession, error) {

	params := s.sessionParams(order)
	params.Context = ctx

	checkoutSession, err := s.newSession(params)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrProviderFailure, err)
	}

	if checkoutSession == nil || checkoutSession.URL == "" {
		return nil, fmt.Errorf("%w: %w", domain.ErrProviderFailure, domain.ErrMissingCheckoutURL)
	}

	return &domain.CheckoutSession{
		ID:  checkoutSession.ID,
		URL: checkoutSession.URL,
	}, nil
}

func (s *StripePaymentProvider) sessionParams(order domain.CheckoutOrder) *stripe.CheckoutSessionParams {
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(order.Items))

	for _, item := range order.Items {
		lineItem := &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(s.cfg.Currency),
				UnitAmount: stripe.Int64(item.UnitAmount),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name:        stripe.String(item.Name),
					Description: stripe.String(item.Description),
				},
			},
			Quantity: stripe.Int64(item.Quantity),
		}

		lineItems = append(lineItems, lineItem)
	}

	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems:          lineItems,
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:         stripe.String(order.SuccessURL),
		CancelURL:          stripe.String(order.CancelURL),
		Metadata: map[string]string{
			"orderType": s.cfg.OrderType,
		},
		ShippingAddressCollection: &stripe.CheckoutSessionShippingAddressCollectionParams{
			AllowedCountries: stripe.StringSlice([]string{s.cfg.ShippingCountry}),
		},
	}

	if order.IdempotencyKey != "" {
		params.SetIdempotencyKey(order.IdempotencyKey)
	}

	return params
}

// ErrorMessage extracts the provider's own message from err, falling back to
// err.Error().
func ErrorMessage(err error) string {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) && stripeErr.Msg != "" {
		return stripeErr.Msg
	}

	if errors.Is(err, domain.ErrMissingCheckoutURL) {
		return domain.ErrMissingCheckoutURL.Error()
	}

	return err.Error()
}
