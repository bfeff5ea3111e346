package domain

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

var minorUnitsPerMajor = decimal.NewFromInt(100)

// LineItem is a cart line in the shape the payment provider expects.
type LineItem struct {
	Name        string
	Description string
	UnitAmount  int64
	Quantity    int64
}

// CheckoutOrder is everything a provider needs to open a one-time payment session.
type CheckoutOrder struct {
	Items          []LineItem
	SuccessURL     string
	CancelURL      string
	IdempotencyKey string
}

type CheckoutSession struct {
	ID  string
	URL string
}

type PaymentProvider interface {
	CreateCheckoutSession(ctx context.Context, order CheckoutOrder) (*CheckoutSession, error)
}

// ToMinorUnits converts a major currency amount to minor units, rounding to
// the nearest unit. Amounts must fit in int64 minor units; request validation
// caps item prices well below that.
func ToMinorUnits(price decimal.Decimal) int64 {
	return price.Mul(minorUnitsPerMajor).Round(0).IntPart()
}

// NewLineItems maps cart items onto provider line items. A zero quantity means
// the client didn't send one and is treated as 1.
func NewLineItems(items []CartItem) []LineItem {
	lineItems := make([]LineItem, len(items))

	for i, item := range items {
		quantity := int64(item.Quantity)
		if quantity == 0 {
			quantity = 1
		}

		lineItems[i] = LineItem{
			Name:        item.Name,
			Description: fmt.Sprintf("%s component", item.Category),
			UnitAmount:  ToMinorUnits(item.Price),
			Quantity:    quantity,
		}
	}

	return lineItems
}
