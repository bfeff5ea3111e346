package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// StateNamespace is the key under which a shopper's cart state is persisted.
const StateNamespace = "product-customizer-storage"

type ProductOption struct {
	ID    string          `json:"id" yaml:"id"`
	Name  string          `json:"name" yaml:"name"`
	Price decimal.Decimal `json:"price" yaml:"price"`
}

type ProductCategory struct {
	Category string          `json:"category" yaml:"category"`
	Options  []ProductOption `json:"options" yaml:"options"`
}

// Selections maps a category name to the option chosen for it.
type Selections map[string]ProductOption

// Total is the running price of the in-progress configuration.
func (s Selections) Total() decimal.Decimal {
	total := decimal.Zero

	for _, option := range s {
		total = total.Add(option.Price)
	}

	return total
}

type CartItem struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Category string          `json:"category"`
	Quantity int             `json:"quantity"`
}

// Subtotal returns price * quantity for the line.
func (i CartItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type CartState struct {
	Selections Selections `json:"selections"`
	CartItems  []CartItem `json:"cartItems"`
}

func NewCartState() CartState {
	return CartState{
		Selections: Selections{},
		CartItems:  []CartItem{},
	}
}

// Clone returns a deep copy so callers can't mutate the owner's state.
func (s CartState) Clone() CartState {
	clone := CartState{
		Selections: make(Selections, len(s.Selections)),
		CartItems:  make([]CartItem, len(s.CartItems)),
	}

	for category, option := range s.Selections {
		clone.Selections[category] = option
	}
	copy(clone.CartItems, s.CartItems)

	return clone
}

// CartTotal sums price * quantity over the committed cart items.
func (s CartState) CartTotal() decimal.Decimal {
	total := decimal.Zero

	for _, item := range s.CartItems {
		total = total.Add(item.Subtotal())
	}

	return total
}

// CartStateRepository persists a whole CartState under a key.
type CartStateRepository interface {
	// Get returns ErrRecordNotFound when nothing has been saved under key yet.
	Get(ctx context.Context, key string) (*CartState, error)
	Save(ctx context.Context, key string, state CartState) error
	// Update applies fn to the state under key, or to an empty state when
	// nothing is saved yet, and saves the result unless fn fails. It returns
	// ErrEditConflict when the state keeps changing underneath it.
	Update(ctx context.Context, key string, fn func(state *CartState) error) error
	Delete(ctx context.Context, key string) error
}
