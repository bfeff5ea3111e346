// Package cart holds the shopper's selection and cart state.
//
// A Store is owned by a single shopper session and is not safe for concurrent
// use. Persistence is explicit: load the state, build a Store around it, apply
// operations, then save State().
package cart

import (
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode"

	"github.com/metinatakli/pcbuilder/internal/domain"
	"github.com/shopspring/decimal"
)

type Store struct {
	state         domain.CartState
	now           func() time.Time
	categoryOrder []string
}

type Option func(*Store)

// WithClock replaces the clock used to derive configuration ids.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithCategoryOrder sets the order in which AddToCart emits line items.
func WithCategoryOrder(categories []string) Option {
	return func(s *Store) {
		s.categoryOrder = categories
	}
}

func New(state domain.CartState, opts ...Option) *Store {
	s := &Store{
		state: state.Clone(),
		now:   time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// State returns a copy of the current state.
func (s *Store) State() domain.CartState {
	return s.state.Clone()
}

func (s *Store) Selections() domain.Selections {
	return s.state.Clone().Selections
}

func (s *Store) CartItems() []domain.CartItem {
	return s.state.Clone().CartItems
}

// UpdateSelection replaces the selection for category.
func (s *Store) UpdateSelection(category string, option domain.ProductOption) {
	s.state.Selections[category] = option
}

func (s *Store) ClearSelections() {
	s.state.Selections = domain.Selections{}
}

// AddToCart appends one line item per current selection under a fresh
// configuration id and returns the appended items. Selections are kept.
func (s *Store) AddToCart() []domain.CartItem {
	if len(s.state.Selections) == 0 {
		return nil
	}

	configID := s.nextConfigID()
	added := make([]domain.CartItem, 0, len(s.state.Selections))
	used := make(map[string]bool, len(s.state.Selections))

	for _, category := range s.orderedCategories() {
		option := s.state.Selections[category]

		// option ids are only unique within their category
		base := fmt.Sprintf("%s-%s-%s", configID, slug(category), option.ID)
		id := base
		for n := 2; used[id]; n++ {
			id = fmt.Sprintf("%s-%d", base, n)
		}
		used[id] = true

		added = append(added, domain.CartItem{
			ID:       id,
			Name:     fmt.Sprintf("%s: %s", category, option.Name),
			Price:    option.Price,
			Category: category,
			Quantity: 1,
		})
	}

	s.state.CartItems = append(s.state.CartItems, added...)

	return added
}

// RemoveFromCart drops the line with itemID. Unknown ids are ignored.
func (s *Store) RemoveFromCart(itemID string) {
	s.state.CartItems = slices.DeleteFunc(s.state.CartItems, func(item domain.CartItem) bool {
		return item.ID == itemID
	})
}

// UpdateQuantity sets the quantity of itemID, clamped to at least 1.
// Unknown ids are ignored.
func (s *Store) UpdateQuantity(itemID string, quantity int) {
	quantity = max(quantity, 1)

	for i := range s.state.CartItems {
		if s.state.CartItems[i].ID == itemID {
			s.state.CartItems[i].Quantity = quantity
			return
		}
	}
}

func (s *Store) ClearCart() {
	s.state.CartItems = []domain.CartItem{}
}

// TotalPrice is the sum of the selected options' prices.
func (s *Store) TotalPrice() decimal.Decimal {
	return s.state.Selections.Total()
}

// CartTotal is the sum of price * quantity over the cart items.
func (s *Store) CartTotal() decimal.Decimal {
	return s.state.CartTotal()
}

// nextConfigID derives the id from the clock in milliseconds and moves forward
// until no existing line item carries it.
func (s *Store) nextConfigID() string {
	millis := s.now().UnixMilli()

	for {
		id := fmt.Sprintf("config-%d", millis)
		if !s.configIDInUse(id) {
			return id
		}
		millis++
	}
}

func (s *Store) configIDInUse(configID string) bool {
	prefix := configID + "-"

	for _, item := range s.state.CartItems {
		if strings.HasPrefix(item.ID, prefix) {
			return true
		}
	}

	return false
}

// orderedCategories lists the selected categories in the configured order,
// followed by any others sorted by name.
func (s *Store) orderedCategories() []string {
	ordered := make([]string, 0, len(s.state.Selections))
	seen := make(map[string]bool, len(s.state.Selections))

	for _, category := range s.categoryOrder {
		if _, ok := s.state.Selections[category]; ok && !seen[category] {
			ordered = append(ordered, category)
			seen[category] = true
		}
	}

	var rest []string
	for category := range s.state.Selections {
		if !seen[category] {
			rest = append(rest, category)
		}
	}
	slices.Sort(rest)

	return append(ordered, rest...)
}

// slug lowercases s and joins its letter and digit runs with "-".
func slug(s string) string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	return strings.Join(fields, "-")
}
