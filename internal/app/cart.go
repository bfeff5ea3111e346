package app

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/metinatakli/pcbuilder/api"
	"github.com/metinatakli/pcbuilder/internal/cart"
	"github.com/metinatakli/pcbuilder/internal/domain"
)

func (app *Application) storeOptions() []cart.Option {
	return []cart.Option{
		cart.WithClock(app.now),
		cart.WithCategoryOrder(app.catalog.Categories()),
	}
}

func (app *Application) GetCartHandler(w http.ResponseWriter, r *http.Request) {
	store, err := cart.Load(r.Context(), app.cartStateRepo, app.cartStateKey(r), app.storeOptions()...)
	if err != nil {
		app.serverErrorResponse(w, r, err)
		return
	}

	app.writeCart(w, r, http.StatusOK, store)
}

func (app *Application) UpdateSelectionHandler(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)
	category := chi.URLParam(r, "category")

	var input api.UpdateSelectionRequest

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	option, err := app.catalog.Find(category, input.OptionId)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUnknownCategory), errors.Is(err, domain.ErrUnknownOption):
			logger.Warn("selection rejected", "category", category, "option_id", input.OptionId, "error", err)
			app.notFoundResponseWithErr(w, r, err)
		default:
			app.serverErrorResponse(w, r, err)
		}

		return
	}

	store, err := app.updateCart(r, func(s *cart.Store) error {
		s.UpdateSelection(category, option)
		return nil
	})
	if err != nil {
		app.cartUpdateFailedResponse(w, r, err)
		return
	}

	app.writeCart(w, r, http.StatusOK, store)
}

func (app *Application) ClearSelectionsHandler(w http.ResponseWriter, r *http.Request) {
	store, err := app.updateCart(r, func(s *cart.Store) error {
		s.ClearSelections()
		return nil
	})
	if err != nil {
		app.cartUpdateFailedResponse(w, r, err)
		return
	}

	app.writeCart(w, r, http.StatusOK, store)
}

// AddToCartHandler copies the current configuration into the cart. Only a
// configuration covering every catalog category can be added.
func (app *Application) AddToCartHandler(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	var added []domain.CartItem

	store, err := app.updateCart(r, func(s *cart.Store) error {
		err := app.catalog.CheckComplete(s.Selections())
		if err != nil {
			return err
		}

		added = s.AddToCart()
		return nil
	})
	if err != nil {
		var incompleteErr *domain.IncompleteConfigurationError

		switch {
		case errors.As(err, &incompleteErr):
			logger.Warn("add to cart rejected: configuration incomplete", "missing", incompleteErr.Missing)
			app.badRequestResponse(w, r, incompleteErr)
		default:
			app.cartUpdateFailedResponse(w, r, err)
		}

		return
	}

	logger.Info("configuration added to cart", "items", len(added))

	resp := api.AddToCartResponse{
		Added: toApiCartItems(added),
		Cart:  app.toApiCart(store),
	}

	err = app.writeJSON(w, http.StatusCreated, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) UpdateQuantityHandler(w http.ResponseWriter, r *http.Request) {
	itemId := chi.URLParam(r, "itemId")

	var input api.UpdateQuantityRequest

	err := app.readJSON(w, r, &input)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.failedValidationResponse(w, r, err)
		return
	}

	store, err := app.updateCart(r, func(s *cart.Store) error {
		s.UpdateQuantity(itemId, *input.Quantity)
		return nil
	})
	if err != nil {
		app.cartUpdateFailedResponse(w, r, err)
		return
	}

	app.writeCart(w, r, http.StatusOK, store)
}

func (app *Application) RemoveFromCartHandler(w http.ResponseWriter, r *http.Request) {
	itemId := chi.URLParam(r, "itemId")

	store, err := app.updateCart(r, func(s *cart.Store) error {
		s.RemoveFromCart(itemId)
		return nil
	})
	if err != nil {
		app.cartUpdateFailedResponse(w, r, err)
		return
	}

	app.writeCart(w, r, http.StatusOK, store)
}

func (app *Application) ClearCartHandler(w http.ResponseWriter, r *http.Request) {
	store, err := app.updateCart(r, func(s *cart.Store) error {
		s.ClearCart()
		return nil
	})
	if err != nil {
		app.cartUpdateFailedResponse(w, r, err)
		return
	}

	app.writeCart(w, r, http.StatusOK, store)
}

func (app *Application) updateCart(r *http.Request, fn func(*cart.Store) error) (*cart.Store, error) {
	store, err := cart.Update(r.Context(), app.cartStateRepo, app.cartStateKey(r), fn, app.storeOptions()...)
	if err != nil {
		return nil, fmt.Errorf("update cart: %w", err)
	}

	return store, nil
}

func (app *Application) writeCart(w http.ResponseWriter, r *http.Request, status int, store *cart.Store) {
	err := app.writeJSON(w, status, app.toApiCart(store), nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

func (app *Application) toApiCart(store *cart.Store) api.CartResponse {
	selections := store.Selections()

	apiSelections := make(map[string]api.ProductOption, len(selections))
	for category, option := range selections {
		apiSelections[category] = toApiOption(option)
	}

	missing := app.catalog.Missing(selections)
	if missing == nil {
		missing = []string{}
	}

	return api.CartResponse{
		Selections: apiSelections,
		CartItems:  toApiCartItems(store.CartItems()),
		TotalPrice: store.TotalPrice(),
		CartTotal:  store.CartTotal(),
		Missing:    missing,
	}
}

func toApiCartItems(items []domain.CartItem) []api.CartItem {
	apiItems := make([]api.CartItem, len(items))

	for i, item := range items {
		apiItems[i] = api.CartItem{
			Id:       item.ID,
			Name:     item.Name,
			Price:    item.Price,
			Category: item.Category,
			Quantity: item.Quantity,
		}
	}

	return apiItems
}
