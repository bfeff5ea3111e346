package app

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/metinatakli/pcbuilder/api"
	"github.com/metinatakli/pcbuilder/internal/domain"
)

const (
	checkoutSuccessPath = "/checkout-success?session_id={CHECKOUT_SESSION_ID}"
	idempotencyHeader   = "Idempotency-Key"
)

// checkoutSchemaFailedResponse rejects checkout bodies whose items are missing,
// not a list, empty or malformed.
func (app *Application) checkoutSchemaFailedResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.contextGetLogger(r).Warn("checkout rejected: request does not match schema", "error", err)
	app.metrics.record(r.Context(), outcomeInvalid)
	app.invalidItemsResponse(w, r)
}

func (app *Application) CreateCheckoutSessionHandler(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	var input api.CreateCheckoutSessionRequest

	err := app.readJSONIgnoringUnknown(w, r, &input)
	if err != nil {
		app.metrics.record(r.Context(), outcomeInvalid)
		app.badRequestResponse(w, r, err)
		return
	}

	if len(input.Items) == 0 {
		logger.Warn("checkout rejected: no items in request")
		app.metrics.record(r.Context(), outcomeInvalid)
		app.invalidItemsResponse(w, r)
		return
	}

	err = app.validator.Struct(input)
	if err != nil {
		app.metrics.record(r.Context(), outcomeInvalid)
		app.failedValidationResponse(w, r, err)
		return
	}

	origin := app.requestOrigin(r)

	order := domain.CheckoutOrder{
		Items:          domain.NewLineItems(toDomainCartItems(input.Items)),
		SuccessURL:     origin + checkoutSuccessPath,
		CancelURL:      origin + "/",
		IdempotencyKey: r.Header.Get(idempotencyHeader),
	}

	checkoutSession, err := app.paymentProvider.CreateCheckoutSession(r.Context(), order)
	if err != nil {
		app.metrics.record(r.Context(), outcomeFailed)
		app.checkoutFailedResponse(w, r, err)
		return
	}

	app.metrics.record(r.Context(), outcomeCreated)
	logger.Info("checkout session created", "checkout_session_id", checkoutSession.ID, "items", len(order.Items))

	resp := api.CheckoutSessionResponse{
		Url: checkoutSession.URL,
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// CheckoutSuccessHandler runs when the provider redirects the shopper back
// after paying. The session's cart and selections are emptied.
func (app *Application) CheckoutSuccessHandler(w http.ResponseWriter, r *http.Request) {
	logger := app.contextGetLogger(r)

	checkoutSessionId := r.URL.Query().Get("session_id")
	if checkoutSessionId == "" {
		app.badRequestResponse(w, r, errors.New("session_id query parameter is required"))
		return
	}

	// an absent snapshot reads back as an empty cart with no selections
	err := app.cartStateRepo.Delete(r.Context(), app.cartStateKey(r))
	if err != nil {
		app.serverErrorResponse(w, r, fmt.Errorf("clear cart: %w", err))
		return
	}

	logger.Info("checkout completed, cart cleared", "checkout_session_id", checkoutSessionId)

	resp := api.CheckoutSuccessResponse{
		SessionId: checkoutSessionId,
		Cleared:   true,
	}

	err = app.writeJSON(w, http.StatusOK, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// requestOrigin prefers the browser's Origin header and falls back to the
// configured base URL.
func (app *Application) requestOrigin(r *http.Request) string {
	origin := r.Header.Get("Origin")
	if origin == "" || origin == "null" {
		origin = app.config.BaseURL
	}

	return strings.TrimSuffix(origin, "/")
}

func toDomainCartItems(items []api.CartItem) []domain.CartItem {
	domainItems := make([]domain.CartItem, len(items))

	for i, item := range items {
		domainItems[i] = domain.CartItem{
			ID:       item.Id,
			Name:     item.Name,
			Price:    item.Price,
			Category: item.Category,
			Quantity: item.Quantity,
		}
	}

	return domainItems
}
