package app

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/metinatakli/pcbuilder/api"
	"github.com/metinatakli/pcbuilder/internal/domain"
	"github.com/metinatakli/pcbuilder/internal/payment"
	appvalidator "github.com/metinatakli/pcbuilder/internal/validator"
)

const (
	ErrInternalServer   = "The server encountered a problem and could not process your request"
	ErrNotFound         = "The requested resource not found"
	ErrMethodNotAllowed = "Method not allowed"
	ErrInvalidItems     = "Invalid items"
	ErrCheckoutFailed   = "Error creating checkout session"
	ErrRateLimited      = "Too many checkout attempts, please try again later"
	ErrFailedValidation = "One or more fields have invalid values"
	ErrEditConflict     = "Unable to update the cart due to a concurrent change, please try again"
)

func (app *Application) logError(r *http.Request, err error) {
	var (
		method = r.Method
		uri    = r.URL.RequestURI()
	)

	app.contextGetLogger(r).Error(err.Error(), "method", method, "uri", uri)
}

// The errorResponse() method is a generic helper for sending JSON-formatted error
// messages to the client with a given status code.
func (app *Application) errorResponse(w http.ResponseWriter, r *http.Request, status int, message string) {
	app.writeErrorResponse(w, r, status, api.ErrorResponse{Message: message})
}

func (app *Application) writeErrorResponse(w http.ResponseWriter, r *http.Request, status int, resp api.ErrorResponse) {
	resp.RequestId = middleware.GetReqID(r.Context())
	resp.Timestamp = app.now().UTC()

	err := app.writeJSON(w, status, resp, nil)
	if err != nil {
		app.logError(r, err)
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func (app *Application) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logError(r, err)

	app.errorResponse(w, r, http.StatusInternalServerError, ErrInternalServer)
}

func (app *Application) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.errorResponse(w, r, http.StatusBadRequest, err.Error())
}

func (app *Application) notFoundResponse(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, r, http.StatusNotFound, ErrNotFound)
}

func (app *Application) notFoundResponseWithErr(w http.ResponseWriter, r *http.Request, err error) {
	app.errorResponse(w, r, http.StatusNotFound, err.Error())
}

func (app *Application) methodNotAllowedResponse(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, r, http.StatusMethodNotAllowed, ErrMethodNotAllowed)
}

func (app *Application) editConflictResponse(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, r, http.StatusConflict, ErrEditConflict)
}

// cartUpdateFailedResponse answers a failed cart update, which is a conflict
// when concurrent requests from the same session kept racing.
func (app *Application) cartUpdateFailedResponse(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, domain.ErrEditConflict) {
		app.contextGetLogger(r).Warn("cart update conflict", "error", err)
		app.editConflictResponse(w, r)
		return
	}

	app.serverErrorResponse(w, r, err)
}

func (app *Application) invalidItemsResponse(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, r, http.StatusBadRequest, ErrInvalidItems)
}

// checkoutFailedResponse relays the provider's own message in the error field.
func (app *Application) checkoutFailedResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logError(r, err)

	app.writeErrorResponse(w, r, http.StatusInternalServerError, api.ErrorResponse{
		Message: ErrCheckoutFailed,
		Error:   payment.ErrorMessage(err),
	})
}

func (app *Application) rateLimitExceededResponse(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, r, http.StatusTooManyRequests, ErrRateLimited)
}

func (app *Application) failedValidationResponse(w http.ResponseWriter, r *http.Request, err error) {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		app.serverErrorResponse(w, r, fmt.Errorf("unexpected validation error: %w", err))
		return
	}

	resp := api.ValidationErrorResponse{
		Message:          ErrFailedValidation,
		ValidationErrors: make([]api.ValidationError, 0, len(validationErrors)),
		RequestId:        middleware.GetReqID(r.Context()),
		Timestamp:        app.now().UTC(),
	}

	for _, fieldErr := range validationErrors {
		// drop the top-level struct name, e.g. "items[0].price"
		field := fieldErr.Namespace()
		if _, rest, ok := strings.Cut(field, "."); ok {
			field = rest
		}

		resp.ValidationErrors = append(resp.ValidationErrors, api.ValidationError{
			Field: field,
			Issue: appvalidator.ValidationMessage(fieldErr),
		})
	}

	err = app.writeJSON(w, http.StatusUnprocessableEntity, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
