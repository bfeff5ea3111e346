package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/legacy"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/metinatakli/pcbuilder/api"
	appvalidator "github.com/metinatakli/pcbuilder/internal/validator"
)

// NewRequestRouter loads and validates the embedded OpenAPI document and
// returns a router that resolves requests to their operations.
func NewRequestRouter(ctx context.Context) (routers.Router, error) {
	doc, err := api.GetSwagger()
	if err != nil {
		return nil, err
	}

	err = doc.Validate(ctx)
	if err != nil {
		return nil, fmt.Errorf("invalid OpenAPI document: %w", err)
	}

	router, err := legacy.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("build OpenAPI router: %w", err)
	}

	return router, nil
}

// validateRequest checks requests against their OpenAPI operation before they
// reach the handler. Requests the document doesn't describe are passed on so
// the chi router answers them with 404 or 405.
func (app *Application) validateRequest(onError func(http.ResponseWriter, *http.Request, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if app.requestRouter == nil {
				next.ServeHTTP(w, r)
				return
			}

			route, pathParams, err := app.requestRouter.FindRoute(r)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
			}

			err = openapi3filter.ValidateRequest(r.Context(), &openapi3filter.RequestValidationInput{
				Request:    r,
				PathParams: pathParams,
				Route:      route,
				Options: &openapi3filter.Options{
					AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
				},
			})
			if err != nil {
				onError(w, r, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// requestSchemaFailedResponse reports schema violations in the same shape as
// failedValidationResponse. Anything else, such as an undecodable body, is a
// plain bad request.
func (app *Application) requestSchemaFailedResponse(w http.ResponseWriter, r *http.Request, err error) {
	var schemaErr *openapi3.SchemaError
	if !errors.As(err, &schemaErr) {
		app.badRequestResponse(w, r, err)
		return
	}

	issue := schemaErr.Reason
	if schemaErr.SchemaField == "required" {
		issue = appvalidator.ErrRequired
	}

	resp := api.ValidationErrorResponse{
		Message: ErrFailedValidation,
		ValidationErrors: []api.ValidationError{
			{Field: strings.Join(schemaErr.JSONPointer(), "."), Issue: issue},
		},
		RequestId: middleware.GetReqID(r.Context()),
		Timestamp: app.now().UTC(),
	}

	err = app.writeJSON(w, http.StatusUnprocessableEntity, resp, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
