package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

type sessionKey string

const (
	SessionKeyShopper = sessionKey("shopper")
)

func (s sessionKey) String() string {
	return string(s)
}

// cartStateKey is the key the session's cart state is stored under.
func (app *Application) cartStateKey(r *http.Request) string {
	return app.sessionManager.Token(r.Context())
}

func (app *Application) contextGetLogger(r *http.Request) *slog.Logger {
	logger := app.logger

	reqId := middleware.GetReqID(r.Context())
	if reqId != "" {
		logger = logger.With("request_id", reqId)
	}

	return logger
}
