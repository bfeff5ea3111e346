package app

import (
	"net/http"

	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// newRateLimiter builds a per-IP limiter from a formatted rate such as "20-M".
// An empty rate disables limiting and returns a nil middleware.
func newRateLimiter(
	formatted string,
	onLimitReached stdlib.LimitReachedHandler,
	onError func(w http.ResponseWriter, r *http.Request, err error)) (*stdlib.Middleware, error) {

	if formatted == "" {
		return nil, nil
	}

	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, err
	}

	instance := limiter.New(memory.NewStore(), rate)

	return stdlib.NewMiddleware(
		instance,
		stdlib.WithLimitReachedHandler(onLimitReached),
		stdlib.WithErrorHandler(onError),
	), nil
}

func (app *Application) checkoutRateLimit(next http.Handler) http.Handler {
	if app.checkoutLimiter == nil {
		return next
	}

	return app.checkoutLimiter.Handler(next)
}
