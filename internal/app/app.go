package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/alexedwards/scs/goredisstore"
	"github.com/alexedwards/scs/v2"
	"github.com/caarlos0/env/v10"
	"github.com/getkin/kin-openapi/routers"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/metinatakli/pcbuilder/internal/catalog"
	"github.com/metinatakli/pcbuilder/internal/domain"
	"github.com/metinatakli/pcbuilder/internal/payment"
	"github.com/metinatakli/pcbuilder/internal/repository"
	appvalidator "github.com/metinatakli/pcbuilder/internal/validator"
	"github.com/metinatakli/pcbuilder/internal/vcs"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"github.com/riandyrn/otelchi"
	"github.com/stripe/stripe-go/v82"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"go.opentelemetry.io/contrib/bridges/otelslog"
)

const serviceName = "pcbuilder-api"

var (
	version = vcs.Version()
)

type Application struct {
	config          Config
	logger          *slog.Logger
	redis           redis.UniversalClient
	validator       *validator.Validate
	sessionManager  *scs.SessionManager
	catalog         domain.Catalog
	cartStateRepo   domain.CartStateRepository
	paymentProvider domain.PaymentProvider
	metrics         *checkoutMetrics
	checkoutLimiter *stdlib.Middleware
	requestRouter   routers.Router
	startedAt       time.Time
	now             func() time.Time
}

type Config struct {
	Port             int        `env:"PORT" envDefault:"3000"`
	Env              string     `env:"APP_ENV" envDefault:"dev"`
	BaseURL          string     `env:"BASE_URL" envDefault:"http://localhost:3000"`
	CatalogPath      string     `env:"CATALOG_PATH"`
	OtelCollectorUrl string     `env:"OTEL_COLLECTOR_URL"`
	CORS             CORSConfig `envPrefix:"CORS_"`
	Redis            RedisConfig
	Stripe           StripeConfig

	// CheckoutRateLimit uses the limiter format, e.g. "20-M". Empty disables it.
	CheckoutRateLimit string `env:"CHECKOUT_RATE_LIMIT" envDefault:"20-M"`

	ShowVersion bool
}

type CORSConfig struct {
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
}

type RedisConfig struct {
	URL          string        `env:"REDIS_URL" envDefault:"localhost:6379"`
	MaxOpenConns int           `env:"REDIS_MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns int           `env:"REDIS_MAX_IDLE_CONNS" envDefault:"10"`
	MaxIdleTime  time.Duration `env:"REDIS_MAX_IDLE_TIME" envDefault:"2m"`
	CartTTL      time.Duration `env:"CART_TTL" envDefault:"168h"`
}

type StripeConfig struct {
	SecretKey       string `env:"STRIPE_SECRET_KEY"`
	Currency        string `env:"STRIPE_CURRENCY" envDefault:"inr"`
	ShippingCountry string `env:"STRIPE_SHIPPING_COUNTRY" envDefault:"IN"`
	OrderType       string `env:"STRIPE_ORDER_TYPE" envDefault:"custom_pc_build"`

	// BreakerFailures consecutive outages open the circuit breaker; 0 disables it.
	BreakerFailures uint32        `env:"STRIPE_BREAKER_FAILURES" envDefault:"5"`
	BreakerTimeout  time.Duration `env:"STRIPE_BREAKER_TIMEOUT" envDefault:"30s"`
}

// LoadConfig reads the environment first and lets command-line flags override it.
func LoadConfig(args []string) (Config, error) {
	var cfg Config

	err := env.Parse(&cfg)
	if err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	fs := flag.NewFlagSet(serviceName, flag.ContinueOnError)

	fs.IntVar(&cfg.Port, "port", cfg.Port, "server port")
	fs.StringVar(&cfg.Env, "env", cfg.Env, "Environment (dev|staging|prod)")
	fs.StringVar(&cfg.BaseURL, "base-url", cfg.BaseURL, "Storefront URL used when a request has no Origin header")
	fs.StringVar(&cfg.CatalogPath, "catalog", cfg.CatalogPath, "Catalog file (.yaml or .json), empty for the bundled catalog")
	fs.StringVar(&cfg.OtelCollectorUrl, "otel-collector-url", cfg.OtelCollectorUrl, "OpenTelemetry collector gRPC endpoint")
	fs.Func("cors-allowed-origins", "Comma separated list of allowed CORS origins", func(s string) error {
		cfg.CORS.AllowedOrigins = strings.Split(s, ",")
		return nil
	})
	fs.StringVar(&cfg.CheckoutRateLimit, "checkout-rate-limit", cfg.CheckoutRateLimit, "Checkout rate limit per client IP (e.g. 20-M)")

	fs.StringVar(&cfg.Redis.URL, "redis-url", cfg.Redis.URL, "Redis URL")
	fs.IntVar(&cfg.Redis.MaxOpenConns, "redis-max-open-conns", cfg.Redis.MaxOpenConns, "Redis max open connections")
	fs.IntVar(&cfg.Redis.MaxIdleConns, "redis-max-idle-conns", cfg.Redis.MaxIdleConns, "Redis max idle connections")
	fs.DurationVar(&cfg.Redis.MaxIdleTime, "redis-max-idle-time", cfg.Redis.MaxIdleTime, "Redis max idle time for connections")
	fs.DurationVar(&cfg.Redis.CartTTL, "cart-ttl", cfg.Redis.CartTTL, "How long a session's cart state is kept")

	fs.StringVar(&cfg.Stripe.SecretKey, "stripe-key", cfg.Stripe.SecretKey, "Stripe secret key")
	fs.StringVar(&cfg.Stripe.Currency, "stripe-currency", cfg.Stripe.Currency, "Checkout currency")
	fs.StringVar(&cfg.Stripe.ShippingCountry, "stripe-shipping-country", cfg.Stripe.ShippingCountry, "The only country shipping addresses may be in")
	fs.StringVar(&cfg.Stripe.OrderType, "stripe-order-type", cfg.Stripe.OrderType, "orderType metadata attached to every session")
	fs.Func("stripe-breaker-failures", "Consecutive Stripe outages that open the circuit breaker (0 disables it)", func(s string) error {
		n, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			return err
		}
		cfg.Stripe.BreakerFailures = uint32(n)
		return nil
	})
	fs.DurationVar(&cfg.Stripe.BreakerTimeout, "stripe-breaker-timeout", cfg.Stripe.BreakerTimeout, "How long the Stripe circuit breaker stays open")

	fs.BoolVar(&cfg.ShowVersion, "version", false, "Display version and exit")

	err = fs.Parse(args)
	if err != nil {
		return Config{}, err
	}

	if cfg.CheckoutRateLimit != "" {
		_, err = limiter.NewRateFromFormatted(cfg.CheckoutRateLimit)
		if err != nil {
			return Config{}, fmt.Errorf("invalid checkout rate limit %q: %w", cfg.CheckoutRateLimit, err)
		}
	}

	return cfg, nil
}

func Run() error {
	cfg, err := LoadConfig(os.Args[1:])
	if err != nil {
		return err
	}

	if cfg.ShowVersion {
		fmt.Printf("Version:\t%s\n", version)
		os.Exit(0)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	if cfg.OtelCollectorUrl != "" {
		logger = slog.New(NewMultiHandler(logger.Handler(), otelslog.NewHandler(serviceName)))
	}

	productCatalog, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return err
	}

	paymentProvider, err := newPaymentProvider(cfg, logger)
	if err != nil {
		return err
	}

	requestRouter, err := NewRequestRouter(context.Background())
	if err != nil {
		return err
	}

	redisClient, err := NewRedisClient(cfg)
	if err != nil {
		return err
	}

	app := NewApp(
		cfg,
		logger,
		redisClient,
		appvalidator.NewValidator(),
		NewSessionManager(redisClient),
		productCatalog,
		repository.NewRedisCartStateRepository(redisClient, cfg.Redis.CartTTL),
		paymentProvider,
		requestRouter,
	)

	shutdownTelemetry, err := app.InitTelemetry()
	if err != nil {
		redisClient.Close()
		return err
	}
	defer shutdownTelemetry(context.Background())

	return app.run()
}

func NewApp(
	cfg Config,
	logger *slog.Logger,
	redisClient redis.UniversalClient,
	validator *validator.Validate,
	sessionManager *scs.SessionManager,
	productCatalog domain.Catalog,
	cartStateRepo domain.CartStateRepository,
	paymentProvider domain.PaymentProvider,
	requestRouter routers.Router) *Application {

	app := &Application{
		config:          cfg,
		logger:          logger,
		redis:           redisClient,
		validator:       validator,
		sessionManager:  sessionManager,
		catalog:         productCatalog,
		cartStateRepo:   cartStateRepo,
		paymentProvider: paymentProvider,
		requestRouter:   requestRouter,
		metrics:         newCheckoutMetrics(),
		startedAt:       time.Now(),
		now:             time.Now,
	}

	checkoutLimiter, err := newRateLimiter(cfg.CheckoutRateLimit, app.rateLimitExceededResponse, app.serverErrorResponse)
	if err != nil {
		logger.Error("checkout rate limiting disabled", "error", err)
	}
	app.checkoutLimiter = checkoutLimiter

	return app
}

// newPaymentProvider falls back to the mock provider in dev when no Stripe key
// is configured.
func newPaymentProvider(cfg Config, logger *slog.Logger) (domain.PaymentProvider, error) {
	if cfg.Stripe.SecretKey == "" {
		if cfg.Env != "dev" {
			return nil, errors.New("stripe secret key is required outside of dev")
		}

		logger.Warn("stripe secret key not set, using mock payment provider")

		return payment.NewMockPaymentProvider(cfg.BaseURL), nil
	}

	stripe.Key = cfg.Stripe.SecretKey

	stripeProvider := payment.NewStripePaymentProvider(payment.StripeConfig{
		Currency:        cfg.Stripe.Currency,
		ShippingCountry: cfg.Stripe.ShippingCountry,
		OrderType:       cfg.Stripe.OrderType,
	})

	return payment.NewBreakerPaymentProvider(stripeProvider, payment.BreakerConfig{
		Name:                "stripe",
		ConsecutiveFailures: cfg.Stripe.BreakerFailures,
		Timeout:             cfg.Stripe.BreakerTimeout,
	}, logger), nil
}

func NewSessionManager(client *redis.Client) *scs.SessionManager {
	sessionManager := scs.New()

	sessionManager.Store = goredisstore.New(client)
	sessionManager.IdleTimeout = 24 * time.Hour
	sessionManager.Lifetime = 7 * 24 * time.Hour
	sessionManager.Cookie.Name = "session_id"

	return sessionManager
}

func NewRedisClient(cfg Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:            cfg.Redis.URL,
		MaxIdleConns:    cfg.Redis.MaxIdleConns,
		MaxActiveConns:  cfg.Redis.MaxOpenConns,
		ConnMaxIdleTime: cfg.Redis.MaxIdleTime,
	})

	err := errors.Join(redisotel.InstrumentTracing(rdb), redisotel.InstrumentMetrics(rdb))
	if err != nil {
		rdb.Close()
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err = rdb.Ping(ctx).Err()
	if err != nil {
		rdb.Close()
		return nil, err
	}

	return rdb, nil
}

func (app *Application) run() error {
	srv := &http.Server{
		Addr:         fmt.Sprintf("0.0.0.0:%d", app.config.Port),
		Handler:      app.Routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		ErrorLog:     slog.NewLogLogger(app.logger.Handler(), slog.LevelDebug),
	}

	shutdownError := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		app.logger.Info("shutting down server", "signal", s.String())

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		err := srv.Shutdown(ctx)

		// in-flight requests are done with redis once Shutdown returns
		shutdownError <- errors.Join(err, app.redis.Close())
	}()

	app.logger.Info("starting server", "addr", srv.Addr, "env", app.config.Env)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return errors.Join(err, app.redis.Close())
	}

	err = <-shutdownError
	if err != nil {
		return err
	}

	app.logger.Info("stopped server", "addr", srv.Addr)

	return nil
}

func (app *Application) Routes() http.Handler {
	r := chi.NewRouter()

	r.NotFound(app.notFoundResponse)
	r.MethodNotAllowed(app.methodNotAllowedResponse)

	r.Use(middleware.RequestID)
	r.Use(otelchi.Middleware(serviceName, otelchi.WithChiRoutes(r)))
	r.Use(middleware.Logger)
	r.Use(app.recoverPanic)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: app.config.CORS.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowedHeaders: []string{"Accept", "Content-Type", "Idempotency-Key"},
		MaxAge:         300,
	}))

	r.Get("/openapi.yaml", app.GetOpenAPISpec)

	r.Get("/api/health", app.GetHealth)
	r.Get("/api/catalog", app.GetCatalog)
	r.With(app.checkoutRateLimit, app.validateRequest(app.checkoutSchemaFailedResponse)).
		Post("/api/create-checkout-session", app.CreateCheckoutSessionHandler)

	r.Group(func(r chi.Router) {
		r.Use(app.sessionManager.LoadAndSave)
		r.Use(app.ensureSession)
		r.Use(app.validateRequest(app.requestSchemaFailedResponse))

		r.Get("/api/checkout-success", app.CheckoutSuccessHandler)

		r.Get("/api/cart", app.GetCartHandler)
		r.Delete("/api/cart", app.ClearCartHandler)
		r.Delete("/api/cart/selections", app.ClearSelectionsHandler)
		r.Put("/api/cart/selections/{category}", app.UpdateSelectionHandler)
		r.Post("/api/cart/configurations", app.AddToCartHandler)
		r.Patch("/api/cart/items/{itemId}", app.UpdateQuantityHandler)
		r.Delete("/api/cart/items/{itemId}", app.RemoveFromCartHandler)
	})

	return r
}
