package integration_test

import (
	"context"
	"log/slog"
	"os"

	"github.com/metinatakli/pcbuilder/internal/app"
	"github.com/metinatakli/pcbuilder/internal/catalog"
	"github.com/metinatakli/pcbuilder/internal/payment"
	"github.com/metinatakli/pcbuilder/internal/repository"
	appvalidator "github.com/metinatakli/pcbuilder/internal/validator"
	"github.com/redis/go-redis/v9"
)

type TestApp struct {
	App      *app.Application
	Redis    *redis.Client
	Payments *payment.MockPaymentProvider
}

func newTestApp(cfg app.Config) (*TestApp, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	productCatalog, err := catalog.Default()
	if err != nil {
		return nil, err
	}

	redisClient, err := app.NewRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	paymentProvider := payment.NewMockPaymentProvider(cfg.BaseURL)

	requestRouter, err := app.NewRequestRouter(context.Background())
	if err != nil {
		return nil, err
	}

	application := app.NewApp(
		cfg,
		logger,
		redisClient,
		appvalidator.NewValidator(),
		app.NewSessionManager(redisClient),
		productCatalog,
		repository.NewRedisCartStateRepository(redisClient, cfg.Redis.CartTTL),
		paymentProvider,
		requestRouter,
	)

	return &TestApp{
		App:      application,
		Redis:    redisClient,
		Payments: paymentProvider,
	}, nil
}

func (a *TestApp) flush() error {
	return a.Redis.FlushAll(context.Background()).Err()
}
