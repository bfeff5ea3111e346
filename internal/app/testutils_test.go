package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/alicebob/miniredis/v2"
	"github.com/getkin/kin-openapi/routers"
	"github.com/metinatakli/pcbuilder/api"
	"github.com/metinatakli/pcbuilder/internal/domain"
	"github.com/metinatakli/pcbuilder/internal/mocks"
	"github.com/metinatakli/pcbuilder/internal/repository"
	"github.com/metinatakli/pcbuilder/internal/validator"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

var (
	testNow     = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	testCatalog = domain.Catalog{
		{
			Category: "CPU",
			Options: []domain.ProductOption{
				{ID: "c1", Name: "Ryzen 5 7600", Price: decimal.NewFromInt(20000)},
				{ID: "c2", Name: "Core i7-14700K", Price: decimal.NewFromInt(38000)},
			},
		},
		{
			Category: "GPU",
			Options: []domain.ProductOption{
				{ID: "g1", Name: "RTX 4070", Price: decimal.NewFromInt(50000)},
			},
		},
	}
)

var testRequestRouter = func() routers.Router {
	router, err := NewRequestRouter(context.Background())
	if err != nil {
		panic(err)
	}

	return router
}()

func newTestApplication(opts ...func(*Application)) *Application {
	app := &Application{
		config: Config{
			Env:     "test",
			BaseURL: "http://localhost:3000",
		},
		validator:       validator.NewValidator(),
		logger:          slog.New(slog.NewTextHandler(io.Discard, nil)),
		catalog:         testCatalog,
		paymentProvider: &mocks.MockPaymentProvider{},
		cartStateRepo:   &mocks.MockCartStateRepo{},
		sessionManager:  scs.New(),
		requestRouter:   testRequestRouter,
		startedAt:       testNow.Add(-90 * time.Second),
		now:             func() time.Time { return testNow },
	}

	for _, opt := range opts {
		opt(app)
	}

	return app
}

// withRedisSessions backs both the session store and the cart state by a
// miniredis instance.
func withRedisSessions(t *testing.T) func(*Application) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return func(app *Application) {
		app.redis = client
		app.sessionManager = NewSessionManager(client)
		app.cartStateRepo = repository.NewRedisCartStateRepository(client, time.Hour)
	}
}

func executeRequest(t *testing.T, method, url string, body any) (*httptest.ResponseRecorder, *http.Request) {
	// strings are sent verbatim so tests can post malformed bodies
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		jsonData, err := json.Marshal(b)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(jsonData)
	}

	r := httptest.NewRequest(method, url, reader)
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	return w, r
}

func checkErrorResponse(t *testing.T, w *httptest.ResponseRecorder, tt struct {
	wantStatus     int
	wantErrMessage string
}) {
	if w.Code != tt.wantStatus {
		t.Errorf("Status = %d, want %d", w.Code, tt.wantStatus)
	}

	if tt.wantStatus >= 200 && tt.wantStatus < 300 {
		return
	}

	switch tt.wantStatus {
	case http.StatusUnprocessableEntity:
		var validationResp api.ValidationErrorResponse
		if err := json.NewDecoder(w.Body).Decode(&validationResp); err != nil {
			t.Fatalf("Failed to decode validation error response: %v", err)
		}

		errorSet := make(map[string]bool)
		for _, vErr := range validationResp.ValidationErrors {
			errorSet[vErr.Issue] = true
		}

		if !errorSet[tt.wantErrMessage] {
			t.Errorf("Expected validation error message '%s' not found in response", tt.wantErrMessage)
		}

	default:
		var errorResp api.ErrorResponse
		if err := json.NewDecoder(w.Body).Decode(&errorResp); err != nil {
			t.Fatalf("Failed to decode error response: %v", err)
		}

		if tt.wantErrMessage != "" && errorResp.Message != tt.wantErrMessage {
			t.Errorf("Error message = %v, want %v", errorResp.Message, tt.wantErrMessage)
		}
	}
}
