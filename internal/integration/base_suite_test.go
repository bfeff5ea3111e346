package integration_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/metinatakli/pcbuilder/internal/app"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
)

const (
	cacheImageName = "redis:7"
	testBaseURL    = "http://localhost:3000"
)

// BaseSuite serves a fully wired application over a real listener, backed by
// a redis container. Checkout is rate limited in production, not here.
type BaseSuite struct {
	suite.Suite
	app    *TestApp
	redis  *redisNode
	server *httptest.Server
}

func (s *BaseSuite) SetupSuite() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	node, err := startRedis(ctx)
	s.Require().NoError(err)
	s.redis = node

	testApp, err := newTestApp(app.Config{
		Port:    3000,
		Env:     "test",
		BaseURL: testBaseURL,
		Redis: app.RedisConfig{
			URL:          node.addr,
			MaxOpenConns: 10,
			MaxIdleConns: 10,
			MaxIdleTime:  2 * time.Minute,
			CartTTL:      time.Hour,
		},
	})
	s.Require().NoError(err)

	s.app = testApp
	s.server = httptest.NewServer(testApp.App.Routes())
}

func (s *BaseSuite) SetupTest() {
	s.Require().NoError(s.app.flush())
}

func (s *BaseSuite) TearDownSuite() {
	if s.server != nil {
		s.server.Close()
	}
	if s.app != nil {
		s.app.Redis.Close()
	}
	if s.redis != nil {
		if err := testcontainers.TerminateContainer(s.redis.container); err != nil {
			s.T().Logf("terminate redis container: %s", err)
		}
	}
}

// Scenario is one request against the suite server and its expected outcome.
type Scenario struct {
	Name             string
	Method           string
	Path             string
	Body             io.Reader
	Headers          map[string]string
	ExpectedStatus   int
	ExpectedResponse string
	AfterTestFunc    func(t testing.TB, app *TestApp, res *http.Response)
}

func (s *BaseSuite) runScenarios(scenarios []Scenario) {
	for _, sc := range scenarios {
		s.T().Run(sc.Name, func(t *testing.T) {
			req, err := http.NewRequestWithContext(context.Background(), sc.Method, s.server.URL+sc.Path, sc.Body)
			require.NoError(t, err)

			if sc.Body != nil {
				req.Header.Set("Content-Type", "application/json")
			}
			for k, v := range sc.Headers {
				req.Header.Set(k, v)
			}

			res, err := s.server.Client().Do(req)
			require.NoError(t, err)
			defer res.Body.Close()

			assert.Equal(t, sc.ExpectedStatus, res.StatusCode)

			if sc.ExpectedResponse != "" {
				assertJSONBody(t, res.Body, sc.ExpectedResponse)
			}

			if sc.AfterTestFunc != nil {
				sc.AfterTestFunc(t, s.app, res)
			}
		})
	}
}
