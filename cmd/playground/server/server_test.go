package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zaptest"

	"dbplayground/cmd/playground/di"
	"dbplayground/cmd/playground/server"
	ginhandler "dbplayground/internal/adapter/gin/handler"
	"dbplayground/internal/config"
)

// UserAPIIntegrationTestSuite runs the HTTP API over SQLite and a miniredis cache.
type UserAPIIntegrationTestSuite struct {
	suite.Suite
	mr        *miniredis.Miniredis
	container *di.Container
	ts        *httptest.Server
}

func (s *UserAPIIntegrationTestSuite) SetupTest() {
	s.mr = miniredis.RunT(s.T())
	host, port, err := net.SplitHostPort(s.mr.Addr())
	s.Require().NoError(err)

	cfg := &config.Config{
		DB: config.DatabaseConfig{
			Driver:       config.DriverSQLite,
			SQLitePath:   ":memory:",
			AutoMigrate:  true,
			MaxOpenConns: 1,
			MaxIdleConns: 1,
		},
		Redis: config.RedisConfig{
			Enabled:  true,
			Host:     host,
			Port:     port,
			PoolSize: 5,
			CacheTTL: 60,
		},
		App: config.AppConfig{
			Mode:                   config.ModeServe,
			HTTPPort:               "0",
			ShutdownTimeoutSeconds: 5,
		},
		RateLimit: config.RateLimitConfig{
			Enabled:           true,
			RequestsPerSecond: 100,
			BurstCapacity:     100,
		},
		Logger: config.LoggerConfig{Level: "info", SlowQuerySeconds: 0.2, ServiceName: "dbplayground"},
	}

	log := zaptest.NewLogger(s.T())
	s.container, err = di.NewContainer(context.Background(), cfg, log)
	s.Require().NoError(err)

	srv := server.New(cfg, log, s.container.GinHandler, s.container.RateLimiter)
	s.ts = httptest.NewServer(srv.Gin.Handler)
}

func (s *UserAPIIntegrationTestSuite) TearDownTest() {
	s.ts.Close()
	s.NoError(s.container.Close())
}

func (s *UserAPIIntegrationTestSuite) makeRequest(method, endpoint string, body interface{}) *http.Response {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, s.ts.URL+endpoint, &buf)
	s.Require().NoError(err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.ts.Client().Do(req)
	s.Require().NoError(err)
	s.T().Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (s *UserAPIIntegrationTestSuite) seed() {
	for _, u := range []map[string]interface{}{
		{"first_name": "Rome", "last_name": "Bell", "age": 33},
		{"first_name": "Brian", "last_name": "Krabec", "age": 27},
		{"first_name": "Nick", "last_name": "Schmitt", "age": 28},
	} {
		resp := s.makeRequest(http.MethodPost, "/v1/users", u)
		s.Require().Equal(http.StatusCreated, resp.StatusCode)
	}
}

func (s *UserAPIIntegrationTestSuite) TestCreateUserAPI() {
	resp := s.makeRequest(http.MethodPost, "/v1/users", map[string]interface{}{
		"first_name": "Nick", "last_name": "Schmitt", "age": 28,
	})
	s.Equal(http.StatusCreated, resp.StatusCode)

	var created ginhandler.UserResponse
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&created))
	s.Equal(int64(1), created.ID)
	s.False(created.CreatedAt.IsZero())
}

func (s *UserAPIIntegrationTestSuite) TestLookupIsCached() {
	s.seed()

	resp := s.makeRequest(http.MethodGet, "/v1/users/lookup?first_name=Nick", nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	var found ginhandler.UserResponse
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&found))
	s.Equal("Schmitt", found.LastName)

	s.True(s.mr.Exists("user:lookup:first_name=Nick"))
	s.True(s.mr.Exists("user:id:3"))
}

func (s *UserAPIIntegrationTestSuite) TestLookupMissIsNotCached() {
	s.seed()

	resp := s.makeRequest(http.MethodGet, "/v1/users/lookup?first_name=Nobody", nil)
	s.Equal(http.StatusNotFound, resp.StatusCode)
	s.False(s.mr.Exists("user:lookup:first_name=Nobody"))
}

func (s *UserAPIIntegrationTestSuite) TestListUsersAPI() {
	s.seed()

	resp := s.makeRequest(http.MethodGet, "/v1/users", nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	var list ginhandler.ListUsersResponse
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&list))
	s.Require().Len(list.Users, 3)
	s.Equal("Rome", list.Users[0].FirstName)
	s.Equal("Nick", list.Users[2].FirstName)
}

func (s *UserAPIIntegrationTestSuite) TestHealthAPI() {
	resp := s.makeRequest(http.MethodGet, "/health", nil)
	s.Equal(http.StatusOK, resp.StatusCode)
}

func TestUserAPIIntegration(t *testing.T) {
	suite.Run(t, new(UserAPIIntegrationTestSuite))
}
