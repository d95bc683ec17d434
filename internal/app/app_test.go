package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parley/internal/config"
)

func memoryConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Database.Driver = "memory"
	cfg.Auth.JWTSecret = "secret"
	cfg.CORS.AllowOrigins = []string{"http://localhost:3000"}
	return cfg
}

func TestNew_MemoryDriver(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv, err := New(context.Background(), memoryConfig())
	require.NoError(t, err)
	defer srv.Close()

	w := httptest.NewRecorder()
	srv.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	srv.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/api/chat/createGroupChat")

	w = httptest.NewRecorder()
	srv.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/chat", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestNew_CORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv, err := New(context.Background(), memoryConfig())
	require.NoError(t, err)
	defer srv.Close()

	req := httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	srv.Router.ServeHTTP(w, req)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestNew_UnknownDriver(t *testing.T) {
	cfg := memoryConfig()
	cfg.Database.Driver = "mongo"
	_, err := New(context.Background(), cfg)
	assert.Error(t, err)
}

func TestShutdownInOrder_ReleasesAfterDrain(t *testing.T) {
	var steps []string
	drainErr := errors.New("deadline")
	err := shutdownInOrder(context.Background(),
		func(context.Context) error {
			steps = append(steps, "drain")
			return drainErr
		},
		func() error {
			steps = append(steps, "release")
			return nil
		},
	)
	assert.Equal(t, []string{"drain", "release"}, steps)
	assert.ErrorIs(t, err, drainErr)
}
