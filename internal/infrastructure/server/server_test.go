package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/playground/internal/infrastructure/config"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = "0"
	cfg.Logging.Level = "error"
	cfg.Registry.Enabled = false
	cfg.Sandbox.Enabled = false
	cfg.RateLimit.Enabled = false
	return cfg
}

func TestNewServerRoutes(t *testing.T) {
	srv, err := NewServer(testConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })
	require.NoError(t, srv.transpiler.Init(context.Background()))

	for _, path := range []string{"/", "/health", "/templates", "/transpiler", "/registry", "/projects", "/metrics", "/stats"} {
		w := httptest.NewRecorder()
		srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"), path)
	}

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/projects", nil))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.True(t, strings.HasPrefix(created.ID, "proj_"))

	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/projects/"+created.ID+"/stream", nil))
	assert.NotEqual(t, http.StatusNotFound, w.Code)
}

func TestNewServerRejectsUnknownBackend(t *testing.T) {
	cfg := testConfig()
	cfg.Transpiler.Backend = "babel"
	_, err := NewServer(cfg)
	assert.Error(t, err)
}

func TestServeShutsDownOnCancel(t *testing.T) {
	srv, err := NewServer(testConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.Close() })

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/health")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
