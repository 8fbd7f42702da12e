// Package testutil starts a full playground server for end-to-end tests.
package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/playground/internal/infrastructure/config"
	"github.com/GriffinCanCode/playground/internal/infrastructure/server"
)

// Registry is a fake package registry upstream
type Registry struct {
	*httptest.Server

	mu       sync.Mutex
	packages map[string]string
	requests map[string]int
	failing  bool
}

// NewRegistry serves packages by name; unknown names are 404
func NewRegistry(t *testing.T, packages map[string]string) *Registry {
	t.Helper()
	r := &Registry{packages: packages, requests: make(map[string]int)}
	r.Server = httptest.NewServer(http.HandlerFunc(r.serve))
	t.Cleanup(r.Close)
	return r
}

func (r *Registry) serve(w http.ResponseWriter, req *http.Request) {
	name := strings.TrimPrefix(req.URL.Path, "/")

	r.mu.Lock()
	r.requests[name]++
	code, ok := r.packages[name]
	failing := r.failing
	r.mu.Unlock()

	switch {
	case failing:
		w.WriteHeader(http.StatusBadGateway)
	case !ok:
		http.NotFound(w, req)
	default:
		w.Header().Set("Content-Type", "application/javascript")
		_, _ = io.WriteString(w, code)
	}
}

// Requests returns how many times name was fetched
func (r *Registry) Requests(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.requests[name]
}

// SetFailing makes every request fail with 502
func (r *Registry) SetFailing(failing bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failing = failing
}

// Config returns a quiet configuration with rate limiting off
func Config() *config.Config {
	cfg := config.Default()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = "0"
	cfg.Logging.Level = "error"
	cfg.RateLimit.Enabled = false
	cfg.Registry.Enabled = false
	cfg.Registry.MaxRetries = 0
	cfg.Preview.HostLibraries = []string{}
	return cfg
}

// StartServer runs a server built from cfg and returns its base URL. The
// server is shut down when the test ends.
func StartServer(t *testing.T, cfg *config.Config) string {
	t.Helper()
	srv, err := server.NewServer(cfg)
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = srv.Serve(ctx, ln)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		_ = srv.Close()
	})

	return "http://" + ln.Addr().String()
}

// WaitReady blocks until the transpiler reports state
func WaitReady(t *testing.T, base, state string) {
	t.Helper()
	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/transpiler")
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		var st struct {
			State string `json:"state"`
		}
		return json.NewDecoder(resp.Body).Decode(&st) == nil && st.State == state
	}, 10*time.Second, 20*time.Millisecond)
}

// Do sends body as JSON (strings and byte slices are sent raw) and returns
// the response with its body read
func Do(t *testing.T, method, url string, body any) (*http.Response, []byte) {
	t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = strings.NewReader(b)
	case []byte:
		rd = bytes.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		rd = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, rd)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

// Decode unmarshals a JSON body
func Decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(data, &v), string(data))
	return v
}
