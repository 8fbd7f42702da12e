package registry

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/playground/internal/infrastructure/httpclient"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	c, err := New(Config{BaseURL: srv.URL, CacheSize: 8}, httpclient.New(httpclient.Options{Name: "registry"}), nil, nil)
	require.NoError(t, err)
	return c, &hits
}

func packages(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/left-pad":
		_, _ = w.Write([]byte("module.exports = function leftPad() {};"))
	case "/@scope/pkg":
		_, _ = w.Write([]byte("exports.scoped = true;"))
	case "/broken":
		w.WriteHeader(http.StatusInternalServerError)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func TestFetchCaches(t *testing.T) {
	c, hits := newTestClient(t, packages)
	ctx := context.Background()

	code, err := c.Fetch(ctx, "left-pad")
	require.NoError(t, err)
	assert.Contains(t, code, "leftPad")

	_, err = c.Fetch(ctx, "left-pad")
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(hits))
	assert.Equal(t, 1, c.Cached())

	c.Purge()
	assert.Equal(t, 0, c.Cached())
}

func TestFetchErrors(t *testing.T) {
	c, hits := newTestClient(t, packages)
	ctx := context.Background()

	_, err := c.Fetch(ctx, "missing")
	assert.True(t, errors.Is(err, ErrNotFound))

	for _, name := range []string{"../etc/passwd", "has space", "", "/abs"} {
		_, err = c.Fetch(ctx, name)
		assert.True(t, errors.Is(err, ErrInvalidName), name)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(hits), "invalid names never reach the network")
}

func TestPreloadDegradesPerName(t *testing.T) {
	var observed int32
	c, _ := newTestClient(t, packages)
	c.observe = func(string, time.Duration, error) { atomic.AddInt32(&observed, 1) }

	got := c.Preload(context.Background(), []string{"left-pad", "missing", "@scope/pkg", "broken"})
	require.Len(t, got, 4)

	assert.Equal(t, "left-pad", got[0].Name)
	assert.True(t, got[0].OK())
	assert.False(t, got[1].OK())
	assert.True(t, got[2].OK())
	assert.Equal(t, "exports.scoped = true;", got[2].Code)
	assert.False(t, got[3].OK())
	assert.Equal(t, int32(4), atomic.LoadInt32(&observed))
}

func TestPreloadCanceled(t *testing.T) {
	c, _ := newTestClient(t, packages)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got := c.Preload(ctx, []string{"left-pad"})
	require.Len(t, got, 1)
	assert.Error(t, got[0].Err)
}
