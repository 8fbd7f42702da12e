package transpiler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/playground/internal/infrastructure/httpclient"
)

func newRemoteServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/transform", func(w http.ResponseWriter, r *http.Request) {
		var req Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		w.Header().Set("Content-Type", "application/json")
		if req.Source == "bad" {
			w.WriteHeader(http.StatusUnprocessableEntity)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{"message": "Unexpected token", "line": 1, "column": 3},
			})
			return
		}
		_ = json.NewEncoder(w).Encode(Result{Code: "/*" + string(req.Dialects[0]) + "*/" + req.Source})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRemoteBackend(t *testing.T) {
	srv := newRemoteServer(t)
	r := NewRemote(httpclient.New(httpclient.Options{Name: "transpiler", BaseURL: srv.URL}))
	ctx := context.Background()

	require.NoError(t, r.Init(ctx))

	res, err := r.Transform(ctx, Request{Source: "x", Filename: "a.jsx", Dialects: DialectsFor("a.jsx")})
	require.NoError(t, err)
	assert.Equal(t, "/*jsx*/x", res.Code)

	_, err = r.Transform(ctx, Request{Source: "bad", Filename: "b.js", Dialects: DialectsFor("b.js")})
	var d *Diagnostic
	require.True(t, errors.As(err, &d))
	assert.Equal(t, "b.js", d.File)
	assert.Equal(t, 1, d.Line)
	assert.Equal(t, "Unexpected token", d.Message)
}

func TestRemoteInitFailsWhenDown(t *testing.T) {
	srv := newRemoteServer(t)
	url := srv.URL
	srv.Close()

	r := NewRemote(httpclient.New(httpclient.Options{Name: "transpiler", BaseURL: url}))
	s := NewService(r, nil, nil)
	assert.Error(t, s.Init(context.Background()))
	assert.Equal(t, StateFailed, s.Status().State)
}
