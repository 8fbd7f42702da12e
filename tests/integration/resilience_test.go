//go:build integration
// +build integration

package integration

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/playground/internal/shared/types"
	"github.com/GriffinCanCode/playground/tests/helpers/testutil"
)

func TestRegistryBreakerOpens(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping circuit breaker integration test")
	}

	reg := testutil.NewRegistry(t, map[string]string{
		"left-pad": "module.exports = function (s) { return s; };",
	})
	reg.SetFailing(true)

	cfg := testutil.Config()
	cfg.Registry.Enabled = true
	cfg.Registry.URL = reg.URL
	cfg.Registry.RPS = 0
	base := testutil.StartServer(t, cfg)
	testutil.WaitReady(t, base, "ready")

	create := func(imports ...string) string {
		var src strings.Builder
		for i, name := range imports {
			src.WriteString("import p" + string(rune('a'+i)) + " from '" + name + "';\n")
		}
		resp, body := testutil.Do(t, http.MethodPost, base+"/projects", types.CreateProjectRequest{Files: []types.ProjectFile{
			{Path: "index.html", Content: `<html><body><script src="main.js"></script></body></html>`},
			{Path: "main.js", Content: src.String()},
		}})
		require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
		return base + "/projects/" + testutil.Decode[projectResponse](t, body).ID
	}

	// five upstream failures trip the breaker; the builds still succeed
	first := create("pkg-a", "pkg-b", "pkg-c", "pkg-d", "pkg-e")
	resp, body := testutil.Do(t, http.MethodPost, first+"/build", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	built := testutil.Decode[buildResponse](t, body)
	assert.Empty(t, built.Build.Packages)

	// the upstream recovers but the open breaker fails fast
	reg.SetFailing(false)
	second := create("left-pad")
	resp, body = testutil.Do(t, http.MethodPost, second+"/build", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	built = testutil.Decode[buildResponse](t, body)
	assert.Empty(t, built.Build.Packages)
	assert.Zero(t, reg.Requests("left-pad"))
}

func TestRemoteTranspilerRecovers(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	var healthy atomic.Bool
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			if !healthy.Load() {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusOK)
		case "/transform":
			var req struct {
				Source string `json:"source"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(map[string]string{"code": req.Source})
		default:
			http.NotFound(w, r)
		}
	}))
	defer upstream.Close()

	cfg := testutil.Config()
	cfg.Transpiler.Backend = "remote"
	cfg.Transpiler.URL = upstream.URL
	base := testutil.StartServer(t, cfg)
	testutil.WaitReady(t, base, "failed")

	resp, body := testutil.Do(t, http.MethodPost, base+"/projects", types.CreateProjectRequest{Files: []types.ProjectFile{
		{Path: "index.html", Content: `<html><body><script src="main.js"></script></body></html>`},
		{Path: "main.js", Content: "console.log('remote');"},
	}})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	url := base + "/projects/" + testutil.Decode[projectResponse](t, body).ID

	resp, body = testutil.Do(t, http.MethodPost, url+"/build", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode, string(body))

	resp, _ = testutil.Do(t, http.MethodPost, base+"/transpiler/retry", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	healthy.Store(true)
	resp, body = testutil.Do(t, http.MethodPost, base+"/transpiler/retry", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Equal(t, "ready", testutil.Decode[struct {
		State string `json:"state"`
	}](t, body).State)

	resp, body = testutil.Do(t, http.MethodPost, url+"/build", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Contains(t, messages(testutil.Decode[buildResponse](t, body).Logs), "log: remote")
}
