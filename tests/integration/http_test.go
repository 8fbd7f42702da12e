//go:build integration
// +build integration

package integration

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/playground/internal/shared/types"
	"github.com/GriffinCanCode/playground/tests/helpers/testutil"
)

type projectResponse struct {
	ID     string `json:"id"`
	Files  int    `json:"files"`
	Active string `json:"active"`
}

type buildResponse struct {
	Build types.PreviewDocument `json:"build"`
	Logs  []types.LogRecord     `json:"logs"`
}

func appFiles() []types.ProjectFile {
	return []types.ProjectFile{
		{Path: "index.html", Content: `<html><head><title>Demo</title></head><body><div id="out"></div><script src="src/main.js"></script></body></html>`},
		{Path: "src/main.js", Content: "import { greet } from './greet';\nconsole.log(greet('world'));\n"},
		{Path: "src/greet.js", Content: "export const greet = (n) => 'hello ' + n;\n"},
	}
}

func messages(logs []types.LogRecord) []string {
	out := make([]string, 0, len(logs))
	for _, r := range logs {
		out = append(out, string(r.Level)+": "+r.Message)
	}
	return out
}

func TestProjectWorkflow(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	base := testutil.StartServer(t, testutil.Config())
	testutil.WaitReady(t, base, "ready")

	resp, body := testutil.Do(t, http.MethodPost, base+"/projects", types.CreateProjectRequest{Files: appFiles()})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	project := testutil.Decode[projectResponse](t, body)
	assert.Equal(t, 3, project.Files)
	assert.Equal(t, "src/main.js", project.Active)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	url := base + "/projects/" + project.ID

	t.Run("build runs the preview headless", func(t *testing.T) {
		resp, body := testutil.Do(t, http.MethodPost, url+"/build", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
		built := testutil.Decode[buildResponse](t, body)
		assert.Equal(t, "Demo", built.Build.Title)
		assert.Contains(t, messages(built.Logs), "log: hello world")
	})

	t.Run("preview is cached by hash", func(t *testing.T) {
		resp, body := testutil.Do(t, http.MethodGet, url+"/preview", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, string(body), "hello ")
		etag := resp.Header.Get("ETag")
		require.NotEmpty(t, etag)

		req, err := http.NewRequest(http.MethodGet, url+"/preview", nil)
		require.NoError(t, err)
		req.Header.Set("If-None-Match", etag)
		cached, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		cached.Body.Close()
		assert.Equal(t, http.StatusNotModified, cached.StatusCode)
	})

	t.Run("compile errors are reported with location", func(t *testing.T) {
		resp, body := testutil.Do(t, http.MethodPut, url+"/files/src/greet.js", types.FileRequest{Content: "export const = ;"})
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

		resp, body = testutil.Do(t, http.MethodPost, url+"/build", nil)
		require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode, string(body))
		failed := testutil.Decode[struct {
			Compilation struct {
				Path string `json:"path"`
				Line int    `json:"line"`
			} `json:"compilation"`
		}](t, body)
		assert.Equal(t, "src/greet.js", failed.Compilation.Path)
		assert.Equal(t, 1, failed.Compilation.Line)

		resp, body = testutil.Do(t, http.MethodGet, url+"/preview", nil)
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		assert.Contains(t, string(body), "src/greet.js")
	})

	t.Run("terminal edits the project", func(t *testing.T) {
		resp, body := testutil.Do(t, http.MethodPost, url+"/terminal", types.CommandRequest{Command: "touch notes.md"})
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
		out := testutil.Decode[struct {
			Verb   string `json:"verb"`
			OK     bool   `json:"ok"`
			Active string `json:"active"`
		}](t, body)
		assert.Equal(t, "touch", out.Verb)
		assert.True(t, out.OK)
		assert.Equal(t, "notes.md", out.Active)

		resp, _ = testutil.Do(t, http.MethodGet, url+"/files/notes.md", nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "sandbox", resp.Header.Get("Content-Security-Policy"))
	})

	t.Run("export then import round trips", func(t *testing.T) {
		resp, archive := testutil.Do(t, http.MethodGet, url+"/export?format=zip", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, resp.Header.Get("Content-Disposition"), project.ID+".zip")

		resp, body := testutil.Do(t, http.MethodPost, base+"/projects/import", archive)
		require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
		imported := testutil.Decode[projectResponse](t, body)
		assert.NotEqual(t, project.ID, imported.ID)
		assert.Equal(t, 4, imported.Files)

		resp, body = testutil.Do(t, http.MethodGet, base+"/projects/"+imported.ID+"/files/src/greet.js", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "export const = ;", string(body))
	})

	t.Run("manifest exports as yaml", func(t *testing.T) {
		resp, body := testutil.Do(t, http.MethodGet, url+"/manifest?format=yaml", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/yaml", resp.Header.Get("Content-Type"))
		assert.Contains(t, string(body), "index.html")
	})

	t.Run("delete removes the project", func(t *testing.T) {
		resp, _ := testutil.Do(t, http.MethodDelete, url, nil)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)
		resp, _ = testutil.Do(t, http.MethodGet, url, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestPackagesFromRegistry(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	reg := testutil.NewRegistry(t, map[string]string{
		"left-pad": "module.exports = function (s) { return 'padded:' + s; };",
	})
	cfg := testutil.Config()
	cfg.Registry.Enabled = true
	cfg.Registry.URL = reg.URL
	base := testutil.StartServer(t, cfg)
	testutil.WaitReady(t, base, "ready")

	resp, body := testutil.Do(t, http.MethodPost, base+"/projects", types.CreateProjectRequest{Files: []types.ProjectFile{
		{Path: "index.html", Content: `<html><body><script src="main.js"></script></body></html>`},
		{Path: "main.js", Content: "import pad from 'left-pad';\nimport gone from 'not-published';\nconsole.log(pad('x'));\n"},
	}})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	url := base + "/projects/" + testutil.Decode[projectResponse](t, body).ID

	for i := 0; i < 2; i++ {
		resp, body = testutil.Do(t, http.MethodPost, url+"/build", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
		built := testutil.Decode[buildResponse](t, body)
		assert.Contains(t, built.Build.Packages, "left-pad")

		var warned bool
		for _, m := range messages(built.Logs) {
			if strings.HasPrefix(m, "warn: ") && strings.Contains(m, "not-published") {
				warned = true
			}
		}
		assert.True(t, warned, "%v", messages(built.Logs))
	}
	assert.Equal(t, 1, reg.Requests("left-pad"), "second build is served from cache")

	resp, body = testutil.Do(t, http.MethodGet, base+"/registry", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	stats := testutil.Decode[struct {
		Enabled bool `json:"enabled"`
		Cached  int  `json:"cached"`
	}](t, body)
	assert.True(t, stats.Enabled)
	assert.Equal(t, 1, stats.Cached)

	resp, _ = testutil.Do(t, http.MethodDelete, base+"/registry/cache", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}
