//go:build integration
// +build integration

package integration

import (
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/playground/internal/preview"
	"github.com/GriffinCanCode/playground/internal/shared/types"
	"github.com/GriffinCanCode/playground/internal/ws"
	"github.com/GriffinCanCode/playground/tests/helpers/testutil"
)

func readUntil(t *testing.T, c *websocket.Conn, want string) ws.Outbound {
	t.Helper()
	require.NoError(t, c.SetReadDeadline(time.Now().Add(10*time.Second)))
	for {
		var msg ws.Outbound
		require.NoError(t, c.ReadJSON(&msg))
		if msg.Type == want {
			return msg
		}
	}
}

// readLog reads until a log record with message arrives
func readLog(t *testing.T, c *websocket.Conn, message string) *types.LogRecord {
	t.Helper()
	for {
		msg := readUntil(t, c, "log")
		if msg.Record != nil && msg.Record.Message == message {
			return msg.Record
		}
	}
}

func TestEndToEndWorkflow(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	base := testutil.StartServer(t, testutil.Config())
	testutil.WaitReady(t, base, "ready")

	resp, body := testutil.Do(t, http.MethodPost, base+"/projects", types.CreateProjectRequest{Files: appFiles()})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	pid := testutil.Decode[projectResponse](t, body).ID

	conn, wsResp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(base, "http")+"/projects/"+pid+"/stream", nil)
	require.NoError(t, err)
	wsResp.Body.Close()
	defer conn.Close()

	readUntil(t, conn, "connected")

	// a build over REST streams its console output to the socket
	resp, body = testutil.Do(t, http.MethodPost, base+"/projects/"+pid+"/build", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	readUntil(t, conn, "clear")
	rec := readLog(t, conn, "hello world")
	assert.Equal(t, types.LevelLog, rec.Level)

	// a console message relayed by a browser frame arrives the same way
	resp, _ = testutil.Do(t, http.MethodPost, base+"/projects/"+pid+"/console",
		`{"type":"`+preview.ConsoleTag+`","level":"warn","payload":["from the frame"]}`)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	rec = readLog(t, conn, "from the frame")
	assert.Equal(t, types.LevelWarn, rec.Level)

	require.NoError(t, conn.WriteJSON(types.WSMessage{Type: "animate", Files: []types.ProjectFile{
		{Path: "index.html", Content: `<html><body><script src="app.js"></script></body></html>`},
		{Path: "app.js", Content: "console.log('typed out');"},
	}}))
	built := readUntil(t, conn, "build")
	require.NotNil(t, built.Build)
	assert.Equal(t, "app.js", built.Active)

	resp, body = testutil.Do(t, http.MethodGet, base+"/projects/"+pid+"/logs", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "typed out")
}

func TestConcurrentRequests(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	base := testutil.StartServer(t, testutil.Config())
	testutil.WaitReady(t, base, "ready")

	const workers = 8
	var wg sync.WaitGroup
	ids := make(chan string, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, body := testutil.Do(t, http.MethodPost, base+"/projects", types.CreateProjectRequest{Files: appFiles()})
			if !assert.Equal(t, http.StatusCreated, resp.StatusCode) {
				return
			}
			pid := testutil.Decode[projectResponse](t, body).ID
			resp, body = testutil.Do(t, http.MethodPost, base+"/projects/"+pid+"/build", nil)
			assert.Equal(t, http.StatusOK, resp.StatusCode, string(body))
			ids <- pid
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool)
	for id := range ids {
		seen[id] = true
	}
	assert.Len(t, seen, workers)

	resp, body := testutil.Do(t, http.MethodGet, base+"/stats", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	stats := testutil.Decode[struct {
		Projects int `json:"projects"`
	}](t, body)
	assert.Equal(t, workers, stats.Projects)
}
