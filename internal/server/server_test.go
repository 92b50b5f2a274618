// internal/server/server_test.go
package server_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/watchguard/internal/command"
	"github.com/tamzrod/watchguard/internal/ringlog"
	"github.com/tamzrod/watchguard/internal/server"
	"github.com/tamzrod/watchguard/internal/sysinfo"
	"github.com/tamzrod/watchguard/internal/watchdog"
)

func newServerUnderTest(t *testing.T) (*server.Server, server.Deps) {
	t.Helper()

	// Connection pumps outlive the request handler, so the server
	// cannot log through t.Log safely. Discard instead.
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	wd := watchdog.New(watchdog.Config{}, log)
	logs := ringlog.New(16, nil)
	sys := sysinfo.New(sysinfo.Config{Version: "1.2.3-test"}, log)

	eng := command.NewEngine()
	require.NoError(t, eng.RegisterBuiltins(command.BuiltinDeps{Version: "1.2.3-test"}))

	deps := server.Deps{Watchdog: wd, Logs: logs, Sysinfo: sys, Commands: eng}

	cfg := server.DefaultConfig()
	cfg.Listen = "127.0.0.1:0"
	cfg.TelemetryInterval = 10 * time.Millisecond

	return server.New(cfg, deps, log), deps
}

func doJSON(t *testing.T, s *server.Server, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var rdr *strings.Reader
	if body == "" {
		rdr = strings.NewReader("")
	} else {
		rdr = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, target, rdr)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	return rec, decoded
}

func TestAPI_Status(t *testing.T) {
	s, deps := newServerUnderTest(t)

	slot, err := deps.Watchdog.Register("sensor", time.Second, nil)
	require.NoError(t, err)
	deps.Watchdog.Heartbeat(slot)

	rec, body := doJSON(t, s, http.MethodGet, "/api/status", "")

	require.Equal(t, http.StatusOK, rec.Code)
	global := body["global"].(map[string]any)
	assert.Equal(t, float64(1), global["slots_used"])

	entries := body["entries"].([]any)
	require.Len(t, entries, 1)
	entry := entries[0].(map[string]any)
	assert.Equal(t, "sensor", entry["name"])
	assert.Equal(t, "HEALTHY", entry["state"])
}

func TestAPI_Logs(t *testing.T) {
	s, deps := newServerUnderTest(t)

	deps.Logs.Append(0, "SYS", "boot complete")
	deps.Logs.Append(0, "NET", "link up")
	deps.Logs.Append(0, "NET", "peer lost")

	rec, body := doJSON(t, s, http.MethodGet, "/api/logs?n=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	entries := body["entries"].([]any)
	require.Len(t, entries, 2)
	first := entries[0].(map[string]any)
	assert.Equal(t, "link up", first["msg"])

	rec, body = doJSON(t, s, http.MethodGet, "/api/logs?q=NET", "")
	require.Equal(t, http.StatusOK, rec.Code)
	entries = body["entries"].([]any)
	require.Len(t, entries, 2)

	rec, _ = doJSON(t, s, http.MethodGet, "/api/logs?n=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_Sysinfo(t *testing.T) {
	s, deps := newServerUnderTest(t)
	deps.Sysinfo.Refresh()

	rec, body := doJSON(t, s, http.MethodGet, "/api/sysinfo", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1.2.3-test", body["version"])
}

func TestAPI_Command(t *testing.T) {
	s, _ := newServerUnderTest(t)

	rec, body := doJSON(t, s, http.MethodPost, "/api/command", `{"line":"echo hello there"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello there\n", body["output"])

	rec, body = doJSON(t, s, http.MethodPost, "/api/command", `{"line":"no-such-command"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.NotEmpty(t, body["error"])

	rec, _ = doJSON(t, s, http.MethodPost, "/api/command", `{"line":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWS_TelemetryAndCommands(t *testing.T) {
	s, deps := newServerUnderTest(t)

	slot, err := deps.Watchdog.Register("sensor", time.Second, nil)
	require.NoError(t, err)
	deps.Watchdog.Heartbeat(slot)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.Run(ctx)
	}()
	defer func() {
		cancel()
		<-done
	}()

	var addr string
	require.Eventually(t, func() bool {
		a := s.Echo().ListenerAddr()
		if a == nil {
			return false
		}
		addr = a.String()
		return true
	}, time.Second, 5*time.Millisecond)

	ws, _, err := websocket.DefaultDialer.Dial("ws://"+addr+"/ws", nil)
	require.NoError(t, err)
	defer ws.Close()

	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))

	// First telemetry frame.
	var frame map[string]any
	require.NoError(t, ws.ReadJSON(&frame))
	require.Equal(t, "telemetry", frame["type"])
	wd := frame["watchdog"].(map[string]any)
	assert.NotNil(t, wd["global"])

	// Command round-trip on the same connection.
	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte("version")))

	for {
		require.NoError(t, ws.ReadJSON(&frame))
		if frame["type"] != "command" {
			continue
		}
		assert.Contains(t, frame["output"], "1.2.3-test")
		break
	}
}
