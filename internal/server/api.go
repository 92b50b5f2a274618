// internal/server/api.go
package server

import (
	"bytes"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/tamzrod/watchguard/internal/ringlog"
)

type errorResponse struct {
	Error string `json:"error"`
}

// handleStatus returns the full watchdog snapshot.
func (s *Server) handleStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, s.deps.Watchdog.Snapshot())
}

type logsResponse struct {
	Entries []ringlog.Entry `json:"entries"`
	Stats   ringlog.Stats   `json:"stats"`
}

// handleLogs returns buffered log entries.
// ?n=N limits to the newest N entries; ?q=keyword searches instead.
func (s *Server) handleLogs(c echo.Context) error {
	n := -1
	if raw := c.QueryParam("n"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{Error: "n must be an integer"})
		}
		n = v
	}

	if q := c.QueryParam("q"); q != "" {
		max := n
		if max < 0 {
			max = s.deps.Logs.Len()
		}
		return c.JSON(http.StatusOK, logsResponse{
			Entries: s.deps.Logs.Search(q, max),
			Stats:   s.deps.Logs.Stats(),
		})
	}

	return c.JSON(http.StatusOK, logsResponse{
		Entries: s.deps.Logs.Last(n),
		Stats:   s.deps.Logs.Stats(),
	})
}

// handleSysinfo returns the latest metrics snapshot.
func (s *Server) handleSysinfo(c echo.Context) error {
	return c.JSON(http.StatusOK, s.deps.Sysinfo.Snapshot())
}

type commandRequest struct {
	Line string `json:"line"`
}

type commandResponse struct {
	Output string `json:"output"`
	Error  string `json:"error,omitempty"`
}

// handleCommand executes one console line and returns its output.
func (s *Server) handleCommand(c echo.Context) error {
	var req commandRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body"})
	}
	if strings.TrimSpace(req.Line) == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "line required"})
	}

	var out bytes.Buffer
	if err := s.deps.Commands.Execute(req.Line, &out); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, commandResponse{
			Output: out.String(),
			Error:  err.Error(),
		})
	}

	return c.JSON(http.StatusOK, commandResponse{Output: out.String()})
}
