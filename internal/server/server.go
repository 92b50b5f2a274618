// internal/server/server.go

// Package server exposes the watchdog over HTTP: a JSON API for
// status, logs, sysinfo and commands, plus a WebSocket telemetry
// stream for dashboards.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/tamzrod/watchguard/internal/command"
	"github.com/tamzrod/watchguard/internal/ringlog"
	"github.com/tamzrod/watchguard/internal/sysinfo"
	"github.com/tamzrod/watchguard/internal/watchdog"
)

// Default server configuration values.
const (
	DefaultListen            = ":8650"
	DefaultReadTimeout       = 10 * time.Second
	DefaultWriteTimeout      = 10 * time.Second
	DefaultShutdownTimeout   = 5 * time.Second
	DefaultTelemetryInterval = 500 * time.Millisecond
)

// Config holds configuration for the HTTP server.
type Config struct {
	Listen            string
	TelemetryInterval time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	ShutdownTimeout   time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Listen:            DefaultListen,
		TelemetryInterval: DefaultTelemetryInterval,
		ReadTimeout:       DefaultReadTimeout,
		WriteTimeout:      DefaultWriteTimeout,
		ShutdownTimeout:   DefaultShutdownTimeout,
	}
}

// Deps are the daemon components the server reads from.
type Deps struct {
	Watchdog *watchdog.Watchdog
	Logs     *ringlog.Buffer
	Sysinfo  *sysinfo.Collector
	Commands *command.Engine
}

// Server serves the JSON API and the telemetry stream.
type Server struct {
	echo *echo.Echo
	cfg  Config
	log  *slog.Logger
	deps Deps
	hub  *hub
}

// New builds the server and registers all routes.
func New(cfg Config, deps Deps, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.ReadTimeout
	e.Server.WriteTimeout = cfg.WriteTimeout

	s := &Server{
		echo: e,
		cfg:  cfg,
		log:  log.With("module", "server"),
		deps: deps,
	}
	s.hub = newHub(s.log)

	s.routes()
	return s
}

// Echo returns the underlying Echo instance.
func (s *Server) Echo() *echo.Echo { return s.echo }

func (s *Server) routes() {
	api := s.echo.Group("/api")
	api.GET("/status", s.handleStatus)
	api.GET("/logs", s.handleLogs)
	api.GET("/sysinfo", s.handleSysinfo)
	api.POST("/command", s.handleCommand)

	s.echo.GET("/ws", s.handleWS)
}

// Run serves until ctx is done, then shuts down gracefully.
// The telemetry broadcast loop shares the same lifetime.
func (s *Server) Run(ctx context.Context) error {
	interval := s.cfg.TelemetryInterval
	if interval <= 0 {
		interval = DefaultTelemetryInterval
	}
	go s.broadcastLoop(ctx, interval)

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http server started", "listen", s.cfg.Listen)
		errCh <- s.echo.Start(s.cfg.Listen)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = DefaultShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.log.Info("http server shutting down")
	s.hub.closeAll()

	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
