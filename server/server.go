// Package server exposes the agent over HTTP and MCP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/alexschlessinger/saintsal/agent"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// Server is the HTTP adapter in front of an Agent
type Server struct {
	agent     *agent.Agent
	echo      *echo.Echo
	validator *Validator
	metrics   http.Handler
	now       func() time.Time
}

// Option configures a Server
type Option func(*Server)

// WithMetricsHandler mounts h at GET /metrics
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithClock replaces the clock used for response timestamps
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// New builds the HTTP server and registers all routes
func New(a *agent.Agent, opts ...Option) *Server {
	s := &Server{
		agent:     a,
		echo:      echo.New(),
		validator: NewValidator(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	e := s.echo
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			zap.S().Debugw("http_request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency_ms", v.Latency.Milliseconds())
			return nil
		},
	}))

	e.POST("/api/chat", s.handleChat)

	group := e.Group("/api/agent")
	group.GET("/status", s.handleStatus)
	group.GET("/session/:sessionId", s.handleSession)
	group.PATCH("/session/:sessionId/capabilities", s.handleCapabilities)

	if s.metrics != nil {
		e.GET("/metrics", echo.WrapHandler(s.metrics))
	}

	return s
}

// Handler returns the server as an http.Handler
func (s *Server) Handler() http.Handler {
	return s.echo
}

// ListenAndServe serves on addr until Shutdown is called
func (s *Server) ListenAndServe(addr string) error {
	zap.S().Infow("http_listening", "addr", addr)
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
