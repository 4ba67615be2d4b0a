// Package http provides the HTTP API for issuesmith.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/issuesmith/internal/committer"
	"github.com/fyrsmithlabs/issuesmith/internal/issue"
	"github.com/fyrsmithlabs/issuesmith/internal/session"
	"github.com/fyrsmithlabs/issuesmith/internal/tracker"
)

// AuthFlow is the authorization-code flow surface the server needs.
type AuthFlow interface {
	Begin() (redirectURL, state string, err error)
	Complete(ctx context.Context, code, state string) (session.Identity, string, error)
}

// Synthesizer turns requirement text into normalized issue records.
type Synthesizer interface {
	Generate(ctx context.Context, document string) ([]issue.Record, error)
}

// BulkCommitter commits selected records under a delegated token.
type BulkCommitter interface {
	Commit(ctx context.Context, delegatedToken, owner, repo string, records []issue.Record) (committer.Outcome, error)
}

// RepositoryLister lists the user's repositories under a delegated token.
type RepositoryLister interface {
	ListRepositories(ctx context.Context, delegatedToken string) ([]tracker.Repository, error)
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int

	// GitHubClientID is exposed to the client via /api/config.
	GitHubClientID string

	// Session cookie settings.
	CookieName   string
	CookieSecure bool
	SessionTTL   time.Duration

	// MaxDocumentBytes bounds the requirement document accepted by the
	// generate endpoint.
	MaxDocumentBytes int
}

// Deps holds the services the server dispatches to.
type Deps struct {
	Sessions     *session.Manager
	Flow         AuthFlow
	Synthesizer  Synthesizer
	Committer    BulkCommitter
	Repositories RepositoryLister
}

// Server provides HTTP endpoints for issuesmith.
type Server struct {
	echo   *echo.Echo
	deps   Deps
	logger *zap.Logger
	config *Config
}

// NewServer creates the HTTP server and registers all routes.
func NewServer(deps Deps, logger *zap.Logger, cfg *Config) (*Server, error) {
	if deps.Sessions == nil {
		return nil, fmt.Errorf("session manager cannot be nil")
	}
	if deps.Flow == nil {
		return nil, fmt.Errorf("auth flow cannot be nil")
	}
	if deps.Synthesizer == nil {
		return nil, fmt.Errorf("synthesizer cannot be nil")
	}
	if deps.Committer == nil {
		return nil, fmt.Errorf("committer cannot be nil")
	}
	if deps.Repositories == nil {
		return nil, fmt.Errorf("repository lister cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.CookieName == "" {
		cfg.CookieName = "session_token"
	}
	if cfg.SessionTTL == 0 {
		cfg.SessionTTL = 24 * time.Hour
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(NewHTTPMetrics(logger).MetricsMiddleware())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)

			return err
		}
	})

	s := &Server{
		echo:   e,
		deps:   deps,
		logger: logger,
		config: cfg,
	}

	s.registerRoutes()

	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := s.echo.Group("/api")
	api.GET("/config", s.handleConfig)

	api.GET("/auth/login", s.handleLogin)
	api.GET("/auth/callback", s.handleCallback)
	api.POST("/auth/logout", s.handleLogout)

	// Per-user operations sit behind the session credential.
	authed := api.Group("", s.sessionMiddleware())
	authed.GET("/auth/me", s.handleMe)
	authed.GET("/github/repositories", s.handleRepositories)
	authed.POST("/llm/generate-issues", s.handleGenerate)
	authed.POST("/github/create-issues", s.handleCommit)
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
