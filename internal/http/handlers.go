package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/issuesmith/internal/issue"
	"github.com/fyrsmithlabs/issuesmith/internal/oauthflow"
	"github.com/fyrsmithlabs/issuesmith/internal/sanitize"
	"github.com/fyrsmithlabs/issuesmith/internal/synthesis"
)

// ConfigResponse is the public client configuration.
type ConfigResponse struct {
	GitHubClientID string `json:"github_client_id"`
}

// handleConfig exposes the OAuth client ID the frontend needs.
func (s *Server) handleConfig(c echo.Context) error {
	return c.JSON(http.StatusOK, ConfigResponse{GitHubClientID: s.config.GitHubClientID})
}

// handleLogin starts the authorization flow with a provider redirect.
func (s *Server) handleLogin(c echo.Context) error {
	redirectURL, _, err := s.deps.Flow.Begin()
	if err != nil {
		s.logger.Error("failed to begin auth flow", zap.Error(err))
		return c.Redirect(http.StatusFound, "/?error=auth_failed")
	}
	return c.Redirect(http.StatusFound, redirectURL)
}

// handleCallback completes the authorization flow. On success it issues
// the session credential as an HttpOnly cookie and redirects home; any
// failure redirects with an error query and never sets a partial
// credential.
func (s *Server) handleCallback(c echo.Context) error {
	if providerErr := c.QueryParam("error"); providerErr != "" {
		return c.Redirect(http.StatusFound, "/?error="+providerErr)
	}

	code := c.QueryParam("code")
	if code == "" {
		return c.Redirect(http.StatusFound, "/?error=no_code")
	}

	identity, delegatedToken, err := s.deps.Flow.Complete(c.Request().Context(), code, c.QueryParam("state"))
	if err != nil {
		s.logger.Warn("authorization flow failed",
			zap.Bool("state_invalid", errors.Is(err, oauthflow.ErrStateInvalid)),
			zap.Error(err))
		return c.Redirect(http.StatusFound, "/?error=auth_failed")
	}

	credential, err := s.deps.Sessions.Issue(identity, delegatedToken)
	if err != nil {
		s.logger.Error("failed to issue session credential", zap.Error(err))
		return c.Redirect(http.StatusFound, "/?error=auth_failed")
	}

	c.SetCookie(&http.Cookie{
		Name:     s.config.CookieName,
		Value:    credential,
		Path:     "/",
		MaxAge:   int(s.config.SessionTTL / time.Second),
		HttpOnly: true,
		Secure:   s.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	return c.Redirect(http.StatusFound, "/")
}

// handleMe returns the identity embedded in the verified credential.
func (s *Server) handleMe(c echo.Context) error {
	return c.JSON(http.StatusOK, currentSession(c).Identity)
}

// handleLogout instructs the client to discard the credential. There is
// no server-side session state to destroy.
func (s *Server) handleLogout(c echo.Context) error {
	c.SetCookie(&http.Cookie{
		Name:     s.config.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	return c.JSON(http.StatusOK, map[string]string{"message": "logged out"})
}

// handleRepositories is a passthrough read of the user's repositories.
func (s *Server) handleRepositories(c echo.Context) error {
	repos, err := s.deps.Repositories.ListRepositories(c.Request().Context(), currentSession(c).DelegatedToken)
	if err != nil {
		s.logger.Warn("repository listing failed", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadGateway, "failed to list repositories")
	}
	return c.JSON(http.StatusOK, repos)
}

// GenerateRequest is the request body for POST /api/llm/generate-issues.
type GenerateRequest struct {
	MarkdownContent string `json:"markdown_content"`
}

// GenerateResponse carries the synthesis result. A failed synthesis is
// an expected outcome: the issue list is explicitly empty and Error says
// why, rather than the endpoint guessing or erroring out.
type GenerateResponse struct {
	Issues []issue.Record `json:"issues"`
	Error  string         `json:"error,omitempty"`
}

// handleGenerate runs the requirement-to-issue synthesis pipeline.
func (s *Server) handleGenerate(c echo.Context) error {
	var req GenerateRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid generate request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := sanitize.ValidateDocument(req.MarkdownContent, s.config.MaxDocumentBytes); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	records, err := s.deps.Synthesizer.Generate(c.Request().Context(), req.MarkdownContent)
	if err != nil {
		if errors.Is(err, synthesis.ErrSynthesis) {
			return c.JSON(http.StatusOK, GenerateResponse{Issues: []issue.Record{}, Error: err.Error()})
		}
		s.logger.Error("synthesis failed unexpectedly", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to generate issues")
	}

	return c.JSON(http.StatusOK, GenerateResponse{Issues: records})
}

// CommitRequest is the request body for POST /api/github/create-issues.
type CommitRequest struct {
	Repository string         `json:"repository"`
	Issues     []issue.Record `json:"issues"`
}

// handleCommit fans out creation of the selected records and returns
// the aggregate outcome. Per-item failures are reported, never
// escalated.
func (s *Server) handleCommit(c echo.Context) error {
	var req CommitRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid commit request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	owner, repo, err := sanitize.SplitRepository(req.Repository)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	for _, record := range req.Issues {
		if record.Title == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "issue title cannot be empty")
		}
	}

	outcome, err := s.deps.Committer.Commit(c.Request().Context(),
		currentSession(c).DelegatedToken, owner, repo, req.Issues)
	if err != nil {
		s.logger.Error("bulk commit failed to dispatch", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadGateway, "failed to create issues")
	}

	return c.JSON(http.StatusOK, outcome)
}
