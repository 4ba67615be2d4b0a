package http

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/issuesmith/internal/session"
)

// sessionContextKey is the echo context key for the verified session.
const sessionContextKey = "authenticated_session"

// sessionMiddleware authenticates requests with the session credential.
//
// The credential is read from the session cookie or, failing that, from
// an Authorization: Bearer header. Invalid and expired credentials both
// produce the same 401 "authentication required" response; the two
// classes are distinguished only in the debug log.
func (s *Server) sessionMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			credential := s.extractCredential(c)
			if credential == "" {
				return c.JSON(http.StatusUnauthorized, errorResponse{Error: "authentication required"})
			}

			sess, err := s.deps.Sessions.Verify(credential)
			if err != nil {
				s.logger.Debug("credential rejected", zap.Error(err))
				return c.JSON(http.StatusUnauthorized, errorResponse{Error: "authentication required"})
			}

			c.Set(sessionContextKey, sess)
			return next(c)
		}
	}
}

// extractCredential pulls the raw credential from cookie or header.
func (s *Server) extractCredential(c echo.Context) string {
	if cookie, err := c.Cookie(s.config.CookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
		return token
	}
	return ""
}

// currentSession returns the session stored by sessionMiddleware.
func currentSession(c echo.Context) *session.Session {
	sess, _ := c.Get(sessionContextKey).(*session.Session)
	return sess
}

// errorResponse is the uniform error body for API failures.
type errorResponse struct {
	Error string `json:"error"`
}
