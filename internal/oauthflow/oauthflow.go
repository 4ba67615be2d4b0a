// Package oauthflow coordinates the GitHub authorization-code flow.
//
// Begin produces the provider redirect target plus an anti-forgery state
// value; Complete exchanges the one-time code for a delegated access
// token and fetches minimal identity. The state value is itself a signed
// short-lived token, so verification needs no cross-request server state.
package oauthflow

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/go-github/v57/github"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	githuboauth "golang.org/x/oauth2/github"

	"github.com/fyrsmithlabs/issuesmith/internal/session"
)

var (
	// ErrUpstreamAuth indicates the provider rejected the exchange or the
	// identity fetch failed. No credential is issued in either case.
	ErrUpstreamAuth = errors.New("upstream authorization failed")

	// ErrStateInvalid indicates a missing, forged, or stale anti-forgery
	// state value.
	ErrStateInvalid = errors.New("invalid authorization state")
)

// stateTTL bounds how long a Begin redirect stays completable. Ten
// minutes matches the provider's own authorization-code lifetime.
const stateTTL = 10 * time.Minute

// Config holds coordinator configuration.
type Config struct {
	ClientID     string
	ClientSecret string
	Scopes       []string
	RedirectURL  string

	// Endpoint overrides the provider OAuth endpoint. Zero value means
	// GitHub. Used by tests to point at a fake provider.
	Endpoint oauth2.Endpoint

	// APIBaseURL overrides the provider API base URL for the identity
	// fetch. Empty means the public GitHub API.
	APIBaseURL string
}

// Coordinator runs the authorization-code flow against the provider.
type Coordinator struct {
	oauth      *oauth2.Config
	signingKey []byte
	apiBaseURL string
	logger     *zap.Logger
	now        func() time.Time
}

// New creates a coordinator. The signing key signs state values and is
// the same process-wide key the session manager uses.
func New(cfg Config, signingKey []byte, logger *zap.Logger) (*Coordinator, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("client id and secret are required")
	}
	if len(signingKey) < 32 {
		return nil, fmt.Errorf("signing key too short: %d bytes (min 32)", len(signingKey))
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	endpoint := cfg.Endpoint
	if endpoint.AuthURL == "" {
		endpoint = githuboauth.Endpoint
	}

	return &Coordinator{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Scopes:       cfg.Scopes,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     endpoint,
		},
		signingKey: signingKey,
		apiBaseURL: cfg.APIBaseURL,
		logger:     logger,
		now:        time.Now,
	}, nil
}

// Begin returns the provider redirect target and the anti-forgery state
// value the caller must present again at Complete.
func (c *Coordinator) Begin() (redirectURL, state string, err error) {
	state, err = c.issueState()
	if err != nil {
		return "", "", fmt.Errorf("issuing state: %w", err)
	}
	return c.oauth.AuthCodeURL(state), state, nil
}

// Complete verifies state, exchanges the one-time code for a delegated
// access token, and fetches minimal identity. Either both steps succeed
// or no result is returned; a failed exchange is never retried with the
// same code.
func (c *Coordinator) Complete(ctx context.Context, code, state string) (session.Identity, string, error) {
	if err := c.verifyState(state); err != nil {
		return session.Identity{}, "", err
	}
	if code == "" {
		return session.Identity{}, "", fmt.Errorf("%w: missing authorization code", ErrUpstreamAuth)
	}

	token, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		c.logger.Warn("code exchange failed", zap.Error(err))
		return session.Identity{}, "", fmt.Errorf("%w: code exchange: %v", ErrUpstreamAuth, err)
	}
	if token.AccessToken == "" {
		return session.Identity{}, "", fmt.Errorf("%w: provider returned empty access token", ErrUpstreamAuth)
	}

	identity, err := c.fetchIdentity(ctx, token.AccessToken)
	if err != nil {
		c.logger.Warn("identity fetch failed", zap.Error(err))
		return session.Identity{}, "", err
	}

	return identity, token.AccessToken, nil
}

// fetchIdentity loads login, display name and avatar for the token's user.
func (c *Coordinator) fetchIdentity(ctx context.Context, accessToken string) (session.Identity, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	client := github.NewClient(oauth2.NewClient(ctx, ts))
	if c.apiBaseURL != "" {
		base, err := url.Parse(c.apiBaseURL)
		if err != nil {
			return session.Identity{}, fmt.Errorf("parsing api base url: %w", err)
		}
		client.BaseURL = base
	}

	user, _, err := client.Users.Get(ctx, "")
	if err != nil {
		return session.Identity{}, fmt.Errorf("%w: identity fetch: %v", ErrUpstreamAuth, err)
	}
	if user.GetLogin() == "" {
		return session.Identity{}, fmt.Errorf("%w: provider returned identity without login", ErrUpstreamAuth)
	}

	return session.Identity{
		Login:     user.GetLogin(),
		Name:      user.GetName(),
		AvatarURL: user.GetAvatarURL(),
	}, nil
}

// stateClaims is the payload of the signed state value.
type stateClaims struct {
	Nonce string `json:"nonce"`
	jwt.RegisteredClaims
}

// issueState signs a random nonce with a short expiry window.
func (c *Coordinator) issueState() (string, error) {
	now := c.now()
	claims := stateClaims{
		Nonce: uuid.NewString(),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(stateTTL)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.signingKey)
	if err != nil {
		return "", fmt.Errorf("signing state: %w", err)
	}
	return signed, nil
}

// verifyState checks the state signature and freshness.
func (c *Coordinator) verifyState(state string) error {
	if state == "" {
		return fmt.Errorf("%w: missing state", ErrStateInvalid)
	}
	var claims stateClaims
	_, err := jwt.ParseWithClaims(state, &claims,
		func(t *jwt.Token) (any, error) { return c.signingKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStateInvalid, err)
	}
	if claims.Nonce == "" {
		return fmt.Errorf("%w: missing nonce", ErrStateInvalid)
	}
	return nil
}
