// Package session issues and verifies the signed session credential.
//
// The credential is a self-contained HS256 JWT carrying the user identity
// and the delegated GitHub access token. There is no server-side session
// table: verification is stateless and logout is a client-side discard.
// The signing key is process-wide and read-only for the process lifetime.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verification failure classes. Both surface to callers uniformly as
// "authentication required"; the distinction exists for diagnostics only.
var (
	// ErrCredentialInvalid indicates a malformed or tampered credential.
	ErrCredentialInvalid = errors.New("invalid session credential")

	// ErrCredentialExpired indicates a well-formed credential past its window.
	ErrCredentialExpired = errors.New("session credential expired")
)

// Identity is the minimal user identity carried in the credential.
type Identity struct {
	Login     string `json:"login"`
	Name      string `json:"name,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// Session is the verified content of a credential.
type Session struct {
	Identity Identity
	// DelegatedToken is the opaque GitHub access token acting on the
	// user's behalf.
	DelegatedToken string
}

// claims is the JWT payload layout.
type claims struct {
	Name           string `json:"name,omitempty"`
	AvatarURL      string `json:"avatar_url,omitempty"`
	DelegatedToken string `json:"github_token"`
	jwt.RegisteredClaims
}

// Manager signs and verifies session credentials.
type Manager struct {
	signingKey []byte
	ttl        time.Duration
	now        func() time.Time
}

// NewManager creates a session manager. The signing key must be at least
// 32 bytes; the TTL is the fixed expiry window applied to every
// credential.
func NewManager(signingKey []byte, ttl time.Duration) (*Manager, error) {
	if len(signingKey) < 32 {
		return nil, fmt.Errorf("signing key too short: %d bytes (min 32)", len(signingKey))
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("ttl must be positive, got %s", ttl)
	}
	return &Manager{
		signingKey: signingKey,
		ttl:        ttl,
		now:        time.Now,
	}, nil
}

// Issue encodes identity and the delegated token into a signed credential
// with a fixed-window expiry.
func (m *Manager) Issue(identity Identity, delegatedToken string) (string, error) {
	if identity.Login == "" {
		return "", fmt.Errorf("identity login cannot be empty")
	}
	if delegatedToken == "" {
		return "", fmt.Errorf("delegated token cannot be empty")
	}

	now := m.now()
	c := claims{
		Name:           identity.Name,
		AvatarURL:      identity.AvatarURL,
		DelegatedToken: delegatedToken,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.Login,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(m.signingKey)
	if err != nil {
		return "", fmt.Errorf("signing credential: %w", err)
	}
	return signed, nil
}

// Verify checks the credential signature and expiry and returns the
// embedded session. Failures are ErrCredentialExpired for a valid but
// stale credential and ErrCredentialInvalid for everything else.
func (m *Manager) Verify(credential string) (*Session, error) {
	var c claims
	_, err := jwt.ParseWithClaims(credential, &c,
		func(t *jwt.Token) (any, error) { return m.signingKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrCredentialExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrCredentialInvalid, err)
	}

	if c.Subject == "" || c.DelegatedToken == "" {
		return nil, fmt.Errorf("%w: missing subject or delegated token", ErrCredentialInvalid)
	}

	return &Session{
		Identity: Identity{
			Login:     c.Subject,
			Name:      c.Name,
			AvatarURL: c.AvatarURL,
		},
		DelegatedToken: c.DelegatedToken,
	}, nil
}
