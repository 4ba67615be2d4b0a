package oauthflow

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

const testKey = "0123456789abcdef0123456789abcdef"

// fakeProvider stands in for GitHub's token and identity endpoints.
type fakeProvider struct {
	server *httptest.Server

	// rejectExchange makes the token endpoint return 400.
	rejectExchange bool
	// emptyToken makes the token endpoint omit the access token.
	emptyToken bool
	// failIdentity makes the user endpoint return 500.
	failIdentity bool
}

func newFakeProvider(t *testing.T) *fakeProvider {
	t.Helper()
	p := &fakeProvider{}
	mux := http.NewServeMux()
	mux.HandleFunc("/login/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		if p.rejectExchange {
			http.Error(w, `{"error":"bad_verification_code"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if p.emptyToken {
			w.Write([]byte(`{"access_token":"","token_type":"bearer"}`))
			return
		}
		w.Write([]byte(`{"access_token":"gho_delegated","token_type":"bearer"}`))
	})
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		if p.failIdentity {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"login":"octocat","name":"The Octocat","avatar_url":"https://avatars.example/u/1"}`))
	})
	p.server = httptest.NewServer(mux)
	t.Cleanup(p.server.Close)
	return p
}

func (p *fakeProvider) coordinator(t *testing.T) *Coordinator {
	t.Helper()
	c, err := New(Config{
		ClientID:     "test-client",
		ClientSecret: "test-secret",
		Scopes:       []string{"repo", "read:user"},
		Endpoint: oauth2.Endpoint{
			AuthURL:  p.server.URL + "/login/oauth/authorize",
			TokenURL: p.server.URL + "/login/oauth/access_token",
		},
		APIBaseURL: p.server.URL + "/",
	}, []byte(testKey), nil)
	require.NoError(t, err)
	return c
}

func TestNew(t *testing.T) {
	t.Run("requires client credentials", func(t *testing.T) {
		_, err := New(Config{}, []byte(testKey), nil)
		assert.Error(t, err)
	})

	t.Run("requires long signing key", func(t *testing.T) {
		_, err := New(Config{ClientID: "a", ClientSecret: "b"}, []byte("short"), nil)
		assert.Error(t, err)
	})
}

func TestBegin(t *testing.T) {
	p := newFakeProvider(t)
	c := p.coordinator(t)

	redirectURL, state, err := c.Begin()
	require.NoError(t, err)
	assert.NotEmpty(t, state)
	assert.Contains(t, redirectURL, "/login/oauth/authorize")
	assert.Contains(t, redirectURL, "client_id=test-client")
	assert.Contains(t, redirectURL, "state=")

	// Successive states are distinct values.
	_, state2, err := c.Begin()
	require.NoError(t, err)
	assert.NotEqual(t, state, state2)
}

func TestComplete(t *testing.T) {
	t.Run("exchanges code and fetches identity", func(t *testing.T) {
		p := newFakeProvider(t)
		c := p.coordinator(t)

		_, state, err := c.Begin()
		require.NoError(t, err)

		identity, token, err := c.Complete(context.Background(), "good-code", state)
		require.NoError(t, err)
		assert.Equal(t, "octocat", identity.Login)
		assert.Equal(t, "The Octocat", identity.Name)
		assert.Equal(t, "https://avatars.example/u/1", identity.AvatarURL)
		assert.Equal(t, "gho_delegated", token)
	})

	t.Run("rejects forged state", func(t *testing.T) {
		p := newFakeProvider(t)
		c := p.coordinator(t)

		_, _, err := c.Complete(context.Background(), "good-code", "forged-state")
		assert.ErrorIs(t, err, ErrStateInvalid)
	})

	t.Run("rejects missing state", func(t *testing.T) {
		p := newFakeProvider(t)
		c := p.coordinator(t)

		_, _, err := c.Complete(context.Background(), "good-code", "")
		assert.ErrorIs(t, err, ErrStateInvalid)
	})

	t.Run("rejects stale state", func(t *testing.T) {
		p := newFakeProvider(t)
		c := p.coordinator(t)

		issued := time.Now().Add(-time.Hour)
		c.now = func() time.Time { return issued }
		_, state, err := c.Begin()
		require.NoError(t, err)

		c.now = time.Now
		_, _, err = c.Complete(context.Background(), "good-code", state)
		assert.ErrorIs(t, err, ErrStateInvalid)
	})

	t.Run("provider rejection is an upstream auth error", func(t *testing.T) {
		p := newFakeProvider(t)
		p.rejectExchange = true
		c := p.coordinator(t)

		_, state, err := c.Begin()
		require.NoError(t, err)

		_, _, err = c.Complete(context.Background(), "bad-code", state)
		assert.ErrorIs(t, err, ErrUpstreamAuth)
	})

	t.Run("empty access token is an upstream auth error", func(t *testing.T) {
		p := newFakeProvider(t)
		p.emptyToken = true
		c := p.coordinator(t)

		_, state, err := c.Begin()
		require.NoError(t, err)

		_, _, err = c.Complete(context.Background(), "good-code", state)
		assert.ErrorIs(t, err, ErrUpstreamAuth)
	})

	t.Run("identity fetch failure yields no partial result", func(t *testing.T) {
		p := newFakeProvider(t)
		p.failIdentity = true
		c := p.coordinator(t)

		_, state, err := c.Begin()
		require.NoError(t, err)

		identity, token, err := c.Complete(context.Background(), "good-code", state)
		assert.ErrorIs(t, err, ErrUpstreamAuth)
		assert.Empty(t, identity.Login)
		assert.Empty(t, token, "no half-valid credential material")
	})
}

func TestStateRoundTrip(t *testing.T) {
	p := newFakeProvider(t)
	c := p.coordinator(t)

	state, err := c.issueState()
	require.NoError(t, err)
	assert.NoError(t, c.verifyState(state))

	// Tampering with the signature invalidates the state.
	parts := strings.Split(state, ".")
	require.Len(t, parts, 3)
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))
	assert.ErrorIs(t, c.verifyState(tampered), ErrStateInvalid)
}
