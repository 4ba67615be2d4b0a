package session

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "0123456789abcdef0123456789abcdef"

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager([]byte(testKey), time.Hour)
	require.NoError(t, err)
	return m
}

func TestNewManager(t *testing.T) {
	t.Run("rejects short key", func(t *testing.T) {
		_, err := NewManager([]byte("short"), time.Hour)
		assert.Error(t, err)
	})

	t.Run("rejects non-positive ttl", func(t *testing.T) {
		_, err := NewManager([]byte(testKey), 0)
		assert.Error(t, err)
	})
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	m := newTestManager(t)

	identity := Identity{
		Login:     "octocat",
		Name:      "The Octocat",
		AvatarURL: "https://avatars.example/u/1",
	}

	credential, err := m.Issue(identity, "gho_delegated")
	require.NoError(t, err)
	require.NotEmpty(t, credential)

	sess, err := m.Verify(credential)
	require.NoError(t, err)
	assert.Equal(t, identity, sess.Identity)
	assert.Equal(t, "gho_delegated", sess.DelegatedToken)
}

func TestIssueValidation(t *testing.T) {
	m := newTestManager(t)

	_, err := m.Issue(Identity{}, "gho_delegated")
	assert.Error(t, err, "empty login")

	_, err = m.Issue(Identity{Login: "octocat"}, "")
	assert.Error(t, err, "empty delegated token")
}

func TestVerifyFailures(t *testing.T) {
	m := newTestManager(t)

	t.Run("expired credential", func(t *testing.T) {
		issued := time.Now().Add(-2 * time.Hour)
		m.now = func() time.Time { return issued }
		credential, err := m.Issue(Identity{Login: "octocat"}, "gho_delegated")
		require.NoError(t, err)

		m.now = time.Now
		_, err = m.Verify(credential)
		assert.ErrorIs(t, err, ErrCredentialExpired)
		assert.NotErrorIs(t, err, ErrCredentialInvalid)
	})

	t.Run("tampered credential", func(t *testing.T) {
		credential, err := m.Issue(Identity{Login: "octocat"}, "gho_delegated")
		require.NoError(t, err)

		parts := strings.Split(credential, ".")
		require.Len(t, parts, 3)
		tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))

		_, err = m.Verify(tampered)
		assert.ErrorIs(t, err, ErrCredentialInvalid)
	})

	t.Run("credential signed with a different key", func(t *testing.T) {
		other, err := NewManager([]byte(strings.Repeat("x", 32)), time.Hour)
		require.NoError(t, err)
		credential, err := other.Issue(Identity{Login: "octocat"}, "gho_delegated")
		require.NoError(t, err)

		_, err = m.Verify(credential)
		assert.ErrorIs(t, err, ErrCredentialInvalid)
	})

	t.Run("garbage input", func(t *testing.T) {
		_, err := m.Verify("not-a-jwt")
		assert.ErrorIs(t, err, ErrCredentialInvalid)
	})

	t.Run("empty input", func(t *testing.T) {
		_, err := m.Verify("")
		assert.ErrorIs(t, err, ErrCredentialInvalid)
	})
}
