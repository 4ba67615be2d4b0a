package sanitize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitRepository(t *testing.T) {
	t.Run("accepts well-formed names", func(t *testing.T) {
		cases := []struct{ full, owner, repo string }{
			{"octocat/hello-world", "octocat", "hello-world"},
			{"fyrsmithlabs/issuesmith", "fyrsmithlabs", "issuesmith"},
			{"a/b", "a", "b"},
			{"my-org/repo.name_v2", "my-org", "repo.name_v2"},
		}
		for _, tc := range cases {
			owner, repo, err := SplitRepository(tc.full)
			require.NoError(t, err, tc.full)
			assert.Equal(t, tc.owner, owner)
			assert.Equal(t, tc.repo, repo)
		}
	})

	t.Run("rejects malformed names", func(t *testing.T) {
		cases := []string{
			"",
			"norepo",
			"too/many/parts",
			"/leading",
			"trailing/",
			"-bad/repo",
			"bad-/repo",
			"owner/" + strings.Repeat("x", 101),
			"owner/..",
			"owner/.",
			"owner name/repo",
		}
		for _, full := range cases {
			_, _, err := SplitRepository(full)
			assert.ErrorIs(t, err, ErrInvalidRepository, full)
		}
	})
}

func TestValidateDocument(t *testing.T) {
	t.Run("accepts document within bound", func(t *testing.T) {
		assert.NoError(t, ValidateDocument("# Requirements\n\n- login", 1024))
	})

	t.Run("rejects empty and whitespace-only", func(t *testing.T) {
		assert.ErrorIs(t, ValidateDocument("", 1024), ErrEmptyDocument)
		assert.ErrorIs(t, ValidateDocument("   \n\t", 1024), ErrEmptyDocument)
	})

	t.Run("rejects oversized document", func(t *testing.T) {
		err := ValidateDocument(strings.Repeat("a", 2049), 2048)
		assert.ErrorIs(t, err, ErrDocumentTooLarge)
	})

	t.Run("zero bound disables size check", func(t *testing.T) {
		assert.NoError(t, ValidateDocument(strings.Repeat("a", 1<<20), 0))
	})
}
