// Package sanitize provides input validation for caller-supplied values.
package sanitize

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Validation errors for caller input.
var (
	// ErrInvalidRepository indicates the destination is not an owner/repo name.
	ErrInvalidRepository = errors.New("invalid repository name")

	// ErrEmptyDocument indicates an empty requirement document.
	ErrEmptyDocument = errors.New("document cannot be empty")

	// ErrDocumentTooLarge indicates the requirement document exceeds the size bound.
	ErrDocumentTooLarge = errors.New("document too large")
)

// repoNamePattern matches GitHub owner and repository name segments.
// Owner: alphanumeric with non-leading/trailing hyphens, max 39 chars.
// Repo: alphanumeric plus dot, underscore and hyphen, max 100 chars.
var (
	ownerPattern = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9-]{0,37}[A-Za-z0-9])?$`)
	repoPattern  = regexp.MustCompile(`^[A-Za-z0-9._-]{1,100}$`)
)

// SplitRepository validates an "owner/repo" destination and returns the
// two segments. Anything that is not exactly two well-formed segments
// fails with ErrInvalidRepository.
func SplitRepository(fullName string) (owner, repo string, err error) {
	parts := strings.Split(fullName, "/")
	if len(parts) != 2 {
		return "", "", fmt.Errorf("%w: %q is not owner/repo", ErrInvalidRepository, fullName)
	}
	owner, repo = parts[0], parts[1]
	if !ownerPattern.MatchString(owner) {
		return "", "", fmt.Errorf("%w: bad owner segment %q", ErrInvalidRepository, owner)
	}
	if !repoPattern.MatchString(repo) || repo == "." || repo == ".." {
		return "", "", fmt.Errorf("%w: bad repository segment %q", ErrInvalidRepository, repo)
	}
	return owner, repo, nil
}

// ValidateDocument checks a requirement document against the configured
// size bound. The bound is enforced here, at the boundary, so the
// synthesizer can assume its input is already limited.
func ValidateDocument(text string, maxBytes int) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyDocument
	}
	if maxBytes > 0 && len(text) > maxBytes {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrDocumentTooLarge, len(text), maxBytes)
	}
	return nil
}
