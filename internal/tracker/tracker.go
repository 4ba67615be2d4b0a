// Package tracker provides delegated-token GitHub clients and the
// repository listing passthrough.
package tracker

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"
)

// Service constructs GitHub clients bound to a user's delegated token.
// It holds no per-user state; every call carries its own token.
type Service struct {
	// baseURL overrides the GitHub API base URL. Empty means the public
	// API; tests point it at a fake server.
	baseURL string
}

// NewService creates a tracker service. baseURL is normally empty.
func NewService(baseURL string) *Service {
	return &Service{baseURL: baseURL}
}

// Client returns a GitHub client authenticated with the delegated token.
func (s *Service) Client(ctx context.Context, delegatedToken string) (*github.Client, error) {
	if delegatedToken == "" {
		return nil, fmt.Errorf("delegated token not set")
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: delegatedToken})
	client := github.NewClient(oauth2.NewClient(ctx, ts))
	if s.baseURL != "" {
		base, err := url.Parse(s.baseURL)
		if err != nil {
			return nil, fmt.Errorf("parsing base url: %w", err)
		}
		client.BaseURL = base
	}
	return client, nil
}

// Repository is the subset of repository attributes the caller needs to
// pick a destination.
type Repository struct {
	Name        string    `json:"name"`
	FullName    string    `json:"full_name"`
	Description string    `json:"description"`
	Private     bool      `json:"private"`
	HTMLURL     string    `json:"html_url"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ListRepositories returns the user's own repositories, most recently
// updated first, one page of 50. A pure passthrough read.
func (s *Service) ListRepositories(ctx context.Context, delegatedToken string) ([]Repository, error) {
	client, err := s.Client(ctx, delegatedToken)
	if err != nil {
		return nil, err
	}

	repos, _, err := client.Repositories.List(ctx, "", &github.RepositoryListOptions{
		Sort:        "updated",
		Type:        "owner",
		ListOptions: github.ListOptions{PerPage: 50},
	})
	if err != nil {
		return nil, fmt.Errorf("listing repositories: %w", err)
	}

	out := make([]Repository, 0, len(repos))
	for _, r := range repos {
		out = append(out, Repository{
			Name:        r.GetName(),
			FullName:    r.GetFullName(),
			Description: r.GetDescription(),
			Private:     r.GetPrivate(),
			HTMLURL:     r.GetHTMLURL(),
			UpdatedAt:   r.GetUpdatedAt().Time,
		})
	}
	return out, nil
}
