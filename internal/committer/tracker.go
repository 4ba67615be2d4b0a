package committer

import (
	"context"
	"fmt"

	"github.com/fyrsmithlabs/issuesmith/internal/issue"
	"github.com/fyrsmithlabs/issuesmith/internal/tracker"
)

// TrackerCommitter binds the committer to per-request GitHub clients
// built from the session's delegated token.
type TrackerCommitter struct {
	tracker *tracker.Service
	service *Service
}

// NewTrackerCommitter wires the committer to the tracker service.
func NewTrackerCommitter(t *tracker.Service, s *Service) *TrackerCommitter {
	return &TrackerCommitter{tracker: t, service: s}
}

// Commit builds a delegated-token client and runs the bulk commit.
func (tc *TrackerCommitter) Commit(ctx context.Context, delegatedToken, owner, repo string, records []issue.Record) (Outcome, error) {
	client, err := tc.tracker.Client(ctx, delegatedToken)
	if err != nil {
		return Outcome{}, fmt.Errorf("creating tracker client: %w", err)
	}
	return tc.service.Commit(ctx, client.Issues, owner, repo, records), nil
}
