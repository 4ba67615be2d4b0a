// Package committer fans out concurrent issue-creation calls and
// aggregates independent per-item outcomes.
//
// There is no cross-item atomicity: one item's failure never aborts,
// retries, or rolls back any other item, and every failure cause folds
// into a single terminal per-item outcome. The invoking request joins
// all calls before returning; already-dispatched calls are not cancelled
// if the caller goes away.
package committer

import (
	"context"

	"github.com/google/go-github/v57/github"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fyrsmithlabs/issuesmith/internal/issue"
)

// IssueCreator is the creation surface of the tracker. *github.IssuesService
// satisfies it directly.
type IssueCreator interface {
	Create(ctx context.Context, owner, repo string, issue *github.IssueRequest) (*github.Issue, *github.Response, error)
}

// Reference identifies a created issue on the tracker.
type Reference struct {
	Number int    `json:"number"`
	URL    string `json:"html_url"`
}

// ItemOutcome is the independent outcome for one record, in input order.
type ItemOutcome struct {
	Record    issue.Record `json:"record"`
	Success   bool         `json:"success"`
	Reference *Reference   `json:"reference,omitempty"`
	Error     string       `json:"error,omitempty"`
}

// ItemError pairs a failed item's position with its original title.
type ItemError struct {
	Index int    `json:"index"`
	Title string `json:"title"`
	Error string `json:"error"`
}

// Outcome aggregates a bulk commit. Items is position-indexed against
// the input selection; the summary fields are derived from it.
type Outcome struct {
	Total     int           `json:"total"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Created   []Reference   `json:"created"`
	Errors    []ItemError   `json:"errors,omitempty"`
	Items     []ItemOutcome `json:"items"`
}

// Service commits selected records to a destination repository.
type Service struct {
	// concurrency caps simultaneous creation calls. Zero means
	// unbounded: the batch size is the concurrency level.
	concurrency int
	logger      *zap.Logger
}

// NewService creates a committer. concurrency is a rate-limit tuning
// knob, never a correctness requirement.
func NewService(concurrency int, logger *zap.Logger) *Service {
	if concurrency < 0 {
		concurrency = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{concurrency: concurrency, logger: logger}
}

// Commit dispatches one creation call per record, all concurrently, and
// joins them all. An empty selection is a no-op empty aggregate, not an
// error.
func (s *Service) Commit(ctx context.Context, creator IssueCreator, owner, repo string, records []issue.Record) Outcome {
	items := make([]ItemOutcome, len(records))

	if len(records) > 0 {
		g := new(errgroup.Group)
		if s.concurrency > 0 {
			g.SetLimit(s.concurrency)
		}
		for i, record := range records {
			g.Go(func() error {
				items[i] = s.createOne(ctx, creator, owner, repo, record)
				return nil
			})
		}
		// Workers never return errors; failures live in their item slot.
		_ = g.Wait()
	}

	outcome := aggregate(items)
	s.logger.Info("bulk commit finished",
		zap.String("repository", owner+"/"+repo),
		zap.Int("total", outcome.Total),
		zap.Int("succeeded", outcome.Succeeded),
		zap.Int("failed", outcome.Failed))
	return outcome
}

// createOne performs a single creation call and captures its outcome.
// Transport errors, rejected tokens, tracker-side validation and rate
// limiting all land in the same terminal failed state.
func (s *Service) createOne(ctx context.Context, creator IssueCreator, owner, repo string, record issue.Record) ItemOutcome {
	req := &github.IssueRequest{
		Title: github.String(record.Title),
		Body:  github.String(record.Body),
	}
	if len(record.Labels) > 0 {
		labels := record.Labels
		req.Labels = &labels
	}

	created, _, err := creator.Create(ctx, owner, repo, req)
	if err != nil {
		s.logger.Warn("issue creation failed",
			zap.String("title", record.Title),
			zap.Error(err))
		return ItemOutcome{Record: record, Error: err.Error()}
	}

	return ItemOutcome{
		Record:  record,
		Success: true,
		Reference: &Reference{
			Number: created.GetNumber(),
			URL:    created.GetHTMLURL(),
		},
	}
}

// aggregate derives the summary from the position-indexed items.
func aggregate(items []ItemOutcome) Outcome {
	outcome := Outcome{
		Total:   len(items),
		Created: make([]Reference, 0, len(items)),
		Items:   items,
	}
	for i, item := range items {
		if item.Success {
			outcome.Succeeded++
			outcome.Created = append(outcome.Created, *item.Reference)
			continue
		}
		outcome.Failed++
		outcome.Errors = append(outcome.Errors, ItemError{
			Index: i,
			Title: item.Record.Title,
			Error: item.Error,
		})
	}
	return outcome
}
