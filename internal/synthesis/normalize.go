package synthesis

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fyrsmithlabs/issuesmith/internal/issue"
)

// maxTitleRunes caps synthesized titles; longer titles are truncated
// with an ellipsis rather than dropped.
const maxTitleRunes = 200

// parseCandidates extracts the raw candidate list from the model
// response. The response is untrusted: any shape that is not an object
// with an "issues" list is an expected failure, not a fault.
func parseCandidates(raw string) ([]json.RawMessage, error) {
	var top struct {
		Issues []json.RawMessage `json:"issues"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &top); err != nil {
		return nil, fmt.Errorf("response is not a JSON object: %w", err)
	}
	if top.Issues == nil {
		return nil, fmt.Errorf("response has no issues list")
	}
	return top.Issues, nil
}

// normalizeCandidate validates and coerces a single candidate. Each
// field is coerced independently; only a missing or empty title drops
// the candidate, so one bad candidate never aborts the batch.
func normalizeCandidate(raw json.RawMessage) (issue.Record, bool) {
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return issue.Record{}, false
	}

	title, _ := fields["title"].(string)
	title = strings.TrimSpace(title)
	if title == "" {
		return issue.Record{}, false
	}
	if runes := []rune(title); len(runes) > maxTitleRunes {
		title = string(runes[:maxTitleRunes-3]) + "..."
	}

	record := issue.Record{
		Title:  title,
		Labels: normalizeLabels(fields["labels"]),
	}

	if body, ok := fields["body"].(string); ok {
		record.Body = body
	}

	record.Priority = normalizePriority(fields["priority"])

	return record, true
}

// normalizeLabels coerces a candidate label list to a deduplicated
// ordered set of strings. Non-string and blank entries are discarded.
func normalizeLabels(v any) []string {
	entries, ok := v.([]any)
	if !ok {
		return []string{}
	}
	labels := make([]string, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		label, ok := entry.(string)
		if !ok {
			continue
		}
		label = strings.TrimSpace(label)
		if label == "" {
			continue
		}
		if _, dup := seen[label]; dup {
			continue
		}
		seen[label] = struct{}{}
		labels = append(labels, label)
	}
	return labels
}

// normalizePriority keeps a priority only when it is an integral number
// inside the allowed range. Out-of-range values are omitted, never
// clamped.
func normalizePriority(v any) *int {
	f, ok := v.(float64)
	if !ok {
		return nil
	}
	p := int(f)
	if float64(p) != f {
		return nil
	}
	if p < issue.PriorityMin || p > issue.PriorityMax {
		return nil
	}
	return &p
}
