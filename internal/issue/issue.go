// Package issue defines the normalized issue record shared by the
// synthesis and commit pipelines.
package issue

// Priority bounds for a normalized record. A record either carries a
// priority inside this range or carries none at all.
const (
	PriorityMin = 1
	PriorityMax = 5
)

// Record is a validated, minimal-shape issue ready for preview or
// commit. Title is always non-empty, Labels never contain duplicates,
// and Priority is nil or within [PriorityMin, PriorityMax].
type Record struct {
	Title    string   `json:"title"`
	Body     string   `json:"body"`
	Labels   []string `json:"labels"`
	Priority *int     `json:"priority,omitempty"`
}
