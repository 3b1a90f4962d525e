package model

import (
	"fmt"
	"time"
)

// Visit is a successful fetch. Every visit consumed exactly one hop.
type Visit struct {
	// Seq is the 1-based visit counter at the time of the fetch.
	Seq int `json:"seq"`

	// URL is the normalized URL of the page actually fetched, after any redirect.
	URL string `json:"url"`

	// StatusCode is the status of the response whose body was scanned.
	StatusCode int `json:"status_code"`

	// Redirected is true when the first response was a 3xx.
	Redirected bool `json:"redirected,omitempty"`

	// ContentType is the response Content-Type header.
	ContentType string `json:"content_type,omitempty"`

	// Title is the <title> of the page, if it appeared in the scanned part.
	Title string `json:"title,omitempty"`

	// NextLink is the candidate chosen from this page, empty if none.
	NextLink string `json:"next_link,omitempty"`

	// ContentHash is the SHA3-256 fingerprint of the scanned bytes.
	ContentHash string `json:"content_hash,omitempty"`

	// BytesScanned is how much of the body was read before the scan stopped.
	BytesScanned int64 `json:"bytes_scanned"`
}

// Line returns the console line for the visit.
func (v Visit) Line() string {
	return fmt.Sprintf("Visited: %s [%d]", v.URL, v.Seq)
}

// Summary is the result of a finished crawl.
type Summary struct {
	// Hops is the number of successful fetches.
	Hops int `json:"hops"`

	// Reason is the terminal state.
	Reason Reason `json:"reason"`
}

// Line returns the console line for the total.
func (s Summary) Line() string {
	return fmt.Sprintf("Program finished with total: %d hop(s)", s.Hops)
}

// Run is the complete record of one crawl.
type Run struct {
	// ID is the history database identifier, zero until saved.
	ID int64 `json:"id,omitempty"`

	// StartURL is the URL given on the command line, before normalization.
	StartURL string `json:"start_url"`

	// HopBudget is the requested number of hops.
	HopBudget int `json:"hop_budget"`

	// Hops is the number of successful fetches.
	Hops int `json:"hops"`

	// Reason is the terminal state.
	Reason Reason `json:"reason"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Visits   []Visit   `json:"visits"`
	Failures []Failure `json:"failures"`
}

// NewRun creates a Run for startURL with the given budget.
func NewRun(startURL string, budget int) *Run {
	return &Run{
		StartURL:  startURL,
		HopBudget: budget,
		StartedAt: time.Now(),
		Visits:    []Visit{},
		Failures:  []Failure{},
	}
}

// Duration returns the wall time of the run.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// FailureCounts returns the number of failures per kind.
func (r *Run) FailureCounts() map[FailureKind]int {
	counts := make(map[FailureKind]int)
	for _, f := range r.Failures {
		counts[f.Kind]++
	}
	return counts
}

// Path returns the visited URLs in order.
func (r *Run) Path() []string {
	path := make([]string, len(r.Visits))
	for i, v := range r.Visits {
		path[i] = v.URL
	}
	return path
}
