package report

import (
	"fmt"
	"io"

	"github.com/nao1215/hopcrawl/internal/crawler"
	"github.com/nao1215/hopcrawl/internal/model"
)

// Console prints crawl progress one line per event:
//
//	Visited: http://example.com [1]
//	CODE 404 ERROR: http://example.com/missing is not valid URL
//	No more links, program terminated
//	Program finished with total: 1 hop(s)
//
// Write errors are ignored; progress output is best effort.
type Console struct {
	output io.Writer
}

var _ crawler.Reporter = (*Console)(nil)

// NewConsole creates a Console writing to output.
func NewConsole(output io.Writer) *Console {
	return &Console{output: output}
}

// Visited prints the visit line as soon as the page is fetched.
func (c *Console) Visited(v model.Visit) {
	fmt.Fprintln(c.output, v.Line()) //nolint:errcheck
}

// Scanned prints nothing.
func (c *Console) Scanned(model.Visit) {}

// Failed prints the failure line.
func (c *Console) Failed(f model.Failure) {
	fmt.Fprintln(c.output, f.Line()) //nolint:errcheck
}

// Finished prints the terminal message and the total.
func (c *Console) Finished(s model.Summary) {
	if msg := s.Reason.Message(); msg != "" {
		fmt.Fprintln(c.output, msg) //nolint:errcheck
	}
	fmt.Fprintln(c.output, s.Line()) //nolint:errcheck
}

// Multi forwards every event to each reporter in order. Nil reporters are skipped.
type Multi []crawler.Reporter

var _ crawler.Reporter = Multi(nil)

// NewMulti creates a Multi from reporters, dropping nils.
func NewMulti(reporters ...crawler.Reporter) Multi {
	m := make(Multi, 0, len(reporters))
	for _, r := range reporters {
		if r != nil {
			m = append(m, r)
		}
	}
	return m
}

// Visited implements crawler.Reporter.
func (m Multi) Visited(v model.Visit) {
	for _, r := range m {
		r.Visited(v)
	}
}

// Scanned implements crawler.Reporter.
func (m Multi) Scanned(v model.Visit) {
	for _, r := range m {
		r.Scanned(v)
	}
}

// Failed implements crawler.Reporter.
func (m Multi) Failed(f model.Failure) {
	for _, r := range m {
		r.Failed(f)
	}
}

// Finished implements crawler.Reporter.
func (m Multi) Finished(s model.Summary) {
	for _, r := range m {
		r.Finished(s)
	}
}
