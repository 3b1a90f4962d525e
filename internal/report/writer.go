package report

import (
	"io"

	"github.com/nao1215/hopcrawl/internal/model"
)

// Writer renders finished runs.
type Writer interface {
	// Write outputs one run with its visits and failures.
	// Returns the number of bytes written and any error encountered.
	Write(run *model.Run) (int, error)

	// WriteList outputs an overview of several runs, one entry per run.
	WriteList(runs []*model.Run) (int, error)
}

// MultiWriter writes to multiple Writers, for example the terminal and a file.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the run to all Writers and stops on the first error.
// Returns the total bytes written across all writers.
func (m *MultiWriter) Write(run *model.Run) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(run)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteList outputs the run list to all Writers and stops on the first error.
func (m *MultiWriter) WriteList(runs []*model.Run) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteList(runs)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

const timeLayout = "2006-01-02 15:04:05 MST"

// orDash returns s, or "-" when s is empty.
func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// truncateString truncates a string to maxLen bytes with an ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
