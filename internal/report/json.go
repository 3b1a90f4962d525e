package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/hopcrawl/internal/model"
)

// JSONWriter outputs runs in JSON format for tool integration.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string

	// version is recorded in the document envelope.
	version string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with two-space indentation.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// WithVersion sets the hopcrawl version recorded in the output.
func WithVersion(version string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.version = version
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// JSONReport is the envelope for a single run.
type JSONReport struct {
	// Version is the hopcrawl version that wrote the report.
	Version string `json:"version,omitempty"`

	// Run is the crawl record.
	Run *model.Run `json:"run"`

	// FailureCounts maps failure kind names to their number of occurrences.
	FailureCounts map[string]int `json:"failure_counts"`

	// DurationMS is the wall time of the run in milliseconds.
	DurationMS int64 `json:"duration_ms"`
}

// JSONRunList is the envelope for a list of runs.
type JSONRunList struct {
	Version string       `json:"version,omitempty"`
	Runs    []*model.Run `json:"runs"`
}

// Write outputs the run wrapped in a JSONReport.
func (w *JSONWriter) Write(run *model.Run) (int, error) {
	counts := make(map[string]int)
	for kind, n := range run.FailureCounts() {
		counts[kind.String()] = n
	}
	return w.writeJSON(JSONReport{
		Version:       w.version,
		Run:           run,
		FailureCounts: counts,
		DurationMS:    run.Duration().Milliseconds(),
	})
}

// WriteList outputs the runs wrapped in a JSONRunList.
func (w *JSONWriter) WriteList(runs []*model.Run) (int, error) {
	if runs == nil {
		runs = []*model.Run{}
	}
	return w.writeJSON(JSONRunList{Version: w.version, Runs: runs})
}

// writeJSON marshals v and writes it with a trailing newline.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}

	data = append(data, '\n')
	return w.output.Write(data)
}
