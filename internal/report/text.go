package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/hopcrawl/internal/model"
)

// TextWriter outputs human-readable run reports for terminal display.
// Plain ASCII formatting keeps the output safe to pipe into files.
type TextWriter struct {
	baseWriter

	// verbose adds content hashes and failure messages.
	verbose bool
}

// TextWriterOption configures a TextWriter.
type TextWriterOption func(*TextWriter)

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) TextWriterOption {
	return func(w *TextWriter) {
		w.verbose = verbose
	}
}

// NewTextWriter creates a TextWriter that outputs to the given writer.
func NewTextWriter(output io.Writer, opts ...TextWriterOption) *TextWriter {
	w := &TextWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs one run with its path and failures.
func (w *TextWriter) Write(run *model.Run) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, run)
	w.writeVisits(&sb, run)
	w.writeFailures(&sb, run)
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")

	return io.WriteString(w.output, sb.String())
}

// WriteList outputs one line per run, newest first as given.
func (w *TextWriter) WriteList(runs []*model.Run) (int, error) {
	var sb strings.Builder

	if len(runs) == 0 {
		sb.WriteString("No crawl runs recorded\n")
		return io.WriteString(w.output, sb.String())
	}

	fmt.Fprintf(&sb, "%-6s %-23s %-9s %-15s %s\n", "ID", "STARTED", "HOPS", "REASON", "START URL")
	for _, run := range runs {
		fmt.Fprintf(&sb, "%-6d %-23s %-9s %-15s %s\n",
			run.ID,
			run.StartedAt.Format(timeLayout),
			fmt.Sprintf("%d/%d", run.Hops, run.HopBudget),
			run.Reason,
			run.StartURL,
		)
	}
	return io.WriteString(w.output, sb.String())
}

func (w *TextWriter) writeHeader(sb *strings.Builder, run *model.Run) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                          HOPCRAWL REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	if run.ID != 0 {
		fmt.Fprintf(sb, "Run:        #%d\n", run.ID)
	}
	fmt.Fprintf(sb, "Start URL:  %s\n", run.StartURL)
	fmt.Fprintf(sb, "Started:    %s\n", run.StartedAt.Format(timeLayout))
	fmt.Fprintf(sb, "Duration:   %s\n", run.Duration().Round(time.Millisecond))
	fmt.Fprintf(sb, "Hops:       %d of %d\n", run.Hops, run.HopBudget)
	fmt.Fprintf(sb, "Finished:   %s\n", reasonLabel(run.Reason))
	sb.WriteString("\n")
}

func (w *TextWriter) writeVisits(sb *strings.Builder, run *model.Run) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\nPATH\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(run.Visits) == 0 {
		sb.WriteString("  No pages visited\n\n")
		return
	}

	for _, v := range run.Visits {
		fmt.Fprintf(sb, "  [%d] %s (%d)\n", v.Seq, v.URL, v.StatusCode)
		if v.Title != "" {
			fmt.Fprintf(sb, "      Title: %s\n", v.Title)
		}
		if v.Redirected {
			sb.WriteString("      Reached through a redirect\n")
		}
		if w.verbose {
			fmt.Fprintf(sb, "      Scanned: %d bytes\n", v.BytesScanned)
			if v.ContentHash != "" {
				fmt.Fprintf(sb, "      SHA3-256: %s\n", v.ContentHash)
			}
		}
	}
	sb.WriteString("\n")
}

func (w *TextWriter) writeFailures(sb *strings.Builder, run *model.Run) {
	if len(run.Failures) == 0 {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\nFAILURES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	counts := run.FailureCounts()
	for _, kind := range failureKinds {
		if counts[kind] > 0 {
			fmt.Fprintf(sb, "  %-14s %d\n", kindLabel(kind)+":", counts[kind])
		}
	}
	sb.WriteString("\n")

	for _, f := range run.Failures {
		fmt.Fprintf(sb, "  * %s\n", f.Line())
		if w.verbose && f.Message != "" {
			fmt.Fprintf(sb, "    %s\n", f.Message)
		}
	}
	sb.WriteString("\n")
}
