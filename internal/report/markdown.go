package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/hopcrawl/internal/model"
)

// MarkdownWriter outputs runs in GitHub-flavored Markdown, with a mermaid
// pie chart of failure kinds when a run had failures.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs one run.
func (w *MarkdownWriter) Write(run *model.Run) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, run)
	w.writeVisits(md, run)
	w.writeFailures(md, run)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteList outputs a table of runs.
func (w *MarkdownWriter) WriteList(runs []*model.Run) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("Crawl History")
	md.PlainText("")

	if len(runs) == 0 {
		md.PlainText("No crawl runs recorded.")
		md.PlainText("")
	} else {
		rows := make([][]string, len(runs))
		for i, run := range runs {
			rows[i] = []string{
				strconv.FormatInt(run.ID, 10),
				run.StartedAt.Format(timeLayout),
				"`" + run.StartURL + "`",
				fmt.Sprintf("%d/%d", run.Hops, run.HopBudget),
				reasonLabel(run.Reason),
				strconv.Itoa(len(run.Failures)),
			}
		}
		md.Table(markdown.TableSet{
			Header: []string{"ID", "Started", "Start URL", "Hops", "Finished", "Failures"},
			Rows:   rows,
		})
		md.PlainText("")
	}

	w.writeFooter(md)
	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, run *model.Run) {
	md.H1("Crawl Report")
	md.PlainText("")

	rows := [][]string{
		{"Start URL", "`" + run.StartURL + "`"},
		{"Started", run.StartedAt.Format(timeLayout)},
		{"Duration", run.Duration().String()},
		{"Hops", fmt.Sprintf("%d of %d", run.Hops, run.HopBudget)},
		{"Finished", reasonLabel(run.Reason)},
	}
	if run.ID != 0 {
		rows = append([][]string{{"Run", "#" + strconv.FormatInt(run.ID, 10)}}, rows...)
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")

	switch run.Reason {
	case model.ReasonHopsExhausted:
		md.Note("The hop budget was spent; the path may continue beyond the last page.")
	case model.ReasonCancelled:
		md.Warningf("The crawl was interrupted after %d hop(s).", run.Hops)
	case model.ReasonFrontierEmpty:
		if run.Hops == 0 {
			md.Cautionf("No page could be fetched from %s.", run.StartURL)
		} else {
			md.Tip("The path ended at a page without unvisited links.")
		}
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeVisits(md *markdown.Markdown, run *model.Run) {
	md.H2("Path")
	md.PlainText("")

	if len(run.Visits) == 0 {
		md.PlainText("No pages visited.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(run.Visits))
	for i, v := range run.Visits {
		status := strconv.Itoa(v.StatusCode)
		if v.Redirected {
			status += " (redirected)"
		}
		rows[i] = []string{
			strconv.Itoa(v.Seq),
			"`" + v.URL + "`",
			status,
			truncateString(orDash(v.Title), 50),
			orDash(v.NextLink),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"#", "URL", "Status", "Title", "Next Link"},
		Rows:   rows,
	})
	md.PlainText("")

	for _, v := range run.Visits {
		if v.ContentHash != "" {
			md.Details(v.URL, fmt.Sprintf("SHA3-256 `%s` over %d scanned bytes", v.ContentHash, v.BytesScanned))
		}
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeFailures(md *markdown.Markdown, run *model.Run) {
	md.H2("Failures")
	md.PlainText("")

	if len(run.Failures) == 0 {
		md.PlainText("No failures.")
		md.PlainText("")
		return
	}

	w.writePieChart(md, run)

	rows := make([][]string, len(run.Failures))
	for i, f := range run.Failures {
		code := "-"
		if f.Code != 0 {
			code = strconv.Itoa(f.Code)
		}
		rows[i] = []string{
			"`" + f.URL + "`",
			kindLabel(f.Kind),
			code,
			truncateString(orDash(f.Message), 60),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"URL", "Kind", "Code", "Message"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writePieChart writes a mermaid pie chart of failure kinds.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, run *model.Run) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Failure Kinds"),
		piechart.WithShowData(true),
	)

	counts := run.FailureCounts()
	for _, kind := range failureKinds {
		if n := counts[kind]; n > 0 {
			chart.LabelAndIntValue(kindLabel(kind), uint64(n))
		}
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [hopcrawl](https://github.com/nao1215/hopcrawl)*")
}
