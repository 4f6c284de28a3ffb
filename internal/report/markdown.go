package report

import (
	"io"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
)

// MarkdownWriter outputs results in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation, which gives type-safe tables, alerts and mermaid charts.
type MarkdownWriter struct {
	baseWriter

	version string
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer, version string) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
		version:    version,
	}
}

// Write outputs the result in Markdown format.
func (w *MarkdownWriter) Write(result *Result) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1(result.Title)
	md.PlainText("")
	if result.Failed() {
		md.Cautionf("%s", result.Error)
		md.PlainText("")
	}

	w.writeSummary(md, result)
	if len(result.Counts) > 0 && result.TotalCount() > 0 {
		w.writePieChart(md, result)
	}
	for _, t := range result.Tables {
		w.writeTable(md, t)
	}
	w.writeFooter(md, result)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, result *Result) {
	if len(result.Summary) == 0 {
		return
	}
	rows := make([][]string, len(result.Summary))
	for i, f := range result.Summary {
		rows[i] = []string{f.Name, escapeCell(f.Value)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writePieChart writes a mermaid pie chart of the distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, result *Result) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle(result.Title+" Distribution"),
		piechart.WithShowData(true),
	)
	for _, c := range result.Counts {
		if c.Value > 0 {
			chart.LabelAndIntValue(c.Label, uint64(c.Value))
		}
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writeTable(md *markdown.Markdown, t Table) {
	md.H2(t.Title)
	md.PlainText("")

	if len(t.Rows) == 0 {
		md.PlainText("None.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		cells := make([]string, len(row))
		for j, c := range row {
			cells[j] = escapeCell(truncateString(c, 80))
		}
		rows[i] = cells
	}
	md.Table(markdown.TableSet{Header: t.Header, Rows: rows})
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown, result *Result) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Generated %s by opsdash %s*", result.Generated.Format("2006-01-02 15:04:05 MST"), w.version)
}

// escapeCell keeps multi-line text on one table row.
func escapeCell(s string) string {
	return strings.ReplaceAll(s, "\n", " ")
}

// truncateString truncates a string to maxLen runes with ellipsis.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
