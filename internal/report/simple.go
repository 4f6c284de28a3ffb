package report

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

const ruleWidth = 70

// SimpleWriter outputs human-readable text.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors because it works in all terminals and pipes cleanly to files
// or other tools.
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether tables with no rows are shown.
	showEmpty bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty tables.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the result in human-readable format.
func (w *SimpleWriter) Write(result *Result) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, result)
	w.writeSummary(&sb, result)
	for _, t := range result.Tables {
		w.writeTable(&sb, t)
	}

	return io.WriteString(w.output, sb.String())
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, result *Result) {
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString(strings.ToUpper(result.Title))
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
	if result.Failed() {
		fmt.Fprintf(sb, "ERROR: %s\n", result.Error)
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeSummary(sb *strings.Builder, result *Result) {
	if len(result.Summary) == 0 {
		return
	}

	width := 0
	for _, f := range result.Summary {
		width = max(width, utf8.RuneCountInString(f.Name))
	}
	for _, f := range result.Summary {
		pad := width - utf8.RuneCountInString(f.Name)
		fmt.Fprintf(sb, "  %s:%s %s\n", f.Name, strings.Repeat(" ", pad), f.Value)
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeTable(sb *strings.Builder, t Table) {
	if len(t.Rows) == 0 && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString(strings.ToUpper(t.Title))
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n")

	if len(t.Rows) == 0 {
		sb.WriteString("  (none)\n\n")
		return
	}

	widths := make([]int, len(t.Header))
	for i, h := range t.Header {
		widths[i] = utf8.RuneCountInString(h)
	}
	for _, row := range t.Rows {
		for i := range min(len(row), len(widths)) {
			widths[i] = max(widths[i], utf8.RuneCountInString(row[i]))
		}
	}

	writeRow(sb, t.Header, widths)
	for _, row := range t.Rows {
		writeRow(sb, row, widths)
	}
	sb.WriteString("\n")
}

func writeRow(sb *strings.Builder, cells []string, widths []int) {
	sb.WriteString(" ")
	for i, w := range widths {
		var c string
		if i < len(cells) {
			c = cells[i]
		}
		sb.WriteString(" ")
		sb.WriteString(c)
		if i < len(widths)-1 {
			sb.WriteString(strings.Repeat(" ", w-utf8.RuneCountInString(c)+1))
		}
	}
	sb.WriteString("\n")
}
