package report

import (
	"errors"
	"io"
)

// Writer defines the interface for result output.
//
// Design decision: We use an interface to allow different output formats
// and destinations. This enables writing to files or stdout with the same
// API.
type Writer interface {
	// Write outputs the result to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(result *Result) (int, error)
}

// MultiWriter writes each result to several Writers, for --tee.
//
// Design decision: every writer gets every result even after one fails,
// so a full disk does not also blank the terminal. The errors are joined.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the result to every writer and returns the bytes written
// across all of them.
func (m *MultiWriter) Write(result *Result) (int, error) {
	var (
		total int
		errs  []error
	)
	for _, w := range m.writers {
		n, err := w.Write(result)
		total += n
		if err != nil {
			errs = append(errs, err)
		}
	}
	return total, errors.Join(errs...)
}

// Format names an output format.
type Format string

const (
	// FormatText is the plain text format.
	FormatText Format = "text"
	// FormatMarkdown is the Markdown format.
	FormatMarkdown Format = "markdown"
	// FormatJSON is the JSON format.
	FormatJSON Format = "json"
)

// New returns the writer for format. Unknown formats yield ErrUnknownFormat.
// showEmpty only affects the text format.
func New(format Format, output io.Writer, version string, showEmpty bool) (Writer, error) {
	switch format {
	case FormatText, "":
		return NewSimpleWriter(output, WithShowEmpty(showEmpty)), nil
	case FormatMarkdown:
		return NewMarkdownWriter(output, version), nil
	case FormatJSON:
		return NewJSONWriter(output, version, WithPrettyPrint()), nil
	default:
		return nil, ErrUnknownFormat
	}
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
