package report

import (
	"io"
	"time"

	"github.com/bytedance/sonic"
)

// JSONWriter writes one JSON document per result. The document carries
// the decoded API payload, so scripts see the backend's field names rather
// than the text table cells.
type JSONWriter struct {
	baseWriter

	version string
	indent  string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent indents nested values by indent. Empty means compact output.
func WithIndent(indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = indent
	}
}

// WithPrettyPrint is WithIndent("  ").
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, version string, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
		version:    version,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// JSONReport is the JSON document written for a result.
type JSONReport struct {
	Version   string    `json:"version"`
	Command   string    `json:"command"`
	Generated time.Time `json:"generated"`
	Error     string    `json:"error,omitempty"`
	Data      any       `json:"data,omitempty"`
}

// NewJSONReport wraps result with version information.
func NewJSONReport(result *Result, version string) *JSONReport {
	return &JSONReport{
		Version:   version,
		Command:   result.Title,
		Generated: result.Generated,
		Error:     result.Error,
		Data:      result.Payload,
	}
}

// Write outputs the result wrapped with metadata.
func (w *JSONWriter) Write(result *Result) (int, error) {
	return w.writeJSON(NewJSONReport(result, w.version))
}

func (w *JSONWriter) writeJSON(v any) (int, error) {
	var (
		data []byte
		err  error
	)
	if w.indent != "" {
		data, err = sonic.ConfigStd.MarshalIndent(v, "", w.indent)
	} else {
		data, err = sonic.ConfigStd.Marshal(v)
	}
	if err != nil {
		return 0, err
	}
	return w.output.Write(append(data, '\n'))
}
