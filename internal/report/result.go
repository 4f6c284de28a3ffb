package report

import (
	"time"
)

// Field is one summary line.
type Field struct {
	Name  string
	Value string
}

// Table is a titled grid of rows.
type Table struct {
	Title  string
	Header []string
	Rows   [][]string
}

// Count is one slice of a distribution, e.g. detections per class.
type Count struct {
	Label string
	Value int
}

// Result is a command outcome ready to print.
type Result struct {
	// Title names the command, e.g. "Image Detection".
	Title string

	// Generated is when the result was produced.
	Generated time.Time

	// Error is the user-facing failure text, empty on success.
	Error string

	// Summary lists the headline values in display order.
	Summary []Field

	// Tables hold per-item details.
	Tables []Table

	// Counts is an optional distribution drawn as a chart in Markdown.
	Counts []Count

	// Payload is the API payload, written as-is by JSONWriter.
	Payload any `json:"-"`
}

// NewResult returns an empty result titled title.
func NewResult(title string) *Result {
	return &Result{Title: title, Generated: time.Now()}
}

// Failed reports whether the result carries an error.
func (r *Result) Failed() bool {
	return r.Error != ""
}

// AddField appends a summary line.
func (r *Result) AddField(name, value string) *Result {
	r.Summary = append(r.Summary, Field{Name: name, Value: value})
	return r
}

// AddTable appends a table. Tables without rows are kept so writers can
// print their empty text.
func (r *Result) AddTable(t Table) *Result {
	r.Tables = append(r.Tables, t)
	return r
}

// TotalCount sums Counts.
func (r *Result) TotalCount() int {
	var n int
	for _, c := range r.Counts {
		n += c.Value
	}
	return n
}
