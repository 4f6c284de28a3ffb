// Package report prints command results for the terminal and for files.
//
// This package contains writers for different output formats:
//   - SimpleWriter: plain text for terminal display
//   - MarkdownWriter: Markdown with tables and a class distribution chart
//   - JSONWriter: the raw API payload wrapped with metadata
//
// Design decision: Every command converts its API payload into one Result
// (summary fields, tables, per-class counts) with the From* builders. The
// writers only know Result, so adding a command never touches a writer and
// adding a format never touches a command.
package report
