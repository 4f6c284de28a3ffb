package view

import (
	"fmt"
	"html/template"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const megabyte = 1024 * 1024

var upperCaser = cases.Upper(language.English)

// Upper upper-cases s for headings and badges.
func Upper(s string) string {
	return upperCaser.String(s)
}

// FormatMB formats a byte count as "X.XX MB".
func FormatMB(n int64) string {
	return fmt.Sprintf("%.2f MB", float64(n)/megabyte)
}

// FormatBytes formats a byte count in binary units, e.g. "16 MiB".
func FormatBytes(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.IBytes(uint64(n))
}

// FormatNumber prints f with the shortest exact representation, so 21.5
// stays "21.5" and 20 prints as "20".
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// FormatPercent prints a 0..100 value with one decimal, e.g. "60.5%".
func FormatPercent(f float64) string {
	return fmt.Sprintf("%.1f%%", f)
}

// FormatRatio prints a 0..1 value as a percentage with one decimal.
func FormatRatio(f float64) string {
	return FormatPercent(f * 100)
}

var funcs = template.FuncMap{
	"upper":  Upper,
	"mb":     FormatMB,
	"bytes":  FormatBytes,
	"num":    FormatNumber,
	"pct":    FormatPercent,
	"ratio":  FormatRatio,
	"join":   strings.Join,
	"plural": plural,
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
