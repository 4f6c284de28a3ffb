package staging

import (
	"fmt"
	"strings"
)

// Kind is the media kind a List accepts.
type Kind string

const (
	// KindImage accepts image/* files.
	KindImage Kind = "image"
	// KindVideo accepts video/* files.
	KindVideo Kind = "video"
)

const megabyte = 1024 * 1024

// List is an ordered list of staged files. It is not safe for concurrent
// use; each controller owns its list.
type List struct {
	kind     Kind
	maxFile  int64
	maxTotal int64
	files    []File
}

// Option configures a List.
type Option func(*List)

// WithMaxFileSize drops files larger than n bytes. Zero disables the check.
func WithMaxFileSize(n int64) Option {
	return func(l *List) {
		l.maxFile = n
	}
}

// WithMaxTotalSize caps the aggregate size of the list. Zero disables the check.
func WithMaxTotalSize(n int64) Option {
	return func(l *List) {
		l.maxTotal = n
	}
}

// New returns an empty list accepting kind.
func New(kind Kind, opts ...Option) *List {
	l := &List{kind: kind}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Skipped is a file that Add left out.
type Skipped struct {
	Path   string
	Reason string
}

// Result describes one Add call.
type Result struct {
	// Added is the number of files appended (zero after a rollback).
	Added int

	// Skipped lists files dropped by the kind or size filter.
	Skipped []Skipped

	// Warning is the user-facing filter warning, empty when nothing was dropped.
	Warning string
}

// Add stages a batch of paths.
//
// Files that are not of the list's kind, exceed the per-file limit or
// cannot be read are skipped and reported through Result.Warning. If the
// aggregate size then exceeds the total limit, the whole batch is removed
// again and ErrTotalExceeded is returned; files staged by earlier calls
// are kept. A batch with no accepted file never rolls anything back.
func (l *List) Add(paths ...string) (Result, error) {
	var res Result
	batch := make([]File, 0, len(paths))

	for _, p := range paths {
		f, err := statFile(p)
		switch {
		case err != nil:
			res.Skipped = append(res.Skipped, Skipped{Path: p, Reason: err.Error()})
		case !strings.HasPrefix(f.mime, string(l.kind)+"/"):
			res.Skipped = append(res.Skipped, Skipped{Path: p, Reason: fmt.Sprintf("not a %s (%s)", l.kind, f.mime)})
		case f.Larger(l.maxFile):
			res.Skipped = append(res.Skipped, Skipped{Path: p, Reason: fmt.Sprintf("larger than %s", formatMB(l.maxFile))})
		default:
			batch = append(batch, f)
		}
	}

	if len(res.Skipped) > 0 {
		res.Warning = l.filterWarning()
	}

	before := len(l.files)
	l.files = append(l.files, batch...)
	if len(batch) > 0 && l.maxTotal > 0 && l.TotalSize() > l.maxTotal {
		l.files = l.files[:before]
		return res, ErrTotalExceeded
	}

	res.Added = len(batch)
	return res, nil
}

func (l *List) filterWarning() string {
	if l.maxFile > 0 {
		return fmt.Sprintf("Some files were filtered out (non-%ss or > %s)", l.kind, formatMB(l.maxFile))
	}
	return fmt.Sprintf("Some files were filtered out (non-%ss)", l.kind)
}

// TotalLimitMessage is the user-facing text for ErrTotalExceeded.
func (l *List) TotalLimitMessage() string {
	return fmt.Sprintf("Total file size exceeds %s limit", formatMB(l.maxTotal))
}

// Remove deletes the file at index i, keeping the order of the rest.
func (l *List) Remove(i int) error {
	if i < 0 || i >= len(l.files) {
		return fmt.Errorf("%w: %d (have %d)", ErrIndexOutOfRange, i, len(l.files))
	}
	l.files = append(l.files[:i], l.files[i+1:]...)
	return nil
}

// Clear empties the list.
func (l *List) Clear() {
	l.files = nil
}

// Files returns a copy of the staged files in order.
func (l *List) Files() []File {
	out := make([]File, len(l.files))
	copy(out, l.files)
	return out
}

// Len returns the number of staged files.
func (l *List) Len() int {
	return len(l.files)
}

// Empty reports whether nothing is staged. Submit controls stay disabled
// while the list is empty.
func (l *List) Empty() bool {
	return len(l.files) == 0
}

// TotalSize returns the aggregate size in bytes.
func (l *List) TotalSize() int64 {
	var total int64
	for _, f := range l.files {
		total += f.size
	}
	return total
}

// MaxTotalSize returns the aggregate cap in bytes, zero when unlimited.
func (l *List) MaxTotalSize() int64 {
	return l.maxTotal
}

// Kind returns the accepted media kind.
func (l *List) Kind() Kind {
	return l.kind
}

func formatMB(n int64) string {
	if n%megabyte == 0 {
		return fmt.Sprintf("%dMB", n/megabyte)
	}
	return fmt.Sprintf("%.1fMB", float64(n)/megabyte)
}
