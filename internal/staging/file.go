package staging

import (
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// File is one staged file.
type File struct {
	path string
	name string
	size int64
	mime string
}

// Name returns the base name sent to the server.
func (f File) Name() string { return f.name }

// Path returns the local path.
func (f File) Path() string { return f.path }

// Size returns the size in bytes at staging time.
func (f File) Size() int64 { return f.size }

// MIME returns the detected media type, e.g. "image/jpeg".
func (f File) MIME() string { return f.mime }

// Open opens the file for reading.
func (f File) Open() (io.ReadCloser, error) {
	return os.Open(f.path)
}

// Larger reports whether the file is bigger than threshold bytes.
func (f File) Larger(threshold int64) bool {
	return threshold > 0 && f.size > threshold
}

// statFile inspects path and detects its media type from content. The
// extension is only consulted when sniffing finds nothing specific.
func statFile(path string) (File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return File{}, err
	}
	if info.IsDir() {
		return File{}, fmt.Errorf("%s is a directory", path)
	}

	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return File{}, fmt.Errorf("failed to detect type of %s: %w", path, err)
	}
	mediaType := mt.String()
	if i := strings.IndexByte(mediaType, ';'); i >= 0 {
		mediaType = mediaType[:i]
	}
	if mediaType == "application/octet-stream" || mediaType == "text/plain" {
		if byExt := mime.TypeByExtension(filepath.Ext(path)); byExt != "" {
			mediaType, _, _ = mime.ParseMediaType(byExt) //nolint:errcheck // TypeByExtension returns valid types
		}
	}

	return File{
		path: path,
		name: filepath.Base(path),
		size: info.Size(),
		mime: mediaType,
	}, nil
}
