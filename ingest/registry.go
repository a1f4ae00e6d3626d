// Package ingest loads activity recordings from file formats into
// trackframe activity tables. Each format adapter produces a raw table of
// named numeric columns plus a start timestamp and per-column kind specs;
// the core does the re-typing and indexing.
package ingest

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/lucasjlepore/trackframe"
)

// ReadFunc parses one file of a specific format into an activity table.
type ReadFunc func(path string) (*trackframe.Activity, error)

// Registry maps file extensions onto format readers. It is a plain value
// owned by the caller; there is no process-wide registration.
type Registry struct {
	readers map[string]ReadFunc
}

// NewRegistry returns a registry with the built-in formats (.tcx, .gpx,
// .fit) wired in.
func NewRegistry() *Registry {
	r := &Registry{readers: make(map[string]ReadFunc)}
	r.Register(".tcx", ReadTCX)
	r.Register(".gpx", ReadGPX)
	r.Register(".fit", ReadFIT)
	return r
}

// Register adds or replaces the reader for an extension. The extension is
// matched case-insensitively and must include the leading dot.
func (r *Registry) Register(ext string, fn ReadFunc) {
	r.readers[strings.ToLower(ext)] = fn
}

// Formats returns the registered extensions.
func (r *Registry) Formats() []string {
	out := make([]string, 0, len(r.readers))
	for ext := range r.readers {
		out = append(out, ext)
	}
	return out
}

// ReadFile parses the file with the reader registered for its extension.
func (r *Registry) ReadFile(path string) (*trackframe.Activity, error) {
	ext := strings.ToLower(filepath.Ext(path))
	fn, ok := r.readers[ext]
	if !ok {
		return nil, fmt.Errorf("unsupported activity file type %q", ext)
	}
	return fn(path)
}

// InvalidFileError reports a file that does not conform to its format.
type InvalidFileError struct {
	Format string
	Reason string
}

func (e *InvalidFileError) Error() string {
	return fmt.Sprintf("not a valid %s file: %s", e.Format, e.Reason)
}
