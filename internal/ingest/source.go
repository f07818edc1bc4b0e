package ingest

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
)

// Source is a file waiting to be read into a blob.
type Source interface {
	// Name is the original file name recorded on the blob.
	Name() string
	Open() (io.ReadCloser, error)
}

// FileSource reads a file from disk.
type FileSource string

// Name returns the base name of the path.
func (f FileSource) Name() string { return filepath.Base(string(f)) }

// Open opens the file.
func (f FileSource) Open() (io.ReadCloser, error) { return os.Open(string(f)) }

// BytesSource serves an in-memory payload.
type BytesSource struct {
	FileName string
	Data     []byte
}

// Name returns FileName.
func (b BytesSource) Name() string { return b.FileName }

// Open returns a reader over Data.
func (b BytesSource) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(b.Data)), nil
}
