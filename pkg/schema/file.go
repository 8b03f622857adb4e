package schema

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// File is a handle on the user-selected local file. Open may be called more
// than once; each call returns a reader positioned at the start.
type File struct {
	Name string
	Size int64 // client-reported size, never persisted
	Open func() (io.ReadCloser, error)
}

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// OpenFile returns a File for a path on the local filesystem
func OpenFile(path string) (File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return File{}, err
	}
	return File{
		Name: filepath.Base(path),
		Size: info.Size(),
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}

// BytesFile returns a File backed by an in-memory buffer
func BytesFile(name string, data []byte) File {
	return File{
		Name: name,
		Size: int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// IsZero reports whether no file has been selected
func (f File) IsZero() bool {
	return f.Open == nil
}
