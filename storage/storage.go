// Package storage reads binary objects (ticket attachments, inline
// images) by their internal storage path.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"path"
	"strings"

	"github.com/spf13/afero"
)

// ErrNotFound is returned when no object exists at the path.
var ErrNotFound = errors.New("storage: object not found")

// Object is an open object. ContentLength is -1 when unknown.
type Object struct {
	Body          io.ReadCloser
	ContentType   string
	ContentLength int64
}

// Reader resolves storage paths to objects. Implementations must be safe
// for concurrent use.
type Reader interface {
	GetObject(ctx context.Context, path string) (*Object, error)
}

// FS serves objects from an afero filesystem rooted at a directory.
type FS struct {
	fs afero.Fs
}

// NewFS roots an FS at dir on the OS filesystem.
func NewFS(dir string) *FS {
	return &FS{fs: afero.NewBasePathFs(afero.NewOsFs(), dir)}
}

// NewFSFrom wraps an existing afero filesystem, e.g. afero.NewMemMapFs in tests.
func NewFSFrom(fsys afero.Fs) *FS {
	return &FS{fs: fsys}
}

func (s *FS) GetObject(ctx context.Context, p string) (*Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	clean, err := CleanPath(p)
	if err != nil {
		return nil, err
	}
	f, err := s.fs.Open(clean)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, clean)
		}
		return nil, fmt.Errorf("open %s: %w", clean, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat %s: %w", clean, err)
	}
	if info.IsDir() {
		f.Close()
		return nil, fmt.Errorf("%w: %s is a directory", ErrNotFound, clean)
	}
	return &Object{
		Body:          f,
		ContentType:   mime.TypeByExtension(path.Ext(clean)),
		ContentLength: info.Size(),
	}, nil
}

// CleanPath normalizes an object path and rejects traversal outside the root.
func CleanPath(p string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "" {
		return "", errors.New("storage: empty path")
	}
	for _, seg := range strings.Split(strings.ReplaceAll(p, "\\", "/"), "/") {
		if seg == ".." {
			return "", fmt.Errorf("storage: path escapes root: %s", p)
		}
	}
	clean := path.Clean("/" + strings.ReplaceAll(p, "\\", "/"))
	return strings.TrimPrefix(clean, "/"), nil
}
