package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	donationapp "github.com/sharehub/backend/internal/application/donation"
)

var _ donationapp.ImageStore = (*FileSystemImageStore)(nil)

// FileSystemImageStore keeps donation images in a local directory that the
// HTTP server exposes under a public path. References have the form
// "<public path without slashes>/<name>", e.g. "uploads/1700000000000-<uuid>.png".
type FileSystemImageStore struct {
	dir       string
	refPrefix string
	baseURL   string
	create    func(name string) (io.WriteCloser, error)
}

// createExclusive opens name for writing and fails if it already exists,
// so a name collision never overwrites an existing image.
func createExclusive(name string) (io.WriteCloser, error) {
	f, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// NewFileSystemImageStore creates the storage directory if needed.
// publicPath is the URL path the directory is served under, baseURL the
// absolute origin used by Resolve (may be empty for host-relative URLs).
func NewFileSystemImageStore(dir, publicPath, baseURL string) (*FileSystemImageStore, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, errors.New("storage: upload directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: ensure upload directory: %w", err)
	}
	prefix := strings.Trim(publicPath, "/")
	if prefix == "" {
		prefix = "uploads"
	}
	return &FileSystemImageStore{
		dir:       dir,
		refPrefix: prefix,
		baseURL:   strings.TrimRight(baseURL, "/"),
		create:    createExclusive,
	}, nil
}

// Dir returns the directory images are written to
func (s *FileSystemImageStore) Dir() string {
	return s.dir
}

// Store writes data to <dir>/<name> and returns the relative reference
func (s *FileSystemImageStore) Store(ctx context.Context, name, contentType string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	clean, err := sanitizeName(name)
	if err != nil {
		return "", err
	}
	full := filepath.Join(s.dir, clean)
	f, err := s.create(full)
	if err != nil {
		return "", fmt.Errorf("storage: create file: %w", err)
	}
	// a partial file is never left behind under a valid reference
	if err := writeAndClose(f, data); err != nil {
		_ = os.Remove(full)
		return "", fmt.Errorf("storage: write file: %w", err)
	}
	return path.Join(s.refPrefix, clean), nil
}

// writeAndClose writes data and always closes w, reporting both failures.
func writeAndClose(w io.WriteCloser, data []byte) error {
	_, writeErr := w.Write(data)
	return errors.Join(writeErr, w.Close())
}

// Resolve returns the public URL of ref
func (s *FileSystemImageStore) Resolve(_ context.Context, ref string) (string, error) {
	name, err := s.nameFromRef(ref)
	if err != nil {
		return "", err
	}
	return s.baseURL + "/" + path.Join(s.refPrefix, name), nil
}

// Delete removes the file behind ref. A missing file is not an error.
func (s *FileSystemImageStore) Delete(ctx context.Context, ref string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	name, err := s.nameFromRef(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("storage: delete file: %w", err)
	}
	return nil
}

func (s *FileSystemImageStore) nameFromRef(ref string) (string, error) {
	ref = strings.TrimLeft(strings.ReplaceAll(strings.TrimSpace(ref), "\\", "/"), "/")
	ref = strings.TrimPrefix(ref, s.refPrefix+"/")
	return sanitizeName(ref)
}

// sanitizeName accepts a single path element and rejects anything that could
// escape the upload directory.
func sanitizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("storage: file name is required")
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("storage: invalid file name %q", name)
	}
	return name, nil
}
