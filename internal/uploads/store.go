// Package uploads manages cover image files on local disk.
package uploads

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/good-yellow-bee/subhub/internal/metrics"
)

// allowedTypes is the cover image allow-list. Uploads of any other
// content type are silently dropped, as if no file had been sent.
var allowedTypes = map[string]bool{
	"image/jpg":  true,
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

// Store writes and removes uploaded cover images under a single
// directory. Filenames are generated server-side; client names never
// reach the filesystem.
type Store struct {
	dir string
}

// NewStore creates the upload directory if needed and returns a store
// rooted at it.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the directory the store writes into.
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the on-disk path for a stored filename.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// Stage sniffs the upload's content type and, if it is an allowed image
// type, writes it to disk under a generated name. A disallowed type is
// not an error: Stage returns ("", nil) and the request proceeds as if
// no file had been attached.
func (s *Store) Stage(file multipart.File, header *multipart.FileHeader) (string, error) {
	mtype, err := mimetype.DetectReader(file)
	if err != nil {
		return "", fmt.Errorf("sniff upload: %w", err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind upload: %w", err)
	}

	if !allowedTypes[mtype.String()] {
		metrics.UploadsRejectedTotal.Inc()
		return "", nil
	}

	name := uuid.New().String() + mtype.Extension()
	dst, err := os.Create(s.Path(name))
	if err != nil {
		return "", fmt.Errorf("create staged file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		os.Remove(s.Path(name))
		return "", fmt.Errorf("write staged file: %w", err)
	}

	metrics.UploadsStagedTotal.Inc()
	return name, nil
}

// Discard removes a staged file. An empty name is a no-op; a file that
// is already gone is not an error.
func (s *Store) Discard(name string) error {
	if name == "" {
		return nil
	}
	if err := os.Remove(s.Path(name)); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("discard staged file: %w", err)
	}
	metrics.UploadsDiscardedTotal.Inc()
	return nil
}

// Exists reports whether a stored file is present on disk.
func (s *Store) Exists(name string) bool {
	if name == "" {
		return false
	}
	_, err := os.Stat(s.Path(name))
	return err == nil
}

// List returns the names of all stored files.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read upload dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}
