// Package uploads is the file collaborator: it stores uploaded assets and
// hands back path strings. File contents are never inspected beyond the
// extension whitelist.
package uploads

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/gatehouse-rbac/gatehouse/internal/shared"
)

var allowedExtensions = map[string]struct{}{
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".gif":  {},
	".webp": {},
}

// Store writes uploads into a flat directory with generated names.
type Store struct {
	dir string
}

// New creates the upload directory when missing.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("uploads: create dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Save stores the file under a generated name and returns the serving path.
func (s *Store) Save(src io.Reader, originalName string) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if _, ok := allowedExtensions[ext]; !ok {
		return "", fmt.Errorf("unsupported file type %q: %w", ext, shared.ErrInvalidInput)
	}
	name := uuid.NewString() + ext
	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("uploads: create file: %w", err)
	}
	defer dst.Close()
	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("uploads: write file: %w", err)
	}
	return "/uploads/" + name, nil
}

// Dir returns the backing directory, for static file serving.
func (s *Store) Dir() string { return s.dir }
