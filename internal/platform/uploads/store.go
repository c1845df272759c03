// Package uploads stores patient-submitted images on local disk. Filenames
// are sanitized client input; colliding names overwrite the previous file.
package uploads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	ErrEmptyFilename = errors.New("file name is required")
)

// Store is the contract for persisting uploaded files. Save returns the
// relative path recorded on the follow-up answer row.
type Store interface {
	Save(ctx context.Context, filename string, content io.Reader) (string, error)
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// SanitizeFilename strips any path components from a client-supplied filename
// and replaces characters outside [a-zA-Z0-9._-] with underscores.
func SanitizeFilename(name string) (string, error) {
	name = filepath.Base(strings.TrimSpace(name))
	name = unsafeChars.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "" {
		return "", ErrEmptyFilename
	}
	return name, nil
}

// DiskStore writes uploads under a fixed directory.
type DiskStore struct {
	dir string
}

func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir %s: %w", dir, err)
	}
	return &DiskStore{dir: dir}, nil
}

// Save writes the content to disk under the sanitized filename and returns
// the path relative to the uploads directory's parent, e.g. "uploads/img.png".
func (s *DiskStore) Save(_ context.Context, filename string, content io.Reader) (string, error) {
	safe, err := SanitizeFilename(filename)
	if err != nil {
		return "", err
	}

	dst := filepath.Join(s.dir, safe)
	f, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, content); err != nil {
		os.Remove(dst)
		return "", fmt.Errorf("write upload file: %w", err)
	}

	return filepath.Join(filepath.Base(s.dir), safe), nil
}
