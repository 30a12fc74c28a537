package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore writes images under a directory the router serves at /uploads.
type LocalStore struct {
	dir     string
	baseURL string
}

func NewLocalStore(dir, baseURL string) *LocalStore {
	return &LocalStore{dir: dir, baseURL: strings.TrimSuffix(baseURL, "/")}
}

func (s *LocalStore) Save(_ context.Context, r io.Reader) (string, error) {
	img, err := readImage(r)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, img.filename), img.data, 0o644); err != nil {
		return "", fmt.Errorf("failed to save image: %w", err)
	}

	return fmt.Sprintf("%s/uploads/%s", s.baseURL, img.filename), nil
}
