package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"streetview-pano-service/internal/domain"
	"sync"
)

// LocalScreenshotStore writes screenshots below a root directory, one
// sub-directory per case.
type LocalScreenshotStore struct {
	root string

	// Serialises the count-then-write sequence so two uploads for the
	// same case never get the same index.
	mu sync.Mutex
}

func NewLocalScreenshotStore(root string) (*LocalScreenshotStore, error) {
	if root == "" {
		return nil, errors.New("local screenshot store: root directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("local screenshot store: create %q: %w", root, err)
	}
	return &LocalScreenshotStore{root: root}, nil
}

// Save writes the image and returns its path.
func (s *LocalScreenshotStore) Save(ctx context.Context, shot domain.Screenshot) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Join(s.root, shot.CaseID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("save screenshot: create %q: %w", dir, err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("save screenshot: list %q: %w", dir, err)
	}

	n := 0
	for _, e := range entries {
		if !e.IsDir() {
			n++
		}
	}

	dst := filepath.Join(s.root, filepath.FromSlash(objectKey(shot, n)))
	if err := os.WriteFile(dst, shot.Image, 0o644); err != nil {
		return "", fmt.Errorf("save screenshot: write %q: %w", dst, err)
	}

	return dst, nil
}
