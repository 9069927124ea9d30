package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore writes images below a media directory served by the API itself.
type LocalStore struct {
	root    string
	baseURL string
}

// NewLocalStore creates a store rooted at root whose files are served at baseURL.
func NewLocalStore(root, baseURL string) *LocalStore {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &LocalStore{root: root, baseURL: baseURL}
}

// Root returns the media directory.
func (l *LocalStore) Root() string {
	return l.root
}

func (l *LocalStore) Save(_ context.Context, prefix string, img *Image) (string, error) {
	key := ObjectKey(prefix, img)
	path := filepath.Join(l.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create media directory: %w", err)
	}
	if err := os.WriteFile(path, img.Data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write image: %w", err)
	}
	return l.baseURL + key, nil
}

func (l *LocalStore) Delete(_ context.Context, url string) error {
	if !strings.HasPrefix(url, l.baseURL) {
		return nil
	}
	key := strings.TrimPrefix(url, l.baseURL)
	if strings.Contains(key, "..") {
		return nil
	}
	err := os.Remove(filepath.Join(l.root, filepath.FromSlash(key)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
