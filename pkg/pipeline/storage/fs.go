package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FSStore keeps objects as files under root/<bucket>/<key>
type FSStore struct {
	root string
}

// NewFSStore creates a filesystem object store rooted at root
func NewFSStore(root string) *FSStore {
	return &FSStore{root: root}
}

// PutObject writes body to the file for bucket/key, replacing it if present
func (s *FSStore) PutObject(ctx context.Context, bucket, key string, body []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := s.path(bucket, key)
	if err != nil {
		return err
	}

	// Create directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, body, 0644)
}

// GetObject reads the file for bucket/key
func (s *FSStore) GetObject(ctx context.Context, bucket, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.path(bucket, key)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

// path maps bucket/key onto the filesystem, refusing keys that escape root
func (s *FSStore) path(bucket, key string) (string, error) {
	if bucket == "" || key == "" {
		return "", fmt.Errorf("bucket and key are required")
	}
	base := filepath.Join(s.root, filepath.FromSlash(bucket))
	path := filepath.Join(base, filepath.FromSlash(key))
	if path != base && !strings.HasPrefix(path, base+string(filepath.Separator)) {
		return "", fmt.Errorf("key %q escapes bucket %q", key, bucket)
	}
	return path, nil
}
