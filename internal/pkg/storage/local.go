package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// LocalRoute is where the HTTP app serves the local upload directory.
const LocalRoute = "/uploads"

// Local writes objects below a directory on disk.
type Local struct {
	dir     string
	baseURL string
}

func NewLocal(dir, baseURL string) *Local {
	return &Local{dir: dir, baseURL: baseURL}
}

func (l *Local) Name() string { return "local" }

// Dir returns the root directory objects are written to.
func (l *Local) Dir() string { return l.dir }

func (l *Local) Put(ctx context.Context, key string, payload []byte, contentType string) (string, error) {
	key = normalizeObjectKey(key)
	if !isSafeKey(key) {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path := filepath.Join(l.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return "", err
	}
	return l.baseURL + "/" + key, nil
}
