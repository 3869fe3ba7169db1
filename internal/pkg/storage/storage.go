// Package storage puts uploaded objects somewhere they can be served from
// and returns their public URL.
package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/mx-space/pagecraft/internal/config"
)

// Storage persists an object under key and returns the URL clients use to fetch it.
type Storage interface {
	Put(ctx context.Context, key string, payload []byte, contentType string) (string, error)
	Name() string
}

// New builds the backend selected by cfg.Storage.Driver.
func New(cfg *config.AppConfig) (Storage, error) {
	switch cfg.Storage.Driver {
	case config.StorageS3:
		return NewS3(cfg.Storage.S3)
	case config.StorageLocal, "":
		return NewLocal(cfg.UploadDir(), localBaseURL(cfg)), nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}
}

func localBaseURL(cfg *config.AppConfig) string {
	if base := strings.TrimRight(cfg.Upload.PublicBaseURL, "/"); base != "" {
		return base
	}
	return LocalRoute
}

func normalizeObjectKey(key string) string {
	key = strings.TrimSpace(strings.ReplaceAll(key, "\\", "/"))
	key = strings.TrimPrefix(key, "/")
	for strings.Contains(key, "//") {
		key = strings.ReplaceAll(key, "//", "/")
	}
	return key
}

func isSafeKey(key string) bool {
	if key == "" {
		return false
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return false
		}
	}
	return true
}
