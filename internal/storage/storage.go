package storage

import (
	"fmt"
	"io"
	"log/slog"

	cfg "github.com/templui/spaces/internal/config"
)

// Storage defines the operations uploads rely on
type Storage interface {
	// Save stores the payload at path, replacing any existing object
	Save(path string, file io.Reader) error

	// Delete removes the object at path
	Delete(path string) error

	// Exists reports whether an object is stored at path
	Exists(path string) (bool, error)

	// URL returns the address the browser downloads path from
	URL(path string) string
}

// New builds the backend selected by STORAGE_BACKEND
func New(c *cfg.Config) (Storage, error) {
	switch c.StorageBackend {
	case cfg.StorageLocal:
		slog.Info("initializing local storage", "root", c.PrivateMediaRoot, "media_url", c.MediaURL)
		return NewLocalStorage(c.PrivateMediaRoot, c.MediaURL)
	case cfg.StorageS3:
		slog.Info("initializing S3 storage",
			"bucket", c.S3Bucket,
			"region", c.S3Region,
			"endpoint", c.S3Endpoint,
		)
		return NewS3Storage(S3Config{
			Region:        c.S3Region,
			Bucket:        c.S3Bucket,
			AccessKey:     c.S3AccessKey,
			SecretKey:     c.S3SecretKey,
			Endpoint:      c.S3Endpoint,
			PresignExpiry: c.S3PresignExpiryPrivate,
		})
	}
	return nil, fmt.Errorf("unknown storage backend %q", c.StorageBackend)
}
