// Package ports declares the outbound contracts of the render service.
package ports

import (
	"context"
	"io"
	"time"
)

type PutObjectInput struct {
	ObjectKey   string
	ContentType string
	Reader      io.Reader
	Size        int64
}

type PutObjectOutput struct {
	// On localfs this echoes the object key. On gdrive it is the real
	// file ID, needed for later reads and deletes.
	ObjectKey string
	Size      int64
}

type ShareURLOutput struct {
	URL       string
	ExpiresAt time.Time
}

// StorageProvider is the contract for publish targets (localfs, gdrive).
type StorageProvider interface {
	Provider() string

	PutObject(ctx context.Context, in PutObjectInput) (PutObjectOutput, error)
	GetObject(ctx context.Context, objectKey string) (rc io.ReadCloser, contentType string, size int64, err error)
	DeleteObject(ctx context.Context, objectKey string) error

	// GetShareURL returns a publicly reachable URL for the object, or an
	// empty URL when the provider cannot produce one.
	GetShareURL(ctx context.Context, objectKey string, expiresIn time.Duration) (ShareURLOutput, error)
}
