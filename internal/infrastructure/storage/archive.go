// Package storage keeps generated documents in an object store.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrObjectNotFound is returned when a key does not exist
var ErrObjectNotFound = errors.New("storage: object not found")

// Archive stores generated reports and documents by key
type Archive interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	// DownloadURL returns a time limited URL for key
	DownloadURL(ctx context.Context, key string) (string, time.Time, error)
	Delete(ctx context.Context, key string) error
}

func validateKey(key string) error {
	if key == "" {
		return errors.New("storage key is required")
	}
	return nil
}
