// Package storage provides the object-store capability the pipeline consumes:
// read the raw email, write artifacts, and mint time-limited retrieval URLs.
package storage

import (
	"context"
	"time"
)

// ObjectStore abstracts the blob backend so tests can substitute fakes.
type ObjectStore interface {
	// Get reads an object from an arbitrary bucket.
	Get(ctx context.Context, bucket, key string) ([]byte, error)
	// Put writes an object into the artifact bucket.
	Put(ctx context.Context, key string, data []byte, contentType string) error
	// Download reads an object back from the artifact bucket.
	Download(ctx context.Context, key string) ([]byte, error)
	// SignedURL returns a time-limited retrieval URL for an artifact key.
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}
