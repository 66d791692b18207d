// Package publish persists candidate documents to durable storage under a
// per-user, per-date path and hands back the durable key plus a time-limited
// retrieval URL for OCR consumption.
package publish

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"lazy-receipt-go/internal/model"
	"lazy-receipt-go/internal/naming"
	"lazy-receipt-go/internal/storage"
)

// ErrPublish reports a durable storage write failure. Retry policy belongs
// to the caller, not here.
var ErrPublish = fmt.Errorf("publish failed")

// Publisher writes candidates to the object store.
type Publisher struct {
	store storage.ObjectStore
	ttl   time.Duration
	now   func() time.Time
}

// NewPublisher creates a publisher minting signed URLs with the given TTL.
func NewPublisher(store storage.ObjectStore, signedURLTTL time.Duration) *Publisher {
	return &Publisher{store: store, ttl: signedURLTTL, now: time.Now}
}

// Publish uploads one candidate and returns its artifact. The storage key
// follows users/{user}/{utc-date}/{utc-timestamp}_{sanitized-name}.
func (p *Publisher) Publish(ctx context.Context, userID string, cand model.Candidate) (*model.PublishedArtifact, error) {
	now := p.now().UTC()
	safeName := naming.SafeStorageName(cand.Name)
	key := fmt.Sprintf("users/%s/%s/%s_%s",
		userID,
		now.Format("2006-01-02"),
		now.Format("2006-01-02T15:04:05.000000"),
		safeName,
	)

	contentType := cand.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	logrus.Infof("Uploading %s to storage at %s", cand.Name, key)
	if err := p.store.Put(ctx, key, cand.Binary, contentType); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPublish, err)
	}

	signedURL, err := p.store.SignedURL(ctx, key, p.ttl)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPublish, err)
	}

	return &model.PublishedArtifact{
		DisplayName: cand.Name,
		SignedURL:   signedURL,
		StorageKey:  key,
	}, nil
}
