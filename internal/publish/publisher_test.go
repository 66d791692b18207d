package publish

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lazy-receipt-go/internal/model"
)

type memoryStore struct {
	objects      map[string][]byte
	contentTypes map[string]string
	putErr       error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{objects: map[string][]byte{}, contentTypes: map[string]string{}}
}

func (m *memoryStore) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}

func (m *memoryStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if m.putErr != nil {
		return m.putErr
	}
	m.objects[key] = data
	m.contentTypes[key] = contentType
	return nil
}

func (m *memoryStore) Download(ctx context.Context, key string) ([]byte, error) {
	data, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("no such key %s", key)
	}
	return data, nil
}

func (m *memoryStore) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return "https://signed.example/" + key, nil
}

func TestPublishBuildsDatedKey(t *testing.T) {
	store := newMemoryStore()
	p := NewPublisher(store, time.Hour)
	p.now = func() time.Time {
		return time.Date(2025, 6, 23, 14, 30, 5, 123456000, time.UTC)
	}

	artifact, err := p.Publish(context.Background(), "jordan", model.Candidate{
		Name:        "invoice.pdf",
		ContentType: "application/pdf",
		Binary:      []byte("%PDF-1.4"),
	})
	require.NoError(t, err)

	wantKey := "users/jordan/2025-06-23/2025-06-23T14:30:05.123456_invoice.pdf"
	assert.Equal(t, wantKey, artifact.StorageKey)
	assert.Equal(t, "invoice.pdf", artifact.DisplayName)
	assert.Equal(t, "https://signed.example/"+wantKey, artifact.SignedURL)
	assert.Equal(t, []byte("%PDF-1.4"), store.objects[wantKey])
	assert.Equal(t, "application/pdf", store.contentTypes[wantKey])
}

func TestPublishSanitizesName(t *testing.T) {
	store := newMemoryStore()
	p := NewPublisher(store, time.Hour)
	p.now = func() time.Time {
		return time.Date(2025, 6, 23, 0, 0, 0, 0, time.UTC)
	}

	artifact, err := p.Publish(context.Background(), "u1", model.Candidate{
		Name:   "my receipt (1).pdf",
		Binary: []byte("data"),
	})
	require.NoError(t, err)
	assert.Contains(t, artifact.StorageKey, "my_receipt__1_.pdf")
	assert.NotContains(t, artifact.StorageKey, " ")
	assert.Equal(t, "my receipt (1).pdf", artifact.DisplayName, "display name keeps the original")
	assert.Equal(t, "application/octet-stream", store.contentTypes[artifact.StorageKey])
}

func TestPublishWriteFailure(t *testing.T) {
	store := newMemoryStore()
	store.putErr = fmt.Errorf("access denied")
	p := NewPublisher(store, time.Hour)

	_, err := p.Publish(context.Background(), "u1", model.Candidate{Name: "a.pdf"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPublish)
}
