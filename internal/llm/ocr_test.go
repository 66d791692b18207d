package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lazy-receipt-go/internal/config"
)

// memoryStore serves artifact bytes from a map.
type memoryStore struct {
	objects map[string][]byte
}

func (m *memoryStore) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	return m.objects[key], nil
}

func (m *memoryStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	m.objects[key] = data
	return nil
}

func (m *memoryStore) Download(ctx context.Context, key string) ([]byte, error) {
	return m.objects[key], nil
}

func (m *memoryStore) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return "https://signed.example/" + key, nil
}

func ocrConfig(url string) config.LLMConfig {
	return config.LLMConfig{
		OCRURL:         url,
		OCRAPIKey:      "test-key",
		OCRModel:       "primary-model",
		OCRModelFree:   "free-model",
		RequestTimeout: 5 * time.Second,
	}
}

func TestRecognizeFallsBackToPrimaryModel(t *testing.T) {
	var models []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		models = append(models, req.Model)
		if req.Model == "free-model" {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "recognized text"}},
			},
		})
	}))
	defer srv.Close()

	store := &memoryStore{objects: map[string][]byte{
		"users/u1/2025-06-23/x_invoice.pdf": []byte("%PDF-1.4"),
	}}
	engine := NewOCREngine(ocrConfig(srv.URL), store)

	text, err := engine.Recognize(context.Background(), "users/u1/2025-06-23/x_invoice.pdf")
	require.NoError(t, err)
	assert.Equal(t, "recognized text", text)
	assert.Equal(t, []string{"free-model", "primary-model"}, models)
}

func TestRecognizeFailsWhenAllTiersExhausted(t *testing.T) {
	var attempts int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	store := &memoryStore{objects: map[string][]byte{"scan.png": []byte("png-bytes")}}
	engine := NewOCREngine(ocrConfig(srv.URL), store)

	_, err := engine.Recognize(context.Background(), "scan.png")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOCR)
	assert.Equal(t, 2, attempts, "exactly one retry against the primary model")
}

func TestRecognizeBuildsPDFRequest(t *testing.T) {
	var gotReq chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "ok"}},
			},
		})
	}))
	defer srv.Close()

	store := &memoryStore{objects: map[string][]byte{"a.pdf": []byte("%PDF")}}
	engine := NewOCREngine(ocrConfig(srv.URL), store)

	_, err := engine.Recognize(context.Background(), "a.pdf")
	require.NoError(t, err)

	require.Len(t, gotReq.Plugins, 1)
	assert.Equal(t, "file-parser", gotReq.Plugins[0].ID)
	require.NotNil(t, gotReq.Plugins[0].PDF)
	assert.Equal(t, "pdf-text", gotReq.Plugins[0].PDF.Engine)
}

func TestRecognizeImageHasNoPlugins(t *testing.T) {
	var gotReq chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "ok"}},
			},
		})
	}))
	defer srv.Close()

	store := &memoryStore{objects: map[string][]byte{"scan.png": []byte("png")}}
	engine := NewOCREngine(ocrConfig(srv.URL), store)

	_, err := engine.Recognize(context.Background(), "scan.png")
	require.NoError(t, err)
	assert.Empty(t, gotReq.Plugins)
}
