package llm

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"lazy-receipt-go/internal/config"
	"lazy-receipt-go/internal/storage"
)

// ErrOCR reports that every model tier failed for a document.
var ErrOCR = fmt.Errorf("ocr failed")

const (
	imagePrompt = "What's in this image?"
	pdfPrompt   = "What are the main points in this document?"
)

// OCREngine recognizes text in published artifacts. Models are tried in
// order; adding a tier is a data change, not a control-flow change.
type OCREngine struct {
	client *chatClient
	store  storage.ObjectStore
	models []string
}

// NewOCREngine builds an engine trying the free tier first, then the primary
// model.
func NewOCREngine(cfg config.LLMConfig, store storage.ObjectStore) *OCREngine {
	return &OCREngine{
		client: newChatClient(cfg.OCRURL, cfg.OCRAPIKey, cfg.RequestTimeout),
		store:  store,
		models: []string{cfg.OCRModelFree, cfg.OCRModel},
	}
}

// Recognize downloads the artifact by its durable key and returns the
// recognized free text. The media kind is detected by file extension.
func (e *OCREngine) Recognize(ctx context.Context, storageKey string) (string, error) {
	data, err := e.store.Download(ctx, storageKey)
	if err != nil {
		return "", fmt.Errorf("%w: downloading %s: %v", ErrOCR, storageKey, err)
	}

	var msgs []message
	if strings.HasSuffix(strings.ToLower(storageKey), ".pdf") {
		msgs = pdfMessages(data)
	} else {
		msgs = imageMessages(storageKey, data)
	}

	req := chatRequest{Messages: msgs}
	if strings.HasSuffix(strings.ToLower(storageKey), ".pdf") {
		req.Plugins = []plugin{{ID: "file-parser", PDF: &pdfEngine{Engine: "pdf-text"}}}
	}

	var lastErr error
	for _, m := range e.models {
		logrus.Infof("Trying OCR with model %s for %s", m, storageKey)
		req.Model = m
		text, err := e.client.complete(ctx, req)
		if err == nil {
			return text, nil
		}
		logrus.Warnf("OCR model %s failed for %s: %v", m, storageKey, err)
		lastErr = err
	}
	return "", fmt.Errorf("%w: all model tiers exhausted: %v", ErrOCR, lastErr)
}

func pdfMessages(data []byte) []message {
	dataURL := "data:application/pdf;base64," + base64.StdEncoding.EncodeToString(data)
	return []message{{
		Role: "user",
		Content: []contentPart{
			{Type: "text", Text: pdfPrompt},
			{Type: "file", File: &fileData{Filename: "invoice.pdf", FileData: dataURL}},
		},
	}}
}

func imageMessages(storageKey string, data []byte) []message {
	contentType := "image/jpeg"
	if strings.HasSuffix(strings.ToLower(storageKey), ".png") {
		contentType = "image/png"
	}
	dataURL := fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(data))
	return []message{{
		Role: "user",
		Content: []contentPart{
			{Type: "text", Text: imagePrompt},
			{Type: "image_url", ImageURL: &imageURL{URL: dataURL}},
		},
	}}
}
