package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"lazy-receipt-go/internal/config"
	"lazy-receipt-go/internal/model"
)

// ErrFieldExtraction reports a non-JSON or schema-violating model response.
var ErrFieldExtraction = fmt.Errorf("field extraction failed")

const extractSystemPrompt = "You are an AI assistant specialized in extracting structured data."

const extractPromptTemplate = `This is the raw text extracted from an invoice using OCR.
Please extract the following fields and output them as a JSON object, with strict type and format requirements:

- invoice_number: string
- invoice_date: string, must be in "YYYY-MM-DD" format (ISO 8601), e.g. "2025-06-23"
- buyer (purchaser): string
- seller (vendor): string
- invoice_total: number (do not include any currency symbols, commas, or quotes, just the numeric value, e.g. 1234.56)
- currency: string (e.g. "USD", "CNY")
- category: string
- address: string

Return only the JSON object, no extra explanation.

Example output:
{
  "invoice_number": "INV-20250623-001",
  "invoice_date": "2025-06-23",
  "buyer": "Acme Corp",
  "seller": "Widget Inc",
  "invoice_total": 1234.56,
  "currency": "USD",
  "category": "Office Supplies",
  "address": "123 Main St, Springfield"
}

Invoice text is as follows:
%s`

var (
	fenceOpen  = regexp.MustCompile("(?i)^```(?:json|python)?\n")
	fenceClose = regexp.MustCompile("\n```$")
)

// Extractor turns recognized text into structured invoice fields through a
// single designated model. No fallback tier exists at this stage.
type Extractor struct {
	client *chatClient
	model  string
}

// NewExtractor creates a field extractor for the configured model.
func NewExtractor(cfg config.LLMConfig) *Extractor {
	return &Extractor{
		client: newChatClient(cfg.ExtractURL, cfg.ExtractAPIKey, cfg.RequestTimeout),
		model:  cfg.ExtractModel,
	}
}

// Extract asks the model for the fixed field schema and parses its reply.
func (e *Extractor) Extract(ctx context.Context, ocrText string) (*model.ExtractedFields, error) {
	temperature := 0.3
	raw, err := e.client.complete(ctx, chatRequest{
		Model: e.model,
		Messages: []message{
			{Role: "system", Content: extractSystemPrompt},
			{Role: "user", Content: fmt.Sprintf(extractPromptTemplate, ocrText)},
		},
		Temperature: &temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFieldExtraction, err)
	}

	return ParseFields(raw)
}

// ParseFields strips a Markdown code fence if present and decodes the JSON
// object into the fixed field set. Unknown keys are dropped; a non-numeric
// invoice_total is rejected.
func ParseFields(raw string) (*model.ExtractedFields, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = fenceOpen.ReplaceAllString(cleaned, "")
	cleaned = fenceClose.ReplaceAllString(strings.TrimSpace(cleaned), "")

	var fields model.ExtractedFields
	if err := json.Unmarshal([]byte(cleaned), &fields); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFieldExtraction, err)
	}
	return &fields, nil
}
