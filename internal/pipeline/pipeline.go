// Package pipeline drives one email through artifact resolution, publishing,
// extraction, and persistence, with per-candidate fault isolation.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"lazy-receipt-go/internal/mail"
	"lazy-receipt-go/internal/metrics"
	"lazy-receipt-go/internal/model"
	"lazy-receipt-go/internal/resolver"
	"lazy-receipt-go/internal/storage"
)

// Recognizer obtains recognized text for a published artifact.
type Recognizer interface {
	Recognize(ctx context.Context, storageKey string) (string, error)
}

// FieldExtractor turns recognized text into structured invoice fields.
type FieldExtractor interface {
	Extract(ctx context.Context, ocrText string) (*model.ExtractedFields, error)
}

// ArtifactPublisher persists one candidate document.
type ArtifactPublisher interface {
	Publish(ctx context.Context, userID string, cand model.Candidate) (*model.PublishedArtifact, error)
}

// CandidateResolver discovers the billable documents inside one email.
type CandidateResolver interface {
	Resolve(ctx context.Context, email *model.NormalizedEmail) (resolver.Strategy, []resolver.Outcome, error)
}

// RecordStore persists the linked record pair and the batch summary.
type RecordStore interface {
	InsertPair(ctx context.Context, receipt *model.ReceiptItem, prov *model.EmlInfo) error
	SaveUploadResult(ctx context.Context, userID, summary string) error
}

// Result is the always-returned status of one run. Partial failure is a
// normal result, not an error.
type Result struct {
	UserID    string   `json:"user_id"`
	Strategy  string   `json:"strategy"`
	Total     int      `json:"total"`
	Successes []string `json:"successes"`
	Failures  []string `json:"failures"`
	Summary   string   `json:"summary"`
}

// Pipeline orchestrates one email end to end. Candidates are processed
// sequentially; many pipeline runs may be in flight across requests.
type Pipeline struct {
	objects   storage.ObjectStore
	resolver  CandidateResolver
	publisher ArtifactPublisher
	ocr       Recognizer
	extractor FieldExtractor
	records   RecordStore
	metrics   *metrics.Metrics

	emailTimeout     time.Duration
	candidateTimeout time.Duration
	now              func() time.Time
}

// New creates a pipeline.
func New(objects storage.ObjectStore, res CandidateResolver, pub ArtifactPublisher,
	ocr Recognizer, ext FieldExtractor, records RecordStore, m *metrics.Metrics,
	emailTimeout, candidateTimeout time.Duration) *Pipeline {
	return &Pipeline{
		objects:          objects,
		resolver:         res,
		publisher:        pub,
		ocr:              ocr,
		extractor:        ext,
		records:          records,
		metrics:          m,
		emailTimeout:     emailTimeout,
		candidateTimeout: candidateTimeout,
		now:              time.Now,
	}
}

// Process loads one raw email from (bucket, key), resolves its candidates,
// and runs each through publish, extraction, and persistence. Failures
// before any candidates exist are fatal; per-candidate failures are caught
// and accumulated into the summary.
func (p *Pipeline) Process(ctx context.Context, bucket, key, userID string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, p.emailTimeout)
	defer cancel()

	start := p.now()
	logrus.Infof("Starting processing for bucket=%s, key=%s", bucket, key)

	raw, err := p.objects.Get(ctx, bucket, key)
	if err != nil {
		return nil, fmt.Errorf("failed to load email: %w", err)
	}

	email, err := mail.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode email: %w", err)
	}

	userID = resolveUserID(userID, email)

	strategy, outcomes, err := p.resolver.Resolve(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve candidates: %w", err)
	}
	logrus.Infof("Strategy %q produced %d candidates for user %s", strategy, len(outcomes), userID)

	successes := []string{}
	failures := []string{}
	sourceLocator := bucket + "/" + key

	for _, outcome := range outcomes {
		name := outcome.Name()
		if err := p.processCandidate(ctx, userID, email, outcome, sourceLocator); err != nil {
			logrus.Errorf("Failed to process candidate %s: %v", name, err)
			failures = append(failures, fmt.Sprintf("%s - Error: %s", name, err.Error()))
			p.metrics.CandidateFailures.Inc()
			continue
		}
		successes = append(successes, name)
		p.metrics.CandidateSuccesses.Inc()
	}

	summary := fmt.Sprintf("You uploaded a total of %d files: %d succeeded--%v, %d failed--%v.",
		len(successes)+len(failures), len(successes), successes, len(failures), failures)

	if err := p.records.SaveUploadResult(ctx, userID, summary); err != nil {
		logrus.Errorf("Failed to insert upload result status: %v", err)
	}

	p.metrics.EmailsProcessed.Inc()
	p.metrics.ProcessingTime.Observe(p.now().Sub(start).Seconds())
	logrus.Infof("Processing finished. %s", summary)

	return &Result{
		UserID:    userID,
		Strategy:  string(strategy),
		Total:     len(outcomes),
		Successes: successes,
		Failures:  failures,
		Summary:   summary,
	}, nil
}

// processCandidate runs one candidate through publish, OCR, extraction, and
// the paired insert, bounded by the per-candidate deadline.
func (p *Pipeline) processCandidate(ctx context.Context, userID string, email *model.NormalizedEmail, outcome resolver.Outcome, sourceLocator string) error {
	if outcome.Err != nil {
		return outcome.Err
	}

	ctx, cancel := context.WithTimeout(ctx, p.candidateTimeout)
	defer cancel()

	artifact, err := p.publisher.Publish(ctx, userID, outcome.Candidate)
	if err != nil {
		return err
	}

	ocrText, err := p.ocr.Recognize(ctx, artifact.StorageKey)
	if err != nil {
		return err
	}

	fields, err := p.extractor.Extract(ctx, ocrText)
	if err != nil {
		return err
	}

	receipt, prov := buildRecords(userID, email, artifact, fields, ocrText, sourceLocator, p.now().UTC())
	return p.records.InsertPair(ctx, receipt, prov)
}

// buildRecords derives the fingerprint, assigns one shared record id, and
// builds the linked pair. Only the durable storage key is persisted.
func buildRecords(userID string, email *model.NormalizedEmail, artifact *model.PublishedArtifact,
	fields *model.ExtractedFields, ocrText, sourceLocator string, now time.Time) (*model.ReceiptItem, *model.EmlInfo) {
	recordID := uuid.NewString()

	receipt := &model.ReceiptItem{
		ID:            recordID,
		UserID:        userID,
		FileURL:       artifact.StorageKey,
		OriginalInfo:  email.Body,
		OCR:           ocrText,
		InvoiceNumber: fields.InvoiceNumber,
		InvoiceDate:   fields.InvoiceDate,
		Buyer:         fields.Buyer,
		Seller:        fields.Seller,
		InvoiceTotal:  fields.InvoiceTotal,
		Currency:      fields.Currency,
		Category:      fields.Category,
		Address:       fields.Address,
		HashID:        model.Fingerprint(userID, *fields),
		CreateTime:    now,
	}

	prov := &model.EmlInfo{
		ID:          recordID,
		UserID:      userID,
		FromEmail:   email.FromEmail,
		ToEmail:     email.ToEmail,
		S3EmlURL:    sourceLocator,
		Buyer:       fields.Buyer,
		Seller:      fields.Seller,
		InvoiceDate: fields.InvoiceDate,
		CreateTime:  now,
	}
	return receipt, prov
}

// resolveUserID falls back to the recipient's mailbox local part when the
// event carried no user id.
func resolveUserID(userID string, email *model.NormalizedEmail) string {
	if userID != "" && userID != "unknown" {
		return userID
	}
	if at := strings.Index(email.ToEmail, "@"); at > 0 {
		return email.ToEmail[:at]
	}
	return "unknown"
}
