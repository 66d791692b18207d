// Package store owns the linked receipt/provenance pair: insertion, partial
// update, decrypted reads, and lockstep deletes.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"lazy-receipt-go/internal/fieldcrypt"
	"lazy-receipt-go/internal/model"
)

// ErrPersistence reports a database write/update/delete failure.
var ErrPersistence = fmt.Errorf("persistence failed")

// Update statuses. A zero-match update is a condition, not an error.
const (
	UpdateStatusUpdated = "updated"
	UpdateStatusNoMatch = "no_match"
	UpdateStatusNoData  = "no_data_to_update"
)

// sentinelValue is the placeholder API explorers send for untouched string
// fields; it is treated the same as an omitted field.
const sentinelValue = "string"

// URLSigner mints fresh time-limited retrieval URLs for stored durable keys.
type URLSigner interface {
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// Store persists receipt and provenance rows with field-level protection.
type Store struct {
	db     *gorm.DB
	cipher *fieldcrypt.Cipher
	signer URLSigner
	ttl    time.Duration
}

// New creates a store.
func New(db *gorm.DB, cipher *fieldcrypt.Cipher, signer URLSigner, signedURLTTL time.Duration) *Store {
	return &Store{db: db, cipher: cipher, signer: signer, ttl: signedURLTTL}
}

// InsertPair protects and inserts a receipt row and its provenance row.
// Both must succeed for the candidate to count as a success; a partial
// insert is an accepted residual inconsistency and surfaces only in logs.
func (s *Store) InsertPair(ctx context.Context, receipt *model.ReceiptItem, prov *model.EmlInfo) error {
	if err := s.cipher.ProtectReceipt(receipt); err != nil {
		return fmt.Errorf("%w: protecting receipt: %v", ErrPersistence, err)
	}
	if err := s.cipher.ProtectProvenance(prov); err != nil {
		return fmt.Errorf("%w: protecting provenance: %v", ErrPersistence, err)
	}

	if err := s.db.WithContext(ctx).Create(receipt).Error; err != nil {
		return fmt.Errorf("%w: inserting receipt %s: %v", ErrPersistence, receipt.ID, err)
	}
	if err := s.db.WithContext(ctx).Create(prov).Error; err != nil {
		logrus.Errorf("Receipt %s inserted but provenance insert failed: %v", receipt.ID, err)
		return fmt.Errorf("%w: inserting provenance %s: %v", ErrPersistence, prov.ID, err)
	}
	return nil
}

// UpdateRequest carries the updatable receipt fields. Nil, empty, and
// sentinel values are ignored.
type UpdateRequest struct {
	InvoiceNumber *string  `json:"invoice_number"`
	InvoiceDate   *string  `json:"invoice_date"`
	Buyer         *string  `json:"buyer"`
	Seller        *string  `json:"seller"`
	InvoiceTotal  *float64 `json:"invoice_total"`
	Currency      *string  `json:"currency"`
	Category      *string  `json:"category"`
	Address       *string  `json:"address"`
}

// columns returns the effective change set, column-keyed.
func (r UpdateRequest) columns() map[string]interface{} {
	cols := make(map[string]interface{})
	put := func(name string, v *string) {
		if v != nil && *v != "" && *v != sentinelValue {
			cols[name] = *v
		}
	}
	put("invoice_number", r.InvoiceNumber)
	put("invoice_date", r.InvoiceDate)
	put("buyer", r.Buyer)
	put("seller", r.Seller)
	put("currency", r.Currency)
	put("category", r.Category)
	put("address", r.Address)
	if r.InvoiceTotal != nil {
		cols["invoice_total"] = *r.InvoiceTotal
	}
	return cols
}

// Update applies a partial field set to one receipt row, keyed by
// (id, user_id). Changed sensitive fields are protected before the write.
func (s *Store) Update(ctx context.Context, id, userID string, req UpdateRequest) (string, error) {
	cols := req.columns()
	if len(cols) == 0 {
		logrus.Infof("Update for receipt %s carried no effective fields", id)
		return UpdateStatusNoData, nil
	}

	protected, err := s.cipher.Protect(fieldcrypt.TableReceipts, cols)
	if err != nil {
		return "", fmt.Errorf("%w: protecting update fields: %v", ErrPersistence, err)
	}

	res := s.db.WithContext(ctx).Model(&model.ReceiptItem{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(protected)
	if res.Error != nil {
		return "", fmt.Errorf("%w: updating receipt %s: %v", ErrPersistence, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return UpdateStatusNoMatch, nil
	}
	return UpdateStatusUpdated, nil
}

// List returns a user's receipts, newest first, decrypted, with durable
// storage keys exchanged for fresh time-limited URLs. When id is non-empty
// only that row is returned.
func (s *Store) List(ctx context.Context, userID, id string, page, limit int) ([]model.ReceiptItem, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	filter := func() *gorm.DB {
		q := s.db.WithContext(ctx).Model(&model.ReceiptItem{}).Where("user_id = ?", userID)
		if id != "" {
			q = q.Where("id = ?", id)
		}
		return q
	}

	var total int64
	if err := filter().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("%w: counting receipts: %v", ErrPersistence, err)
	}

	var items []model.ReceiptItem
	err := filter().Order("create_time DESC").Offset((page - 1) * limit).Limit(limit).Find(&items).Error
	if err != nil {
		return nil, 0, fmt.Errorf("%w: fetching receipts: %v", ErrPersistence, err)
	}

	for i := range items {
		if err := s.cipher.UnprotectReceipt(&items[i]); err != nil {
			return nil, 0, fmt.Errorf("%w: unprotecting receipt %s: %v", ErrPersistence, items[i].ID, err)
		}
		if items[i].FileURL != "" {
			signed, err := s.signer.SignedURL(ctx, items[i].FileURL, s.ttl)
			if err != nil {
				logrus.Errorf("Failed to sign URL for receipt %s: %v", items[i].ID, err)
				continue
			}
			items[i].FileURL = signed
		}
	}
	return items, total, nil
}

// DeleteResult reports the outcome of a paired delete.
type DeleteResult struct {
	ReceiptRowsDeleted    int64    `json:"receipt_rows_deleted"`
	ProvenanceRowsDeleted int64    `json:"provenance_rows_deleted"`
	Unmatched             []string `json:"unmatched"`
}

// Delete removes receipts by their public identifiers (dedup fingerprints),
// resolving them to shared record ids and deleting from both tables keyed by
// that id set. A receipt row is never deleted without its provenance row
// being attempted.
func (s *Store) Delete(ctx context.Context, userID string, hashIDs []string) (*DeleteResult, error) {
	var matched []model.ReceiptItem
	err := s.db.WithContext(ctx).
		Select("id", "hash_id").
		Where("user_id = ? AND hash_id IN ?", userID, hashIDs).
		Find(&matched).Error
	if err != nil {
		return nil, fmt.Errorf("%w: resolving identifiers: %v", ErrPersistence, err)
	}

	matchedHashes := make(map[string]bool, len(matched))
	ids := make([]string, 0, len(matched))
	for _, m := range matched {
		matchedHashes[m.HashID] = true
		ids = append(ids, m.ID)
	}

	result := &DeleteResult{Unmatched: []string{}}
	for _, h := range hashIDs {
		if !matchedHashes[h] {
			result.Unmatched = append(result.Unmatched, h)
		}
	}
	if len(ids) == 0 {
		return result, nil
	}

	res := s.db.WithContext(ctx).Where("id IN ?", ids).Delete(&model.ReceiptItem{})
	if res.Error != nil {
		return nil, fmt.Errorf("%w: deleting receipts: %v", ErrPersistence, res.Error)
	}
	result.ReceiptRowsDeleted = res.RowsAffected

	res = s.db.WithContext(ctx).Where("id IN ?", ids).Delete(&model.EmlInfo{})
	if res.Error != nil {
		logrus.Errorf("Receipt rows deleted but provenance delete failed for %v: %v", ids, res.Error)
		return nil, fmt.Errorf("%w: deleting provenance: %v", ErrPersistence, res.Error)
	}
	result.ProvenanceRowsDeleted = res.RowsAffected

	return result, nil
}

// SaveUploadResult appends one batch summary row.
func (s *Store) SaveUploadResult(ctx context.Context, userID, summary string) error {
	row := &model.UploadResult{
		UploadResult: summary,
		UserID:       userID,
		CreateTime:   time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("%w: inserting upload result: %v", ErrPersistence, err)
	}
	return nil
}
