package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"lazy-receipt-go/internal/fieldcrypt"
	"lazy-receipt-go/internal/model"
)

const testKey = "0123456789abcdef0123456789abcdef"

// fakeSigner mints predictable signed URLs.
type fakeSigner struct{}

func (fakeSigner) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return "https://signed.example/" + key, nil
}

func newTestStore(t *testing.T) *Store {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.ReceiptItem{}, &model.EmlInfo{}, &model.UploadResult{}))

	cipher, err := fieldcrypt.New(testKey)
	require.NoError(t, err)

	return New(db, cipher, fakeSigner{}, 24*time.Hour)
}

func seedPair(t *testing.T, s *Store, id, userID, seller, hashID string) {
	receipt := &model.ReceiptItem{
		ID:           id,
		UserID:       userID,
		FileURL:      fmt.Sprintf("users/%s/2025-06-23/%s.pdf", userID, id),
		Seller:       seller,
		Buyer:        "B",
		InvoiceTotal: 100.0,
		HashID:       hashID,
		CreateTime:   time.Now().UTC(),
	}
	prov := &model.EmlInfo{
		ID:        id,
		UserID:    userID,
		FromEmail: "sender@example.com",
		ToEmail:   userID + "@inbox.example.com",
		S3EmlURL:  "bucket/key",
		Seller:    seller,
	}
	require.NoError(t, s.InsertPair(context.Background(), receipt, prov))
}

func TestInsertPairEncryptsAtRest(t *testing.T) {
	s := newTestStore(t)
	seedPair(t, s, "id-1", "u1", "Acme", "hash-1")

	var raw model.ReceiptItem
	require.NoError(t, s.db.First(&raw, "id = ?", "id-1").Error)
	assert.NotEqual(t, "Acme", raw.Seller, "seller must be ciphertext at rest")
	assert.Equal(t, "hash-1", raw.HashID, "hash_id is not encrypted")

	var prov model.EmlInfo
	require.NoError(t, s.db.First(&prov, "id = ?", "id-1").Error)
	assert.NotEqual(t, "sender@example.com", prov.FromEmail)
}

func TestListDecryptsAndSignsURLs(t *testing.T) {
	s := newTestStore(t)
	seedPair(t, s, "id-1", "u1", "Acme", "hash-1")

	items, total, err := s.List(context.Background(), "u1", "", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, "Acme", items[0].Seller)
	assert.Equal(t, "https://signed.example/users/u1/2025-06-23/id-1.pdf", items[0].FileURL)
}

func TestListPaginatesNewestFirst(t *testing.T) {
	s := newTestStore(t)
	for i := 0; i < 15; i++ {
		receipt := &model.ReceiptItem{
			ID:         fmt.Sprintf("id-%02d", i),
			UserID:     "u1",
			Seller:     "Acme",
			HashID:     fmt.Sprintf("hash-%02d", i),
			CreateTime: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(i) * time.Hour),
		}
		prov := &model.EmlInfo{ID: receipt.ID, UserID: "u1"}
		require.NoError(t, s.InsertPair(context.Background(), receipt, prov))
	}

	items, total, err := s.List(context.Background(), "u1", "", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(15), total)
	require.Len(t, items, 10)
	assert.Equal(t, "id-14", items[0].ID, "newest row first")

	second, _, err := s.List(context.Background(), "u1", "", 2, 10)
	require.NoError(t, err)
	assert.Len(t, second, 5)
}

func TestListByID(t *testing.T) {
	s := newTestStore(t)
	seedPair(t, s, "id-1", "u1", "Acme", "hash-1")
	seedPair(t, s, "id-2", "u1", "Other", "hash-2")

	items, total, err := s.List(context.Background(), "u1", "id-2", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, "Other", items[0].Seller)
}

func TestUpdateProtectsChangedFields(t *testing.T) {
	s := newTestStore(t)
	seedPair(t, s, "id-1", "u1", "Acme", "hash-1")

	seller := "New Seller"
	total := 250.5
	status, err := s.Update(context.Background(), "id-1", "u1", UpdateRequest{
		Seller:       &seller,
		InvoiceTotal: &total,
	})
	require.NoError(t, err)
	assert.Equal(t, UpdateStatusUpdated, status)

	var raw model.ReceiptItem
	require.NoError(t, s.db.First(&raw, "id = ?", "id-1").Error)
	assert.NotEqual(t, "New Seller", raw.Seller, "updated seller must be ciphertext at rest")
	assert.Equal(t, 250.5, raw.InvoiceTotal)

	items, _, err := s.List(context.Background(), "u1", "id-1", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, "New Seller", items[0].Seller)
}

func TestUpdateNoMatch(t *testing.T) {
	s := newTestStore(t)
	seedPair(t, s, "id-1", "u1", "Acme", "hash-1")

	seller := "X"
	status, err := s.Update(context.Background(), "id-1", "someone-else", UpdateRequest{Seller: &seller})
	require.NoError(t, err)
	assert.Equal(t, UpdateStatusNoMatch, status)
}

func TestUpdateEmptyEffectiveSet(t *testing.T) {
	s := newTestStore(t)
	seedPair(t, s, "id-1", "u1", "Acme", "hash-1")

	empty := ""
	sentinel := "string"
	status, err := s.Update(context.Background(), "id-1", "u1", UpdateRequest{
		Seller: &empty,
		Buyer:  &sentinel,
	})
	require.NoError(t, err)
	assert.Equal(t, UpdateStatusNoData, status)

	// row untouched
	items, _, err := s.List(context.Background(), "u1", "id-1", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, "Acme", items[0].Seller)
}

func TestDeletePairsWithUnmatchedReporting(t *testing.T) {
	s := newTestStore(t)
	seedPair(t, s, "id-1", "u1", "Acme", "hash-1")
	seedPair(t, s, "id-2", "u1", "Other", "hash-2")
	seedPair(t, s, "id-3", "u2", "Foreign", "hash-3")

	result, err := s.Delete(context.Background(), "u1", []string{"hash-1", "hash-2", "hash-404", "hash-3"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.ReceiptRowsDeleted)
	assert.Equal(t, int64(2), result.ProvenanceRowsDeleted)
	assert.ElementsMatch(t, []string{"hash-404", "hash-3"}, result.Unmatched,
		"another user's rows must not resolve")

	var receiptCount, provCount int64
	s.db.Model(&model.ReceiptItem{}).Count(&receiptCount)
	s.db.Model(&model.EmlInfo{}).Count(&provCount)
	assert.Equal(t, int64(1), receiptCount)
	assert.Equal(t, int64(1), provCount)
}

func TestDeleteNothingMatched(t *testing.T) {
	s := newTestStore(t)
	seedPair(t, s, "id-1", "u1", "Acme", "hash-1")

	result, err := s.Delete(context.Background(), "u1", []string{"nope"})
	require.NoError(t, err)
	assert.Zero(t, result.ReceiptRowsDeleted)
	assert.Zero(t, result.ProvenanceRowsDeleted)
	assert.Equal(t, []string{"nope"}, result.Unmatched)
}

func TestSaveUploadResult(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.SaveUploadResult(context.Background(), "u1", "summary text"))

	var row model.UploadResult
	require.NoError(t, s.db.First(&row).Error)
	assert.Equal(t, "summary text", row.UploadResult)
	assert.Equal(t, "u1", row.UserID)
}
