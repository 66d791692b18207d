package fieldcrypt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lazy-receipt-go/internal/model"
)

const testKey = "0123456789abcdef0123456789abcdef"

func newTestCipher(t *testing.T) *Cipher {
	c, err := New(testKey)
	require.NoError(t, err)
	return c
}

func TestValueRoundTrip(t *testing.T) {
	c := newTestCipher(t)

	for _, plain := range []string{"Acme Corp", "123 Main St", "users/u1/2025-06-23/x.pdf", "1234.56"} {
		enc, err := c.EncryptValue(plain)
		require.NoError(t, err)
		assert.NotEqual(t, plain, enc)

		dec, err := c.DecryptValue(enc)
		require.NoError(t, err)
		assert.Equal(t, plain, dec)
	}
}

func TestEmptyValuePassesThrough(t *testing.T) {
	c := newTestCipher(t)

	enc, err := c.EncryptValue("")
	require.NoError(t, err)
	assert.Equal(t, "", enc)

	dec, err := c.DecryptValue("")
	require.NoError(t, err)
	assert.Equal(t, "", dec)
}

func TestReceiptRoundTrip(t *testing.T) {
	c := newTestCipher(t)

	original := model.ReceiptItem{
		ID:            "id-1",
		UserID:        "u1",
		FileURL:       "users/u1/2025-06-23/x.pdf",
		OriginalInfo:  "email body",
		OCR:           "ocr text",
		InvoiceNumber: "INV-1",
		Buyer:         "B",
		Seller:        "Acme",
		InvoiceTotal:  100.0,
		Address:       "X",
	}

	protected := original
	require.NoError(t, c.ProtectReceipt(&protected))
	assert.NotEqual(t, original.Buyer, protected.Buyer)
	assert.NotEqual(t, original.FileURL, protected.FileURL)
	// non-sensitive fields stay put
	assert.Equal(t, original.UserID, protected.UserID)
	assert.Equal(t, original.InvoiceTotal, protected.InvoiceTotal)

	require.NoError(t, c.UnprotectReceipt(&protected))
	assert.Equal(t, original, protected)
}

func TestProvenanceRoundTrip(t *testing.T) {
	c := newTestCipher(t)

	original := model.EmlInfo{
		ID:        "id-1",
		UserID:    "u1",
		FromEmail: "sender@example.com",
		ToEmail:   "u1@inbox.example.com",
		S3EmlURL:  "bucket/key",
		Buyer:     "B",
		Seller:    "Acme",
	}

	protected := original
	require.NoError(t, c.ProtectProvenance(&protected))
	assert.NotEqual(t, original.FromEmail, protected.FromEmail)

	require.NoError(t, c.UnprotectProvenance(&protected))
	assert.Equal(t, original, protected)
}

func TestProtectUnknownTableIsNoOp(t *testing.T) {
	c := newTestCipher(t)

	row := map[string]interface{}{"buyer": "Acme", "seller": "B"}
	out, err := c.Protect(Table("not_a_known_table"), row)
	require.NoError(t, err)
	assert.Equal(t, row, out)
}

func TestProtectRowEncryptsAllowlistedColumnsOnly(t *testing.T) {
	c := newTestCipher(t)

	row := map[string]interface{}{
		"buyer":         "Acme",
		"currency":      "USD",
		"invoice_total": 100.0,
		"address":       "",
	}
	out, err := c.Protect(TableReceipts, row)
	require.NoError(t, err)

	assert.NotEqual(t, "Acme", out["buyer"])
	assert.Equal(t, "USD", out["currency"])
	assert.Equal(t, 100.0, out["invoice_total"])
	assert.Equal(t, "", out["address"], "empty values are a no-op")

	back, err := c.Unprotect(TableReceipts, out)
	require.NoError(t, err)
	assert.Equal(t, "Acme", back["buyer"])
}

func TestRegistryMatchesModelColumns(t *testing.T) {
	// every allowlisted column must map onto a struct accessor
	assert.Len(t, receiptFields, len(sensitiveFields[TableReceipts]))
	assert.Len(t, provenanceFields, len(sensitiveFields[TableProvenance]))
}

func TestNewRejectsBadKeys(t *testing.T) {
	_, err := New("short")
	require.Error(t, err)

	_, err = New(strings.Repeat("x", 31))
	require.Error(t, err)
}
