// Package fieldcrypt applies field-level encryption to the sensitive columns
// of persisted records. The table-to-field allowlist is a typed registry
// resolved at init; tables outside the registry pass through untouched.
package fieldcrypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"

	"lazy-receipt-go/internal/model"
)

// Table identifies a persisted table for allowlist lookup.
type Table string

const (
	TableReceipts   Table = "receipt_items_en"
	TableProvenance Table = "ses_eml_info_en"
)

// sensitiveFields maps each protected table to its encrypted columns.
var sensitiveFields = map[Table][]string{
	TableReceipts:   {"buyer", "seller", "address", "file_url", "invoice_number", "original_info", "ocr"},
	TableProvenance: {"from", "to", "s3_eml_url", "buyer", "seller"},
}

// receiptFields and provenanceFields bind allowlisted columns to struct
// fields, so the struct paths never dispatch on column names at runtime.
var receiptFields = []func(*model.ReceiptItem) *string{
	func(r *model.ReceiptItem) *string { return &r.Buyer },
	func(r *model.ReceiptItem) *string { return &r.Seller },
	func(r *model.ReceiptItem) *string { return &r.Address },
	func(r *model.ReceiptItem) *string { return &r.FileURL },
	func(r *model.ReceiptItem) *string { return &r.InvoiceNumber },
	func(r *model.ReceiptItem) *string { return &r.OriginalInfo },
	func(r *model.ReceiptItem) *string { return &r.OCR },
}

var provenanceFields = []func(*model.EmlInfo) *string{
	func(p *model.EmlInfo) *string { return &p.FromEmail },
	func(p *model.EmlInfo) *string { return &p.ToEmail },
	func(p *model.EmlInfo) *string { return &p.S3EmlURL },
	func(p *model.EmlInfo) *string { return &p.Buyer },
	func(p *model.EmlInfo) *string { return &p.Seller },
}

// Cipher encrypts and decrypts individual field values. The key is
// process-wide and read-only after initialization.
type Cipher struct {
	aead cipher.AEAD
}

// New builds a cipher from a 32-byte key, given raw or base64-encoded.
func New(rawKey string) (*Cipher, error) {
	key, err := decodeKey(rawKey)
	if err != nil {
		return nil, fmt.Errorf("invalid encryption key: %w", err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return &Cipher{aead: aead}, nil
}

func decodeKey(raw string) ([]byte, error) {
	if len(raw) == 32 {
		return []byte(raw), nil
	}
	key, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, err
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("invalid key length %d, want 32", len(key))
	}
	return key, nil
}

// EncryptValue encrypts one value. Empty values pass through unchanged.
func (c *Cipher) EncryptValue(value string) (string, error) {
	if value == "" {
		return value, nil
	}
	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := c.aead.Seal(nonce, nonce, []byte(value), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// DecryptValue decrypts one value. Empty values pass through unchanged.
func (c *Cipher) DecryptValue(value string) (string, error) {
	if value == "" {
		return value, nil
	}
	raw, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return "", fmt.Errorf("invalid ciphertext encoding: %w", err)
	}
	if len(raw) < c.aead.NonceSize() {
		return "", fmt.Errorf("ciphertext shorter than nonce")
	}
	nonce, sealed := raw[:c.aead.NonceSize()], raw[c.aead.NonceSize():]
	plain, err := c.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt value: %w", err)
	}
	return string(plain), nil
}

// ProtectReceipt encrypts the sensitive fields of a receipt row in place.
func (c *Cipher) ProtectReceipt(r *model.ReceiptItem) error {
	for _, field := range receiptFields {
		if err := c.apply(field(r), c.EncryptValue); err != nil {
			return err
		}
	}
	return nil
}

// UnprotectReceipt decrypts the sensitive fields of a receipt row in place.
func (c *Cipher) UnprotectReceipt(r *model.ReceiptItem) error {
	for _, field := range receiptFields {
		if err := c.apply(field(r), c.DecryptValue); err != nil {
			return err
		}
	}
	return nil
}

// ProtectProvenance encrypts the sensitive fields of a provenance row in place.
func (c *Cipher) ProtectProvenance(p *model.EmlInfo) error {
	for _, field := range provenanceFields {
		if err := c.apply(field(p), c.EncryptValue); err != nil {
			return err
		}
	}
	return nil
}

// UnprotectProvenance decrypts the sensitive fields of a provenance row in place.
func (c *Cipher) UnprotectProvenance(p *model.EmlInfo) error {
	for _, field := range provenanceFields {
		if err := c.apply(field(p), c.DecryptValue); err != nil {
			return err
		}
	}
	return nil
}

func (c *Cipher) apply(field *string, fn func(string) (string, error)) error {
	out, err := fn(*field)
	if err != nil {
		return err
	}
	*field = out
	return nil
}

// Protect encrypts the allowlisted columns present in a column-keyed row.
// Tables absent from the registry are a no-op, as are empty values.
func (c *Cipher) Protect(table Table, row map[string]interface{}) (map[string]interface{}, error) {
	return c.applyRow(table, row, c.EncryptValue)
}

// Unprotect decrypts the allowlisted columns present in a column-keyed row.
func (c *Cipher) Unprotect(table Table, row map[string]interface{}) (map[string]interface{}, error) {
	return c.applyRow(table, row, c.DecryptValue)
}

func (c *Cipher) applyRow(table Table, row map[string]interface{}, fn func(string) (string, error)) (map[string]interface{}, error) {
	fields, ok := sensitiveFields[table]
	if !ok {
		return row, nil
	}

	out := make(map[string]interface{}, len(row))
	for k, v := range row {
		out[k] = v
	}
	for _, field := range fields {
		v, ok := out[field]
		if !ok {
			continue
		}
		s, ok := v.(string)
		if !ok || s == "" {
			continue
		}
		converted, err := fn(s)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", field, err)
		}
		out[field] = converted
	}
	return out, nil
}
