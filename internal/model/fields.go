package model

import (
	"crypto/md5"
	"encoding/hex"
	"strconv"
	"strings"
)

// ExtractedFields is the fixed set of invoice fields the extraction model is
// asked for. Unknown keys in the model response are dropped during decoding.
type ExtractedFields struct {
	InvoiceNumber string  `json:"invoice_number"`
	InvoiceDate   string  `json:"invoice_date"`
	Buyer         string  `json:"buyer"`
	Seller        string  `json:"seller"`
	InvoiceTotal  float64 `json:"invoice_total"`
	Currency      string  `json:"currency"`
	Category      string  `json:"category"`
	Address       string  `json:"address"`
}

// Fingerprint derives the dedup hash for a receipt. It is deterministic for
// identical inputs regardless of extraction retries.
func Fingerprint(userID string, f ExtractedFields) string {
	input := strings.Join([]string{
		userID,
		strconv.FormatFloat(f.InvoiceTotal, 'f', -1, 64),
		f.Buyer,
		f.Seller,
		f.InvoiceDate,
		f.InvoiceNumber,
	}, "|")
	sum := md5.Sum([]byte(input))
	return hex.EncodeToString(sum[:])
}
