package model

import (
	"time"
)

// ReceiptItem is one structured receipt extracted from an emailed invoice.
// Sensitive columns hold ciphertext at rest; FileURL stores the durable
// storage key, never a signed URL.
type ReceiptItem struct {
	ID            string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	UserID        string    `json:"user_id" gorm:"type:varchar(255);not null;index"`
	FileURL       string    `json:"file_url" gorm:"type:text"`
	OriginalInfo  string    `json:"original_info" gorm:"type:text"`
	OCR           string    `json:"ocr" gorm:"column:ocr;type:text"`
	InvoiceNumber string    `json:"invoice_number" gorm:"type:text"`
	InvoiceDate   string    `json:"invoice_date" gorm:"type:varchar(64)"`
	Buyer         string    `json:"buyer" gorm:"type:text"`
	Seller        string    `json:"seller" gorm:"type:text"`
	InvoiceTotal  float64   `json:"invoice_total"`
	Currency      string    `json:"currency" gorm:"type:varchar(16)"`
	Category      string    `json:"category" gorm:"type:varchar(255)"`
	Address       string    `json:"address" gorm:"type:text"`
	HashID        string    `json:"hash_id" gorm:"type:varchar(32);index"`
	CreateTime    time.Time `json:"create_time"`
}

// TableName specifies the table name for ReceiptItem
func (ReceiptItem) TableName() string {
	return "receipt_items_en"
}
