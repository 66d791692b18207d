package model

import (
	"time"
)

// EmlInfo records the provenance of a ReceiptItem: which email produced it
// and where the original message lives. It shares its ID with the receipt
// row and is created and deleted in lockstep with it.
type EmlInfo struct {
	ID          string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	UserID      string    `json:"user_id" gorm:"type:varchar(255);not null;index"`
	FromEmail   string    `json:"from" gorm:"column:from;type:text"`
	ToEmail     string    `json:"to" gorm:"column:to;type:text"`
	S3EmlURL    string    `json:"s3_eml_url" gorm:"column:s3_eml_url;type:text"`
	Buyer       string    `json:"buyer" gorm:"type:text"`
	Seller      string    `json:"seller" gorm:"type:text"`
	InvoiceDate string    `json:"invoice_date" gorm:"type:varchar(64)"`
	CreateTime  time.Time `json:"create_time"`
}

// TableName specifies the table name for EmlInfo
func (EmlInfo) TableName() string {
	return "ses_eml_info_en"
}
