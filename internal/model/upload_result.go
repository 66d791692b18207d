package model

import (
	"time"
)

// UploadResult is the append-only summary of one processing run. Failure to
// write it never fails the run.
type UploadResult struct {
	ID           uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	UploadResult string    `json:"upload_result" gorm:"column:upload_result;type:text"`
	UserID       string    `json:"user_id" gorm:"type:varchar(255);index"`
	CreateTime   time.Time `json:"create_time"`
}

// TableName specifies the table name for UploadResult
func (UploadResult) TableName() string {
	return "receipt_items_upload_result"
}
