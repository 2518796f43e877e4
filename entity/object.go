package entity

import (
	"time"

	"github.com/google/uuid"
)

// StoredObject records one durably stored file from a completed session.
type StoredObject struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	SessionID   uuid.UUID `json:"session_id" gorm:"type:uuid;not null;index"`
	RouteID     string    `json:"route_id" gorm:"type:varchar(128);not null;index"`
	Bucket      string    `json:"bucket" gorm:"type:varchar(255);not null"`
	Key         string    `json:"key" gorm:"type:varchar(1024);not null;index:idx_bucket_key"`
	SizeBytes   int64     `json:"size_bytes" gorm:"not null"`
	ContentType string    `json:"content_type" gorm:"type:varchar(255)"`
	URL         string    `json:"url" gorm:"type:varchar(1024)"`
	CreatedAt   time.Time `json:"created_at" gorm:"not null;autoCreateTime"`
}
