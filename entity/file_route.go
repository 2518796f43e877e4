package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/uploadkit/upload-gateway/session"
)

// FileRoute is a named upload configuration: which constraints apply and where
// completed files land. RouteID is the key widgets initialize with.
type FileRoute struct {
	ID            uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	RouteID       string         `json:"route_id" gorm:"type:varchar(128);not null;uniqueIndex"`
	MaxFileSize   int64          `json:"max_file_size" gorm:"not null"`
	MaxFileCount  int            `json:"max_file_count" gorm:"not null;default:1"`
	AcceptedTypes datatypes.JSON `json:"accepted_types"`
	Bucket        string         `json:"bucket" gorm:"type:varchar(255);not null"`
	WebhookURL    string         `json:"webhook_url,omitempty" gorm:"type:varchar(1024)"`
	Relay         bool           `json:"relay" gorm:"default:false"`
	CreatedAt     time.Time      `json:"created_at" gorm:"not null;autoCreateTime"`
	UpdatedAt     time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
}

// Config decodes the row into the configuration the session core consumes.
func (r *FileRoute) Config() (*session.RouteConfig, error) {
	cfg := &session.RouteConfig{
		RouteID:      r.RouteID,
		MaxFileSize:  r.MaxFileSize,
		MaxFileCount: r.MaxFileCount,
		Bucket:       r.Bucket,
		WebhookURL:   r.WebhookURL,
		Relay:        r.Relay,
	}
	if len(r.AcceptedTypes) > 0 {
		if err := json.Unmarshal(r.AcceptedTypes, &cfg.AcceptedTypes); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// NewFileRoute builds a route row from a configuration, assigning a fresh ID.
func NewFileRoute(cfg session.RouteConfig) (*FileRoute, error) {
	types, err := json.Marshal(cfg.AcceptedTypes)
	if err != nil {
		return nil, err
	}
	return &FileRoute{
		ID:            uuid.New(),
		RouteID:       cfg.RouteID,
		MaxFileSize:   cfg.MaxFileSize,
		MaxFileCount:  cfg.MaxFileCount,
		AcceptedTypes: types,
		Bucket:        cfg.Bucket,
		WebhookURL:    cfg.WebhookURL,
		Relay:         cfg.Relay,
	}, nil
}
