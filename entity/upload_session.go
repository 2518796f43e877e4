package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/uploadkit/upload-gateway/session"
)

// SessionStatus mirrors session.Status in the database, plus EXPIRED which
// only the sweeper assigns.
type SessionStatus string

const (
	SessionStatusReadying  SessionStatus = "READYING"
	SessionStatusReady     SessionStatus = "READY"
	SessionStatusUploading SessionStatus = "UPLOADING"
	SessionStatusComplete  SessionStatus = "COMPLETE"
	SessionStatusErrored   SessionStatus = "ERRORED"
	SessionStatusExpired   SessionStatus = "EXPIRED"
)

// UploadSession is the persisted mirror of an in-memory session. The state
// machine stays authoritative; rows exist for progress queries across
// restarts, webhook payloads and the expiry sweep.
type UploadSession struct {
	ID         uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	UserID     uuid.UUID      `json:"user_id" gorm:"type:uuid;not null;index"`
	RouteID    string         `json:"route_id" gorm:"type:varchar(128);not null;index"`
	Status     SessionStatus  `json:"status" gorm:"type:varchar(32);not null;default:'READYING'"`
	FileCount  int            `json:"file_count" gorm:"default:0"`
	TotalBytes int64          `json:"total_bytes" gorm:"default:0"`
	Progress   float64        `json:"progress" gorm:"default:-1"`
	Files      datatypes.JSON `json:"files,omitempty"`
	Results    datatypes.JSON `json:"results,omitempty"`
	LastError  string         `json:"last_error,omitempty" gorm:"type:varchar(1024)"`
	CreatedAt  time.Time      `json:"created_at" gorm:"not null;autoCreateTime"`
	UpdatedAt  time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	ExpiresAt  time.Time      `json:"expires_at" gorm:"not null;index"`
}

// SessionFromSnapshot builds the database mirror of snap, expiring ttl from
// now.
func SessionFromSnapshot(snap session.Snapshot, ttl time.Duration) (*UploadSession, error) {
	row := &UploadSession{
		ID:        snap.ID,
		UserID:    snap.UserID,
		RouteID:   snap.RouteID,
		Status:    SessionStatus(snap.Status),
		FileCount: len(snap.Files),
		Progress:  snap.Progress,
		LastError: snap.Error,
		ExpiresAt: time.Now().Add(ttl),
	}
	for _, f := range snap.Files {
		row.TotalBytes += f.Size
	}
	if len(snap.Files) > 0 {
		data, err := json.Marshal(snap.Files)
		if err != nil {
			return nil, err
		}
		row.Files = data
	}
	if len(snap.Results) > 0 {
		data, err := json.Marshal(snap.Results)
		if err != nil {
			return nil, err
		}
		row.Results = data
	}
	return row, nil
}

// FileResults decodes the stored per-file results.
func (s *UploadSession) FileResults() ([]session.FileResult, error) {
	if len(s.Results) == 0 {
		return nil, nil
	}
	var results []session.FileResult
	if err := json.Unmarshal(s.Results, &results); err != nil {
		return nil, err
	}
	return results, nil
}
