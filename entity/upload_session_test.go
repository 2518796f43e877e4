package entity

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uploadkit/upload-gateway/session"
)

func TestSessionFromSnapshot(t *testing.T) {
	snap := session.Snapshot{
		ID:      uuid.New(),
		UserID:  uuid.New(),
		RouteID: "imageUploader",
		Status:  session.StatusComplete,
		Files: []session.FileRef{
			{Name: "a.png", Size: 100, ContentType: "image/png", Key: "s/a.png"},
			{Name: "b.png", Size: 200, ContentType: "image/png", Key: "s/b.png"},
		},
		Progress: 100,
		Results: []session.FileResult{
			{Name: "a.png", Key: "imageUploader/s/a.png", URL: "https://cdn/a.png", Size: 100},
			{Name: "b.png", Key: "imageUploader/s/b.png", URL: "https://cdn/b.png", Size: 200},
		},
	}

	row, err := SessionFromSnapshot(snap, time.Hour)
	require.NoError(t, err)

	assert.Equal(t, snap.ID, row.ID)
	assert.Equal(t, snap.UserID, row.UserID)
	assert.Equal(t, SessionStatusComplete, row.Status)
	assert.Equal(t, 2, row.FileCount)
	assert.Equal(t, int64(300), row.TotalBytes)
	assert.Equal(t, float64(100), row.Progress)
	assert.WithinDuration(t, time.Now().Add(time.Hour), row.ExpiresAt, time.Minute)

	results, err := row.FileResults()
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, snap.Results, results)
}

func TestSessionFromSnapshotEmptySelection(t *testing.T) {
	snap := session.Snapshot{
		ID:      uuid.New(),
		RouteID: "docUploader",
		Status:  session.StatusReady,
	}

	row, err := SessionFromSnapshot(snap, time.Hour)
	require.NoError(t, err)

	assert.Empty(t, row.Files)
	assert.Empty(t, row.Results)

	results, err := row.FileResults()
	require.NoError(t, err)
	assert.Nil(t, results)
}

func TestFileRouteConfigRoundTrip(t *testing.T) {
	cfg := session.RouteConfig{
		RouteID:       "imageUploader",
		MaxFileSize:   4 << 20,
		MaxFileCount:  1,
		AcceptedTypes: []string{"image"},
		Bucket:        "uploads",
		WebhookURL:    "https://example.com/hook",
	}

	row, err := NewFileRoute(cfg)
	require.NoError(t, err)

	got, err := row.Config()
	require.NoError(t, err)
	assert.Equal(t, cfg, *got)
}
