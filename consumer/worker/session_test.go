package worker

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uploadkit/upload-gateway/infra/produce"
	"github.com/uploadkit/upload-gateway/session"
)

func TestStoredObjectsFromEvent(t *testing.T) {
	sessionID := uuid.New()
	payload := produce.SessionEventMessage{
		SessionID: sessionID.String(),
		RouteID:   "imageUploader",
		Status:    "COMPLETE",
		Results: []session.FileResult{
			{
				Name:        "photo.png",
				Key:         "imageUploader/" + sessionID.String() + "/photo.png",
				Bucket:      "uploads",
				Size:        2048,
				ContentType: "image/png",
				URL:         "https://cdn.example.com/uploads/photo.png",
			},
			{
				Name:        "scan.pdf",
				Key:         "imageUploader/" + sessionID.String() + "/scan.pdf",
				Bucket:      "uploads",
				Size:        4096,
				ContentType: "application/pdf",
				URL:         "https://cdn.example.com/uploads/scan.pdf",
			},
		},
	}

	objects := storedObjectsFromEvent(sessionID, payload)
	require.Len(t, objects, 2)

	for i, obj := range objects {
		result := payload.Results[i]
		assert.NotEqual(t, uuid.Nil, obj.ID)
		assert.Equal(t, sessionID, obj.SessionID)
		assert.Equal(t, "imageUploader", obj.RouteID)
		assert.Equal(t, result.Bucket, obj.Bucket)
		assert.Equal(t, result.Key, obj.Key)
		assert.Equal(t, result.Size, obj.SizeBytes)
		assert.Equal(t, result.ContentType, obj.ContentType)
		assert.Equal(t, result.URL, obj.URL)
	}
}

func TestStoredObjectsFromEventEmptyResults(t *testing.T) {
	objects := storedObjectsFromEvent(uuid.New(), produce.SessionEventMessage{RouteID: "docUploader"})
	assert.Empty(t, objects)
}
