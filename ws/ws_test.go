package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uploadkit/upload-gateway/http/controller/dto"
	"github.com/uploadkit/upload-gateway/session"
)

func newTestClient(buffer int) *client {
	return &client{
		conn: nil,
		send: make(chan []byte, buffer),
		done: make(chan struct{}),
	}
}

func snapshotWithStatus(status session.Status, progress float64) session.Snapshot {
	return session.Snapshot{
		ID:       uuid.New(),
		RouteID:  "imageUploader",
		Status:   status,
		Progress: progress,
	}
}

func drainStatuses(t *testing.T, c *client) []string {
	t.Helper()
	var statuses []string
	for {
		select {
		case payload := <-c.send:
			var resp dto.SessionResponse
			require.NoError(t, json.Unmarshal(payload, &resp))
			statuses = append(statuses, resp.Status)
		default:
			return statuses
		}
	}
}

// A slow client with a saturated buffer must still receive the terminal
// snapshot: the oldest queued frame gives way, never the newest.
func TestEnqueueKeepsLatestUnderBackpressure(t *testing.T) {
	c := newTestClient(1)

	c.enqueue(snapshotWithStatus(session.StatusUploading, 50))
	c.enqueue(snapshotWithStatus(session.StatusComplete, 100))

	statuses := drainStatuses(t, c)
	require.Len(t, statuses, 1)
	assert.Equal(t, string(session.StatusComplete), statuses[0])
}

func TestEnqueueDropsOldestFirst(t *testing.T) {
	c := newTestClient(2)

	c.enqueue(snapshotWithStatus(session.StatusReady, session.ProgressUndefined))
	c.enqueue(snapshotWithStatus(session.StatusUploading, 40))
	c.enqueue(snapshotWithStatus(session.StatusErrored, 40))

	statuses := drainStatuses(t, c)
	assert.Equal(t, []string{
		string(session.StatusUploading),
		string(session.StatusErrored),
	}, statuses)
}

func TestEnqueueAfterDisconnect(t *testing.T) {
	c := newTestClient(1)
	c.enqueue(snapshotWithStatus(session.StatusUploading, 50))
	close(c.done)

	c.enqueue(snapshotWithStatus(session.StatusComplete, 100))

	statuses := drainStatuses(t, c)
	require.Len(t, statuses, 1)
	assert.Equal(t, string(session.StatusUploading), statuses[0], "a disconnected client's queue is left alone")
}

type staticSource struct{}

func (staticSource) RouteConfig(_ context.Context, routeID string) (*session.RouteConfig, error) {
	if routeID != "imageUploader" {
		return nil, fmt.Errorf("route %q not found", routeID)
	}
	return &session.RouteConfig{
		RouteID:       "imageUploader",
		MaxFileSize:   4_000_000,
		MaxFileCount:  1,
		AcceptedTypes: []string{"image"},
		Bucket:        "uploads",
	}, nil
}

type noopTransport struct{}

func (noopTransport) Upload(_ context.Context, _ session.RouteConfig, files []session.FileRef, _ map[string]string, progress session.ProgressFunc) ([]session.FileResult, error) {
	progress(100)
	results := make([]session.FileResult, len(files))
	for i, f := range files {
		results[i] = session.FileResult{Name: f.Name, Key: f.Key, Size: f.Size}
	}
	return results, nil
}

func readResponse(t *testing.T, conn *websocket.Conn) dto.SessionResponse {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)
	var resp dto.SessionResponse
	require.NoError(t, json.Unmarshal(payload, &resp))
	return resp
}

func TestServeStreamsSnapshots(t *testing.T) {
	sess := session.New(noopTransport{})
	require.NoError(t, sess.Initialize(context.Background(), "imageUploader", staticSource{}))

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		Serve(conn, sess)
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial(strings.Replace(srv.URL, "http", "ws", 1), nil)
	require.NoError(t, err)
	defer conn.Close()

	first := readResponse(t, conn)
	assert.Equal(t, string(session.StatusReady), first.Status)
	assert.Equal(t, sess.ID().String(), first.ID)

	require.NoError(t, sess.SelectFiles([]session.FileRef{
		{Name: "photo.png", Size: 1000, ContentType: "image/png"},
	}))

	next := readResponse(t, conn)
	assert.Equal(t, string(session.StatusReady), next.Status)
	require.Len(t, next.Files, 1)
	assert.Equal(t, "photo.png", next.Files[0].Name)
}
