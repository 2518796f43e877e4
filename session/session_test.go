package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource resolves routes from a fixed map
type fakeSource struct {
	routes map[string]*RouteConfig
}

func (f *fakeSource) RouteConfig(_ context.Context, routeID string) (*RouteConfig, error) {
	cfg, ok := f.routes[routeID]
	if !ok {
		return nil, fmt.Errorf("route %q not found", routeID)
	}
	return cfg, nil
}

func imageSource() *fakeSource {
	return &fakeSource{routes: map[string]*RouteConfig{
		"imageUploader": {
			RouteID:       "imageUploader",
			MaxFileSize:   4_000_000,
			MaxFileCount:  1,
			AcceptedTypes: []string{"image"},
			Bucket:        "uploads",
		},
		"docUploader": {
			RouteID:       "docUploader",
			MaxFileSize:   10_000_000,
			MaxFileCount:  3,
			AcceptedTypes: []string{"application/pdf", "text"},
			Bucket:        "docs",
		},
	}}
}

// fakeTransport emits the configured progress steps, then returns results or
// err. When release is non-nil it blocks until the channel is closed, keeping
// the attempt in flight under test control.
type fakeTransport struct {
	progress []float64
	results  []FileResult
	err      error
	release  chan struct{}
	started  atomic.Int32
}

func (f *fakeTransport) Upload(_ context.Context, _ RouteConfig, files []FileRef, _ map[string]string, progress ProgressFunc) ([]FileResult, error) {
	f.started.Add(1)
	for _, p := range f.progress {
		progress(p)
	}
	if f.release != nil {
		<-f.release
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.results != nil {
		return f.results, nil
	}
	results := make([]FileResult, len(files))
	for i, file := range files {
		results[i] = FileResult{
			Name: file.Name,
			Key:  file.Key,
			URL:  "https://cdn.example.com/uploads/" + file.Name,
			Size: file.Size,
		}
	}
	return results, nil
}

func readySession(t *testing.T, tr Transport) *Session {
	t.Helper()
	s := New(tr)
	require.NoError(t, s.Initialize(context.Background(), "imageUploader", imageSource()))
	return s
}

func waitStatus(t *testing.T, s *Session, want Status) {
	t.Helper()
	require.Eventually(t, func() bool {
		return s.Snapshot().Status == want
	}, 2*time.Second, 5*time.Millisecond, "session never reached %s", want)
}

func TestInitialize(t *testing.T) {
	s := New(&fakeTransport{})
	assert.Equal(t, StatusReadying, s.Snapshot().Status)
	assert.Equal(t, "readying", s.Snapshot().Variant())

	err := s.Initialize(context.Background(), "imageUploader", imageSource())
	require.NoError(t, err)

	snap := s.Snapshot()
	assert.Equal(t, StatusReady, snap.Status)
	assert.Equal(t, "imageUploader", snap.RouteID)
	assert.Equal(t, int64(4_000_000), snap.Route.MaxFileSize)
	assert.Equal(t, ProgressUndefined, snap.Progress)
}

func TestInitializeUnknownRoute(t *testing.T) {
	s := New(&fakeTransport{})
	err := s.Initialize(context.Background(), "videoUploader", imageSource())

	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "videoUploader", cfgErr.RouteID)
	assert.Equal(t, StatusReadying, s.Snapshot().Status, "failed initialize must not mutate state")
}

func TestInitializeTwice(t *testing.T) {
	s := readySession(t, &fakeTransport{})
	err := s.Initialize(context.Background(), "imageUploader", imageSource())

	var stateErr *InvalidStateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, StatusReady, stateErr.Status)
}

func TestSelectFilesValidation(t *testing.T) {
	tests := []struct {
		name  string
		files []FileRef
	}{
		{"empty selection", nil},
		{"too many files", []FileRef{
			{Name: "a.png", Size: 100, ContentType: "image/png"},
			{Name: "b.png", Size: 100, ContentType: "image/png"},
		}},
		{"file too large", []FileRef{
			{Name: "big.png", Size: 5_000_000, ContentType: "image/png"},
		}},
		{"type not allowed", []FileRef{
			{Name: "notes.txt", Size: 100, ContentType: "text/plain"},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := readySession(t, &fakeTransport{})
			err := s.SelectFiles(tt.files)

			var valErr *ValidationError
			require.ErrorAs(t, err, &valErr)

			snap := s.Snapshot()
			assert.Equal(t, StatusReady, snap.Status)
			assert.Empty(t, snap.Files, "rejected selection must not stage files")
		})
	}
}

func TestSelectFilesStaysReady(t *testing.T) {
	s := readySession(t, &fakeTransport{})
	err := s.SelectFiles([]FileRef{{Name: "photo.png", Size: 2_000_000, ContentType: "image/png"}})
	require.NoError(t, err)

	snap := s.Snapshot()
	assert.Equal(t, StatusReady, snap.Status, "selection must not auto-start the upload")
	assert.Len(t, snap.Files, 1)
}

func TestSelectFilesReplacesSelection(t *testing.T) {
	s := readySession(t, &fakeTransport{})
	require.NoError(t, s.SelectFiles([]FileRef{{Name: "first.png", Size: 10, ContentType: "image/png"}}))
	require.NoError(t, s.SelectFiles([]FileRef{{Name: "second.png", Size: 20, ContentType: "image/png"}}))

	snap := s.Snapshot()
	require.Len(t, snap.Files, 1)
	assert.Equal(t, "second.png", snap.Files[0].Name)
}

func TestAccepts(t *testing.T) {
	tests := []struct {
		accepted    []string
		contentType string
		want        bool
	}{
		{[]string{"image"}, "image/png", true},
		{[]string{"image"}, "video/mp4", false},
		{[]string{"image/png"}, "image/png", true},
		{[]string{"image/png"}, "image/jpeg", false},
		{[]string{"blob"}, "application/zip", true},
		{[]string{"*"}, "application/zip", true},
		{nil, "anything/else", true},
	}
	for _, tt := range tests {
		rc := RouteConfig{AcceptedTypes: tt.accepted}
		assert.Equal(t, tt.want, rc.Accepts(tt.contentType), "accepted=%v type=%s", tt.accepted, tt.contentType)
	}
}

// The scenario from the theming contract: init imageUploader, oversized file
// rejected, valid file staged, upload runs 50 -> 100 -> complete.
func TestUploadScenario(t *testing.T) {
	tr := &fakeTransport{progress: []float64{50, 100}}
	s := readySession(t, tr)

	err := s.SelectFiles([]FileRef{{Name: "huge.png", Size: 5_000_000, ContentType: "image/png"}})
	var valErr *ValidationError
	require.ErrorAs(t, err, &valErr)

	require.NoError(t, s.SelectFiles([]FileRef{{Name: "photo.png", Size: 2_000_000, ContentType: "image/png"}}))
	require.NoError(t, s.StartUpload(context.Background()))

	waitStatus(t, s, StatusComplete)
	snap := s.Snapshot()
	assert.Equal(t, float64(100), snap.Progress)
	require.Len(t, snap.Results, 1)
	assert.NotEmpty(t, snap.Results[0].URL)
	assert.Equal(t, int32(1), tr.started.Load())
}

func TestStartUploadRequiresFiles(t *testing.T) {
	s := readySession(t, &fakeTransport{})
	err := s.StartUpload(context.Background())

	var stateErr *InvalidStateError
	require.ErrorAs(t, err, &stateErr)
}

func TestStartUploadWhileUploading(t *testing.T) {
	tr := &fakeTransport{release: make(chan struct{})}
	s := readySession(t, tr)
	require.NoError(t, s.SelectFiles([]FileRef{{Name: "a.png", Size: 10, ContentType: "image/png"}}))
	require.NoError(t, s.StartUpload(context.Background()))
	waitStatus(t, s, StatusUploading)

	err := s.StartUpload(context.Background())
	var stateErr *InvalidStateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, StatusUploading, stateErr.Status)

	close(tr.release)
	waitStatus(t, s, StatusComplete)
	assert.Equal(t, int32(1), tr.started.Load(), "second StartUpload must not reach the transport")
}

func TestSelectFilesWhileUploading(t *testing.T) {
	tr := &fakeTransport{release: make(chan struct{})}
	defer close(tr.release)

	s := readySession(t, tr)
	require.NoError(t, s.SelectFiles([]FileRef{{Name: "a.png", Size: 10, ContentType: "image/png"}}))
	require.NoError(t, s.StartUpload(context.Background()))
	waitStatus(t, s, StatusUploading)

	err := s.SelectFiles([]FileRef{{Name: "b.png", Size: 10, ContentType: "image/png"}})
	var stateErr *InvalidStateError
	require.ErrorAs(t, err, &stateErr)
}

func TestTransportErrorThenReset(t *testing.T) {
	tr := &fakeTransport{err: errors.New("bucket unreachable")}
	s := readySession(t, tr)
	require.NoError(t, s.SelectFiles([]FileRef{{Name: "a.png", Size: 10, ContentType: "image/png"}}))
	require.NoError(t, s.StartUpload(context.Background()))
	waitStatus(t, s, StatusErrored)

	snap := s.Snapshot()
	assert.Contains(t, snap.Error, "bucket unreachable")
	assert.Len(t, snap.Files, 1, "errored session keeps the selection for display")

	var trErr *TransportError
	require.ErrorAs(t, s.LastError(), &trErr)

	require.NoError(t, s.Reset())
	snap = s.Snapshot()
	assert.Equal(t, StatusReady, snap.Status)
	assert.Empty(t, snap.Files)
	assert.Empty(t, snap.Results)
	assert.Empty(t, snap.Error)
	assert.Equal(t, ProgressUndefined, snap.Progress)
}

func TestResetOnlyFromTerminal(t *testing.T) {
	s := readySession(t, &fakeTransport{})
	err := s.Reset()

	var stateErr *InvalidStateError
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, StatusReady, stateErr.Status)
}

func TestMonotonicProgress(t *testing.T) {
	tr := &fakeTransport{progress: []float64{50, 30, 80, 120}}
	s := readySession(t, tr)

	var mu sync.Mutex
	var seen []float64
	s.Subscribe(func(snap Snapshot) {
		if snap.Status == StatusUploading && snap.Progress > 0 {
			mu.Lock()
			seen = append(seen, snap.Progress)
			mu.Unlock()
		}
	})

	require.NoError(t, s.SelectFiles([]FileRef{{Name: "a.png", Size: 10, ContentType: "image/png"}}))
	require.NoError(t, s.StartUpload(context.Background()))
	waitStatus(t, s, StatusComplete)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []float64{50, 80, 100}, seen, "regressions dropped, overshoot clamped")
}

// Byte-counting transports report progress on every Read, so an unchanged
// percentage must not fan out another snapshot to subscribers.
func TestRepeatedProgressNotRepublished(t *testing.T) {
	tr := &fakeTransport{progress: []float64{25, 25, 25, 50, 50, 110, 120}}
	s := readySession(t, tr)

	var mu sync.Mutex
	var seen []float64
	s.Subscribe(func(snap Snapshot) {
		if snap.Status == StatusUploading && snap.Progress > 0 {
			mu.Lock()
			seen = append(seen, snap.Progress)
			mu.Unlock()
		}
	})

	require.NoError(t, s.SelectFiles([]FileRef{{Name: "a.png", Size: 10, ContentType: "image/png"}}))
	require.NoError(t, s.StartUpload(context.Background()))
	waitStatus(t, s, StatusComplete)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []float64{25, 50, 100}, seen, "each percentage notifies exactly once")
}

// Callback trace per attempt must match onProgress* (onComplete | onError).
func TestCallbackTrace(t *testing.T) {
	tr := &fakeTransport{progress: []float64{25, 50, 75}}
	s := readySession(t, tr)

	var mu sync.Mutex
	var trace []Status
	s.Subscribe(func(snap Snapshot) {
		mu.Lock()
		trace = append(trace, snap.Status)
		mu.Unlock()
	})

	require.NoError(t, s.SelectFiles([]FileRef{{Name: "a.png", Size: 10, ContentType: "image/png"}}))
	require.NoError(t, s.StartUpload(context.Background()))
	waitStatus(t, s, StatusComplete)

	mu.Lock()
	defer mu.Unlock()
	terminal := 0
	for _, st := range trace {
		if st == StatusComplete || st == StatusErrored {
			terminal++
		}
	}
	assert.Equal(t, 1, terminal, "exactly one terminal notification per attempt")
	assert.Equal(t, StatusComplete, trace[len(trace)-1])
}

func TestLateCallbacksAfterClose(t *testing.T) {
	tr := &fakeTransport{progress: nil, release: make(chan struct{})}
	s := readySession(t, tr)
	require.NoError(t, s.SelectFiles([]FileRef{{Name: "a.png", Size: 10, ContentType: "image/png"}}))

	notified := atomic.Int32{}
	s.Subscribe(func(Snapshot) { notified.Add(1) })

	require.NoError(t, s.StartUpload(context.Background()))
	waitStatus(t, s, StatusUploading)
	before := s.Snapshot()
	seen := notified.Load()

	s.Close()
	close(tr.release) // transport now fires its terminal callback

	time.Sleep(50 * time.Millisecond)
	after := s.Snapshot()
	assert.Equal(t, before.Status, after.Status, "disposed session must not change state")
	assert.Equal(t, seen, notified.Load(), "disposed session must not notify")
}

func TestStaleProgressAfterReset(t *testing.T) {
	tr := &fakeTransport{err: errors.New("boom")}
	s := readySession(t, tr)
	require.NoError(t, s.SelectFiles([]FileRef{{Name: "a.png", Size: 10, ContentType: "image/png"}}))
	require.NoError(t, s.StartUpload(context.Background()))
	waitStatus(t, s, StatusErrored)

	attempt := s.attempt
	require.NoError(t, s.Reset())

	s.onProgress(attempt, 80)
	assert.Equal(t, ProgressUndefined, s.Snapshot().Progress, "stale attempt callback must be ignored")
}

func TestSubscribeUnsubscribe(t *testing.T) {
	s := readySession(t, &fakeTransport{})
	count := atomic.Int32{}
	unsub := s.Subscribe(func(Snapshot) { count.Add(1) })

	require.NoError(t, s.SelectFiles([]FileRef{{Name: "a.png", Size: 10, ContentType: "image/png"}}))
	assert.Equal(t, int32(1), count.Load())

	unsub()
	require.NoError(t, s.SelectFiles([]FileRef{{Name: "b.png", Size: 10, ContentType: "image/png"}}))
	assert.Equal(t, int32(1), count.Load())
}

func TestSnapshotIsCopy(t *testing.T) {
	s := readySession(t, &fakeTransport{})
	require.NoError(t, s.SelectFiles([]FileRef{{Name: "a.png", Size: 10, ContentType: "image/png"}}))

	snap := s.Snapshot()
	snap.Files[0].Name = "mutated"

	assert.Equal(t, "a.png", s.Snapshot().Files[0].Name, "snapshot mutation leaked into session")
}

func TestPresentation(t *testing.T) {
	s := New(&fakeTransport{})
	p := s.Snapshot().Presentation()
	assert.False(t, p.Ready)
	assert.False(t, p.IsUploading)

	require.NoError(t, s.Initialize(context.Background(), "imageUploader", imageSource()))
	p = s.Snapshot().Presentation()
	assert.True(t, p.Ready)
	assert.False(t, p.IsUploading)
	assert.Equal(t, []string{"image"}, p.FileTypes)
	assert.Equal(t, "ready", s.Snapshot().Variant())
}

func TestPresentationWhileUploading(t *testing.T) {
	tr := &fakeTransport{release: make(chan struct{})}
	defer close(tr.release)

	s := readySession(t, tr)
	require.NoError(t, s.SelectFiles([]FileRef{{Name: "a.png", Size: 10, ContentType: "image/png"}}))
	require.NoError(t, s.StartUpload(context.Background()))
	waitStatus(t, s, StatusUploading)

	snap := s.Snapshot()
	p := snap.Presentation()
	assert.False(t, p.Ready)
	assert.True(t, p.IsUploading)
	assert.Equal(t, "uploading", snap.Variant())
}
