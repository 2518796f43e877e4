package session

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Status represents the lifecycle state of an upload session
type Status string

const (
	StatusReadying  Status = "READYING"
	StatusReady     Status = "READY"
	StatusUploading Status = "UPLOADING"
	StatusComplete  Status = "COMPLETE"
	StatusErrored   Status = "ERRORED"
)

// ProgressUndefined is the progress value before the first upload attempt and
// after Reset.
const ProgressUndefined float64 = -1

// Session is the state machine behind one upload widget instance. It is driven
// by caller operations (Initialize, SelectFiles, StartUpload, Reset) and by
// transport callbacks from the single in-flight upload attempt. All methods
// are safe for concurrent use.
type Session struct {
	mu        sync.Mutex
	id        uuid.UUID
	userID    uuid.UUID
	routeID   string
	route     RouteConfig
	status    Status
	files     []FileRef
	progress  float64
	results   []FileResult
	lastErr   error
	attempt   uuid.UUID
	closed    bool
	transport Transport
	subs      map[int]func(Snapshot)
	nextSub   int
}

// New creates a session in Readying. It becomes usable once Initialize has
// resolved the route configuration.
func New(transport Transport) *Session {
	return &Session{
		id:        uuid.New(),
		status:    StatusReadying,
		progress:  ProgressUndefined,
		transport: transport,
		subs:      make(map[int]func(Snapshot)),
	}
}

func (s *Session) ID() uuid.UUID { return s.id }

// SetUserID attaches the owning user. Must be called before StartUpload so the
// transport metadata carries it; typically set right after New.
func (s *Session) SetUserID(id uuid.UUID) {
	s.mu.Lock()
	s.userID = id
	s.mu.Unlock()
}

// Initialize resolves routeID against the configuration source and moves the
// session from Readying to Ready. Fails with ConfigurationError when the route
// is unknown, leaving the session untouched.
func (s *Session) Initialize(ctx context.Context, routeID string, src ConfigSource) error {
	s.mu.Lock()
	if s.closed || s.status != StatusReadying {
		st := s.status
		s.mu.Unlock()
		return &InvalidStateError{Op: "initialize", Status: st}
	}
	s.mu.Unlock()

	// Resolve outside the lock; the source may hit cache or database.
	cfg, err := src.RouteConfig(ctx, routeID)
	if err != nil {
		return &ConfigurationError{RouteID: routeID, Err: err}
	}
	if cfg == nil {
		return &ConfigurationError{RouteID: routeID}
	}

	s.mu.Lock()
	if s.closed || s.status != StatusReadying {
		st := s.status
		s.mu.Unlock()
		return &InvalidStateError{Op: "initialize", Status: st}
	}
	s.routeID = routeID
	s.route = *cfg
	s.status = StatusReady
	snap, subs := s.snapshotLocked(), s.subscribersLocked()
	s.mu.Unlock()

	publish(snap, subs)
	return nil
}

// SelectFiles stages an ordered file set for the next upload attempt. The
// session must be Ready; a repeated call replaces the previous selection
// wholesale. Constraint violations fail with ValidationError and leave the
// staged set unchanged. Selection never auto-starts the upload.
func (s *Session) SelectFiles(files []FileRef) error {
	s.mu.Lock()
	if s.closed || s.status != StatusReady {
		st := s.status
		s.mu.Unlock()
		return &InvalidStateError{Op: "select files", Status: st}
	}
	route := s.route
	s.mu.Unlock()

	if len(files) == 0 {
		return &ValidationError{Reason: "no files selected"}
	}
	if route.MaxFileCount > 0 && len(files) > route.MaxFileCount {
		return &ValidationError{Reason: "too many files"}
	}
	for _, f := range files {
		if route.MaxFileSize > 0 && f.Size > route.MaxFileSize {
			return &ValidationError{FileName: f.Name, Reason: "file exceeds maximum size"}
		}
		if !route.Accepts(f.ContentType) {
			return &ValidationError{FileName: f.Name, Reason: "file type not allowed"}
		}
	}

	staged := make([]FileRef, len(files))
	copy(staged, files)

	s.mu.Lock()
	if s.closed || s.status != StatusReady {
		st := s.status
		s.mu.Unlock()
		return &InvalidStateError{Op: "select files", Status: st}
	}
	s.files = staged
	snap, subs := s.snapshotLocked(), s.subscribersLocked()
	s.mu.Unlock()

	publish(snap, subs)
	return nil
}

// StageFile updates the staging key of an already selected file once its bytes
// have been received. No-op when name is not part of the selection.
func (s *Session) StageFile(name, key string) {
	s.mu.Lock()
	for i := range s.files {
		if s.files[i].Name == name {
			s.files[i].Key = key
		}
	}
	s.mu.Unlock()
}

// StartUpload moves the session to Uploading and invokes the transport on a
// new goroutine. At most one attempt may be in flight; calling it again while
// Uploading fails with InvalidStateError rather than queuing.
func (s *Session) StartUpload(ctx context.Context) error {
	s.mu.Lock()
	if s.closed || s.status != StatusReady || len(s.files) == 0 {
		st := s.status
		s.mu.Unlock()
		return &InvalidStateError{Op: "start upload", Status: st}
	}

	attempt := uuid.New()
	s.attempt = attempt
	s.status = StatusUploading
	s.progress = 0
	s.results = nil
	s.lastErr = nil

	route := s.route
	files := make([]FileRef, len(s.files))
	copy(files, s.files)
	metadata := map[string]string{
		"session_id": s.id.String(),
		"route_id":   s.routeID,
		"user_id":    s.userID.String(),
	}
	snap, subs := s.snapshotLocked(), s.subscribersLocked()
	s.mu.Unlock()

	publish(snap, subs)

	go func() {
		results, err := s.transport.Upload(ctx, route, files, metadata, func(percent float64) {
			s.onProgress(attempt, percent)
		})
		if err != nil {
			s.onError(attempt, err)
			return
		}
		s.onComplete(attempt, results)
	}()
	return nil
}

// onProgress applies a progress callback from the transport. Stale callbacks
// (wrong attempt, session no longer Uploading, or disposed) are ignored, as
// are regressions below the current percentage and repeats of it: byte-level
// transports fire per Read, so unchanged percentages must not renotify.
func (s *Session) onProgress(attempt uuid.UUID, percent float64) {
	s.mu.Lock()
	if s.closed || attempt != s.attempt || s.status != StatusUploading {
		s.mu.Unlock()
		return
	}
	if percent > 100 {
		percent = 100
	}
	if percent <= s.progress {
		s.mu.Unlock()
		return
	}
	s.progress = percent
	snap, subs := s.snapshotLocked(), s.subscribersLocked()
	s.mu.Unlock()

	publish(snap, subs)
}

func (s *Session) onComplete(attempt uuid.UUID, results []FileResult) {
	s.mu.Lock()
	if s.closed || attempt != s.attempt || s.status != StatusUploading {
		s.mu.Unlock()
		return
	}
	s.status = StatusComplete
	s.results = results
	snap, subs := s.snapshotLocked(), s.subscribersLocked()
	s.mu.Unlock()

	publish(snap, subs)
}

func (s *Session) onError(attempt uuid.UUID, err error) {
	s.mu.Lock()
	if s.closed || attempt != s.attempt || s.status != StatusUploading {
		s.mu.Unlock()
		return
	}
	s.status = StatusErrored
	s.lastErr = &TransportError{Err: err}
	snap, subs := s.snapshotLocked(), s.subscribersLocked()
	s.mu.Unlock()

	publish(snap, subs)
}

// Reset returns a Complete or Errored session to Ready, clearing the staged
// files, results, progress and error. Retrying an upload is always an explicit
// Reset + SelectFiles + StartUpload by the caller.
func (s *Session) Reset() error {
	s.mu.Lock()
	if s.closed || (s.status != StatusComplete && s.status != StatusErrored) {
		st := s.status
		s.mu.Unlock()
		return &InvalidStateError{Op: "reset", Status: st}
	}
	s.status = StatusReady
	s.files = nil
	s.results = nil
	s.lastErr = nil
	s.progress = ProgressUndefined
	s.attempt = uuid.Nil
	snap, subs := s.snapshotLocked(), s.subscribersLocked()
	s.mu.Unlock()

	publish(snap, subs)
	return nil
}

// Close disposes the session. Pending transport callbacks become no-ops and
// subscribers are dropped without a final notification.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.attempt = uuid.Nil
	s.subs = nil
	s.mu.Unlock()
}

func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// LastError returns the stored error, non-nil only while Errored.
func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Subscribe registers fn to receive a snapshot after every state or progress
// change. The returned function removes the subscription.
func (s *Session) Subscribe(fn func(Snapshot)) func() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		if s.subs != nil {
			delete(s.subs, id)
		}
		s.mu.Unlock()
	}
}

func (s *Session) subscribersLocked() []func(Snapshot) {
	out := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		out = append(out, fn)
	}
	return out
}

func publish(snap Snapshot, subs []func(Snapshot)) {
	for _, fn := range subs {
		fn(snap)
	}
}
