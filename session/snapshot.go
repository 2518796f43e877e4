package session

import "github.com/google/uuid"

// Snapshot is an immutable copy of the session state at one point in time.
// Subscribers and the HTTP layer only ever see snapshots; mutating one never
// affects the session.
type Snapshot struct {
	ID       uuid.UUID    `json:"id"`
	UserID   uuid.UUID    `json:"user_id,omitempty"`
	RouteID  string       `json:"route_id"`
	Status   Status       `json:"status"`
	Files    []FileRef    `json:"files,omitempty"`
	Progress float64      `json:"progress"`
	Results  []FileResult `json:"results,omitempty"`
	Error    string       `json:"error,omitempty"`
	Route    RouteConfig  `json:"route"`
}

// Snapshot returns a copy of the current session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		ID:       s.id,
		UserID:   s.userID,
		RouteID:  s.routeID,
		Status:   s.status,
		Progress: s.progress,
		Route:    s.route,
	}
	if len(s.files) > 0 {
		snap.Files = make([]FileRef, len(s.files))
		copy(snap.Files, s.files)
	}
	if len(s.results) > 0 {
		snap.Results = make([]FileResult, len(s.results))
		copy(snap.Results, s.results)
	}
	if s.lastErr != nil {
		snap.Error = s.lastErr.Error()
	}
	return snap
}

// Presentation is the derived state the rendering layer keys styling and
// conditional content off. It is a pure function of the snapshot.
type Presentation struct {
	Ready       bool     `json:"ready"`
	IsUploading bool     `json:"is_uploading"`
	FileTypes   []string `json:"file_types"`
}

func (sn Snapshot) Presentation() Presentation {
	return Presentation{
		Ready:       sn.Status == StatusReady || sn.Status == StatusComplete || sn.Status == StatusErrored,
		IsUploading: sn.Status == StatusUploading,
		FileTypes:   sn.Route.AcceptedTypes,
	}
}

// Variant names the styling variant for the snapshot: "readying" before the
// route config resolves, "uploading" while an attempt is in flight, "ready"
// otherwise.
func (sn Snapshot) Variant() string {
	switch sn.Status {
	case StatusReadying:
		return "readying"
	case StatusUploading:
		return "uploading"
	default:
		return "ready"
	}
}
