package session

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Manager owns the live sessions of this gateway instance, one per widget.
// Disposed sessions are closed before removal so in-flight transport callbacks
// cannot mutate them afterwards.
type Manager struct {
	mu        sync.RWMutex
	transport Transport
	sessions  map[uuid.UUID]*Session
}

func NewManager(transport Transport) *Manager {
	return &Manager{
		transport: transport,
		sessions:  make(map[uuid.UUID]*Session),
	}
}

// Create builds a session for routeID, resolves its configuration and
// registers it. The session is returned Ready; on configuration failure
// nothing is registered.
func (m *Manager) Create(ctx context.Context, routeID string, userID uuid.UUID, src ConfigSource) (*Session, error) {
	sess := New(m.transport)
	sess.SetUserID(userID)
	if err := sess.Initialize(ctx, routeID, src); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[sess.ID()] = sess
	m.mu.Unlock()
	return sess, nil
}

func (m *Manager) Get(id uuid.UUID) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[id]
	return sess, ok
}

// Dispose closes and removes the session. Reports whether it existed.
func (m *Manager) Dispose(id uuid.UUID) bool {
	m.mu.Lock()
	sess, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	if ok {
		sess.Close()
	}
	return ok
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Snapshots returns a snapshot of every live session.
func (m *Manager) Snapshots() []Snapshot {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	out := make([]Snapshot, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, s.Snapshot())
	}
	return out
}
