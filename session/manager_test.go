package session

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManagerCreateAndGet(t *testing.T) {
	m := NewManager(&fakeTransport{})
	userID := uuid.New()

	sess, err := m.Create(context.Background(), "imageUploader", userID, imageSource())
	require.NoError(t, err)
	assert.Equal(t, 1, m.Len())

	got, ok := m.Get(sess.ID())
	require.True(t, ok)
	assert.Equal(t, sess, got)
	assert.Equal(t, userID, got.Snapshot().UserID)
}

func TestManagerCreateUnknownRoute(t *testing.T) {
	m := NewManager(&fakeTransport{})

	_, err := m.Create(context.Background(), "nope", uuid.New(), imageSource())
	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, 0, m.Len(), "failed create must not register a session")
}

func TestManagerDispose(t *testing.T) {
	m := NewManager(&fakeTransport{})
	sess, err := m.Create(context.Background(), "imageUploader", uuid.New(), imageSource())
	require.NoError(t, err)

	require.True(t, m.Dispose(sess.ID()))
	assert.True(t, sess.Closed())
	assert.Equal(t, 0, m.Len())

	_, ok := m.Get(sess.ID())
	assert.False(t, ok)
	assert.False(t, m.Dispose(sess.ID()))
}

func TestManagerSnapshots(t *testing.T) {
	m := NewManager(&fakeTransport{})
	_, err := m.Create(context.Background(), "imageUploader", uuid.New(), imageSource())
	require.NoError(t, err)
	_, err = m.Create(context.Background(), "docUploader", uuid.New(), imageSource())
	require.NoError(t, err)

	snaps := m.Snapshots()
	assert.Len(t, snaps, 2)
	for _, snap := range snaps {
		assert.Equal(t, StatusReady, snap.Status)
	}
}
