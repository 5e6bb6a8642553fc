package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"identity/internal/adapter/memory"
)

func newSessionManager(t *testing.T, ttl time.Duration) *SessionManager {
	t.Helper()
	return NewSessionManager(memory.NewSessionStore(memory.New()), ttl)
}

func TestSessionManagerCreateAndResolve(t *testing.T) {
	ctx := context.Background()
	m := newSessionManager(t, time.Hour)

	id, err := m.Create(ctx, "user-1")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	userID, err := m.Resolve(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestSessionManagerIdentifiersAreUnique(t *testing.T) {
	ctx := context.Background()
	m := newSessionManager(t, time.Hour)

	a, err := m.Create(ctx, "user-1")
	require.NoError(t, err)
	b, err := m.Create(ctx, "user-1")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestSessionManagerResolveUnknown(t *testing.T) {
	ctx := context.Background()
	m := newSessionManager(t, time.Hour)

	userID, err := m.Resolve(ctx, "no-such-session")
	require.NoError(t, err)
	assert.Empty(t, userID)

	userID, err = m.Resolve(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, userID)
}

func TestSessionManagerExpiry(t *testing.T) {
	ctx := context.Background()
	m := newSessionManager(t, time.Millisecond)

	id, err := m.Create(ctx, "user-1")
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	userID, err := m.Resolve(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, userID)
}

func TestSessionManagerDestroyIsIdempotent(t *testing.T) {
	ctx := context.Background()
	m := newSessionManager(t, time.Hour)

	id, err := m.Create(ctx, "user-1")
	require.NoError(t, err)

	require.NoError(t, m.Destroy(ctx, id))
	require.NoError(t, m.Destroy(ctx, id))
	require.NoError(t, m.Destroy(ctx, "never-existed"))

	userID, err := m.Resolve(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, userID)
}

func TestSessionManagerDefaultTTL(t *testing.T) {
	m := newSessionManager(t, 0)
	assert.Equal(t, DefaultSessionTTL, m.TTL())
}
