package state

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_BindAndRelease(t *testing.T) {
	ctx := context.Background()
	m := NewManager(NewMemoryStorage(time.Hour, time.Minute))

	id, err := m.ActiveSessionID(ctx, 42)
	require.NoError(t, err)
	assert.Empty(t, id)

	data, err := m.GetStateData(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, StateDataCurrentVersion, data.Version)
	assert.Zero(t, data.CompletedInterviews)

	require.NoError(t, m.Bind(ctx, 42, "session-1"))
	data.PendingField = "background"
	require.NoError(t, m.UpdateStateData(ctx, 42, data))

	id, err = m.ActiveSessionID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "session-1", id)

	found, err := m.GetBySessionID(ctx, "session-1")
	require.NoError(t, err)
	assert.Equal(t, int64(42), found.ChatID)

	require.NoError(t, m.MarkCompleted(ctx, 42))

	id, err = m.ActiveSessionID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "session-1", id, "completed interview stays bound")

	require.NoError(t, m.Release(ctx, 42))

	id, err = m.ActiveSessionID(ctx, 42)
	require.NoError(t, err)
	assert.Empty(t, id)

	data, err = m.GetStateData(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, 1, data.CompletedInterviews)
	assert.Empty(t, data.PendingField)

	// A new interview keeps the chat history but not the UI state
	require.NoError(t, m.Bind(ctx, 42, "session-2"))
	data, err = m.GetStateData(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, 1, data.CompletedInterviews)

	_, err = m.GetBySessionID(ctx, "session-1")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestManager_ReleaseAborted(t *testing.T) {
	ctx := context.Background()
	m := NewManager(NewMemoryStorage(0, 0))

	require.NoError(t, m.Release(ctx, 7))
	require.NoError(t, m.Bind(ctx, 7, "s"))
	require.NoError(t, m.Release(ctx, 7))

	data, err := m.GetStateData(ctx, 7)
	require.NoError(t, err)
	assert.Zero(t, data.CompletedInterviews)
}

func TestManager_ContextCache(t *testing.T) {
	m := NewManager(NewMemoryStorage(0, 0))
	cached := &StateData{PendingField: "name"}
	ctx := ContextWithStateData(context.Background(), cached)

	data, err := m.GetStateData(ctx, 1)
	require.NoError(t, err)
	assert.Same(t, cached, data)
}

func TestMemoryStorage_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage(0, 0)

	session := &TelegramSession{ChatID: 1, StateData: []byte(`{"pending_field":"name"}`)}
	require.NoError(t, s.Set(ctx, session))
	session.StateData[2] = 'X'

	got, err := s.Get(ctx, 1)
	require.NoError(t, err)
	assert.JSONEq(t, `{"pending_field":"name"}`, string(got.StateData))

	require.NoError(t, s.Delete(ctx, 1))
	_, err = s.Get(ctx, 1)
	require.ErrorIs(t, err, ErrNotFound)
}
