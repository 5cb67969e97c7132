package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// contextKey is a type for context keys to avoid collisions
type contextKey string

const stateDataKey contextKey = "state_data"

// StateDataFromContext retrieves StateData from context if available
func StateDataFromContext(ctx context.Context) (*StateData, bool) {
	data, ok := ctx.Value(stateDataKey).(*StateData)
	return data, ok
}

// ContextWithStateData attaches StateData to context for request-scoped caching
func ContextWithStateData(ctx context.Context, data *StateData) context.Context {
	return context.WithValue(ctx, stateDataKey, data)
}

// Manager manages telegram sessions
type Manager struct {
	storage Storage
	now     func() time.Time
}

// NewManager creates a new state manager
func NewManager(storage Storage) *Manager {
	return &Manager{
		storage: storage,
		now:     time.Now,
	}
}

// GetSession retrieves telegram session from storage
func (m *Manager) GetSession(ctx context.Context, chatID int64) (*TelegramSession, error) {
	session, err := m.storage.Get(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("get telegram session from storage: %w", err)
	}

	return session, nil
}

// ActiveSessionID returns the interview bound to the chat, or "" when there is none
func (m *Manager) ActiveSessionID(ctx context.Context, chatID int64) (string, error) {
	session, err := m.storage.Get(ctx, chatID)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get telegram session from storage: %w", err)
	}

	return session.SessionID, nil
}

// SetSession saves telegram session to storage
func (m *Manager) SetSession(ctx context.Context, session *TelegramSession) error {
	session.UpdatedAt = m.now()

	if err := m.storage.Set(ctx, session); err != nil {
		return fmt.Errorf("save telegram session to storage: %w", err)
	}

	return nil
}

// GetStateData extracts typed state data
// First checks context for cached data, then loads from storage if needed
func (m *Manager) GetStateData(ctx context.Context, chatID int64) (*StateData, error) {
	if data, ok := StateDataFromContext(ctx); ok {
		return data, nil
	}

	session, err := m.storage.Get(ctx, chatID)
	if errors.Is(err, ErrNotFound) {
		return &StateData{Version: StateDataCurrentVersion}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get telegram session from storage: %w", err)
	}

	return decodeStateData(session.StateData)
}

// UpdateStateData updates state data, creating the chat record if needed
func (m *Manager) UpdateStateData(ctx context.Context, chatID int64, data *StateData) error {
	session, err := m.getOrNew(ctx, chatID)
	if err != nil {
		return err
	}

	data.Version = StateDataCurrentVersion

	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal state data: %w", err)
	}

	session.StateData = jsonData
	return m.SetSession(ctx, session)
}

// Bind attaches a new interview session to the chat and resets per-interview UI state.
// Chat history such as the number of finished interviews is kept.
func (m *Manager) Bind(ctx context.Context, chatID int64, sessionID string) error {
	session, err := m.getOrNew(ctx, chatID)
	if err != nil {
		return err
	}

	data, err := decodeStateData(session.StateData)
	if err != nil {
		return err
	}

	session.SessionID = sessionID
	session.StateData, err = json.Marshal(&StateData{
		Version:             StateDataCurrentVersion,
		CompletedInterviews: data.CompletedInterviews,
	})
	if err != nil {
		return fmt.Errorf("marshal state data: %w", err)
	}

	return m.SetSession(ctx, session)
}

// Release detaches the interview from the chat
func (m *Manager) Release(ctx context.Context, chatID int64) error {
	return m.update(ctx, chatID, func(session *TelegramSession, data *StateData) {
		session.SessionID = ""
		*data = StateData{CompletedInterviews: data.CompletedInterviews}
	})
}

// MarkCompleted counts a finished interview so the next one skips the introduction.
// The interview stays bound for report downloads.
func (m *Manager) MarkCompleted(ctx context.Context, chatID int64) error {
	return m.update(ctx, chatID, func(_ *TelegramSession, data *StateData) {
		data.CompletedInterviews++
		data.PendingField = ""
		data.PendingConfirmation = ""
	})
}

func (m *Manager) update(ctx context.Context, chatID int64, fn func(session *TelegramSession, data *StateData)) error {
	session, err := m.storage.Get(ctx, chatID)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("get telegram session from storage: %w", err)
	}

	data, err := decodeStateData(session.StateData)
	if err != nil {
		return err
	}

	fn(session, data)
	data.Version = StateDataCurrentVersion

	if session.StateData, err = json.Marshal(data); err != nil {
		return fmt.Errorf("marshal state data: %w", err)
	}

	return m.SetSession(ctx, session)
}

// DeleteSession removes telegram session from storage
func (m *Manager) DeleteSession(ctx context.Context, chatID int64) error {
	if err := m.storage.Delete(ctx, chatID); err != nil {
		return fmt.Errorf("delete telegram session from storage: %w", err)
	}

	return nil
}

// GetBySessionID retrieves telegram session by interview session ID
func (m *Manager) GetBySessionID(ctx context.Context, sessionID string) (*TelegramSession, error) {
	return m.storage.GetBySessionID(ctx, sessionID)
}

func (m *Manager) getOrNew(ctx context.Context, chatID int64) (*TelegramSession, error) {
	session, err := m.storage.Get(ctx, chatID)
	if errors.Is(err, ErrNotFound) {
		return &TelegramSession{
			ChatID:    chatID,
			CreatedAt: m.now(),
			StateData: json.RawMessage("{}"),
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get telegram session from storage: %w", err)
	}

	return session, nil
}

func decodeStateData(raw json.RawMessage) (*StateData, error) {
	if len(raw) == 0 {
		return &StateData{Version: StateDataCurrentVersion}, nil
	}

	var data StateData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("unmarshal state data: %w", err)
	}

	// Auto-upgrade from old versions without version field
	if data.Version == 0 {
		data.Version = StateDataCurrentVersion
	}

	return &data, nil
}
