package state

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var ErrNotFound = errors.New("telegram session not found")

// TelegramSession maps a chat to its interview session and keeps chat UI state
type TelegramSession struct {
	ChatID    int64           `json:"chat_id"`
	SessionID string          `json:"session_id,omitempty"` // Empty between interviews
	StateData json.RawMessage `json:"state_data,omitempty"` // Telegram-specific UI state
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// StateData contains telegram-specific UI state (stored in StateData JSONB)
type StateData struct {
	// Version for compatibility tracking (current version: 1)
	Version int `json:"version,omitempty"`

	// Profile field the next text message answers ("name", "target_job", ...)
	PendingField string `json:"pending_field,omitempty"`

	// Optional profile fields the candidate already answered or skipped
	AskedOptional []string `json:"asked_optional,omitempty"`

	// Interviews finished in this chat, the first one starts with the introduction
	CompletedInterviews int `json:"completed_interviews,omitempty"`

	// Confirmation for destructive actions
	PendingConfirmation string `json:"pending_confirmation,omitempty"` // "cancel"
}

const (
	// StateDataCurrentVersion is the current version of StateData
	StateDataCurrentVersion = 1
)

// Storage defines the interface for telegram session persistence
type Storage interface {
	// Get retrieves telegram session by chat ID
	Get(ctx context.Context, chatID int64) (*TelegramSession, error)

	// Set saves telegram session
	Set(ctx context.Context, session *TelegramSession) error

	// Delete removes telegram session
	Delete(ctx context.Context, chatID int64) error

	// GetBySessionID retrieves telegram session by interview session ID
	GetBySessionID(ctx context.Context, sessionID string) (*TelegramSession, error)
}
