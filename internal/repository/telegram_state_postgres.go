package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/futig/interview-flow/internal/telegram/state"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	getTelegramSessionQuery = `
SELECT chat_id, session_id, state_data, created_at, updated_at
FROM telegram_sessions WHERE chat_id = $1`

	getTelegramSessionBySessionIDQuery = `
SELECT chat_id, session_id, state_data, created_at, updated_at
FROM telegram_sessions WHERE session_id = $1`

	upsertTelegramSessionQuery = `
INSERT INTO telegram_sessions (chat_id, session_id, state_data, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (chat_id) DO UPDATE
SET session_id = EXCLUDED.session_id,
    state_data = EXCLUDED.state_data,
    updated_at = EXCLUDED.updated_at`

	deleteTelegramSessionQuery = `DELETE FROM telegram_sessions WHERE chat_id = $1`
)

var _ state.Storage = &TelegramSessionRepository{}

// TelegramSessionRepository handles telegram chat -> interview session mapping persistence
type TelegramSessionRepository struct {
	db *pgxpool.Pool
}

// NewTelegramStateRepository creates a new telegram session repository
func NewTelegramStateRepository(db *pgxpool.Pool) *TelegramSessionRepository {
	return &TelegramSessionRepository{db: db}
}

// Get retrieves telegram session by chat ID
func (r *TelegramSessionRepository) Get(ctx context.Context, chatID int64) (*state.TelegramSession, error) {
	row := r.db.QueryRow(ctx, getTelegramSessionQuery, chatID)

	session, err := scanTelegramSession(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: chat %d", state.ErrNotFound, chatID)
		}
		return nil, fmt.Errorf("query telegram session: %w", err)
	}

	return session, nil
}

// Set saves telegram session
func (r *TelegramSessionRepository) Set(ctx context.Context, session *state.TelegramSession) error {
	var sessionID pgtype.UUID
	if session.SessionID != "" {
		parsed, err := uuid.Parse(session.SessionID)
		if err != nil {
			return fmt.Errorf("invalid session ID format: %w", err)
		}
		sessionID = pgtype.UUID{Bytes: parsed, Valid: true}
	}

	stateData := []byte(session.StateData)
	if len(stateData) == 0 {
		stateData = []byte("{}")
	}

	_, err := r.db.Exec(ctx, upsertTelegramSessionQuery,
		session.ChatID,
		sessionID,
		stateData,
		pgtype.Timestamp{Time: session.CreatedAt, Valid: true},
		pgtype.Timestamp{Time: session.UpdatedAt, Valid: true},
	)
	if err != nil {
		return fmt.Errorf("upsert telegram session: %w", err)
	}

	return nil
}

// Delete removes telegram session
func (r *TelegramSessionRepository) Delete(ctx context.Context, chatID int64) error {
	if _, err := r.db.Exec(ctx, deleteTelegramSessionQuery, chatID); err != nil {
		return fmt.Errorf("delete telegram session: %w", err)
	}

	return nil
}

// GetBySessionID retrieves telegram session by interview session ID
func (r *TelegramSessionRepository) GetBySessionID(ctx context.Context, sessionID string) (*state.TelegramSession, error) {
	parsedUUID, err := uuid.Parse(sessionID)
	if err != nil {
		return nil, fmt.Errorf("invalid session ID format: %w", err)
	}

	row := r.db.QueryRow(ctx, getTelegramSessionBySessionIDQuery, pgtype.UUID{Bytes: parsedUUID, Valid: true})

	session, err := scanTelegramSession(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: session %s", state.ErrNotFound, sessionID)
		}
		return nil, fmt.Errorf("query telegram session by session: %w", err)
	}

	return session, nil
}

func scanTelegramSession(row pgx.Row) (*state.TelegramSession, error) {
	var (
		session   state.TelegramSession
		sessionID pgtype.UUID
		stateData []byte
		createdAt pgtype.Timestamp
		updatedAt pgtype.Timestamp
	)

	if err := row.Scan(&session.ChatID, &sessionID, &stateData, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	if sessionID.Valid {
		session.SessionID = uuid.UUID(sessionID.Bytes).String()
	}

	if len(stateData) > 0 {
		session.StateData = json.RawMessage(stateData)
	} else {
		session.StateData = json.RawMessage("{}")
	}

	session.CreatedAt = createdAt.Time
	session.UpdatedAt = updatedAt.Time

	return &session, nil
}
