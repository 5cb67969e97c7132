package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/futig/interview-flow/internal/entity"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	insertSessionQuery = `
INSERT INTO interview_sessions (id, user_id, state, start_time, payload, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

	upsertSessionQuery = `
INSERT INTO interview_sessions (id, user_id, state, start_time, payload, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE
SET state = EXCLUDED.state,
    payload = EXCLUDED.payload,
    updated_at = EXCLUDED.updated_at`

	getSessionQuery = `SELECT payload FROM interview_sessions WHERE id = $1`

	listSessionsQuery = `
SELECT payload FROM interview_sessions
WHERE ($1::text = '' OR user_id = $1::text)
  AND ($2::text = '' OR state = $2::text)
ORDER BY created_at DESC
OFFSET $3 LIMIT $4`

	listStartedBeforeQuery = `SELECT id FROM interview_sessions WHERE start_time < $1`

	deleteSessionQuery = `DELETE FROM interview_sessions WHERE id = $1`
)

var _ SessionRepository = &SessionPostgres{}

// SessionPostgres implements SessionRepository using PostgreSQL.
// The session aggregate is stored as a JSONB document; the columns next to it
// exist for filtering.
type SessionPostgres struct {
	db *pgxpool.Pool
}

func NewSessionPostgres(db *pgxpool.Pool) *SessionPostgres {
	return &SessionPostgres{db: db}
}

func (r *SessionPostgres) CreateSession(ctx context.Context, session *entity.InterviewSession) error {
	args, err := sessionArgs(session)
	if err != nil {
		return err
	}

	if _, err := r.db.Exec(ctx, insertSessionQuery, args...); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	return nil
}

func (r *SessionPostgres) GetSession(ctx context.Context, id string) (*entity.InterviewSession, error) {
	sessionID, err := parseUUID(id)
	if err != nil {
		return nil, err
	}

	var payload []byte
	if err := r.db.QueryRow(ctx, getSessionQuery, sessionID).Scan(&payload); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, entity.ErrSessionNotFound
		}
		return nil, fmt.Errorf("query session: %w", err)
	}

	return decodeSession(payload)
}

func (r *SessionPostgres) SaveSession(ctx context.Context, session *entity.InterviewSession) error {
	args, err := sessionArgs(session)
	if err != nil {
		return err
	}

	if _, err := r.db.Exec(ctx, upsertSessionQuery, args...); err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}

	return nil
}

func (r *SessionPostgres) ListSessions(ctx context.Context, req entity.ListSessionsRequest) ([]*entity.InterviewSession, error) {
	req.Normalize()

	rows, err := r.db.Query(ctx, listSessionsQuery, req.UserID, string(req.State), req.Skip, req.Limit)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}

	payloads, err := pgx.CollectRows(rows, pgx.RowTo[[]byte])
	if err != nil {
		return nil, fmt.Errorf("collect sessions: %w", err)
	}

	sessions := make([]*entity.InterviewSession, 0, len(payloads))
	for _, payload := range payloads {
		session, err := decodeSession(payload)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}

	return sessions, nil
}

func (r *SessionPostgres) ListSessionsStartedBefore(ctx context.Context, before time.Time) ([]string, error) {
	rows, err := r.db.Query(ctx, listStartedBeforeQuery, pgtype.Timestamptz{Time: before, Valid: true})
	if err != nil {
		return nil, fmt.Errorf("query expired sessions: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[pgtype.UUID])
	if err != nil {
		return nil, fmt.Errorf("collect expired sessions: %w", err)
	}

	result := make([]string, 0, len(ids))
	for _, id := range ids {
		result = append(result, uuid.UUID(id.Bytes).String())
	}

	return result, nil
}

func (r *SessionPostgres) DeleteSession(ctx context.Context, id string) error {
	sessionID, err := parseUUID(id)
	if err != nil {
		return err
	}

	tag, err := r.db.Exec(ctx, deleteSessionQuery, sessionID)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return entity.ErrSessionNotFound
	}

	return nil
}

func sessionArgs(session *entity.InterviewSession) ([]any, error) {
	sessionID, err := parseUUID(session.ID)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("marshal session: %w", err)
	}

	return []any{
		sessionID,
		session.UserID,
		string(session.State()),
		pgtype.Timestamptz{Time: session.StartTime, Valid: true},
		payload,
		pgtype.Timestamptz{Time: session.CreatedAt, Valid: true},
		pgtype.Timestamptz{Time: session.UpdatedAt, Valid: true},
	}, nil
}

func decodeSession(payload []byte) (*entity.InterviewSession, error) {
	var session entity.InterviewSession
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}

	return &session, nil
}

func parseUUID(id string) (pgtype.UUID, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		// An id that cannot be a uuid cannot name a stored session.
		return pgtype.UUID{}, fmt.Errorf("%w: invalid session ID %q", entity.ErrSessionNotFound, id)
	}

	return pgtype.UUID{Bytes: parsed, Valid: true}, nil
}
