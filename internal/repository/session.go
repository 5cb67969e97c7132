package repository

import (
	"context"
	"time"

	"github.com/futig/interview-flow/internal/entity"
)

// SessionRepository stores interview sessions keyed by session id.
// Implementations return copies: callers never share memory with the store.
type SessionRepository interface {
	CreateSession(ctx context.Context, session *entity.InterviewSession) error
	GetSession(ctx context.Context, id string) (*entity.InterviewSession, error)
	SaveSession(ctx context.Context, session *entity.InterviewSession) error
	ListSessions(ctx context.Context, req entity.ListSessionsRequest) ([]*entity.InterviewSession, error)
	ListSessionsStartedBefore(ctx context.Context, before time.Time) ([]string, error)
	DeleteSession(ctx context.Context, id string) error
}
