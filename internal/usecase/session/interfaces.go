package session

import (
	"context"

	"github.com/futig/interview-flow/internal/entity"
	"github.com/futig/interview-flow/internal/usecase/interview"
)

// InterviewEngine is the interview state machine the use case drives.
type InterviewEngine interface {
	CreateSession(ctx context.Context, req entity.CreateSessionRequest) (*entity.InterviewSession, []string, error)
	GetSession(ctx context.Context, sessionID string) (*entity.InterviewSession, error)
	ListSessions(ctx context.Context, req entity.ListSessionsRequest) ([]*entity.InterviewSession, error)
	AcknowledgeIntroduction(ctx context.Context, sessionID string) (*entity.InterviewSession, error)
	CollectUserInfo(ctx context.Context, sessionID string, info entity.UserInfo) (*entity.InterviewSession, []string, error)
	GenerateRounds(ctx context.Context, sessionID string) (*entity.InterviewSession, error)
	StartInterview(ctx context.Context, sessionID string) (*entity.InterviewSession, error)
	IssueNextQuestion(ctx context.Context, sessionID string) (*interview.TurnResult, error)
	SubmitResponse(ctx context.Context, sessionID, response, audioURL string, duration int) (*interview.TurnResult, error)
	SkipRound(ctx context.Context, sessionID string) (*interview.TurnResult, error)
	CompleteInterview(ctx context.Context, sessionID string) (*entity.InterviewSession, error)
	GetSummary(ctx context.Context, sessionID string) (*entity.InterviewSummary, bool, error)
	Abort(ctx context.Context, sessionID, reason string) (*entity.InterviewSession, error)
}

type ASRConnector interface {
	TranscribeBytes(ctx context.Context, audioData []byte, filename string) (string, error)
}
