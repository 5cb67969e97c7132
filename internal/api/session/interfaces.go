package session

import (
	"context"

	"github.com/futig/interview-flow/internal/entity"
)

type SessionUsecase interface {
	CreateSession(ctx context.Context, req *entity.CreateSessionRequest) (*entity.CreateSessionResponse, error)
	GetSession(ctx context.Context, sessionID string) (*entity.SessionDetailResponse, error)
	ListSessions(ctx context.Context, req *entity.ListSessionsRequest) (*entity.ListSessionsResponse, error)
	AcknowledgeIntroduction(ctx context.Context, sessionID string) (*entity.SessionDTO, error)
	CollectUserInfo(ctx context.Context, sessionID string, info *entity.UserInfo) (*entity.CollectInfoResponse, error)
	PrepareGeneration(ctx context.Context, sessionID string) (*entity.InterviewSession, error)
	GenerateRounds(ctx context.Context, sessionID string) (*entity.SessionDetailResponse, error)
	StartInterview(ctx context.Context, sessionID string) (*entity.SessionDetailResponse, error)
	NextQuestion(ctx context.Context, sessionID string) (*entity.TurnResponse, error)
	SubmitTextResponse(ctx context.Context, sessionID string, req *entity.SubmitResponseRequest) (*entity.TurnResponse, error)
	SubmitAudioResponse(ctx context.Context, sessionID string, req *entity.SubmitAudioResponseRequest) (*entity.TurnResponse, error)
	SkipRound(ctx context.Context, sessionID string) (*entity.TurnResponse, error)
	CompleteInterview(ctx context.Context, sessionID string) (*entity.SummaryResponse, error)
	GetSummary(ctx context.Context, sessionID string) (*entity.SummaryResponse, error)
	Abort(ctx context.Context, sessionID, reason string) (*entity.SessionDTO, error)
	BuildReport(ctx context.Context, sessionID string, format entity.ResultFormat) (*entity.Report, error)
}

type CallbackConnector interface {
	SendError(ctx context.Context, callbackURL string, requestID string, message string, details map[string]any)
	SendRoundsReady(ctx context.Context, callbackURL string, requestID string, data *entity.CallbackRoundsReadyData)
	SendFinalResult(ctx context.Context, callbackURL string, requestID string, data *entity.CallbackFinalResultData)
}
