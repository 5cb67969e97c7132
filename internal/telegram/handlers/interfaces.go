package handlers

import (
	"context"

	"github.com/futig/interview-flow/internal/entity"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// SessionUsecase is the part of the interview usecase the bot drives
type SessionUsecase interface {
	CreateSession(ctx context.Context, req *entity.CreateSessionRequest) (*entity.CreateSessionResponse, error)
	GetSession(ctx context.Context, sessionID string) (*entity.SessionDetailResponse, error)
	AcknowledgeIntroduction(ctx context.Context, sessionID string) (*entity.SessionDTO, error)
	CollectUserInfo(ctx context.Context, sessionID string, info *entity.UserInfo) (*entity.CollectInfoResponse, error)
	GenerateRounds(ctx context.Context, sessionID string) (*entity.SessionDetailResponse, error)
	NextQuestion(ctx context.Context, sessionID string) (*entity.TurnResponse, error)
	SubmitTextResponse(ctx context.Context, sessionID string, req *entity.SubmitResponseRequest) (*entity.TurnResponse, error)
	SubmitAudioBytes(ctx context.Context, sessionID string, audioData []byte, filename string, duration int) (*entity.TurnResponse, error)
	SkipRound(ctx context.Context, sessionID string) (*entity.TurnResponse, error)
	CompleteInterview(ctx context.Context, sessionID string) (*entity.SummaryResponse, error)
	GetSummary(ctx context.Context, sessionID string) (*entity.SummaryResponse, error)
	Abort(ctx context.Context, sessionID, reason string) (*entity.SessionDTO, error)
	BuildReport(ctx context.Context, sessionID string, format entity.ResultFormat) (*entity.Report, error)
}

// BotAPI is the part of tgbotapi.BotAPI the handlers use
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

// VoiceFetcher downloads a voice message and returns it as WAV
type VoiceFetcher interface {
	Fetch(ctx context.Context, voice *tgbotapi.Voice) ([]byte, error)
}
