package session

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"

	"github.com/futig/interview-flow/internal/entity"
	"github.com/futig/interview-flow/internal/pkg/formatter"
	"github.com/futig/interview-flow/internal/pkg/validator"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// SessionUsecase adapts the interview engine to the API and bot surfaces:
// it validates input, transcribes audio answers and renders reports.
type SessionUsecase struct {
	engine     InterviewEngine
	validator  *validator.Validator
	asr        ASRConnector
	formatters *formatter.Factory
	logger     *zap.Logger
}

// NewUsecase creates a new session use case
func NewUsecase(
	engine InterviewEngine,
	validator *validator.Validator,
	asr ASRConnector,
	formatters *formatter.Factory,
	logger *zap.Logger,
) *SessionUsecase {
	return &SessionUsecase{
		engine:     engine,
		validator:  validator,
		asr:        asr,
		formatters: formatters,
		logger:     logger,
	}
}

// CreateSession opens a new interview and returns the opening script
func (uc *SessionUsecase) CreateSession(ctx context.Context, req *entity.CreateSessionRequest) (*entity.CreateSessionResponse, error) {
	if err := uc.validator.ValidateCreateSession(req); err != nil {
		return nil, err
	}

	session, intro, err := uc.engine.CreateSession(ctx, *req)
	if err != nil {
		return nil, err
	}

	return &entity.CreateSessionResponse{
		Session:      ToSessionDTO(session),
		Introduction: intro,
		NextAction:   nextAction(session),
	}, nil
}

func (uc *SessionUsecase) GetSession(ctx context.Context, sessionID string) (*entity.SessionDetailResponse, error) {
	session, err := uc.engine.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	return toSessionDetail(session), nil
}

func (uc *SessionUsecase) ListSessions(ctx context.Context, req *entity.ListSessionsRequest) (*entity.ListSessionsResponse, error) {
	if err := uc.validator.ValidateListSessions(req); err != nil {
		return nil, err
	}

	sessions, err := uc.engine.ListSessions(ctx, *req)
	if err != nil {
		return nil, err
	}

	dtos := make([]*entity.SessionDTO, 0, len(sessions))
	for _, s := range sessions {
		dtos = append(dtos, ToSessionDTO(s))
	}

	return &entity.ListSessionsResponse{Sessions: dtos}, nil
}

func (uc *SessionUsecase) AcknowledgeIntroduction(ctx context.Context, sessionID string) (*entity.SessionDTO, error) {
	session, err := uc.engine.AcknowledgeIntroduction(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	return ToSessionDTO(session), nil
}

// CollectUserInfo merges a partial profile and reports what is still missing
func (uc *SessionUsecase) CollectUserInfo(ctx context.Context, sessionID string, info *entity.UserInfo) (*entity.CollectInfoResponse, error) {
	if err := uc.validator.ValidateUserInfo(info); err != nil {
		return nil, err
	}

	session, missing, err := uc.engine.CollectUserInfo(ctx, sessionID, *info)
	if err != nil {
		return nil, err
	}

	return &entity.CollectInfoResponse{
		Session:       ToSessionDTO(session),
		MissingFields: missing,
	}, nil
}

// GenerateRounds runs question generation and returns the session with its rounds
func (uc *SessionUsecase) GenerateRounds(ctx context.Context, sessionID string) (*entity.SessionDetailResponse, error) {
	session, err := uc.engine.GenerateRounds(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	return toSessionDetail(session), nil
}

// PrepareGeneration checks that generation can start, so an asynchronous
// request can be rejected before it is accepted.
func (uc *SessionUsecase) PrepareGeneration(ctx context.Context, sessionID string) (*entity.InterviewSession, error) {
	session, err := uc.engine.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if session.IsTerminal() {
		return nil, entity.ErrSessionTerminal
	}

	if session.State() != entity.StateCollectingInfo {
		return nil, fmt.Errorf("%w: wrong action on state '%s'", entity.ErrInvalidSessionState, session.State())
	}

	if missing := session.UserInfo.MissingFields(); len(missing) > 0 {
		return nil, &entity.MissingInfoError{Fields: missing}
	}

	return session, nil
}

func (uc *SessionUsecase) StartInterview(ctx context.Context, sessionID string) (*entity.SessionDetailResponse, error) {
	session, err := uc.engine.StartInterview(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	return toSessionDetail(session), nil
}

// NextQuestion issues the next pending round
func (uc *SessionUsecase) NextQuestion(ctx context.Context, sessionID string) (*entity.TurnResponse, error) {
	result, err := uc.engine.IssueNextQuestion(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	return toTurnResponse(result), nil
}

func (uc *SessionUsecase) SubmitTextResponse(ctx context.Context, sessionID string, req *entity.SubmitResponseRequest) (*entity.TurnResponse, error) {
	if err := uc.validator.ValidateSubmitResponse(req); err != nil {
		return nil, err
	}

	result, err := uc.engine.SubmitResponse(ctx, sessionID, req.Response, req.AudioURL, req.Duration)
	if err != nil {
		return nil, err
	}

	return toTurnResponse(result), nil
}

// SubmitAudioResponse transcribes an uploaded WAV answer and submits the text
func (uc *SessionUsecase) SubmitAudioResponse(ctx context.Context, sessionID string, req *entity.SubmitAudioResponseRequest) (*entity.TurnResponse, error) {
	if err := uc.validator.ValidateSubmitAudioResponse(req); err != nil {
		return nil, err
	}

	audioData, err := readUpload(req.AudioFile)
	if err != nil {
		return nil, err
	}

	return uc.SubmitAudioBytes(ctx, sessionID, audioData, req.AudioFile.Filename, req.Duration)
}

// SubmitAudioBytes transcribes raw audio and submits the text
func (uc *SessionUsecase) SubmitAudioBytes(ctx context.Context, sessionID string, audioData []byte, filename string, duration int) (*entity.TurnResponse, error) {
	session, err := uc.engine.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	// Fail fast before paying for transcription
	if _, ok := session.ActiveRound(); !ok {
		if session.IsTerminal() {
			return nil, entity.ErrSessionTerminal
		}
		return nil, fmt.Errorf("%w: no round in progress", entity.ErrInvalidStateForQuestion)
	}

	text, err := uc.asr.TranscribeBytes(ctx, audioData, filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", entity.ErrTranscriptionFailed, err)
	}

	ctxzap.Debug(ctx, "audio answer transcribed", zap.Int("text_length", len(text)))

	result, err := uc.engine.SubmitResponse(ctx, sessionID, text, "", duration)
	if err != nil {
		return nil, err
	}

	return toTurnResponse(result), nil
}

func (uc *SessionUsecase) SkipRound(ctx context.Context, sessionID string) (*entity.TurnResponse, error) {
	result, err := uc.engine.SkipRound(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	return toTurnResponse(result), nil
}

// CompleteInterview finishes the interview and returns the final summary
func (uc *SessionUsecase) CompleteInterview(ctx context.Context, sessionID string) (*entity.SummaryResponse, error) {
	session, err := uc.engine.CompleteInterview(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	completed, ok := session.Phase.(entity.Completed)
	if !ok {
		return nil, fmt.Errorf("%w: session not completed", entity.ErrInvalidSessionState)
	}

	summary := completed.Summary.Clone()
	return &entity.SummaryResponse{Summary: &summary, Final: true}, nil
}

func (uc *SessionUsecase) GetSummary(ctx context.Context, sessionID string) (*entity.SummaryResponse, error) {
	summary, final, err := uc.engine.GetSummary(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	return &entity.SummaryResponse{Summary: summary, Final: final}, nil
}

func (uc *SessionUsecase) Abort(ctx context.Context, sessionID, reason string) (*entity.SessionDTO, error) {
	session, err := uc.engine.Abort(ctx, sessionID, reason)
	if err != nil {
		return nil, err
	}

	return ToSessionDTO(session), nil
}

// BuildReport renders the final summary of a completed interview
func (uc *SessionUsecase) BuildReport(ctx context.Context, sessionID string, format entity.ResultFormat) (*entity.Report, error) {
	if !format.IsValid() {
		return nil, fmt.Errorf("%w: format must be one of: markdown, docx, pdf", entity.ErrInvalidParameter)
	}

	session, err := uc.engine.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	completed, ok := session.Phase.(entity.Completed)
	if !ok {
		return nil, fmt.Errorf("%w: report is available for completed interviews only, state '%s'",
			entity.ErrInvalidSessionState, session.State())
	}

	fmtr, err := uc.formatters.Create(format)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", entity.ErrInvalidParameter, err)
	}

	content, err := fmtr.Format(&completed.Summary, session.Rounds)
	if err != nil {
		return nil, fmt.Errorf("format report: %w", err)
	}

	return &entity.Report{
		Content:     content,
		ContentType: fmtr.ContentType(),
		Filename:    fmt.Sprintf("interview-%s%s", session.ID, fmtr.FileExtension()),
	}, nil
}

func readUpload(header *multipart.FileHeader) ([]byte, error) {
	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: open audio file: %w", entity.ErrInvalidFile, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("%w: read audio file: %w", entity.ErrInvalidFile, err)
	}

	if len(data) == 0 {
		return nil, fmt.Errorf("%w: audio file is empty", entity.ErrInvalidFile)
	}

	return data, nil
}
