package session

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"strings"
	"testing"

	"github.com/futig/interview-flow/internal/config"
	"github.com/futig/interview-flow/internal/entity"
	"github.com/futig/interview-flow/internal/integration/asr"
	"github.com/futig/interview-flow/internal/integration/llm"
	"github.com/futig/interview-flow/internal/pkg/formatter"
	"github.com/futig/interview-flow/internal/pkg/validator"
	"github.com/futig/interview-flow/internal/repository"
	"github.com/futig/interview-flow/internal/usecase/interview"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const longAnswer = "In my previous role I owned the billing backend and my background is in distributed systems. " +
	"My motivation is to grow as an engineer, and my experience with payments fits this position well."

type failingASR struct{}

func (failingASR) TranscribeBytes(context.Context, []byte, string) (string, error) {
	return "", errors.New("asr unavailable")
}

func newTestUsecase(t *testing.T, asrConn ASRConnector) *SessionUsecase {
	t.Helper()

	bank, err := llm.LoadQuestionBank("")
	require.NoError(t, err)
	mock := llm.NewMockConnector(bank, zap.NewNop())

	engine := interview.NewEngine(
		repository.NewSessionMemory(),
		mock, mock, mock,
		interview.DefaultPolicy(),
		interview.DefaultIntroductionScript(),
		zap.NewNop(),
	)

	if asrConn == nil {
		asrConn = asr.NewMockConnector(zap.NewNop())
	}

	v := validator.NewValidator(config.FileUploadConfig{MaxAudioFileSize: 1 << 20, MaxUploadSize: 2 << 20})
	return NewUsecase(engine, v, asrConn, formatter.NewFactory(""), zap.NewNop())
}

// readySession creates a session with a complete profile and generated rounds.
func readySession(t *testing.T, uc *SessionUsecase) string {
	t.Helper()
	ctx := context.Background()

	created, err := uc.CreateSession(ctx, &entity.CreateSessionRequest{
		UserID:   "user-1",
		UserName: "Alex",
		UserInfo: &entity.UserInfo{TargetJob: "Backend Engineer", Background: "Computer science"},
	})
	require.NoError(t, err)
	assert.Equal(t, NextActionGenerateRounds, created.NextAction)

	detail, err := uc.GenerateRounds(ctx, created.Session.ID)
	require.NoError(t, err)
	require.Equal(t, entity.StateReady, detail.Session.State)

	return created.Session.ID
}

func audioUpload(t *testing.T, name string, content []byte) *multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("audio", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&body, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })

	return form.File["audio"][0]
}

func TestCreateSession_FirstTimeFlow(t *testing.T) {
	uc := newTestUsecase(t, nil)
	ctx := context.Background()

	created, err := uc.CreateSession(ctx, &entity.CreateSessionRequest{UserID: "user-1", UserName: "Alex", IsFirstTime: true})
	require.NoError(t, err)
	assert.Equal(t, entity.StateIntroduction, created.Session.State)
	assert.Equal(t, NextActionAcknowledgeIntroduction, created.NextAction)
	assert.NotEmpty(t, created.Introduction)
	assert.Nil(t, created.Session.CurrentRound)

	dto, err := uc.AcknowledgeIntroduction(ctx, created.Session.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StateCollectingInfo, dto.State)

	info, err := uc.CollectUserInfo(ctx, created.Session.ID, &entity.UserInfo{TargetJob: "Backend Engineer"})
	require.NoError(t, err)
	assert.Equal(t, []string{"background"}, info.MissingFields)

	_, err = uc.GenerateRounds(ctx, created.Session.ID)
	var missing *entity.MissingInfoError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"background"}, missing.Fields)

	_, err = uc.PrepareGeneration(ctx, created.Session.ID)
	require.ErrorIs(t, err, entity.ErrMissingRequiredInfo)
}

func TestCreateSession_Validation(t *testing.T) {
	uc := newTestUsecase(t, nil)

	_, err := uc.CreateSession(context.Background(), &entity.CreateSessionRequest{})
	require.ErrorIs(t, err, entity.ErrMissingField)

	_, err = uc.CreateSession(context.Background(), &entity.CreateSessionRequest{UserID: "u", CallbackURL: "not a url"})
	require.ErrorIs(t, err, entity.ErrInvalidParameter)
}

func TestFullInterview(t *testing.T) {
	uc := newTestUsecase(t, nil)
	ctx := context.Background()
	id := readySession(t, uc)

	detail, err := uc.GetSession(ctx, id)
	require.NoError(t, err)
	require.Len(t, detail.Rounds, 9)
	require.NotNil(t, detail.Session.CurrentRound)
	assert.Equal(t, 0, *detail.Session.CurrentRound)

	turn, err := uc.NextQuestion(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, entity.StateInProgress, turn.Session.State)
	assert.Equal(t, 1, turn.Round.RoundNumber)
	assert.Equal(t, turn.Round.Question, turn.Round.Prompt)

	// A short answer earns one follow-up from the mock analyzer
	turn, err = uc.SubmitTextResponse(ctx, id, &entity.SubmitResponseRequest{Response: "I like backend work."})
	require.NoError(t, err)
	assert.True(t, turn.FollowupIssued)
	assert.NotEqual(t, turn.Round.Question, turn.Round.Prompt)
	require.NotNil(t, turn.Analysis)

	turn, err = uc.SubmitTextResponse(ctx, id, &entity.SubmitResponseRequest{Response: longAnswer, Duration: 60})
	require.NoError(t, err)
	assert.False(t, turn.FollowupIssued)
	assert.Equal(t, entity.RoundStatusCompleted, turn.Round.Status)
	require.NotNil(t, turn.Round.Score)

	preview, err := uc.GetSummary(ctx, id)
	require.NoError(t, err)
	assert.False(t, preview.Final)

	_, err = uc.CompleteInterview(ctx, id)
	require.ErrorIs(t, err, entity.ErrRoundsIncomplete)

	for i := 0; i < 8; i++ {
		_, err = uc.NextQuestion(ctx, id)
		require.NoError(t, err)
		turn, err = uc.SkipRound(ctx, id)
		require.NoError(t, err)
	}
	assert.True(t, turn.CompletionEligible)

	_, err = uc.NextQuestion(ctx, id)
	require.ErrorIs(t, err, entity.ErrNoRoundsRemaining)

	final, err := uc.CompleteInterview(ctx, id)
	require.NoError(t, err)
	assert.True(t, final.Final)
	assert.Equal(t, 9, final.Summary.TotalRounds)
	assert.Equal(t, 1, final.Summary.CompletedRounds)
	assert.Equal(t, 8, final.Summary.SkippedRounds)
	assert.Equal(t, entity.SummaryGeneratedByHook, final.Summary.GeneratedBy)

	detail, err = uc.GetSession(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, entity.StateCompleted, detail.Session.State)
	require.NotNil(t, detail.Session.TotalScore)
	assert.InDelta(t, final.Summary.AverageScore, *detail.Session.TotalScore, 0.001)
	assert.Nil(t, detail.Session.CurrentRound)

	report, err := uc.BuildReport(ctx, id, entity.FormatMarkdown)
	require.NoError(t, err)
	assert.Equal(t, "interview-"+id+".md", report.Filename)
	assert.True(t, strings.HasPrefix(string(report.Content), "# Interview report"))

	_, err = uc.Abort(ctx, id, "late abort")
	require.ErrorIs(t, err, entity.ErrSessionTerminal)
}

func TestBuildReport_Errors(t *testing.T) {
	uc := newTestUsecase(t, nil)
	id := readySession(t, uc)

	_, err := uc.BuildReport(context.Background(), id, "html")
	require.ErrorIs(t, err, entity.ErrInvalidParameter)

	_, err = uc.BuildReport(context.Background(), id, entity.FormatPDF)
	require.ErrorIs(t, err, entity.ErrInvalidSessionState)

	_, err = uc.BuildReport(context.Background(), "missing", entity.FormatPDF)
	require.ErrorIs(t, err, entity.ErrSessionNotFound)
}

func TestSubmitAudioResponse(t *testing.T) {
	uc := newTestUsecase(t, nil)
	ctx := context.Background()
	id := readySession(t, uc)

	req := &entity.SubmitAudioResponseRequest{AudioFile: audioUpload(t, "answer.wav", []byte("RIFF-fake-wave")), Duration: 45}

	// No round in progress yet
	_, err := uc.SubmitAudioResponse(ctx, id, req)
	require.ErrorIs(t, err, entity.ErrInvalidStateForQuestion)

	_, err = uc.NextQuestion(ctx, id)
	require.NoError(t, err)

	turn, err := uc.SubmitAudioResponse(ctx, id, req)
	require.NoError(t, err)
	assert.Equal(t, entity.RoundStatusCompleted, turn.Round.Status)

	bad := &entity.SubmitAudioResponseRequest{AudioFile: audioUpload(t, "answer.mp3", []byte("id3"))}
	_, err = uc.SubmitAudioResponse(ctx, id, bad)
	require.ErrorIs(t, err, entity.ErrInvalidExtension)
}

func TestSubmitAudioBytes_TranscriptionFailure(t *testing.T) {
	uc := newTestUsecase(t, failingASR{})
	ctx := context.Background()
	id := readySession(t, uc)

	_, err := uc.NextQuestion(ctx, id)
	require.NoError(t, err)

	_, err = uc.SubmitAudioBytes(ctx, id, []byte("voice"), "voice.ogg", 10)
	require.ErrorIs(t, err, entity.ErrTranscriptionFailed)

	// The round is still waiting for an answer
	detail, err := uc.GetSession(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, entity.RoundStatusInProgress, detail.Rounds[0].Status)
}

func TestListSessions(t *testing.T) {
	uc := newTestUsecase(t, nil)
	ctx := context.Background()
	readySession(t, uc)

	_, err := uc.CreateSession(ctx, &entity.CreateSessionRequest{UserID: "user-2"})
	require.NoError(t, err)

	list, err := uc.ListSessions(ctx, &entity.ListSessionsRequest{UserID: "user-1", Limit: 10})
	require.NoError(t, err)
	require.Len(t, list.Sessions, 1)
	assert.Equal(t, "user-1", list.Sessions[0].UserID)

	list, err = uc.ListSessions(ctx, &entity.ListSessionsRequest{State: entity.StateCollectingInfo, Limit: 10})
	require.NoError(t, err)
	require.Len(t, list.Sessions, 1)
	assert.Equal(t, "user-2", list.Sessions[0].UserID)

	_, err = uc.ListSessions(ctx, &entity.ListSessionsRequest{State: "BOGUS"})
	require.ErrorIs(t, err, entity.ErrInvalidParameter)
}
