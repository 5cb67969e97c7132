package handlers

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/futig/interview-flow/internal/entity"
	"github.com/futig/interview-flow/internal/telegram/keyboard"
	"github.com/futig/interview-flow/internal/telegram/render"
	"github.com/futig/interview-flow/internal/telegram/state"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const abortReasonRestart = "restarted from telegram"

// Flow holds the interview steps shared by the message, command and callback handlers
type Flow struct {
	api      BotAPI
	sender   *MessageSender
	states   *state.Manager
	sessions SessionUsecase
	keyboard *keyboard.Builder
	voice    VoiceFetcher
	logger   *zap.Logger
}

func NewFlow(
	api BotAPI,
	states *state.Manager,
	sessions SessionUsecase,
	kb *keyboard.Builder,
	voice VoiceFetcher,
	logger *zap.Logger,
) *Flow {
	return &Flow{
		api:      api,
		sender:   NewMessageSender(api, logger),
		states:   states,
		sessions: sessions,
		keyboard: kb,
		voice:    voice,
		logger:   logger,
	}
}

// Sender returns the message sender used by the flow
func (f *Flow) Sender() *MessageSender {
	return f.sender
}

// StartInterview creates a new interview for the chat. A still running one is aborted.
func (f *Flow) StartInterview(ctx context.Context, msg *Message) error {
	if msg.SessionID != "" {
		if _, err := f.sessions.Abort(ctx, msg.SessionID, abortReasonRestart); err != nil &&
			!errors.Is(err, entity.ErrSessionTerminal) && !errors.Is(err, entity.ErrSessionNotFound) {
			return fmt.Errorf("abort previous session: %w", err)
		}
	}

	data, err := f.states.GetStateData(ctx, msg.ChatID)
	if err != nil {
		return err
	}

	resp, err := f.sessions.CreateSession(ctx, &entity.CreateSessionRequest{
		UserID:      fmt.Sprintf("telegram:%d", msg.UserID),
		UserName:    msg.UserName,
		IsFirstTime: data.CompletedInterviews == 0,
	})
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	sessionID := resp.Session.ID
	if err := f.states.Bind(ctx, msg.ChatID, sessionID); err != nil {
		return err
	}

	ctx = state.ContextWithStateData(ctx, &state.StateData{
		Version:             state.StateDataCurrentVersion,
		CompletedInterviews: data.CompletedInterviews,
	})

	ctxzap.Info(ctx, "interview started from telegram",
		zap.String("session_id", sessionID),
		zap.String("state", string(resp.Session.State)),
	)

	intro := strings.Join(resp.Introduction, "\n\n")
	if resp.Session.State == entity.StateIntroduction {
		return f.sender.Send(msg.ChatID, intro, f.keyboard.IntroductionKeyboard())
	}

	if intro != "" {
		_ = f.sender.Send(msg.ChatID, intro, nil)
	}

	return f.askProfile(ctx, msg.ChatID, resp.Session.UserInfo)
}

// AcknowledgeIntroduction moves past the introduction and starts the profile questions
func (f *Flow) AcknowledgeIntroduction(ctx context.Context, msg *Message) error {
	dto, err := f.sessions.AcknowledgeIntroduction(ctx, msg.SessionID)
	if err != nil {
		return err
	}

	return f.askProfile(ctx, msg.ChatID, dto.UserInfo)
}

// ApplyProfileAnswer stores a text answer to the pending profile question
func (f *Flow) ApplyProfileAnswer(ctx context.Context, msg *Message) error {
	data, err := f.states.GetStateData(ctx, msg.ChatID)
	if err != nil {
		return err
	}

	text := strings.TrimSpace(msg.Text)
	if data.PendingField == "" || text == "" {
		detail, err := f.sessions.GetSession(ctx, msg.SessionID)
		if err != nil {
			return err
		}
		return f.askProfile(ctx, msg.ChatID, detail.Session.UserInfo)
	}

	patch, err := profilePatch(data.PendingField, text)
	if err != nil {
		return f.sender.Send(msg.ChatID, render.RenderInvalidInput(err.Error()), nil)
	}

	resp, err := f.sessions.CollectUserInfo(ctx, msg.SessionID, patch)
	if err != nil {
		return err
	}

	if slices.Contains(render.OptionalProfileFields, data.PendingField) {
		data.AskedOptional = append(data.AskedOptional, data.PendingField)
	}
	data.PendingField = ""

	return f.askProfileWith(ctx, msg.ChatID, data, resp.Session.UserInfo)
}

// SkipOptionalField skips the pending optional profile question
func (f *Flow) SkipOptionalField(ctx context.Context, msg *Message) error {
	data, err := f.states.GetStateData(ctx, msg.ChatID)
	if err != nil {
		return err
	}

	if slices.Contains(render.OptionalProfileFields, data.PendingField) {
		data.AskedOptional = append(data.AskedOptional, data.PendingField)
		data.PendingField = ""
	}

	detail, err := f.sessions.GetSession(ctx, msg.SessionID)
	if err != nil {
		return err
	}

	return f.askProfileWith(ctx, msg.ChatID, data, detail.Session.UserInfo)
}

func (f *Flow) askProfile(ctx context.Context, chatID int64, info entity.UserInfo) error {
	data, err := f.states.GetStateData(ctx, chatID)
	if err != nil {
		return err
	}

	return f.askProfileWith(ctx, chatID, data, info)
}

// askProfileWith asks the first missing required field, then the optional ones,
// and offers generation once nothing is left
func (f *Flow) askProfileWith(ctx context.Context, chatID int64, data *state.StateData, info entity.UserInfo) error {
	var (
		field  string
		markup any
		text   string
	)

	if missing := info.MissingFields(); len(missing) > 0 {
		field = missing[0]
	} else {
		for _, optional := range render.OptionalProfileFields {
			if !slices.Contains(data.AskedOptional, optional) && !profileFieldSet(info, optional) {
				field = optional
				markup = f.keyboard.OptionalFieldKeyboard()
				break
			}
		}
	}

	data.PendingField = field
	if err := f.states.UpdateStateData(ctx, chatID, data); err != nil {
		return err
	}

	if field == "" {
		text, markup = render.MsgProfileComplete, f.keyboard.GenerateKeyboard()
	} else {
		text = render.RenderProfileQuestion(field)
	}

	return f.sender.Send(chatID, text, markup)
}

// Generate prepares the interview rounds
func (f *Flow) Generate(ctx context.Context, msg *Message) error {
	_ = f.sender.Send(msg.ChatID, render.MsgGenerating, nil)

	typing := StartTyping(ctx, f.api, msg.ChatID, f.logger)
	detail, err := f.sessions.GenerateRounds(ctx, msg.SessionID)
	typing.Stop()
	if err != nil {
		return err
	}

	return f.sender.Send(msg.ChatID, render.RenderRoundsReady(len(detail.Rounds)), f.keyboard.NextQuestionKeyboard())
}

// AskNext issues the next question, or offers completion when none is left
func (f *Flow) AskNext(ctx context.Context, msg *Message) error {
	turn, err := f.sessions.NextQuestion(ctx, msg.SessionID)
	if errors.Is(err, entity.ErrNoRoundsRemaining) {
		return f.sender.Send(msg.ChatID, render.MsgAllAnswered, f.keyboard.CompleteKeyboard())
	}
	if err != nil {
		return err
	}

	return f.presentQuestion(msg.ChatID, turn)
}

// Answer submits a text answer to the active prompt
func (f *Flow) Answer(ctx context.Context, msg *Message) error {
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return f.sender.Send(msg.ChatID, render.MsgVoiceOnly, nil)
	}

	typing := StartTyping(ctx, f.api, msg.ChatID, f.logger)
	turn, err := f.sessions.SubmitTextResponse(ctx, msg.SessionID, &entity.SubmitResponseRequest{Response: text})
	typing.Stop()

	return f.afterSubmit(ctx, msg.ChatID, turn, err)
}

// AnswerVoice transcribes a voice message and submits it
func (f *Flow) AnswerVoice(ctx context.Context, msg *Message) error {
	_ = f.sender.Send(msg.ChatID, render.MsgAnalyzing, nil)

	typing := StartTyping(ctx, f.api, msg.ChatID, f.logger)
	defer typing.Stop()

	audio, err := f.voice.Fetch(ctx, msg.Voice)
	if err != nil {
		return fmt.Errorf("%w: %w", entity.ErrTranscriptionFailed, err)
	}

	turn, err := f.sessions.SubmitAudioBytes(ctx, msg.SessionID, audio, "voice.wav", msg.Voice.Duration)
	typing.Stop()

	return f.afterSubmit(ctx, msg.ChatID, turn, err)
}

func (f *Flow) afterSubmit(ctx context.Context, chatID int64, turn *entity.TurnResponse, err error) error {
	if errors.Is(err, entity.ErrInvalidStateForQuestion) && !errors.Is(err, entity.ErrSessionTerminal) {
		return f.sender.Send(chatID, render.MsgNoActiveQuestion, f.keyboard.NextQuestionKeyboard())
	}
	if err != nil {
		return err
	}

	if turn.FollowupIssued {
		return f.presentQuestion(chatID, turn)
	}

	_ = f.sender.Send(chatID, render.RenderAnalysis(turn.Analysis), nil)
	return f.offerNext(ctx, chatID, turn)
}

// Skip skips the question in progress
func (f *Flow) Skip(ctx context.Context, msg *Message) error {
	turn, err := f.sessions.SkipRound(ctx, msg.SessionID)
	if err != nil {
		return err
	}

	_ = f.sender.Send(msg.ChatID, render.MsgQuestionSkipped, nil)
	return f.offerNext(ctx, msg.ChatID, turn)
}

func (f *Flow) offerNext(ctx context.Context, chatID int64, turn *entity.TurnResponse) error {
	if turn.CompletionEligible {
		return f.sender.Send(chatID, render.MsgAllAnswered, f.keyboard.CompleteKeyboard())
	}

	progress := ""
	if detail, err := f.sessions.GetSession(ctx, turn.Session.ID); err == nil {
		progress = render.RenderProgress(detail.Rounds)
	}

	return f.sender.Send(chatID, strings.TrimSpace("Progress: "+progress), f.keyboard.NextQuestionKeyboard())
}

func (f *Flow) presentQuestion(chatID int64, turn *entity.TurnResponse) error {
	if turn.Round == nil {
		return fmt.Errorf("%w: no round in turn", entity.ErrInvalidStateForQuestion)
	}

	if err := f.sender.Send(chatID, render.RenderQuestion(turn.Round, turn.Session.TotalRounds), f.keyboard.AnswerKeyboard()); err != nil {
		return err
	}

	if turn.Round.AudioURL != "" && turn.Round.Prompt == turn.Round.Question {
		if err := f.sender.SendAudioURL(chatID, turn.Round.AudioURL); err != nil {
			f.logger.Warn("failed to send voiced question", zap.Error(err), zap.Int64("chat_id", chatID))
		}
	}

	return nil
}

// Complete finishes the interview and sends the summary
func (f *Flow) Complete(ctx context.Context, msg *Message) error {
	_ = f.sender.Send(msg.ChatID, render.MsgCompleting, nil)

	typing := StartTyping(ctx, f.api, msg.ChatID, f.logger)
	resp, err := f.sessions.CompleteInterview(ctx, msg.SessionID)
	typing.Stop()
	if err != nil {
		return err
	}

	if err := f.states.MarkCompleted(ctx, msg.ChatID); err != nil {
		ctxzap.Error(ctx, "failed to mark interview completed", zap.Error(err))
	}

	return f.sender.SendCritical(ctx, msg.ChatID, render.RenderSummary(resp.Summary, true), f.keyboard.ReportKeyboard())
}

// Summary sends the final summary, or a preview while the interview runs
func (f *Flow) Summary(ctx context.Context, msg *Message) error {
	resp, err := f.sessions.GetSummary(ctx, msg.SessionID)
	if err != nil {
		return err
	}

	var markup any
	if resp.Final {
		markup = f.keyboard.ReportKeyboard()
	}

	return f.sender.Send(msg.ChatID, render.RenderSummary(resp.Summary, resp.Final), markup)
}

// SendReport renders the report of a completed interview as a document
func (f *Flow) SendReport(ctx context.Context, msg *Message, format entity.ResultFormat) error {
	report, err := f.sessions.BuildReport(ctx, msg.SessionID, format)
	if errors.Is(err, entity.ErrInvalidSessionState) {
		return f.sender.Send(msg.ChatID, render.ErrReportNotAvailable, nil)
	}
	if err != nil {
		return err
	}

	return f.sender.SendDocument(msg.ChatID, report.Filename, report.Content)
}

// RequestCancel asks the candidate to confirm stopping the interview
func (f *Flow) RequestCancel(ctx context.Context, msg *Message) error {
	data, err := f.states.GetStateData(ctx, msg.ChatID)
	if err != nil {
		return err
	}

	data.PendingConfirmation = keyboard.ValueCancel
	if err := f.states.UpdateStateData(ctx, msg.ChatID, data); err != nil {
		return err
	}

	return f.sender.Send(msg.ChatID, render.MsgCancelConfirm, f.keyboard.ConfirmCancelKeyboard())
}

// ConfirmCancel aborts the interview if the cancellation was requested
func (f *Flow) ConfirmCancel(ctx context.Context, msg *Message, confirmed bool) error {
	data, err := f.states.GetStateData(ctx, msg.ChatID)
	if err != nil {
		return err
	}

	if data.PendingConfirmation != keyboard.ValueCancel {
		return nil
	}

	if !confirmed {
		data.PendingConfirmation = ""
		if err := f.states.UpdateStateData(ctx, msg.ChatID, data); err != nil {
			return err
		}
		return f.sender.Send(msg.ChatID, render.MsgContinue, nil)
	}

	if msg.SessionID != "" {
		if _, err := f.sessions.Abort(ctx, msg.SessionID, "cancelled by candidate"); err != nil &&
			!errors.Is(err, entity.ErrSessionTerminal) && !errors.Is(err, entity.ErrSessionNotFound) {
			return err
		}
	}

	if err := f.states.Release(ctx, msg.ChatID); err != nil {
		return err
	}

	return f.sender.Send(msg.ChatID, render.MsgSessionFinished, f.keyboard.StartKeyboard())
}

func profilePatch(field, text string) (*entity.UserInfo, error) {
	patch := &entity.UserInfo{}

	switch field {
	case "name":
		patch.Name = text
	case "target_job":
		patch.TargetJob = text
	case "background":
		patch.Background = text
	case "experience":
		patch.Experience = text
	case "skills":
		for _, skill := range strings.Split(text, ",") {
			if skill = strings.TrimSpace(skill); skill != "" {
				patch.Skills = append(patch.Skills, skill)
			}
		}
		if len(patch.Skills) == 0 {
			return nil, errors.New("list at least one skill")
		}
	default:
		return nil, fmt.Errorf("unknown profile field %q", field)
	}

	return patch, nil
}

func profileFieldSet(info entity.UserInfo, field string) bool {
	switch field {
	case "experience":
		return info.Experience != ""
	case "skills":
		return len(info.Skills) > 0
	default:
		return false
	}
}
