package bot

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/futig/interview-flow/internal/config"
	"github.com/futig/interview-flow/internal/entity"
	"github.com/futig/interview-flow/internal/telegram/handlers"
	"github.com/futig/interview-flow/internal/telegram/keyboard"
	"github.com/futig/interview-flow/internal/telegram/render"
	"github.com/futig/interview-flow/internal/telegram/state"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const chatID = int64(100)

type fakeAPI struct {
	mu       sync.Mutex
	texts    []string
	requests int
	updates  chan tgbotapi.Update
	stopped  bool
}

func (a *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if m, ok := c.(tgbotapi.MessageConfig); ok {
		a.texts = append(a.texts, m.Text)
	}
	return tgbotapi.Message{}, nil
}

func (a *fakeAPI) Request(tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.requests++
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (a *fakeAPI) GetFileDirectURL(string) (string, error) { return "", nil }

func (a *fakeAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return a.updates
}

func (a *fakeAPI) StopReceivingUpdates() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stopped = true
}

func (a *fakeAPI) lastText() string {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.texts) == 0 {
		return ""
	}
	return a.texts[len(a.texts)-1]
}

// stubSessions answers GetSession only
type stubSessions struct {
	handlers.SessionUsecase
	state entity.InterviewState
	err   error
}

func (s *stubSessions) GetSession(_ context.Context, sessionID string) (*entity.SessionDetailResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &entity.SessionDetailResponse{Session: &entity.SessionDTO{ID: sessionID, State: s.state}}, nil
}

type recordingHandler struct {
	state string
	err   error
	calls chan *handlers.Message
	data  chan *state.StateData
}

func newRecordingHandler(handlerState string) *recordingHandler {
	return &recordingHandler{
		state: handlerState,
		calls: make(chan *handlers.Message, 4),
		data:  make(chan *state.StateData, 4),
	}
}

func (h *recordingHandler) Handle(ctx context.Context, msg *handlers.Message) error {
	data, _ := state.StateDataFromContext(ctx)
	h.data <- data
	h.calls <- msg
	return h.err
}

func (h *recordingHandler) GetState() string { return h.state }

func (h *recordingHandler) next(t *testing.T) *handlers.Message {
	t.Helper()

	select {
	case msg := <-h.calls:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatalf("handler %s was not called", h.state)
		return nil
	}
}

type recordingReporter struct {
	mu   sync.Mutex
	errs []error
}

func (r *recordingReporter) HandleError(_ context.Context, _ int64, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, err)
}

type testBot struct {
	*Bot
	api      *fakeAPI
	states   *state.Manager
	sessions *stubSessions
	reporter *recordingReporter
}

func newTestBot(t *testing.T) *testBot {
	t.Helper()

	api := &fakeAPI{updates: make(chan tgbotapi.Update, 4)}
	states := state.NewManager(state.NewMemoryStorage(0, 0))
	sessions := &stubSessions{state: entity.StateInProgress}
	reporter := &recordingReporter{}
	cfg := &config.TelegramConfig{RateLimitPerMinute: 600, RateLimitBurst: 10, ShutdownTimeout: 1}

	b := New(api, cfg, states, sessions, reporter, keyboard.NewBuilder(), zap.NewNop())
	t.Cleanup(func() { b.rateLimitMW.Stop() })

	return &testBot{Bot: b, api: api, states: states, sessions: sessions, reporter: reporter}
}

func (tb *testBot) register(t *testing.T, handlerState string) *recordingHandler {
	t.Helper()

	h := newRecordingHandler(handlerState)
	require.NoError(t, tb.RegisterHandler(h))
	return h
}

func textUpdate(text string) tgbotapi.Update {
	msg := &tgbotapi.Message{
		MessageID: 1,
		From:      &tgbotapi.User{ID: 7, FirstName: "Alex", UserName: "alex_dev"},
		Chat:      &tgbotapi.Chat{ID: chatID},
		Text:      text,
	}
	if len(text) > 0 && text[0] == '/' {
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(text)}}
	}
	return tgbotapi.Update{Message: msg}
}

func TestBot_MessageWithoutSession(t *testing.T) {
	tb := newTestBot(t)
	inProgress := tb.register(t, handlers.HandlerStateInProgress)

	tb.handleUpdate(textUpdate("hello"))

	assert.Equal(t, render.MsgNoSession, tb.api.lastText())
	assert.Empty(t, inProgress.calls)
}

func TestBot_RoutesByInterviewState(t *testing.T) {
	tb := newTestBot(t)
	ctx := context.Background()
	ready := tb.register(t, handlers.HandlerStateReady)
	inProgress := tb.register(t, handlers.HandlerStateInProgress)

	require.NoError(t, tb.states.Bind(ctx, chatID, "session-1"))

	tb.handleUpdate(textUpdate("my answer"))
	msg := inProgress.next(t)
	assert.Equal(t, "session-1", msg.SessionID)
	assert.Equal(t, "my answer", msg.Text)
	assert.Equal(t, "Alex", msg.UserName)
	assert.NotNil(t, <-inProgress.data, "state data is cached in context")

	tb.sessions.state = entity.StateReady
	tb.handleUpdate(textUpdate("ready"))
	ready.next(t)
}

func TestBot_Commands(t *testing.T) {
	tb := newTestBot(t)
	commands := tb.register(t, handlers.HandlerStateCommand)

	tb.handleUpdate(textUpdate("/help"))

	msg := commands.next(t)
	assert.Equal(t, "help", msg.Command)
	assert.Empty(t, msg.SessionID)
}

func TestBot_ExpiredSessionIsReleased(t *testing.T) {
	tb := newTestBot(t)
	ctx := context.Background()
	tb.register(t, handlers.HandlerStateInProgress)

	require.NoError(t, tb.states.Bind(ctx, chatID, "gone"))
	tb.sessions.err = entity.ErrSessionNotFound

	tb.handleUpdate(textUpdate("hello"))

	assert.Equal(t, render.MsgNoSession, tb.api.lastText())
	active, err := tb.states.ActiveSessionID(ctx, chatID)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestBot_HandlerErrorsAreReported(t *testing.T) {
	tb := newTestBot(t)
	ctx := context.Background()
	h := tb.register(t, handlers.HandlerStateInProgress)
	h.err = entity.ErrConcurrentModification

	require.NoError(t, tb.states.Bind(ctx, chatID, "session-1"))
	tb.handleUpdate(textUpdate("answer"))

	tb.reporter.mu.Lock()
	defer tb.reporter.mu.Unlock()
	require.Len(t, tb.reporter.errs, 1)
	assert.ErrorIs(t, tb.reporter.errs[0], entity.ErrConcurrentModification)
}

func TestBot_MissingHandler(t *testing.T) {
	tb := newTestBot(t)
	require.NoError(t, tb.states.Bind(context.Background(), chatID, "session-1"))

	tb.handleUpdate(textUpdate("answer"))
	assert.Equal(t, render.ErrInvalidState, tb.api.lastText())
}

func TestBot_CallbackIsAnsweredAndHandledAsync(t *testing.T) {
	tb := newTestBot(t)
	callbacks := tb.register(t, handlers.HandlerStateCallback)

	tb.handleUpdate(tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb-1",
		From:    &tgbotapi.User{ID: 7, UserName: "alex_dev"},
		Message: &tgbotapi.Message{MessageID: 5, Chat: &tgbotapi.Chat{ID: chatID}},
		Data:    keyboard.EncodeCallback(keyboard.ActionFlow, keyboard.ValueStart),
	}})

	msg := callbacks.next(t)
	tb.wg.Wait()

	assert.Equal(t, "action:start", msg.CallbackData)
	assert.Equal(t, "alex_dev", msg.UserName)
	assert.Equal(t, chatID, msg.ChatID)

	tb.api.mu.Lock()
	assert.Equal(t, 1, tb.api.requests)
	tb.api.mu.Unlock()
}

func TestBot_RegisterHandlerRejectsUnknownState(t *testing.T) {
	tb := newTestBot(t)
	assert.Error(t, tb.RegisterHandler(newRecordingHandler("DRAFT_COLLECTING")))
}

func TestBot_StartAndStop(t *testing.T) {
	tb := newTestBot(t)
	commands := tb.register(t, handlers.HandlerStateCommand)

	require.NoError(t, tb.Start(context.Background()))
	tb.api.updates <- textUpdate("/start")
	commands.next(t)

	require.NoError(t, tb.Stop())
	require.NoError(t, tb.Stop())

	tb.api.mu.Lock()
	defer tb.api.mu.Unlock()
	assert.True(t, tb.api.stopped)
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Alex", displayName(&tgbotapi.User{FirstName: "Alex", UserName: "alex_dev"}))
	assert.Equal(t, "alex_dev", displayName(&tgbotapi.User{UserName: "alex_dev"}))
	assert.Empty(t, displayName(&tgbotapi.User{}))
}
