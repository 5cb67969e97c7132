package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/futig/interview-flow/internal/config"
	"github.com/futig/interview-flow/internal/entity"
	"github.com/futig/interview-flow/internal/pkg/logger"
	"github.com/futig/interview-flow/internal/telegram/handlers"
	"github.com/futig/interview-flow/internal/telegram/keyboard"
	"github.com/futig/interview-flow/internal/telegram/middleware"
	"github.com/futig/interview-flow/internal/telegram/render"
	"github.com/futig/interview-flow/internal/telegram/state"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// API is the part of tgbotapi.BotAPI the bot needs
type API interface {
	handlers.BotAPI
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// ErrorReporter turns handler errors into user-facing replies
type ErrorReporter interface {
	HandleError(ctx context.Context, chatID int64, err error)
}

// Bot represents the Telegram bot
type Bot struct {
	api          API
	cfg          *config.TelegramConfig
	stateManager *state.Manager
	handlers     map[string]handlers.Handler
	sessionUC    handlers.SessionUsecase
	reporter     ErrorReporter
	sender       *handlers.MessageSender
	keyboard     *keyboard.Builder
	logger       *zap.Logger
	loggingMW    *middleware.LoggingMiddleware
	recoveryMW   *middleware.RecoveryMiddleware
	rateLimitMW  *middleware.RateLimiterMiddleware
	updatesChan  tgbotapi.UpdatesChannel
	stopChan     chan struct{}
	stopOnce     sync.Once
	wg           sync.WaitGroup
}

// New creates a new Telegram bot
func New(
	api API,
	cfg *config.TelegramConfig,
	stateManager *state.Manager,
	sessionUC handlers.SessionUsecase,
	reporter ErrorReporter,
	kb *keyboard.Builder,
	logger *zap.Logger,
) *Bot {
	return &Bot{
		api:          api,
		cfg:          cfg,
		stateManager: stateManager,
		sessionUC:    sessionUC,
		reporter:     reporter,
		sender:       handlers.NewMessageSender(api, logger),
		keyboard:     kb,
		logger:       logger,
		handlers:     make(map[string]handlers.Handler),
		stopChan:     make(chan struct{}),
		loggingMW:    middleware.NewLoggingMiddleware(logger),
		recoveryMW:   middleware.NewRecoveryMiddleware(logger, api),
		rateLimitMW: middleware.NewRateLimiterMiddleware(
			cfg.RateLimitPerMinute,
			cfg.RateLimitBurst,
			logger,
			api,
		),
	}
}

// Start starts the bot
func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info("starting telegram bot")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.UpdateTimeout

	b.updatesChan = b.api.GetUpdatesChan(u)

	ctx = ctxzap.ToContext(ctx, b.logger)
	go b.processUpdates(ctx)

	b.logger.Info("telegram bot started successfully")
	return nil
}

// Stop stops the bot gracefully with timeout
func (b *Bot) Stop() error {
	b.logger.Info("stopping telegram bot")

	b.stopOnce.Do(func() {
		close(b.stopChan)
		b.api.StopReceivingUpdates()
		b.rateLimitMW.Stop()
	})

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	shutdownTimeout := time.Duration(b.cfg.ShutdownTimeout) * time.Second
	select {
	case <-done:
		b.logger.Info("all handlers completed gracefully")
	case <-time.After(shutdownTimeout):
		b.logger.Warn("shutdown timeout exceeded, some handlers may not have completed",
			zap.Duration("timeout", shutdownTimeout),
		)
		return fmt.Errorf("shutdown timeout exceeded")
	}

	b.logger.Info("telegram bot stopped successfully")
	return nil
}

func (b *Bot) processUpdates(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			ctxzap.Info(ctx, "context cancelled, stopping update processing")
			return
		case <-b.stopChan:
			ctxzap.Info(ctx, "stop signal received, stopping update processing")
			return
		case update, ok := <-b.updatesChan:
			if !ok {
				return
			}
			b.wg.Add(1)
			go func(u tgbotapi.Update) {
				defer b.wg.Done()
				b.handleUpdateWithMiddleware(u)
			}(update)
		}
	}
}

// handleUpdateWithMiddleware runs rate limiting, logging and panic recovery around routing
func (b *Bot) handleUpdateWithMiddleware(update tgbotapi.Update) {
	b.rateLimitMW.Handle(update, func(u tgbotapi.Update) {
		b.loggingMW.Handle(u, func(u2 tgbotapi.Update) {
			b.recoveryMW.Handle(u2, b.handleUpdate)
		})
	})
}

func (b *Bot) handleUpdate(update tgbotapi.Update) {
	ctx := ctxzap.ToContext(context.Background(), b.logger)

	switch {
	case update.CallbackQuery != nil && update.CallbackQuery.Message != nil:
		b.handleCallbackQuery(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.Chat != nil:
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	msg := newMessage(message, chatID)

	sessionID, err := b.stateManager.ActiveSessionID(ctx, chatID)
	if err != nil {
		b.reporter.HandleError(ctx, chatID, err)
		return
	}
	msg.SessionID = sessionID

	if message.IsCommand() {
		msg.Command = message.Command()
		b.dispatch(ctx, handlers.HandlerStateCommand, msg)
		return
	}

	if sessionID == "" {
		_ = b.sender.Send(chatID, render.MsgNoSession, b.keyboard.StartKeyboard())
		return
	}

	detail, err := b.sessionUC.GetSession(ctx, sessionID)
	if errors.Is(err, entity.ErrSessionNotFound) {
		// expired and cleaned up on the server side
		ctxzap.Warn(ctx, "bound session no longer exists",
			zap.String("session_id", sessionID),
			zap.Int64("chat_id", chatID),
		)
		if err := b.stateManager.Release(ctx, chatID); err != nil {
			ctxzap.Error(ctx, "failed to release chat", zap.Error(err))
		}
		_ = b.sender.Send(chatID, render.MsgNoSession, b.keyboard.StartKeyboard())
		return
	}
	if err != nil {
		b.reporter.HandleError(ctx, chatID, err)
		return
	}

	stateData, err := b.stateManager.GetStateData(ctx, chatID)
	if err != nil {
		b.reporter.HandleError(ctx, chatID, err)
		return
	}
	ctx = state.ContextWithStateData(ctx, stateData)
	ctx = logger.WithSession(ctx, sessionID, string(detail.Session.State))

	b.dispatch(ctx, string(detail.Session.State), msg)
}

func (b *Bot) handleCallbackQuery(ctx context.Context, query *tgbotapi.CallbackQuery) {
	chatID := query.Message.Chat.ID

	msg := &handlers.Message{
		ChatID:       chatID,
		MessageID:    query.Message.MessageID,
		CallbackData: query.Data,
		CallbackID:   query.ID,
	}
	if query.From != nil {
		msg.UserID = query.From.ID
		msg.UserName = displayName(query.From)
	}

	sessionID, err := b.stateManager.ActiveSessionID(ctx, chatID)
	if err != nil {
		b.sender.AnswerCallback(query.ID, "❌")
		b.reporter.HandleError(ctx, chatID, err)
		return
	}
	msg.SessionID = sessionID

	// Answer right away so Telegram does not consider the query stale;
	// the result arrives as a regular chat message.
	b.sender.AnswerCallback(query.ID, "")

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.dispatch(ctx, handlers.HandlerStateCallback, msg)
	}()
}

func (b *Bot) dispatch(ctx context.Context, handlerState string, msg *handlers.Message) {
	handler, exists := b.handlers[handlerState]
	if !exists {
		ctxzap.Warn(ctx, "no handler for state",
			zap.String("state", handlerState),
			zap.Int64("chat_id", msg.ChatID),
		)
		_ = b.sender.Send(msg.ChatID, render.ErrInvalidState, nil)
		return
	}

	if err := handler.Handle(ctx, msg); err != nil {
		b.reporter.HandleError(ctx, msg.ChatID, err)
	}
}

// RegisterHandler registers a handler for a state
func (b *Bot) RegisterHandler(handler handlers.Handler) error {
	handlerState := handler.GetState()

	if !handlers.IsValidState(handlerState) {
		return fmt.Errorf("invalid handler state %q", handlerState)
	}

	b.handlers[handlerState] = handler
	b.logger.Debug("handler registered", zap.String("state", handlerState))
	return nil
}

func newMessage(message *tgbotapi.Message, chatID int64) *handlers.Message {
	msg := &handlers.Message{
		ChatID:    chatID,
		MessageID: message.MessageID,
		Text:      message.Text,
		Voice:     message.Voice,
	}
	if message.From != nil {
		msg.UserID = message.From.ID
		msg.UserName = displayName(message.From)
	}
	return msg
}

func displayName(user *tgbotapi.User) string {
	if user.FirstName != "" {
		return user.FirstName
	}
	return user.UserName
}
