package telegram

import (
	"context"
	"fmt"

	"github.com/futig/interview-flow/internal/config"
	"github.com/futig/interview-flow/internal/telegram/bot"
	"github.com/futig/interview-flow/internal/telegram/handlers"
	"github.com/futig/interview-flow/internal/telegram/keyboard"
	"github.com/futig/interview-flow/internal/telegram/state"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Bot is the main telegram bot interface
type Bot interface {
	Start(ctx context.Context) error
	Stop() error
}

// NewBot authorizes against the Bot API and wires the interview handlers
func NewBot(
	cfg *config.TelegramConfig,
	storage state.Storage,
	sessionUC handlers.SessionUsecase,
	logger *zap.Logger,
) (Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("create bot API: %w", err)
	}

	logger.Info("telegram bot authorized",
		zap.String("username", api.Self.UserName),
		zap.Int64("id", api.Self.ID),
	)

	return newBot(api, cfg, storage, sessionUC, handlers.NewVoiceDownloader(api, cfg.FFmpegPath, cfg.MaxVoiceFileSize), logger)
}

func newBot(
	api bot.API,
	cfg *config.TelegramConfig,
	storage state.Storage,
	sessionUC handlers.SessionUsecase,
	voice handlers.VoiceFetcher,
	logger *zap.Logger,
) (*bot.Bot, error) {
	stateManager := state.NewManager(storage)
	kb := keyboard.NewBuilder()
	flow := handlers.NewFlow(api, stateManager, sessionUC, kb, voice, logger)

	b := bot.New(api, cfg, stateManager, sessionUC, flow, kb, logger)

	registered := []handlers.Handler{
		handlers.NewCallbackHandler(flow),
		handlers.NewCommandHandler(flow),
		handlers.NewIntroductionHandler(flow),
		handlers.NewProfileHandler(flow),
		handlers.NewGeneratingHandler(flow),
		handlers.NewReadyHandler(flow),
		handlers.NewAnswerHandler(flow),
		handlers.NewCompletedHandler(flow),
		handlers.NewErrorStateHandler(flow),
	}
	for _, h := range registered {
		if err := b.RegisterHandler(h); err != nil {
			return nil, err
		}
	}

	logger.Info("telegram handlers registered", zap.Int("handler_count", len(registered)))

	return b, nil
}
