package handlers

import (
	"context"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Telegram typing action expires after 5 seconds
const typingInterval = 4 * time.Second

// TypingNotifier sends periodic "typing" actions while a long operation runs
type TypingNotifier struct {
	api      BotAPI
	chatID   int64
	logger   *zap.Logger
	done     chan struct{}
	stopOnce sync.Once
}

// StartTyping shows the typing indicator until Stop is called or ctx ends
func StartTyping(ctx context.Context, api BotAPI, chatID int64, logger *zap.Logger) *TypingNotifier {
	t := &TypingNotifier{
		api:    api,
		chatID: chatID,
		logger: logger,
		done:   make(chan struct{}),
	}

	t.send()

	go func() {
		ticker := time.NewTicker(typingInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				t.send()
			case <-t.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return t
}

func (t *TypingNotifier) send() {
	action := tgbotapi.NewChatAction(t.chatID, tgbotapi.ChatTyping)
	if _, err := t.api.Request(action); err != nil {
		t.logger.Warn("failed to send typing action",
			zap.Error(err),
			zap.Int64("chat_id", t.chatID),
		)
	}
}

// Stop stops sending typing indicators
func (t *TypingNotifier) Stop() {
	t.stopOnce.Do(func() { close(t.done) })
}
