package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const (
	maxSendRetries = 3
	retrySleepBase = 500 * time.Millisecond
)

// MessageSender provides centralized message sending functionality
type MessageSender struct {
	api    BotAPI
	logger *zap.Logger
}

// NewMessageSender creates a new MessageSender
func NewMessageSender(api BotAPI, logger *zap.Logger) *MessageSender {
	return &MessageSender{
		api:    api,
		logger: logger,
	}
}

// Send sends a message to the specified chat
func (s *MessageSender) Send(chatID int64, text string, markup any) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if markup != nil {
		msg.ReplyMarkup = markup
	}

	if _, err := s.api.Send(msg); err != nil {
		s.logger.Error("failed to send message",
			zap.Error(err),
			zap.Int64("chat_id", chatID),
		)
		return err
	}

	return nil
}

// SendCritical retries a message that must be delivered, e.g. the final summary
func (s *MessageSender) SendCritical(ctx context.Context, chatID int64, text string, markup any) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if markup != nil {
		msg.ReplyMarkup = markup
	}

	err := retry.Do(
		func() error {
			_, err := s.api.Send(msg)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(maxSendRetries),
		retry.Delay(retrySleepBase),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			ctxzap.Warn(ctx, "failed to send message, retrying",
				zap.Error(err),
				zap.Uint("attempt", n+1),
				zap.Int64("chat_id", chatID),
			)
		}),
	)
	if err != nil {
		ctxzap.Error(ctx, "failed to send message after all retries",
			zap.Error(err),
			zap.Int64("chat_id", chatID),
		)
	}

	return err
}

// SendDocument sends a file attachment
func (s *MessageSender) SendDocument(chatID int64, filename string, data []byte) error {
	msg := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: filename, Bytes: data})
	if _, err := s.api.Send(msg); err != nil {
		return fmt.Errorf("send document: %w", err)
	}

	return nil
}

// SendAudioURL sends a voiced question. Only public http(s) URLs can be fetched by Telegram.
func (s *MessageSender) SendAudioURL(chatID int64, audioURL string) error {
	if !strings.HasPrefix(audioURL, "https://") && !strings.HasPrefix(audioURL, "http://") {
		return nil
	}

	if _, err := s.api.Send(tgbotapi.NewAudio(chatID, tgbotapi.FileURL(audioURL))); err != nil {
		return fmt.Errorf("send audio: %w", err)
	}

	return nil
}

// AnswerCallback acknowledges a button press
func (s *MessageSender) AnswerCallback(callbackID, text string) {
	if callbackID == "" {
		return
	}

	if _, err := s.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		s.logger.Error("failed to answer callback",
			zap.Error(err),
			zap.String("callback_id", callbackID),
		)
	}
}
