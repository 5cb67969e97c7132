package middleware

import (
	"sync"
	"testing"
	"time"

	"github.com/futig/interview-flow/internal/telegram/render"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []string
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg.Text)
	}
	return tgbotapi.Message{}, nil
}

func textUpdate(userID, chatID int64) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		From: &tgbotapi.User{ID: userID},
		Chat: &tgbotapi.Chat{ID: chatID},
		Text: "hello",
	}}
}

func TestRateLimiter_BurstThenRefill(t *testing.T) {
	sender := &fakeSender{}
	rl := NewRateLimiterMiddleware(60, 2, zap.NewNop(), sender)
	defer rl.Stop()

	now := time.Unix(1_700_000_000, 0)
	rl.now = func() time.Time { return now }

	calls := 0
	next := func(tgbotapi.Update) { calls++ }

	for i := 0; i < 3; i++ {
		rl.Handle(textUpdate(1, 10), next)
	}
	assert.Equal(t, 2, calls)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, render.RateLimitWarning(1), sender.sent[0])

	// Another user has its own bucket
	rl.Handle(textUpdate(2, 20), next)
	assert.Equal(t, 3, calls)

	// One request per second refills
	now = now.Add(time.Second)
	rl.Handle(textUpdate(1, 10), next)
	assert.Equal(t, 4, calls)

	// Warnings are not repeated within the interval
	rl.Handle(textUpdate(1, 10), next)
	assert.Len(t, sender.sent, 1)
}

func TestRateLimiter_IdleBucketsExpire(t *testing.T) {
	rl := newRateLimiter(20, 5, 20*time.Millisecond, 5*time.Millisecond, zap.NewNop(), &fakeSender{})
	defer rl.Stop()

	rl.Handle(textUpdate(1, 10), func(tgbotapi.Update) {})
	assert.Equal(t, 1, rl.buckets.ItemCount())

	assert.Eventually(t, func() bool { return rl.buckets.ItemCount() == 0 }, time.Second, 5*time.Millisecond)
}

func TestRateLimiter_PassesUpdatesWithoutUser(t *testing.T) {
	rl := NewRateLimiterMiddleware(1, 1, zap.NewNop(), &fakeSender{})
	defer rl.Stop()

	calls := 0
	for i := 0; i < 3; i++ {
		rl.Handle(tgbotapi.Update{UpdateID: i}, func(tgbotapi.Update) { calls++ })
	}
	assert.Equal(t, 3, calls)
}

func TestRecovery(t *testing.T) {
	sender := &fakeSender{}
	m := NewRecoveryMiddleware(zap.NewNop(), sender)

	assert.NotPanics(t, func() {
		m.Handle(textUpdate(1, 10), func(tgbotapi.Update) { panic("boom") })
	})
	require.Len(t, sender.sent, 1)
	assert.Equal(t, recoveredMessage, sender.sent[0])
}

func TestLogging_CallsNext(t *testing.T) {
	m := NewLoggingMiddleware(zap.NewNop())

	called := false
	m.Handle(textUpdate(1, 10), func(tgbotapi.Update) { called = true })
	assert.True(t, called)
	assert.Equal(t, "text", updateType(textUpdate(1, 10)))
	assert.Equal(t, "callback", updateType(tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{}}))
}
