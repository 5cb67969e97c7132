package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/futig/interview-flow/internal/telegram/render"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

const (
	warningInterval = 30 * time.Second
	bucketIdleTTL   = time.Hour
	cleanupInterval = 10 * time.Minute
)

// bucket is one user's token bucket
type bucket struct {
	mu            sync.Mutex
	tokens        float64
	lastRefill    time.Time
	warnStreak    int
	lastWarningAt time.Time
}

// RateLimiterMiddleware drops updates from users who exceed their token
// bucket. Idle buckets expire out of the cache.
type RateLimiterMiddleware struct {
	buckets    *cache.Cache
	create     sync.Mutex
	burst      float64
	refillRate float64 // tokens per second
	logger     *zap.Logger
	api        Sender
	now        func() time.Time
}

func NewRateLimiterMiddleware(requestsPerMinute, burst int, logger *zap.Logger, api Sender) *RateLimiterMiddleware {
	return newRateLimiter(requestsPerMinute, burst, bucketIdleTTL, cleanupInterval, logger, api)
}

func newRateLimiter(requestsPerMinute, burst int, idleTTL, cleanup time.Duration, logger *zap.Logger, api Sender) *RateLimiterMiddleware {
	return &RateLimiterMiddleware{
		buckets:    cache.New(idleTTL, cleanup),
		burst:      float64(max(burst, 1)),
		refillRate: float64(requestsPerMinute) / 60.0,
		logger:     logger,
		api:        api,
		now:        time.Now,
	}
}

// Stop drops all buckets
func (rl *RateLimiterMiddleware) Stop() {
	rl.buckets.Flush()
}

func (rl *RateLimiterMiddleware) Handle(update tgbotapi.Update, next Next) {
	userID, chatID := updateChat(update)
	if userID == 0 {
		next(update)
		return
	}

	if !rl.allow(userID, chatID) {
		rl.logger.Warn("rate limit exceeded",
			zap.Int64("user_id", userID),
			zap.Int64("chat_id", chatID),
		)
		return
	}

	next(update)
}

func (rl *RateLimiterMiddleware) bucketFor(userID int64, now time.Time) *bucket {
	key := strconv.FormatInt(userID, 10)

	rl.create.Lock()
	defer rl.create.Unlock()

	if v, ok := rl.buckets.Get(key); ok {
		// touch to push expiry forward
		rl.buckets.SetDefault(key, v)
		return v.(*bucket)
	}

	b := &bucket{tokens: rl.burst, lastRefill: now}
	rl.buckets.SetDefault(key, b)
	return b
}

func (rl *RateLimiterMiddleware) allow(userID, chatID int64) bool {
	now := rl.now()
	b := rl.bucketFor(userID, now)

	b.mu.Lock()
	defer b.mu.Unlock()

	b.tokens = min(b.tokens+now.Sub(b.lastRefill).Seconds()*rl.refillRate, rl.burst)
	b.lastRefill = now

	if b.tokens >= 1 {
		b.tokens--
		b.warnStreak = 0
		return true
	}

	if now.Sub(b.lastWarningAt) > warningInterval {
		b.warnStreak++
		b.lastWarningAt = now
		rl.warn(chatID, b.warnStreak)
	}
	return false
}

func (rl *RateLimiterMiddleware) warn(chatID int64, streak int) {
	if chatID == 0 {
		return
	}
	if _, err := rl.api.Send(tgbotapi.NewMessage(chatID, render.RateLimitWarning(streak))); err != nil {
		rl.logger.Error("failed to send rate limit warning",
			zap.Error(err),
			zap.Int64("chat_id", chatID),
		)
	}
}
