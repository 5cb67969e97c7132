package state

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/patrickmn/go-cache"
)

var _ Storage = &MemoryStorage{}

// MemoryStorage keeps chat state in process memory. Chats idle for longer
// than ttl are forgotten.
type MemoryStorage struct {
	cache *cache.Cache
}

func NewMemoryStorage(ttl, cleanupInterval time.Duration) *MemoryStorage {
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}

	return &MemoryStorage{cache: cache.New(ttl, cleanupInterval)}
}

func (s *MemoryStorage) Get(_ context.Context, chatID int64) (*TelegramSession, error) {
	v, ok := s.cache.Get(chatKey(chatID))
	if !ok {
		return nil, fmt.Errorf("%w: chat %d", ErrNotFound, chatID)
	}

	return copySession(v.(*TelegramSession)), nil
}

func (s *MemoryStorage) Set(_ context.Context, session *TelegramSession) error {
	s.cache.SetDefault(chatKey(session.ChatID), copySession(session))
	return nil
}

func (s *MemoryStorage) Delete(_ context.Context, chatID int64) error {
	s.cache.Delete(chatKey(chatID))
	return nil
}

func (s *MemoryStorage) GetBySessionID(_ context.Context, sessionID string) (*TelegramSession, error) {
	for _, item := range s.cache.Items() {
		session := item.Object.(*TelegramSession)
		if sessionID != "" && session.SessionID == sessionID {
			return copySession(session), nil
		}
	}

	return nil, fmt.Errorf("%w: session %s", ErrNotFound, sessionID)
}

func chatKey(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}

func copySession(s *TelegramSession) *TelegramSession {
	c := *s
	c.StateData = slices.Clone(s.StateData)
	return &c
}
