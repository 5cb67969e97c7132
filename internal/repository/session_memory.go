package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/futig/interview-flow/internal/entity"
	"github.com/patrickmn/go-cache"
)

var _ SessionRepository = &SessionMemory{}

// SessionMemory keeps sessions in process memory. Entries never expire on
// their own; the retention janitor removes them under the session lock.
type SessionMemory struct {
	cache *cache.Cache
}

func NewSessionMemory() *SessionMemory {
	return &SessionMemory{
		cache: cache.New(cache.NoExpiration, 0),
	}
}

func (r *SessionMemory) CreateSession(_ context.Context, session *entity.InterviewSession) error {
	if err := r.cache.Add(session.ID, session.Clone(), cache.NoExpiration); err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	return nil
}

func (r *SessionMemory) GetSession(_ context.Context, id string) (*entity.InterviewSession, error) {
	item, ok := r.cache.Get(id)
	if !ok {
		return nil, entity.ErrSessionNotFound
	}

	return item.(*entity.InterviewSession).Clone(), nil
}

func (r *SessionMemory) SaveSession(_ context.Context, session *entity.InterviewSession) error {
	r.cache.Set(session.ID, session.Clone(), cache.NoExpiration)
	return nil
}

func (r *SessionMemory) ListSessions(_ context.Context, req entity.ListSessionsRequest) ([]*entity.InterviewSession, error) {
	req.Normalize()

	sessions := make([]*entity.InterviewSession, 0)
	for _, item := range r.cache.Items() {
		session := item.Object.(*entity.InterviewSession)
		if req.UserID != "" && session.UserID != req.UserID {
			continue
		}
		if req.State != "" && session.State() != req.State {
			continue
		}
		sessions = append(sessions, session)
	}

	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].CreatedAt.Equal(sessions[j].CreatedAt) {
			return sessions[i].ID < sessions[j].ID
		}
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})

	if req.Skip >= len(sessions) {
		return []*entity.InterviewSession{}, nil
	}

	end := min(req.Skip+req.Limit, len(sessions))
	page := make([]*entity.InterviewSession, 0, end-req.Skip)
	for _, session := range sessions[req.Skip:end] {
		page = append(page, session.Clone())
	}

	return page, nil
}

func (r *SessionMemory) ListSessionsStartedBefore(_ context.Context, before time.Time) ([]string, error) {
	var ids []string
	for id, item := range r.cache.Items() {
		if item.Object.(*entity.InterviewSession).StartTime.Before(before) {
			ids = append(ids, id)
		}
	}

	sort.Strings(ids)
	return ids, nil
}

func (r *SessionMemory) DeleteSession(_ context.Context, id string) error {
	if _, ok := r.cache.Get(id); !ok {
		return entity.ErrSessionNotFound
	}

	r.cache.Delete(id)
	return nil
}
