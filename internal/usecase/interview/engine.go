package interview

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/futig/interview-flow/internal/entity"
	"github.com/futig/interview-flow/internal/repository"
	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const (
	defaultSuggestedTime = 180
	defaultAbortReason   = "interview aborted"
)

var (
	defaultExpectedPoints  = []string{"professional competence", "communication", "logical thinking"}
	defaultScoringCriteria = []string{"completeness of the answer", "depth of understanding", "clarity of expression"}
)

// Policy holds the tunables of the interview flow.
type Policy struct {
	// MaxFollowupsPerRound bounds clarifying sub-turns inside one round.
	MaxFollowupsPerRound int
	GenerateTimeout      time.Duration
	AnalyzeTimeout       time.Duration
	SummaryTimeout       time.Duration
	// LockWait bounds how long a call waits for an in-flight transition on
	// the same session. Zero waits until the caller's context is done.
	LockWait time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		MaxFollowupsPerRound: 1,
		GenerateTimeout:      90 * time.Second,
		AnalyzeTimeout:       30 * time.Second,
		SummaryTimeout:       30 * time.Second,
	}
}

// Engine owns the lifecycle of interview sessions. Every mutation runs under
// the session's lock and is committed to the store before the lock is released.
type Engine struct {
	store     repository.SessionRepository
	generator QuestionGenerator
	analyzer  ResponseAnalyzer
	composer  SummaryComposer
	policy    Policy
	script    IntroductionScript
	locks     *sessionLocks
	logger    *zap.Logger
	now       func() time.Time
}

func NewEngine(
	store repository.SessionRepository,
	generator QuestionGenerator,
	analyzer ResponseAnalyzer,
	composer SummaryComposer,
	policy Policy,
	script IntroductionScript,
	logger *zap.Logger,
) *Engine {
	if policy.MaxFollowupsPerRound < 0 {
		policy.MaxFollowupsPerRound = 0
	}

	return &Engine{
		store:     store,
		generator: generator,
		analyzer:  analyzer,
		composer:  composer,
		policy:    policy,
		script:    script,
		locks:     newSessionLocks(),
		logger:    logger,
		now:       time.Now,
	}
}

// CreateSession starts a new interview. First-time candidates without any
// profile data begin with the introduction, everyone else goes straight to
// info collection. The returned lines are the interviewer's opening script.
func (e *Engine) CreateSession(ctx context.Context, req entity.CreateSessionRequest) (*entity.InterviewSession, []string, error) {
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return nil, nil, fmt.Errorf("%w: user_id", entity.ErrMissingField)
	}

	now := e.now()
	session := &entity.InterviewSession{
		ID:          uuid.New().String(),
		UserID:      userID,
		UserName:    strings.TrimSpace(req.UserName),
		Phase:       entity.CollectingInfo{},
		StartTime:   now,
		UserInfo:    entity.UserInfo{Name: strings.TrimSpace(req.UserName)},
		CallbackURL: req.CallbackURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	hasPriorInfo := req.UserInfo != nil && !req.UserInfo.IsEmpty()
	if hasPriorInfo {
		session.UserInfo.Merge(*req.UserInfo)
	}
	if req.IsFirstTime && !hasPriorInfo {
		session.Phase = entity.Introduction{}
	}

	if err := e.store.CreateSession(ctx, session); err != nil {
		return nil, nil, fmt.Errorf("create session: %w", err)
	}

	ctxzap.Info(ctx, "interview session created",
		zap.String("session_id", session.ID),
		zap.String("user_id", session.UserID),
		zap.String("state", string(session.State())),
	)

	return session, e.script.lines(req.IsFirstTime), nil
}

func (e *Engine) GetSession(ctx context.Context, sessionID string) (*entity.InterviewSession, error) {
	session, err := e.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	return session, nil
}

func (e *Engine) ListSessions(ctx context.Context, req entity.ListSessionsRequest) ([]*entity.InterviewSession, error) {
	req.Normalize()

	sessions, err := e.store.ListSessions(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	return sessions, nil
}

// AcknowledgeIntroduction moves a session past the introduction.
func (e *Engine) AcknowledgeIntroduction(ctx context.Context, sessionID string) (*entity.InterviewSession, error) {
	return e.mutate(ctx, sessionID, func(session *entity.InterviewSession) error {
		if _, ok := session.Phase.(entity.Introduction); !ok {
			return wrongState(session)
		}

		session.Phase = entity.CollectingInfo{}
		return nil
	})
}

// CollectUserInfo merges the non-empty fields of info into the profile and
// reports the required fields that are still missing.
func (e *Engine) CollectUserInfo(ctx context.Context, sessionID string, info entity.UserInfo) (*entity.InterviewSession, []string, error) {
	session, err := e.mutate(ctx, sessionID, func(session *entity.InterviewSession) error {
		switch session.Phase.(type) {
		case entity.Introduction, entity.CollectingInfo:
		default:
			return wrongState(session)
		}

		session.UserInfo.Merge(info)
		session.Phase = entity.CollectingInfo{}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return session, session.UserInfo.MissingFields(), nil
}

// GenerateRounds asks the generator for the interview questions. The session
// is GENERATING while the generator runs; generator failure or timeout is fatal
// for the session. When the caller goes away first, the session returns to
// COLLECTING_INFO.
func (e *Engine) GenerateRounds(ctx context.Context, sessionID string) (*entity.InterviewSession, error) {
	release, err := e.locks.acquire(ctx, sessionID, e.policy.LockWait)
	if err != nil {
		return nil, err
	}
	defer release()

	session, err := e.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	if _, ok := session.Phase.(entity.CollectingInfo); !ok {
		return nil, wrongState(session)
	}

	if missing := session.UserInfo.MissingFields(); len(missing) > 0 {
		return nil, &entity.MissingInfoError{Fields: missing}
	}

	session.Phase = entity.Generating{}
	if err := e.save(ctx, session); err != nil {
		return nil, err
	}

	info := session.UserInfo.Clone()
	rounds, genErr := callBounded(ctx, e.policy.GenerateTimeout, func(genCtx context.Context) ([]entity.InterviewRound, error) {
		return e.generator.GenerateRounds(genCtx, info)
	})

	rounds = normalizeRounds(rounds)
	if genErr == nil && len(rounds) == 0 {
		genErr = errors.New("generator returned no rounds")
	}

	// The outcome is committed even when the caller went away meanwhile.
	saveCtx := context.WithoutCancel(ctx)

	if genErr != nil && ctx.Err() != nil {
		// The caller is gone, not the generator; the profile can be submitted again.
		session.Phase = entity.CollectingInfo{}
		if err := e.save(saveCtx, session); err != nil {
			return nil, err
		}

		ctxzap.Warn(ctx, "question generation abandoned by caller",
			zap.String("session_id", sessionID),
			zap.Error(ctx.Err()),
		)

		return nil, fmt.Errorf("generate rounds: %w", ctx.Err())
	}

	if genErr != nil {
		ctxzap.Error(ctx, "question generation failed",
			zap.String("session_id", sessionID),
			zap.Error(genErr),
		)

		e.fail(session, fmt.Sprintf("question generation failed: %v", genErr))
		if err := e.save(saveCtx, session); err != nil {
			return nil, err
		}

		return nil, fmt.Errorf("%w: %v", entity.ErrGenerationFailed, genErr)
	}

	session.Rounds = rounds
	session.Phase = entity.Ready{}
	if err := e.save(saveCtx, session); err != nil {
		return nil, err
	}

	ctxzap.Info(ctx, "interview rounds generated",
		zap.String("session_id", sessionID),
		zap.Int("rounds", len(rounds)),
	)

	return session, nil
}

// StartInterview moves a READY session to IN_PROGRESS at round 0.
func (e *Engine) StartInterview(ctx context.Context, sessionID string) (*entity.InterviewSession, error) {
	return e.mutate(ctx, sessionID, func(session *entity.InterviewSession) error {
		if _, ok := session.Phase.(entity.Ready); !ok {
			return wrongState(session)
		}
		if len(session.Rounds) == 0 {
			return fmt.Errorf("%w: session has no rounds", entity.ErrInvalidSessionState)
		}

		session.Phase = entity.InProgress{CurrentRound: 0}
		return nil
	})
}

// Abort ends a non-terminal session in ERROR with the given reason.
func (e *Engine) Abort(ctx context.Context, sessionID, reason string) (*entity.InterviewSession, error) {
	if strings.TrimSpace(reason) == "" {
		reason = defaultAbortReason
	}

	session, err := e.mutate(ctx, sessionID, func(session *entity.InterviewSession) error {
		e.fail(session, reason)
		return nil
	})
	if err != nil {
		return nil, err
	}

	ctxzap.Info(ctx, "interview session aborted",
		zap.String("session_id", sessionID),
		zap.String("reason", reason),
	)

	return session, nil
}

// CleanupExpiredSessions removes sessions started more than maxAge ago.
// In-flight transitions on those sessions finish before removal.
func (e *Engine) CleanupExpiredSessions(ctx context.Context, maxAge time.Duration) (int, error) {
	ids, err := e.store.ListSessionsStartedBefore(ctx, e.now().Add(-maxAge))
	if err != nil {
		return 0, fmt.Errorf("list expired sessions: %w", err)
	}

	removed := 0
	for _, id := range ids {
		if err := e.removeSession(ctx, id); err != nil {
			if errors.Is(err, entity.ErrSessionNotFound) {
				continue
			}
			return removed, err
		}
		removed++
	}

	if removed > 0 {
		e.logger.Info("expired interview sessions removed",
			zap.Int("removed", removed),
			zap.Duration("max_age", maxAge),
		)
	}

	return removed, nil
}

func (e *Engine) removeSession(ctx context.Context, sessionID string) error {
	release, err := e.locks.acquire(ctx, sessionID, e.policy.LockWait)
	if err != nil {
		return err
	}
	defer release()

	if err := e.store.DeleteSession(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session %s: %w", sessionID, err)
	}

	return nil
}

// mutate applies fn to a fresh copy of the session under its lock and saves
// the result. When fn fails nothing is written.
func (e *Engine) mutate(ctx context.Context, sessionID string, fn func(session *entity.InterviewSession) error) (*entity.InterviewSession, error) {
	release, err := e.locks.acquire(ctx, sessionID, e.policy.LockWait)
	if err != nil {
		return nil, err
	}
	defer release()

	session, err := e.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	if session.IsTerminal() {
		return nil, entity.ErrSessionTerminal
	}

	if err := fn(session); err != nil {
		return nil, err
	}

	if err := e.save(ctx, session); err != nil {
		return nil, err
	}

	return session, nil
}

func (e *Engine) save(ctx context.Context, session *entity.InterviewSession) error {
	session.UpdatedAt = e.now()

	if err := e.store.SaveSession(ctx, session); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	return nil
}

func (e *Engine) fail(session *entity.InterviewSession, reason string) {
	end := e.now()
	session.Phase = entity.Failed{Reason: reason, FailedFrom: session.State()}
	session.EndTime = &end
}

func wrongState(session *entity.InterviewSession) error {
	if session.IsTerminal() {
		return entity.ErrSessionTerminal
	}
	return fmt.Errorf("%w: wrong action on state '%s'", entity.ErrInvalidSessionState, session.State())
}

// normalizeRounds numbers generated rounds from 1, resets their turn state
// and fills in missing scoring metadata. Rounds without a question are dropped.
func normalizeRounds(generated []entity.InterviewRound) []entity.InterviewRound {
	rounds := make([]entity.InterviewRound, 0, len(generated))
	for _, g := range generated {
		question := strings.TrimSpace(g.Question)
		if question == "" {
			continue
		}

		round := entity.InterviewRound{
			RoundNumber:     len(rounds) + 1,
			Question:        question,
			AudioURL:        g.AudioURL,
			Duration:        g.Duration,
			ExpectedPoints:  entity.UnionStrings(nil, g.ExpectedPoints),
			SuggestedTime:   g.SuggestedTime,
			ScoringCriteria: entity.UnionStrings(nil, g.ScoringCriteria),
			Status:          entity.RoundStatusPending,
		}

		if len(round.ExpectedPoints) == 0 {
			round.ExpectedPoints = append([]string(nil), defaultExpectedPoints...)
		}
		if len(round.ScoringCriteria) == 0 {
			round.ScoringCriteria = append([]string(nil), defaultScoringCriteria...)
		}
		if round.SuggestedTime <= 0 {
			round.SuggestedTime = defaultSuggestedTime
		}
		if round.Duration <= 0 {
			round.Duration = round.SuggestedTime
		}

		rounds = append(rounds, round)
	}

	return rounds
}
