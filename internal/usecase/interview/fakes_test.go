package interview

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/futig/interview-flow/internal/entity"
	"github.com/futig/interview-flow/internal/repository"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var baseTime = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

// Now advances one second per call so that start and end stamps differ.
func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(time.Second)
	return c.now
}

type fakeGenerator struct {
	rounds []entity.InterviewRound
	err    error
	block  bool
}

func (g *fakeGenerator) GenerateRounds(ctx context.Context, _ entity.UserInfo) ([]entity.InterviewRound, error) {
	if g.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if g.err != nil {
		return nil, g.err
	}

	out := make([]entity.InterviewRound, len(g.rounds))
	for i := range g.rounds {
		out[i] = g.rounds[i].Clone()
	}
	return out, nil
}

type generatorFunc func(ctx context.Context, info entity.UserInfo) ([]entity.InterviewRound, error)

func (f generatorFunc) GenerateRounds(ctx context.Context, info entity.UserInfo) ([]entity.InterviewRound, error) {
	return f(ctx, info)
}

type analyzerFunc func(ctx context.Context, round entity.InterviewRound, response, audioURL string) (*entity.ResponseAnalysis, error)

func (f analyzerFunc) AnalyzeResponse(ctx context.Context, round entity.InterviewRound, response, audioURL string) (*entity.ResponseAnalysis, error) {
	return f(ctx, round, response, audioURL)
}

type composerFunc func(ctx context.Context, rounds []entity.InterviewRound, averageScore float64) (string, []string, error)

func (f composerFunc) ComposeSummary(ctx context.Context, rounds []entity.InterviewRound, averageScore float64) (string, []string, error) {
	return f(ctx, rounds, averageScore)
}

// scoreAnalyzer returns the given scores in order, one per call.
func scoreAnalyzer(scores ...float64) ResponseAnalyzer {
	var (
		mu   sync.Mutex
		next int
	)

	return analyzerFunc(func(context.Context, entity.InterviewRound, string, string) (*entity.ResponseAnalysis, error) {
		mu.Lock()
		defer mu.Unlock()

		score := 50.0
		if next < len(scores) {
			score = scores[next]
		}
		next++

		return &entity.ResponseAnalysis{
			Score:      score,
			Feedback:   fmt.Sprintf("scored %.0f", score),
			Strengths:  []string{"clarity"},
			Weaknesses: []string{"depth"},
		}, nil
	})
}

func testRounds(n int) []entity.InterviewRound {
	rounds := make([]entity.InterviewRound, n)
	for i := range rounds {
		rounds[i] = entity.InterviewRound{
			Question:       fmt.Sprintf("question %d", i+1),
			ExpectedPoints: []string{"point"},
			SuggestedTime:  120,
		}
	}
	return rounds
}

type testEnv struct {
	engine *Engine
	store  *repository.SessionMemory
	clock  *fakeClock
}

func newTestEnv(t *testing.T, gen QuestionGenerator, analyzer ResponseAnalyzer, composer SummaryComposer, mods ...func(*Policy)) *testEnv {
	t.Helper()

	policy := Policy{
		MaxFollowupsPerRound: 1,
		GenerateTimeout:      time.Second,
		AnalyzeTimeout:       time.Second,
		SummaryTimeout:       time.Second,
	}
	for _, mod := range mods {
		mod(&policy)
	}

	store := repository.NewSessionMemory()
	clock := &fakeClock{now: baseTime}

	engine := NewEngine(store, gen, analyzer, composer, policy, DefaultIntroductionScript(), zap.NewNop())
	engine.now = clock.Now

	return &testEnv{engine: engine, store: store, clock: clock}
}

func completeProfile() *entity.UserInfo {
	return &entity.UserInfo{
		TargetJob:  "backend engineer",
		Background: "five years of Go services",
		Skills:     []string{"go", "postgres"},
	}
}

// readySession creates a session and drives it to READY.
func (env *testEnv) readySession(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	session, _, err := env.engine.CreateSession(ctx, entity.CreateSessionRequest{
		UserID:   "user-1",
		UserName: "Alex",
		UserInfo: completeProfile(),
	})
	require.NoError(t, err)

	_, err = env.engine.GenerateRounds(ctx, session.ID)
	require.NoError(t, err)

	return session.ID
}

// startedSession returns a session with its first question issued.
func (env *testEnv) startedSession(t *testing.T) string {
	t.Helper()

	id := env.readySession(t)
	_, err := env.engine.IssueNextQuestion(context.Background(), id)
	require.NoError(t, err)

	return id
}

func (env *testEnv) load(t *testing.T, id string) *entity.InterviewSession {
	t.Helper()

	session, err := env.store.GetSession(context.Background(), id)
	require.NoError(t, err)
	return session
}

// requireRoundInvariants checks the ordering invariants of a session.
func requireRoundInvariants(t *testing.T, session *entity.InterviewSession) {
	t.Helper()

	inProgress := 0
	for i, r := range session.Rounds {
		require.Equal(t, i+1, r.RoundNumber, "round number of index %d", i)
		if r.Status == entity.RoundStatusInProgress {
			inProgress++
		}
	}
	require.LessOrEqual(t, inProgress, 1, "more than one round in progress")

	current, ok := session.CurrentRound()
	if !ok {
		return
	}

	for i := 0; i < current; i++ {
		require.True(t, session.Rounds[i].Status.IsTerminal(),
			"round %d before current %d has status %s", i+1, current, session.Rounds[i].Status)
	}
	for i := current + 1; i < len(session.Rounds); i++ {
		require.Equal(t, entity.RoundStatusPending, session.Rounds[i].Status,
			"round %d after current %d is not pending", i+1, current)
	}
}
