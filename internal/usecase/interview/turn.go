package interview

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/futig/interview-flow/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const (
	analysisFailedFeedback = "The answer could not be evaluated automatically. It was recorded without a score."
	minScore               = 0.0
	maxScore               = 100.0
)

// TurnResult is the outcome of one turn operation.
type TurnResult struct {
	Session *entity.InterviewSession
	// Round is the round the operation acted on.
	Round *entity.InterviewRound
	// Prompt is what the candidate should answer next within Round.
	Prompt             string
	FollowupIssued     bool
	CompletionEligible bool
}

// IssueNextQuestion puts the lowest-numbered pending round in progress.
// A READY session is started implicitly.
func (e *Engine) IssueNextQuestion(ctx context.Context, sessionID string) (*TurnResult, error) {
	var idx int

	session, err := e.mutate(ctx, sessionID, func(session *entity.InterviewSession) error {
		switch p := session.Phase.(type) {
		case entity.Ready:
			if len(session.Rounds) == 0 {
				return fmt.Errorf("%w: session has no rounds", entity.ErrInvalidStateForQuestion)
			}
		case entity.InProgress:
			if p.CurrentRound < len(session.Rounds) && session.Rounds[p.CurrentRound].Status == entity.RoundStatusInProgress {
				return fmt.Errorf("%w: round %d is still in progress",
					entity.ErrInvalidStateForQuestion, session.Rounds[p.CurrentRound].RoundNumber)
			}
		default:
			return fmt.Errorf("%w: wrong action on state '%s'", entity.ErrInvalidStateForQuestion, session.State())
		}

		next, ok := session.NextPendingRound()
		if !ok {
			return entity.ErrNoRoundsRemaining
		}

		now := e.now()
		round := &session.Rounds[next]
		round.Status = entity.RoundStatusInProgress
		round.StartTime = &now
		round.ActivePrompt = round.Question

		session.Phase = entity.InProgress{CurrentRound: next}
		idx = next
		return nil
	})
	if err != nil {
		return nil, err
	}

	round := session.Rounds[idx].Clone()

	ctxzap.Info(ctx, "question issued",
		zap.String("session_id", sessionID),
		zap.Int("round", round.RoundNumber),
	)

	return &TurnResult{
		Session: session,
		Round:   &round,
		Prompt:  round.ActivePrompt,
	}, nil
}

// SubmitResponse records the answer to the active prompt of the current round.
// The analyzer runs before anything is mutated; its failure is absorbed by the
// round and never fails the session.
func (e *Engine) SubmitResponse(ctx context.Context, sessionID, response, audioURL string, duration int) (*TurnResult, error) {
	response = strings.TrimSpace(response)
	if response == "" {
		return nil, fmt.Errorf("%w: response", entity.ErrMissingField)
	}

	release, err := e.locks.acquire(ctx, sessionID, e.policy.LockWait)
	if err != nil {
		return nil, err
	}
	defer release()

	session, err := e.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	idx, err := activeRoundIndex(session)
	if err != nil {
		return nil, err
	}

	active := session.Rounds[idx].Clone()
	analysis, analyzeErr := callBounded(ctx, e.policy.AnalyzeTimeout, func(analyzeCtx context.Context) (*entity.ResponseAnalysis, error) {
		return e.analyzer.AnalyzeResponse(analyzeCtx, active, response, audioURL)
	})

	if analyzeErr != nil && ctx.Err() != nil {
		// The caller is gone; leave the round untouched so the answer can be resubmitted.
		return nil, fmt.Errorf("analyze response: %w", ctx.Err())
	}
	if analyzeErr == nil && analysis == nil {
		analyzeErr = fmt.Errorf("%w: empty analysis", entity.ErrAnalysisFailed)
	}

	now := e.now()
	round := &session.Rounds[idx]
	recordResponse(round, response, audioURL, duration, now)

	followup := false
	if analyzeErr != nil {
		ctxzap.Warn(ctx, "response analysis failed, round closed without score",
			zap.String("session_id", sessionID),
			zap.Int("round", round.RoundNumber),
			zap.Error(analyzeErr),
		)
		failRoundAnalysis(round, analyzeErr, now)
	} else {
		followup = applyAnalysis(round, analysis, e.policy.MaxFollowupsPerRound, now)
	}

	result := &TurnResult{FollowupIssued: followup}
	if followup {
		result.Prompt = round.ActivePrompt
	} else {
		result.CompletionEligible = advance(session, idx)
	}

	if err := e.save(ctx, session); err != nil {
		return nil, err
	}

	closed := session.Rounds[idx].Clone()
	result.Session = session
	result.Round = &closed

	ctxzap.Info(ctx, "response submitted",
		zap.String("session_id", sessionID),
		zap.Int("round", closed.RoundNumber),
		zap.String("round_status", string(closed.Status)),
		zap.Bool("followup", followup),
	)

	return result, nil
}

// SkipRound closes the current round without a score.
func (e *Engine) SkipRound(ctx context.Context, sessionID string) (*TurnResult, error) {
	var (
		idx      int
		eligible bool
	)

	session, err := e.mutate(ctx, sessionID, func(session *entity.InterviewSession) error {
		var err error
		idx, err = activeRoundIndex(session)
		if err != nil {
			return err
		}

		now := e.now()
		round := &session.Rounds[idx]
		round.Status = entity.RoundStatusSkipped
		round.EndTime = &now
		round.Score = nil
		round.ActivePrompt = ""

		eligible = advance(session, idx)
		return nil
	})
	if err != nil {
		return nil, err
	}

	round := session.Rounds[idx].Clone()

	ctxzap.Info(ctx, "round skipped",
		zap.String("session_id", sessionID),
		zap.Int("round", round.RoundNumber),
	)

	return &TurnResult{
		Session:            session,
		Round:              &round,
		CompletionEligible: eligible,
	}, nil
}

// CompleteInterview computes the summary and commits COMPLETED. Every round
// has to be completed or skipped first, so a READY session with pending rounds
// reports ErrRoundsIncomplete.
func (e *Engine) CompleteInterview(ctx context.Context, sessionID string) (*entity.InterviewSession, error) {
	session, err := e.mutate(ctx, sessionID, func(session *entity.InterviewSession) error {
		open := 0
		for i := range session.Rounds {
			if !session.Rounds[i].Status.IsTerminal() {
				open++
			}
		}
		if open > 0 {
			return fmt.Errorf("%w: %d of %d rounds not finished", entity.ErrRoundsIncomplete, open, len(session.Rounds))
		}

		if _, ok := session.Phase.(entity.InProgress); !ok {
			return fmt.Errorf("%w: wrong action on state '%s'", entity.ErrInvalidStateForQuestion, session.State())
		}

		end := e.now()
		summary := e.composeSummary(ctx, session, end)
		session.Phase = entity.Completed{Summary: summary}
		session.EndTime = &end
		return nil
	})
	if err != nil {
		return nil, err
	}

	score, _ := session.TotalScore()
	ctxzap.Info(ctx, "interview completed",
		zap.String("session_id", sessionID),
		zap.Float64("average_score", score),
	)

	return session, nil
}

// activeRoundIndex returns the index of the round currently in progress.
func activeRoundIndex(session *entity.InterviewSession) (int, error) {
	if session.IsTerminal() {
		return 0, entity.ErrSessionTerminal
	}

	p, ok := session.Phase.(entity.InProgress)
	if !ok {
		return 0, fmt.Errorf("%w: wrong action on state '%s'", entity.ErrInvalidStateForQuestion, session.State())
	}

	if p.CurrentRound >= len(session.Rounds) || session.Rounds[p.CurrentRound].Status != entity.RoundStatusInProgress {
		return 0, fmt.Errorf("%w: no round in progress", entity.ErrInvalidStateForQuestion)
	}

	return p.CurrentRound, nil
}

// recordResponse stores the answer either as the main answer of the round or
// as the answer to the open follow-up.
func recordResponse(round *entity.InterviewRound, response, audioURL string, duration int, now time.Time) {
	if n := len(round.Followups); n > 0 && round.Followups[n-1].AnsweredAt == nil {
		f := &round.Followups[n-1]
		f.Response = response
		f.AudioURL = audioURL
		f.AnsweredAt = &now
		round.ResponseDuration += max(duration, 0)
		return
	}

	round.UserResponse = response
	round.ResponseAudioURL = audioURL
	round.ResponseDuration = max(duration, 0)
}

// applyAnalysis stores the verdict and reports whether a follow-up was issued.
func applyAnalysis(round *entity.InterviewRound, analysis *entity.ResponseAnalysis, maxFollowups int, now time.Time) bool {
	verdict := analysis.Clone()
	verdict.Score = clampScore(verdict.Score)
	verdict.FollowupQuestion = strings.TrimSpace(verdict.FollowupQuestion)

	score := verdict.Score
	round.Analysis = verdict
	round.AnalysisError = ""
	round.Score = &score
	round.Feedback = verdict.Feedback

	if verdict.NeedsFollowup && verdict.FollowupQuestion != "" && round.FollowupCount < maxFollowups {
		round.FollowupCount++
		round.Followups = append(round.Followups, entity.FollowupTurn{
			Question: verdict.FollowupQuestion,
			AskedAt:  now,
		})
		round.ActivePrompt = verdict.FollowupQuestion
		return true
	}

	round.Status = entity.RoundStatusCompleted
	round.EndTime = &now
	round.ActivePrompt = ""
	return false
}

func failRoundAnalysis(round *entity.InterviewRound, cause error, now time.Time) {
	score := 0.0
	round.Analysis = nil
	round.AnalysisError = cause.Error()
	round.Score = &score
	round.Feedback = analysisFailedFeedback
	round.Status = entity.RoundStatusCompleted
	round.EndTime = &now
	round.ActivePrompt = ""
}

// advance moves the current round to the next pending one after round idx
// closed. It reports true when no round is pending anymore; the index then
// stays on the closed round.
func advance(session *entity.InterviewSession, idx int) bool {
	next, ok := session.NextPendingRound()
	if !ok {
		session.Phase = entity.InProgress{CurrentRound: idx}
		return true
	}

	session.Phase = entity.InProgress{CurrentRound: next}
	return false
}

func clampScore(score float64) float64 {
	if math.IsNaN(score) {
		return minScore
	}
	return min(max(score, minScore), maxScore)
}
