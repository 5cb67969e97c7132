package interview

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/futig/interview-flow/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const maxWeaknessRecommendations = 3

// Aggregate holds the numbers a summary is built from.
type Aggregate struct {
	TotalRounds     int
	CompletedRounds int
	SkippedRounds   int
	AverageScore    float64
	Strengths       []string
	Weaknesses      []string
}

// AggregateRounds folds the rounds of a session. Skipped rounds count towards
// the total only; the average is taken over completed rounds and is 0 when
// there are none.
func AggregateRounds(rounds []entity.InterviewRound) Aggregate {
	agg := Aggregate{
		TotalRounds: len(rounds),
		Strengths:   []string{},
		Weaknesses:  []string{},
	}

	var total float64
	for _, r := range rounds {
		switch r.Status {
		case entity.RoundStatusSkipped:
			agg.SkippedRounds++
		case entity.RoundStatusCompleted:
			agg.CompletedRounds++
			if r.Score != nil {
				total += *r.Score
			}
			if r.Analysis != nil {
				agg.Strengths = entity.UnionStrings(agg.Strengths, r.Analysis.Strengths)
				agg.Weaknesses = entity.UnionStrings(agg.Weaknesses, r.Analysis.Weaknesses)
			}
		}
	}

	if agg.CompletedRounds > 0 {
		agg.AverageScore = total / float64(agg.CompletedRounds)
	}

	return agg
}

// GetSummary returns the final summary of a completed session, or a preview
// built from the rounds finished so far while the interview is running.
func (e *Engine) GetSummary(ctx context.Context, sessionID string) (*entity.InterviewSummary, bool, error) {
	session, err := e.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, false, fmt.Errorf("get session: %w", err)
	}

	switch p := session.Phase.(type) {
	case entity.Completed:
		summary := p.Summary.Clone()
		return &summary, true, nil
	case entity.InProgress:
		summary := templateSummary(session, AggregateRounds(session.Rounds), e.now())
		return &summary, false, nil
	default:
		return nil, false, fmt.Errorf("%w: no summary in state '%s'", entity.ErrInvalidSessionState, session.State())
	}
}

// composeSummary asks the composer for the narrative parts and falls back to
// the template when it fails, times out or returns nothing.
func (e *Engine) composeSummary(ctx context.Context, session *entity.InterviewSession, end time.Time) entity.InterviewSummary {
	agg := AggregateRounds(session.Rounds)
	summary := templateSummary(session, agg, end)

	if e.composer == nil {
		return summary
	}

	rounds := make([]entity.InterviewRound, len(session.Rounds))
	for i := range session.Rounds {
		rounds[i] = session.Rounds[i].Clone()
	}

	type composed struct {
		feedback        string
		recommendations []string
	}
	out, err := callBounded(ctx, e.policy.SummaryTimeout, func(composeCtx context.Context) (composed, error) {
		feedback, recommendations, err := e.composer.ComposeSummary(composeCtx, rounds, agg.AverageScore)
		return composed{feedback: feedback, recommendations: recommendations}, err
	})
	feedback, recommendations := out.feedback, out.recommendations
	if err == nil && strings.TrimSpace(feedback) == "" {
		err = fmt.Errorf("%w: empty feedback", entity.ErrSummaryFailed)
	}
	if err != nil {
		ctxzap.Warn(ctx, "summary composer failed, using template",
			zap.String("session_id", session.ID),
			zap.Error(err),
		)
		return summary
	}

	summary.OverallFeedback = strings.TrimSpace(feedback)
	if recs := entity.UnionStrings(nil, recommendations); len(recs) > 0 {
		summary.Recommendations = recs
	}
	summary.GeneratedBy = entity.SummaryGeneratedByHook

	return summary
}

func templateSummary(session *entity.InterviewSession, agg Aggregate, end time.Time) entity.InterviewSummary {
	feedback, recommendations := templateText(agg)

	return entity.InterviewSummary{
		SessionID:       session.ID,
		UserInfo:        session.UserInfo.Clone(),
		TotalRounds:     agg.TotalRounds,
		CompletedRounds: agg.CompletedRounds,
		SkippedRounds:   agg.SkippedRounds,
		AverageScore:    agg.AverageScore,
		Strengths:       agg.Strengths,
		Weaknesses:      agg.Weaknesses,
		OverallFeedback: feedback,
		Recommendations: recommendations,
		StartTime:       session.StartTime,
		EndTime:         end,
		Duration:        int64(end.Sub(session.StartTime).Seconds()),
		GeneratedBy:     entity.SummaryGeneratedByTemplate,
	}
}

func templateText(agg Aggregate) (string, []string) {
	feedback := fmt.Sprintf(
		"You answered %d of %d questions (%d skipped) with an average score of %.1f out of 100. Overall performance: %s.",
		agg.CompletedRounds, agg.TotalRounds, agg.SkippedRounds, agg.AverageScore, scoreBand(agg),
	)

	var recommendations []string
	for i, w := range agg.Weaknesses {
		if i == maxWeaknessRecommendations {
			break
		}
		recommendations = append(recommendations, "Work on: "+w)
	}

	if agg.SkippedRounds > 0 {
		recommendations = append(recommendations,
			fmt.Sprintf("Prepare answers for the %d skipped question(s); skipping leaves the interviewer without evidence.", agg.SkippedRounds))
	}

	switch {
	case agg.CompletedRounds == 0:
		recommendations = append(recommendations, "Try to answer every question, even briefly, to get an evaluation.")
	case agg.AverageScore < 60:
		recommendations = append(recommendations, "Structure answers around a concrete situation, your actions and the result.")
	case len(recommendations) == 0:
		recommendations = append(recommendations, "Keep practising with mock interviews to stay in shape.")
	}

	return feedback, recommendations
}

func scoreBand(agg Aggregate) string {
	switch {
	case agg.CompletedRounds == 0:
		return "not enough answers to evaluate"
	case agg.AverageScore >= 85:
		return "excellent"
	case agg.AverageScore >= 70:
		return "good"
	case agg.AverageScore >= 50:
		return "fair"
	default:
		return "needs improvement"
	}
}
