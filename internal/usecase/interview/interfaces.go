package interview

import (
	"context"

	"github.com/futig/interview-flow/internal/entity"
)

// The engine calls every collaborator below under a deadline taken from
// Policy. Implementations must return once ctx is done; the engine stops
// waiting at the deadline and drops whatever arrives later.

// QuestionGenerator produces the rounds of a session from the candidate profile.
type QuestionGenerator interface {
	GenerateRounds(ctx context.Context, info entity.UserInfo) ([]entity.InterviewRound, error)
}

// ResponseAnalyzer scores one response. The round carries the active prompt,
// so follow-up answers are analyzed against the follow-up question.
type ResponseAnalyzer interface {
	AnalyzeResponse(ctx context.Context, round entity.InterviewRound, response, audioURL string) (*entity.ResponseAnalysis, error)
}

// SummaryComposer writes the overall feedback and recommendations of a finished interview.
type SummaryComposer interface {
	ComposeSummary(ctx context.Context, rounds []entity.InterviewRound, averageScore float64) (string, []string, error)
}
