package llm

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/futig/interview-flow/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// Short answers get one clarifying follow-up from the mock analyzer.
const mockShortAnswerWords = 15

// MockConnector is an offline stand-in for the LLM service.
type MockConnector struct {
	bank   *QuestionBank
	logger *zap.Logger
}

func NewMockConnector(bank *QuestionBank, logger *zap.Logger) *MockConnector {
	return &MockConnector{
		bank:   bank,
		logger: logger,
	}
}

// GenerateRounds returns the question bank rounds for the target position
func (m *MockConnector) GenerateRounds(ctx context.Context, info entity.UserInfo) ([]entity.InterviewRound, error) {
	ctxzap.Info(ctx, "[MOCK] generating interview rounds", zap.String("target_job", info.TargetJob))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rounds := m.bank.Rounds(info.TargetJob)

	ctxzap.Info(ctx, "[MOCK] interview rounds generated", zap.Int("round_count", len(rounds)))
	return rounds, nil
}

// AnalyzeResponse scores the answer by how many expected points it mentions
func (m *MockConnector) AnalyzeResponse(ctx context.Context, round entity.InterviewRound, response, _ string) (
	*entity.ResponseAnalysis, error,
) {
	ctxzap.Info(ctx, "[MOCK] analyzing response", zap.Int("round_number", round.RoundNumber))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	words := tokenize(response)
	var covered, missed []string
	for _, p := range round.ExpectedPoints {
		if mentions(words, p) {
			covered = append(covered, p)
		} else {
			missed = append(missed, p)
		}
	}

	var score float64
	if len(round.ExpectedPoints) > 0 {
		score = 40 + 60*float64(len(covered))/float64(len(round.ExpectedPoints))
	} else {
		score = min(100, 40+float64(len(words)))
	}

	analysis := &entity.ResponseAnalysis{
		Score:    score,
		Feedback: fmt.Sprintf("The answer covers %d of %d expected points.", len(covered), len(round.ExpectedPoints)),
	}

	for _, p := range covered {
		analysis.Strengths = append(analysis.Strengths, "covered "+p)
	}
	for _, p := range missed {
		analysis.Weaknesses = append(analysis.Weaknesses, "did not mention "+p)
		analysis.Suggestions = append(analysis.Suggestions, "say more about "+p)
	}

	if len(words) < mockShortAnswerWords && round.FollowupCount == 0 {
		analysis.NeedsFollowup = true
		analysis.FollowupQuestion = "Could you give a concrete example to support your answer?"
		if len(missed) > 0 {
			analysis.FollowupQuestion = fmt.Sprintf("Could you tell me more about %s, ideally with a concrete example?", missed[0])
		}
	}

	ctxzap.Info(ctx, "[MOCK] response analyzed", zap.Float64("score", score))
	return analysis, nil
}

// ComposeSummary returns a canned summary that reflects the average score
func (m *MockConnector) ComposeSummary(ctx context.Context, rounds []entity.InterviewRound, averageScore float64) (
	string, []string, error,
) {
	ctxzap.Info(ctx, "[MOCK] composing summary", zap.Int("round_count", len(rounds)))

	if err := ctx.Err(); err != nil {
		return "", nil, err
	}

	feedback := fmt.Sprintf(
		"Thank you for the interview. Across %d questions your average score was %.1f. "+
			"Your answers were structured and showed relevant experience.",
		len(rounds), averageScore,
	)

	recommendations := []string{
		"Support every claim with a concrete example from your work.",
		"Quantify the results of your projects where possible.",
	}

	return feedback, recommendations, nil
}

func tokenize(s string) map[string]struct{} {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	words := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		words[f] = struct{}{}
	}
	return words
}

// mentions reports whether any word of the point occurs in the answer.
func mentions(words map[string]struct{}, point string) bool {
	for w := range tokenize(point) {
		if _, ok := words[w]; ok {
			return true
		}
	}
	return false
}
