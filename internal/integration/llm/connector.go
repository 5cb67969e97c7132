package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/futig/interview-flow/internal/config"
	"github.com/futig/interview-flow/internal/entity"
	"github.com/futig/interview-flow/internal/integration/common"
	pkgRetry "github.com/futig/interview-flow/internal/pkg/retry"
	pkghttp "github.com/futig/interview-flow/pkg/http"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// Connector talks to the LLM service. It implements the question generator,
// the response analyzer and the summary composer of the interview engine.
type Connector struct {
	config    config.LLMConnectorConfig
	connector *pkghttp.Connector
	logger    *zap.Logger
}

func NewConnector(
	cfg config.LLMConnectorConfig,
	logger *zap.Logger,
) *Connector {
	return &Connector{
		connector: common.NewBaseConnector(cfg.HTTPClientConfig, logger),
		config:    cfg,
		logger:    logger,
	}
}

// GenerateRounds generates the interview rounds for a candidate profile
func (c *Connector) GenerateRounds(ctx context.Context, info entity.UserInfo) ([]entity.InterviewRound, error) {
	ctxzap.Info(ctx, "generating interview rounds via LLM service", zap.String("target_job", info.TargetJob))

	req := &entity.LLMGenerateRoundsRequest{UserInfo: info}

	resp, err := pkgRetry.DoWithData(ctx, c.config.Retry, func(ctx context.Context) (*entity.LLMGenerateRoundsResponse, error) {
		var resp entity.LLMGenerateRoundsResponse
		if err := c.connector.DoRequest(ctx, http.MethodPost, c.config.GenerateRoundsEndpoint, req, &resp); err != nil {
			return nil, err
		}
		return &resp, nil
	})
	if err != nil {
		return nil, fmt.Errorf("generate rounds failed: %w", err)
	}

	if len(resp.Rounds) == 0 {
		return nil, errors.New("invalid rounds response: no rounds")
	}

	rounds := make([]entity.InterviewRound, 0, len(resp.Rounds))
	for _, r := range resp.Rounds {
		rounds = append(rounds, entity.InterviewRound{
			Question:        r.Question,
			ExpectedPoints:  r.ExpectedPoints,
			SuggestedTime:   r.SuggestedTime,
			ScoringCriteria: r.ScoringCriteria,
		})
	}

	ctxzap.Info(ctx, "interview rounds generated successfully", zap.Int("round_count", len(rounds)))

	return rounds, nil
}

// AnalyzeResponse scores the candidate's answer to the active prompt of a round
func (c *Connector) AnalyzeResponse(ctx context.Context, round entity.InterviewRound, response, audioURL string) (
	*entity.ResponseAnalysis, error,
) {
	ctxzap.Info(ctx, "analyzing response via LLM service", zap.Int("round_number", round.RoundNumber))

	req := &entity.LLMAnalyzeResponseRequest{
		Question:       round.Question,
		Prompt:         round.ActivePrompt,
		ExpectedPoints: round.ExpectedPoints,
		Criteria:       round.ScoringCriteria,
		Response:       response,
		AudioURL:       audioURL,
	}

	resp, err := pkgRetry.DoWithData(ctx, c.config.Retry, func(ctx context.Context) (*entity.LLMAnalyzeResponseResponse, error) {
		var resp entity.LLMAnalyzeResponseResponse
		if err := c.connector.DoRequest(ctx, http.MethodPost, c.config.AnalyzeResponseEndpoint, req, &resp); err != nil {
			return nil, err
		}
		return &resp, nil
	})
	if err != nil {
		return nil, fmt.Errorf("analyze response failed: %w", err)
	}

	ctxzap.Info(ctx, "response analyzed successfully",
		zap.Float64("score", resp.Analysis.Score),
		zap.Bool("needs_followup", resp.Analysis.NeedsFollowup),
	)

	return &resp.Analysis, nil
}

// ComposeSummary writes the overall feedback of a finished interview
func (c *Connector) ComposeSummary(ctx context.Context, rounds []entity.InterviewRound, averageScore float64) (
	string, []string, error,
) {
	ctxzap.Info(ctx, "composing summary via LLM service", zap.Int("round_count", len(rounds)))

	req := &entity.LLMComposeSummaryRequest{
		Rounds:       questionsWithAnswers(rounds),
		AverageScore: averageScore,
	}

	resp, err := pkgRetry.DoWithData(ctx, c.config.Retry, func(ctx context.Context) (*entity.LLMComposeSummaryResponse, error) {
		var resp entity.LLMComposeSummaryResponse
		if err := c.connector.DoRequest(ctx, http.MethodPost, c.config.ComposeSummaryEndpoint, req, &resp); err != nil {
			return nil, err
		}
		return &resp, nil
	})
	if err != nil {
		return "", nil, fmt.Errorf("compose summary failed: %w", err)
	}

	if resp.OverallFeedback == "" {
		return "", nil, errors.New("invalid summary response: empty or missing overall_feedback field")
	}

	ctxzap.Info(ctx, "summary composed successfully", zap.Int("feedback_length", len(resp.OverallFeedback)))

	return resp.OverallFeedback, resp.Recommendations, nil
}

func questionsWithAnswers(rounds []entity.InterviewRound) []entity.QuestionWithAnswer {
	result := make([]entity.QuestionWithAnswer, 0, len(rounds))
	for _, r := range rounds {
		result = append(result, entity.QuestionWithAnswer{
			Question: r.Question,
			Answer:   r.UserResponse,
			Status:   string(r.Status),
			Score:    r.Score,
		})
	}
	return result
}
