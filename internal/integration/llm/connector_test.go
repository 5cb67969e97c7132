package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/futig/interview-flow/internal/config"
	"github.com/futig/interview-flow/internal/entity"
	pkgRetry "github.com/futig/interview-flow/internal/pkg/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestConnector(url string) *Connector {
	return NewConnector(config.LLMConnectorConfig{
		HTTPClientConfig: config.HTTPClientConfig{
			Url:                   url,
			RequestTimeout:        5 * time.Second,
			ConnTimeout:           time.Second,
			ResponseHeaderTimeout: 5 * time.Second,
			Token:                 "llm-token",
		},
		GenerateRoundsEndpoint:  "/rounds",
		AnalyzeResponseEndpoint: "/analyze",
		ComposeSummaryEndpoint:  "/summary",
		Retry: pkgRetry.RetryConfig{
			Attempts: 3,
			Delay:    time.Millisecond,
			MaxDelay: 5 * time.Millisecond,
		},
	}, zap.NewNop())
}

func TestConnector_GenerateRounds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rounds", r.URL.Path)
		assert.Equal(t, "Bearer llm-token", r.Header.Get("Authorization"))

		var req entity.LLMGenerateRoundsRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Backend Engineer", req.UserInfo.TargetJob)

		_ = json.NewEncoder(w).Encode(entity.LLMGenerateRoundsResponse{Rounds: []entity.LLMRound{
			{Question: "q1", ExpectedPoints: []string{"a"}, SuggestedTime: 90, ScoringCriteria: []string{"c"}},
			{Question: "q2"},
		}})
	}))
	defer srv.Close()

	rounds, err := newTestConnector(srv.URL).GenerateRounds(context.Background(), entity.UserInfo{TargetJob: "Backend Engineer"})
	require.NoError(t, err)
	require.Len(t, rounds, 2)
	assert.Equal(t, "q1", rounds[0].Question)
	assert.Equal(t, []string{"a"}, rounds[0].ExpectedPoints)
	assert.Equal(t, 90, rounds[0].SuggestedTime)
	assert.Equal(t, "q2", rounds[1].Question)
}

func TestConnector_GenerateRounds_EmptyResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"rounds":[]}`))
	}))
	defer srv.Close()

	_, err := newTestConnector(srv.URL).GenerateRounds(context.Background(), entity.UserInfo{})
	require.Error(t, err)
}

func TestConnector_AnalyzeResponse_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}

		var req entity.LLMAnalyzeResponseRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "main question", req.Question)
		assert.Equal(t, "follow-up", req.Prompt)
		assert.Equal(t, "my answer", req.Response)

		_ = json.NewEncoder(w).Encode(entity.LLMAnalyzeResponseResponse{Analysis: entity.ResponseAnalysis{
			Score:            72,
			Feedback:         "ok",
			NeedsFollowup:    true,
			FollowupQuestion: "why?",
		}})
	}))
	defer srv.Close()

	round := entity.InterviewRound{RoundNumber: 1, Question: "main question", ActivePrompt: "follow-up"}
	analysis, err := newTestConnector(srv.URL).AnalyzeResponse(context.Background(), round, "my answer", "")
	require.NoError(t, err)
	assert.EqualValues(t, 2, calls.Load())
	assert.InDelta(t, 72, analysis.Score, 0.001)
	assert.True(t, analysis.NeedsFollowup)
	assert.Equal(t, "why?", analysis.FollowupQuestion)
}

func TestConnector_AnalyzeResponse_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	_, err := newTestConnector(srv.URL).AnalyzeResponse(context.Background(), entity.InterviewRound{}, "x", "")
	require.Error(t, err)
	assert.EqualValues(t, 1, calls.Load())
}

func TestConnector_ComposeSummary(t *testing.T) {
	score := 80.0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req entity.LLMComposeSummaryRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Rounds, 2)
		assert.Equal(t, "completed", req.Rounds[0].Status)
		assert.Equal(t, "skipped", req.Rounds[1].Status)
		assert.InDelta(t, 80, req.AverageScore, 0.001)

		_ = json.NewEncoder(w).Encode(entity.LLMComposeSummaryResponse{
			OverallFeedback: "solid",
			Recommendations: []string{"practice"},
		})
	}))
	defer srv.Close()

	rounds := []entity.InterviewRound{
		{Question: "q1", UserResponse: "a1", Status: entity.RoundStatusCompleted, Score: &score},
		{Question: "q2", Status: entity.RoundStatusSkipped},
	}

	feedback, recs, err := newTestConnector(srv.URL).ComposeSummary(context.Background(), rounds, 80)
	require.NoError(t, err)
	assert.Equal(t, "solid", feedback)
	assert.Equal(t, []string{"practice"}, recs)
}

func TestConnector_ComposeSummary_EmptyFeedback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"overall_feedback":""}`))
	}))
	defer srv.Close()

	_, _, err := newTestConnector(srv.URL).ComposeSummary(context.Background(), nil, 0)
	require.Error(t, err)
}
