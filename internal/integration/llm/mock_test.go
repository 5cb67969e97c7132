package llm

import (
	"context"
	"testing"

	"github.com/futig/interview-flow/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newMock(t *testing.T) *MockConnector {
	t.Helper()

	bank, err := LoadQuestionBank("")
	require.NoError(t, err)
	return NewMockConnector(bank, zap.NewNop())
}

func TestDefaultQuestionBank(t *testing.T) {
	bank, err := LoadQuestionBank("")
	require.NoError(t, err)

	counts := make([]int, 0, len(bank.Sections))
	for _, s := range bank.Sections {
		counts = append(counts, s.Count)
	}
	assert.Equal(t, []int{1, 3, 2, 2, 1}, counts)

	rounds := bank.Rounds("Data Analyst")
	require.Len(t, rounds, 9)
	assert.Contains(t, rounds[0].Question, "Data Analyst position")
	for _, r := range rounds {
		assert.NotContains(t, r.Question, targetJobPlaceholder)
		assert.NotEmpty(t, r.ExpectedPoints)
		assert.Positive(t, r.SuggestedTime)
	}
}

func TestParseQuestionBank(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		rounds  int
		wantErr bool
	}{
		{
			name: "count limits section",
			data: `
sections:
  - title: a
    count: 1
    questions:
      - question: one
      - question: two
  - title: b
    questions:
      - question: three
      - question: four
`,
			rounds: 3,
		},
		{name: "no sections", data: "sections: []", wantErr: true},
		{name: "empty section", data: "sections:\n  - title: a\n", wantErr: true},
		{name: "negative count", data: "sections:\n  - title: a\n    count: -1\n    questions:\n      - question: q\n", wantErr: true},
		{name: "broken yaml", data: "sections: [", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bank, err := ParseQuestionBank([]byte(tt.data))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, bank.Rounds("x"), tt.rounds)
		})
	}
}

func TestLoadQuestionBank_MissingFile(t *testing.T) {
	_, err := LoadQuestionBank("testdata/does-not-exist.yaml")
	require.Error(t, err)
}

func TestMockConnector_AnalyzeResponse(t *testing.T) {
	m := newMock(t)
	round := entity.InterviewRound{
		RoundNumber:    1,
		Question:       "Describe a project",
		ExpectedPoints: []string{"role", "result", "challenge"},
	}

	t.Run("full coverage long answer", func(t *testing.T) {
		answer := "My role was tech lead on a payments project. The main challenge was migrating " +
			"a legacy database without downtime, and the result was a forty percent latency reduction for customers."
		analysis, err := m.AnalyzeResponse(context.Background(), round, answer, "")
		require.NoError(t, err)
		assert.InDelta(t, 100, analysis.Score, 0.001)
		assert.False(t, analysis.NeedsFollowup)
		assert.Empty(t, analysis.Weaknesses)
		assert.Len(t, analysis.Strengths, 3)
	})

	t.Run("short answer asks about missed point", func(t *testing.T) {
		analysis, err := m.AnalyzeResponse(context.Background(), round, "My role was developer.", "")
		require.NoError(t, err)
		assert.InDelta(t, 60, analysis.Score, 0.001)
		assert.True(t, analysis.NeedsFollowup)
		assert.Contains(t, analysis.FollowupQuestion, "result")
		assert.Len(t, analysis.Weaknesses, 2)
	})

	t.Run("no second follow-up", func(t *testing.T) {
		r := round
		r.FollowupCount = 1
		analysis, err := m.AnalyzeResponse(context.Background(), r, "short", "")
		require.NoError(t, err)
		assert.False(t, analysis.NeedsFollowup)
		assert.InDelta(t, 40, analysis.Score, 0.001)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := m.AnalyzeResponse(ctx, round, "anything", "")
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestMockConnector_GenerateAndCompose(t *testing.T) {
	m := newMock(t)

	rounds, err := m.GenerateRounds(context.Background(), entity.UserInfo{TargetJob: "QA Engineer"})
	require.NoError(t, err)
	assert.Len(t, rounds, 9)

	feedback, recs, err := m.ComposeSummary(context.Background(), rounds, 75)
	require.NoError(t, err)
	assert.Contains(t, feedback, "75.0")
	assert.NotEmpty(t, recs)
}
