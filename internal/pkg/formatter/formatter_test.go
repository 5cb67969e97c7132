package formatter

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/futig/interview-flow/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() (*entity.InterviewSummary, []entity.InterviewRound) {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	score := 82.5

	summary := &entity.InterviewSummary{
		SessionID:       "0b5b2f1e-7c55-4d1a-9a59-5c1d1f6f0a11",
		UserInfo:        entity.UserInfo{Name: "Alex", TargetJob: "Backend Engineer"},
		TotalRounds:     2,
		CompletedRounds: 1,
		SkippedRounds:   1,
		AverageScore:    82.5,
		Strengths:       []string{"clear structure"},
		Weaknesses:      []string{"few metrics"},
		OverallFeedback: "Good interview overall.",
		Recommendations: []string{"Quantify results."},
		StartTime:       start,
		EndTime:         start.Add(15 * time.Minute),
		Duration:        900,
	}

	rounds := []entity.InterviewRound{
		{
			RoundNumber:  1,
			Question:     "Tell me about yourself",
			UserResponse: "I build payment systems.",
			Status:       entity.RoundStatusCompleted,
			Score:        &score,
			Feedback:     "Concise.",
			Followups:    []entity.FollowupTurn{{Question: "Which stack?", Response: "Go and Postgres."}},
		},
		{RoundNumber: 2, Question: "Why us?", Status: entity.RoundStatusSkipped},
	}

	return summary, rounds
}

func TestMarkdownFormatter(t *testing.T) {
	summary, rounds := sampleReport()

	out, err := NewMarkdownFormatter().Format(summary, rounds)
	require.NoError(t, err)
	md := string(out)

	assert.True(t, strings.HasPrefix(md, "# Interview report\n"))
	assert.Contains(t, md, "- **Candidate:** Alex")
	assert.Contains(t, md, "- **Questions answered:** 1 of 2 (1 skipped)")
	assert.Contains(t, md, "- **Average score:** 82.5 / 100")
	assert.Contains(t, md, "- **Duration:** 15m0s")
	assert.Contains(t, md, "## Overall feedback\n\nGood interview overall.")
	assert.Contains(t, md, "## Areas to improve\n\n- few metrics")
	assert.Contains(t, md, "### 1. Tell me about yourself")
	assert.Contains(t, md, "Status: completed, score 82.5")
	assert.Contains(t, md, "Follow-up: Which stack?")
	assert.Contains(t, md, "### 2. Why us?\n\nStatus: skipped")
}

func TestMarkdownFormatter_OmitsEmptyLists(t *testing.T) {
	summary, _ := sampleReport()
	summary.Strengths = nil
	summary.Recommendations = nil

	out, err := NewMarkdownFormatter().Format(summary, nil)
	require.NoError(t, err)

	assert.NotContains(t, string(out), "## Strengths")
	assert.NotContains(t, string(out), "## Recommendations")
	assert.NotContains(t, string(out), "## Questions")
}

func TestPDFFormatter(t *testing.T) {
	summary, rounds := sampleReport()
	summary.UserInfo.Name = "Zoë"

	// No font directory: falls back to the core font
	out, err := NewPDFFormatter(t.TempDir()).Format(summary, rounds)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestFactory(t *testing.T) {
	f := NewFactory("")

	for format, ext := range map[entity.ResultFormat]string{
		entity.FormatMarkdown: ".md",
		entity.FormatDOCX:     ".docx",
		entity.FormatPDF:      ".pdf",
	} {
		fm, err := f.Create(format)
		require.NoError(t, err)
		assert.Equal(t, ext, fm.FileExtension())
	}

	_, err := f.Create("html")
	require.Error(t, err)
}
