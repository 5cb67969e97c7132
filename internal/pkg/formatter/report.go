package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/futig/interview-flow/internal/entity"
)

const reportTitle = "Interview report"

// document is the format-independent layout every formatter renders.
type document struct {
	title    string
	facts    []fact
	sections []section
}

type fact struct {
	label string
	value string
}

type section struct {
	heading    string
	paragraphs []string
	bullets    []string
	// level 2 sections are nested under the previous level 1 heading
	level int
}

func buildDocument(s *entity.InterviewSummary, rounds []entity.InterviewRound) document {
	doc := document{title: reportTitle}

	doc.facts = []fact{
		{"Candidate", orDash(s.UserInfo.Name)},
		{"Target position", orDash(s.UserInfo.TargetJob)},
		{"Session", s.SessionID},
		{"Started", s.StartTime.UTC().Format(time.RFC1123)},
		{"Finished", s.EndTime.UTC().Format(time.RFC1123)},
		{"Duration", (time.Duration(s.Duration) * time.Second).String()},
		{"Questions answered", fmt.Sprintf("%d of %d (%d skipped)", s.CompletedRounds, s.TotalRounds, s.SkippedRounds)},
		{"Average score", fmt.Sprintf("%.1f / 100", s.AverageScore)},
	}

	doc.sections = append(doc.sections, section{
		heading:    "Overall feedback",
		paragraphs: []string{s.OverallFeedback},
		level:      1,
	})

	if len(s.Strengths) > 0 {
		doc.sections = append(doc.sections, section{heading: "Strengths", bullets: s.Strengths, level: 1})
	}
	if len(s.Weaknesses) > 0 {
		doc.sections = append(doc.sections, section{heading: "Areas to improve", bullets: s.Weaknesses, level: 1})
	}
	if len(s.Recommendations) > 0 {
		doc.sections = append(doc.sections, section{heading: "Recommendations", bullets: s.Recommendations, level: 1})
	}

	if len(rounds) > 0 {
		doc.sections = append(doc.sections, section{heading: "Questions", level: 1})
	}

	for _, r := range rounds {
		sec := section{
			heading:    fmt.Sprintf("%d. %s", r.RoundNumber, r.Question),
			level:      2,
			paragraphs: []string{roundStatusLine(r)},
		}

		if r.UserResponse != "" {
			sec.paragraphs = append(sec.paragraphs, "Answer: "+r.UserResponse)
		}
		for _, f := range r.Followups {
			sec.paragraphs = append(sec.paragraphs, "Follow-up: "+f.Question)
			if f.Response != "" {
				sec.paragraphs = append(sec.paragraphs, "Answer: "+f.Response)
			}
		}
		if r.Feedback != "" {
			sec.paragraphs = append(sec.paragraphs, "Feedback: "+r.Feedback)
		}

		doc.sections = append(doc.sections, sec)
	}

	return doc
}

func roundStatusLine(r entity.InterviewRound) string {
	switch {
	case r.Status == entity.RoundStatusSkipped:
		return "Status: skipped"
	case r.Score != nil:
		return fmt.Sprintf("Status: %s, score %.1f", r.Status, *r.Score)
	default:
		return "Status: " + string(r.Status)
	}
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
