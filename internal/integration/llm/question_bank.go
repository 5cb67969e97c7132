package llm

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/futig/interview-flow/internal/entity"
	"gopkg.in/yaml.v3"
)

const targetJobPlaceholder = "{{targetJob}}"

//go:embed question_bank.yaml
var defaultQuestionBank []byte

// QuestionBank is the question source of the mock generator.
type QuestionBank struct {
	Sections []QuestionSection `yaml:"sections"`
}

type QuestionSection struct {
	Title string `yaml:"title"`
	// Count is how many questions of the section go into an interview; zero takes all.
	Count     int            `yaml:"count"`
	Questions []BankQuestion `yaml:"questions"`
}

type BankQuestion struct {
	Question        string   `yaml:"question"`
	ExpectedPoints  []string `yaml:"expected_points"`
	SuggestedTime   int      `yaml:"suggested_time"`
	ScoringCriteria []string `yaml:"scoring_criteria"`
}

// LoadQuestionBank reads a bank from path, or the built-in bank when path is empty.
func LoadQuestionBank(path string) (*QuestionBank, error) {
	data := defaultQuestionBank
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read question bank: %w", err)
		}
	}

	return ParseQuestionBank(data)
}

func ParseQuestionBank(data []byte) (*QuestionBank, error) {
	var bank QuestionBank
	if err := yaml.Unmarshal(data, &bank); err != nil {
		return nil, fmt.Errorf("parse question bank: %w", err)
	}

	if len(bank.Sections) == 0 {
		return nil, errors.New("question bank has no sections")
	}

	for _, s := range bank.Sections {
		if len(s.Questions) == 0 {
			return nil, fmt.Errorf("question bank section %q has no questions", s.Title)
		}
		if s.Count < 0 {
			return nil, fmt.Errorf("question bank section %q has negative count", s.Title)
		}
	}

	return &bank, nil
}

// Rounds builds the rounds of one interview for the given target position.
func (b *QuestionBank) Rounds(targetJob string) []entity.InterviewRound {
	job := strings.TrimSpace(targetJob)
	if job == "" {
		job = "target"
	}

	var rounds []entity.InterviewRound
	for _, s := range b.Sections {
		questions := s.Questions
		if s.Count > 0 && s.Count < len(questions) {
			questions = questions[:s.Count]
		}

		for _, q := range questions {
			rounds = append(rounds, entity.InterviewRound{
				Question:        strings.ReplaceAll(q.Question, targetJobPlaceholder, job),
				ExpectedPoints:  append([]string(nil), q.ExpectedPoints...),
				SuggestedTime:   q.SuggestedTime,
				ScoringCriteria: append([]string(nil), q.ScoringCriteria...),
			})
		}
	}

	return rounds
}
