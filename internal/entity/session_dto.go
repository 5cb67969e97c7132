package entity

import (
	"mime/multipart"
	"time"
)

type CreateSessionRequest struct {
	UserID      string    `json:"user_id"`
	UserName    string    `json:"user_name"`
	IsFirstTime bool      `json:"is_first_time"`
	UserInfo    *UserInfo `json:"user_info,omitempty"`
	CallbackURL string    `json:"callback_url,omitempty"`
}

type CreateSessionResponse struct {
	Session      *SessionDTO `json:"session"`
	Introduction []string    `json:"introduction"`
	NextAction   string      `json:"next_action"`
}

type CollectInfoResponse struct {
	Session       *SessionDTO `json:"session"`
	MissingFields []string    `json:"missing_fields"`
}

type GenerateRoundsRequest struct {
	CallbackURL string `json:"callback_url,omitempty"`
}

type SubmitResponseRequest struct {
	Response string `json:"response"`
	AudioURL string `json:"audio_url,omitempty"`
	Duration int    `json:"duration,omitempty"`
}

type SubmitAudioResponseRequest struct {
	AudioFile *multipart.FileHeader
	Duration  int `json:"duration,omitempty"`
}

type AbortSessionRequest struct {
	Reason string `json:"reason"`
}

type ListSessionsRequest struct {
	UserID string
	State  InterviewState
	Skip   int
	Limit  int
}

func (ls *ListSessionsRequest) Normalize() {
	if ls.Skip < 0 {
		ls.Skip = 0
	}

	if ls.Limit <= 0 {
		ls.Limit = 10
	}

	ls.Limit = min(ls.Limit, 100)
}

type ListSessionsResponse struct {
	Sessions []*SessionDTO `json:"sessions"`
}

type ErrorResponse struct {
	Error   string   `json:"error"`
	Message string   `json:"message,omitempty"`
	Fields  []string `json:"fields,omitempty"`
}

// RoundResponse is the candidate-facing view of a round.
type RoundResponse struct {
	RoundNumber   int         `json:"round_number"`
	Question      string      `json:"question"`
	Prompt        string      `json:"prompt,omitempty"`
	AudioURL      string      `json:"audio_url,omitempty"`
	Duration      int         `json:"duration"`
	SuggestedTime int         `json:"suggested_time"`
	Status        RoundStatus `json:"status"`
	Score         *float64    `json:"score,omitempty"`
	Feedback      string      `json:"feedback,omitempty"`
	FollowupCount int         `json:"followup_count"`
}

type SessionDTO struct {
	ID           string         `json:"session_id"`
	UserID       string         `json:"user_id"`
	UserName     string         `json:"user_name"`
	State        InterviewState `json:"state"`
	UserInfo     UserInfo       `json:"user_info"`
	CurrentRound *int           `json:"current_round,omitempty"`
	TotalRounds  int            `json:"total_rounds"`
	TotalScore   *float64       `json:"total_score,omitempty"`
	Feedback     *string        `json:"feedback,omitempty"`
	StartTime    time.Time      `json:"start_time"`
	EndTime      *time.Time     `json:"end_time,omitempty"`
	CallbackURL  string         `json:"callback_url,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

type SessionDetailResponse struct {
	Session *SessionDTO      `json:"session"`
	Rounds  []*RoundResponse `json:"rounds"`
}

// TurnResponse is returned by every turn operation.
type TurnResponse struct {
	Session            *SessionDTO       `json:"session"`
	Round              *RoundResponse    `json:"round,omitempty"`
	Analysis           *ResponseAnalysis `json:"analysis,omitempty"`
	FollowupIssued     bool              `json:"followup_issued"`
	CompletionEligible bool              `json:"completion_eligible"`
}

type SummaryResponse struct {
	Summary *InterviewSummary `json:"summary"`
	Final   bool              `json:"final"`
}
