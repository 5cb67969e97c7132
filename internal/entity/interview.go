package entity

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"
)

// InterviewState is the externally visible state of an interview session.
type InterviewState string

const (
	StateIntroduction   InterviewState = "INTRODUCTION"
	StateCollectingInfo InterviewState = "COLLECTING_INFO"
	StateGenerating     InterviewState = "GENERATING"
	StateReady          InterviewState = "READY"
	StateInProgress     InterviewState = "IN_PROGRESS"
	StateCompleted      InterviewState = "COMPLETED"
	StateError          InterviewState = "ERROR"
)

func (s InterviewState) Validate() error {
	switch s {
	case StateIntroduction, StateCollectingInfo, StateGenerating, StateReady,
		StateInProgress, StateCompleted, StateError:
		return nil
	default:
		return fmt.Errorf("unknown interview state: %s", s)
	}
}

// IsTerminal reports whether no further transition is possible.
func (s InterviewState) IsTerminal() bool {
	return s == StateCompleted || s == StateError
}

type RoundStatus string

const (
	RoundStatusPending    RoundStatus = "pending"
	RoundStatusInProgress RoundStatus = "in_progress"
	RoundStatusCompleted  RoundStatus = "completed"
	RoundStatusSkipped    RoundStatus = "skipped"
)

func (s RoundStatus) IsTerminal() bool {
	return s == RoundStatusCompleted || s == RoundStatusSkipped
}

// UserInfo is the candidate profile that drives question generation.
type UserInfo struct {
	Name              string   `json:"name"`
	TargetJob         string   `json:"target_job"`
	Background        string   `json:"background"`
	Experience        string   `json:"experience,omitempty"`
	Skills            []string `json:"skills,omitempty"`
	Education         string   `json:"education,omitempty"`
	YearsOfExperience *int     `json:"years_of_experience,omitempty"`
}

// MissingFields returns the required fields that are still empty.
func (u UserInfo) MissingFields() []string {
	var missing []string
	if strings.TrimSpace(u.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(u.TargetJob) == "" {
		missing = append(missing, "target_job")
	}
	if strings.TrimSpace(u.Background) == "" {
		missing = append(missing, "background")
	}
	return missing
}

// IsEmpty reports whether no field at all has been supplied.
func (u UserInfo) IsEmpty() bool {
	return u.Name == "" && u.TargetJob == "" && u.Background == "" && u.Experience == "" &&
		len(u.Skills) == 0 && u.Education == "" && u.YearsOfExperience == nil
}

// Merge copies every non-empty field of p into u. Skills are treated as a set.
func (u *UserInfo) Merge(p UserInfo) {
	if v := strings.TrimSpace(p.Name); v != "" {
		u.Name = v
	}
	if v := strings.TrimSpace(p.TargetJob); v != "" {
		u.TargetJob = v
	}
	if v := strings.TrimSpace(p.Background); v != "" {
		u.Background = v
	}
	if v := strings.TrimSpace(p.Experience); v != "" {
		u.Experience = v
	}
	if v := strings.TrimSpace(p.Education); v != "" {
		u.Education = v
	}
	if p.YearsOfExperience != nil {
		years := *p.YearsOfExperience
		u.YearsOfExperience = &years
	}
	u.Skills = UnionStrings(u.Skills, p.Skills)
}

func (u UserInfo) Clone() UserInfo {
	c := u
	c.Skills = slices.Clone(u.Skills)
	if u.YearsOfExperience != nil {
		years := *u.YearsOfExperience
		c.YearsOfExperience = &years
	}
	return c
}

// ResponseAnalysis is the analyzer verdict on one response.
type ResponseAnalysis struct {
	Score            float64  `json:"score"`
	Feedback         string   `json:"feedback"`
	Strengths        []string `json:"strengths"`
	Weaknesses       []string `json:"weaknesses"`
	Suggestions      []string `json:"suggestions"`
	NeedsFollowup    bool     `json:"needs_followup"`
	FollowupQuestion string   `json:"followup_question,omitempty"`
}

func (a *ResponseAnalysis) Clone() *ResponseAnalysis {
	if a == nil {
		return nil
	}
	c := *a
	c.Strengths = slices.Clone(a.Strengths)
	c.Weaknesses = slices.Clone(a.Weaknesses)
	c.Suggestions = slices.Clone(a.Suggestions)
	return &c
}

// FollowupTurn is a clarifying question issued inside a round and the answer it received.
type FollowupTurn struct {
	Question   string     `json:"question"`
	Response   string     `json:"response,omitempty"`
	AudioURL   string     `json:"audio_url,omitempty"`
	AskedAt    time.Time  `json:"asked_at"`
	AnsweredAt *time.Time `json:"answered_at,omitempty"`
}

type InterviewRound struct {
	RoundNumber     int      `json:"round_number"`
	Question        string   `json:"question"`
	AudioURL        string   `json:"audio_url,omitempty"`
	Duration        int      `json:"duration"` // expected answer length, seconds
	ExpectedPoints  []string `json:"expected_points"`
	SuggestedTime   int      `json:"suggested_time"`
	ScoringCriteria []string `json:"scoring_criteria"`

	UserResponse     string            `json:"user_response,omitempty"`
	ResponseAudioURL string            `json:"response_audio_url,omitempty"`
	ResponseDuration int               `json:"response_duration,omitempty"`
	Analysis         *ResponseAnalysis `json:"analysis,omitempty"`
	AnalysisError    string            `json:"analysis_error,omitempty"`
	Status           RoundStatus       `json:"status"`
	StartTime        *time.Time        `json:"start_time,omitempty"`
	EndTime          *time.Time        `json:"end_time,omitempty"`
	Score            *float64          `json:"score,omitempty"`
	Feedback         string            `json:"feedback,omitempty"`
	FollowupCount    int               `json:"followup_count"`
	Followups        []FollowupTurn    `json:"followups,omitempty"`
	ActivePrompt     string            `json:"active_prompt,omitempty"`
}

func (r InterviewRound) Clone() InterviewRound {
	c := r
	c.ExpectedPoints = slices.Clone(r.ExpectedPoints)
	c.ScoringCriteria = slices.Clone(r.ScoringCriteria)
	c.Analysis = r.Analysis.Clone()
	if r.Followups != nil {
		c.Followups = make([]FollowupTurn, len(r.Followups))
		for i, f := range r.Followups {
			f.AnsweredAt = cloneTime(f.AnsweredAt)
			c.Followups[i] = f
		}
	}
	c.StartTime = cloneTime(r.StartTime)
	c.EndTime = cloneTime(r.EndTime)
	if r.Score != nil {
		score := *r.Score
		c.Score = &score
	}
	return c
}

// InterviewSummary is the read-only aggregate produced at completion.
type InterviewSummary struct {
	SessionID       string    `json:"session_id"`
	UserInfo        UserInfo  `json:"user_info"`
	TotalRounds     int       `json:"total_rounds"`
	CompletedRounds int       `json:"completed_rounds"`
	SkippedRounds   int       `json:"skipped_rounds"`
	AverageScore    float64   `json:"average_score"`
	Strengths       []string  `json:"strengths"`
	Weaknesses      []string  `json:"weaknesses"`
	OverallFeedback string    `json:"overall_feedback"`
	Recommendations []string  `json:"recommendations"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	Duration        int64     `json:"duration"` // seconds
	GeneratedBy     string    `json:"generated_by"`
}

const (
	SummaryGeneratedByHook     = "hook"
	SummaryGeneratedByTemplate = "template"
)

func (s InterviewSummary) Clone() InterviewSummary {
	c := s
	c.UserInfo = s.UserInfo.Clone()
	c.Strengths = slices.Clone(s.Strengths)
	c.Weaknesses = slices.Clone(s.Weaknesses)
	c.Recommendations = slices.Clone(s.Recommendations)
	return c
}

// InterviewSession is one interview attempt by one candidate.
// Fields are only changed by the interview engine; readers get clones.
type InterviewSession struct {
	ID          string
	UserID      string
	UserName    string
	Phase       Phase
	StartTime   time.Time
	EndTime     *time.Time
	UserInfo    UserInfo
	Rounds      []InterviewRound
	CallbackURL string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (s *InterviewSession) State() InterviewState {
	if s.Phase == nil {
		return StateIntroduction
	}
	return s.Phase.State()
}

// CurrentRound returns the 0-based index of the active or next round.
func (s *InterviewSession) CurrentRound() (int, bool) {
	switch p := s.Phase.(type) {
	case Ready:
		return 0, true
	case InProgress:
		return p.CurrentRound, true
	default:
		return 0, false
	}
}

// TotalScore is only known once the session completed.
func (s *InterviewSession) TotalScore() (float64, bool) {
	if p, ok := s.Phase.(Completed); ok {
		return p.Summary.AverageScore, true
	}
	return 0, false
}

// Feedback holds the overall feedback on completion and the failure reason on error.
func (s *InterviewSession) Feedback() (string, bool) {
	switch p := s.Phase.(type) {
	case Completed:
		return p.Summary.OverallFeedback, true
	case Failed:
		return p.Reason, true
	default:
		return "", false
	}
}

func (s *InterviewSession) IsTerminal() bool {
	return s.State().IsTerminal()
}

// ActiveRound returns the round currently in progress, if any.
func (s *InterviewSession) ActiveRound() (*InterviewRound, bool) {
	idx, ok := s.CurrentRound()
	if !ok || idx >= len(s.Rounds) {
		return nil, false
	}
	r := &s.Rounds[idx]
	if r.Status != RoundStatusInProgress {
		return nil, false
	}
	return r, true
}

// NextPendingRound returns the index of the lowest-numbered pending round.
func (s *InterviewSession) NextPendingRound() (int, bool) {
	for i := range s.Rounds {
		if s.Rounds[i].Status == RoundStatusPending {
			return i, true
		}
	}
	return 0, false
}

func (s *InterviewSession) Clone() *InterviewSession {
	if s == nil {
		return nil
	}
	c := *s
	c.EndTime = cloneTime(s.EndTime)
	c.UserInfo = s.UserInfo.Clone()
	if s.Rounds != nil {
		c.Rounds = make([]InterviewRound, len(s.Rounds))
		for i := range s.Rounds {
			c.Rounds[i] = s.Rounds[i].Clone()
		}
	}
	if p, ok := s.Phase.(Completed); ok {
		c.Phase = Completed{Summary: p.Summary.Clone()}
	}
	return &c
}

// sessionRecord is the flat storage and wire shape of a session.
type sessionRecord struct {
	ID           string            `json:"session_id"`
	UserID       string            `json:"user_id"`
	UserName     string            `json:"user_name"`
	State        InterviewState    `json:"state"`
	StartTime    time.Time         `json:"start_time"`
	EndTime      *time.Time        `json:"end_time,omitempty"`
	UserInfo     UserInfo          `json:"user_info"`
	Rounds       []InterviewRound  `json:"rounds"`
	CurrentRound *int              `json:"current_round,omitempty"`
	TotalScore   *float64          `json:"total_score,omitempty"`
	Feedback     *string           `json:"feedback,omitempty"`
	Summary      *InterviewSummary `json:"summary,omitempty"`
	FailedFrom   InterviewState    `json:"failed_from,omitempty"`
	CallbackURL  string            `json:"callback_url,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

func (s InterviewSession) MarshalJSON() ([]byte, error) {
	rec := sessionRecord{
		ID:          s.ID,
		UserID:      s.UserID,
		UserName:    s.UserName,
		State:       s.State(),
		StartTime:   s.StartTime,
		EndTime:     s.EndTime,
		UserInfo:    s.UserInfo,
		Rounds:      s.Rounds,
		CallbackURL: s.CallbackURL,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
	if rec.Rounds == nil {
		rec.Rounds = []InterviewRound{}
	}
	if idx, ok := s.CurrentRound(); ok {
		rec.CurrentRound = &idx
	}
	if score, ok := s.TotalScore(); ok {
		rec.TotalScore = &score
	}
	if feedback, ok := s.Feedback(); ok {
		rec.Feedback = &feedback
	}
	switch p := s.Phase.(type) {
	case Completed:
		summary := p.Summary
		rec.Summary = &summary
	case Failed:
		rec.FailedFrom = p.FailedFrom
	}
	return json.Marshal(rec)
}

func (s *InterviewSession) UnmarshalJSON(data []byte) error {
	var rec sessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	if err := rec.State.Validate(); err != nil {
		return err
	}

	phase, err := phaseFromRecord(rec)
	if err != nil {
		return err
	}

	*s = InterviewSession{
		ID:          rec.ID,
		UserID:      rec.UserID,
		UserName:    rec.UserName,
		Phase:       phase,
		StartTime:   rec.StartTime,
		EndTime:     rec.EndTime,
		UserInfo:    rec.UserInfo,
		Rounds:      rec.Rounds,
		CallbackURL: rec.CallbackURL,
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
	}
	return nil
}

func phaseFromRecord(rec sessionRecord) (Phase, error) {
	switch rec.State {
	case StateIntroduction:
		return Introduction{}, nil
	case StateCollectingInfo:
		return CollectingInfo{}, nil
	case StateGenerating:
		return Generating{}, nil
	case StateReady:
		return Ready{}, nil
	case StateInProgress:
		if rec.CurrentRound == nil {
			return nil, fmt.Errorf("%w: in-progress session without current round", ErrInvalidFormat)
		}
		return InProgress{CurrentRound: *rec.CurrentRound}, nil
	case StateCompleted:
		if rec.Summary == nil {
			return nil, fmt.Errorf("%w: completed session without summary", ErrInvalidFormat)
		}
		return Completed{Summary: *rec.Summary}, nil
	case StateError:
		reason := ""
		if rec.Feedback != nil {
			reason = *rec.Feedback
		}
		return Failed{Reason: reason, FailedFrom: rec.FailedFrom}, nil
	}
	return nil, fmt.Errorf("unknown interview state: %s", rec.State)
}

// UnionStrings appends the values of b not yet present in a, keeping first-seen order.
func UnionStrings(a, b []string) []string {
	out := slices.Clone(a)
	for _, v := range b {
		v = strings.TrimSpace(v)
		if v == "" || slices.Contains(out, v) {
			continue
		}
		out = append(out, v)
	}
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
