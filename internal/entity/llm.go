package entity

// Wire contracts of the LLM service.

type LLMGenerateRoundsRequest struct {
	UserInfo UserInfo `json:"user_info"`
}

type LLMRound struct {
	Question        string   `json:"question"`
	ExpectedPoints  []string `json:"expected_points"`
	SuggestedTime   int      `json:"suggested_time"`
	ScoringCriteria []string `json:"scoring_criteria"`
}

type LLMGenerateRoundsResponse struct {
	Rounds []LLMRound `json:"rounds"`
}

type LLMAnalyzeResponseRequest struct {
	Question       string   `json:"question"`
	Prompt         string   `json:"prompt"`
	ExpectedPoints []string `json:"expected_points"`
	Criteria       []string `json:"scoring_criteria"`
	Response       string   `json:"response"`
	AudioURL       string   `json:"audio_url,omitempty"`
}

type LLMAnalyzeResponseResponse struct {
	Analysis ResponseAnalysis `json:"analysis"`
}

type QuestionWithAnswer struct {
	Question string   `json:"question"`
	Answer   string   `json:"answer"`
	Status   string   `json:"status"`
	Score    *float64 `json:"score,omitempty"`
}

type LLMComposeSummaryRequest struct {
	Rounds       []QuestionWithAnswer `json:"rounds"`
	AverageScore float64              `json:"average_score"`
}

type LLMComposeSummaryResponse struct {
	OverallFeedback string   `json:"overall_feedback"`
	Recommendations []string `json:"recommendations"`
}

type TTSSynthesizeRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice,omitempty"`
}

type TTSSynthesizeResponse struct {
	AudioURL string `json:"audio_url"`
	Duration int    `json:"duration"`
}

type ASRTranscribeResponse struct {
	Text string `json:"text"`
}
