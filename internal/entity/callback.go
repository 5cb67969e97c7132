package entity

// CallbackEventType represents the type of callback event
type CallbackEventType string

const (
	CallbackEventTypeRoundsReady CallbackEventType = "roundsReady"
	CallbackEventTypeFinalResult CallbackEventType = "finalResult"
	CallbackEventTypeError       CallbackEventType = "error"
)

// CallbackEvent represents a callback event
type CallbackEvent struct {
	Event     CallbackEventType `json:"event"`
	Timestamp string            `json:"timestamp"` // ISO-8601 UTC
	Data      any               `json:"data"`
}

// CallbackRoundsReadyData is sent once question generation finished
type CallbackRoundsReadyData struct {
	SessionID   string          `json:"session_id"`
	TotalRounds int             `json:"total_rounds"`
	Rounds      []RoundResponse `json:"rounds"`
}

// CallbackFinalResultData is sent when an interview completes
type CallbackFinalResultData struct {
	SessionID string           `json:"session_id"`
	Summary   InterviewSummary `json:"summary"`
}

// CallbackErrorData represents data for error event
type CallbackErrorData struct {
	Error CallbackErrorDetails `json:"error"`
}

// CallbackErrorDetails contains error information
type CallbackErrorDetails struct {
	Message string         `json:"message"`
	Details map[string]any `json:"details"` // Context like ids
}
