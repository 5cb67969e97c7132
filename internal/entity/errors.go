package entity

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors
var (
	// Interview flow errors
	ErrInvalidStateForQuestion = errors.New("invalid state for question")
	ErrSessionTerminal         = fmt.Errorf("%w: session is terminal", ErrInvalidStateForQuestion)
	ErrNoRoundsRemaining       = errors.New("no rounds remaining")
	ErrRoundsIncomplete        = errors.New("rounds incomplete")
	ErrConcurrentModification  = errors.New("concurrent modification")
	ErrMissingRequiredInfo     = errors.New("missing required info")
	ErrGenerationFailed        = errors.New("generation failed")
	ErrAnalysisFailed          = errors.New("analysis failed")
	ErrSummaryFailed           = errors.New("summary composition failed")
	ErrTranscriptionFailed     = errors.New("audio transcription failed")

	// Session errors
	ErrSessionNotFound     = errors.New("session not found")
	ErrInvalidSessionState = errors.New("invalid session state")

	// File errors
	ErrInvalidFile      = errors.New("invalid file")
	ErrFileTooLarge     = errors.New("file too large")
	ErrInvalidExtension = errors.New("invalid file extension")

	// Validation errors
	ErrMissingField     = errors.New("required field is missing")
	ErrInvalidFormat    = errors.New("invalid format")
	ErrInvalidParameter = errors.New("invalid parameter")
)

// MissingInfoError names the required profile fields that are still empty.
type MissingInfoError struct {
	Fields []string
}

func (e *MissingInfoError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingRequiredInfo, strings.Join(e.Fields, ", "))
}

func (e *MissingInfoError) Is(target error) bool {
	return target == ErrMissingRequiredInfo
}
