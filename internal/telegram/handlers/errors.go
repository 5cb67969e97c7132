package handlers

import (
	"context"
	"errors"
	"net"

	"github.com/futig/interview-flow/internal/entity"
	"github.com/futig/interview-flow/internal/telegram/render"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// ErrorSeverity represents the severity level of an error
type ErrorSeverity int

const (
	SeverityWarning ErrorSeverity = iota
	SeverityError
)

// HandlerError represents a structured error with user message and logging info
type HandlerError struct {
	Err         error
	UserMessage string
	LogMessage  string
	Severity    ErrorSeverity
}

// classifyHandlerError analyzes an error and returns a HandlerError with appropriate severity and messages
func classifyHandlerError(err error) *HandlerError {
	warn := func(userMessage, logMessage string) *HandlerError {
		return &HandlerError{Err: err, UserMessage: userMessage, LogMessage: logMessage, Severity: SeverityWarning}
	}
	fail := func(userMessage, logMessage string) *HandlerError {
		return &HandlerError{Err: err, UserMessage: userMessage, LogMessage: logMessage, Severity: SeverityError}
	}

	var netErr net.Error

	switch {
	case err == nil:
		return warn(render.ErrGeneric, "unknown error")
	case errors.Is(err, entity.ErrSessionNotFound):
		return warn(render.ErrSessionNotFound, "session not found")
	case errors.Is(err, entity.ErrSessionTerminal):
		return warn(render.ErrSessionFinished, "session is finished")
	case errors.Is(err, entity.ErrConcurrentModification):
		return warn(render.ErrSessionBusy, "session is busy")
	case errors.Is(err, entity.ErrInvalidStateForQuestion),
		errors.Is(err, entity.ErrInvalidSessionState),
		errors.Is(err, entity.ErrNoRoundsRemaining),
		errors.Is(err, entity.ErrRoundsIncomplete):
		return warn(render.ErrInvalidState, "invalid session state")
	case errors.Is(err, entity.ErrInvalidParameter),
		errors.Is(err, entity.ErrMissingField),
		errors.Is(err, entity.ErrMissingRequiredInfo):
		return warn(render.RenderInvalidInput(err.Error()), "invalid input")
	case errors.Is(err, ErrVoiceTooLarge):
		return warn(render.ErrVoiceTooLarge, "voice message too large")
	case errors.Is(err, entity.ErrTranscriptionFailed):
		return fail(render.ErrTranscription, "transcription failed")
	case errors.Is(err, entity.ErrGenerationFailed):
		return fail(render.ErrGenerationFailed, "question generation failed")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return fail(render.ErrTimeout, "operation timed out")
	case errors.As(err, &netErr):
		if netErr.Timeout() {
			return fail(render.ErrTimeout, "network timeout")
		}
		return fail(render.ErrNetworkIssue, "network error")
	default:
		return fail(render.ErrGeneric, "handler error")
	}
}

// HandleError logs the error with its severity and sends a user-friendly message
func (f *Flow) HandleError(ctx context.Context, chatID int64, err error) {
	if err == nil {
		return
	}

	handlerErr := classifyHandlerError(err)

	switch handlerErr.Severity {
	case SeverityError:
		ctxzap.Error(ctx, handlerErr.LogMessage,
			zap.Error(handlerErr.Err),
			zap.Int64("chat_id", chatID),
		)
	default:
		ctxzap.Warn(ctx, handlerErr.LogMessage,
			zap.Error(handlerErr.Err),
			zap.Int64("chat_id", chatID),
		)
	}

	_ = f.sender.Send(chatID, handlerErr.UserMessage, nil)
}
