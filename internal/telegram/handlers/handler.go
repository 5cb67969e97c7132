package handlers

import (
	"context"

	"github.com/futig/interview-flow/internal/entity"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Handler state constants. Message handlers are keyed by interview state.
const (
	HandlerStateCallback       = "CALLBACK"
	HandlerStateCommand        = "COMMAND"
	HandlerStateIntroduction   = string(entity.StateIntroduction)
	HandlerStateCollectingInfo = string(entity.StateCollectingInfo)
	HandlerStateGenerating     = string(entity.StateGenerating)
	HandlerStateReady          = string(entity.StateReady)
	HandlerStateInProgress     = string(entity.StateInProgress)
	HandlerStateCompleted      = string(entity.StateCompleted)
	HandlerStateError          = string(entity.StateError)
)

// Message represents a normalized Telegram message
type Message struct {
	ChatID       int64
	UserID       int64
	UserName     string
	MessageID    int
	Text         string
	Command      string
	Voice        *tgbotapi.Voice
	CallbackData string
	CallbackID   string

	// SessionID is the interview bound to the chat, filled in by the bot
	SessionID string
}

// Handler defines the interface for state-specific handlers
type Handler interface {
	// Handle processes a message for this state
	Handle(ctx context.Context, msg *Message) error

	// GetState returns the state this handler manages
	GetState() string
}

// BaseHandler provides common functionality for all handlers
type BaseHandler struct {
	stateName string
	flow      *Flow
}

// GetState implements Handler
func (h *BaseHandler) GetState() string {
	return h.stateName
}

// validStates defines all valid handler states
var validStates = map[string]bool{
	HandlerStateCallback:       true,
	HandlerStateCommand:        true,
	HandlerStateIntroduction:   true,
	HandlerStateCollectingInfo: true,
	HandlerStateGenerating:     true,
	HandlerStateReady:          true,
	HandlerStateInProgress:     true,
	HandlerStateCompleted:      true,
	HandlerStateError:          true,
}

// IsValidState checks if a state is valid for handler registration
func IsValidState(state string) bool {
	_, ok := validStates[state]
	return ok
}
