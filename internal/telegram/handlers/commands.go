package handlers

import (
	"context"

	"github.com/futig/interview-flow/internal/telegram/keyboard"
	"github.com/futig/interview-flow/internal/telegram/render"
)

// Bot commands
const (
	CommandStart   = "start"
	CommandHelp    = "help"
	CommandCancel  = "cancel"
	CommandSkip    = "skip"
	CommandSummary = "summary"
)

// CommandHandler handles slash commands
type CommandHandler struct {
	BaseHandler
}

func NewCommandHandler(flow *Flow) *CommandHandler {
	return &CommandHandler{BaseHandler{stateName: HandlerStateCommand, flow: flow}}
}

func (h *CommandHandler) Handle(ctx context.Context, msg *Message) error {
	sender := h.flow.sender

	switch msg.Command {
	case CommandStart:
		return sender.Send(msg.ChatID, render.MsgWelcome, h.flow.keyboard.StartKeyboard())
	case CommandHelp:
		return sender.Send(msg.ChatID, render.MsgHelp, nil)
	}

	if msg.SessionID == "" {
		return sender.Send(msg.ChatID, render.MsgNoSession, h.flow.keyboard.StartKeyboard())
	}

	switch msg.Command {
	case CommandCancel:
		// a second /cancel confirms
		data, err := h.flow.states.GetStateData(ctx, msg.ChatID)
		if err != nil {
			return err
		}
		if data.PendingConfirmation == keyboard.ValueCancel {
			return h.flow.ConfirmCancel(ctx, msg, true)
		}
		return h.flow.RequestCancel(ctx, msg)
	case CommandSkip:
		return h.flow.Skip(ctx, msg)
	case CommandSummary:
		return h.flow.Summary(ctx, msg)
	default:
		return sender.Send(msg.ChatID, render.MsgUnknownCommand, nil)
	}
}
