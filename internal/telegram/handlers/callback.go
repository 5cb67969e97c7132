package handlers

import (
	"context"
	"fmt"

	"github.com/futig/interview-flow/internal/entity"
	"github.com/futig/interview-flow/internal/telegram/keyboard"
	"github.com/futig/interview-flow/internal/telegram/render"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// CallbackHandler handles all callback button clicks
type CallbackHandler struct {
	BaseHandler
}

// NewCallbackHandler creates a new callback handler
func NewCallbackHandler(flow *Flow) *CallbackHandler {
	return &CallbackHandler{BaseHandler{stateName: HandlerStateCallback, flow: flow}}
}

// Handle routes callback queries to appropriate actions
func (h *CallbackHandler) Handle(ctx context.Context, msg *Message) error {
	data, err := keyboard.ParseCallback(msg.CallbackData)
	if err != nil {
		return fmt.Errorf("%w: %w", entity.ErrInvalidParameter, err)
	}

	ctxzap.Info(ctx, "handling callback",
		zap.String("action", data.Action),
		zap.String("value", data.Value),
		zap.Int64("chat_id", msg.ChatID),
	)

	if data.Action == keyboard.ActionFlow && data.Value == keyboard.ValueStart {
		return h.flow.StartInterview(ctx, msg)
	}

	if msg.SessionID == "" {
		return h.flow.sender.Send(msg.ChatID, render.MsgNoSession, h.flow.keyboard.StartKeyboard())
	}

	switch data.Action {
	case keyboard.ActionFlow:
		return h.handleFlow(ctx, msg, data.Value)
	case keyboard.ActionField:
		if data.Value != keyboard.ValueSkip {
			return fmt.Errorf("%w: unknown field action %q", entity.ErrInvalidParameter, data.Value)
		}
		return h.flow.SkipOptionalField(ctx, msg)
	case keyboard.ActionDownload:
		format := entity.ResultFormat(data.Value)
		if !format.IsValid() {
			return fmt.Errorf("%w: unknown report format %q", entity.ErrInvalidParameter, data.Value)
		}
		return h.flow.SendReport(ctx, msg, format)
	case keyboard.ActionConfirm:
		return h.flow.ConfirmCancel(ctx, msg, data.Value == keyboard.ValueCancel)
	default:
		return fmt.Errorf("%w: unknown action %q", entity.ErrInvalidParameter, data.Action)
	}
}

func (h *CallbackHandler) handleFlow(ctx context.Context, msg *Message, value string) error {
	switch value {
	case keyboard.ValueAck:
		return h.flow.AcknowledgeIntroduction(ctx, msg)
	case keyboard.ValueGenerate:
		return h.flow.Generate(ctx, msg)
	case keyboard.ValueNext:
		return h.flow.AskNext(ctx, msg)
	case keyboard.ValueSkip:
		return h.flow.Skip(ctx, msg)
	case keyboard.ValueComplete:
		return h.flow.Complete(ctx, msg)
	case keyboard.ValueCancel:
		return h.flow.RequestCancel(ctx, msg)
	default:
		return fmt.Errorf("%w: unknown flow value %q", entity.ErrInvalidParameter, value)
	}
}
