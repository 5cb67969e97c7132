package handlers

import (
	"context"

	"github.com/futig/interview-flow/internal/telegram/render"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// IntroductionHandler handles INTRODUCTION state. Any message counts as acknowledgement.
type IntroductionHandler struct {
	BaseHandler
}

func NewIntroductionHandler(flow *Flow) *IntroductionHandler {
	return &IntroductionHandler{BaseHandler{stateName: HandlerStateIntroduction, flow: flow}}
}

func (h *IntroductionHandler) Handle(ctx context.Context, msg *Message) error {
	return h.flow.AcknowledgeIntroduction(ctx, msg)
}

// ProfileHandler handles COLLECTING_INFO state: answers to profile questions
type ProfileHandler struct {
	BaseHandler
}

func NewProfileHandler(flow *Flow) *ProfileHandler {
	return &ProfileHandler{BaseHandler{stateName: HandlerStateCollectingInfo, flow: flow}}
}

func (h *ProfileHandler) Handle(ctx context.Context, msg *Message) error {
	if msg.Voice != nil {
		return h.flow.sender.Send(msg.ChatID, render.MsgTextOnly, nil)
	}

	return h.flow.ApplyProfileAnswer(ctx, msg)
}

// ReadyHandler handles READY state. Whatever the candidate sends, the first question is issued.
type ReadyHandler struct {
	BaseHandler
}

func NewReadyHandler(flow *Flow) *ReadyHandler {
	return &ReadyHandler{BaseHandler{stateName: HandlerStateReady, flow: flow}}
}

func (h *ReadyHandler) Handle(ctx context.Context, msg *Message) error {
	return h.flow.AskNext(ctx, msg)
}

// AnswerHandler handles IN_PROGRESS state: text and voice answers
type AnswerHandler struct {
	BaseHandler
}

func NewAnswerHandler(flow *Flow) *AnswerHandler {
	return &AnswerHandler{BaseHandler{stateName: HandlerStateInProgress, flow: flow}}
}

func (h *AnswerHandler) Handle(ctx context.Context, msg *Message) error {
	if msg.Voice != nil {
		return h.flow.AnswerVoice(ctx, msg)
	}

	return h.flow.Answer(ctx, msg)
}

// StaticHandler replies with a fixed message in states that take no input
type StaticHandler struct {
	BaseHandler
	text   string
	markup func() tgbotapi.InlineKeyboardMarkup
}

func NewGeneratingHandler(flow *Flow) *StaticHandler {
	return &StaticHandler{
		BaseHandler: BaseHandler{stateName: HandlerStateGenerating, flow: flow},
		text:        render.MsgGenerationInProgress,
	}
}

func NewCompletedHandler(flow *Flow) *StaticHandler {
	return &StaticHandler{
		BaseHandler: BaseHandler{stateName: HandlerStateCompleted, flow: flow},
		text:        render.MsgInterviewOver,
		markup:      flow.keyboard.ReportKeyboard,
	}
}

func NewErrorStateHandler(flow *Flow) *StaticHandler {
	return &StaticHandler{
		BaseHandler: BaseHandler{stateName: HandlerStateError, flow: flow},
		text:        render.ErrSessionFinished,
		markup:      flow.keyboard.StartKeyboard,
	}
}

func (h *StaticHandler) Handle(_ context.Context, msg *Message) error {
	if h.markup == nil {
		return h.flow.sender.Send(msg.ChatID, h.text, nil)
	}

	return h.flow.sender.Send(msg.ChatID, h.text, h.markup())
}
