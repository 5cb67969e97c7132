package keyboard

import (
	"github.com/futig/interview-flow/internal/entity"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Builder creates inline keyboards
type Builder struct{}

// NewBuilder creates a keyboard builder
func NewBuilder() *Builder {
	return &Builder{}
}

// StartKeyboard creates the new interview button
func (b *Builder) StartKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			button("🚀 Start interview", ActionFlow, ValueStart),
		),
	)
}

// IntroductionKeyboard confirms the candidate read the introduction
func (b *Builder) IntroductionKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			button("👍 Got it, let's go", ActionFlow, ValueAck),
		),
	)
}

// OptionalFieldKeyboard lets the candidate skip an optional profile question
func (b *Builder) OptionalFieldKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			button("⏭ Skip", ActionField, ValueSkip),
		),
	)
}

// GenerateKeyboard starts question generation
func (b *Builder) GenerateKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			button("🧠 Prepare my questions", ActionFlow, ValueGenerate),
		),
	)
}

// NextQuestionKeyboard asks for the next question
func (b *Builder) NextQuestionKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			button("▶️ Next question", ActionFlow, ValueNext),
		),
	)
}

// AnswerKeyboard is shown under a question waiting for an answer
func (b *Builder) AnswerKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			button("⏭ Skip question", ActionFlow, ValueSkip),
		),
	)
}

// CompleteKeyboard finishes the interview
func (b *Builder) CompleteKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			button("🏁 Finish and get feedback", ActionFlow, ValueComplete),
		),
	)
}

// ReportKeyboard offers the report in every export format
func (b *Builder) ReportKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			button("📝 Markdown", ActionDownload, string(entity.FormatMarkdown)),
			button("📄 PDF", ActionDownload, string(entity.FormatPDF)),
			button("📃 DOCX", ActionDownload, string(entity.FormatDOCX)),
		),
		tgbotapi.NewInlineKeyboardRow(
			button("🔁 New interview", ActionFlow, ValueStart),
		),
	)
}

// ConfirmCancelKeyboard asks to confirm abandoning the interview
func (b *Builder) ConfirmCancelKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			button("✅ Yes, stop", ActionConfirm, ValueCancel),
			button("❌ No, continue", ActionConfirm, ValueContinue),
		),
	)
}

func button(text, action, value string) tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardButtonData(text, EncodeCallback(action, value))
}
