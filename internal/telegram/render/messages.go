package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/futig/interview-flow/internal/entity"
)

const (
	MsgWelcome = `👋 Hi! I'm your interview trainer.

I will ask you a few questions about the job you are aiming for, listen to your answers (text or voice) and give you feedback at the end.`

	MsgHelp = `🤖 Commands:

/start - Start a new interview
/skip - Skip the current question
/summary - Show feedback so far
/cancel - Stop the current interview
/help - Show this help

How it works:
1. Tell me who you are and which job you are preparing for
2. I prepare a set of interview questions
3. Answer each question by text or voice message
4. I may ask a short follow-up question
5. Finish to get your score and a report`

	MsgProfileComplete = `✅ Thanks, I have everything I need.

Press the button and I will prepare your questions.`

	MsgGenerating = `⏳ Preparing questions for you. This may take a minute...`

	MsgRoundsReady = `📋 I have prepared %d questions for you.

Answer in your own words, by text or voice. Press the button when you are ready.`

	MsgAnalyzing = `🔍 Listening to your answer...`

	MsgNoActiveQuestion = `Press "Next question" to get a question first.`

	MsgAllAnswered = `🎉 That was the last question. Finish the interview to get your feedback.`

	MsgCompleting = `⏳ Putting your feedback together...`

	MsgCancelConfirm = `⚠️ Are you sure? Your progress in this interview will be lost.`

	MsgSessionFinished = `👋 Interview stopped.
Press /start whenever you want to try again.`

	MsgContinue = `👌 Let's continue.`

	MsgNoSession = `No active interview. Press /start to begin.`

	MsgVoiceOnly = `Please answer with text or a voice message.`

	MsgTextOnly = `Please type your answer.`

	MsgGenerationInProgress = `⏳ Still preparing your questions, hold on.`

	MsgInterviewOver = `This interview is over. Download the report or press /start for a new one.`

	MsgQuestionSkipped = `⏭ Question skipped.`

	MsgUnknownCommand = `❌ Unknown command. See /help`

	// Errors
	ErrGeneric            = `❌ Something went wrong. Try again or press /start`
	ErrTranscription      = `❌ I could not understand the voice message. Try again or type your answer.`
	ErrSessionNotFound    = `❌ Interview not found. Start a new one with /start`
	ErrInvalidState       = `❌ That is not possible right now. Press /start to begin again.`
	ErrSessionFinished    = `❌ This interview is already over. Press /start for a new one.`
	ErrSessionBusy        = `⏳ I'm still working on your previous message, one moment.`
	ErrGenerationFailed   = `❌ I could not prepare the questions. Press /start to try again.`
	ErrNetworkIssue       = `❌ Connection problem. Please try again a bit later.`
	ErrInvalidInput       = `❌ That does not look right: %s`
	ErrTimeout            = `❌ That took too long. Please try again.`
	ErrVoiceTooLarge      = `❌ The voice message is too long. Please keep answers under a few minutes.`
	ErrReportNotAvailable = `❌ The report is available once the interview is finished.`
)

var profilePrompts = map[string]string{
	"name":       "What should I call you?",
	"target_job": "Which position are you preparing for?",
	"background": "Tell me briefly about your background: education, current role, main area.",
	"experience": "Describe your most relevant work experience in a few sentences.",
	"skills":     "List your key skills, separated by commas.",
}

// OptionalProfileFields are asked after the required ones and can be skipped
var OptionalProfileFields = []string{"experience", "skills"}

// RenderProfileQuestion returns the prompt for a profile field
func RenderProfileQuestion(field string) string {
	prompt, ok := profilePrompts[field]
	if !ok {
		prompt = fmt.Sprintf("Tell me about your %s.", strings.ReplaceAll(field, "_", " "))
	}
	return "❓ " + prompt
}

// RenderRoundsReady formats the message shown after generation
func RenderRoundsReady(total int) string {
	return fmt.Sprintf(MsgRoundsReady, total)
}

// RenderQuestion formats the prompt the candidate should answer now
func RenderQuestion(round *entity.RoundResponse, total int) string {
	var sb strings.Builder

	prompt := round.Prompt
	if prompt == "" {
		prompt = round.Question
	}

	if round.FollowupCount > 0 && prompt != round.Question {
		fmt.Fprintf(&sb, "🔎 Follow-up on question %d:\n\n%s", round.RoundNumber, prompt)
	} else {
		fmt.Fprintf(&sb, "❓ Question %d of %d\n\n%s", round.RoundNumber, total, prompt)
	}

	if round.SuggestedTime > 0 {
		fmt.Fprintf(&sb, "\n\n⏱ Suggested answer time: %s", formatSeconds(round.SuggestedTime))
	}

	return sb.String()
}

// RenderAnalysis formats the feedback on one answered round
func RenderAnalysis(analysis *entity.ResponseAnalysis) string {
	if analysis == nil {
		return "✅ Answer saved."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📊 Score: %.0f/100\n", analysis.Score)

	if analysis.Feedback != "" {
		fmt.Fprintf(&sb, "\n%s\n", analysis.Feedback)
	}

	writeList(&sb, "👍 Strong points", analysis.Strengths)
	writeList(&sb, "🛠 To improve", analysis.Suggestions)

	return strings.TrimRight(sb.String(), "\n")
}

// RenderProgress shows how many rounds are done
func RenderProgress(rounds []*entity.RoundResponse) string {
	done := 0
	for _, r := range rounds {
		if r.Status == entity.RoundStatusCompleted || r.Status == entity.RoundStatusSkipped {
			done++
		}
	}

	return fmt.Sprintf("%s %d/%d", renderProgressBar(done, len(rounds)), done, len(rounds))
}

// RenderSummary formats the final summary or an in-progress preview
func RenderSummary(summary *entity.InterviewSummary, final bool) string {
	var sb strings.Builder

	if final {
		sb.WriteString("🏁 Interview finished!\n\n")
	} else {
		sb.WriteString("📈 Your results so far\n\n")
	}

	fmt.Fprintf(&sb, "Average score: %.1f/100\n", summary.AverageScore)
	fmt.Fprintf(&sb, "Answered: %d, skipped: %d, total: %d\n",
		summary.CompletedRounds, summary.SkippedRounds, summary.TotalRounds)

	if final && summary.Duration > 0 {
		fmt.Fprintf(&sb, "Duration: %s\n", formatSeconds(int(summary.Duration)))
	}

	if summary.OverallFeedback != "" {
		fmt.Fprintf(&sb, "\n%s\n", summary.OverallFeedback)
	}

	writeList(&sb, "👍 Strengths", summary.Strengths)
	writeList(&sb, "🛠 Weaknesses", summary.Weaknesses)
	writeList(&sb, "💡 Recommendations", summary.Recommendations)

	if final {
		sb.WriteString("\nDownload the full report below.")
	}

	return strings.TrimRight(sb.String(), "\n")
}

// RenderInvalidInput formats a validation problem for the candidate
func RenderInvalidInput(reason string) string {
	return fmt.Sprintf(ErrInvalidInput, reason)
}

func writeList(sb *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}

	fmt.Fprintf(sb, "\n%s:\n", title)
	for _, item := range items {
		fmt.Fprintf(sb, "• %s\n", item)
	}
}

// renderProgressBar creates a visual progress bar
func renderProgressBar(current, max int) string {
	if max <= 0 {
		return ""
	}

	percent := float64(current) / float64(max)
	filled := int(percent * 10)
	bar := strings.Repeat("▓", filled) + strings.Repeat("░", 10-filled)

	return fmt.Sprintf("[%s]", bar)
}

func formatSeconds(seconds int) string {
	return (time.Duration(seconds) * time.Second).String()
}

// RateLimitWarning escalates with each warning in a row
func RateLimitWarning(streak int) string {
	switch {
	case streak <= 1:
		return "⚠️ Too many messages. Please wait a little."
	case streak == 2:
		return "⚠️ Rate limit reached. Wait about 30 seconds before the next message."
	default:
		return "🛑 You are sending messages too often. Please wait a minute."
	}
}
