package session

import (
	"github.com/futig/interview-flow/internal/entity"
	"github.com/futig/interview-flow/internal/usecase/interview"
)

// Next steps suggested to the client after session creation
const (
	NextActionAcknowledgeIntroduction = "acknowledge_introduction"
	NextActionCollectInfo             = "collect_info"
	NextActionGenerateRounds          = "generate_rounds"
)

// ToSessionDTO converts an InterviewSession to its API view
func ToSessionDTO(session *entity.InterviewSession) *entity.SessionDTO {
	if session == nil {
		return nil
	}

	dto := &entity.SessionDTO{
		ID:          session.ID,
		UserID:      session.UserID,
		UserName:    session.UserName,
		State:       session.State(),
		UserInfo:    session.UserInfo.Clone(),
		TotalRounds: len(session.Rounds),
		StartTime:   session.StartTime,
		EndTime:     session.EndTime,
		CallbackURL: session.CallbackURL,
		CreatedAt:   session.CreatedAt,
		UpdatedAt:   session.UpdatedAt,
	}

	if idx, ok := session.CurrentRound(); ok {
		dto.CurrentRound = &idx
	}
	if score, ok := session.TotalScore(); ok {
		dto.TotalScore = &score
	}
	if feedback, ok := session.Feedback(); ok {
		dto.Feedback = &feedback
	}

	return dto
}

// ToRoundResponse converts a round to the candidate-facing view.
// Expected points and scoring criteria stay internal.
func ToRoundResponse(round *entity.InterviewRound) *entity.RoundResponse {
	if round == nil {
		return nil
	}

	resp := &entity.RoundResponse{
		RoundNumber:   round.RoundNumber,
		Question:      round.Question,
		AudioURL:      round.AudioURL,
		Duration:      round.Duration,
		SuggestedTime: round.SuggestedTime,
		Status:        round.Status,
		Feedback:      round.Feedback,
		FollowupCount: round.FollowupCount,
	}

	if round.Status == entity.RoundStatusInProgress {
		resp.Prompt = round.ActivePrompt
	}
	if round.Score != nil {
		score := *round.Score
		resp.Score = &score
	}

	return resp
}

func toRoundResponses(rounds []entity.InterviewRound) []*entity.RoundResponse {
	result := make([]*entity.RoundResponse, 0, len(rounds))
	for i := range rounds {
		result = append(result, ToRoundResponse(&rounds[i]))
	}
	return result
}

func toSessionDetail(session *entity.InterviewSession) *entity.SessionDetailResponse {
	return &entity.SessionDetailResponse{
		Session: ToSessionDTO(session),
		Rounds:  toRoundResponses(session.Rounds),
	}
}

func toTurnResponse(result *interview.TurnResult) *entity.TurnResponse {
	resp := &entity.TurnResponse{
		Session:            ToSessionDTO(result.Session),
		Round:              ToRoundResponse(result.Round),
		FollowupIssued:     result.FollowupIssued,
		CompletionEligible: result.CompletionEligible,
	}

	if result.Round != nil {
		resp.Analysis = result.Round.Analysis.Clone()
		if resp.Round != nil && result.Prompt != "" {
			resp.Round.Prompt = result.Prompt
		}
	}

	return resp
}

func nextAction(session *entity.InterviewSession) string {
	switch {
	case session.State() == entity.StateIntroduction:
		return NextActionAcknowledgeIntroduction
	case len(session.UserInfo.MissingFields()) > 0:
		return NextActionCollectInfo
	default:
		return NextActionGenerateRounds
	}
}
