package entity

// Phase is the tagged union of session states. Each variant carries exactly
// the data that is meaningful in that state.
type Phase interface {
	State() InterviewState
	isPhase()
}

type Introduction struct{}

type CollectingInfo struct{}

type Generating struct{}

// Ready sessions have rounds; the next one to be asked is round 1.
type Ready struct{}

type InProgress struct {
	CurrentRound int
}

type Completed struct {
	Summary InterviewSummary
}

type Failed struct {
	Reason     string
	FailedFrom InterviewState
}

func (Introduction) State() InterviewState   { return StateIntroduction }
func (CollectingInfo) State() InterviewState { return StateCollectingInfo }
func (Generating) State() InterviewState     { return StateGenerating }
func (Ready) State() InterviewState          { return StateReady }
func (InProgress) State() InterviewState     { return StateInProgress }
func (Completed) State() InterviewState      { return StateCompleted }
func (Failed) State() InterviewState         { return StateError }

func (Introduction) isPhase()   {}
func (CollectingInfo) isPhase() {}
func (Generating) isPhase()     {}
func (Ready) isPhase()          {}
func (InProgress) isPhase()     {}
func (Completed) isPhase()      {}
func (Failed) isPhase()         {}
