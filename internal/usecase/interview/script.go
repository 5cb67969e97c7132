package interview

// IntroductionScript is what the interviewer says when a session is created.
type IntroductionScript struct {
	FirstTime []string `json:"first_time"`
	Returning []string `json:"returning"`
}

func DefaultIntroductionScript() IntroductionScript {
	return IntroductionScript{
		FirstTime: []string{
			"Hello and welcome to the AI interview! I will be your interviewer today.",
			"Before we start, let me walk you through how the interview works.",
			"It has two parts.",
			"First we confirm some information about you: the position you are aiming for and your background.",
			"Then comes the interview itself, with questions tailored to your target position.",
			"The whole interview takes about 15 to 20 minutes, so please relax.",
			"A few tips before we begin:",
			"1. Make sure your connection is stable.",
			"2. Find a quiet place without distractions.",
			"3. Speak naturally and clearly.",
			"4. Aim for two to three minutes per answer.",
			"5. If something goes wrong you can always start over.",
			"Let's start with a few questions about you.",
		},
		Returning: []string{
			"Welcome back, good to see you again!",
			"Let's quickly confirm your information and go straight to the interview.",
		},
	}
}

func (s IntroductionScript) lines(firstTime bool) []string {
	var lines []string
	if firstTime {
		lines = s.FirstTime
	} else {
		lines = s.Returning
	}

	out := make([]string, len(lines))
	copy(out, lines)
	return out
}
