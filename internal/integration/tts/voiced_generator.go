package tts

import (
	"context"

	"github.com/futig/interview-flow/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (*entity.TTSSynthesizeResponse, error)
}

type RoundGenerator interface {
	GenerateRounds(ctx context.Context, info entity.UserInfo) ([]entity.InterviewRound, error)
}

// VoicedGenerator attaches synthesized audio to every generated question.
// A round whose synthesis fails keeps its text and goes without audio.
type VoicedGenerator struct {
	next  RoundGenerator
	voice Synthesizer
}

func NewVoicedGenerator(next RoundGenerator, voice Synthesizer) *VoicedGenerator {
	return &VoicedGenerator{next: next, voice: voice}
}

func (g *VoicedGenerator) GenerateRounds(ctx context.Context, info entity.UserInfo) ([]entity.InterviewRound, error) {
	rounds, err := g.next.GenerateRounds(ctx, info)
	if err != nil {
		return nil, err
	}

	voiced := 0
	for i := range rounds {
		if ctx.Err() != nil {
			break
		}

		resp, err := g.voice.Synthesize(ctx, rounds[i].Question)
		if err != nil {
			ctxzap.Warn(ctx, "question left without audio",
				zap.Int("round_index", i),
				zap.Error(err),
			)
			continue
		}

		// Duration stays the expected answer time, not the audio length
		rounds[i].AudioURL = resp.AudioURL
		voiced++
	}

	ctxzap.Info(ctx, "questions voiced", zap.Int("voiced", voiced), zap.Int("total", len(rounds)))

	return rounds, nil
}
