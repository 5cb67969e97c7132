package asr

import (
	"context"
	"crypto/sha256"
	"encoding/binary"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// cannedAnswers are long enough that the offline analyzer accepts them
// without asking for a follow-up
var cannedAnswers = []string{
	"In my last role I owned the payments backend. The hardest part was moving a legacy service " +
		"to a new database without downtime, so I planned the migration in small steps with a rollback plan. " +
		"We cut request latency by forty percent and had no incidents during the switch.",
	"I led a team of four engineers building an internal analytics platform. We disagreed about the storage " +
		"engine, so I set up a short benchmark and we chose based on the numbers. " +
		"The platform now serves every product team and reports run five times faster.",
	"When a production outage hit our checkout flow I coordinated the response, found a bad configuration " +
		"change within an hour and wrote the postmortem. Afterwards I added automated checks for that class of change " +
		"and we have not had a repeat since.",
}

// MockConnector is an offline stand-in for the recognizer. The same audio
// always yields the same answer.
type MockConnector struct {
	logger *zap.Logger
}

func NewMockConnector(logger *zap.Logger) *MockConnector {
	return &MockConnector{logger: logger}
}

func (m *MockConnector) TranscribeBytes(ctx context.Context, audioData []byte, filename string) (string, error) {
	if len(audioData) == 0 {
		return "", ErrEmptyAudio
	}

	sum := sha256.Sum256(audioData)
	text := cannedAnswers[binary.BigEndian.Uint64(sum[:8])%uint64(len(cannedAnswers))]

	ctxzap.Debug(ctx, "[MOCK] answer transcribed",
		zap.String("filename", filename),
		zap.Int("size", len(audioData)),
	)
	return text, nil
}
