package tts

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/futig/interview-flow/internal/entity"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// Speaking rate the mock uses to estimate audio length
const mockWordsPerSecond = 2.5

type MockConnector struct {
	logger *zap.Logger
}

func NewMockConnector(logger *zap.Logger) *MockConnector {
	return &MockConnector{
		logger: logger,
	}
}

// Synthesize returns a stable fake audio location derived from the text
func (m *MockConnector) Synthesize(ctx context.Context, text string) (*entity.TTSSynthesizeResponse, error) {
	if text == "" {
		return nil, errors.New("empty text provided")
	}

	ctxzap.Debug(ctx, "[MOCK] synthesizing speech", zap.Int("text_length", len(text)))

	hash := sha256.Sum256([]byte(text))
	words := len(strings.Fields(text))

	return &entity.TTSSynthesizeResponse{
		AudioURL: "mock://tts/" + hex.EncodeToString(hash[:8]) + ".mp3",
		Duration: max(1, int(float64(words)/mockWordsPerSecond+0.5)),
	}, nil
}
