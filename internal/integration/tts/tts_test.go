package tts

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/futig/interview-flow/internal/config"
	"github.com/futig/interview-flow/internal/entity"
	pkgRetry "github.com/futig/interview-flow/internal/pkg/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type staticGenerator struct {
	rounds []entity.InterviewRound
	err    error
}

func (g staticGenerator) GenerateRounds(context.Context, entity.UserInfo) ([]entity.InterviewRound, error) {
	return g.rounds, g.err
}

type failingSynthesizer struct {
	failOn string
	inner  Synthesizer
}

func (s failingSynthesizer) Synthesize(ctx context.Context, text string) (*entity.TTSSynthesizeResponse, error) {
	if text == s.failOn {
		return nil, errors.New("tts unavailable")
	}
	return s.inner.Synthesize(ctx, text)
}

func TestConnector_Synthesize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/speak", r.URL.Path)
		assert.Equal(t, "tts-key", r.Header.Get("X-Api-Key"))
		assert.Empty(t, r.Header.Get("Authorization"))

		var req entity.TTSSynthesizeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "hello", req.Text)
		assert.Equal(t, "siqi", req.Voice)

		_ = json.NewEncoder(w).Encode(entity.TTSSynthesizeResponse{AudioURL: "https://cdn/a.mp3", Duration: 3})
	}))
	defer srv.Close()

	c := NewConnector(config.TTSConnectorConfig{
		HTTPClientConfig: config.HTTPClientConfig{
			Url:            srv.URL,
			RequestTimeout: 5 * time.Second,
			Token:          "tts-key",
		},
		SynthesizeEndpoint: "/speak",
		Voice:              "siqi",
		APIKeyHeader:       "X-Api-Key",
		Retry:              pkgRetry.RetryConfig{Attempts: 1},
	}, zap.NewNop())

	resp, err := c.Synthesize(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/a.mp3", resp.AudioURL)
	assert.Equal(t, 3, resp.Duration)

	_, err = c.Synthesize(context.Background(), "")
	require.Error(t, err)
}

func TestMockConnector_Synthesize(t *testing.T) {
	m := NewMockConnector(zap.NewNop())

	a, err := m.Synthesize(context.Background(), "one two three four five")
	require.NoError(t, err)
	b, err := m.Synthesize(context.Background(), "one two three four five")
	require.NoError(t, err)

	assert.Equal(t, a.AudioURL, b.AudioURL)
	assert.Equal(t, 2, a.Duration)
}

func TestVoicedGenerator(t *testing.T) {
	gen := staticGenerator{rounds: []entity.InterviewRound{
		{Question: "first", Duration: 120},
		{Question: "second", Duration: 90},
	}}
	voice := failingSynthesizer{failOn: "second", inner: NewMockConnector(zap.NewNop())}

	rounds, err := NewVoicedGenerator(gen, voice).GenerateRounds(context.Background(), entity.UserInfo{})
	require.NoError(t, err)
	require.Len(t, rounds, 2)

	assert.NotEmpty(t, rounds[0].AudioURL)
	assert.Equal(t, 120, rounds[0].Duration)
	assert.Empty(t, rounds[1].AudioURL)
	assert.Equal(t, "second", rounds[1].Question)
}

func TestVoicedGenerator_PropagatesGeneratorError(t *testing.T) {
	gen := staticGenerator{err: errors.New("llm down")}

	_, err := NewVoicedGenerator(gen, NewMockConnector(zap.NewNop())).GenerateRounds(context.Background(), entity.UserInfo{})
	require.EqualError(t, err, "llm down")
}
