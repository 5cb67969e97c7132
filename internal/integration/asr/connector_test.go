package asr

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/futig/interview-flow/internal/config"
	pkgRetry "github.com/futig/interview-flow/internal/pkg/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestConnector(url string) *Connector {
	return NewConnector(config.ASRConnectorConfig{
		HTTPClientConfig:   config.HTTPClientConfig{Url: url, RequestTimeout: 5 * time.Second},
		TranscribeEndpoint: "/transcribe",
		Retry:              pkgRetry.RetryConfig{Attempts: 2, Delay: time.Millisecond, MaxDelay: time.Millisecond},
	}, zap.NewNop())
}

func TestConnector_TranscribeBytes(t *testing.T) {
	audio := []byte("RIFF....WAVEfmt ")
	sum := sha256.Sum256(audio)

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, hex.EncodeToString(sum[:]), r.FormValue("checksum"))

		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, "answer.wav", hdr.Filename)
		body, _ := io.ReadAll(f)
		assert.Equal(t, audio, body)

		_, _ = w.Write([]byte(`{"text":"  I built the billing service.  "}`))
	}))
	defer srv.Close()

	text, err := newTestConnector(srv.URL).TranscribeBytes(context.Background(), audio, "answer.wav")
	require.NoError(t, err)
	assert.Equal(t, "I built the billing service.", text)
	assert.EqualValues(t, 2, calls.Load())
}

func TestConnector_TranscribeBytes_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"text":""}`))
	}))
	defer srv.Close()

	c := newTestConnector(srv.URL)

	_, err := c.TranscribeBytes(context.Background(), nil, "a.wav")
	assert.ErrorIs(t, err, ErrEmptyAudio)

	_, err = c.TranscribeBytes(context.Background(), []byte("x"), "a.wav")
	assert.ErrorIs(t, err, ErrEmptyTranscript)
}

func TestConnector_SendsLanguageHint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "en-US", r.FormValue("language"))
		_, _ = w.Write([]byte(`{"text":"fine"}`))
	}))
	defer srv.Close()

	c := newTestConnector(srv.URL)
	c.config.Language = "en-US"

	text, err := c.TranscribeBytes(context.Background(), []byte("audio"), "a.wav")
	require.NoError(t, err)
	assert.Equal(t, "fine", text)
}

func TestMockConnector_Deterministic(t *testing.T) {
	m := NewMockConnector(zap.NewNop())

	first, err := m.TranscribeBytes(context.Background(), []byte("round one"), "a.wav")
	require.NoError(t, err)
	again, err := m.TranscribeBytes(context.Background(), []byte("round one"), "a.wav")
	require.NoError(t, err)
	assert.Equal(t, first, again)
	assert.Contains(t, cannedAnswers, first)

	_, err = m.TranscribeBytes(context.Background(), nil, "a.wav")
	assert.ErrorIs(t, err, ErrEmptyAudio)
}
