package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fileURLBot struct {
	*fakeBot
	url string
}

func (b *fileURLBot) GetFileDirectURL(string) (string, error) { return b.url, nil }

func newTestDownloader(t *testing.T, handler http.HandlerFunc, maxSize int) *VoiceDownloader {
	t.Helper()

	srv := httptest.NewTLSServer(handler)
	t.Cleanup(srv.Close)

	d := NewVoiceDownloader(&fileURLBot{fakeBot: &fakeBot{}, url: srv.URL + "/file/botSECRET/voice/1.oga"}, "ffmpeg", maxSize)
	d.client = srv.Client()
	d.transcode = func(_ context.Context, in []byte) ([]byte, error) {
		return append([]byte("WAV:"), in...), nil
	}
	return d
}

func TestVoiceDownloader_Fetch(t *testing.T) {
	d := newTestDownloader(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/file/botSECRET/voice/1.oga", r.URL.Path)
		_, _ = w.Write([]byte("ogg"))
	}, 0)

	out, err := d.Fetch(context.Background(), &tgbotapi.Voice{FileID: "1", FileSize: 3})
	require.NoError(t, err)
	assert.Equal(t, "WAV:ogg", string(out))
}

func TestVoiceDownloader_SizeLimits(t *testing.T) {
	d := newTestDownloader(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 64)))
	}, 16)

	// declared size
	_, err := d.Fetch(context.Background(), &tgbotapi.Voice{FileID: "1", FileSize: 17})
	assert.ErrorIs(t, err, ErrVoiceTooLarge)

	// actual body
	_, err = d.Fetch(context.Background(), &tgbotapi.Voice{FileID: "1", FileSize: 8})
	assert.ErrorIs(t, err, ErrVoiceTooLarge)
}

func TestVoiceDownloader_RejectsPlainHTTP(t *testing.T) {
	d := NewVoiceDownloader(&fileURLBot{fakeBot: &fakeBot{}, url: "http://api.telegram.org/file/botSECRET/voice/1.oga"}, "ffmpeg", 0)

	_, err := d.Fetch(context.Background(), &tgbotapi.Voice{FileID: "1"})
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "SECRET")
}

func TestRedactToken(t *testing.T) {
	assert.Equal(t, "https://api.telegram.org/file/bot<token>/voice/1.oga",
		redactToken("https://api.telegram.org/file/bot123:ABC/voice/1.oga"))
	assert.Equal(t, "https://files.example/1", redactToken("https://files.example/1"))
}
