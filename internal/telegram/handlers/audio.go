package handlers

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os/exec"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	defaultMaxVoiceSize = 10 << 20
	downloadTimeout     = 30 * time.Second
	asrSampleRate       = "16000"
)

var ErrVoiceTooLarge = errors.New("voice message too large")

// transcoder turns Telegram OGG/Opus into what the recognizer accepts
type transcoder func(ctx context.Context, input []byte) ([]byte, error)

// VoiceDownloader fetches voice answers from Telegram as WAV
type VoiceDownloader struct {
	api       BotAPI
	client    *http.Client
	maxSize   int
	transcode transcoder
}

func NewVoiceDownloader(api BotAPI, ffmpegPath string, maxSize int) *VoiceDownloader {
	if maxSize <= 0 {
		maxSize = defaultMaxVoiceSize
	}
	return &VoiceDownloader{
		api: api,
		client: &http.Client{
			Timeout: downloadTimeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{MinVersion: tls.VersionTLS12},
			},
		},
		maxSize:   maxSize,
		transcode: ffmpegWAV(ffmpegPath),
	}
}

func (d *VoiceDownloader) Fetch(ctx context.Context, voice *tgbotapi.Voice) ([]byte, error) {
	if voice.FileSize > d.maxSize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrVoiceTooLarge, voice.FileSize, d.maxSize)
	}

	fileURL, err := d.api.GetFileDirectURL(voice.FileID)
	if err != nil {
		return nil, fmt.Errorf("resolve voice file: %w", err)
	}
	if u, err := url.Parse(fileURL); err != nil || u.Scheme != "https" {
		return nil, fmt.Errorf("refusing voice file URL %q", redactToken(fileURL))
	}

	ogg, err := d.download(ctx, fileURL)
	if err != nil {
		return nil, err
	}

	return d.transcode(ctx, ogg)
}

func (d *VoiceDownloader) download(ctx context.Context, fileURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		// the URL carries the bot token
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return nil, fmt.Errorf("download voice: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download voice: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, int64(d.maxSize)+1))
	if err != nil {
		return nil, fmt.Errorf("read voice: %w", err)
	}
	if len(data) > d.maxSize {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrVoiceTooLarge, d.maxSize)
	}
	return data, nil
}

// redactToken hides the bot token segment of a Telegram file URL
func redactToken(fileURL string) string {
	const marker = "/file/bot"
	i := strings.Index(fileURL, marker)
	if i < 0 {
		return fileURL
	}
	rest := fileURL[i+len(marker):]
	if j := strings.IndexByte(rest, '/'); j >= 0 {
		return fileURL[:i+len(marker)] + "<token>" + rest[j:]
	}
	return fileURL[:i+len(marker)] + "<token>"
}

// ffmpegWAV pipes audio through ffmpeg into mono 16 kHz WAV
func ffmpegWAV(binary string) transcoder {
	return func(ctx context.Context, input []byte) ([]byte, error) {
		cmd := exec.CommandContext(ctx, binary,
			"-hide_banner", "-loglevel", "error",
			"-i", "pipe:0",
			"-f", "wav", "-ar", asrSampleRate, "-ac", "1",
			"pipe:1",
		)
		cmd.Stdin = bytes.NewReader(input)

		var stdout, stderr bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr

		if err := cmd.Run(); err != nil {
			if msg := strings.TrimSpace(stderr.String()); msg != "" {
				return nil, fmt.Errorf("ffmpeg: %w: %s", err, msg)
			}
			return nil, fmt.Errorf("ffmpeg: %w", err)
		}
		if stdout.Len() == 0 {
			return nil, errors.New("ffmpeg: empty output")
		}
		return stdout.Bytes(), nil
	}
}
