package asr

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/futig/interview-flow/internal/config"
	"github.com/futig/interview-flow/internal/entity"
	"github.com/futig/interview-flow/internal/integration/common"
	pkgRetry "github.com/futig/interview-flow/internal/pkg/retry"
	pkghttp "github.com/futig/interview-flow/pkg/http"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

var (
	ErrEmptyAudio      = errors.New("empty audio")
	ErrEmptyTranscript = errors.New("recognizer returned no text")
)

// Connector sends recorded answers to the speech recognition service
type Connector struct {
	config    config.ASRConnectorConfig
	connector *pkghttp.Connector
}

func NewConnector(cfg config.ASRConnectorConfig, logger *zap.Logger) *Connector {
	return &Connector{
		connector: common.NewBaseConnector(cfg.HTTPClientConfig, logger),
		config:    cfg,
	}
}

func (c *Connector) TranscribeBytes(ctx context.Context, audioData []byte, filename string) (string, error) {
	if len(audioData) == 0 {
		return "", ErrEmptyAudio
	}

	checksum := audioChecksum(audioData)
	ctx = ctxzap.ToContext(ctx, ctxzap.Extract(ctx).With(zap.String("audio_checksum", checksum)))

	ctxzap.Debug(ctx, "sending answer audio to recognizer",
		zap.String("filename", filename),
		zap.Int("size", len(audioData)),
	)

	form := transcribeForm(audioData, filename, checksum, c.config.Language)

	var resp entity.ASRTranscribeResponse
	err := pkgRetry.Do(ctx, c.config.Retry, func(ctx context.Context) error {
		return c.connector.DoMultipartRequest(ctx, http.MethodPost, c.config.TranscribeEndpoint, form, &resp)
	})
	if err != nil {
		return "", fmt.Errorf("transcribe %s: %w", filename, err)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", ErrEmptyTranscript
	}

	ctxzap.Info(ctx, "answer transcribed", zap.Int("words", len(strings.Fields(text))))
	return text, nil
}

// transcribeForm writes the multipart body; it is replayed on every retry
func transcribeForm(audio []byte, filename, checksum, language string) func(*multipart.Writer) error {
	return func(w *multipart.Writer) error {
		part, err := w.CreateFormFile("file", filename)
		if err != nil {
			return fmt.Errorf("create form file: %w", err)
		}
		if _, err := part.Write(audio); err != nil {
			return fmt.Errorf("write audio: %w", err)
		}

		fields := [][2]string{{"checksum", checksum}}
		if language != "" {
			fields = append(fields, [2]string{"language", language})
		}
		for _, f := range fields {
			if err := w.WriteField(f[0], f[1]); err != nil {
				return fmt.Errorf("write %s: %w", f[0], err)
			}
		}
		return nil
	}
}

func audioChecksum(audio []byte) string {
	sum := sha256.Sum256(audio)
	return hex.EncodeToString(sum[:])
}
