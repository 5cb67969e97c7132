package tts

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/futig/interview-flow/internal/config"
	"github.com/futig/interview-flow/internal/entity"
	"github.com/futig/interview-flow/internal/integration/common"
	pkgRetry "github.com/futig/interview-flow/internal/pkg/retry"
	pkghttp "github.com/futig/interview-flow/pkg/http"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

type Connector struct {
	config    config.TTSConnectorConfig
	connector *pkghttp.Connector
	logger    *zap.Logger
}

func NewConnector(
	cfg config.TTSConnectorConfig,
	logger *zap.Logger,
) *Connector {
	var extra []pkghttp.HttpOpts
	if cfg.APIKeyHeader != "" {
		// The service takes its key in a custom header instead of a bearer token
		extra = append(extra, pkghttp.WithAPIKey(cfg.APIKeyHeader, cfg.Token))
		cfg.Token = ""
	}

	return &Connector{
		connector: common.NewBaseConnector(cfg.HTTPClientConfig, logger, extra...),
		config:    cfg,
		logger:    logger,
	}
}

// Synthesize voices the text and returns the audio location and its length in seconds
func (c *Connector) Synthesize(ctx context.Context, text string) (*entity.TTSSynthesizeResponse, error) {
	if text == "" {
		return nil, errors.New("empty text provided")
	}

	ctxzap.Debug(ctx, "synthesizing speech via TTS service", zap.Int("text_length", len(text)))

	req := &entity.TTSSynthesizeRequest{
		Text:  text,
		Voice: c.config.Voice,
	}

	resp, err := pkgRetry.DoWithData(ctx, c.config.Retry, func(ctx context.Context) (*entity.TTSSynthesizeResponse, error) {
		var resp entity.TTSSynthesizeResponse
		if err := c.connector.DoRequest(ctx, http.MethodPost, c.config.SynthesizeEndpoint, req, &resp); err != nil {
			return nil, err
		}
		return &resp, nil
	})
	if err != nil {
		return nil, fmt.Errorf("synthesize speech failed: %w", err)
	}

	if resp.AudioURL == "" {
		return nil, errors.New("invalid synthesize response: empty audio_url")
	}

	return resp, nil
}
