package callback

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/futig/interview-flow/internal/config"
	"github.com/futig/interview-flow/internal/entity"
	"github.com/futig/interview-flow/internal/integration/common"
	pkgRetry "github.com/futig/interview-flow/internal/pkg/retry"
	pkghttp "github.com/futig/interview-flow/pkg/http"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const signatureHeader = "X-Interview-Signature"

// Connector delivers session lifecycle events to client webhooks.
// Delivery is best effort: failures are logged, never returned to the API caller.
type Connector struct {
	config    config.CallbackConnectorConfig
	connector *pkghttp.Connector
	now       func() time.Time
}

func NewConnector(cfg config.CallbackConnectorConfig, logger *zap.Logger) *Connector {
	return &Connector{
		connector: common.NewBaseConnector(cfg.HTTPClientConfig, logger),
		config:    cfg,
		now:       time.Now,
	}
}

func (c *Connector) SendRoundsReady(ctx context.Context, callbackURL, requestID string, data *entity.CallbackRoundsReadyData) {
	c.notify(ctx, callbackURL, requestID, entity.CallbackEventTypeRoundsReady, data)
}

func (c *Connector) SendFinalResult(ctx context.Context, callbackURL, requestID string, data *entity.CallbackFinalResultData) {
	c.notify(ctx, callbackURL, requestID, entity.CallbackEventTypeFinalResult, data)
}

func (c *Connector) SendError(ctx context.Context, callbackURL, requestID, message string, details map[string]any) {
	c.notify(ctx, callbackURL, requestID, entity.CallbackEventTypeError, &entity.CallbackErrorData{
		Error: entity.CallbackErrorDetails{Message: message, Details: details},
	})
}

func (c *Connector) notify(ctx context.Context, callbackURL, requestID string, eventType entity.CallbackEventType, data any) {
	ctx = ctxzap.ToContext(ctx, ctxzap.Extract(ctx).With(
		zap.String("event_type", string(eventType)),
		zap.String("callback_url", callbackURL),
	))

	if err := c.Send(ctx, callbackURL, requestID, &entity.CallbackEvent{Event: eventType, Data: data}); err != nil {
		ctxzap.Error(ctx, "callback delivery failed", zap.Error(err))
		return
	}
	ctxzap.Info(ctx, "callback delivered")
}

// Send posts one event, retrying transient failures
func (c *Connector) Send(ctx context.Context, callbackURL, requestID string, event *entity.CallbackEvent) error {
	if event.Timestamp == "" {
		event.Timestamp = c.now().UTC().Format(time.RFC3339)
	}

	opts := []pkghttp.RequestOpt{
		pkghttp.WithURL(callbackURL),
		pkghttp.WithHeader("X-Request-ID", requestID),
	}

	if c.config.SigningSecret != "" {
		payload, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("marshal %s event: %w", event.Event, err)
		}
		opts = append(opts, pkghttp.WithHeader(signatureHeader, Sign(c.config.SigningSecret, payload)))
	}

	err := pkgRetry.Do(ctx, c.config.Retry, func(ctx context.Context) error {
		return c.connector.DoRequest(ctx, http.MethodPost, "", event, nil, opts...)
	})
	if err != nil {
		return fmt.Errorf("post %s event: %w", event.Event, err)
	}
	return nil
}

// Sign returns the signature header value receivers recompute over the raw body
func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}
