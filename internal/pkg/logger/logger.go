// Package logger carries request-scoped zap fields through context.
package logger

import (
	"context"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// AddFields returns ctx with the given fields appended to its logger
func AddFields(ctx context.Context, fields ...zap.Field) context.Context {
	return ctxzap.ToContext(ctx, ctxzap.Extract(ctx).With(fields...))
}

// WithAction tags the context logger with the operation being served
func WithAction(ctx context.Context, action string) context.Context {
	return AddFields(ctx, zap.String("action", action))
}

// WithSession tags the context logger with an interview session and action
func WithSession(ctx context.Context, sessionID, action string) context.Context {
	return AddFields(ctx,
		zap.String("session_id", sessionID),
		zap.String("action", action),
	)
}

// Detach returns a background context that keeps the logger of ctx.
// Work that outlives the request (callbacks, async generation) uses it.
func Detach(ctx context.Context, fields ...zap.Field) context.Context {
	return AddFields(ctxzap.ToContext(context.Background(), ctxzap.Extract(ctx)), fields...)
}
