package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newRouter(logs *zap.Logger) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(Logger(logs))
	r.Use(CORS)
	r.Get("/sessions/{id}", func(w http.ResponseWriter, r *http.Request) {
		ctxzap.Info(r.Context(), "handler reached")
		w.WriteHeader(http.StatusNotFound)
	})
	return r
}

func TestLogger_AccessLine(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	router := newRouter(zap.New(core))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sessions/abc", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(chimiddleware.RequestIDHeader))

	require.Equal(t, 2, logs.Len())

	inner := logs.All()[0]
	assert.Equal(t, "handler reached", inner.Message)
	assert.Equal(t, rec.Header().Get(chimiddleware.RequestIDHeader), inner.ContextMap()["request_id"])

	access := logs.All()[1]
	assert.Equal(t, zapcore.WarnLevel, access.Level)
	fields := access.ContextMap()
	assert.Equal(t, "/sessions/{id}", fields["route"])
	assert.EqualValues(t, http.StatusNotFound, fields["status"])
}

func TestAccessLevel(t *testing.T) {
	assert.Equal(t, zapcore.InfoLevel, accessLevel(http.StatusCreated))
	assert.Equal(t, zapcore.WarnLevel, accessLevel(http.StatusConflict))
	assert.Equal(t, zapcore.ErrorLevel, accessLevel(http.StatusBadGateway))
}

func TestCORS_Preflight(t *testing.T) {
	router := newRouter(zap.NewNop())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/sessions/abc", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
