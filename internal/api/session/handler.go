package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"

	"github.com/futig/interview-flow/internal/entity"
	"github.com/futig/interview-flow/internal/pkg/logger"
	"github.com/futig/interview-flow/internal/pkg/response"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// Seconds a client should wait before retrying a busy session
const retryAfterSeconds = "1"

type Handler struct {
	usecase       SessionUsecase
	callbackConn  CallbackConnector
	maxUploadSize int64

	// background generations still running, waited for on shutdown
	inflight sync.WaitGroup
}

func NewHandler(
	usecase SessionUsecase,
	callbackConn CallbackConnector,
	maxUploadSize int64,
) *Handler {
	return &Handler{
		usecase:       usecase,
		callbackConn:  callbackConn,
		maxUploadSize: maxUploadSize,
	}
}

// Wait blocks until background work started by the handler is finished
func (h *Handler) Wait() {
	h.inflight.Wait()
}

// CreateSession handles POST /interview-sessions - Create new session
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "CreateSession")

	var req entity.CreateSessionRequest
	if err := decodeJSON(r, &req, false); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	resp, err := h.usecase.CreateSession(ctx, &req)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctxzap.Info(ctx, "interview session created",
		zap.String("session_id", resp.Session.ID),
		zap.String("state", string(resp.Session.State)),
	)

	response.Created(w, resp)
}

// ListSessions handles GET /interview-sessions - List sessions
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "ListSessions")
	q := r.URL.Query()

	req := entity.ListSessionsRequest{
		UserID: q.Get("user_id"),
		State:  entity.InterviewState(q.Get("state")),
	}

	var err error
	if req.Skip, err = intParam(q.Get("skip")); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid skip parameter", err)
		return
	}
	if req.Limit, err = intParam(q.Get("limit")); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid limit parameter", err)
		return
	}

	resp, err := h.usecase.ListSessions(ctx, &req)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, resp)
}

// GetSession handles GET /interview-sessions/{id} - Session with its rounds
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	ctx, sessionID := sessionContext(r, "GetSession")

	ctxzap.Debug(ctx, "fetching session")

	resp, err := h.usecase.GetSession(ctx, sessionID)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, resp)
}

// AcknowledgeIntroduction handles POST /interview-sessions/{id}/introduction/ack
func (h *Handler) AcknowledgeIntroduction(w http.ResponseWriter, r *http.Request) {
	ctx, sessionID := sessionContext(r, "AcknowledgeIntroduction")

	resp, err := h.usecase.AcknowledgeIntroduction(ctx, sessionID)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, resp)
}

// CollectUserInfo handles PATCH /interview-sessions/{id}/user-info - Merge profile fields
func (h *Handler) CollectUserInfo(w http.ResponseWriter, r *http.Request) {
	ctx, sessionID := sessionContext(r, "CollectUserInfo")

	var info entity.UserInfo
	if err := decodeJSON(r, &info, false); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	resp, err := h.usecase.CollectUserInfo(ctx, sessionID, &info)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctxzap.Info(ctx, "user info collected", zap.Strings("missing_fields", resp.MissingFields))

	response.Success(w, resp)
}

// GenerateRounds handles POST /interview-sessions/{id}/rounds - Generate questions.
// With a callback URL (in the body or stored on the session) generation runs in
// the background and the result is posted to the callback.
func (h *Handler) GenerateRounds(w http.ResponseWriter, r *http.Request) {
	ctx, sessionID := sessionContext(r, "GenerateRounds")
	requestID := chimiddleware.GetReqID(r.Context())

	var req entity.GenerateRoundsRequest
	if err := decodeJSON(r, &req, true); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	session, err := h.usecase.PrepareGeneration(ctx, sessionID)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	callbackURL := req.CallbackURL
	if callbackURL == "" {
		callbackURL = session.CallbackURL
	}

	if callbackURL == "" {
		resp, err := h.usecase.GenerateRounds(ctx, sessionID)
		if err != nil {
			h.handleUsecaseError(ctx, w, err)
			return
		}

		response.Success(w, resp)
		return
	}

	h.inflight.Add(1)
	go func() {
		defer h.inflight.Done()

		bgCtx := logger.Detach(ctx,
			zap.String("request_id", requestID),
			zap.String("action", "GenerateRounds-async"),
		)

		detail, err := h.usecase.GenerateRounds(bgCtx, sessionID)
		if err != nil {
			ctxzap.Error(bgCtx, "failed to generate rounds", zap.Error(err))
			h.callbackConn.SendError(bgCtx, callbackURL, requestID, "failed to generate rounds", map[string]any{
				"session_id": sessionID,
				"error":      err.Error(),
			})
			return
		}

		ctxzap.Info(bgCtx, "rounds generated", zap.Int("total_rounds", len(detail.Rounds)))

		h.callbackConn.SendRoundsReady(bgCtx, callbackURL, requestID, roundsReadyData(detail))
	}()

	response.Accepted(w, map[string]string{
		"status":  "accepted",
		"message": "question generation is being processed",
	})
}

// StartInterview handles POST /interview-sessions/{id}/start
func (h *Handler) StartInterview(w http.ResponseWriter, r *http.Request) {
	ctx, sessionID := sessionContext(r, "StartInterview")

	resp, err := h.usecase.StartInterview(ctx, sessionID)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, resp)
}

// NextQuestion handles POST /interview-sessions/{id}/questions/next
func (h *Handler) NextQuestion(w http.ResponseWriter, r *http.Request) {
	ctx, sessionID := sessionContext(r, "NextQuestion")

	resp, err := h.usecase.NextQuestion(ctx, sessionID)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, resp)
}

// SubmitTextResponse handles POST /interview-sessions/{id}/responses - Text answer
func (h *Handler) SubmitTextResponse(w http.ResponseWriter, r *http.Request) {
	ctx, sessionID := sessionContext(r, "SubmitTextResponse")

	var req entity.SubmitResponseRequest
	if err := decodeJSON(r, &req, false); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	resp, err := h.usecase.SubmitTextResponse(ctx, sessionID, &req)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, resp)
}

// SubmitAudioResponse handles POST /interview-sessions/{id}/responses/audio - WAV answer
func (h *Handler) SubmitAudioResponse(w http.ResponseWriter, r *http.Request) {
	ctx, sessionID := sessionContext(r, "SubmitAudioResponse")

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "failed to parse form", err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("audio")
	if err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "audio file is required", err)
		return
	}
	file.Close()

	duration, err := intParam(r.FormValue("duration"))
	if err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid duration", err)
		return
	}

	ctxzap.Info(ctx, "submitting audio response", zap.Int64("size_bytes", header.Size))

	resp, err := h.usecase.SubmitAudioResponse(ctx, sessionID, &entity.SubmitAudioResponseRequest{
		AudioFile: header,
		Duration:  duration,
	})
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, resp)
}

// SkipRound handles POST /interview-sessions/{id}/rounds/current/skip
func (h *Handler) SkipRound(w http.ResponseWriter, r *http.Request) {
	ctx, sessionID := sessionContext(r, "SkipRound")

	resp, err := h.usecase.SkipRound(ctx, sessionID)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, resp)
}

// CompleteInterview handles POST /interview-sessions/{id}/complete
func (h *Handler) CompleteInterview(w http.ResponseWriter, r *http.Request) {
	ctx, sessionID := sessionContext(r, "CompleteInterview")
	requestID := chimiddleware.GetReqID(r.Context())

	resp, err := h.usecase.CompleteInterview(ctx, sessionID)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	if detail, err := h.usecase.GetSession(ctx, sessionID); err == nil && detail.Session.CallbackURL != "" {
		callbackURL := detail.Session.CallbackURL
		summary := *resp.Summary

		h.inflight.Add(1)
		go func() {
			defer h.inflight.Done()

			bgCtx := logger.Detach(ctx,
				zap.String("request_id", requestID),
				zap.String("action", "CompleteInterview-callback"),
			)
			h.callbackConn.SendFinalResult(bgCtx, callbackURL, requestID, &entity.CallbackFinalResultData{
				SessionID: sessionID,
				Summary:   summary,
			})
		}()
	}

	response.Success(w, resp)
}

// AbortSession handles POST /interview-sessions/{id}/abort
func (h *Handler) AbortSession(w http.ResponseWriter, r *http.Request) {
	ctx, sessionID := sessionContext(r, "AbortSession")

	var req entity.AbortSessionRequest
	if err := decodeJSON(r, &req, true); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	resp, err := h.usecase.Abort(ctx, sessionID, req.Reason)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctxzap.Info(ctx, "session aborted")
	response.Success(w, resp)
}

// GetSummary handles GET /interview-sessions/{id}/summary - Final summary or preview
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	ctx, sessionID := sessionContext(r, "GetSummary")

	resp, err := h.usecase.GetSummary(ctx, sessionID)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	response.Success(w, resp)
}

// GetReport handles GET /interview-sessions/{id}/report?format= - Downloadable report
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	ctx, sessionID := sessionContext(r, "GetReport")

	formatParam := r.URL.Query().Get("format")
	if formatParam == "" {
		formatParam = string(entity.FormatMarkdown)
	}

	format := entity.ResultFormat(formatParam)
	if !format.IsValid() {
		ctxzap.Warn(ctx, "invalid format parameter", zap.String("format", formatParam))
		h.respondError(ctx, w, http.StatusBadRequest, "invalid format parameter",
			fmt.Errorf("format must be one of: markdown, docx, pdf"))
		return
	}

	ctx = logger.AddFields(ctx, zap.String("format", string(format)))

	report, err := h.usecase.BuildReport(ctx, sessionID, format)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctxzap.Info(ctx, "report rendered", zap.Int("size_bytes", len(report.Content)))
	response.File(w, report.ContentType, report.Filename, report.Content)
}

func sessionContext(r *http.Request, action string) (context.Context, string) {
	sessionID := chi.URLParam(r, "id")
	return logger.WithSession(r.Context(), sessionID, action), sessionID
}

func decodeJSON(r *http.Request, dst any, allowEmpty bool) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if allowEmpty && errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func intParam(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

func roundsReadyData(detail *entity.SessionDetailResponse) *entity.CallbackRoundsReadyData {
	rounds := make([]entity.RoundResponse, 0, len(detail.Rounds))
	for _, r := range detail.Rounds {
		rounds = append(rounds, *r)
	}

	return &entity.CallbackRoundsReadyData{
		SessionID:   detail.Session.ID,
		TotalRounds: len(rounds),
		Rounds:      rounds,
	}
}

func (h *Handler) respondError(ctx context.Context, w http.ResponseWriter, status int, message string, err error) {
	if status >= http.StatusInternalServerError {
		ctxzap.Error(ctx, message, zap.Error(err))
	} else {
		ctxzap.Warn(ctx, message, zap.Error(err))
	}

	resp := entity.ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
	}

	var missing *entity.MissingInfoError
	if errors.As(err, &missing) {
		resp.Fields = missing.Fields
	}

	if status < http.StatusInternalServerError && err != nil {
		resp.Message = fmt.Sprintf("%s: %s", message, err)
	}

	response.JSON(w, status, resp)
}

func (h *Handler) handleUsecaseError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, entity.ErrSessionNotFound):
		h.respondError(ctx, w, http.StatusNotFound, "session not found", err)
	case errors.Is(err, entity.ErrMissingRequiredInfo):
		h.respondError(ctx, w, http.StatusBadRequest, "missing required info", err)
	case errors.Is(err, entity.ErrInvalidParameter), errors.Is(err, entity.ErrInvalidFormat), errors.Is(err, entity.ErrMissingField):
		h.respondError(ctx, w, http.StatusBadRequest, "invalid parameter", err)
	case errors.Is(err, entity.ErrInvalidExtension), errors.Is(err, entity.ErrFileTooLarge), errors.Is(err, entity.ErrInvalidFile):
		h.respondError(ctx, w, http.StatusBadRequest, "invalid file", err)
	case errors.Is(err, entity.ErrConcurrentModification):
		w.Header().Set("Retry-After", retryAfterSeconds)
		h.respondError(ctx, w, http.StatusConflict, "session is busy", err)
	case errors.Is(err, entity.ErrSessionTerminal):
		h.respondError(ctx, w, http.StatusConflict, "session is finished", err)
	case errors.Is(err, entity.ErrInvalidStateForQuestion),
		errors.Is(err, entity.ErrInvalidSessionState),
		errors.Is(err, entity.ErrNoRoundsRemaining),
		errors.Is(err, entity.ErrRoundsIncomplete):
		h.respondError(ctx, w, http.StatusConflict, "invalid session state", err)
	case errors.Is(err, entity.ErrGenerationFailed), errors.Is(err, entity.ErrTranscriptionFailed):
		h.respondError(ctx, w, http.StatusBadGateway, "upstream service failed", err)
	default:
		h.respondError(ctx, w, http.StatusInternalServerError, "internal server error", err)
	}
}
