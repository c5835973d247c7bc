// Package api provides the HTTP boundary of the assistant service.
package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"erp-assistant/internal/assistant"
	stderrors "erp-assistant/internal/common/errors"
	"erp-assistant/internal/common/logger"
	"erp-assistant/internal/models"
)

// AssistantService is the slice of the service layer the handlers need.
type AssistantService interface {
	Submit(ctx context.Context, input assistant.SubmitInput) (*assistant.TurnResponse, error)
	SubmitFollowup(ctx context.Context, input assistant.SubmitInput) (*assistant.TurnResponse, error)
	Confirm(ctx context.Context, sessionID, finalText string) (*models.RequestRecord, error)
}

// Handler serves the assistant endpoints.
type Handler struct {
	service AssistantService
	logger  logger.Logger
}

func NewHandler(service AssistantService, log logger.Logger) *Handler {
	return &Handler{service: service, logger: log}
}

// RegisterRoutes mounts the assistant API under /api/assistant.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/assistant", func(r chi.Router) {
		r.Post("/submit", h.Submit)
		r.Post("/followup", h.Followup)
		r.Post("/confirm", h.Confirm)
	})
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	input, ok := h.decodeTurn(w, r)
	if !ok {
		return
	}

	resp, err := h.service.Submit(r.Context(), input)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	JSON(w, http.StatusOK, turnReply(resp))
}

func (h *Handler) Followup(w http.ResponseWriter, r *http.Request) {
	input, ok := h.decodeTurn(w, r)
	if !ok {
		return
	}
	if input.SessionID == "" {
		Error(w, http.StatusBadRequest, "sessionId is required")
		return
	}

	resp, err := h.service.SubmitFollowup(r.Context(), input)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	JSON(w, http.StatusOK, turnReply(resp))
}

func (h *Handler) Confirm(w http.ResponseWriter, r *http.Request) {
	var req ConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SessionID == "" {
		Error(w, http.StatusBadRequest, "sessionId is required")
		return
	}

	record, err := h.service.Confirm(r.Context(), req.SessionID, req.Text)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	JSON(w, http.StatusCreated, ConfirmReply{
		RequestID: record.ID,
		ProjectID: record.ProjectID,
		Amount:    record.Amount,
		Reason:    record.Reason,
		Status:    record.Status,
	})
}

func (h *Handler) decodeTurn(w http.ResponseWriter, r *http.Request) (assistant.SubmitInput, bool) {
	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return assistant.SubmitInput{}, false
	}

	input := assistant.SubmitInput{SessionID: req.SessionID, Text: req.Text}
	if req.AudioBase64 != "" {
		audio, err := base64.StdEncoding.DecodeString(req.AudioBase64)
		if err != nil {
			Error(w, http.StatusBadRequest, "audio must be base64 encoded")
			return assistant.SubmitInput{}, false
		}
		input.Audio = audio
	}

	if input.Text == "" && len(input.Audio) == 0 {
		Error(w, http.StatusBadRequest, "text or audio is required")
		return assistant.SubmitInput{}, false
	}
	return input, true
}

// writeServiceError maps service-layer error codes onto HTTP statuses.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case stderrors.IsCode(err, stderrors.ErrCodeTranscriptionFailed):
		Error(w, http.StatusUnprocessableEntity, "could not understand audio")
	case stderrors.IsCode(err, stderrors.ErrCodeSessionNotFound):
		Error(w, http.StatusNotFound, "session not found")
	case stderrors.IsCode(err, stderrors.ErrCodeRequestIncomplete):
		Error(w, http.StatusConflict, "request is incomplete")
	case stderrors.IsCode(err, stderrors.ErrCodeRecordValidationFailed):
		Error(w, http.StatusUnprocessableEntity, "request record failed validation")
	default:
		h.logger.WithError(err).Error("assistant turn failed", nil)
		Error(w, http.StatusInternalServerError, "internal server error")
	}
}

func turnReply(resp *assistant.TurnResponse) TurnReply {
	return TurnReply{
		SessionID:      resp.SessionID,
		RecognizedText: resp.RecognizedText,
		Reply:          resp.Reply,
		IsComplete:     resp.Complete,
		MissingSlot:    resp.MissingSlot,
	}
}
