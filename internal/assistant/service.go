// internal/assistant/service.go
package assistant

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"erp-assistant/internal/assistant/dialogue"
	"erp-assistant/internal/assistant/extract"
	stderrors "erp-assistant/internal/common/errors"
	"erp-assistant/internal/common/logger"
	"erp-assistant/internal/common/metrics"
	"erp-assistant/internal/models"
	"erp-assistant/internal/transcribe"
)

var tracer = otel.Tracer("erp-assistant/internal/assistant")

// Persister stores confirmed request records. Failures here are surfaced
// to the caller; the request is not considered submitted without it.
type Persister interface {
	SaveRequest(ctx context.Context, record *models.RequestRecord) error
}

// Indexer mirrors confirmed records into the audit index. Best effort.
type Indexer interface {
	IndexRequest(ctx context.Context, record *models.RequestRecord) error
}

// Notifier alerts the approver about a new pending request. Best effort.
type Notifier interface {
	NotifyApprover(ctx context.Context, record *models.RequestRecord) error
}

// WorkflowStarter dispatches the approval process for a record. Best effort.
type WorkflowStarter interface {
	StartApprovalProcess(ctx context.Context, record *models.RequestRecord) error
}

// SubmitInput carries one user turn. Text and Audio are mutually
// exclusive; when Audio is set it is transcribed first.
type SubmitInput struct {
	SessionID string
	Text      string
	Audio     []byte
}

// TurnResponse is what the caller relays back to the user.
type TurnResponse struct {
	SessionID      string
	RecognizedText string
	Reply          string
	Complete       bool
	MissingSlot    string
}

// Service runs the money-request dialogue end to end.
type Service struct {
	assembler   *extract.Assembler
	transcriber transcribe.Port
	sessions    dialogue.Store
	persister   Persister
	indexer     Indexer
	notifier    Notifier
	workflow    WorkflowStarter
	logger      logger.Logger

	locks *turnLocks
}

type Option func(*Service)

func WithIndexer(i Indexer) Option { return func(s *Service) { s.indexer = i } }
func WithNotifier(n Notifier) Option { return func(s *Service) { s.notifier = n } }
func WithWorkflow(w WorkflowStarter) Option { return func(s *Service) { s.workflow = w } }

func NewService(
	assembler *extract.Assembler,
	transcriber transcribe.Port,
	sessions dialogue.Store,
	persister Persister,
	log logger.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		assembler:   assembler,
		transcriber: transcriber,
		sessions:    sessions,
		persister:   persister,
		logger:      log,
		locks:       newTurnLocks(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit handles the opening turn of a conversation: it recognizes the
// input, runs a full extraction pass over it and either asks for the
// first missing slot or reads the request back for confirmation.
func (s *Service) Submit(ctx context.Context, input SubmitInput) (*TurnResponse, error) {
	ctx, span := tracer.Start(ctx, "assistant.submit")
	defer span.End()

	start := time.Now()

	text, err := s.recognize(ctx, input)
	if err != nil {
		span.RecordError(err)
		metrics.TurnsProcessed.WithLabelValues("submit", "transcription_failed").Inc()
		return nil, err
	}

	sessionID := input.SessionID
	if sessionID == "" {
		sessionID = uuid.New().String()
	}
	span.SetAttributes(attribute.String("session.id", sessionID))

	lock := s.locks.acquire(sessionID)
	defer s.locks.release(sessionID, lock)

	session := &dialogue.Session{
		ID:              sessionID,
		AccumulatedText: text,
		CreatedAt:       time.Now().UTC(),
	}

	resp, err := s.evaluateTurn(ctx, session, text)
	if err != nil {
		span.RecordError(err)
		metrics.TurnsProcessed.WithLabelValues("submit", "error").Inc()
		return nil, err
	}

	metrics.TurnsProcessed.WithLabelValues("submit", "ok").Inc()
	metrics.TurnDuration.WithLabelValues("submit").Observe(time.Since(start).Seconds())
	return resp, nil
}

// SubmitFollowup merges the user's answer to the pending prompt into the
// session text and re-runs the full extraction pass over the result.
func (s *Service) SubmitFollowup(ctx context.Context, input SubmitInput) (*TurnResponse, error) {
	ctx, span := tracer.Start(ctx, "assistant.followup",
		trace.WithAttributes(attribute.String("session.id", input.SessionID)))
	defer span.End()

	start := time.Now()

	text, err := s.recognize(ctx, input)
	if err != nil {
		span.RecordError(err)
		metrics.TurnsProcessed.WithLabelValues("followup", "transcription_failed").Inc()
		return nil, err
	}

	lock := s.locks.acquire(input.SessionID)
	defer s.locks.release(input.SessionID, lock)

	session, err := s.sessions.Get(ctx, input.SessionID)
	if err != nil {
		if errors.Is(err, dialogue.ErrSessionNotFound) {
			return nil, stderrors.NewSessionNotFoundError(input.SessionID)
		}
		return nil, err
	}

	merged := dialogue.Merge(session.AccumulatedText, text, session.PendingSlot)

	resp, err := s.evaluateTurn(ctx, session, merged)
	if err != nil {
		span.RecordError(err)
		metrics.TurnsProcessed.WithLabelValues("followup", "error").Inc()
		return nil, err
	}
	resp.RecognizedText = text

	metrics.TurnsProcessed.WithLabelValues("followup", "ok").Inc()
	metrics.TurnDuration.WithLabelValues("followup").Observe(time.Since(start).Seconds())
	return resp, nil
}

// evaluateTurn runs extraction over the session's (updated) text, decides
// the next dialogue step and saves the session state.
func (s *Service) evaluateTurn(ctx context.Context, session *dialogue.Session, text string) (*TurnResponse, error) {
	request := s.assembler.Assemble(ctx, text)
	result := dialogue.Evaluate(request)

	session.AccumulatedText = text
	session.PendingSlot = result.MissingSlot
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}

	resp := &TurnResponse{
		SessionID:      session.ID,
		RecognizedText: text,
		Complete:       result.Complete,
	}
	if result.Complete {
		resp.Reply = result.Confirmation
	} else {
		resp.Reply = result.Prompt
		resp.MissingSlot = string(result.MissingSlot)
	}
	return resp, nil
}

// Confirm finalizes a session. The request is re-assembled from the
// final text rather than read from any cached copy, so the stored record
// always reflects the latest extraction. An empty finalText falls back to
// the session's accumulated text.
func (s *Service) Confirm(ctx context.Context, sessionID, finalText string) (*models.RequestRecord, error) {
	ctx, span := tracer.Start(ctx, "assistant.confirm",
		trace.WithAttributes(attribute.String("session.id", sessionID)))
	defer span.End()

	lock := s.locks.acquire(sessionID)
	defer s.locks.release(sessionID, lock)

	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, dialogue.ErrSessionNotFound) {
			return nil, stderrors.NewSessionNotFoundError(sessionID)
		}
		return nil, err
	}

	text := session.AccumulatedText
	if finalText != "" {
		text = finalText
	}

	request := s.assembler.Assemble(ctx, text)
	if !request.Complete() {
		result := dialogue.Evaluate(request)
		return nil, stderrors.NewRequestIncompleteError(string(result.MissingSlot))
	}

	record := &models.RequestRecord{
		ID:        uuid.New().String(),
		ProjectID: *request.ProjectID,
		Amount:    *request.Amount,
		Reason:    *request.Reason,
		Status:    models.StatusPendingApproval,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.persister.SaveRequest(ctx, record); err != nil {
		span.RecordError(err)
		return nil, err
	}
	metrics.RequestsPersisted.Inc()

	s.afterPersist(ctx, record)

	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		s.logger.WithError(err).Warn("failed to delete confirmed session", nil)
	}

	return record, nil
}

// afterPersist fans out to the best-effort integrations. None of them can
// fail the confirmation; the record is already stored.
func (s *Service) afterPersist(ctx context.Context, record *models.RequestRecord) {
	if s.indexer != nil {
		if err := s.indexer.IndexRequest(ctx, record); err != nil {
			s.logger.WithError(err).WithFields(map[string]interface{}{
				"requestId": record.ID,
			}).Warn("audit indexing failed", nil)
		}
	}
	if s.notifier != nil {
		if err := s.notifier.NotifyApprover(ctx, record); err != nil {
			s.logger.WithError(err).WithFields(map[string]interface{}{
				"requestId": record.ID,
			}).Warn("approver notification failed", nil)
		}
	}
	if s.workflow != nil {
		if err := s.workflow.StartApprovalProcess(ctx, record); err != nil {
			s.logger.WithError(err).WithFields(map[string]interface{}{
				"requestId": record.ID,
			}).Warn("approval workflow dispatch failed", nil)
		}
	}
}

// recognize resolves the turn input to text, transcribing audio when
// present. Unrecoverable speech errors map to a transcription failure the
// caller can show to the user.
func (s *Service) recognize(ctx context.Context, input SubmitInput) (string, error) {
	if len(input.Audio) == 0 {
		return input.Text, nil
	}

	text, err := s.transcriber.Transcribe(ctx, input.Audio)
	if err != nil {
		if errors.Is(err, transcribe.ErrCouldNotUnderstandAudio) {
			return "", stderrors.NewTranscriptionFailedError("could not understand audio")
		}
		return "", stderrors.NewTranscriptionFailedError(err.Error())
	}
	return text, nil
}
