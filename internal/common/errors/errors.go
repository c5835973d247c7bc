// Package errors provides standardized error handling for the assistant service.
package errors

import (
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Conversation boundary errors. Extraction and model-call failures have
	// no codes here: the core degrades those to an absent slot instead of
	// surfacing an error.
	ErrCodeTranscriptionFailed ErrorCode = "TRANSCRIPTION_FAILED"
	ErrCodeSessionNotFound     ErrorCode = "SESSION_NOT_FOUND"
	ErrCodeRequestIncomplete   ErrorCode = "REQUEST_INCOMPLETE"

	// Persistence and downstream errors.
	ErrCodePersistenceFailed      ErrorCode = "PERSISTENCE_FAILED"
	ErrCodeRecordValidationFailed ErrorCode = "RECORD_VALIDATION_FAILED"
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeWorkflowDispatchFailed ErrorCode = "WORKFLOW_DISPATCH_FAILED"
	ErrCodeIndexingFailed         ErrorCode = "INDEXING_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// NewTranscriptionFailedError reports unrecoverable audio input. Not
// retryable: the user has to repeat the utterance.
func NewTranscriptionFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeTranscriptionFailed,
		Message:   "could not understand audio",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewSessionNotFoundError reports a follow-up or confirm for an unknown or
// expired dialogue session.
func NewSessionNotFoundError(sessionID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSessionNotFound,
		Message:   "dialogue session not found",
		Details:   fmt.Sprintf("sessionId: %s", sessionID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRequestIncompleteError reports a confirm attempt while slots are still
// missing after re-assembly.
func NewRequestIncompleteError(missingSlot string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRequestIncomplete,
		Message:   "money request is not complete",
		Details:   fmt.Sprintf("missing slot: %s", missingSlot),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRecordValidationFailedError reports a record that failed schema
// validation before persistence.
func NewRecordValidationFailedError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRecordValidationFailed,
		Message:   "money request record failed validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewPersistenceFailedError creates a retryable database error. Propagated
// to the caller of the confirm action, never masked.
func NewPersistenceFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodePersistenceFailed,
		Message:   "failed to persist money request",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationSendFailedError reports that no enabled approver channel
// accepted the notification. Retryable: the record is already persisted.
func NewNotificationSendFailedError(requestID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "failed to notify approver",
		Details:   fmt.Sprintf("requestId: %s: %v", requestID, err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewWorkflowDispatchFailedError reports that the approval process could not
// be started on the broker after retries.
func NewWorkflowDispatchFailedError(requestID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeWorkflowDispatchFailed,
		Message:   "failed to dispatch approval workflow",
		Details:   fmt.Sprintf("requestId: %s: %v", requestID, err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewIndexingFailedError reports that a persisted record could not be
// mirrored into the audit index.
func NewIndexingFailedError(requestID string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeIndexingFailed,
		Message:   "failed to index money request",
		Details:   fmt.Sprintf("requestId: %s: %v", requestID, err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// IsCode reports whether err is a StandardError carrying the given code.
func IsCode(err error, code ErrorCode) bool {
	se, ok := err.(*StandardError)
	return ok && se.Code == code
}
