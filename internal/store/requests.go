// internal/store/requests.go
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	stderrors "erp-assistant/internal/common/errors"
	"erp-assistant/internal/common/logger"
	"erp-assistant/internal/models"
)

// recordSchema guards the persisted shape: a record that reaches the
// database always has all three slots and a positive amount.
const recordSchema = `{
	"type": "object",
	"required": ["id", "projectId", "amount", "reason", "status"],
	"properties": {
		"id": {"type": "string", "minLength": 1},
		"projectId": {"type": "string", "minLength": 1},
		"amount": {"type": "number", "exclusiveMinimum": 0},
		"reason": {"type": "string", "minLength": 1},
		"status": {"type": "string", "enum": ["pending_approval", "approved", "rejected"]}
	}
}`

const (
	insertRequestQuery = `
		INSERT INTO money_requests (id, project_id, amount, reason, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	insertAuditQuery = `
		INSERT INTO audit_log (request_id, action, detail, created_at)
		VALUES ($1, $2, $3, $4)`
)

// RequestStore persists confirmed money requests to Postgres.
type RequestStore struct {
	db     *sql.DB
	schema *gojsonschema.Schema
	logger logger.Logger
}

func NewRequestStore(db *sql.DB, log logger.Logger) (*RequestStore, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(recordSchema))
	if err != nil {
		return nil, fmt.Errorf("compile record schema: %w", err)
	}
	return &RequestStore{db: db, schema: schema, logger: log}, nil
}

// SaveRequest validates the record and writes it inside one statement.
// The audit row is best effort; the request row is the source of truth.
func (s *RequestStore) SaveRequest(ctx context.Context, record *models.RequestRecord) error {
	if err := s.validate(record); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, insertRequestQuery,
		record.ID, record.ProjectID, record.Amount, record.Reason, record.Status, record.CreatedAt)
	if err != nil {
		return stderrors.NewPersistenceFailedError(err)
	}

	detail := fmt.Sprintf("project=%s amount=%g", record.ProjectID, record.Amount)
	if _, err := s.db.ExecContext(ctx, insertAuditQuery,
		record.ID, "submitted", detail, record.CreatedAt); err != nil {
		s.logger.WithError(err).WithFields(map[string]interface{}{
			"requestId": record.ID,
		}).Warn("audit log write failed", nil)
	}

	return nil
}

func (s *RequestStore) validate(record *models.RequestRecord) error {
	result, err := s.schema.Validate(gojsonschema.NewGoLoader(record))
	if err != nil {
		return stderrors.NewRecordValidationFailedError(err.Error())
	}
	if !result.Valid() {
		var reasons []string
		for _, desc := range result.Errors() {
			reasons = append(reasons, desc.String())
		}
		return stderrors.NewRecordValidationFailedError(strings.Join(reasons, "; "))
	}
	return nil
}
