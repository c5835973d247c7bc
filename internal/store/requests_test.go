// internal/store/requests_test.go
package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	stderrors "erp-assistant/internal/common/errors"
	"erp-assistant/internal/common/logger"
	"erp-assistant/internal/models"
)

func validRecord() *models.RequestRecord {
	return &models.RequestRecord{
		ID:        "req-1",
		ProjectID: "223",
		Amount:    500,
		Reason:    "buy some tools for the project (equipment)",
		Status:    models.StatusPendingApproval,
		CreatedAt: time.Now().UTC(),
	}
}

func newTestStore(t *testing.T) (*RequestStore, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	requestStore, err := NewRequestStore(db, logger.NewTestLogger(t))
	require.NoError(t, err)
	return requestStore, mock
}

func TestRequestStore_SaveRequest(t *testing.T) {
	requestStore, mock := newTestStore(t)
	record := validRecord()

	mock.ExpectExec("INSERT INTO money_requests").
		WithArgs(record.ID, record.ProjectID, record.Amount, record.Reason, record.Status, record.CreatedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO audit_log").
		WithArgs(record.ID, "submitted", sqlmock.AnyArg(), record.CreatedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := requestStore.SaveRequest(context.Background(), record)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestStore_SaveRequestInsertFails(t *testing.T) {
	requestStore, mock := newTestStore(t)
	record := validRecord()

	mock.ExpectExec("INSERT INTO money_requests").
		WillReturnError(errors.New("connection reset"))

	err := requestStore.SaveRequest(context.Background(), record)
	require.Error(t, err)
	assert.True(t, stderrors.IsCode(err, stderrors.ErrCodePersistenceFailed))
}

func TestRequestStore_AuditFailureDoesNotFailSave(t *testing.T) {
	requestStore, mock := newTestStore(t)
	record := validRecord()

	mock.ExpectExec("INSERT INTO money_requests").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO audit_log").
		WillReturnError(errors.New("audit table missing"))

	err := requestStore.SaveRequest(context.Background(), record)
	assert.NoError(t, err)
}

func TestRequestStore_ValidationRejectsBadRecords(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.RequestRecord)
	}{
		{"empty project", func(r *models.RequestRecord) { r.ProjectID = "" }},
		{"zero amount", func(r *models.RequestRecord) { r.Amount = 0 }},
		{"negative amount", func(r *models.RequestRecord) { r.Amount = -20 }},
		{"empty reason", func(r *models.RequestRecord) { r.Reason = "" }},
		{"unknown status", func(r *models.RequestRecord) { r.Status = "drafted" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requestStore, _ := newTestStore(t)
			record := validRecord()
			tt.mutate(record)

			err := requestStore.SaveRequest(context.Background(), record)
			require.Error(t, err)
			assert.True(t, stderrors.IsCode(err, stderrors.ErrCodeRecordValidationFailed))
		})
	}
}
