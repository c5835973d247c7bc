// internal/common/logger/logger_test.go
package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedLogger() (Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return NewZapAdapter(zap.New(core)), logs
}

func TestLoggerLevelsAcceptNilFields(t *testing.T) {
	log, logs := newObservedLogger()

	log.Debug("debug msg", nil)
	log.Info("info msg", nil)
	log.Warn("warn msg", nil)
	log.Error("error msg", nil)

	require.Equal(t, 4, logs.Len())
	for i, msg := range []string{"debug msg", "info msg", "warn msg", "error msg"} {
		entry := logs.All()[i]
		assert.Equal(t, msg, entry.Message)
		assert.Empty(t, entry.Context)
	}
}

func TestWithErrorChainedCall(t *testing.T) {
	log, logs := newObservedLogger()

	log.WithError(errors.New("db down")).Warn("save failed", nil)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "save failed", entry.Message)
	require.Len(t, entry.Context, 1)
	assert.Equal(t, "error", entry.Context[0].Key)
}

func TestWithFieldsChainedCall(t *testing.T) {
	log, logs := newObservedLogger()

	log.WithFields(map[string]interface{}{"requestId": "req-1"}).Warn("indexing failed", nil)

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	require.Len(t, entry.Context, 1)
	assert.Equal(t, "requestId", entry.Context[0].Key)
}
