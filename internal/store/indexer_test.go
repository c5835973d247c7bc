// internal/store/indexer_test.go
package store

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	stderrors "erp-assistant/internal/common/errors"
	"erp-assistant/internal/common/logger"
	"erp-assistant/internal/models"
)

func newIndexerTestServer(t *testing.T, status int, handler func(r *http.Request)) (*httptest.Server, *elasticsearch.Client) {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handler != nil {
			handler(r)
		}
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.WriteHeader(status)
		w.Write([]byte(`{}`))
	}))

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{server.URL}})
	require.NoError(t, err)
	return server, client
}

func indexerRecord() *models.RequestRecord {
	return &models.RequestRecord{
		ID:        "req-1",
		ProjectID: "223",
		Amount:    500,
		Reason:    "buy some tools for the project (equipment)",
		Status:    models.StatusPendingApproval,
		CreatedAt: time.Now().UTC(),
	}
}

func TestAuditIndexer_IndexRequest(t *testing.T) {
	var gotPath string
	var gotBody map[string]interface{}
	server, client := newIndexerTestServer(t, http.StatusCreated, func(r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
	})
	defer server.Close()

	indexer := NewAuditIndexer(client, "money-requests", logger.NewTestLogger(t))
	err := indexer.IndexRequest(context.Background(), indexerRecord())

	require.NoError(t, err)
	assert.Equal(t, "/money-requests/_doc/req-1", gotPath)
	assert.Equal(t, "223", gotBody["projectId"])
}

func TestAuditIndexer_ServerErrorCarriesIndexingCode(t *testing.T) {
	server, client := newIndexerTestServer(t, http.StatusInternalServerError, nil)
	defer server.Close()

	indexer := NewAuditIndexer(client, "money-requests", logger.NewTestLogger(t))
	err := indexer.IndexRequest(context.Background(), indexerRecord())

	require.Error(t, err)
	assert.True(t, stderrors.IsCode(err, stderrors.ErrCodeIndexingFailed))
}
