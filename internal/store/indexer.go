// internal/store/indexer.go
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"

	stderrors "erp-assistant/internal/common/errors"
	"erp-assistant/internal/common/logger"
	"erp-assistant/internal/models"
)

// AuditIndexer mirrors confirmed requests into Elasticsearch so they are
// searchable alongside the rest of the ERP audit trail.
type AuditIndexer struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewAuditIndexer(client *elasticsearch.Client, index string, log logger.Logger) *AuditIndexer {
	return &AuditIndexer{client: client, index: index, logger: log}
}

func (i *AuditIndexer) IndexRequest(ctx context.Context, record *models.RequestRecord) error {
	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal request record: %w", err)
	}

	res, err := i.client.Index(
		i.index,
		bytes.NewReader(body),
		i.client.Index.WithContext(ctx),
		i.client.Index.WithDocumentID(record.ID),
	)
	if err != nil {
		return stderrors.NewIndexingFailedError(record.ID, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return stderrors.NewIndexingFailedError(record.ID, fmt.Errorf("status %s", res.Status()))
	}

	i.logger.WithFields(map[string]interface{}{
		"requestId": record.ID,
		"index":     i.index,
	}).Debug("request record indexed", nil)
	return nil
}
