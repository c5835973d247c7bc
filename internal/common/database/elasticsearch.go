// internal/common/database/elasticsearch.go
package database

import (
	"context"
	"fmt"
	"time"

	"erp-assistant/internal/common/config"

	"github.com/elastic/go-elasticsearch/v8"
)

// DefaultAuditIndex is where confirmed money requests are mirrored when the
// config names no index.
const DefaultAuditIndex = "money-requests"

// ElasticsearchClient wraps the Elasticsearch client together with the
// resolved audit index name.
type ElasticsearchClient struct {
	Client     *elasticsearch.Client
	AuditIndex string
}

// NewElasticsearch creates a new Elasticsearch client
func NewElasticsearch(cfg config.ElasticsearchConfig) (*ElasticsearchClient, error) {
	esCfg := elasticsearch.Config{
		Addresses: cfg.Addresses,
	}

	if cfg.Username != "" {
		esCfg.Username = cfg.Username
		esCfg.Password = cfg.Password
	}

	es, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}

	index := cfg.AuditIndex
	if index == "" {
		index = DefaultAuditIndex
	}

	return &ElasticsearchClient{Client: es, AuditIndex: index}, nil
}

// Ping tests the Elasticsearch connection
func (c *ElasticsearchClient) Ping() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := c.Client.Ping(
		c.Client.Ping.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch ping failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping error: %s", res.Status())
	}

	return nil
}
