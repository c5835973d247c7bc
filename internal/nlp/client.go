// internal/nlp/client.go
package nlp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"

	"erp-assistant/internal/common/logger"
)

var (
	ErrNLPCallFailed = errors.New("NLP_CALL_FAILED")
	ErrNLPAPITimeout = errors.New("NLP_API_TIMEOUT")
)

var tracer = otel.Tracer("erp-assistant/internal/nlp")

// Config holds settings for the model-serving gateway.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client speaks JSON over HTTP to the model-serving gateway. It implements
// ModelPort. Callers treat any returned error as a soft extraction failure;
// there is no retry here.
type Client struct {
	config *Config
	client *http.Client
	logger logger.Logger
}

func NewClient(config *Config, log logger.Logger) *Client {
	return &Client{
		config: config,
		client: &http.Client{
			Timeout: config.Timeout,
		},
		logger: log.WithFields(map[string]interface{}{
			"component": "nlp-client",
		}),
	}
}

func (c *Client) NER(ctx context.Context, text string) ([]Entity, error) {
	var out nerResponse
	if err := c.post(ctx, "/api/nlp/ner", nerRequest{Text: text}, &out); err != nil {
		return nil, err
	}
	return out.Entities, nil
}

func (c *Client) ExtractiveQA(ctx context.Context, question, contextText string) (string, error) {
	var out qaResponse
	if err := c.post(ctx, "/api/nlp/question-answering", qaRequest{Question: question, Context: contextText}, &out); err != nil {
		return "", err
	}
	return out.Answer, nil
}

func (c *Client) ZeroShot(ctx context.Context, text string, labels []string) ([]string, error) {
	var out zeroShotResponse
	if err := c.post(ctx, "/api/nlp/zero-shot", zeroShotRequest{Text: text, Labels: labels}, &out); err != nil {
		return nil, err
	}
	return out.Labels, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out interface{}) error {
	ctx, span := tracer.Start(ctx, "nlp.model_call",
		oteltrace.WithSpanKind(oteltrace.SpanKindClient),
		oteltrace.WithAttributes(attribute.String("nlp.endpoint", path)))
	defer span.End()

	body, _ := json.Marshal(payload)
	req, err := http.NewRequestWithContext(ctx, "POST", c.config.BaseURL+path, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNLPCallFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if ctx.Err() != nil ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) {
		span.RecordError(ErrNLPAPITimeout)
		return ErrNLPAPITimeout
	}
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("%w: %v", ErrNLPCallFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("%w: status %d", ErrNLPCallFailed, resp.StatusCode)
		span.RecordError(err)
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		span.RecordError(err)
		return fmt.Errorf("%w: decode error: %v", ErrNLPCallFailed, err)
	}
	return nil
}
