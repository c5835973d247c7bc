// internal/common/workflow/client.go
package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	stderrors "erp-assistant/internal/common/errors"
	"erp-assistant/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// Client wraps the Zeebe gRPC client for approval-workflow dispatch.
type Client struct {
	client zbc.Client
	config *ClientConfig
}

// ClientConfig holds configuration for the workflow client.
type ClientConfig struct {
	GatewayAddress         string
	ProcessID              string
	UsePlaintextConnection bool
	ConnectionTimeout      time.Duration
	RequestTimeout         time.Duration
	RetryConfig            *RetryConfig
}

// RetryConfig defines retry behavior for transient broker failures.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

var DefaultRetryConfig = &RetryConfig{
	MaxRetries: 3,
	BaseDelay:  1 * time.Second,
	MaxDelay:   10 * time.Second,
}

// NewClient creates a workflow client and verifies broker connectivity.
func NewClient(config *ClientConfig) (*Client, error) {
	if config.RetryConfig == nil {
		config.RetryConfig = DefaultRetryConfig
	}
	if config.ConnectionTimeout == 0 {
		config.ConnectionTimeout = 10 * time.Second
	}
	if config.RequestTimeout == 0 {
		config.RequestTimeout = 30 * time.Second
	}

	zeebeClient, err := zbc.NewClient(&zbc.ClientConfig{
		GatewayAddress:         config.GatewayAddress,
		UsePlaintextConnection: config.UsePlaintextConnection,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Zeebe client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.ConnectionTimeout)
	defer cancel()

	if _, err := zeebeClient.NewTopologyCommand().Send(ctx); err != nil {
		zeebeClient.Close()
		return nil, fmt.Errorf("failed to connect to Zeebe broker at %s: %w", config.GatewayAddress, err)
	}

	return &Client{
		client: zeebeClient,
		config: config,
	}, nil
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	return c.client.Close()
}

// StartApprovalProcess creates a process instance for a persisted money
// request, carrying the record fields as process variables. Transient broker
// errors are retried with exponential backoff.
func (c *Client) StartApprovalProcess(ctx context.Context, rec *models.RequestRecord) (int64, error) {
	variables := map[string]interface{}{
		"requestId": rec.ID,
		"projectId": rec.ProjectID,
		"amount":    rec.Amount,
		"reason":    rec.Reason,
		"createdAt": rec.CreatedAt.UTC().Format(time.RFC3339),
	}

	var lastErr error
	delay := c.config.RetryConfig.BaseDelay

	for attempt := 0; attempt <= c.config.RetryConfig.MaxRetries; attempt++ {
		cmd, err := c.client.NewCreateInstanceCommand().
			BPMNProcessId(c.config.ProcessID).
			LatestVersion().
			VariablesFromMap(variables)
		if err != nil {
			return 0, fmt.Errorf("build create-instance command: %w", err)
		}

		reqCtx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout)
		resp, err := cmd.Send(reqCtx)
		cancel()

		if err == nil {
			return resp.GetProcessInstanceKey(), nil
		}
		lastErr = err

		if !isRetryableZeebeError(err) || attempt == c.config.RetryConfig.MaxRetries {
			break
		}

		if delay > c.config.RetryConfig.MaxDelay {
			delay = c.config.RetryConfig.MaxDelay
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return 0, fmt.Errorf("approval dispatch cancelled after %d attempts: %w", attempt+1, ctx.Err())
		}
		delay *= 2
	}

	return 0, stderrors.NewWorkflowDispatchFailedError(rec.ID, lastErr)
}

// isRetryableZeebeError checks if the error is transient and should be retried.
func isRetryableZeebeError(err error) bool {
	msg := strings.ToLower(err.Error())
	retryablePhrases := []string{
		"connection refused",
		"connection reset",
		"timeout",
		"deadline exceeded",
		"unavailable",
		"unreachable",
		"broken pipe",
	}
	for _, phrase := range retryablePhrases {
		if strings.Contains(msg, phrase) {
			return true
		}
	}
	return false
}
