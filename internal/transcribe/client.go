// internal/transcribe/client.go
package transcribe

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"erp-assistant/internal/common/logger"
)

var (
	// ErrCouldNotUnderstandAudio marks unrecoverable audio input. The
	// boundary surfaces it to the user verbatim; no partial text is returned.
	ErrCouldNotUnderstandAudio = errors.New("could not understand audio")

	ErrTranscriptionFailed = errors.New("TRANSCRIPTION_FAILED")
)

// Port is the speech-to-text capability the service depends on.
type Port interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

// Config holds settings for the transcription service.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client posts audio to an external speech-to-text service.
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
			"component": "transcribe-client",
		}),
	}
}

func (c *Client) Transcribe(ctx context.Context, audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", ErrCouldNotUnderstandAudio
	}

	payload := map[string]string{
		"audio": base64.StdEncoding.EncodeToString(audio),
	}
	body, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, "POST", c.config.BaseURL+"/api/speech/transcribe", bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTranscriptionFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTranscriptionFailed, err)
	}
	defer resp.Body.Close()

	// The speech service answers 422 when it cannot make out the audio.
	if resp.StatusCode == http.StatusUnprocessableEntity {
		return "", ErrCouldNotUnderstandAudio
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrTranscriptionFailed, resp.StatusCode)
	}

	var out struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode error: %v", ErrTranscriptionFailed, err)
	}

	text := strings.TrimSpace(out.Text)
	if text == "" {
		return "", ErrCouldNotUnderstandAudio
	}

	return text, nil
}
