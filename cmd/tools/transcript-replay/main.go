// cmd/tools/transcript-replay/main.go
//
// transcript-replay feeds a recorded conversation transcript through the
// dialogue engine against a live model-serving gateway, printing the
// assistant's reply after each turn. Useful for regression-checking
// extraction behavior on real utterances without the HTTP server.
//
// Transcript format: one user turn per line; blank lines and lines
// starting with '#' are skipped.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"sync"
	"time"

	"erp-assistant/internal/assistant"
	"erp-assistant/internal/assistant/dialogue"
	"erp-assistant/internal/assistant/extract"
	"erp-assistant/internal/common/logger"
	"erp-assistant/internal/models"
	"erp-assistant/internal/nlp"
	"erp-assistant/internal/transcribe"
)

// memStore keeps sessions in process for the replay run.
type memStore struct {
	mu       sync.Mutex
	sessions map[string]dialogue.Session
}

func (m *memStore) Save(ctx context.Context, s *dialogue.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = *s
	return nil
}

func (m *memStore) Get(ctx context.Context, id string) (*dialogue.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, dialogue.ErrSessionNotFound
	}
	copied := s
	return &copied, nil
}

func (m *memStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// printPersister writes the final record to stdout instead of a database.
type printPersister struct{}

func (printPersister) SaveRequest(ctx context.Context, record *models.RequestRecord) error {
	fmt.Printf("--- persisted record ---\nid:      %s\nproject: %s\namount:  %g\nreason:  %s\nstatus:  %s\n",
		record.ID, record.ProjectID, record.Amount, record.Reason, record.Status)
	return nil
}

func main() {
	transcriptPath := flag.String("transcript", "", "Path to transcript file (one user turn per line)")
	nlpURL := flag.String("nlp-url", "http://localhost:8000", "Base URL of the model-serving gateway")
	timeout := flag.Duration("timeout", 10*time.Second, "Per-call model timeout")
	confirm := flag.Bool("confirm", false, "Confirm the request after the last turn")
	logLevel := flag.String("log-level", "", "Enable engine logging at this level (debug, info, warn, error)")
	flag.Parse()

	if *transcriptPath == "" {
		fmt.Println("Error: -transcript is required.")
		flag.Usage()
		os.Exit(1)
	}

	file, err := os.Open(*transcriptPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open transcript: %v\n", err)
		os.Exit(1)
	}
	defer file.Close()

	log := logger.NewNoOpLogger()
	if *logLevel != "" {
		log = logger.NewStructured(*logLevel, "console")
	}
	modelPort := nlp.NewClient(&nlp.Config{BaseURL: *nlpURL, Timeout: *timeout}, log)
	sessions := &memStore{sessions: make(map[string]dialogue.Session)}

	// Audio turns are out of scope here; the transcriber is never hit.
	var noTranscriber transcribe.Port

	svc := assistant.NewService(
		extract.NewAssembler(modelPort, log),
		noTranscriber,
		sessions,
		printPersister{},
		log,
	)

	ctx := context.Background()
	scanner := bufio.NewScanner(file)

	var sessionID string
	var lastComplete bool
	turn := 0

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || line[0] == '#' {
			continue
		}
		turn++

		var resp *assistant.TurnResponse
		var err error
		if sessionID == "" {
			resp, err = svc.Submit(ctx, assistant.SubmitInput{Text: line})
		} else {
			resp, err = svc.SubmitFollowup(ctx, assistant.SubmitInput{SessionID: sessionID, Text: line})
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "turn %d failed: %v\n", turn, err)
			os.Exit(1)
		}
		sessionID = resp.SessionID
		lastComplete = resp.Complete

		fmt.Printf("user:      %s\nassistant: %s\n\n", line, resp.Reply)
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "read transcript: %v\n", err)
		os.Exit(1)
	}

	if *confirm {
		if !lastComplete {
			fmt.Println("Request still incomplete after last turn; nothing to confirm.")
			os.Exit(1)
		}
		if _, err := svc.Confirm(ctx, sessionID, ""); err != nil {
			fmt.Fprintf(os.Stderr, "confirm failed: %v\n", err)
			os.Exit(1)
		}
	}
}
