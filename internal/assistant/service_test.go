// internal/assistant/service_test.go
package assistant

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erp-assistant/internal/assistant/dialogue"
	"erp-assistant/internal/assistant/extract"
	stderrors "erp-assistant/internal/common/errors"
	"erp-assistant/internal/common/logger"
	"erp-assistant/internal/models"
	"erp-assistant/internal/nlp"
	"erp-assistant/internal/transcribe"
)

const fullUtterance = "I need to request money for project 223 to buy some tools the amount I need is 500 riyals"

// scriptedPort returns canned model outputs so service tests are
// deterministic without an NLP server.
type scriptedPort struct {
	entities []nlp.Entity
	answer   string
	labels   []string
}

func (p *scriptedPort) NER(ctx context.Context, text string) ([]nlp.Entity, error) {
	return p.entities, nil
}

func (p *scriptedPort) ExtractiveQA(ctx context.Context, question, contextText string) (string, error) {
	return p.answer, nil
}

func (p *scriptedPort) ZeroShot(ctx context.Context, text string, labels []string) ([]string, error) {
	return p.labels, nil
}

func fullPort() *scriptedPort {
	return &scriptedPort{
		entities: []nlp.Entity{{Text: "223", Label: "NUM"}},
		answer:   "500 riyals",
		labels:   []string{"equipment", "purchase"},
	}
}

// memStore is an in-process session store for tests.
type memStore struct {
	mu       sync.Mutex
	sessions map[string]dialogue.Session
}

func newMemStore() *memStore {
	return &memStore{sessions: make(map[string]dialogue.Session)}
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

type capturePersister struct {
	records []*models.RequestRecord
	err     error
}

func (p *capturePersister) SaveRequest(ctx context.Context, r *models.RequestRecord) error {
	if p.err != nil {
		return p.err
	}
	p.records = append(p.records, r)
	return nil
}

type stubTranscriber struct {
	text string
	err  error
}

func (s *stubTranscriber) Transcribe(ctx context.Context, audio []byte) (string, error) {
	return s.text, s.err
}

func newTestService(t *testing.T, port nlp.ModelPort, persister Persister, tr transcribe.Port, opts ...Option) (*Service, *memStore) {
	t.Helper()

	log := logger.NewTestLogger(t)
	store := newMemStore()
	svc := NewService(extract.NewAssembler(port, log), tr, store, persister, log, opts...)
	return svc, store
}

func TestService_SubmitCompleteUtterance(t *testing.T) {
	persister := &capturePersister{}
	svc, _ := newTestService(t, fullPort(), persister, &stubTranscriber{})

	resp, err := svc.Submit(context.Background(), SubmitInput{Text: fullUtterance})
	require.NoError(t, err)

	assert.True(t, resp.Complete)
	assert.NotEmpty(t, resp.SessionID)
	assert.Contains(t, resp.Reply, "project: 223")
	assert.Contains(t, resp.Reply, "amount: 500 riyals")
	assert.Contains(t, resp.Reply, "buy some tools for the project (equipment)")
	assert.Empty(t, persister.records, "nothing persisted before confirm")
}

func TestService_SubmitAsksForMissingProject(t *testing.T) {
	port := fullPort()
	port.entities = nil
	svc, store := newTestService(t, port, &capturePersister{}, &stubTranscriber{})

	resp, err := svc.Submit(context.Background(), SubmitInput{
		Text: "I need money to buy some tools the amount I need is 500 riyals",
	})
	require.NoError(t, err)

	assert.False(t, resp.Complete)
	assert.Equal(t, "project", resp.MissingSlot)
	assert.Equal(t, dialogue.PromptProject, resp.Reply)

	session, err := store.Get(context.Background(), resp.SessionID)
	require.NoError(t, err)
	assert.Equal(t, dialogue.SlotProject, session.PendingSlot)
}

func TestService_FollowupFillsSlot(t *testing.T) {
	port := fullPort()
	port.answer = ""
	svc, _ := newTestService(t, port, &capturePersister{}, &stubTranscriber{})

	first, err := svc.Submit(context.Background(), SubmitInput{
		Text: "I need money for project 223 to buy some tools",
	})
	require.NoError(t, err)
	require.Equal(t, "amount", first.MissingSlot)

	port.answer = "500"
	second, err := svc.SubmitFollowup(context.Background(), SubmitInput{
		SessionID: first.SessionID,
		Text:      "500",
	})
	require.NoError(t, err)

	assert.True(t, second.Complete)
	assert.Contains(t, second.Reply, "amount: 500 riyals")
}

func TestService_FollowupUnknownSession(t *testing.T) {
	svc, _ := newTestService(t, fullPort(), &capturePersister{}, &stubTranscriber{})

	_, err := svc.SubmitFollowup(context.Background(), SubmitInput{SessionID: "ghost", Text: "500"})
	assert.True(t, stderrors.IsCode(err, stderrors.ErrCodeSessionNotFound))
}

func TestService_ConfirmPersistsAndClearsSession(t *testing.T) {
	persister := &capturePersister{}
	workflow := &captureWorkflow{}
	svc, store := newTestService(t, fullPort(), persister, &stubTranscriber{}, WithWorkflow(workflow))

	resp, err := svc.Submit(context.Background(), SubmitInput{Text: fullUtterance})
	require.NoError(t, err)
	require.True(t, resp.Complete)

	record, err := svc.Confirm(context.Background(), resp.SessionID, "")
	require.NoError(t, err)

	assert.Equal(t, "223", record.ProjectID)
	assert.Equal(t, 500.0, record.Amount)
	assert.Equal(t, "buy some tools for the project (equipment)", record.Reason)
	assert.Equal(t, models.StatusPendingApproval, record.Status)
	assert.NotEmpty(t, record.ID)

	require.Len(t, persister.records, 1)
	assert.Equal(t, record.ID, persister.records[0].ID)
	require.Len(t, workflow.records, 1)

	_, err = store.Get(context.Background(), resp.SessionID)
	assert.ErrorIs(t, err, dialogue.ErrSessionNotFound)
}

func TestService_ConfirmReassemblesLatestText(t *testing.T) {
	port := fullPort()
	persister := &capturePersister{}
	svc, _ := newTestService(t, port, persister, &stubTranscriber{})

	resp, err := svc.Submit(context.Background(), SubmitInput{Text: fullUtterance})
	require.NoError(t, err)

	// Models can answer differently by confirm time; the stored record
	// must come from a fresh pass, not from a cached request.
	port.answer = "750 riyals"

	record, err := svc.Confirm(context.Background(), resp.SessionID, "")
	require.NoError(t, err)
	assert.Equal(t, 750.0, record.Amount)
}

func TestService_ConfirmFinalTextOverride(t *testing.T) {
	port := fullPort()
	persister := &capturePersister{}
	svc, _ := newTestService(t, port, persister, &stubTranscriber{})

	resp, err := svc.Submit(context.Background(), SubmitInput{Text: fullUtterance})
	require.NoError(t, err)

	// The caller hands in an edited final utterance; the record must be
	// derived from it, not from the session text.
	port.entities = []nlp.Entity{{Text: "981", Label: "NUM"}}
	finalText := "I need to request money for project 981 to buy some tools the amount I need is 500 riyals"

	record, err := svc.Confirm(context.Background(), resp.SessionID, finalText)
	require.NoError(t, err)
	assert.Equal(t, "981", record.ProjectID)
}

func TestService_ConfirmIncompleteRequest(t *testing.T) {
	port := fullPort()
	port.entities = nil
	svc, _ := newTestService(t, port, &capturePersister{}, &stubTranscriber{})

	resp, err := svc.Submit(context.Background(), SubmitInput{
		Text: "I need money to buy some tools the amount I need is 500 riyals",
	})
	require.NoError(t, err)

	_, err = svc.Confirm(context.Background(), resp.SessionID, "")
	assert.True(t, stderrors.IsCode(err, stderrors.ErrCodeRequestIncomplete))
}

func TestService_ConfirmPersistenceFailurePropagates(t *testing.T) {
	persister := &capturePersister{err: errors.New("db down")}
	svc, store := newTestService(t, fullPort(), persister, &stubTranscriber{})

	resp, err := svc.Submit(context.Background(), SubmitInput{Text: fullUtterance})
	require.NoError(t, err)

	_, err = svc.Confirm(context.Background(), resp.SessionID, "")
	require.Error(t, err)

	// Session survives so the user can retry the confirmation.
	_, err = store.Get(context.Background(), resp.SessionID)
	assert.NoError(t, err)
}

func TestService_AudioTurnTranscribed(t *testing.T) {
	svc, _ := newTestService(t, fullPort(), &capturePersister{}, &stubTranscriber{text: fullUtterance})

	resp, err := svc.Submit(context.Background(), SubmitInput{Audio: []byte("pcm-bytes")})
	require.NoError(t, err)

	assert.Equal(t, fullUtterance, resp.RecognizedText)
	assert.True(t, resp.Complete)
}

func TestService_AudioNotUnderstood(t *testing.T) {
	svc, _ := newTestService(t, fullPort(), &capturePersister{},
		&stubTranscriber{err: transcribe.ErrCouldNotUnderstandAudio})

	_, err := svc.Submit(context.Background(), SubmitInput{Audio: []byte("noise")})
	require.Error(t, err)
	assert.True(t, stderrors.IsCode(err, stderrors.ErrCodeTranscriptionFailed))
	assert.Contains(t, err.Error(), "could not understand audio")
}

func TestService_BestEffortHooksDoNotFailConfirm(t *testing.T) {
	persister := &capturePersister{}
	svc, _ := newTestService(t, fullPort(), persister, &stubTranscriber{},
		WithIndexer(failingIndexer{}),
		WithNotifier(failingNotifier{}),
	)

	resp, err := svc.Submit(context.Background(), SubmitInput{Text: fullUtterance})
	require.NoError(t, err)

	record, err := svc.Confirm(context.Background(), resp.SessionID, "")
	require.NoError(t, err)
	assert.NotNil(t, record)
	assert.Len(t, persister.records, 1)
}

type captureWorkflow struct {
	records []*models.RequestRecord
}

func (w *captureWorkflow) StartApprovalProcess(ctx context.Context, r *models.RequestRecord) error {
	w.records = append(w.records, r)
	return nil
}

type failingIndexer struct{}

func (failingIndexer) IndexRequest(ctx context.Context, r *models.RequestRecord) error {
	return errors.New("es unavailable")
}

type failingNotifier struct{}

func (failingNotifier) NotifyApprover(ctx context.Context, r *models.RequestRecord) error {
	return errors.New("ses unavailable")
}
