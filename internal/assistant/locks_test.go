// internal/assistant/locks_test.go
package assistant

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erp-assistant/internal/models"
)

func TestTurnLocks_WaiterSerializedWithHolder(t *testing.T) {
	locks := newTurnLocks()

	held := locks.acquire("sess-1")

	entered := make(chan struct{})
	go func() {
		second := locks.acquire("sess-1")
		close(entered)
		locks.release("sess-1", second)
	}()

	select {
	case <-entered:
		t.Fatal("second acquire proceeded while the lock was held")
	case <-time.After(50 * time.Millisecond):
	}

	locks.release("sess-1", held)

	select {
	case <-entered:
	case <-time.After(time.Second):
		t.Fatal("waiter never acquired the lock after release")
	}
}

func TestTurnLocks_EntriesReapedWhenIdle(t *testing.T) {
	locks := newTurnLocks()

	lock := locks.acquire("sess-1")
	assert.Equal(t, 1, locks.len())

	locks.release("sess-1", lock)
	assert.Equal(t, 0, locks.len())
}

func TestTurnLocks_IndependentSessionsDoNotBlock(t *testing.T) {
	locks := newTurnLocks()

	a := locks.acquire("sess-a")

	done := make(chan struct{})
	go func() {
		b := locks.acquire("sess-b")
		locks.release("sess-b", b)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("independent session blocked on an unrelated lock")
	}

	locks.release("sess-a", a)
}

// gatedPersister signals when a save starts and blocks until released, so
// tests can hold a confirm mid-flight.
type gatedPersister struct {
	started chan struct{}
	proceed chan struct{}
}

func (p *gatedPersister) SaveRequest(ctx context.Context, r *models.RequestRecord) error {
	close(p.started)
	<-p.proceed
	return nil
}

func TestService_FollowupWaitsForInFlightConfirm(t *testing.T) {
	persister := &gatedPersister{
		started: make(chan struct{}),
		proceed: make(chan struct{}),
	}
	svc, _ := newTestService(t, fullPort(), persister, &stubTranscriber{})

	resp, err := svc.Submit(context.Background(), SubmitInput{Text: fullUtterance})
	require.NoError(t, err)
	require.True(t, resp.Complete)

	confirmDone := make(chan error, 1)
	go func() {
		_, err := svc.Confirm(context.Background(), resp.SessionID, "")
		confirmDone <- err
	}()
	<-persister.started

	followupDone := make(chan struct{})
	go func() {
		svc.SubmitFollowup(context.Background(), SubmitInput{SessionID: resp.SessionID, Text: "500"})
		close(followupDone)
	}()

	// While confirm holds the session, the follow-up turn must not run.
	select {
	case <-followupDone:
		t.Fatal("follow-up turn ran concurrently with an in-flight confirm")
	case <-time.After(50 * time.Millisecond):
	}

	close(persister.proceed)
	require.NoError(t, <-confirmDone)

	select {
	case <-followupDone:
	case <-time.After(time.Second):
		t.Fatal("follow-up never ran after confirm finished")
	}

	assert.Equal(t, 0, svc.locks.len())
}
