package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"recibo/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeStore records saves and can be made to fail or block.
type fakeStore struct {
	mu      sync.Mutex
	saved   []model.AuditRecord
	err     error
	started chan struct{}
	release chan struct{}
}

func (s *fakeStore) Save(ctx context.Context, record model.AuditRecord) error {
	if s.started != nil {
		s.started <- struct{}{}
	}
	if s.release != nil {
		select {
		case <-s.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.saved = append(s.saved, record)
	return nil
}

func (s *fakeStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.saved)
}

func newRecord() model.AuditRecord {
	return model.AuditRecord{
		ID:                 uuid.New(),
		CreatedAt:          time.Now().UTC(),
		Items:              []model.Item{{ID: 1, Name: "Milk", Price: model.ParseMoney("3.00"), Icon: "fa-box"}},
		VerificationResult: model.Verdict{Verified: true, Discrepancies: []model.Discrepancy{}},
	}
}

func TestDispatcher_PersistsSubmittedRecords(t *testing.T) {
	store := &fakeStore{}
	d := NewDispatcher(store, Config{QueueSize: 8, Workers: 2}, zerolog.Nop())

	for i := 0; i < 5; i++ {
		assert.True(t, d.Submit(newRecord()))
	}

	require.NoError(t, d.Close(context.Background()))
	assert.Equal(t, 5, store.count())
}

func TestDispatcher_StoreFailureIsContained(t *testing.T) {
	store := &fakeStore{err: errors.New("connection refused")}
	d := NewDispatcher(store, Config{}, zerolog.Nop())

	assert.True(t, d.Submit(newRecord()))
	assert.True(t, d.Submit(newRecord()))

	require.NoError(t, d.Close(context.Background()))
	assert.Equal(t, 0, store.count())
}

func TestDispatcher_DropsWhenQueueFull(t *testing.T) {
	store := &fakeStore{started: make(chan struct{}, 4), release: make(chan struct{})}
	d := NewDispatcher(store, Config{QueueSize: 1, Workers: 1, WriteTimeout: time.Minute}, zerolog.Nop())

	require.True(t, d.Submit(newRecord()))
	<-store.started // worker is now busy with the first record

	assert.True(t, d.Submit(newRecord()), "second record fits in the queue")
	assert.False(t, d.Submit(newRecord()), "third record is dropped")

	close(store.release)
	require.NoError(t, d.Close(context.Background()))
	assert.Equal(t, 2, store.count())
}

func TestDispatcher_SubmitAfterClose(t *testing.T) {
	d := NewDispatcher(&fakeStore{}, Config{}, zerolog.Nop())
	require.NoError(t, d.Close(context.Background()))

	assert.False(t, d.Submit(newRecord()))
	assert.NoError(t, d.Close(context.Background()), "close is idempotent")
}

func TestDispatcher_CloseRespectsContext(t *testing.T) {
	store := &fakeStore{started: make(chan struct{}, 1), release: make(chan struct{})}
	d := NewDispatcher(store, Config{WriteTimeout: time.Minute}, zerolog.Nop())

	require.True(t, d.Submit(newRecord()))
	<-store.started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := d.Close(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(store.release)
	require.NoError(t, d.Close(context.Background()))
}

func TestDispatcher_WriteTimeout(t *testing.T) {
	store := &fakeStore{release: make(chan struct{})}
	d := NewDispatcher(store, Config{WriteTimeout: 10 * time.Millisecond}, zerolog.Nop())

	require.True(t, d.Submit(newRecord()))

	require.NoError(t, d.Close(context.Background()))
	assert.Equal(t, 0, store.count(), "a write that outlives its timeout is abandoned")
}

type panickingStore struct{}

func (panickingStore) Save(ctx context.Context, record model.AuditRecord) error {
	panic("boom")
}

func TestDispatcher_RecoversFromStorePanic(t *testing.T) {
	d := NewDispatcher(panickingStore{}, Config{}, zerolog.Nop())

	assert.True(t, d.Submit(newRecord()))
	assert.True(t, d.Submit(newRecord()))

	require.NoError(t, d.Close(context.Background()))
}
