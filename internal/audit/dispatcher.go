// Package audit persists resolved receipt audits in the background so that
// a slow or failing store never delays the verdict already returned.
package audit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"recibo/internal/model"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Store writes audit records.
type Store interface {
	Save(ctx context.Context, record model.AuditRecord) error
}

// Config tunes the dispatcher.
type Config struct {
	QueueSize    int
	Workers      int
	WriteTimeout time.Duration
}

// Dispatcher queues audit records and writes them from a fixed pool of
// workers. Submit never blocks; when the queue is full the record is dropped.
type Dispatcher struct {
	store        Store
	queue        chan model.AuditRecord
	writeTimeout time.Duration
	logger       zerolog.Logger

	mu     sync.RWMutex
	closed bool
	group  *errgroup.Group
	done   chan struct{}
}

// NewDispatcher starts a dispatcher writing to store.
func NewDispatcher(store Store, cfg Config, logger zerolog.Logger) *Dispatcher {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}

	d := &Dispatcher{
		store:        store,
		queue:        make(chan model.AuditRecord, cfg.QueueSize),
		writeTimeout: cfg.WriteTimeout,
		logger:       logger.With().Str("component", "audit-dispatcher").Logger(),
		group:        new(errgroup.Group),
		done:         make(chan struct{}),
	}

	for range cfg.Workers {
		d.group.Go(d.work)
	}
	go func() {
		_ = d.group.Wait()
		close(d.done)
	}()

	d.logger.Info().
		Int("queue_size", cfg.QueueSize).
		Int("workers", cfg.Workers).
		Dur("write_timeout", cfg.WriteTimeout).
		Msg("audit dispatcher started")

	return d
}

// Submit queues record for persistence. It reports false when the record was
// dropped because the queue is full or the dispatcher is closed.
func (d *Dispatcher) Submit(record model.AuditRecord) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.logger.Warn().Str("audit_id", record.ID.String()).Msg("audit dispatcher closed, record dropped")
		return false
	}

	select {
	case d.queue <- record:
		return true
	default:
		d.logger.Warn().
			Str("audit_id", record.ID.String()).
			Int("queue_size", cap(d.queue)).
			Msg("audit queue full, record dropped")
		return false
	}
}

// Close stops accepting records and waits for queued ones to be written or
// for ctx to expire.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	select {
	case <-d.done:
		d.logger.Info().Msg("audit dispatcher drained")
		return nil
	case <-ctx.Done():
		d.logger.Warn().Int("pending", len(d.queue)).Msg("audit dispatcher drain interrupted")
		return fmt.Errorf("drain audit queue: %w", ctx.Err())
	}
}

func (d *Dispatcher) work() error {
	for record := range d.queue {
		d.write(record)
	}
	return nil
}

func (d *Dispatcher) write(record model.AuditRecord) {
	log := d.logger.With().Str("audit_id", record.ID.String()).Logger()

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("audit store panicked")
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), d.writeTimeout)
	defer cancel()

	start := time.Now()
	if err := d.store.Save(ctx, record); err != nil {
		if !errors.Is(err, model.ErrPersistence) {
			err = fmt.Errorf("%w: %w", model.ErrPersistence, err)
		}
		log.Error().Err(err).Dur("elapsed", time.Since(start)).Msg("failed to persist audit record")
		return
	}

	log.Debug().Dur("elapsed", time.Since(start)).Msg("audit record persisted")
}
