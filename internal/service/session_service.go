package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"recibo/internal/model"
	"recibo/internal/reconcile"
	"recibo/internal/session"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrShuttingDown is returned for scans submitted after Close.
var ErrShuttingDown = errors.New("session service is shutting down")

// sessionService implements SessionService.
type sessionService struct {
	sessions    *session.Manager
	identify    IdentifyService
	verify      *verifyService
	scanTimeout time.Duration
	logger      zerolog.Logger

	mu       sync.RWMutex
	closed   bool
	inflight sync.WaitGroup
}

// NewSessionService creates a new session service. scanTimeout bounds each
// background identification; a scan that runs out of time resolves to the
// fallback item.
func NewSessionService(
	sessions *session.Manager,
	identify IdentifyService,
	engine Verifier,
	scanTimeout time.Duration,
	logger zerolog.Logger,
) SessionService {
	if scanTimeout <= 0 {
		scanTimeout = 30 * time.Second
	}
	return &sessionService{
		sessions:    sessions,
		identify:    identify,
		verify:      &verifyService{engine: engine, logger: logger.With().Str("service", "verify").Logger()},
		scanTimeout: scanTimeout,
		logger:      logger.With().Str("service", "session").Logger(),
	}
}

// Create starts a session.
func (s *sessionService) Create(storeContext string) model.SessionView {
	return s.sessions.Create(storeContext).View()
}

// Get returns the current state of a session.
func (s *sessionService) Get(id uuid.UUID) (model.SessionView, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return model.SessionView{}, err
	}
	return sess.View(), nil
}

// Delete ends a session.
func (s *sessionService) Delete(id uuid.UUID) error {
	return s.sessions.Delete(id)
}

// Reset clears the cart of a session.
func (s *sessionService) Reset(id uuid.UUID) (model.SessionView, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return model.SessionView{}, err
	}
	sess.Cart.Reset()
	s.logger.Info().Str("session_id", id.String()).Msg("cart reset")
	return sess.View(), nil
}

// Scan validates the capture, inserts a placeholder and returns its id. The
// identification runs detached from ctx so that the request finishing does
// not abandon the placeholder.
func (s *sessionService) Scan(ctx context.Context, id uuid.UUID, req model.IdentifyItemRequest) (int64, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return 0, err
	}
	if _, err := prepareIdentify(req); err != nil {
		s.logger.Warn().Err(err).Str("session_id", id.String()).Msg("scan rejected")
		return 0, err
	}
	if req.StoreContext == "" {
		req.StoreContext = sess.StoreContext
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, ErrShuttingDown
	}

	itemID := sess.Cart.AddScanned(model.Item{})
	s.inflight.Add(1)

	bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.scanTimeout)
	go func() {
		defer s.inflight.Done()
		defer cancel()

		result, err := s.identify.Identify(bg, req)
		log := s.logger.With().
			Str("session_id", id.String()).
			Int64("item_id", itemID).
			Logger()
		if err != nil {
			log.Warn().Err(err).Msg("scan resolved with fallback item")
		}

		if !sess.Cart.Resolve(itemID, result) {
			log.Debug().Msg("scanned item no longer in cart, result dropped")
			return
		}
		log.Debug().Str("name", result.Name).Msg("scanned item resolved")
	}()

	return itemID, nil
}

// AddItem adds a manually entered item.
func (s *sessionService) AddItem(id uuid.UUID, req model.ItemRequest) (int64, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return 0, err
	}
	return sess.Cart.AddManual(req.Name, req.Price), nil
}

// EditItem changes the name and price of an item.
func (s *sessionService) EditItem(id uuid.UUID, itemID int64, req model.ItemRequest) error {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return err
	}
	if !sess.Cart.Edit(itemID, req.Name, req.Price) {
		return model.ErrItemNotFound
	}
	return nil
}

// RemoveItem deletes an item.
func (s *sessionService) RemoveItem(id uuid.UUID, itemID int64) error {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return err
	}
	if !sess.Cart.Remove(itemID) {
		return model.ErrItemNotFound
	}
	return nil
}

// Verify audits a receipt against the session's current cart. Items sent in
// the request are ignored; the cart snapshot is authoritative.
func (s *sessionService) Verify(ctx context.Context, id uuid.UUID, req model.VerifyReceiptRequest) (reconcile.Outcome, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return reconcile.Outcome{}, err
	}
	if req.StoreContext == "" {
		req.StoreContext = sess.StoreContext
	}
	return s.verify.engine.Verify(ctx, s.verify.buildRequest(req, sess.Cart.Snapshot())), nil
}

// Close stops accepting scans and waits for in-flight identifications until
// ctx is done.
func (s *sessionService) Close(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info().Msg("background identifications drained")
		return nil
	case <-ctx.Done():
		s.logger.Warn().Msg("gave up waiting for background identifications")
		return ctx.Err()
	}
}
