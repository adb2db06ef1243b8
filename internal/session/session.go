// Package session keeps the shopping sessions of the running server. Each
// session owns one cart; nothing outside a session shares its state.
package session

import (
	"strings"
	"sync"
	"time"

	"recibo/internal/cart"
	"recibo/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultStoreContext is used when a session is started without a store name.
const DefaultStoreContext = "Generic Store"

// Session is one shopper's scanning run.
type Session struct {
	ID           uuid.UUID
	StoreContext string
	CreatedAt    time.Time
	Cart         *cart.Cart
}

// View renders the session for clients.
func (s *Session) View() model.SessionView {
	return model.SessionView{
		ID:           s.ID.String(),
		StoreContext: s.StoreContext,
		Items:        s.Cart.Items(),
		Total:        s.Cart.Total(),
		Count:        s.Cart.Count(),
		Pending:      s.Cart.Pending(),
	}
}

// Manager creates, finds and discards sessions.
type Manager struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
	logger   zerolog.Logger
}

// NewManager creates an empty session manager.
func NewManager(logger zerolog.Logger) *Manager {
	return &Manager{
		sessions: make(map[uuid.UUID]*Session),
		logger:   logger.With().Str("component", "session-manager").Logger(),
	}
}

// Create starts a new session with an empty cart.
func (m *Manager) Create(storeContext string) *Session {
	storeContext = strings.TrimSpace(storeContext)
	if storeContext == "" {
		storeContext = DefaultStoreContext
	}

	s := &Session{
		ID:           uuid.New(),
		StoreContext: storeContext,
		CreatedAt:    time.Now().UTC(),
		Cart:         cart.New(),
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	m.logger.Info().
		Str("session_id", s.ID.String()).
		Str("store", storeContext).
		Msg("session started")

	return s
}

// Get returns the session with the given id.
func (m *Manager) Get(id uuid.UUID) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	return s, nil
}

// Delete ends a session and discards its cart.
func (m *Manager) Delete(id uuid.UUID) error {
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return model.ErrSessionNotFound
	}
	m.logger.Info().Str("session_id", id.String()).Msg("session ended")
	return nil
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
