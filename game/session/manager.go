package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/wricardo/mcp-training/memorymatch/game/clock"
	"github.com/wricardo/mcp-training/memorymatch/game/deck"
	"github.com/wricardo/mcp-training/memorymatch/game/engine"
	"github.com/wricardo/mcp-training/memorymatch/game/loop"
	"github.com/wricardo/mcp-training/memorymatch/game/service"
)

var (
	ErrSessionNotFound      = service.ErrSessionNotFound
	ErrSessionAlreadyExists = errors.New("session already exists")
	ErrInvalidSessionID     = errors.New("invalid session ID")
)

// session IDs double as file names
var sessionIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

func validSessionID(id string) bool {
	return sessionIDPattern.MatchString(id)
}

// DealerFactory returns the dealer for a new session. Each session gets its
// own dealer so random sources are never shared between loops.
type DealerFactory func() (deck.Dealer, error)

// Option configures a Manager.
type Option func(*Manager)

// WithPersistence enables auto-save and lazy loading through p.
func WithPersistence(p SessionPersistence) Option {
	return func(m *Manager) { m.persistence = p }
}

// WithClock runs session timers on c.
func WithClock(c clock.Clock) Option {
	return func(m *Manager) { m.clock = c }
}

// WithDealerFactory overrides how boards are shuffled.
func WithDealerFactory(f DealerFactory) Option {
	return func(m *Manager) { m.newDealer = f }
}

// WithLogger sets the base logger for sessions.
func WithLogger(logger zerolog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// Manager handles game session lifecycle.
//
// Lock order: m.mu is never held while calling into a session loop, and loop
// listeners never take m.mu.
type Manager struct {
	sessions    map[string]*service.Session
	persistence SessionPersistence
	clock       clock.Clock
	newDealer   DealerFactory
	logger      zerolog.Logger
	mu          sync.RWMutex

	handlerMu sync.RWMutex
	handler   service.UpdateHandler
}

// NewManager creates a new session manager
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		sessions: make(map[string]*service.Session),
		clock:    clock.Real(),
		newDealer: func() (deck.Dealer, error) {
			return deck.NewRandomShuffler()
		},
		logger: log.Logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NewManagerWithPersistence creates a new session manager with persistence
func NewManagerWithPersistence(persistence SessionPersistence, opts ...Option) *Manager {
	return NewManager(append([]Option{WithPersistence(persistence)}, opts...)...)
}

// SetUpdateHandler registers fn to receive every accepted event of every session.
func (m *Manager) SetUpdateHandler(fn service.UpdateHandler) {
	m.handlerMu.Lock()
	defer m.handlerMu.Unlock()
	m.handler = fn
}

func (m *Manager) updateHandler() service.UpdateHandler {
	m.handlerMu.RLock()
	defer m.handlerMu.RUnlock()
	return m.handler
}

// Create creates a new session with the given ID and configuration
func (m *Manager) Create(id string, config *engine.GameConfig) (*service.Session, error) {
	if id == "" {
		id = m.generateUniqueID()
	}
	if !validSessionID(id) {
		return nil, ErrInvalidSessionID
	}

	m.mu.RLock()
	exists := m.sessionExists(id)
	m.mu.RUnlock()
	if exists {
		return nil, ErrSessionAlreadyExists
	}

	now := m.clock.Now()
	session, err := m.build(id, config, nil, now, now)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	// Check if session already exists (case-insensitive)
	if m.sessionExists(id) {
		m.mu.Unlock()
		session.Loop.Close()
		return nil, ErrSessionAlreadyExists
	}
	m.sessions[strings.ToLower(id)] = session
	m.mu.Unlock()

	// Auto-save if persistence is enabled
	m.persist(session, session.Loop.Snapshot())
	m.logger.Debug().Str("session", id).Str("config", config.Name).Msg("session created")

	return session, nil
}

// build wires an engine and loop for a session. A nil state deals a new board.
func (m *Manager) build(id string, config *engine.GameConfig, state *engine.GameState, createdAt, lastAccessedAt time.Time) (*service.Session, error) {
	dealer, err := m.newDealer()
	if err != nil {
		return nil, fmt.Errorf("failed to create dealer: %w", err)
	}

	eng, err := engine.NewEngine(config, dealer)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}
	if state != nil {
		if err := eng.SetState(state); err != nil {
			return nil, fmt.Errorf("failed to restore game state: %w", err)
		}
	}

	l := loop.New(eng, m.clock, loop.WithLogger(m.logger.With().Str("session", id).Logger()))
	session := service.NewSession(id, config, l, createdAt, lastAccessedAt)
	l.OnUpdate(m.listener(session))
	return session, nil
}

// listener persists every non-tick change and forwards all of them to the
// update handler. It runs under the session's loop lock.
func (m *Manager) listener(session *service.Session) loop.Listener {
	return func(u loop.Update) {
		if _, tick := u.Event.(engine.TimerTick); !tick {
			m.persist(session, u.State)
		}
		if h := m.updateHandler(); h != nil {
			h(session.ID, u)
		}
	}
}

func (m *Manager) persist(session *service.Session, state *engine.GameState) {
	if m.persistence == nil {
		return
	}
	if err := m.persistence.Save(m.snapshot(session, state)); err != nil {
		// Log error but don't fail the operation
		m.logger.Warn().Err(err).Str("session", session.ID).Msg("failed to persist session")
	}
}

func (m *Manager) snapshot(session *service.Session, state *engine.GameState) *PersistedSessionData {
	return &PersistedSessionData{
		ID:             session.ID,
		ConfigName:     session.Config.Name,
		CreatedAt:      session.CreatedAt,
		LastAccessedAt: session.LastAccessedAt(),
		GameState:      state,
		Config:         session.Config,
	}
}

// restore rebuilds a running session from persisted data. The caller must
// Resume its loop once the session is registered.
func (m *Manager) restore(data *PersistedSessionData) (*service.Session, error) {
	if data.Config == nil {
		return nil, fmt.Errorf("session %s: config %q not resolved", data.ID, data.ConfigName)
	}
	return m.build(data.ID, data.Config, data.GameState, data.CreatedAt, data.LastAccessedAt)
}

// Get retrieves a session by ID (case-insensitive)
func (m *Manager) Get(id string) (*service.Session, error) {
	m.mu.RLock()
	session, exists := m.lookup(id)
	m.mu.RUnlock()

	if exists {
		return session, nil
	}

	// Try loading from persistence if not in memory
	if m.persistence != nil && m.persistence.Exists(id) {
		data, err := m.persistence.Load(id)
		if err != nil {
			return nil, fmt.Errorf("failed to load persisted session: %w", err)
		}
		session, err := m.restore(data)
		if err != nil {
			return nil, fmt.Errorf("failed to load persisted session: %w", err)
		}

		// Add to memory cache unless another caller won the race
		m.mu.Lock()
		if existing, ok := m.lookup(id); ok {
			m.mu.Unlock()
			session.Loop.Close()
			return existing, nil
		}
		m.sessions[strings.ToLower(id)] = session
		m.mu.Unlock()

		session.Loop.Resume()
		return session, nil
	}

	return nil, ErrSessionNotFound
}

// GetOrCreate gets an existing session or creates a new one
func (m *Manager) GetOrCreate(id string, config *engine.GameConfig) (*service.Session, error) {
	// Try to get existing session first
	session, err := m.Get(id)
	if err == nil {
		return session, nil
	}

	// Create new session if not found
	if errors.Is(err, ErrSessionNotFound) {
		return m.Create(id, config)
	}

	return nil, err
}

// List returns all active sessions
func (m *Manager) List() []*service.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*service.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}

	return result
}

// Delete removes a session from memory and storage and stops its timers
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	session, inMemory := m.remove(id)
	m.mu.Unlock()

	if inMemory {
		session.Loop.Close()
	}

	// Delete from persistence if it exists
	if m.persistence != nil && m.persistence.Exists(id) {
		if err := m.persistence.Delete(id); err != nil {
			return fmt.Errorf("failed to delete persisted session: %w", err)
		}
		return nil
	}

	// If not in persistence and not in memory, it doesn't exist
	if !inMemory {
		return ErrSessionNotFound
	}

	return nil
}

// DeleteFromMemory removes a session from memory only (not from persistence)
func (m *Manager) DeleteFromMemory(id string) error {
	m.mu.Lock()
	session, ok := m.remove(id)
	m.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	session.Loop.Close()
	return nil
}

// UpdateLastAccessed updates the last accessed time for a session
func (m *Manager) UpdateLastAccessed(id string) error {
	m.mu.RLock()
	session, exists := m.lookup(id)
	m.mu.RUnlock()
	if !exists {
		return ErrSessionNotFound
	}

	session.Touch(m.clock.Now())
	m.persist(session, session.Loop.Snapshot())
	return nil
}

// Save saves a specific session to persistence
func (m *Manager) Save(id string) error {
	if m.persistence == nil {
		return nil // No persistence configured
	}

	m.mu.RLock()
	session, exists := m.lookup(id)
	m.mu.RUnlock()
	if !exists {
		return ErrSessionNotFound
	}

	return m.persistence.Save(m.snapshot(session, session.Loop.Snapshot()))
}

// CleanupExpiredSessions removes sessions that haven't been accessed in the
// given duration. Persisted copies are kept.
func (m *Manager) CleanupExpiredSessions(maxAge time.Duration) int {
	cutoff := m.clock.Now().Add(-maxAge)

	m.mu.Lock()
	var expired []*service.Session
	for key, session := range m.sessions {
		if session.LastAccessedAt().Before(cutoff) {
			delete(m.sessions, key)
			expired = append(expired, session)
		}
	}
	m.mu.Unlock()

	for _, session := range expired {
		session.Loop.Close()
	}
	return len(expired)
}

// Close stops the timers of every in-memory session.
func (m *Manager) Close() {
	m.mu.Lock()
	sessions := make([]*service.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		sessions = append(sessions, session)
	}
	m.mu.Unlock()

	for _, session := range sessions {
		session.Loop.Close()
	}
}

// Count returns the number of active sessions
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// generateSessionID generates a random 4-character session ID
func (m *Manager) generateSessionID() string {
	// Generate 2 random bytes (4 hex characters)
	bytes := make([]byte, 2)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

func (m *Manager) generateUniqueID() string {
	for {
		id := m.generateSessionID()
		m.mu.RLock()
		taken := m.sessionExists(id)
		m.mu.RUnlock()
		if !taken && (m.persistence == nil || !m.persistence.Exists(id)) {
			return id
		}
	}
}

// lookup finds a session by ID (case-insensitive). Callers hold m.mu.
func (m *Manager) lookup(id string) (*service.Session, bool) {
	session, exists := m.sessions[strings.ToLower(id)]
	return session, exists
}

// remove deletes a session from the map. Callers hold m.mu.
func (m *Manager) remove(id string) (*service.Session, bool) {
	session, exists := m.lookup(id)
	if exists {
		delete(m.sessions, strings.ToLower(id))
	}
	return session, exists
}

// sessionExists checks if a session exists (case-insensitive)
func (m *Manager) sessionExists(id string) bool {
	_, exists := m.lookup(id)
	return exists
}

// LoadPersistedSessions loads all persisted sessions into memory and resumes
// their timers.
func (m *Manager) LoadPersistedSessions() error {
	if m.persistence == nil {
		return nil // No persistence configured
	}

	sessionIDs, err := m.persistence.ListAll()
	if err != nil {
		return fmt.Errorf("failed to list persisted sessions: %w", err)
	}

	var loaded []*service.Session
	for _, id := range sessionIDs {
		// Skip if already loaded in memory
		m.mu.RLock()
		exists := m.sessionExists(id)
		m.mu.RUnlock()
		if exists {
			continue
		}

		data, err := m.persistence.Load(id)
		if err != nil {
			m.logger.Warn().Err(err).Str("session", id).Msg("failed to load persisted session")
			continue
		}
		session, err := m.restore(data)
		if err != nil {
			m.logger.Warn().Err(err).Str("session", id).Msg("failed to restore persisted session")
			continue
		}

		m.mu.Lock()
		if m.sessionExists(id) {
			m.mu.Unlock()
			session.Loop.Close()
			continue
		}
		m.sessions[strings.ToLower(id)] = session
		m.mu.Unlock()
		loaded = append(loaded, session)
	}

	for _, session := range loaded {
		session.Loop.Resume()
	}
	if len(loaded) > 0 {
		m.logger.Info().Int("count", len(loaded)).Msg("loaded persisted sessions")
	}

	return nil
}

// SaveAllSessions saves all in-memory sessions to persistence
func (m *Manager) SaveAllSessions() error {
	if m.persistence == nil {
		return nil // No persistence configured
	}

	errorCount := 0
	for _, session := range m.List() {
		if err := m.persistence.Save(m.snapshot(session, session.Loop.Snapshot())); err != nil {
			m.logger.Warn().Err(err).Str("session", session.ID).Msg("failed to save session")
			errorCount++
		}
	}

	if errorCount > 0 {
		return fmt.Errorf("failed to save %d sessions", errorCount)
	}

	return nil
}
