package service

import (
	"context"
	"sync"
	"time"

	"github.com/wricardo/mcp-training/memorymatch/game/engine"
	"github.com/wricardo/mcp-training/memorymatch/game/loop"
	"github.com/wricardo/mcp-training/memorymatch/game/results"
)

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, configName string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Game Operations
	Flip(ctx context.Context, sessionID string, index int) (*FlipResult, error)
	Restart(ctx context.Context, sessionID string) (*ActionResult, error)
	Replay(ctx context.Context, sessionID string) (*ActionResult, error)

	// Game State
	GetGameState(ctx context.Context, sessionID string) (*engine.BoardView, error)
	GetFlipHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)
	Leaderboard(ctx context.Context, configName string, limit int) ([]results.Result, error)

	// Configuration
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error)
	SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error
}

// UpdateHandler receives every accepted event of every session. It runs while
// the session's loop is locked and must not call back into that session.
type UpdateHandler func(sessionID string, update loop.Update)

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id string, config *engine.GameConfig) (*Session, error)
	Get(id string) (*Session, error)
	GetOrCreate(id string, config *engine.GameConfig) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
	Save(id string) error
	SetUpdateHandler(fn UpdateHandler)
}

// ConfigManager handles game configuration loading
type ConfigManager interface {
	LoadConfig(name string) (*engine.GameConfig, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *engine.GameConfig
	SaveConfig(name string, config *engine.GameConfig) error
}

// Notifier pushes state changes to connected displays.
type Notifier interface {
	Notify(update StateUpdate)
}

// Session represents an active game session
type Session struct {
	ID        string
	Loop      *loop.Loop
	Config    *engine.GameConfig
	CreatedAt time.Time

	mu             sync.Mutex
	lastAccessedAt time.Time
}

// NewSession wraps a running loop.
func NewSession(id string, config *engine.GameConfig, l *loop.Loop, createdAt, lastAccessedAt time.Time) *Session {
	return &Session{
		ID:             id,
		Loop:           l,
		Config:         config,
		CreatedAt:      createdAt,
		lastAccessedAt: lastAccessedAt,
	}
}

// Touch records an access at t.
func (s *Session) Touch(t time.Time) {
	s.mu.Lock()
	s.lastAccessedAt = t
	s.mu.Unlock()
}

// LastAccessedAt returns the time of the latest access.
func (s *Session) LastAccessedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAccessedAt
}
