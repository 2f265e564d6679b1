package service

import (
	"time"

	"github.com/wricardo/mcp-training/memorymatch/game/engine"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string             `json:"id"`
	ConfigName     string             `json:"config_name"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	GameState      *engine.BoardView  `json:"game_state"`
	GameConfig     *engine.GameConfig `json:"game_config"`
}

// FlipResult contains the result of a flip request
type FlipResult struct {
	Accepted  bool              `json:"accepted"`
	Reason    string            `json:"reason,omitempty"` // out_of_range|card_matched|selection_full|already_selected
	Index     int               `json:"index"`
	Face      string            `json:"face,omitempty"`
	Result    engine.FlipResult `json:"result,omitempty"` // opened|match|mismatch
	GameState *engine.BoardView `json:"game_state"`
	Message   string            `json:"message"`
	Events    []GameEvent       `json:"events,omitempty"`
}

// ActionResult contains the result of a restart or replay
type ActionResult struct {
	Accepted  bool              `json:"accepted"`
	Reason    string            `json:"reason,omitempty"`
	GameState *engine.BoardView `json:"game_state"`
	Message   string            `json:"message"`
	Events    []GameEvent       `json:"events,omitempty"`
}

// GameEvent represents an event that occurred during gameplay
type GameEvent struct {
	Type      string    `json:"type"` // board_dealt, card_flipped, pair_matched, pair_mismatched, cards_hidden, game_completed, ...
	Message   string    `json:"message,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Indices   []int     `json:"indices,omitempty"`
}

// StateUpdate is pushed to displays after every accepted event, including
// timer ticks and deferred reverts.
type StateUpdate struct {
	SessionID string           `json:"session_id"`
	Event     string           `json:"event"`
	Events    []GameEvent      `json:"events,omitempty"`
	GameState engine.BoardView `json:"game_state"`
}

// HistoryOptions configures flip history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated flip history
type HistoryResponse struct {
	Flips       []engine.FlipHistoryEntry `json:"flips"`
	TotalFlips  int                       `json:"total_flips"`
	Page        int                       `json:"page"`
	PageSize    int                       `json:"page_size"`
	TotalPages  int                       `json:"total_pages"`
	HasNext     bool                      `json:"has_next"`
	HasPrevious bool                      `json:"has_previous"`
}

// ConfigInfo provides information about a game configuration
type ConfigInfo struct {
	Filename    string `json:"filename"`
	ConfigID    string `json:"config_id"` // The identifier to use for session creation
	Name        string `json:"name"`      // Display name
	Description string `json:"description"`
	Pairs       int    `json:"pairs"`
	Columns     int    `json:"columns"`
}
