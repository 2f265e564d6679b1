package engine

import (
	"time"

	"github.com/wricardo/mcp-training/memorymatch/game/deck"
)

// Symbol is a card face, shared with package deck.
type Symbol = deck.Symbol

// CardState is the face state of a single card.
type CardState string

const (
	Hidden  CardState = "hidden"
	Flipped CardState = "flipped"
	Matched CardState = "matched"
)

// PendingAction names the deferred transition a board is waiting on.
type PendingAction string

const (
	PendingNone       PendingAction = ""
	PendingMismatch   PendingAction = "mismatch"
	PendingCompletion PendingAction = "completion"
)

const (
	// Validation constants
	MinSymbols = 2
	MaxSymbols = 32

	DefaultBackFace        = "?"
	DefaultColumns         = 4
	DefaultMismatchDelay   = 1000 * time.Millisecond
	DefaultCompletionDelay = 500 * time.Millisecond
	DefaultTickInterval    = time.Second

	MaxSelection        = 2
	WebSocketBufferSize = 256
)

// Card is one slot on the board. Index and Symbol never change after dealing.
type Card struct {
	Index  int         `json:"index"`
	Symbol deck.Symbol `json:"symbol"`
	State  CardState   `json:"state"`
}

// Messages holds the player-facing text of a configuration.
type Messages struct {
	Welcome  string `json:"welcome"`
	Match    string `json:"match"`
	Mismatch string `json:"mismatch"`
	Victory  string `json:"victory"` // %d placeholders: moves, then seconds
	Restart  string `json:"restart"`
}

// GameConfig represents the game configuration from JSON
type GameConfig struct {
	Name              string        `json:"name"`
	Description       string        `json:"description"`
	Symbols           []deck.Symbol `json:"symbols"`
	BackFace          string        `json:"back_face,omitempty"`
	Columns           int           `json:"columns,omitempty"`
	MismatchDelayMS   int           `json:"mismatch_delay_ms,omitempty"`
	CompletionDelayMS int           `json:"completion_delay_ms,omitempty"`
	TickIntervalMS    int           `json:"tick_interval_ms,omitempty"`
	Messages          Messages      `json:"messages"`
}

// Summary is the end-of-game report. Values are copied when the game completes.
type Summary struct {
	Moves          int `json:"moves"`
	ElapsedSeconds int `json:"elapsed_seconds"`
}

// GameState represents the complete game state
type GameState struct {
	Cards     []Card `json:"cards"`
	Selection []int  `json:"selection"`

	Moves          int  `json:"moves"`
	ElapsedSeconds int  `json:"elapsed_seconds"`
	MatchedPairs   int  `json:"matched_pairs"`
	TotalPairs     int  `json:"total_pairs"`
	Started        bool `json:"started"`

	// Generation identifies the current board. Every initialize increments it
	// and deferred events carrying an older value are ignored.
	Generation uint64 `json:"generation"`

	// TimerToken identifies the running ticker. It only grows, so ticks from a
	// cancelled ticker never match a later one.
	TimerToken   uint64 `json:"timer_token"`
	TimerRunning bool   `json:"timer_running"`

	Pending   PendingAction `json:"pending,omitempty"`
	Completed bool          `json:"completed"`
	Summary   *Summary      `json:"summary,omitempty"`

	Message    string `json:"message"`
	ConfigName string `json:"config_name"`

	// FlipHistory is cumulative across restarts; entries carry their Generation.
	FlipHistory []FlipHistoryEntry `json:"flip_history"`
	TotalFlips  int                `json:"total_flips"`
}

// FlipResult describes what an accepted flip led to.
type FlipResult string

const (
	FlipOpened   FlipResult = "opened"
	FlipMatch    FlipResult = "match"
	FlipMismatch FlipResult = "mismatch"
)

// FlipHistoryEntry represents a single accepted flip
type FlipHistoryEntry struct {
	FlipNumber int         `json:"flip_number"`
	Generation uint64      `json:"generation"`
	Index      int         `json:"index"`
	Symbol     deck.Symbol `json:"symbol"`
	Result     FlipResult  `json:"result"`
	Moves      int         `json:"moves"`
	Timestamp  int64       `json:"timestamp"`
}

// Clone returns a deep copy of the state.
func (gs *GameState) Clone() *GameState {
	if gs == nil {
		return nil
	}
	c := *gs
	c.Cards = append([]Card(nil), gs.Cards...)
	c.Selection = append([]int{}, gs.Selection...)
	c.FlipHistory = append([]FlipHistoryEntry{}, gs.FlipHistory...)
	if gs.Summary != nil {
		s := *gs.Summary
		c.Summary = &s
	}
	return &c
}
