package engine

import (
	"fmt"

	"github.com/wricardo/mcp-training/memorymatch/game/deck"
)

// Engine provides the main interface for game operations
type Engine interface {
	// Transitions
	Handle(ev Event) Outcome
	Initialize() Outcome
	AttemptFlip(index int) Outcome
	Replay() Outcome
	Resume() []Effect

	// Game state management
	GetState() *GameState
	SetState(state *GameState) error
	View() BoardView
	IsCompleted() bool
	GetMoves() int
	GetElapsedSeconds() int

	// Configuration
	GetConfig() *GameConfig

	// History
	GetFlipHistory() []FlipHistoryEntry
	GetLastFlip() *FlipHistoryEntry
}

// GameEngine implements the Engine interface. It is not safe for concurrent
// use; callers serialize access (see package loop).
type GameEngine struct {
	state  *GameState
	config *GameConfig
	dealer deck.Dealer
}

// NewEngine creates a new game engine with the provided configuration and
// deals the first board.
func NewEngine(config *GameConfig, dealer deck.Dealer) (*GameEngine, error) {
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}
	if dealer == nil {
		return nil, fmt.Errorf("dealer cannot be nil")
	}

	engine := &GameEngine{
		config: config,
		dealer: dealer,
		state:  &GameState{},
	}
	engine.Initialize()
	return engine, nil
}

// NewEngineWithDefaults creates a new game engine with the default configuration
// and a randomly seeded shuffler.
func NewEngineWithDefaults() (*GameEngine, error) {
	shuffler, err := deck.NewRandomShuffler()
	if err != nil {
		return nil, err
	}
	return NewEngine(DefaultConfig(), shuffler)
}

// Handle applies one event and reports what changed.
func (e *GameEngine) Handle(ev Event) Outcome {
	switch ev := ev.(type) {
	case FlipRequested:
		return e.AttemptFlip(ev.Index)
	case TimerTick:
		return e.tick(ev.Token)
	case RestartRequested:
		return e.Initialize()
	case ReplayRequested:
		return e.Replay()
	case MismatchExpired:
		return e.expireMismatch(ev.Generation)
	case CompletionDue:
		return e.complete(ev.Generation)
	default:
		return ignored(ReasonUnknownEvent)
	}
}

// Initialize deals a fresh board and resets the session counters. Flip
// history and the timer token survive.
func (e *GameEngine) Initialize() Outcome {
	prev := e.state
	e.state = InitGameStateFromConfig(e.config, e.dealer.Deal(e.config.Symbols))
	e.state.Generation = prev.Generation + 1
	e.state.TimerToken = prev.TimerToken
	e.state.FlipHistory = prev.FlipHistory
	e.state.TotalFlips = prev.TotalFlips
	if e.state.FlipHistory == nil {
		e.state.FlipHistory = []FlipHistoryEntry{}
	}
	if prev.Generation > 0 && e.config.Messages.Restart != "" {
		e.state.Message = e.config.Messages.Restart
	}

	out := Outcome{Accepted: true}
	if prev.TimerRunning {
		out.emit(EventTimerStopped, "")
	}
	out.do(StopTimer{})
	out.emit(EventBoardDealt, e.state.Message)
	return out
}

// Replay dismisses the completion summary and deals a new board. It is
// ignored unless the summary is showing.
func (e *GameEngine) Replay() Outcome {
	if !e.state.Completed {
		return ignored(ReasonNoSummary)
	}
	out := Outcome{Accepted: true}
	out.emit(EventSummaryClosed, "")
	out.merge(e.Initialize())
	return out
}

// Resume returns the effects needed to continue a restored state: the ticker
// if it was running and any deferred transition still outstanding.
func (e *GameEngine) Resume() []Effect {
	var effects []Effect
	if e.state.TimerRunning {
		effects = append(effects, StartTimer{Token: e.state.TimerToken})
	}
	switch e.state.Pending {
	case PendingMismatch:
		effects = append(effects, Schedule{Delay: e.config.MismatchDelay(), Event: MismatchExpired{Generation: e.state.Generation}})
	case PendingCompletion:
		effects = append(effects, Schedule{Delay: e.config.CompletionDelay(), Event: CompletionDue{Generation: e.state.Generation}})
	}
	return effects
}

// GetState returns the current game state
func (e *GameEngine) GetState() *GameState {
	return e.state
}

// SetState sets the game state (used for persistence loading)
func (e *GameEngine) SetState(state *GameState) error {
	if state == nil {
		return fmt.Errorf("state cannot be nil")
	}
	if want := 2 * len(e.config.Symbols); len(state.Cards) != want {
		return fmt.Errorf("state has %d cards, config %q needs %d", len(state.Cards), e.config.Name, want)
	}
	if len(state.Selection) > MaxSelection {
		return fmt.Errorf("state selection has %d cards", len(state.Selection))
	}
	for _, idx := range state.Selection {
		if idx < 0 || idx >= len(state.Cards) {
			return fmt.Errorf("state selection index %d out of range", idx)
		}
	}
	if state.FlipHistory == nil {
		state.FlipHistory = []FlipHistoryEntry{}
	}
	e.state = state
	return nil
}

// IsCompleted reports whether the end-of-game summary is showing.
func (e *GameEngine) IsCompleted() bool {
	return e.state.Completed
}

// GetMoves returns the number of pairs turned over on this board.
func (e *GameEngine) GetMoves() int {
	return e.state.Moves
}

// GetElapsedSeconds returns the seconds counted since the first flip.
func (e *GameEngine) GetElapsedSeconds() int {
	return e.state.ElapsedSeconds
}

// GetConfig returns the current game configuration
func (e *GameEngine) GetConfig() *GameConfig {
	return e.config
}

// GetFlipHistory returns the complete flip history
func (e *GameEngine) GetFlipHistory() []FlipHistoryEntry {
	return e.state.FlipHistory
}

// GetLastFlip returns the last accepted flip, or nil if none
func (e *GameEngine) GetLastFlip() *FlipHistoryEntry {
	if len(e.state.FlipHistory) == 0 {
		return nil
	}
	return &e.state.FlipHistory[len(e.state.FlipHistory)-1]
}

// View returns the display projection of the current state.
func (e *GameEngine) View() BoardView {
	return NewBoardView(e.state, e.config)
}
