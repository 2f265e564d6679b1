package engine

import "time"

// Event is an input to the board state machine. Every interaction, whether a
// player flip, a timer tick or a deferred callback, reaches the engine as one
// of the types below.
type Event interface {
	Kind() string
}

// FlipRequested asks to turn the card at Index face up.
type FlipRequested struct {
	Index int `json:"index"`
}

// TimerTick is one elapsed second from the ticker identified by Token.
type TimerTick struct {
	Token uint64 `json:"token"`
}

// RestartRequested re-initializes the board at any point.
type RestartRequested struct{}

// ReplayRequested dismisses the completion summary and starts a new board.
type ReplayRequested struct{}

// MismatchExpired turns an unmatched pair back over.
type MismatchExpired struct {
	Generation uint64 `json:"generation"`
}

// CompletionDue shows the end-of-game summary.
type CompletionDue struct {
	Generation uint64 `json:"generation"`
}

func (FlipRequested) Kind() string    { return "flip" }
func (TimerTick) Kind() string        { return "tick" }
func (RestartRequested) Kind() string { return "restart" }
func (ReplayRequested) Kind() string  { return "replay" }
func (MismatchExpired) Kind() string  { return "mismatch_expired" }
func (CompletionDue) Kind() string    { return "completion_due" }

// Effect is a side effect the caller of Handle must carry out.
type Effect interface {
	effect()
}

// StartTimer starts a fresh ticker whose ticks carry Token.
type StartTimer struct {
	Token uint64
}

// StopTimer cancels the running ticker, if any.
type StopTimer struct{}

// Schedule delivers Event back to the engine after Delay.
type Schedule struct {
	Delay time.Duration
	Event Event
}

func (StartTimer) effect() {}
func (StopTimer) effect()  {}
func (Schedule) effect()   {}

// Reason explains why an event was ignored. Ignored events are not errors.
type Reason string

const (
	ReasonNone            Reason = ""
	ReasonOutOfRange      Reason = "out_of_range"
	ReasonCardMatched     Reason = "card_matched"
	ReasonSelectionFull   Reason = "selection_full"
	ReasonAlreadySelected Reason = "already_selected"
	ReasonStale           Reason = "stale"
	ReasonTimerStopped    Reason = "timer_stopped"
	ReasonNoSummary       Reason = "no_summary"
	ReasonUnknownEvent    Reason = "unknown_event"
)

// GameEventType classifies observable changes.
type GameEventType string

const (
	EventBoardDealt     GameEventType = "board_dealt"
	EventCardFlipped    GameEventType = "card_flipped"
	EventPairMatched    GameEventType = "pair_matched"
	EventPairMismatched GameEventType = "pair_mismatched"
	EventCardsHidden    GameEventType = "cards_hidden"
	EventTimerStarted   GameEventType = "timer_started"
	EventTimerTicked    GameEventType = "timer_ticked"
	EventTimerStopped   GameEventType = "timer_stopped"
	EventGameCompleted  GameEventType = "game_completed"
	EventSummaryClosed  GameEventType = "summary_closed"
)

// GameEvent records one observable change caused by an event.
type GameEvent struct {
	Type    GameEventType `json:"type"`
	Indices []int         `json:"indices,omitempty"`
	Message string        `json:"message,omitempty"`
}

// Outcome is the result of handling one Event.
type Outcome struct {
	Accepted bool        `json:"accepted"`
	Reason   Reason      `json:"reason,omitempty"`
	Events   []GameEvent `json:"events,omitempty"`
	Effects  []Effect    `json:"-"`
}

func ignored(reason Reason) Outcome {
	return Outcome{Reason: reason}
}

func (o *Outcome) emit(t GameEventType, message string, indices ...int) {
	o.Events = append(o.Events, GameEvent{Type: t, Indices: indices, Message: message})
}

func (o *Outcome) do(e Effect) {
	o.Effects = append(o.Effects, e)
}

// merge appends other's events and effects to o.
func (o *Outcome) merge(other Outcome) {
	o.Events = append(o.Events, other.Events...)
	o.Effects = append(o.Effects, other.Effects...)
}

// Has reports whether the outcome emitted an event of type t.
func (o Outcome) Has(t GameEventType) bool {
	for _, e := range o.Events {
		if e.Type == t {
			return true
		}
	}
	return false
}
