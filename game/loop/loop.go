// Package loop runs a board's event queue. A Loop serializes every input to a
// game engine (player flips, ticker callbacks, deferred callbacks) and carries
// out the effects the engine returns on a clock.
package loop

import (
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/wricardo/mcp-training/memorymatch/game/clock"
	"github.com/wricardo/mcp-training/memorymatch/game/engine"
	"github.com/wricardo/mcp-training/memorymatch/game/timer"
)

// ReasonClosed is reported for events dispatched to a closed Loop.
const ReasonClosed engine.Reason = "closed"

// Update is delivered to listeners after every accepted event.
type Update struct {
	Event   engine.Event
	Outcome engine.Outcome
	View    engine.BoardView
	State   *engine.GameState // deep copy, safe to retain; nil for timer ticks
}

// Listener observes accepted events. Listeners run while the loop is locked
// and must not call back into it.
type Listener func(Update)

// Option configures a Loop.
type Option func(*Loop)

// WithLogger sets the logger used for dispatch tracing.
func WithLogger(logger zerolog.Logger) Option {
	return func(l *Loop) { l.logger = logger }
}

// WithListener registers a listener at construction time.
func WithListener(fn Listener) Option {
	return func(l *Loop) { l.listeners = append(l.listeners, fn) }
}

// Loop owns one engine and the timers acting on it.
type Loop struct {
	mu        sync.Mutex
	engine    engine.Engine
	clock     clock.Clock
	ticker    *timer.Ticker
	pending   map[uint64]clock.Timer
	nextID    uint64
	listeners []Listener
	logger    zerolog.Logger
	closed    bool
}

// New creates a Loop around eng. Timing runs on c.
func New(eng engine.Engine, c clock.Clock, opts ...Option) *Loop {
	l := &Loop{
		engine:  eng,
		clock:   c,
		ticker:  timer.New(c, eng.GetConfig().TickInterval()),
		pending: make(map[uint64]clock.Timer),
		logger:  log.Logger,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// OnUpdate registers a listener for accepted events.
func (l *Loop) OnUpdate(fn Listener) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.listeners = append(l.listeners, fn)
}

// Dispatch applies ev to the engine and executes the resulting effects.
func (l *Loop) Dispatch(ev engine.Event) engine.Outcome {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return engine.Outcome{Reason: ReasonClosed}
	}
	if ev == nil {
		return engine.Outcome{Reason: engine.ReasonUnknownEvent}
	}

	generation := l.engine.GetState().Generation
	out := l.engine.Handle(ev)
	if !out.Accepted {
		l.logger.Debug().Str("event", ev.Kind()).Str("reason", string(out.Reason)).Msg("event ignored")
		return out
	}

	if l.engine.GetState().Generation != generation {
		l.cancelPendingLocked()
	}
	l.applyLocked(out.Effects)

	if ev.Kind() != (engine.TimerTick{}).Kind() {
		l.logger.Debug().Str("event", ev.Kind()).Int("moves", l.engine.GetMoves()).Msg("event applied")
	}
	l.notifyLocked(ev, out)
	return out
}

// Flip requests a card flip.
func (l *Loop) Flip(index int) engine.Outcome {
	return l.Dispatch(engine.FlipRequested{Index: index})
}

// Restart deals a new board at any point.
func (l *Loop) Restart() engine.Outcome {
	return l.Dispatch(engine.RestartRequested{})
}

// Replay dismisses the summary and deals a new board.
func (l *Loop) Replay() engine.Outcome {
	return l.Dispatch(engine.ReplayRequested{})
}

// Resume restarts the ticker and deferred transitions of a restored engine.
func (l *Loop) Resume() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.applyLocked(l.engine.Resume())
}

// View returns the current display projection.
func (l *Loop) View() engine.BoardView {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.engine.View()
}

// Snapshot returns a deep copy of the engine state.
func (l *Loop) Snapshot() *engine.GameState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.engine.GetState().Clone()
}

// Read runs fn with exclusive access to the engine. fn must not retain it.
func (l *Loop) Read(fn func(engine.Engine)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fn(l.engine)
}

// Pending returns the number of deferred transitions still scheduled.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pending)
}

// Close stops the ticker and every deferred transition. Later events are
// ignored with ReasonClosed.
func (l *Loop) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	l.ticker.Stop()
	l.cancelPendingLocked()
}

func (l *Loop) applyLocked(effects []engine.Effect) {
	for _, effect := range effects {
		switch e := effect.(type) {
		case engine.StartTimer:
			token := e.Token
			l.ticker.Start(func() {
				l.Dispatch(engine.TimerTick{Token: token})
			})
		case engine.StopTimer:
			l.ticker.Stop()
		case engine.Schedule:
			l.scheduleLocked(e)
		default:
			l.logger.Warn().Msgf("unknown effect %T", effect)
		}
	}
}

func (l *Loop) scheduleLocked(s engine.Schedule) {
	l.nextID++
	id := l.nextID
	ev := s.Event
	l.pending[id] = l.clock.AfterFunc(s.Delay, func() {
		l.mu.Lock()
		_, live := l.pending[id]
		delete(l.pending, id)
		l.mu.Unlock()
		if !live {
			return
		}
		l.Dispatch(ev)
	})
}

func (l *Loop) cancelPendingLocked() {
	for id, t := range l.pending {
		t.Stop()
		delete(l.pending, id)
	}
}

func (l *Loop) notifyLocked(ev engine.Event, out engine.Outcome) {
	if len(l.listeners) == 0 {
		return
	}
	update := Update{
		Event:   ev,
		Outcome: out,
		View:    l.engine.View(),
	}
	// a tick only moves ElapsedSeconds, which View carries
	if _, tick := ev.(engine.TimerTick); !tick {
		update.State = l.engine.GetState().Clone()
	}
	for _, fn := range l.listeners {
		fn(update)
	}
}
