// Package results stores completed games and ranks them on a leaderboard.
//
// Two stores implement Store: MemoryStore for tests and ephemeral servers,
// and SQLiteStore for a persistent leaderboard. Entries rank by fewest moves,
// then fewest seconds, then earliest completion.
package results

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"
)

// DefaultLimit is the leaderboard size used when none is requested.
const DefaultLimit = 10

// ErrInvalidResult is returned when a result cannot describe a finished game.
var ErrInvalidResult = errors.New("invalid result")

// Result is one completed game.
type Result struct {
	ID             string    `json:"id"`
	SessionID      string    `json:"session_id"`
	ConfigName     string    `json:"config_name"`
	Pairs          int       `json:"pairs"`
	Moves          int       `json:"moves"`
	ElapsedSeconds int       `json:"elapsed_seconds"`
	CompletedAt    time.Time `json:"completed_at"`
}

// Store records results and answers leaderboard queries.
type Store interface {
	Record(ctx context.Context, r *Result) error
	// Leaderboard returns the best results for configName, or across every
	// config when configName is empty.
	Leaderboard(ctx context.Context, configName string, limit int) ([]Result, error)
	Close() error
}

// Validate checks that r describes a finished game.
func (r *Result) Validate() error {
	if r.ConfigName == "" {
		return fmt.Errorf("%w: config name is required", ErrInvalidResult)
	}
	if r.Pairs <= 0 {
		return fmt.Errorf("%w: pairs must be positive, got %d", ErrInvalidResult, r.Pairs)
	}
	if r.Moves < r.Pairs {
		return fmt.Errorf("%w: %d moves cannot match %d pairs", ErrInvalidResult, r.Moves, r.Pairs)
	}
	if r.ElapsedSeconds < 0 {
		return fmt.Errorf("%w: elapsed seconds must not be negative", ErrInvalidResult)
	}
	return nil
}

// prepare validates r and fills in the ID and completion time.
func prepare(r *Result, now time.Time) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if r.ID == "" {
		r.ID = xid.New().String()
	}
	if r.CompletedAt.IsZero() {
		r.CompletedAt = now
	}
	r.CompletedAt = r.CompletedAt.UTC()
	return nil
}

// less orders results for the leaderboard.
func less(a, b Result) bool {
	if a.Moves != b.Moves {
		return a.Moves < b.Moves
	}
	if a.ElapsedSeconds != b.ElapsedSeconds {
		return a.ElapsedSeconds < b.ElapsedSeconds
	}
	return a.CompletedAt.Before(b.CompletedAt)
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return limit
}
