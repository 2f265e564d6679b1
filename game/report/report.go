// Package report turns a finished board into its end-of-game summary and
// records the result on the leaderboard.
package report

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/wricardo/mcp-training/memorymatch/game/engine"
	"github.com/wricardo/mcp-training/memorymatch/game/results"
)

// ErrNotCompleted is returned when a board has no summary yet.
var ErrNotCompleted = errors.New("game not completed")

// Reporter formats summaries and stores results.
type Reporter struct {
	store results.Store
}

// New creates a Reporter writing to store. A nil store disables recording.
func New(store results.Store) *Reporter {
	return &Reporter{store: store}
}

// Text renders the summary line for a finished board.
func Text(config *engine.GameConfig, summary engine.Summary) string {
	template := engine.DefaultConfig().Messages.Victory
	if config != nil && config.Messages.Victory != "" {
		template = config.Messages.Victory
	}
	return engine.FormatVictory(template, summary.Moves, summary.ElapsedSeconds)
}

// Lines renders the summary as display lines: a heading, the counters and
// the replay hint.
func Lines(config *engine.GameConfig, summary engine.Summary) []string {
	return []string{
		Text(config, summary),
		fmt.Sprintf("Moves: %d", summary.Moves),
		fmt.Sprintf("Time: %ds", summary.ElapsedSeconds),
		"Play again?",
	}
}

// Record stores the result of a completed board.
func (r *Reporter) Record(ctx context.Context, sessionID string, state *engine.GameState) (*results.Result, error) {
	if state == nil || !state.Completed || state.Summary == nil {
		return nil, ErrNotCompleted
	}
	res := &results.Result{
		SessionID:      sessionID,
		ConfigName:     state.ConfigName,
		Pairs:          state.TotalPairs,
		Moves:          state.Summary.Moves,
		ElapsedSeconds: state.Summary.ElapsedSeconds,
	}
	if r.store == nil {
		return res, nil
	}
	if err := r.store.Record(ctx, res); err != nil {
		return nil, fmt.Errorf("record result: %w", err)
	}
	log.Info().
		Str("session", sessionID).
		Str("config", res.ConfigName).
		Int("moves", res.Moves).
		Int("seconds", res.ElapsedSeconds).
		Msg("game completed")
	return res, nil
}

// Leaderboard returns the best results for configName.
func (r *Reporter) Leaderboard(ctx context.Context, configName string, limit int) ([]results.Result, error) {
	if r.store == nil {
		return []results.Result{}, nil
	}
	return r.store.Leaderboard(ctx, configName, limit)
}
