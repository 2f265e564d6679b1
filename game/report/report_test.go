package report

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/mcp-training/memorymatch/game/engine"
	"github.com/wricardo/mcp-training/memorymatch/game/results"
)

func completedState() *engine.GameState {
	return &engine.GameState{
		ConfigName: "classic",
		TotalPairs: 8,
		Moves:      11,
		Completed:  true,
		Summary:    &engine.Summary{Moves: 11, ElapsedSeconds: 42},
	}
}

func TestText(t *testing.T) {
	cfg := engine.DefaultConfig()
	cfg.Messages.Victory = "%d moves, %d seconds"
	assert.Equal(t, "11 moves, 42 seconds", Text(cfg, engine.Summary{Moves: 11, ElapsedSeconds: 42}))
	assert.Contains(t, Text(nil, engine.Summary{Moves: 3, ElapsedSeconds: 4}), "3 moves and 4 seconds")
}

func TestLines(t *testing.T) {
	lines := Lines(engine.DefaultConfig(), engine.Summary{Moves: 8, ElapsedSeconds: 20})
	require.Len(t, lines, 4)
	assert.Equal(t, "Moves: 8", lines[1])
	assert.Equal(t, "Time: 20s", lines[2])
}

func TestReporter_Record(t *testing.T) {
	store := results.NewMemoryStore()
	r := New(store)

	res, err := r.Record(context.Background(), "ab12", completedState())
	require.NoError(t, err)
	assert.Equal(t, "ab12", res.SessionID)
	assert.Equal(t, 11, res.Moves)
	assert.Equal(t, 42, res.ElapsedSeconds)
	assert.NotEmpty(t, res.ID)

	board, err := r.Leaderboard(context.Background(), "classic", 5)
	require.NoError(t, err)
	require.Len(t, board, 1)
	assert.Equal(t, res.ID, board[0].ID)
}

func TestReporter_RecordUsesSummaryValues(t *testing.T) {
	store := results.NewMemoryStore()
	state := completedState()
	state.Moves = 0 // counters may already be reset; the summary is authoritative
	res, err := New(store).Record(context.Background(), "x", state)
	require.NoError(t, err)
	assert.Equal(t, 11, res.Moves)
}

func TestReporter_NotCompleted(t *testing.T) {
	r := New(results.NewMemoryStore())
	state := completedState()
	state.Completed = false
	_, err := r.Record(context.Background(), "x", state)
	assert.ErrorIs(t, err, ErrNotCompleted)

	_, err = r.Record(context.Background(), "x", nil)
	assert.ErrorIs(t, err, ErrNotCompleted)
}

func TestReporter_InvalidResult(t *testing.T) {
	state := completedState()
	state.Summary.Moves = 2
	_, err := New(results.NewMemoryStore()).Record(context.Background(), "x", state)
	assert.ErrorIs(t, err, results.ErrInvalidResult)
}

func TestReporter_NilStore(t *testing.T) {
	r := New(nil)
	res, err := r.Record(context.Background(), "x", completedState())
	require.NoError(t, err)
	assert.Equal(t, 11, res.Moves)
	board, err := r.Leaderboard(context.Background(), "", 0)
	require.NoError(t, err)
	assert.Empty(t, board)
}
