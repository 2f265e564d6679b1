package tui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/mcp-training/memorymatch/game/clock"
	"github.com/wricardo/mcp-training/memorymatch/game/deck"
	"github.com/wricardo/mcp-training/memorymatch/game/engine"
	"github.com/wricardo/mcp-training/memorymatch/game/loop"
)

var adjacentDealer = deck.DealerFunc(func(symbols []deck.Symbol) []deck.Symbol {
	out := make([]deck.Symbol, 0, 2*len(symbols))
	for _, s := range symbols {
		out = append(out, s, s)
	}
	return out
})

func testConfig() *engine.GameConfig {
	cfg := engine.DefaultConfig()
	cfg.Name = "tui-test"
	cfg.Symbols = []deck.Symbol{"A", "B", "C"}
	cfg.Columns = 4
	return cfg
}

func newTestModel(t *testing.T) (Model, *clock.Fake) {
	t.Helper()
	cfg := testConfig()
	eng, err := engine.NewEngine(cfg, adjacentDealer)
	require.NoError(t, err)
	c := clock.NewFake(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	l := loop.New(eng, c)
	t.Cleanup(l.Close)
	return NewModel(l, cfg), c
}

func press(m Model, keys ...string) Model {
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "left":
			msg = tea.KeyMsg{Type: tea.KeyLeft}
		case "right":
			msg = tea.KeyMsg{Type: tea.KeyRight}
		case "up":
			msg = tea.KeyMsg{Type: tea.KeyUp}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func TestModel_CursorWraps(t *testing.T) {
	m, _ := newTestModel(t)
	// 6 cards in rows of 4: the second row holds indices 4 and 5

	m = press(m, "left")
	assert.Equal(t, 3, m.Cursor(), "left from the first card wraps within the row")

	m = press(m, "down")
	assert.Equal(t, 3, m.Cursor(), "no card below 3, wraps to the top row")

	m = press(m, "h", "h", "h", "j")
	assert.Equal(t, 4, m.Cursor())

	m = press(m, "l", "l")
	assert.Equal(t, 4, m.Cursor(), "short last row wraps to its first card")

	m = press(m, "k")
	assert.Equal(t, 0, m.Cursor())
}

func TestModel_FlipMatch(t *testing.T) {
	m, _ := newTestModel(t)

	m = press(m, "enter", "right", " ")
	assert.Equal(t, 1, m.board.Moves)
	assert.Equal(t, 1, m.board.MatchedPairs)
	assert.Equal(t, engine.Matched, m.board.Cards[0].State)
	assert.Contains(t, m.View(), "Pairs: 1/3")
}

func TestModel_IgnoredFlipShowsReason(t *testing.T) {
	m, _ := newTestModel(t)

	m = press(m, "enter", "enter")
	assert.Equal(t, "ignored: already_selected", m.status)
	assert.Contains(t, m.View(), "ignored: already_selected")

	m = press(m, "right", "enter")
	assert.Empty(t, m.status)
}

func TestModel_RefreshPicksUpDelayedRevert(t *testing.T) {
	m, c := newTestModel(t)

	m = press(m, "enter", "right", "right", "enter")
	require.Equal(t, engine.Flipped, m.board.Cards[0].State)

	c.Advance(time.Second)
	next, cmd := m.Update(refreshMsg(time.Now()))
	m = next.(Model)
	assert.NotNil(t, cmd, "refresh keeps ticking")
	assert.Equal(t, engine.Hidden, m.board.Cards[0].State)
	assert.Equal(t, 1, m.board.ElapsedSeconds)
}

func TestModel_CompletionAndReplay(t *testing.T) {
	m, c := newTestModel(t)

	for i := 0; i < 3; i++ {
		m.cursor = 2 * i
		m = press(m, "enter")
		m.cursor = 2*i + 1
		m = press(m, "enter")
	}
	c.Advance(500 * time.Millisecond)
	next, _ := m.Update(refreshMsg(time.Now()))
	m = next.(Model)

	require.True(t, m.board.Completed)
	view := m.View()
	assert.Contains(t, view, "Moves: 3")
	assert.Contains(t, view, "Play again?")

	m = press(m, "enter")
	assert.False(t, m.board.Completed)
	assert.Zero(t, m.board.Moves)
	assert.Equal(t, engine.Hidden, m.board.Cards[0].State)
}

func TestModel_Restart(t *testing.T) {
	m, _ := newTestModel(t)

	m = press(m, "enter", "right", "enter", "r")
	assert.Zero(t, m.board.Moves)
	assert.Zero(t, m.board.MatchedPairs)
}

func TestModel_ReplayBeforeCompletionIgnored(t *testing.T) {
	m, _ := newTestModel(t)
	m = press(m, "p")
	assert.Equal(t, "ignored: no_summary", m.status)
}

func TestModel_Quit(t *testing.T) {
	m, _ := newTestModel(t)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestModel_HiddenFacesMasked(t *testing.T) {
	m, _ := newTestModel(t)
	view := m.View()
	assert.NotContains(t, view, "A")
	assert.Contains(t, view, "[?]")
}
