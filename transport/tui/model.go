// Package tui is an interactive terminal client for a single local board.
//
// The model polls the game for its view on a short interval, so timer ticks
// and delayed reverts show up without the game pushing anything.
//
// Keys: arrows or hjkl move the cursor, enter or space flips, r deals a new
// board, p plays again after the summary, q quits.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/wricardo/mcp-training/memorymatch/game/engine"
	"github.com/wricardo/mcp-training/memorymatch/game/report"
)

// RefreshInterval is how often the board is re-read.
const RefreshInterval = 100 * time.Millisecond

// Game is the board the terminal drives. *loop.Loop satisfies it.
type Game interface {
	Flip(index int) engine.Outcome
	Restart() engine.Outcome
	Replay() engine.Outcome
	View() engine.BoardView
}

type refreshMsg time.Time

// Model is the bubbletea model of one board.
type Model struct {
	game     Game
	config   *engine.GameConfig
	board    engine.BoardView
	cursor   int
	status   string
	interval time.Duration
}

// NewModel creates a Model over game. config supplies the summary text and
// may be nil.
func NewModel(game Game, config *engine.GameConfig) Model {
	return Model{
		game:     game,
		config:   config,
		board:    game.View(),
		interval: RefreshInterval,
	}
}

func (m Model) refresh() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return refreshMsg(t) })
}

// Init starts the refresh ticker.
func (m Model) Init() tea.Cmd {
	return m.refresh()
}

// Update handles key presses and refresh ticks.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case refreshMsg:
		m.board = m.game.View()
		return m, m.refresh()

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "left", "h":
			m.move(0, -1)
		case "right", "l":
			m.move(0, 1)
		case "up", "k":
			m.move(-1, 0)
		case "down", "j":
			m.move(1, 0)
		case "enter", " ":
			if m.board.Completed {
				m.apply(m.game.Replay())
			} else {
				m.apply(m.game.Flip(m.cursor))
			}
		case "r":
			m.apply(m.game.Restart())
		case "p":
			m.apply(m.game.Replay())
		}
		m.board = m.game.View()
	}
	return m, nil
}

func (m *Model) apply(out engine.Outcome) {
	if out.Accepted {
		m.status = ""
		return
	}
	m.status = "ignored: " + string(out.Reason)
}

func (m *Model) move(dRow, dCol int) {
	cols := m.board.Columns
	if cols <= 0 {
		cols = engine.DefaultColumns
	}
	n := len(m.board.Cards)
	if n == 0 {
		return
	}
	row, col := m.cursor/cols, m.cursor%cols
	rows := (n + cols - 1) / cols

	row = (row + dRow + rows) % rows
	col = (col + dCol + cols) % cols
	next := row*cols + col
	if next >= n {
		// short last row
		if dRow != 0 {
			next = col
		} else {
			next = row * cols
		}
	}
	m.cursor = next
}

// Cursor returns the index of the selected card.
func (m Model) Cursor() int { return m.cursor }

// View renders the board.
func (m Model) View() string {
	var b strings.Builder
	name := m.board.ConfigName
	if name == "" {
		name = "Memory Match"
	}
	fmt.Fprintf(&b, "%s\n\n", name)

	for _, row := range m.board.Rows() {
		for _, card := range row {
			left, right := " ", " "
			if card.Index == m.cursor {
				left, right = "[", "]"
			}
			fmt.Fprintf(&b, "%s%s%s ", left, card.Face, right)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "\nMoves: %d  Time: %ds  Pairs: %d/%d\n",
		m.board.Moves, m.board.ElapsedSeconds, m.board.MatchedPairs, m.board.TotalPairs)

	if m.board.Completed && m.board.Summary != nil {
		b.WriteString("\n")
		for _, line := range report.Lines(m.config, *m.board.Summary) {
			b.WriteString(line + "\n")
		}
		b.WriteString("(enter or p to play again)\n")
	} else if m.board.Message != "" {
		fmt.Fprintf(&b, "%s\n", m.board.Message)
	}

	if m.status != "" {
		fmt.Fprintf(&b, "%s\n", m.status)
	}
	b.WriteString("\narrows/hjkl move • enter flip • r restart • q quit\n")
	return b.String()
}

// Run plays game in the terminal until the user quits or ctx ends.
func Run(ctx context.Context, game Game, config *engine.GameConfig, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithContext(ctx), tea.WithAltScreen()}, opts...)
	_, err := tea.NewProgram(NewModel(game, config), opts...).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
