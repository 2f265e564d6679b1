package engine

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestBoardView_MasksHiddenSymbols(t *testing.T) {
	engine := newTestEngine(t)
	engine.AttemptFlip(0)
	engine.AttemptFlip(1) // A A match
	engine.AttemptFlip(2) // B open

	view := engine.View()
	if len(view.Cards) != 8 {
		t.Fatalf("Expected 8 cells, got %d", len(view.Cards))
	}
	want := []string{"A", "A", "B", "?", "?", "?", "?", "?"}
	for i, c := range view.Cards {
		if c.Face != want[i] {
			t.Errorf("Cell %d: expected face %q, got %q", i, want[i], c.Face)
		}
	}

	data, err := json.Marshal(view)
	if err != nil {
		t.Fatal(err)
	}
	for _, hidden := range []string{`"C"`, `"D"`} {
		if strings.Contains(string(data), hidden) {
			t.Errorf("View leaked hidden symbol %s: %s", hidden, data)
		}
	}
	if view.Moves != 1 || view.MatchedPairs != 1 || view.TotalPairs != 4 || view.RemainingPairs() != 3 {
		t.Errorf("Unexpected counters: %+v", view)
	}
}

func TestBoardView_SummaryIsCopied(t *testing.T) {
	state := &GameState{Summary: &Summary{Moves: 3, ElapsedSeconds: 9}, Completed: true}
	view := NewBoardView(state, nil)
	state.Summary.Moves = 99
	if view.Summary == nil || view.Summary.Moves != 3 {
		t.Errorf("Expected copied summary, got %+v", view.Summary)
	}
	if view.Columns != DefaultColumns {
		t.Errorf("Expected default columns, got %d", view.Columns)
	}
}

func TestBoardView_Rows(t *testing.T) {
	config := createTestConfig()
	config.Columns = 3
	engine, err := NewEngine(config, adjacentDealer)
	if err != nil {
		t.Fatal(err)
	}
	rows := engine.View().Rows()
	if len(rows) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(rows))
	}
	if len(rows[0]) != 3 || len(rows[2]) != 2 {
		t.Errorf("Unexpected row lengths: %d %d", len(rows[0]), len(rows[2]))
	}
	if rows[1][0].Index != 3 {
		t.Errorf("Expected row 2 to start at index 3, got %d", rows[1][0].Index)
	}
}

func TestCountCards(t *testing.T) {
	cards := []Card{{State: Hidden}, {State: Matched}, {State: Matched}, {State: Flipped}}
	if CountCards(cards, Matched) != 2 || CountCards(cards, Hidden) != 1 {
		t.Error("Unexpected counts")
	}
}
