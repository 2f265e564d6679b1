package engine

// CardView is one board cell as a player sees it.
type CardView struct {
	Index int       `json:"index"`
	Face  string    `json:"face"`
	State CardState `json:"state"`
}

// BoardView is the display projection of a GameState. Symbols of hidden
// cards are replaced by the back face so they never leave the server.
type BoardView struct {
	Cards          []CardView    `json:"cards"`
	Columns        int           `json:"columns"`
	Moves          int           `json:"moves"`
	ElapsedSeconds int           `json:"elapsed_seconds"`
	MatchedPairs   int           `json:"matched_pairs"`
	TotalPairs     int           `json:"total_pairs"`
	Started        bool          `json:"started"`
	Pending        PendingAction `json:"pending,omitempty"`
	Completed      bool          `json:"completed"`
	Summary        *Summary      `json:"summary,omitempty"`
	Message        string        `json:"message"`
	ConfigName     string        `json:"config_name"`
	Generation     uint64        `json:"generation"`
}

// NewBoardView projects state for display using config's back face and layout.
func NewBoardView(state *GameState, config *GameConfig) BoardView {
	back := DefaultBackFace
	columns := DefaultColumns
	if config != nil {
		back = config.Back()
		columns = config.GridColumns()
	}

	cards := make([]CardView, len(state.Cards))
	for i, c := range state.Cards {
		face := back
		if c.State != Hidden {
			face = string(c.Symbol)
		}
		cards[i] = CardView{Index: c.Index, Face: face, State: c.State}
	}

	var summary *Summary
	if state.Summary != nil {
		s := *state.Summary
		summary = &s
	}

	return BoardView{
		Cards:          cards,
		Columns:        columns,
		Moves:          state.Moves,
		ElapsedSeconds: state.ElapsedSeconds,
		MatchedPairs:   state.MatchedPairs,
		TotalPairs:     state.TotalPairs,
		Started:        state.Started,
		Pending:        state.Pending,
		Completed:      state.Completed,
		Summary:        summary,
		Message:        state.Message,
		ConfigName:     state.ConfigName,
		Generation:     state.Generation,
	}
}

// Rows splits the cards into display rows.
func (v BoardView) Rows() [][]CardView {
	cols := v.Columns
	if cols <= 0 {
		cols = DefaultColumns
	}
	var rows [][]CardView
	for start := 0; start < len(v.Cards); start += cols {
		end := start + cols
		if end > len(v.Cards) {
			end = len(v.Cards)
		}
		rows = append(rows, v.Cards[start:end])
	}
	return rows
}

// RemainingPairs returns the number of pairs not yet matched.
func (v BoardView) RemainingPairs() int {
	return v.TotalPairs - v.MatchedPairs
}

// CountCards counts the cards of a state in the given face state.
func CountCards(cards []Card, state CardState) int {
	count := 0
	for _, c := range cards {
		if c.State == state {
			count++
		}
	}
	return count
}
