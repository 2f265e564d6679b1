package engine

import (
	"fmt"
	"strings"
	"time"
)

// AttemptFlip turns the card at index face up. The flip is ignored when the
// index is out of range, the card is already matched, two cards are already
// selected, or the card is itself selected. The second card of a selection
// counts as a move and is resolved immediately.
func (e *GameEngine) AttemptFlip(index int) Outcome {
	gs := e.state
	if index < 0 || index >= len(gs.Cards) {
		return ignored(ReasonOutOfRange)
	}
	card := &gs.Cards[index]
	if card.State == Matched {
		return ignored(ReasonCardMatched)
	}
	if len(gs.Selection) >= MaxSelection {
		return ignored(ReasonSelectionFull)
	}
	if gs.isSelected(index) {
		return ignored(ReasonAlreadySelected)
	}

	out := Outcome{Accepted: true}
	if !gs.Started {
		gs.Started = true
		gs.TimerToken++
		gs.TimerRunning = true
		out.do(StartTimer{Token: gs.TimerToken})
		out.emit(EventTimerStarted, "")
	}

	card.State = Flipped
	gs.Selection = append(gs.Selection, index)
	out.emit(EventCardFlipped, "", index)

	result := FlipOpened
	if len(gs.Selection) == MaxSelection {
		gs.Moves++
		result = e.resolveMatch(&out)
	}

	gs.addFlipToHistory(index, card.Symbol, result)
	return out
}

// resolveMatch compares the two selected cards. A match is final; a mismatch
// is turned back over by a deferred MismatchExpired, and the full selection
// blocks further flips until then.
func (e *GameEngine) resolveMatch(out *Outcome) FlipResult {
	gs := e.state
	a, b := gs.Selection[0], gs.Selection[1]

	if gs.Cards[a].Symbol == gs.Cards[b].Symbol {
		gs.Cards[a].State = Matched
		gs.Cards[b].State = Matched
		gs.Selection = []int{}
		gs.MatchedPairs++
		gs.Message = e.config.Messages.Match
		out.emit(EventPairMatched, gs.Message, a, b)

		if gs.MatchedPairs == gs.TotalPairs {
			gs.Pending = PendingCompletion
			out.do(Schedule{Delay: e.config.CompletionDelay(), Event: CompletionDue{Generation: gs.Generation}})
		}
		return FlipMatch
	}

	gs.Pending = PendingMismatch
	gs.Message = e.config.Messages.Mismatch
	out.emit(EventPairMismatched, gs.Message, a, b)
	out.do(Schedule{Delay: e.config.MismatchDelay(), Event: MismatchExpired{Generation: gs.Generation}})
	return FlipMismatch
}

func (e *GameEngine) tick(token uint64) Outcome {
	gs := e.state
	if !gs.TimerRunning {
		return ignored(ReasonTimerStopped)
	}
	if token != gs.TimerToken {
		return ignored(ReasonStale)
	}
	gs.ElapsedSeconds++
	out := Outcome{Accepted: true}
	out.emit(EventTimerTicked, "")
	return out
}

func (e *GameEngine) expireMismatch(generation uint64) Outcome {
	gs := e.state
	if generation != gs.Generation || gs.Pending != PendingMismatch {
		return ignored(ReasonStale)
	}
	hidden := make([]int, 0, len(gs.Selection))
	for _, idx := range gs.Selection {
		gs.Cards[idx].State = Hidden
		hidden = append(hidden, idx)
	}
	gs.Selection = []int{}
	gs.Pending = PendingNone

	out := Outcome{Accepted: true}
	out.emit(EventCardsHidden, "", hidden...)
	return out
}

func (e *GameEngine) complete(generation uint64) Outcome {
	gs := e.state
	if generation != gs.Generation || gs.Pending != PendingCompletion {
		return ignored(ReasonStale)
	}
	gs.Pending = PendingNone
	gs.TimerRunning = false
	gs.Completed = true
	gs.Summary = &Summary{Moves: gs.Moves, ElapsedSeconds: gs.ElapsedSeconds}
	gs.Message = FormatVictory(e.config.Messages.Victory, gs.Moves, gs.ElapsedSeconds)

	out := Outcome{Accepted: true}
	out.do(StopTimer{})
	out.emit(EventTimerStopped, "")
	out.emit(EventGameCompleted, gs.Message)
	return out
}

// FormatVictory fills a victory template. The first %d receives moves and the
// second, if present, receives seconds.
func FormatVictory(template string, moves, seconds int) string {
	switch strings.Count(template, "%d") {
	case 0:
		return template
	case 1:
		return fmt.Sprintf(template, moves)
	default:
		return fmt.Sprintf(template, moves, seconds)
	}
}

func (gs *GameState) isSelected(index int) bool {
	for _, idx := range gs.Selection {
		if idx == index {
			return true
		}
	}
	return false
}

// addFlipToHistory adds an accepted flip to the cumulative history
func (gs *GameState) addFlipToHistory(index int, symbol Symbol, result FlipResult) {
	entry := FlipHistoryEntry{
		FlipNumber: gs.TotalFlips + 1,
		Generation: gs.Generation,
		Index:      index,
		Symbol:     symbol,
		Result:     result,
		Moves:      gs.Moves,
		Timestamp:  time.Now().Unix(),
	}
	gs.FlipHistory = append(gs.FlipHistory, entry)
	gs.TotalFlips++
}
