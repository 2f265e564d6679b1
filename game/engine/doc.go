// Package engine provides the core game logic for the memory match game.
//
// The engine package implements the board state machine:
//   - Dealing a shuffled board of paired symbols
//   - Flipping cards and resolving pairs
//   - Counting moves and elapsed seconds
//   - Producing the end-of-game summary and replaying
//
// Core Types:
//
// The Engine interface defines the main contract for game operations,
// implemented by GameEngine. GameState is the full board state, GameConfig the
// symbol set, delays and messages loaded from JSON files, and BoardView the
// projection shown to players with hidden symbols masked.
//
// Events and Effects:
//
// Every input is an Event handled by Handle. The engine never blocks and never
// starts timers itself; instead an Outcome lists the Effects the caller must
// carry out (start or stop the ticker, schedule a deferred event). Deferred
// events carry the board Generation they were scheduled for and are ignored
// once the board has been re-dealt.
//
// Usage:
//
//	shuffler, err := deck.NewRandomShuffler()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameEngine, err := engine.NewEngine(engine.DefaultConfig(), shuffler)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	out := gameEngine.Handle(engine.FlipRequested{Index: 3})
//	for _, effect := range out.Effects {
//		// start timers, schedule callbacks
//	}
//	view := gameEngine.View()
//
// Game Rules:
//
// At most two cards are face up at once. Two equal symbols stay matched; two
// different symbols turn back over after the mismatch delay. Each completed
// pair of flips is one move. The game ends when every pair is matched, and the
// summary appears after the completion delay.
package engine
