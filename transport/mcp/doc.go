// Package mcp exposes the memory match game to AI agents over the Model
// Context Protocol.
//
// The Client is a thin proxy: every tool call becomes a request against the
// REST API served by package api, so an MCP process and a browser can play
// the same session at the same time.
//
// MCP Tools:
//
//   - create_session, list_sessions, get_session, delete_session
//   - game_state: board grid with face-down cards shown as the back face
//   - flip: flip one card by index, with an optional intent note
//   - flip_pair: flip two cards in one call
//   - restart_game, replay
//   - flip_history: paginated flips, newest first
//   - summary, leaderboard
//   - list_configs, game_instructions
//
// Ignored flips are not tool errors. The result text names the reason
// (out_of_range, card_matched, already_selected, selection_full) so an agent
// can correct itself.
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	if err := client.ServeStdio(); err != nil {
//		log.Fatal(err)
//	}
package mcp
