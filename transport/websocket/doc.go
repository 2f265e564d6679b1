// Package websocket provides WebSocket transport for the memory match game.
//
// The websocket package implements:
//   - Session-aware WebSocket connections
//   - Automatic state broadcasting on every board change
//   - Client actions (flip, restart, replay)
//   - Connection lifecycle management
//
// Architecture:
//
// The package uses a hub-and-spoke model where a central Hub manages all
// WebSocket connections. Each client connection is handled by a reader and a
// writer goroutine. The Hub implements service.Notifier, so flips, timer ticks
// and deferred reverts reach every display subscribed to the session.
//
// Message Protocol:
//
// Messages are JSON-encoded with the following structure:
//   - Incoming: {"action": "flip", "index": 3}, {"action": "restart"}, {"action": "replay"}
//   - Outgoing: {"session_id": "ab12", "event": "state_update", "trigger": "tick", "game_state": {...}}
//
// Hidden cards are always sent with the back face, never their symbol.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run(ctx)
//	gameService := service.NewGameService(sessions, configs, service.WithNotifier(hub))
//
// Connection Lifecycle:
//
// 1. Client connects with ?session=<id>
// 2. Connection registered with hub
// 3. Initial board sent to client
// 4. Client sends actions, receives state updates
// 5. Disconnection triggers cleanup
package websocket
