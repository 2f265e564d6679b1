// Package api provides HTTP REST API handlers for the memory match game.
//
// The api package implements:
//   - Session management endpoints
//   - Flip, restart and replay endpoints
//   - End-of-game summary and leaderboard endpoints
//   - Configuration listing and creation
//   - WebSocket upgrade handling
//
// Endpoints:
//
// Session Management:
//   - POST /api/sessions - Create new session ({"config_id": "easy"})
//   - GET /api/sessions - List sessions (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET /api/sessions/{id} - Get specific session
//   - DELETE /api/sessions/{id} - Delete session
//
// Game Operations:
//   - GET /api/sessions/{id}/state - Current board; hidden cards show the back face
//   - POST /api/sessions/{id}/flip - Flip a card ({"index": 3})
//   - POST /api/sessions/{id}/restart - Deal a new board at any point
//   - POST /api/sessions/{id}/replay - Dismiss the summary and deal a new board
//   - GET /api/sessions/{id}/summary - End-of-game summary (409 until completed)
//   - GET /api/sessions/{id}/history - Flip history (?page=1&limit=20&order=desc)
//
// Results and Configuration:
//   - GET /api/leaderboard - Best results (?config=Classic&limit=10)
//   - GET /api/configs - List available configurations
//   - GET /api/configs/{name} - Get a configuration
//   - POST /api/configs - Save a configuration
//
// Flips that the board ignores are not errors. They return 200 with
// "accepted": false and a reason such as "selection_full" or "out_of_range".
//
// Error Handling:
//
// Errors are returned as JSON with appropriate HTTP status codes:
//
//	{
//	  "error": "error message",
//	  "code": 404
//	}
package api
