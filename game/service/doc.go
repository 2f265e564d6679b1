// Package service provides the business logic layer for the memory match game.
//
// The service package implements:
//   - Multi-session game management
//   - Configuration management and loading
//   - Flip, restart and replay processing
//   - Flip history pagination
//   - Result recording and the leaderboard
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// ConfigManager manages game configuration loading and validation.
// Notifier receives every state change so displays can redraw.
//
// Architecture:
//
// The service layer sits between the transports (HTTP, WebSocket, MCP and the
// terminal UI) and the game loop. Each session owns one loop.Loop, which
// serializes flips, timer ticks and deferred reverts for that board, so the
// service itself holds no lock around game operations.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	configMgr, _ := config.NewManager("configs")
//	gameService := service.NewGameService(sessionMgr, configMgr,
//		service.WithReporter(report.New(store)))
//
//	info, err := gameService.CreateSession(ctx, "easy")
//	if err != nil {
//		log.Fatal(err)
//	}
//	result, err := gameService.Flip(ctx, info.ID, 0)
//
// Session Management:
//
// Sessions are identified by 4-character IDs and keep independent boards.
// Multiple sessions can run concurrently with different configurations.
package service
