// Package config provides configuration management for the memory match game.
//
// The config package handles:
//   - Loading game configurations from JSON files
//   - Configuration validation
//   - Default configuration management
//   - Configuration discovery and listing
//
// Configuration Format:
//
// Game configurations are stored as JSON files in the configs directory.
// The file name without extension is the config ID used to create sessions.
// Each configuration defines:
//   - The symbol set (each symbol is dealt twice)
//   - The back face shown for hidden cards and the display column count
//   - Mismatch, completion and tick timings in milliseconds
//   - Player-facing messages, including the victory template
//
// Available Configurations:
//   - classic: eight fruit pairs on a 4x4 board
//   - easy: four pairs
//   - hard: fifteen pairs on a 6x5 board
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameConfig, err := manager.LoadConfig("easy")
//	defaultConfig := manager.GetDefault()
//	configs, err := manager.ListConfigs()
//
// When no classic.json exists the first valid file becomes the default, and
// with no valid file at all the built-in engine.DefaultConfig is used.
package config
