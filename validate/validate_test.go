package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wricardo/mcp-training/memorymatch/game/deck"
	"github.com/wricardo/mcp-training/memorymatch/game/engine"
)

const validConfig = `{
	"name": "Test Config",
	"description": "Test configuration",
	"symbols": ["A", "B", "C", "D", "E"],
	"columns": 4,
	"messages": {
		"welcome": "Welcome!",
		"match": "Match!",
		"mismatch": "No match.",
		"victory": "Won in %d moves and %d seconds",
		"restart": "Again!"
	}
}`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test_config.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func hasMessage(result ValidationResult, substr string) bool {
	for _, e := range result.Errors {
		if strings.Contains(e, substr) {
			return true
		}
	}
	return false
}

func TestValidateConfig_ValidConfig(t *testing.T) {
	path := writeConfig(t, validConfig)

	result := validateConfig(path)
	if !result.Valid {
		t.Fatalf("Expected valid config, but got errors: %v", result.Errors)
	}
	if result.File != "test_config.json" {
		t.Errorf("Expected file name test_config.json, got %s", result.File)
	}

	for _, want := range []string{
		"✓ Name: Test Config",
		"✓ Board: 10 cards in 3x4",
		"✓ Last row holds 2 cards",
		"✓ Playable: perfect game takes 5 moves",
		"✓ Victory: Won in 5 moves and 0 seconds",
		"✓ Delays: mismatch 1s, summary 500ms, tick 1s",
	} {
		if !hasMessage(result, want) {
			t.Errorf("Missing %q in %v", want, result.Errors)
		}
	}
}

func TestValidateConfig_MissingFile(t *testing.T) {
	result := validateConfig("/non/existent/file.json")
	if result.Valid {
		t.Error("Expected invalid result for missing file")
	}
	if !hasMessage(result, "Failed to read file") {
		t.Errorf("Expected read error, got %v", result.Errors)
	}
}

func TestValidateConfig_InvalidJSON(t *testing.T) {
	result := validateConfig(writeConfig(t, `{"name": "test", invalid json}`))
	if result.Valid {
		t.Error("Expected invalid result for malformed JSON")
	}
	if !hasMessage(result, "Invalid JSON") {
		t.Errorf("Expected JSON error, got %v", result.Errors)
	}
}

func TestValidateConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		replace [2]string
		want    string
	}{
		{"too few symbols", [2]string{`["A", "B", "C", "D", "E"]`, `["A"]`}, "between 2 and 32"},
		{"duplicate symbol", [2]string{`"D", "E"`, `"D", "A"`}, `symbol "A" appears at positions 1 and 5`},
		{"empty symbol", [2]string{`"E"]`, `" "]`}, "symbol 5 is empty"},
		{"back face collides", [2]string{`"E"]`, `"?"]`}, "back_face"},
		{"negative columns", [2]string{`"columns": 4`, `"columns": -1`}, "columns must not be negative"},
		{"victory without verb", [2]string{`"Won in %d moves and %d seconds"`, `"Won!"`}, "must contain %d"},
		{"victory with other verbs", [2]string{`"Won in %d moves and %d seconds"`, `"Won in %d moves, %s"`}, "only use %d"},
		{"missing name", [2]string{`"name": "Test Config"`, `"name": ""`}, "name is required"},
		{"missing match message", [2]string{`"match": "Match!"`, `"match": ""`}, "Missing message: match"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content := strings.Replace(validConfig, tt.replace[0], tt.replace[1], 1)
			if content == validConfig {
				t.Fatalf("replacement %q did not apply", tt.replace[0])
			}

			result := validateConfig(writeConfig(t, content))
			if result.Valid {
				t.Fatal("Expected invalid config")
			}
			if !hasMessage(result, tt.want) {
				t.Errorf("Expected error containing %q, got %v", tt.want, result.Errors)
			}
		})
	}
}

func TestValidatePlayable(t *testing.T) {
	cfg := engine.DefaultConfig()
	cfg.Symbols = []deck.Symbol{"x", "y", "z"}

	result := validatePlayable(cfg)
	if !result.Valid {
		t.Fatalf("Expected playable board, got %v", result.Errors)
	}
	if !hasMessage(result, "perfect game takes 3 moves") {
		t.Errorf("Unexpected messages: %v", result.Errors)
	}
}

func TestValidatePlayable_InvalidConfig(t *testing.T) {
	cfg := engine.DefaultConfig()
	cfg.Symbols = nil

	result := validatePlayable(cfg)
	if result.Valid {
		t.Error("Expected board that cannot be dealt to be invalid")
	}
	if !hasMessage(result, "Cannot deal board") {
		t.Errorf("Unexpected messages: %v", result.Errors)
	}
}

func TestShippedConfigs(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("..", "configs", "*.json"))
	if err != nil {
		t.Fatalf("glob failed: %v", err)
	}
	if len(files) == 0 {
		t.Skip("Skipping test - configs directory not found")
	}

	for _, file := range files {
		t.Run(filepath.Base(file), func(t *testing.T) {
			if result := validateConfig(file); !result.Valid {
				t.Errorf("shipped config is invalid: %v", result.Errors)
			}
		})
	}
}
