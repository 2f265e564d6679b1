// Command validate checks the game configuration JSON files in a directory
// (../configs by default). For each file it checks:
//   - JSON structure and required fields
//   - The symbol set: 2 to 32 distinct, non-empty symbols unlike the back face
//   - Non-negative delays and a victory message with %d verbs only
//   - Playability: a scripted game on the configured board reaches the summary
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wricardo/mcp-training/memorymatch/game/deck"
	"github.com/wricardo/mcp-training/memorymatch/game/engine"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

func (r *ValidationResult) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// validateConfig loads and validates a single configuration JSON file.
func validateConfig(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	var config engine.GameConfig
	if err := json.Unmarshal(data, &config); err != nil {
		result.fail("Invalid JSON: %v", err)
		return result
	}

	if err := engine.ValidateGameConfig(&config); err != nil {
		result.fail("%s", strings.TrimPrefix(err.Error(), "config validation: "))
		return result
	}

	// Optional messages fall back to nothing, which leaves players without feedback
	for name, msg := range map[string]string{
		"match":    config.Messages.Match,
		"mismatch": config.Messages.Mismatch,
		"restart":  config.Messages.Restart,
	} {
		if msg == "" {
			result.fail("Missing message: %s", name)
		}
	}
	if !result.Valid {
		return result
	}

	playResult := validatePlayable(&config)
	if !playResult.Valid {
		result.Valid = false
	}
	result.Errors = append(result.Errors, playResult.Errors...)

	// Add informational data
	if result.Valid {
		cards := 2 * config.Pairs()
		cols := config.GridColumns()
		rows := (cards + cols - 1) / cols
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Name: %s", config.Name))
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Board: %d cards in %dx%d", cards, rows, cols))
		if cards%cols != 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("✓ Last row holds %d cards", cards%cols))
		}
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Delays: mismatch %s, summary %s, tick %s",
			config.MismatchDelay(), config.CompletionDelay(), config.TickInterval()))
	}

	return result
}

// validatePlayable deals the board in pair order and plays it with perfect
// recall. The engine must accept every flip and end on a summary whose move
// count equals the number of pairs.
func validatePlayable(config *engine.GameConfig) ValidationResult {
	result := ValidationResult{
		Valid:  true,
		Errors: []string{},
	}

	adjacent := deck.DealerFunc(func(symbols []deck.Symbol) []deck.Symbol {
		out := make([]deck.Symbol, 0, 2*len(symbols))
		for _, s := range symbols {
			out = append(out, s, s)
		}
		return out
	})

	eng, err := engine.NewEngine(config, adjacent)
	if err != nil {
		result.fail("Cannot deal board: %v", err)
		return result
	}

	for i := 0; i < 2*config.Pairs(); i++ {
		if out := eng.Handle(engine.FlipRequested{Index: i}); !out.Accepted {
			result.fail("Flip %d rejected: %s", i, out.Reason)
			return result
		}
	}

	state := eng.GetState()
	if state.Pending != engine.PendingCompletion {
		result.fail("Board not complete after every pair was found")
		return result
	}
	if out := eng.Handle(engine.CompletionDue{Generation: state.Generation}); !out.Accepted {
		result.fail("Summary rejected: %s", out.Reason)
		return result
	}

	summary := eng.GetState().Summary
	if summary == nil || summary.Moves != config.Pairs() {
		result.fail("Unexpected summary: %+v", summary)
		return result
	}

	result.Errors = append(result.Errors, fmt.Sprintf("✓ Playable: perfect game takes %d moves", summary.Moves))
	result.Errors = append(result.Errors, fmt.Sprintf("✓ Victory: %s", engine.FormatVictory(config.Messages.Victory, summary.Moves, 0)))
	return result
}

// main validates every *.json file in the directory given as the first
// argument, printing a concise report and exiting with non-zero status if any
// are invalid.
func main() {
	configDir := "../configs"
	if len(os.Args) > 1 {
		configDir = os.Args[1]
	}
	files, err := filepath.Glob(filepath.Join(configDir, "*.json"))
	if err != nil {
		fmt.Printf("Error finding config files: %v\n", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Printf("No config files found in %s\n", configDir)
		os.Exit(1)
	}

	allValid := true
	for _, file := range files {
		result := validateConfig(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Errors {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Println("  ❌ " + err)
				}
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All configurations are valid!")
	} else {
		fmt.Println("❌ Some configurations have errors")
		os.Exit(1)
	}
}
