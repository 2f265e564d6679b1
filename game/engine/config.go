package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/wricardo/mcp-training/memorymatch/game/deck"
)

// ValidateGameConfig validates a game configuration for correctness and playability
func ValidateGameConfig(config *GameConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is nil")
	}

	// Validate required fields
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}
	if config.Description == "" {
		return fmt.Errorf("config validation: description is required")
	}

	// Validate symbols
	if len(config.Symbols) < MinSymbols || len(config.Symbols) > MaxSymbols {
		return fmt.Errorf("config validation: symbols must have between %d and %d entries, got %d",
			MinSymbols, MaxSymbols, len(config.Symbols))
	}
	seen := make(map[deck.Symbol]int, len(config.Symbols))
	for i, s := range config.Symbols {
		if strings.TrimSpace(string(s)) == "" {
			return fmt.Errorf("config validation: symbol %d is empty", i+1)
		}
		if prev, ok := seen[s]; ok {
			return fmt.Errorf("config validation: symbol %q appears at positions %d and %d", s, prev+1, i+1)
		}
		seen[s] = i
	}
	if _, ok := seen[deck.Symbol(config.Back())]; ok {
		return fmt.Errorf("config validation: back_face %q must differ from every symbol", config.Back())
	}

	// Validate layout and timing
	if config.Columns < 0 {
		return fmt.Errorf("config validation: columns must not be negative, got %d", config.Columns)
	}
	if config.MismatchDelayMS < 0 {
		return fmt.Errorf("config validation: mismatch_delay_ms must not be negative, got %d", config.MismatchDelayMS)
	}
	if config.CompletionDelayMS < 0 {
		return fmt.Errorf("config validation: completion_delay_ms must not be negative, got %d", config.CompletionDelayMS)
	}
	// every tick adds one to elapsed seconds
	if config.TickIntervalMS != 0 && config.TickIntervalMS != int(DefaultTickInterval/time.Millisecond) {
		return fmt.Errorf("config validation: tick_interval_ms must be 0 or %d, got %d",
			int(DefaultTickInterval/time.Millisecond), config.TickIntervalMS)
	}

	// Validate messages
	if config.Messages.Welcome == "" {
		return fmt.Errorf("config validation: messages.welcome is required")
	}
	if config.Messages.Victory == "" {
		return fmt.Errorf("config validation: messages.victory is required")
	}
	if !strings.Contains(config.Messages.Victory, "%d") {
		return fmt.Errorf("config validation: messages.victory must contain %%d for the move count")
	}
	if n := strings.Count(config.Messages.Victory, "%"); n != strings.Count(config.Messages.Victory, "%d") {
		return fmt.Errorf("config validation: messages.victory may only use %%d verbs")
	}

	return nil
}

// Back returns the marker shown for hidden cards.
func (c *GameConfig) Back() string {
	if c.BackFace == "" {
		return DefaultBackFace
	}
	return c.BackFace
}

// GridColumns returns the number of cards per display row.
func (c *GameConfig) GridColumns() int {
	if c.Columns <= 0 {
		return DefaultColumns
	}
	return c.Columns
}

// MismatchDelay is how long an unmatched pair stays face up.
func (c *GameConfig) MismatchDelay() time.Duration {
	return millisOr(c.MismatchDelayMS, DefaultMismatchDelay)
}

// CompletionDelay is the pause between the last match and the summary.
func (c *GameConfig) CompletionDelay() time.Duration {
	return millisOr(c.CompletionDelayMS, DefaultCompletionDelay)
}

// TickInterval is the period of the elapsed-time counter.
func (c *GameConfig) TickInterval() time.Duration {
	return millisOr(c.TickIntervalMS, DefaultTickInterval)
}

func millisOr(ms int, fallback time.Duration) time.Duration {
	if ms <= 0 {
		return fallback
	}
	return time.Duration(ms) * time.Millisecond
}

// Pairs returns the number of symbol pairs on a board.
func (c *GameConfig) Pairs() int {
	return len(c.Symbols)
}

// LoadGameConfig loads a game configuration from a JSON file
func LoadGameConfig(filename string) (*GameConfig, error) {
	// Support CONFIG_DIR environment variable for alternative config directory
	configPath := filename
	if configDir := os.Getenv("CONFIG_DIR"); configDir != "" {
		if strings.HasPrefix(filename, "configs/") {
			configPath = filepath.Join(configDir, strings.TrimPrefix(filename, "configs/"))
		}
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	var config GameConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	if err := ValidateGameConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// DefaultConfig returns the classic eight-fruit configuration.
func DefaultConfig() *GameConfig {
	return &GameConfig{
		Name:              "classic",
		Description:       "Eight fruit pairs on a 4x4 board",
		Symbols:           deck.DefaultSymbols(),
		BackFace:          DefaultBackFace,
		Columns:           DefaultColumns,
		MismatchDelayMS:   int(DefaultMismatchDelay / time.Millisecond),
		CompletionDelayMS: int(DefaultCompletionDelay / time.Millisecond),
		TickIntervalMS:    int(DefaultTickInterval / time.Millisecond),
		Messages: Messages{
			Welcome:  "Find all the matching pairs!",
			Match:    "It's a match!",
			Mismatch: "Not a match.",
			Victory:  "Congratulations! You won in %d moves and %d seconds.",
			Restart:  "New board dealt.",
		},
	}
}

// InitGameStateFromConfig creates a fresh board state from the dealt cards.
// A nil config uses DefaultConfig.
func InitGameStateFromConfig(config *GameConfig, faces []deck.Symbol) *GameState {
	if config == nil {
		config = DefaultConfig()
	}

	cards := make([]Card, len(faces))
	for i, s := range faces {
		cards[i] = Card{Index: i, Symbol: s, State: Hidden}
	}

	return &GameState{
		Cards:       cards,
		Selection:   []int{},
		TotalPairs:  len(faces) / 2,
		Message:     config.Messages.Welcome,
		ConfigName:  config.Name,
		FlipHistory: []FlipHistoryEntry{},
	}
}
