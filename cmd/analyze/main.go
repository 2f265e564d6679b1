// Command analyze plays many simulated games per configuration and prints
// move statistics for two strategies: a player with perfect memory and one
// who flips at random. The engine runs without a clock; every scheduled
// transition is applied as soon as it is emitted.
package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/mcp-training/memorymatch/game/config"
	"github.com/wricardo/mcp-training/memorymatch/game/deck"
	"github.com/wricardo/mcp-training/memorymatch/game/engine"
	"github.com/wricardo/mcp-training/memorymatch/game/strategy"
)

// maxFlipsPerPair bounds a single simulated game.
const maxFlipsPerPair = 1000

// Stats summarizes the move counts of many games.
type Stats struct {
	Games  int
	Min    int
	Max    int
	Median float64
	Mean   float64
	StdDev float64
}

func newStats(moves []int) Stats {
	if len(moves) == 0 {
		return Stats{}
	}
	sorted := append([]int(nil), moves...)
	sort.Ints(sorted)

	sum := 0
	for _, m := range sorted {
		sum += m
	}
	mean := float64(sum) / float64(len(sorted))

	variance := 0.0
	for _, m := range sorted {
		d := float64(m) - mean
		variance += d * d
	}
	variance /= float64(len(sorted))

	mid := len(sorted) / 2
	median := float64(sorted[mid])
	if len(sorted)%2 == 0 {
		median = float64(sorted[mid-1]+sorted[mid]) / 2
	}

	return Stats{
		Games:  len(sorted),
		Min:    sorted[0],
		Max:    sorted[len(sorted)-1],
		Median: median,
		Mean:   mean,
		StdDev: math.Sqrt(variance),
	}
}

// playGame plays one board to its summary and returns the move count.
func playGame(cfg *engine.GameConfig, dealer deck.Dealer, player strategy.Strategy) (int, error) {
	eng, err := engine.NewEngine(cfg, dealer)
	if err != nil {
		return 0, err
	}

	view := eng.View()
	player.Reset(len(view.Cards))

	limit := maxFlipsPerPair * cfg.Pairs()
	for flips := 0; !view.Completed; flips++ {
		if flips >= limit {
			return 0, fmt.Errorf("%s did not finish within %d flips", player.Name(), limit)
		}

		index := player.Next(view)
		out := eng.Handle(engine.FlipRequested{Index: index})
		if !out.Accepted {
			return 0, fmt.Errorf("%s flipped card %d: %s", player.Name(), index, out.Reason)
		}
		player.Observe(index, eng.View().Cards[index].Face)

		if err := drain(eng, out.Effects); err != nil {
			return 0, err
		}
		view = eng.View()
	}

	return view.Summary.Moves, nil
}

// drain applies scheduled events immediately, including any they schedule.
func drain(eng engine.Engine, effects []engine.Effect) error {
	for len(effects) > 0 {
		effect := effects[0]
		effects = effects[1:]

		s, ok := effect.(engine.Schedule)
		if !ok {
			continue
		}
		out := eng.Handle(s.Event)
		if !out.Accepted {
			return fmt.Errorf("scheduled %s rejected: %s", s.Event.Kind(), out.Reason)
		}
		effects = append(effects, out.Effects...)
	}
	return nil
}

// simulate plays games boards with player, shuffling from seed.
func simulate(cfg *engine.GameConfig, player strategy.Strategy, games int, seed int64) (Stats, error) {
	dealer := deck.NewShuffler(deck.NewSource(seed))
	moves := make([]int, 0, games)
	for i := 0; i < games; i++ {
		m, err := playGame(cfg, dealer, player)
		if err != nil {
			return Stats{}, err
		}
		moves = append(moves, m)
	}
	return newStats(moves), nil
}

func analyzeConfig(cfg *engine.GameConfig, games int, seed int64) error {
	fmt.Printf("Name: %s\n", cfg.Name)
	fmt.Printf("Pairs: %d (%d cards, %d columns)\n", cfg.Pairs(), 2*cfg.Pairs(), cfg.GridColumns())
	fmt.Printf("Lower bound: %d moves\n", cfg.Pairs())

	strategies := []strategy.Strategy{
		strategy.NewPerfectMemory(deck.NewSource(seed + 1)),
		strategy.NewRandom(deck.NewSource(seed + 2)),
	}
	for _, s := range strategies {
		stats, err := simulate(cfg, s, games, seed)
		if err != nil {
			return err
		}
		fmt.Printf("%-15s mean %6.2f  median %6.1f  sd %5.2f  min %3d  max %4d  (%d games)\n",
			s.Name(), stats.Mean, stats.Median, stats.StdDev, stats.Min, stats.Max, stats.Games)
	}
	return nil
}

func run(ctx context.Context, cmd *cli.Command) error {
	manager, err := config.NewManager(cmd.String("config-dir"))
	if err != nil {
		return err
	}

	ids := cmd.Args().Slice()
	if len(ids) == 0 {
		infos, err := manager.ListConfigs()
		if err != nil {
			return err
		}
		for _, info := range infos {
			ids = append(ids, info.ConfigID)
		}
	}

	for _, id := range ids {
		cfg, err := manager.LoadConfig(id)
		if err != nil {
			return err
		}
		fmt.Printf("\n=== Analyzing %s ===\n", filepath.Base(id))
		if err := analyzeConfig(cfg, cmd.Int("games"), cmd.Int64("seed")); err != nil {
			return err
		}
	}
	return nil
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Usage:     "simulate games and report move statistics per config",
		ArgsUsage: "[config-id...]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config-dir", Value: "configs", Usage: "directory containing game configurations", Sources: cli.EnvVars("CONFIG_DIR")},
			&cli.IntFlag{Name: "games", Value: 1000, Usage: "games per strategy"},
			&cli.Int64Flag{Name: "seed", Value: 1, Usage: "shuffle seed"},
		},
		Action: run,
	}
}

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "analyze: %v\n", err)
		os.Exit(1)
	}
}
