// Command autoplay plays memory match sessions on a running server through
// the REST API. It creates a session (or resumes the one saved in
// .session), then plays boards with a perfect-memory or random strategy and
// logs each summary.
package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/wricardo/mcp-training/memorymatch/game/deck"
	"github.com/wricardo/mcp-training/memorymatch/game/strategy"
)

const sessionFile = ".session"

func newStrategy(name string) (strategy.Strategy, error) {
	seed, err := deck.NewSeed()
	if err != nil {
		return nil, err
	}
	switch name {
	case "perfect", "perfect-memory":
		return strategy.NewPerfectMemory(deck.NewSource(seed)), nil
	case "random":
		return strategy.NewRandom(deck.NewSource(seed)), nil
	}
	return nil, fmt.Errorf("unknown strategy %q (perfect or random)", name)
}

// openSession resumes id, or the saved session, or creates a new one.
func openSession(ctx context.Context, client *Client, id, configID, saveTo string) error {
	if id == "" && saveTo != "" {
		if data, err := os.ReadFile(saveTo); err == nil {
			id = string(bytes.TrimSpace(data))
		}
	}

	if id != "" {
		client.UseSession(id)
		if _, err := client.GetState(ctx); err == nil {
			log.Info().Str("session", id).Msg("resuming session")
			return nil
		}
		log.Warn().Str("session", id).Msg("failed to resume session (may be expired), creating a new one")
	}

	view, err := client.CreateSession(ctx, configID)
	if err != nil {
		return err
	}
	log.Info().Str("session", client.SessionID()).Int("pairs", view.TotalPairs).Msg("session created")

	if saveTo != "" {
		if err := os.WriteFile(saveTo, []byte(client.SessionID()), 0644); err != nil {
			log.Warn().Err(err).Msg("failed to save session ID")
		}
	}
	return nil
}

func run(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("v") {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	s, err := newStrategy(cmd.String("strategy"))
	if err != nil {
		return err
	}

	client := NewClient(cmd.String("url"))
	if err := openSession(ctx, client, cmd.String("continue"), cmd.String("config"), cmd.String("session-file")); err != nil {
		return err
	}

	player := NewPlayer(client, s, cmd.Duration("poll"), cmd.Int("max-flips"), log.Logger)
	games := cmd.Int("games")
	for game := 1; game <= games; game++ {
		summary, err := player.Play(ctx)
		if err != nil {
			return fmt.Errorf("game %d: %w", game, err)
		}
		log.Info().
			Str("session", client.SessionID()).
			Int("game", game).
			Int("moves", summary.Moves).
			Int("seconds", summary.ElapsedSeconds).
			Msg("board cleared")
	}
	return nil
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "autoplay",
		Usage: "play memory match boards against a running server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "http://localhost:8080", Usage: "game server URL", Sources: cli.EnvVars("API_URL")},
			&cli.StringFlag{Name: "config", Usage: "config ID for a new session"},
			&cli.StringFlag{Name: "continue", Usage: "resume an existing session by ID"},
			&cli.StringFlag{Name: "session-file", Value: sessionFile, Usage: "file remembering the session between runs (empty disables)"},
			&cli.StringFlag{Name: "strategy", Value: "perfect", Usage: "perfect or random"},
			&cli.IntFlag{Name: "games", Value: 1, Usage: "boards to play"},
			&cli.IntFlag{Name: "max-flips", Value: 3000, Usage: "give up on a board after this many flips"},
			&cli.DurationFlag{Name: "poll", Value: 100 * time.Millisecond, Usage: "state polling interval while a transition is pending"},
			&cli.BoolFlag{Name: "v", Usage: "verbose output"},
		},
		Action: run,
	}
}

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).With().Timestamp().Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		log.Fatal().Err(err).Msg("autoplay failed")
	}
}
