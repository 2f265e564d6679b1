package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/wricardo/mcp-training/memorymatch/game/engine"
	"github.com/wricardo/mcp-training/memorymatch/game/strategy"
)

// Player drives a Strategy against a live session. Reverts and the summary
// arrive on the server's clock, so the player polls while a transition is
// pending.
type Player struct {
	client   *Client
	strategy strategy.Strategy
	poll     time.Duration
	maxFlips int
	logger   zerolog.Logger
}

func NewPlayer(client *Client, s strategy.Strategy, poll time.Duration, maxFlips int, logger zerolog.Logger) *Player {
	return &Player{client: client, strategy: s, poll: poll, maxFlips: maxFlips, logger: logger}
}

// Play deals a new board and plays it to its summary. A finished board is
// replayed; anything else is restarted.
func (p *Player) Play(ctx context.Context) (*engine.Summary, error) {
	view, err := p.newBoard(ctx)
	if err != nil {
		return nil, err
	}
	p.strategy.Reset(len(view.Cards))

	for flips := 0; ; {
		if view.Completed {
			if view.Summary == nil {
				return nil, errors.New("completed board without summary")
			}
			return view.Summary, nil
		}
		if view.Pending != engine.PendingNone {
			if view, err = p.waitSettled(ctx); err != nil {
				return nil, err
			}
			continue
		}
		if flips >= p.maxFlips {
			return nil, fmt.Errorf("no summary after %d flips", flips)
		}

		index := p.strategy.Next(*view)
		if index < 0 {
			return nil, errors.New("strategy found no card to flip")
		}

		res, err := p.client.Flip(ctx, index)
		if err != nil {
			return nil, err
		}
		flips++

		if !res.Accepted {
			if res.Reason != string(engine.ReasonSelectionFull) {
				return nil, fmt.Errorf("flip %d ignored: %s", index, res.Reason)
			}
			p.logger.Debug().Int("index", index).Msg("selection full, waiting")
			view = res.GameState
			if view.Pending == engine.PendingNone {
				// the revert landed between the flip and the response
				view, err = p.client.GetState(ctx)
				if err != nil {
					return nil, err
				}
			}
			continue
		}

		p.strategy.Observe(index, res.Face)
		p.logger.Debug().Int("index", index).Str("face", res.Face).Str("result", string(res.Result)).Msg("flip")
		view = res.GameState
	}
}

func (p *Player) newBoard(ctx context.Context) (*engine.BoardView, error) {
	state, err := p.client.GetState(ctx)
	if err != nil {
		return nil, err
	}

	if state.Completed {
		res, err := p.client.Replay(ctx)
		if err != nil {
			return nil, err
		}
		return res.GameState, nil
	}

	res, err := p.client.Restart(ctx)
	if err != nil {
		return nil, err
	}
	return res.GameState, nil
}

// waitSettled polls until no transition is pending.
func (p *Player) waitSettled(ctx context.Context) (*engine.BoardView, error) {
	ticker := time.NewTicker(p.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}

		view, err := p.client.GetState(ctx)
		if err != nil {
			return nil, err
		}
		if view.Pending == engine.PendingNone || view.Completed {
			return view, nil
		}
	}
}
