// Package strategy holds automated players. A Strategy sees only what a
// human would: the faces of the board view and the faces it has revealed.
package strategy

import (
	"github.com/wricardo/mcp-training/memorymatch/game/deck"
	"github.com/wricardo/mcp-training/memorymatch/game/engine"
)

// Strategy picks the next card to flip.
type Strategy interface {
	Name() string
	// Reset prepares for a new board of n cards.
	Reset(n int)
	Next(view engine.BoardView) int
	// Observe reports the face revealed by the last flip.
	Observe(index int, face string)
}

// PerfectMemory never forgets a face. It finishes known pairs first, then
// explores unseen cards, completing a pair whenever the first flip reveals a
// symbol it has already seen. It needs at most two moves per pair.
type PerfectMemory struct {
	src  deck.Source
	seen []string
}

// NewPerfectMemory creates a PerfectMemory exploring in the order src picks.
func NewPerfectMemory(src deck.Source) *PerfectMemory {
	return &PerfectMemory{src: src}
}

func (p *PerfectMemory) Name() string { return "perfect-memory" }

func (p *PerfectMemory) Reset(n int) { p.seen = make([]string, n) }

func (p *PerfectMemory) Observe(index int, face string) {
	if index >= 0 && index < len(p.seen) {
		p.seen[index] = face
	}
}

func (p *PerfectMemory) Next(view engine.BoardView) int {
	if len(p.seen) != len(view.Cards) {
		p.Reset(len(view.Cards))
	}

	open := -1
	for _, c := range view.Cards {
		if c.State == engine.Flipped {
			open = c.Index
		}
	}

	if open >= 0 {
		face := view.Cards[open].Face
		for i, f := range p.seen {
			if i != open && f == face && view.Cards[i].State == engine.Hidden {
				return i
			}
		}
		return p.unseen(view, open)
	}

	// a pair already seen but not yet matched
	first := map[string]int{}
	for i, f := range p.seen {
		if f == "" || view.Cards[i].State != engine.Hidden {
			continue
		}
		if j, ok := first[f]; ok {
			return j
		}
		first[f] = i
	}
	return p.unseen(view, -1)
}

// unseen picks a random hidden card never revealed, or any hidden card when
// every one has been seen.
func (p *PerfectMemory) unseen(view engine.BoardView, exclude int) int {
	var fresh, hidden []int
	for _, c := range view.Cards {
		if c.State != engine.Hidden || c.Index == exclude {
			continue
		}
		hidden = append(hidden, c.Index)
		if p.seen[c.Index] == "" {
			fresh = append(fresh, c.Index)
		}
	}
	if len(fresh) > 0 {
		return fresh[p.src.Intn(len(fresh))]
	}
	if len(hidden) == 0 {
		return -1
	}
	return hidden[p.src.Intn(len(hidden))]
}

// Random remembers nothing and flips any hidden card.
type Random struct {
	src deck.Source
}

// NewRandom creates a Random player drawing from src.
func NewRandom(src deck.Source) *Random {
	return &Random{src: src}
}

func (r *Random) Name() string        { return "random" }
func (r *Random) Reset(int)           {}
func (r *Random) Observe(int, string) {}

func (r *Random) Next(view engine.BoardView) int {
	var hidden []int
	for _, c := range view.Cards {
		if c.State == engine.Hidden {
			hidden = append(hidden, c.Index)
		}
	}
	if len(hidden) == 0 {
		return -1
	}
	return hidden[r.src.Intn(len(hidden))]
}
