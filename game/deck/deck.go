// Package deck builds shuffled decks of paired symbols for the memory game.
//
// A deck for N distinct symbols holds 2N slots, each symbol exactly twice.
// Shuffling uses the Fisher–Yates algorithm: walking from the last slot down
// to the second, each slot i is swapped with a uniformly chosen slot j in
// [0, i]. Every one of the (2N)! slot orderings is equally likely, which
// induces a uniform distribution over symbol placements.
//
// The random source is injectable so tests can substitute a deterministic
// or scripted source:
//
//	src := deck.NewSource(42)
//	cards := deck.Build(deck.DefaultSymbols(), src)
package deck

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
)

// Symbol is an opaque card face. Symbols are compared by identity only.
type Symbol string

// Source supplies uniformly distributed integers in [0, n).
// *math/rand.Rand satisfies it.
type Source interface {
	Intn(n int) int
}

// Dealer produces the ordered card faces for a new board.
type Dealer interface {
	Deal(symbols []Symbol) []Symbol
}

// defaultSymbols is the classic fruit set (N=8).
var defaultSymbols = []Symbol{"🍎", "🍊", "🍋", "🍉", "🍇", "🍓", "🍒", "🥝"}

// DefaultSymbols returns a copy of the default eight-symbol set.
func DefaultSymbols() []Symbol {
	out := make([]Symbol, len(defaultSymbols))
	copy(out, defaultSymbols)
	return out
}

// Pairs doubles the symbol set into the unshuffled 2N multiset.
func Pairs(symbols []Symbol) []Symbol {
	out := make([]Symbol, 0, len(symbols)*2)
	out = append(out, symbols...)
	out = append(out, symbols...)
	return out
}

// Shuffle permutes items in place with Fisher–Yates.
func Shuffle[T any](items []T, src Source) {
	for i := len(items) - 1; i > 0; i-- {
		j := src.Intn(i + 1)
		items[i], items[j] = items[j], items[i]
	}
}

// Build returns a freshly shuffled deck holding every symbol twice.
func Build(symbols []Symbol, src Source) []Symbol {
	cards := Pairs(symbols)
	Shuffle(cards, src)
	return cards
}

// NewSource returns a deterministic source for the given seed.
func NewSource(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// NewSeed draws a seed from crypto/rand.
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// Shuffler is the production Dealer backed by a random source.
type Shuffler struct {
	src Source
}

// NewShuffler creates a Shuffler over src.
func NewShuffler(src Source) *Shuffler {
	return &Shuffler{src: src}
}

// NewRandomShuffler seeds a Shuffler from crypto/rand.
func NewRandomShuffler() (*Shuffler, error) {
	seed, err := NewSeed()
	if err != nil {
		return nil, err
	}
	return NewShuffler(NewSource(seed)), nil
}

// Deal implements Dealer.
func (s *Shuffler) Deal(symbols []Symbol) []Symbol {
	return Build(symbols, s.src)
}

// DealerFunc adapts a plain function to the Dealer interface.
type DealerFunc func(symbols []Symbol) []Symbol

// Deal implements Dealer.
func (f DealerFunc) Deal(symbols []Symbol) []Symbol {
	return f(symbols)
}
