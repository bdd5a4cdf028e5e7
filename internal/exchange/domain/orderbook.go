package domain

import (
	"fmt"
	"math/rand/v2"
	"sort"
)

// BookDepth is the number of baseline levels synthesized per side.
const BookDepth = 5

// Level is a single (price, volume) rung of a ladder. Levels live for one
// synthesis cycle; matching decrements volume in place and removes the level
// at exhaustion.
type Level struct {
	Price  float64 `json:"price"`
	Volume float64 `json:"volume"`
}

// OrderBook is a two-sided ladder. Invariant between cycles: bids strictly
// descending, asks strictly ascending, no duplicate price within a side.
type OrderBook struct {
	Bids []Level `json:"bids"`
	Asks []Level `json:"asks"`
}

// SortSides restores the side orderings after a matching batch.
func (b *OrderBook) SortSides() {
	sort.Slice(b.Bids, func(i, j int) bool { return b.Bids[i].Price > b.Bids[j].Price })
	sort.Slice(b.Asks, func(i, j int) bool { return b.Asks[i].Price < b.Asks[j].Price })
}

// Clone returns a deep copy safe to hand to subscribers.
func (b *OrderBook) Clone() OrderBook {
	out := OrderBook{
		Bids: make([]Level, len(b.Bids)),
		Asks: make([]Level, len(b.Asks)),
	}
	copy(out.Bids, b.Bids)
	copy(out.Asks, b.Asks)
	return out
}

// Validate checks the ladder invariant.
func (b *OrderBook) Validate() error {
	for i, l := range b.Bids {
		if l.Volume <= 0 {
			return fmt.Errorf("bid %d: non-positive volume %v", i, l.Volume)
		}
		if i > 0 && b.Bids[i-1].Price <= l.Price {
			return fmt.Errorf("bids not strictly descending at %d: %v then %v", i, b.Bids[i-1].Price, l.Price)
		}
	}
	for i, l := range b.Asks {
		if l.Volume <= 0 {
			return fmt.Errorf("ask %d: non-positive volume %v", i, l.Volume)
		}
		if i > 0 && b.Asks[i-1].Price >= l.Price {
			return fmt.Errorf("asks not strictly ascending at %d: %v then %v", i, b.Asks[i-1].Price, l.Price)
		}
	}
	return nil
}

// addLevel posts volume at price on a side, merging into an existing level at
// the same price so the no-duplicate invariant holds after re-sorting.
func addLevel(side *[]Level, price, volume float64) {
	for i := range *side {
		if (*side)[i].Price == price {
			(*side)[i].Volume += volume
			return
		}
	}
	*side = append(*side, Level{Price: price, Volume: volume})
}

// Synthesizer fabricates the baseline ladder each cycle as stand-in market
// liquidity. The ladder is anchored to the book instrument's static median,
// not the live simulated quote.
type Synthesizer struct {
	base Instrument
	rng  *rand.Rand
}

// NewSynthesizer creates a synthesizer anchored to base.
func NewSynthesizer(base Instrument, rng *rand.Rand) *Synthesizer {
	return &Synthesizer{base: base, rng: rng}
}

// Baseline generates a fresh two-sided ladder: BookDepth bids stepping down
// from the base price and BookDepth asks stepping up, each with jitter up to
// 0.5 and volume uniform in [10, 100).
func (s *Synthesizer) Baseline() OrderBook {
	book := OrderBook{
		Bids: make([]Level, 0, BookDepth),
		Asks: make([]Level, 0, BookDepth),
	}
	for i := 0; i < BookDepth; i++ {
		book.Bids = append(book.Bids, Level{
			Price:  s.base.Median - float64(i) - s.rng.Float64()*0.5,
			Volume: 10 + s.rng.Float64()*90,
		})
		book.Asks = append(book.Asks, Level{
			Price:  s.base.Median + float64(i) + s.rng.Float64()*0.5,
			Volume: 10 + s.rng.Float64()*90,
		})
	}
	return book
}
