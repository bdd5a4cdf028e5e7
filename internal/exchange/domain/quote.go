package domain

import (
	"math"
	"math/rand/v2"
	"sync/atomic"
	"time"
)

// Quote is one synthetic price observation. Immutable once emitted; the next
// tick for the same instrument supersedes it.
type Quote struct {
	Instrument    string  `json:"currency"`
	Price         float64 `json:"price"`
	Timestamp     int64   `json:"timestamp"`
	PercentChange float64 `json:"change"`
}

// PendingVolumeSource reports queued order volume feeding the activity
// impact term. Implemented by OrderQueue.
type PendingVolumeSource interface {
	PendingVolume(instrument string) (buy, sell float64)
}

// PriceGenerator produces the quote sequence for a single instrument:
//
//	price = median * (1 + amplitude*sin(omega*t + phase) + noise) + impact
//
// where noise is uniform in [-noiseBound, noiseBound) and impact scales the
// imbalance between queued buy and sell volume. Tick is driven by one
// goroutine per instrument; the previous price is swapped atomically so a
// lagging tick can never resurrect a stale value.
type PriceGenerator struct {
	inst         Instrument
	omega        float64
	noiseBound   float64
	impactFactor float64
	phase        float64
	pending      PendingVolumeSource
	rng          *rand.Rand
	prevBits     atomic.Uint64
	now          func() time.Time
}

// NewPriceGenerator creates a generator seeded at the instrument median,
// with a phase drawn uniformly from [0, 2π).
func NewPriceGenerator(inst Instrument, omega, noiseBound, impactFactor float64, pending PendingVolumeSource, rng *rand.Rand) *PriceGenerator {
	g := &PriceGenerator{
		inst:         inst,
		omega:        omega,
		noiseBound:   noiseBound,
		impactFactor: impactFactor,
		phase:        rng.Float64() * 2 * math.Pi,
		pending:      pending,
		rng:          rng,
		now:          time.Now,
	}
	g.prevBits.Store(math.Float64bits(inst.Median))
	return g
}

// Instrument returns the instrument this generator prices.
func (g *PriceGenerator) Instrument() Instrument {
	return g.inst
}

// Tick computes the quote for monotonic tick number t.
func (g *PriceGenerator) Tick(t int64) Quote {
	sin := math.Sin(g.omega*float64(t) + g.phase)
	var noise float64
	if g.noiseBound > 0 {
		noise = g.rng.Float64()*2*g.noiseBound - g.noiseBound
	}
	price := g.inst.Median * (1 + g.inst.Amplitude*sin + noise)

	if g.pending != nil {
		buy, sell := g.pending.PendingVolume(g.inst.Symbol)
		price += g.impactFactor * (buy - sell)
	}

	// Runaway impact accumulation must not poison subsequent ticks.
	if math.IsNaN(price) || math.IsInf(price, 0) {
		price = g.inst.Median
	}

	prev := g.swapPrev(price)
	var change float64
	if prev > 0 {
		change = (price - prev) / prev * 100
		if math.IsNaN(change) || math.IsInf(change, 0) {
			change = 0
		}
	}

	return Quote{
		Instrument:    g.inst.Symbol,
		Price:         price,
		Timestamp:     g.now().UnixMilli(),
		PercentChange: change,
	}
}

// swapPrev atomically replaces the previous price and returns the old value.
func (g *PriceGenerator) swapPrev(price float64) float64 {
	return math.Float64frombits(g.prevBits.Swap(math.Float64bits(price)))
}
