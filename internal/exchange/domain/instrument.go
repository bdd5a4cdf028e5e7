// Package domain holds the market simulation model: instruments, synthetic
// quotes, the order queue, order book synthesis, matching and trade stats.
package domain

import "sort"

// Instrument is one simulated currency.
type Instrument struct {
	// Symbol identifies the instrument, e.g. "USD".
	Symbol string `json:"symbol"`
	// Median is the center of the price waveform and the static base price
	// used for ladder synthesis and limitless order pricing.
	Median float64 `json:"median"`
	// Amplitude is the relative swing of the waveform around the median.
	Amplitude float64 `json:"amplitude"`
}

// InstrumentCatalog is the fixed set of instruments for a process lifetime.
type InstrumentCatalog struct {
	bySymbol map[string]Instrument
	ordered  []Instrument
}

// NewInstrumentCatalog builds a catalog from the given instruments,
// de-duplicating by symbol (first definition wins).
func NewInstrumentCatalog(instruments []Instrument) *InstrumentCatalog {
	c := &InstrumentCatalog{bySymbol: make(map[string]Instrument, len(instruments))}
	for _, inst := range instruments {
		if _, ok := c.bySymbol[inst.Symbol]; ok {
			continue
		}
		c.bySymbol[inst.Symbol] = inst
		c.ordered = append(c.ordered, inst)
	}
	sort.Slice(c.ordered, func(i, j int) bool { return c.ordered[i].Symbol < c.ordered[j].Symbol })
	return c
}

// Get looks up an instrument by symbol.
func (c *InstrumentCatalog) Get(symbol string) (Instrument, bool) {
	inst, ok := c.bySymbol[symbol]
	return inst, ok
}

// Has reports whether symbol is a known instrument.
func (c *InstrumentCatalog) Has(symbol string) bool {
	_, ok := c.bySymbol[symbol]
	return ok
}

// All returns the instruments in symbol order.
func (c *InstrumentCatalog) All() []Instrument {
	out := make([]Instrument, len(c.ordered))
	copy(out, c.ordered)
	return out
}

// BasePrice returns the median for symbol, falling back to fallback's median
// for unknown symbols. Submission validation rejects unknown instruments, so
// the fallback only covers internally synthesized prices.
func (c *InstrumentCatalog) BasePrice(symbol, fallback string) float64 {
	if inst, ok := c.bySymbol[symbol]; ok {
		return inst.Median
	}
	if inst, ok := c.bySymbol[fallback]; ok {
		return inst.Median
	}
	return 0
}
