package domain

import (
	"math"
	"sync"
)

// StatsSnapshot is the running per-instrument aggregate. High and low only
// widen and volume only grows within a process lifetime.
type StatsSnapshot struct {
	Instrument string  `json:"currency"`
	DayHigh    float64 `json:"dayHigh"`
	DayLow     float64 `json:"dayLow"`
	DayVolume  float64 `json:"dayVolume"`
}

// statsAccumulator folds trades for one instrument.
type statsAccumulator struct {
	instrument string
	high       float64
	low        float64
	volume     float64
}

func newStatsAccumulator(instrument string) *statsAccumulator {
	return &statsAccumulator{
		instrument: instrument,
		high:       math.Inf(-1),
		low:        math.Inf(1),
	}
}

func (a *statsAccumulator) update(t Trade) {
	if t.Price > a.high {
		a.high = t.Price
	}
	if t.Price < a.low {
		a.low = t.Price
	}
	a.volume += t.Volume
}

func (a *statsAccumulator) snapshot() StatsSnapshot {
	return StatsSnapshot{
		Instrument: a.instrument,
		DayHigh:    a.high,
		DayLow:     a.low,
		DayVolume:  a.volume,
	}
}

// StatsAggregator partitions the trade stream by instrument and maintains a
// running accumulator per partition. Accumulators live for the process
// lifetime; there is no periodic reset.
type StatsAggregator struct {
	mu   sync.Mutex
	accs map[string]*statsAccumulator
}

// NewStatsAggregator creates an empty aggregator.
func NewStatsAggregator() *StatsAggregator {
	return &StatsAggregator{accs: make(map[string]*statsAccumulator)}
}

// Apply folds one trade and returns the updated snapshot for its instrument.
func (s *StatsAggregator) Apply(t Trade) StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accs[t.Instrument]
	if !ok {
		acc = newStatsAccumulator(t.Instrument)
		s.accs[t.Instrument] = acc
	}
	acc.update(t)
	return acc.snapshot()
}

// Snapshot returns the current aggregate for instrument, if any trade has
// been observed for it.
func (s *StatsAggregator) Snapshot(instrument string) (StatsSnapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accs[instrument]
	if !ok {
		return StatsSnapshot{}, false
	}
	return acc.snapshot(), true
}
