package domain

import "testing"

func TestStatsAggregator_Accumulates(t *testing.T) {
	agg := NewStatsAggregator()

	agg.Apply(Trade{Instrument: "USD", Price: 100, Volume: 10})
	agg.Apply(Trade{Instrument: "USD", Price: 90, Volume: 5})
	snap := agg.Apply(Trade{Instrument: "USD", Price: 105, Volume: 3})

	if snap.DayHigh != 105 || snap.DayLow != 90 || snap.DayVolume != 18 {
		t.Errorf("snapshot = %+v, want high 105, low 90, volume 18", snap)
	}
	if snap.Instrument != "USD" {
		t.Errorf("instrument = %q, want USD", snap.Instrument)
	}
}

func TestStatsAggregator_SeededAtFirstTrade(t *testing.T) {
	agg := NewStatsAggregator()

	snap := agg.Apply(Trade{Instrument: "EUR", Price: 84.5, Volume: 7})
	if snap.DayHigh != 84.5 || snap.DayLow != 84.5 || snap.DayVolume != 7 {
		t.Errorf("first snapshot = %+v, want 84.5/84.5/7", snap)
	}
}

func TestStatsAggregator_PartitionsByInstrument(t *testing.T) {
	agg := NewStatsAggregator()

	agg.Apply(Trade{Instrument: "USD", Price: 100, Volume: 10})
	snap := agg.Apply(Trade{Instrument: "EUR", Price: 5, Volume: 1})

	if snap.DayHigh != 5 || snap.DayVolume != 1 {
		t.Errorf("EUR snapshot contaminated by USD trades: %+v", snap)
	}

	usd, ok := agg.Snapshot("USD")
	if !ok || usd.DayVolume != 10 {
		t.Errorf("USD snapshot = %+v (ok=%v), want volume 10", usd, ok)
	}

	if _, ok := agg.Snapshot("CNY"); ok {
		t.Error("snapshot for untraded instrument should not exist")
	}
}
