package domain

import (
	"math"
	"math/rand/v2"
	"testing"
)

func testRand() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

type pendingStub struct {
	buy, sell float64
}

func (p pendingStub) PendingVolume(string) (float64, float64) {
	return p.buy, p.sell
}

func TestPriceGenerator_Waveform(t *testing.T) {
	inst := Instrument{Symbol: "USD", Median: 80, Amplitude: 0.15}

	t.Run("Exact Formula Without Noise", func(t *testing.T) {
		g := NewPriceGenerator(inst, 0.05, 0, 0, nil, testRand())
		g.phase = 1.25

		for _, tick := range []int64{1, 7, 100} {
			q := g.Tick(tick)
			want := inst.Median * (1 + inst.Amplitude*math.Sin(0.05*float64(tick)+1.25))
			if math.Abs(q.Price-want) > 1e-12 {
				t.Errorf("tick %d: price = %v, want %v", tick, q.Price, want)
			}
			if q.Instrument != "USD" {
				t.Errorf("instrument = %q, want USD", q.Instrument)
			}
		}
	})

	t.Run("Bounded Envelope With Noise", func(t *testing.T) {
		g := NewPriceGenerator(inst, 0.05, 0.02, 0, nil, testRand())
		bound := inst.Median * (inst.Amplitude + 0.02)
		for tick := int64(1); tick <= 500; tick++ {
			q := g.Tick(tick)
			if math.Abs(q.Price-inst.Median) > bound+1e-9 {
				t.Fatalf("tick %d: price %v outside envelope %v±%v", tick, q.Price, inst.Median, bound)
			}
		}
	})

	t.Run("Activity Impact Shifts Price", func(t *testing.T) {
		g := NewPriceGenerator(inst, 0.05, 0, 10, pendingStub{buy: 30, sell: 10}, testRand())
		g.phase = 0.5

		q := g.Tick(3)
		base := inst.Median * (1 + inst.Amplitude*math.Sin(0.05*3+0.5))
		want := base + 10*(30-10)
		if math.Abs(q.Price-want) > 1e-12 {
			t.Errorf("price = %v, want %v", q.Price, want)
		}
	})
}

func TestPriceGenerator_PercentChange(t *testing.T) {
	inst := Instrument{Symbol: "EUR", Median: 85, Amplitude: 0.15}

	t.Run("Change Relative To Previous Tick", func(t *testing.T) {
		g := NewPriceGenerator(inst, 0.05, 0, 0, nil, testRand())
		g.phase = 0

		q1 := g.Tick(1)
		q2 := g.Tick(2)
		want := (q2.Price - q1.Price) / q1.Price * 100
		if math.Abs(q2.PercentChange-want) > 1e-12 {
			t.Errorf("change = %v, want %v", q2.PercentChange, want)
		}
	})

	t.Run("Zero Previous Price Falls Back To Zero Change", func(t *testing.T) {
		g := NewPriceGenerator(inst, 0.05, 0, 0, nil, testRand())
		g.prevBits.Store(math.Float64bits(0))

		q := g.Tick(1)
		if q.PercentChange != 0 {
			t.Errorf("change = %v, want 0", q.PercentChange)
		}
	})

	t.Run("Non Finite Price Falls Back To Median", func(t *testing.T) {
		g := NewPriceGenerator(inst, 0.05, 0, 10, pendingStub{buy: math.Inf(1)}, testRand())

		q := g.Tick(1)
		if q.Price != inst.Median {
			t.Errorf("price = %v, want median %v", q.Price, inst.Median)
		}
		if q.PercentChange != 0 {
			t.Errorf("change = %v, want 0", q.PercentChange)
		}

		// The fallback must not poison the next tick either.
		q = g.Tick(2)
		if math.IsNaN(q.Price) || math.IsInf(q.Price, 0) {
			t.Errorf("subsequent price not finite: %v", q.Price)
		}
	})
}
