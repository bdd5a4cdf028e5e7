package application

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/nesterrovv/currencyexchange/internal/exchange/domain"
)

func testConfig() Config {
	return Config{
		Instruments: []domain.Instrument{
			{Symbol: "USD", Median: 80, Amplitude: 0.15},
			{Symbol: "EUR", Median: 85, Amplitude: 0.15},
			{Symbol: "CNY", Median: 11, Amplitude: 0.15},
		},
		BookInstrument: "USD",
		TickInterval:   10 * time.Millisecond,
		BookInterval:   20 * time.Millisecond,
		SampleInterval: 50 * time.Millisecond,
		Omega:          0.05,
		NoiseBound:     0.02,
		ImpactFactor:   10,
		AutoGenerate:   true,
	}
}

func limit(p float64) *float64 { return &p }

func recvTimeout[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for value")
		panic("unreachable")
	}
}

func TestSubmitOrder_Validation(t *testing.T) {
	svc := New(testConfig(), nil, nil)
	ctx := context.Background()

	cases := []struct {
		name string
		cmd  SubmitOrderCommand
		want error
	}{
		{"Malformed Side", SubmitOrderCommand{Side: "HOLD", Instrument: "USD", Volume: 10}, domain.ErrInvalidSide},
		{"Zero Volume", SubmitOrderCommand{Side: "BUY", Instrument: "USD", Volume: 0}, domain.ErrNonPositiveVolume},
		{"Negative Volume", SubmitOrderCommand{Side: "SELL", Instrument: "USD", Volume: -5}, domain.ErrNonPositiveVolume},
		{"Unknown Instrument", SubmitOrderCommand{Side: "BUY", Instrument: "GBP", Volume: 10}, domain.ErrUnknownInstrument},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := svc.SubmitOrder(ctx, tc.cmd); !errors.Is(err, tc.want) {
				t.Errorf("err = %v, want %v", err, tc.want)
			}
		})
	}

	t.Run("Lowercase Side Accepted", func(t *testing.T) {
		err := svc.SubmitOrder(ctx, SubmitOrderCommand{Side: "buy", Instrument: "USD", Volume: 10})
		if err != nil {
			t.Errorf("err = %v, want nil", err)
		}
	})
}

func TestGenerateOrderBook_MatchesQueuedOrders(t *testing.T) {
	svc := New(testConfig(), nil, nil)
	ctx := context.Background()

	tradeSub := svc.SubscribeTrades()
	defer tradeSub.Cancel()
	bookSub := svc.SubscribeOrderBook()
	defer bookSub.Cancel()
	statsSub := svc.SubscribeStats()
	defer statsSub.Cancel()

	err := svc.SubmitOrder(ctx, SubmitOrderCommand{Side: "BUY", Instrument: "USD", Volume: 30, LimitPrice: limit(1000000)})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	book := svc.GenerateOrderBook(ctx)
	if err := book.Validate(); err != nil {
		t.Fatalf("published book invalid: %v", err)
	}

	published := recvTimeout(t, bookSub.C)
	if err := published.Validate(); err != nil {
		t.Fatalf("subscribed book invalid: %v", err)
	}

	tr := recvTimeout(t, tradeSub.C)
	if tr.Instrument != "USD" || tr.Volume <= 0 {
		t.Errorf("unexpected trade: %+v", tr)
	}

	snap := recvTimeout(t, statsSub.C)
	if snap.Instrument != "USD" || snap.DayVolume <= 0 {
		t.Errorf("unexpected stats snapshot: %+v", snap)
	}

	// The queue was drained; a second cycle matches nothing new.
	svc.GenerateOrderBook(ctx)
	select {
	case tr := <-tradeSub.C:
		// The first order may have walked several levels; any further
		// trades must still belong to it (same instrument, bounded total).
		if tr.Instrument != "USD" {
			t.Errorf("trade from drained queue: %+v", tr)
		}
	case <-time.After(100 * time.Millisecond):
	}
}

func TestGenerateOrderBook_LargeCrossEmitsNotification(t *testing.T) {
	svc := New(testConfig(), nil, nil)
	ctx := context.Background()

	noteSub := svc.SubscribeNotifications()
	defer noteSub.Cancel()

	// The buy rests a large remainder at 90; the sell in the same batch
	// crosses it for at least 1000 units in a single fill.
	if err := svc.SubmitOrder(ctx, SubmitOrderCommand{Side: "BUY", Instrument: "USD", Volume: 2000, LimitPrice: limit(90)}); err != nil {
		t.Fatalf("submit buy failed: %v", err)
	}
	if err := svc.SubmitOrder(ctx, SubmitOrderCommand{Side: "SELL", Instrument: "USD", Volume: 1600, LimitPrice: limit(80)}); err != nil {
		t.Fatalf("submit sell failed: %v", err)
	}

	svc.GenerateOrderBook(ctx)

	for {
		note := recvTimeout(t, noteSub.C)
		if note.Magnitude == domain.LargeTradeMagnitude {
			if note.Instrument != "USD" {
				t.Errorf("notification instrument = %q, want USD", note.Instrument)
			}
			if note.Price != 90 {
				t.Errorf("notification price = %v, want 90", note.Price)
			}
			return
		}
	}
}

func TestAutoGenerateToggle(t *testing.T) {
	cfg := testConfig()
	cfg.AutoGenerate = false
	svc := New(cfg, nil, nil)

	if svc.AutoGenerate() {
		t.Error("auto-generate should start disabled")
	}
	svc.SetAutoGenerate(true)
	if !svc.AutoGenerate() {
		t.Error("auto-generate should be enabled after toggle")
	}
}

func TestService_StartStop(t *testing.T) {
	svc := New(testConfig(), nil, nil)

	quoteSub := svc.SubscribeQuotes()
	defer quoteSub.Cancel()
	bookSub := svc.SubscribeOrderBook()
	defer bookSub.Cancel()

	ctx := context.Background()
	svc.Start(ctx)
	defer svc.Stop()

	q := recvTimeout(t, quoteSub.C)
	if q.Instrument == "" || q.Price <= 0 {
		t.Errorf("unexpected quote: %+v", q)
	}
	if math.IsNaN(q.Price) {
		t.Errorf("quote price is NaN")
	}

	book := recvTimeout(t, bookSub.C)
	if len(book.Bids) == 0 || len(book.Asks) == 0 {
		t.Errorf("auto-generated book is empty: %+v", book)
	}

	svc.Stop()

	// Streams close on shutdown.
	for {
		if _, ok := <-quoteSub.C; !ok {
			break
		}
	}
}
