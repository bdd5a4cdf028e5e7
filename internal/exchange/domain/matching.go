package domain

import (
	"math/rand/v2"
	"sort"
	"time"

	"github.com/google/uuid"
)

// volumeEpsilon guards against floating dust: a level or order remainder at
// or below it counts as exhausted.
const volumeEpsilon = 1e-9

// MatchingEngine executes queued orders against a synthesized ladder.
type MatchingEngine struct {
	catalog        *InstrumentCatalog
	bookInstrument string
	rng            *rand.Rand
	now            func() time.Time
}

// NewMatchingEngine creates an engine resolving fallback prices from catalog,
// with bookInstrument as the last-resort base price.
func NewMatchingEngine(catalog *InstrumentCatalog, bookInstrument string, rng *rand.Rand) *MatchingEngine {
	return &MatchingEngine{
		catalog:        catalog,
		bookInstrument: bookInstrument,
		rng:            rng,
		now:            time.Now,
	}
}

// Match processes orders in submission order against book, mutating the
// ladder in place and returning the emitted trades. Each order walks the
// opposite side from its best price while the level price remains within the
// order's effective price; fills execute at the resting level's price. Any
// remainder is posted on the order's own side of the book at the effective
// price. Both sides are re-sorted after the batch.
func (e *MatchingEngine) Match(orders []Order, book *OrderBook) []Trade {
	var trades []Trade

	for _, order := range orders {
		effective := e.effectivePrice(order)
		remaining := order.Volume

		if order.Side == SideBuy {
			sort.Slice(book.Asks, func(i, j int) bool { return book.Asks[i].Price < book.Asks[j].Price })
			remaining = e.walk(&book.Asks, order, effective, remaining, &trades, func(levelPrice float64) bool {
				return levelPrice <= effective
			})
			if remaining > volumeEpsilon {
				addLevel(&book.Bids, effective, remaining)
			}
		} else {
			sort.Slice(book.Bids, func(i, j int) bool { return book.Bids[i].Price > book.Bids[j].Price })
			remaining = e.walk(&book.Bids, order, effective, remaining, &trades, func(levelPrice float64) bool {
				return levelPrice >= effective
			})
			if remaining > volumeEpsilon {
				addLevel(&book.Asks, effective, remaining)
			}
		}
	}

	book.SortSides()
	return trades
}

// effectivePrice resolves the price an order is willing to cross at: its
// limit when present, otherwise the instrument's static base price plus
// jitter in (-1, 1).
func (e *MatchingEngine) effectivePrice(order Order) float64 {
	if order.LimitPrice != nil {
		return *order.LimitPrice
	}
	base := e.catalog.BasePrice(order.Instrument, e.bookInstrument)
	return base + (e.rng.Float64()*2 - 1)
}

// walk fills the order against successive eligible levels, emitting one
// trade per touched level at the level's own price.
func (e *MatchingEngine) walk(side *[]Level, order Order, effective, remaining float64, trades *[]Trade, eligible func(float64) bool) float64 {
	i := 0
	for i < len(*side) && remaining > volumeEpsilon {
		level := &(*side)[i]
		if !eligible(level.Price) {
			i++
			continue
		}

		filled := level.Volume
		if filled > remaining {
			filled = remaining
		}
		*trades = append(*trades, Trade{
			ID:         uuid.New().String(),
			Instrument: order.Instrument,
			Price:      level.Price,
			Volume:     filled,
			Timestamp:  e.now().UnixMilli(),
		})
		remaining -= filled
		level.Volume -= filled

		if level.Volume <= volumeEpsilon {
			*side = append((*side)[:i], (*side)[i+1:]...)
		}
	}
	return remaining
}
