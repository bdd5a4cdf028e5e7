package domain

import "context"

// Trade is an immutable fill fact. One order may emit several trades as it
// walks successive levels.
type Trade struct {
	ID         string  `json:"id"`
	Instrument string  `json:"currency"`
	Price      float64 `json:"price"`
	Volume     float64 `json:"volume"`
	Timestamp  int64   `json:"timestamp"`
}

// Notification flags a noteworthy market event: a quote whose percent change
// exceeds NotifyChangeThreshold, or a trade at or above NotifyTradeVolume.
type Notification struct {
	Instrument string  `json:"currentCurrency"`
	Price      float64 `json:"currentPrice"`
	Magnitude  float64 `json:"percentage"`
}

const (
	// NotifyChangeThreshold is the absolute percent change above which a
	// quote produces a notification.
	NotifyChangeThreshold = 5.0
	// NotifyTradeVolume is the trade volume at which a trade produces a
	// notification.
	NotifyTradeVolume = 1000.0
	// LargeTradeMagnitude is the sentinel magnitude reported for
	// large-trade notifications, distinguishing them from quote-change
	// notifications whose magnitude is a real percentage.
	LargeTradeMagnitude = 9999.0
)

// MarketDataPublisher forwards market facts to an external feed. A nil
// publisher disables forwarding; delivery failures never affect the
// simulation loops.
type MarketDataPublisher interface {
	PublishTrade(ctx context.Context, trade Trade) error
	PublishStats(ctx context.Context, stats StatsSnapshot) error
}
