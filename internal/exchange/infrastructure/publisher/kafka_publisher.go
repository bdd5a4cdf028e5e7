// Package publisher forwards market facts to Kafka for downstream consumers.
package publisher

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/nesterrovv/currencyexchange/internal/exchange/domain"
	"github.com/nesterrovv/currencyexchange/pkg/mq"
)

const (
	tradeTopic = "market.trade"
	statsTopic = "market.stats"
)

// KafkaMarketDataPublisher publishes trades and stats snapshots, keyed by
// instrument so per-instrument ordering is preserved across partitions.
type KafkaMarketDataPublisher struct {
	producer *mq.KafkaProducer
}

// NewKafkaMarketDataPublisher wraps producer as a domain publisher.
func NewKafkaMarketDataPublisher(producer *mq.KafkaProducer) domain.MarketDataPublisher {
	return &KafkaMarketDataPublisher{producer: producer}
}

// PublishTrade sends one trade to the trade topic. Prices travel as exact
// decimal strings so consumers are not exposed to float formatting drift.
func (p *KafkaMarketDataPublisher) PublishTrade(ctx context.Context, trade domain.Trade) error {
	msg := map[string]any{
		"id":        trade.ID,
		"currency":  trade.Instrument,
		"price":     decimal.NewFromFloat(trade.Price).String(),
		"volume":    decimal.NewFromFloat(trade.Volume).String(),
		"timestamp": trade.Timestamp,
	}
	return p.producer.SendMessage(ctx, tradeTopic, trade.Instrument, msg)
}

// PublishStats sends the updated per-instrument aggregate to the stats topic.
func (p *KafkaMarketDataPublisher) PublishStats(ctx context.Context, stats domain.StatsSnapshot) error {
	msg := map[string]any{
		"currency":  stats.Instrument,
		"dayHigh":   decimal.NewFromFloat(stats.DayHigh).String(),
		"dayLow":    decimal.NewFromFloat(stats.DayLow).String(),
		"dayVolume": decimal.NewFromFloat(stats.DayVolume).String(),
	}
	return p.producer.SendMessage(ctx, statsTopic, stats.Instrument, msg)
}
