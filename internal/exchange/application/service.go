// Package application wires the domain simulation into running market loops
// and exposes the operations consumed by the transport layer.
package application

import (
	"context"
	"math"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nesterrovv/currencyexchange/internal/exchange/domain"
	"github.com/nesterrovv/currencyexchange/pkg/broadcast"
	"github.com/nesterrovv/currencyexchange/pkg/logger"
	"github.com/nesterrovv/currencyexchange/pkg/metrics"
)

// Config holds the simulation parameters for the service.
type Config struct {
	Instruments    []domain.Instrument
	BookInstrument string
	TickInterval   time.Duration
	BookInterval   time.Duration
	SampleInterval time.Duration
	Omega          float64
	NoiseBound     float64
	ImpactFactor   float64
	AutoGenerate   bool
}

// ExchangeService runs the market simulation: per-instrument quote loops, the
// periodic order book cycle, and the fan-out streams consumed by clients.
type ExchangeService struct {
	cfg     Config
	catalog *domain.InstrumentCatalog
	queue   *domain.OrderQueue
	engine  *domain.MatchingEngine
	synth   *domain.Synthesizer
	agg     *domain.StatsAggregator

	quotes        *broadcast.Broadcaster[domain.Quote]
	books         *broadcast.Broadcaster[domain.OrderBook]
	trades        *broadcast.Broadcaster[domain.Trade]
	stats         *broadcast.Broadcaster[domain.StatsSnapshot]
	notifications *broadcast.Broadcaster[domain.Notification]

	publisher domain.MarketDataPublisher
	metrics   *metrics.Metrics

	generators []*domain.PriceGenerator
	autoGen    atomic.Bool

	// cycleMu serializes synthesis cycles: drain, match and publish are one
	// atomic unit, and the manual generation call takes the same lock.
	cycleMu sync.Mutex

	stopOnce sync.Once
	stop     chan struct{}
	wg       sync.WaitGroup
}

// New builds a stopped service. publisher and m may be nil.
func New(cfg Config, publisher domain.MarketDataPublisher, m *metrics.Metrics) *ExchangeService {
	catalog := domain.NewInstrumentCatalog(cfg.Instruments)
	queue := domain.NewOrderQueue()

	base, _ := catalog.Get(cfg.BookInstrument)

	s := &ExchangeService{
		cfg:           cfg,
		catalog:       catalog,
		queue:         queue,
		engine:        domain.NewMatchingEngine(catalog, cfg.BookInstrument, newRand()),
		synth:         domain.NewSynthesizer(base, newRand()),
		agg:           domain.NewStatsAggregator(),
		quotes:        broadcast.NewConflating[domain.Quote](),
		books:         broadcast.NewConflating[domain.OrderBook](),
		trades:        broadcast.NewBuffered[domain.Trade](),
		stats:         broadcast.NewConflating[domain.StatsSnapshot](),
		notifications: broadcast.NewBuffered[domain.Notification](),
		publisher:     publisher,
		metrics:       m,
		stop:          make(chan struct{}),
	}
	s.autoGen.Store(cfg.AutoGenerate)

	for _, inst := range catalog.All() {
		s.generators = append(s.generators, domain.NewPriceGenerator(
			inst, cfg.Omega, cfg.NoiseBound, cfg.ImpactFactor, queue, newRand(),
		))
	}

	return s
}

func newRand() *rand.Rand {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// Start launches the generation loops.
func (s *ExchangeService) Start(ctx context.Context) {
	for _, g := range s.generators {
		s.wg.Add(1)
		go s.quoteLoop(g)
	}
	s.wg.Add(1)
	go s.bookLoop()

	logger.Info(ctx, "exchange service started",
		"instruments", len(s.generators),
		"tick_interval", s.cfg.TickInterval.String(),
		"book_interval", s.cfg.BookInterval.String(),
	)
}

// Stop halts the loops and closes all subscriber streams.
func (s *ExchangeService) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
		s.wg.Wait()
		s.quotes.Close()
		s.books.Close()
		s.trades.Close()
		s.stats.Close()
		s.notifications.Close()
	})
}

// quoteLoop drives one instrument's price generator.
func (s *ExchangeService) quoteLoop(g *domain.PriceGenerator) {
	defer s.wg.Done()
	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	var t int64
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			t++
			q := g.Tick(t)
			s.quotes.Publish(q)
			if s.metrics != nil {
				s.metrics.QuotesGeneratedTotal.WithLabelValues(q.Instrument).Inc()
			}
			if math.Abs(q.PercentChange) > domain.NotifyChangeThreshold {
				s.notifications.Publish(domain.Notification{
					Instrument: q.Instrument,
					Price:      q.Price,
					Magnitude:  q.PercentChange,
				})
			}
		}
	}
}

// bookLoop runs the periodic synthesis cycle while auto-generation is on.
func (s *ExchangeService) bookLoop() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.cfg.BookInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			if s.autoGen.Load() {
				s.runCycle(context.Background())
			}
		}
	}
}

// runCycle synthesizes a baseline ladder, matches the drained queue against
// it and publishes the results. Returns the published book snapshot.
func (s *ExchangeService) runCycle(ctx context.Context) domain.OrderBook {
	s.cycleMu.Lock()
	defer s.cycleMu.Unlock()

	book := s.synth.Baseline()
	orders := s.queue.DrainAll()
	trades := s.engine.Match(orders, &book)

	published := book.Clone()
	s.books.Publish(published)

	for _, tr := range trades {
		s.trades.Publish(tr)
		s.stats.Publish(s.agg.Apply(tr))

		if tr.Volume >= domain.NotifyTradeVolume {
			s.notifications.Publish(domain.Notification{
				Instrument: tr.Instrument,
				Price:      tr.Price,
				Magnitude:  domain.LargeTradeMagnitude,
			})
		}

		if s.publisher != nil {
			if err := s.publisher.PublishTrade(ctx, tr); err != nil {
				logger.Warn(ctx, "trade publish failed", "trade_id", tr.ID, "error", err)
			}
			if snap, ok := s.agg.Snapshot(tr.Instrument); ok {
				if err := s.publisher.PublishStats(ctx, snap); err != nil {
					logger.Warn(ctx, "stats publish failed", "instrument", tr.Instrument, "error", err)
				}
			}
		}

		if s.metrics != nil {
			s.metrics.TradesMatchedTotal.WithLabelValues(tr.Instrument).Inc()
			s.metrics.TradeVolumeTotal.WithLabelValues(tr.Instrument).Add(tr.Volume)
		}
	}

	if s.metrics != nil {
		s.metrics.BookCyclesTotal.Inc()
		s.metrics.BookDepth.WithLabelValues("bids").Set(float64(len(published.Bids)))
		s.metrics.BookDepth.WithLabelValues("asks").Set(float64(len(published.Asks)))
	}

	if len(trades) > 0 {
		logger.Debug(ctx, "matching cycle completed", "orders", len(orders), "trades", len(trades))
	}

	return published
}

// SubmitOrder validates and enqueues an order. Acceptance is the only
// synchronous result; fills surface later on the trade stream.
func (s *ExchangeService) SubmitOrder(ctx context.Context, cmd SubmitOrderCommand) error {
	side, err := domain.ParseSide(cmd.Side)
	if err != nil {
		s.rejected()
		return err
	}

	order := domain.Order{
		Side:       side,
		Instrument: cmd.Instrument,
		Volume:     cmd.Volume,
		LimitPrice: cmd.LimitPrice,
	}
	if err := order.Validate(s.catalog); err != nil {
		s.rejected()
		return err
	}

	s.queue.Submit(order)
	if s.metrics != nil {
		s.metrics.OrdersAcceptedTotal.WithLabelValues(string(side)).Inc()
	}
	logger.Debug(ctx, "order accepted",
		"side", side,
		"instrument", order.Instrument,
		"volume", order.Volume,
		"has_limit", order.LimitPrice != nil,
	)
	return nil
}

func (s *ExchangeService) rejected() {
	if s.metrics != nil {
		s.metrics.OrdersRejectedTotal.Inc()
	}
}

// GenerateOrderBook runs one synthesis cycle on demand, independent of the
// auto-generation toggle, and returns the resulting book.
func (s *ExchangeService) GenerateOrderBook(ctx context.Context) domain.OrderBook {
	return s.runCycle(ctx)
}

// SetAutoGenerate toggles the periodic synthesis cycle.
func (s *ExchangeService) SetAutoGenerate(enabled bool) {
	s.autoGen.Store(enabled)
}

// AutoGenerate reports whether the periodic cycle is enabled.
func (s *ExchangeService) AutoGenerate() bool {
	return s.autoGen.Load()
}

// Instruments returns the catalog in symbol order.
func (s *ExchangeService) Instruments() []domain.Instrument {
	return s.catalog.All()
}

// SampleInterval is the recommended consumer-side sampling cadence for the
// quote stream.
func (s *ExchangeService) SampleInterval() time.Duration {
	return s.cfg.SampleInterval
}

// SubscribeQuotes attaches to the merged per-instrument quote stream.
// Delivery is latest-wins under a slow consumer.
func (s *ExchangeService) SubscribeQuotes() *broadcast.Subscription[domain.Quote] {
	return s.quotes.Subscribe()
}

// SubscribeOrderBook attaches to the per-cycle book snapshot stream.
func (s *ExchangeService) SubscribeOrderBook() *broadcast.Subscription[domain.OrderBook] {
	return s.books.Subscribe()
}

// SubscribeTrades attaches to the trade stream. Delivery is lossless.
func (s *ExchangeService) SubscribeTrades() *broadcast.Subscription[domain.Trade] {
	return s.trades.Subscribe()
}

// SubscribeStats attaches to the per-trade stats snapshot stream.
func (s *ExchangeService) SubscribeStats() *broadcast.Subscription[domain.StatsSnapshot] {
	return s.stats.Subscribe()
}

// SubscribeNotifications attaches to the merged notification stream.
func (s *ExchangeService) SubscribeNotifications() *broadcast.Subscription[domain.Notification] {
	return s.notifications.Subscribe()
}
