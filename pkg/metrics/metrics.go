// Package metrics exposes Prometheus instruments for the exchange service.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is the instrument set registered for the service.
type Metrics struct {
	// QuotesGeneratedTotal counts synthetic quotes, labelled by instrument.
	QuotesGeneratedTotal *prometheus.CounterVec
	// OrdersAcceptedTotal counts enqueued orders, labelled by side.
	OrdersAcceptedTotal *prometheus.CounterVec
	// OrdersRejectedTotal counts submissions rejected by validation.
	OrdersRejectedTotal prometheus.Counter
	// TradesMatchedTotal counts emitted trades, labelled by instrument.
	TradesMatchedTotal *prometheus.CounterVec
	// TradeVolumeTotal accumulates matched volume, labelled by instrument.
	TradeVolumeTotal *prometheus.CounterVec
	// BookCyclesTotal counts completed synthesis/matching cycles.
	BookCyclesTotal prometheus.Counter
	// BookDepth reports level counts after the last cycle, labelled by side.
	BookDepth *prometheus.GaugeVec

	registry *prometheus.Registry
}

// New builds and registers the instrument set on a private registry.
func New(serviceName string) *Metrics {
	m := &Metrics{
		QuotesGeneratedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "exchange",
			Subsystem: serviceName,
			Name:      "quotes_generated_total",
			Help:      "Total synthetic quotes generated",
		}, []string{"instrument"}),
		OrdersAcceptedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "exchange",
			Subsystem: serviceName,
			Name:      "orders_accepted_total",
			Help:      "Total orders accepted into the queue",
		}, []string{"side"}),
		OrdersRejectedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "exchange",
			Subsystem: serviceName,
			Name:      "orders_rejected_total",
			Help:      "Total order submissions rejected by validation",
		}),
		TradesMatchedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "exchange",
			Subsystem: serviceName,
			Name:      "trades_matched_total",
			Help:      "Total trades emitted by the matching engine",
		}, []string{"instrument"}),
		TradeVolumeTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "exchange",
			Subsystem: serviceName,
			Name:      "trade_volume_total",
			Help:      "Total matched volume",
		}, []string{"instrument"}),
		BookCyclesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "exchange",
			Subsystem: serviceName,
			Name:      "book_cycles_total",
			Help:      "Total order book synthesis cycles",
		}),
		BookDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "exchange",
			Subsystem: serviceName,
			Name:      "book_depth",
			Help:      "Order book level count after the last cycle",
		}, []string{"side"}),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		m.QuotesGeneratedTotal,
		m.OrdersAcceptedTotal,
		m.OrdersRejectedTotal,
		m.TradesMatchedTotal,
		m.TradeVolumeTotal,
		m.BookCyclesTotal,
		m.BookDepth,
	)

	return m
}

// Handler returns the scrape endpoint for the private registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
