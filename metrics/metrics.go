// Package metrics provides Prometheus instrumentation for the quoting
// engine and its driver loop.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles the quoter's metrics. A nil *Collector is a no-op so
// the core can run uninstrumented in tests.
type Collector struct {
	cycles          prometheus.Counter
	noChangeCycles  prometheus.Counter
	cancelBatches   prometheus.Counter
	ordersPlaced    prometheus.Counter
	reconcileWarns  prometheus.Counter
	transportErrors prometheus.Counter

	fairPriceTicks prometheus.Gauge
	bidTicks       prometheus.Gauge
	askTicks       prometheus.Gauge
	bidSizeLots    prometheus.Gauge
	askSizeLots    prometheus.Gauge

	cycleLatency prometheus.Histogram
}

// New registers the quoter collectors on reg.
func New(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		cycles: factory.NewCounter(prometheus.CounterOpts{
			Name: "quoter_cycles_total",
			Help: "Reconciliation passes run",
		}),
		noChangeCycles: factory.NewCounter(prometheus.CounterOpts{
			Name: "quoter_no_change_cycles_total",
			Help: "Passes that issued no cancel/place actions",
		}),
		cancelBatches: factory.NewCounter(prometheus.CounterOpts{
			Name: "quoter_cancel_batches_total",
			Help: "Batched cancel requests submitted",
		}),
		ordersPlaced: factory.NewCounter(prometheus.CounterOpts{
			Name: "quoter_orders_placed_total",
			Help: "Orders submitted for placement",
		}),
		reconcileWarns: factory.NewCounter(prometheus.CounterOpts{
			Name: "quoter_reconcile_warnings_total",
			Help: "Placed orders not found on post-placement re-read",
		}),
		transportErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "quoter_transport_errors_total",
			Help: "Price fetches or venue requests that failed",
		}),
		fairPriceTicks: factory.NewGauge(prometheus.GaugeOpts{
			Name: "quoter_fair_price_ticks",
			Help: "Fair price used by the last pass, in ticks",
		}),
		bidTicks: factory.NewGauge(prometheus.GaugeOpts{
			Name: "quoter_bid_price_ticks",
			Help: "Target bid price of the last pass, in ticks",
		}),
		askTicks: factory.NewGauge(prometheus.GaugeOpts{
			Name: "quoter_ask_price_ticks",
			Help: "Target ask price of the last pass, in ticks",
		}),
		bidSizeLots: factory.NewGauge(prometheus.GaugeOpts{
			Name: "quoter_bid_size_base_lots",
			Help: "Target bid size of the last pass, in base lots",
		}),
		askSizeLots: factory.NewGauge(prometheus.GaugeOpts{
			Name: "quoter_ask_size_base_lots",
			Help: "Target ask size of the last pass, in base lots",
		}),
		cycleLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "quoter_cycle_latency_seconds",
			Help:    "Wall time of one fetch+reconcile cycle",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (c *Collector) IncCycles() {
	if c != nil {
		c.cycles.Inc()
	}
}

func (c *Collector) IncNoChangeCycles() {
	if c != nil {
		c.noChangeCycles.Inc()
	}
}

func (c *Collector) IncCancelBatches() {
	if c != nil {
		c.cancelBatches.Inc()
	}
}

func (c *Collector) AddOrdersPlaced(n int) {
	if c != nil {
		c.ordersPlaced.Add(float64(n))
	}
}

func (c *Collector) IncReconcileWarnings() {
	if c != nil {
		c.reconcileWarns.Inc()
	}
}

func (c *Collector) IncTransportErrors() {
	if c != nil {
		c.transportErrors.Inc()
	}
}

// SetQuote records the targets computed by the last pass.
func (c *Collector) SetQuote(fairTicks, bidTicks, askTicks, bidLots, askLots uint64) {
	if c == nil {
		return
	}
	c.fairPriceTicks.Set(float64(fairTicks))
	c.bidTicks.Set(float64(bidTicks))
	c.askTicks.Set(float64(askTicks))
	c.bidSizeLots.Set(float64(bidLots))
	c.askSizeLots.Set(float64(askLots))
}

func (c *Collector) ObserveCycleLatency(seconds float64) {
	if c != nil {
		c.cycleLatency.Observe(seconds)
	}
}

// Serve exposes reg on addr under /metrics. Blank addr disables serving.
func Serve(addr string, reg *prometheus.Registry) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	go func() {
		_ = http.ListenAndServe(addr, mux)
	}()
}
