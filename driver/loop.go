// Package driver runs the quoting engine on a fixed cadence: one blocking
// fair-price fetch and one reconciliation pass per cycle, with no overlap
// between iterations.
package driver

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"quoter-go/metrics"
	"quoter-go/pricefeed"
	"quoter-go/quoter"
)

// QuoteUpdater is the slice of the engine the loop drives.
type QuoteUpdater interface {
	UpdateQuotes(ctx context.Context, params quoter.OrderParams) error
}

// Config controls the loop cadence and price scaling.
type Config struct {
	// Interval is the fixed delay between the end of one cycle and the
	// start of the next.
	Interval time.Duration
	// AtomsPerQuoteUnit scales the decimal feed price into quote atoms.
	AtomsPerQuoteUnit int64
}

// Loop is the single-threaded driver. A slow or failed iteration delays
// the next one; nothing queues and nothing runs concurrently.
type Loop struct {
	cfg    Config
	feed   pricefeed.Feed
	engine QuoteUpdater

	// Params supplies the partial update forwarded with every cycle,
	// so hot-reloaded parameters reach the engine on its next pass.
	Params func() quoter.ParamsUpdate
	// OnPass runs after every completed cycle, successful or not.
	OnPass func()

	log     *zap.Logger
	metrics *metrics.Collector

	stopChan chan struct{}
	doneChan chan struct{}
}

// New wires a driver loop.
func New(cfg Config, feed pricefeed.Feed, engine QuoteUpdater, log *zap.Logger, mc *metrics.Collector) (*Loop, error) {
	if feed == nil {
		return nil, errors.New("feed is required")
	}
	if engine == nil {
		return nil, errors.New("engine is required")
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 2 * time.Second
	}
	if cfg.AtomsPerQuoteUnit <= 0 {
		cfg.AtomsPerQuoteUnit = 1_000_000
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Loop{
		cfg:      cfg,
		feed:     feed,
		engine:   engine,
		log:      log,
		metrics:  mc,
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}, nil
}

// Run cycles until ctx is canceled or Stop is called. Transport failures
// are logged and deferred to the next tick; they never abort the loop.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.doneChan)
	for {
		l.cycle(ctx)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.stopChan:
			return nil
		case <-time.After(l.cfg.Interval):
		}
	}
}

// Stop signals the loop to exit and waits for the current cycle to finish.
func (l *Loop) Stop() {
	select {
	case <-l.stopChan:
	default:
		close(l.stopChan)
	}
	<-l.doneChan
}

func (l *Loop) cycle(ctx context.Context) {
	start := time.Now()
	defer func() {
		l.metrics.ObserveCycleLatency(time.Since(start).Seconds())
		if l.OnPass != nil {
			l.OnPass()
		}
	}()

	price, err := l.feed.FairPrice(ctx)
	if err != nil {
		l.log.Warn("fair price fetch failed", zap.Error(err))
		l.metrics.IncTransportErrors()
		return
	}

	var update quoter.ParamsUpdate
	if l.Params != nil {
		update = l.Params()
	}
	params := quoter.OrderParams{
		FairPriceInQuoteAtomsPerRawBaseUnit: pricefeed.ToQuoteAtoms(price, l.cfg.AtomsPerQuoteUnit),
		StrategyParams:                      update,
	}

	l.log.Debug("updating quotes", zap.String("fair_price", price.String()))
	if err := l.engine.UpdateQuotes(ctx, params); err != nil {
		l.log.Error("update quotes failed", zap.Error(err))
		l.metrics.IncTransportErrors()
	}
}
