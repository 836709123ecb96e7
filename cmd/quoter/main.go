package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"quoter-go/config"
	"quoter-go/driver"
	"quoter-go/infrastructure/logger"
	"quoter-go/internal/store"
	"quoter-go/metrics"
	"quoter-go/pricefeed"
	"quoter-go/quoter"
	"quoter-go/venue"
)

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	cfgPath := flag.String("config", "configs/quoter.yaml", "config file path")
	metricsAddr := flag.String("metricsAddr", "", "metrics listen address, overrides config")
	venueRate := flag.Float64("venueRate", 10, "venue request rate limit per second")
	venueBurst := flag.Int("venueBurst", 20, "venue request burst")
	flag.Parse()

	cfg, err := config.LoadWithEnvOverrides(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		return err
	}
	if *metricsAddr != "" {
		cfg.MetricsAddr = *metricsAddr
	}

	log, err := logger.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		return err
	}
	defer log.Close()

	registry := prometheus.NewRegistry()
	collector := metrics.New(registry)
	metrics.Serve(cfg.MetricsAddr, registry)

	// Paper venue backed by the market unit parameters from config. The
	// limiter paces gateway calls the way a remote venue would.
	market := venue.NewSim(cfg.Market.Key, cfg.Venue.Trader, cfg.Market.Header())
	market.Limiter = rate.NewLimiter(rate.Limit(*venueRate), *venueBurst)

	update, err := cfg.Strategy.ParamsUpdate()
	if err != nil {
		log.Error("strategy config", zap.Error(err))
		return err
	}

	st, fileStore, err := loadOrInitState(cfg, market, update, log)
	if err != nil {
		log.Error("init state", zap.Error(err))
		return err
	}

	engine, err := quoter.New(market, market, st, log.Named("engine").Logger, collector)
	if err != nil {
		log.Error("init engine", zap.Error(err))
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	feed, err := buildFeed(ctx, cfg.Feed, log)
	if err != nil {
		log.Error("init price feed", zap.Error(err))
		return err
	}

	// Hot-reloaded strategy parameters reach the engine through the
	// holder: the watcher swaps the update, the loop forwards it on its
	// next cycle.
	holder := &paramsHolder{update: update}
	watcher, err := config.NewWatcher(*cfgPath, config.DefaultWatchConfig(), log.Named("config").Logger, func(next config.AppConfig) {
		nextUpdate, err := next.Strategy.ParamsUpdate()
		if err != nil {
			log.Warn("reloaded strategy config rejected", zap.Error(err))
			return
		}
		holder.set(nextUpdate)
	})
	if err != nil {
		log.Error("init config watcher", zap.Error(err))
		return err
	}
	if err := watcher.Start(ctx); err != nil {
		log.Error("start config watcher", zap.Error(err))
		return err
	}
	defer watcher.Stop()

	loop, err := driver.New(driver.Config{
		Interval:          time.Duration(cfg.Feed.RefreshIntervalMs) * time.Millisecond,
		AtomsPerQuoteUnit: cfg.Feed.QuoteAtomsPerUnit,
	}, feed, engine, log.Named("driver").Logger, collector)
	if err != nil {
		log.Error("init driver", zap.Error(err))
		return err
	}
	loop.Params = holder.get
	loop.OnPass = func() {
		if fileStore == nil {
			return
		}
		if err := fileStore.Save(engine.State()); err != nil {
			log.Warn("persist state failed", zap.Error(err))
		}
	}

	go notifySystemd(ctx, log.Logger)

	errCh := make(chan error, 1)
	go func() { errCh <- loop.Run(ctx) }()

	log.Info("quoter started",
		zap.String("market", cfg.Market.Key),
		zap.String("trader", cfg.Venue.Trader),
		zap.String("ticker", cfg.Feed.Ticker),
		zap.String("feed_mode", cfg.Feed.Mode))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		log.Info("shutting down", zap.String("signal", sig.String()))
		_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
		cancel()
		loop.Stop()
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Error("driver exited", zap.Error(err))
			return err
		}
	}
	return nil
}

// loadOrInitState resumes from persisted state when one exists, so a
// restart keeps tracking the orders already resting on the venue.
func loadOrInitState(cfg config.AppConfig, market venue.Market, update quoter.ParamsUpdate, log *logger.Logger) (*quoter.State, *store.FileStore, error) {
	if cfg.Venue.StatePath == "" {
		st, err := quoter.Initialize(cfg.Venue.Trader, market, update, time.Now())
		return st, nil, err
	}
	fileStore, err := store.New(cfg.Venue.StatePath)
	if err != nil {
		return nil, nil, err
	}
	saved, err := fileStore.Load(cfg.Venue.Trader, cfg.Market.Key)
	if err == nil {
		log.Info("resumed persisted state",
			zap.Uint64("bid_seq", saved.Bid.SequenceNumber),
			zap.Uint64("ask_seq", saved.Ask.SequenceNumber))
		saved.Params.Apply(update)
		return &saved, fileStore, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, nil, err
	}
	st, err := quoter.Initialize(cfg.Venue.Trader, market, update, time.Now())
	if err != nil {
		return nil, nil, err
	}
	if err := fileStore.Save(*st); err != nil {
		return nil, nil, err
	}
	return st, fileStore, nil
}

func buildFeed(ctx context.Context, fc config.FeedConfig, log *logger.Logger) (pricefeed.Feed, error) {
	switch fc.Mode {
	case "stream":
		stream := pricefeed.NewStream(fc.Ticker, log.Named("pricefeed").Logger)
		go func() {
			if err := stream.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Warn("price stream exited", zap.Error(err))
			}
		}()
		return stream, nil
	default:
		feed := pricefeed.NewCoinbaseSpot(fc.Ticker)
		if fc.BaseURL != "" {
			feed.BaseURL = fc.BaseURL
		}
		return feed, nil
	}
}

// notifySystemd reports readiness and feeds the watchdog when one is armed.
func notifySystemd(ctx context.Context, log *zap.Logger) {
	if ok, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		log.Debug("sd_notify ready failed", zap.Error(err))
	} else if !ok {
		return
	}
	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil || interval == 0 {
		return
	}
	ticker := time.NewTicker(interval / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = daemon.SdNotify(false, daemon.SdNotifyWatchdog)
		}
	}
}

// paramsHolder hands the latest hot-reloaded update to the driver loop.
type paramsHolder struct {
	mu     sync.Mutex
	update quoter.ParamsUpdate
}

func (h *paramsHolder) set(u quoter.ParamsUpdate) {
	h.mu.Lock()
	h.update = u
	h.mu.Unlock()
}

func (h *paramsHolder) get() quoter.ParamsUpdate {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.update
}
