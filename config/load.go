// Package config loads and validates the quoter's YAML configuration, with
// env-var overrides for host-owned credentials and an fsnotify watcher for
// live strategy parameter updates.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"quoter-go/infrastructure/logger"
	"quoter-go/quoter"
	"quoter-go/venue"
)

// AppConfig holds the main runtime configuration.
type AppConfig struct {
	Env         string         `yaml:"env"`
	Market      MarketConfig   `yaml:"market"`
	Feed        FeedConfig     `yaml:"feed"`
	Strategy    StrategyConfig `yaml:"strategy"`
	Venue       VenueConfig    `yaml:"venue"`
	Logging     logger.Config  `yaml:"logging"`
	MetricsAddr string         `yaml:"metricsAddr"`
}

// MarketConfig names the market and its unit parameters. The unit fields
// mirror the on-venue market header and are checked against it on startup.
type MarketConfig struct {
	Key                             string `yaml:"key"`
	RawBaseUnitsPerBaseUnit         uint64 `yaml:"rawBaseUnitsPerBaseUnit"`
	TickSizeInQuoteAtomsPerBaseUnit uint64 `yaml:"tickSizeInQuoteAtomsPerBaseUnit"`
	QuoteLotSize                    uint64 `yaml:"quoteLotSize"`
	TickSizeInQuoteLotsPerBaseLot   uint64 `yaml:"tickSizeInQuoteLotsPerBaseLot"`
}

// Header builds the venue header these unit parameters describe.
func (m MarketConfig) Header() venue.MarketHeader {
	return venue.MarketHeader{
		Discriminant:                    venue.MarketDiscriminant,
		RawBaseUnitsPerBaseUnit:         m.RawBaseUnitsPerBaseUnit,
		TickSizeInQuoteAtomsPerBaseUnit: m.TickSizeInQuoteAtomsPerBaseUnit,
		QuoteLotSize:                    m.QuoteLotSize,
		TickSizeInQuoteLotsPerBaseLot:   m.TickSizeInQuoteLotsPerBaseLot,
	}
}

// FeedConfig selects and tunes the external fair-price source.
type FeedConfig struct {
	Mode              string `yaml:"mode"`    // rest or stream
	BaseURL           string `yaml:"baseURL"` // REST mode only
	Ticker            string `yaml:"ticker"`
	RefreshIntervalMs int    `yaml:"refreshIntervalMs"`
	QuoteAtomsPerUnit int64  `yaml:"quoteAtomsPerUnit"`
}

// StrategyConfig carries the hot-reloadable quoting parameters.
type StrategyConfig struct {
	QuoteEdgeInBps        uint64 `yaml:"quoteEdgeInBps"`
	QuoteSizeInQuoteAtoms uint64 `yaml:"quoteSizeInQuoteAtoms"`
	PriceImprovement      string `yaml:"priceImprovement"` // join, dime or ignore
	PostOnly              *bool  `yaml:"postOnly"`
}

// VenueConfig holds the venue connection and the locally persisted state.
type VenueConfig struct {
	RPCURL      string `yaml:"rpcURL"`
	KeypairPath string `yaml:"keypairPath"`
	Trader      string `yaml:"trader"`
	StatePath   string `yaml:"statePath"`
}

// Load reads YAML config from path, fills defaults and validates.
func Load(path string) (AppConfig, error) {
	var cfg AppConfig
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse yaml: %w", err)
	}
	applyDefaults(&cfg)
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadWithEnvOverrides loads config then overrides host-owned fields from
// env vars if present.
func LoadWithEnvOverrides(path string) (AppConfig, error) {
	cfg, err := Load(path)
	if err != nil {
		return cfg, err
	}
	if v := os.Getenv("QUOTER_RPC_URL"); v != "" {
		cfg.Venue.RPCURL = v
	}
	if v := os.Getenv("QUOTER_KEYPAIR_PATH"); v != "" {
		cfg.Venue.KeypairPath = v
	}
	return cfg, Validate(cfg)
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Feed.Mode == "" {
		cfg.Feed.Mode = "rest"
	}
	if cfg.Feed.Ticker == "" {
		cfg.Feed.Ticker = "SOL-USD"
	}
	if cfg.Feed.RefreshIntervalMs == 0 {
		cfg.Feed.RefreshIntervalMs = 2000
	}
	if cfg.Feed.QuoteAtomsPerUnit == 0 {
		cfg.Feed.QuoteAtomsPerUnit = 1_000_000
	}
	if cfg.Strategy.QuoteEdgeInBps == 0 {
		cfg.Strategy.QuoteEdgeInBps = 3
	}
	if cfg.Strategy.QuoteSizeInQuoteAtoms == 0 {
		cfg.Strategy.QuoteSizeInQuoteAtoms = 100_000_000
	}
	if cfg.Strategy.PriceImprovement == "" {
		cfg.Strategy.PriceImprovement = "join"
	}
	if cfg.Strategy.PostOnly == nil {
		postOnly := true
		cfg.Strategy.PostOnly = &postOnly
	}
	if cfg.Logging.Level == "" {
		cfg.Logging = logger.DefaultConfig()
	}
}

// Validate ensures required fields are present and well-formed.
func Validate(cfg AppConfig) error {
	if cfg.Env == "" {
		return errors.New("env is required")
	}
	if cfg.Market.Key == "" {
		return errors.New("market.key is required")
	}
	if err := cfg.Market.Header().Validate(); err != nil {
		return fmt.Errorf("market unit parameters: %w", err)
	}
	if cfg.Feed.Mode != "rest" && cfg.Feed.Mode != "stream" {
		return fmt.Errorf("feed.mode must be rest or stream, got %q", cfg.Feed.Mode)
	}
	if cfg.Feed.Ticker == "" {
		return errors.New("feed.ticker is required")
	}
	if cfg.Feed.RefreshIntervalMs < 0 {
		return errors.New("feed.refreshIntervalMs must be >= 0")
	}
	if cfg.Feed.QuoteAtomsPerUnit <= 0 {
		return errors.New("feed.quoteAtomsPerUnit must be > 0")
	}
	if cfg.Venue.Trader == "" {
		return errors.New("venue.trader is required")
	}
	if err := ValidateStrategy(cfg.Strategy); err != nil {
		return err
	}
	return nil
}

// ValidateStrategy checks the hot-reloadable subset on its own, so a bad
// live edit can be rejected without touching the running parameters.
func ValidateStrategy(sc StrategyConfig) error {
	if sc.QuoteEdgeInBps == 0 {
		return errors.New("strategy.quoteEdgeInBps must be > 0")
	}
	if sc.QuoteSizeInQuoteAtoms == 0 {
		return errors.New("strategy.quoteSizeInQuoteAtoms must be > 0")
	}
	if _, err := quoter.ParseBehavior(sc.PriceImprovement); err != nil {
		return fmt.Errorf("strategy.priceImprovement: %w", err)
	}
	return nil
}
