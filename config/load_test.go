package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quoter-go/quoter"
)

const sampleYAML = `
env: test
market:
  key: SOL-USDC
  rawBaseUnitsPerBaseUnit: 1
  tickSizeInQuoteAtomsPerBaseUnit: 10000
  quoteLotSize: 1
  tickSizeInQuoteLotsPerBaseLot: 1
feed:
  ticker: SOL-USD
venue:
  trader: trader-1
strategy:
  quoteEdgeInBps: 5
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "quoter.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "rest", cfg.Feed.Mode)
	assert.Equal(t, 2000, cfg.Feed.RefreshIntervalMs)
	assert.Equal(t, int64(1_000_000), cfg.Feed.QuoteAtomsPerUnit)
	assert.Equal(t, uint64(5), cfg.Strategy.QuoteEdgeInBps) // explicit value kept
	assert.Equal(t, uint64(100_000_000), cfg.Strategy.QuoteSizeInQuoteAtoms)
	assert.Equal(t, "join", cfg.Strategy.PriceImprovement)
	require.NotNil(t, cfg.Strategy.PostOnly)
	assert.True(t, *cfg.Strategy.PostOnly)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadRejectsBadBehavior(t *testing.T) {
	bad := sampleYAML + "  priceImprovement: improve\n"
	_, err := Load(writeConfig(t, bad))
	assert.ErrorContains(t, err, "priceImprovement")
}

func TestLoadRejectsMissingMarketKey(t *testing.T) {
	_, err := Load(writeConfig(t, "env: test\nvenue:\n  trader: t\n"))
	assert.ErrorContains(t, err, "market.key")
}

func TestLoadRejectsBadFeedMode(t *testing.T) {
	withMode := `
env: test
market:
  key: SOL-USDC
  rawBaseUnitsPerBaseUnit: 1
  tickSizeInQuoteAtomsPerBaseUnit: 10000
  quoteLotSize: 1
  tickSizeInQuoteLotsPerBaseLot: 1
feed:
  ticker: SOL-USD
  mode: poll
venue:
  trader: trader-1
strategy:
  quoteEdgeInBps: 5
`
	_, err := Load(writeConfig(t, withMode))
	assert.ErrorContains(t, err, "feed.mode")
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("QUOTER_RPC_URL", "https://rpc.example.com")
	t.Setenv("QUOTER_KEYPAIR_PATH", "/keys/trader.json")

	cfg, err := LoadWithEnvOverrides(writeConfig(t, sampleYAML))
	require.NoError(t, err)
	assert.Equal(t, "https://rpc.example.com", cfg.Venue.RPCURL)
	assert.Equal(t, "/keys/trader.json", cfg.Venue.KeypairPath)
}

func TestStrategyParamsUpdate(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)

	update, err := cfg.Strategy.ParamsUpdate()
	require.NoError(t, err)
	require.NotNil(t, update.QuoteEdgeInBps)
	assert.Equal(t, uint64(5), *update.QuoteEdgeInBps)
	require.NotNil(t, update.Behavior)
	assert.Equal(t, quoter.BehaviorJoin, *update.Behavior)
	assert.True(t, update.PostOnly)
}

func TestMarketHeaderFromConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)
	assert.NoError(t, cfg.Market.Header().Validate())
}
