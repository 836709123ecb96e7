package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilCollectorIsNoOp(t *testing.T) {
	var c *Collector
	// None of these may panic on a nil receiver.
	c.IncCycles()
	c.IncNoChangeCycles()
	c.IncCancelBatches()
	c.AddOrdersPlaced(2)
	c.IncReconcileWarnings()
	c.IncTransportErrors()
	c.SetQuote(1, 2, 3, 4, 5)
	c.ObserveCycleLatency(0.1)
}

func TestCollectorRegisters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)
	c.IncCycles()
	c.SetQuote(10_000, 9_997, 10_003, 10_003, 9_997)

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["quoter_cycles_total"])
	assert.True(t, names["quoter_fair_price_ticks"])
	assert.True(t, names["quoter_bid_price_ticks"])
	assert.True(t, names["quoter_ask_price_ticks"])
}
