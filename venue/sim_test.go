package venue

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSim() *Sim {
	return NewSim("MKT", "me", validHeader())
}

func TestBestQuoteExcludesTrader(t *testing.T) {
	s := newTestSim()
	s.SeedOrder(SideBid, "me", 10_000, 1)
	s.SeedOrder(SideBid, "rival", 9_990, 1)

	assert.Equal(t, uint64(9_990), s.BestQuote(SideBid, "me"))
	assert.Equal(t, uint64(10_000), s.BestQuote(SideBid, "rival"))
}

func TestBestQuoteSentinels(t *testing.T) {
	s := newTestSim()
	assert.Equal(t, NoBestBid, s.BestQuote(SideBid, "me"))
	assert.Equal(t, NoBestAsk, s.BestQuote(SideAsk, "me"))
}

func TestBestQuotePicksExtremes(t *testing.T) {
	s := newTestSim()
	s.SeedOrder(SideBid, "rival", 9_990, 1)
	s.SeedOrder(SideBid, "rival", 9_995, 1)
	s.SeedOrder(SideAsk, "rival", 10_010, 1)
	s.SeedOrder(SideAsk, "rival", 10_005, 1)

	assert.Equal(t, uint64(9_995), s.BestQuote(SideBid, "me"))
	assert.Equal(t, uint64(10_005), s.BestQuote(SideAsk, "me"))
}

func TestSequenceNumbersAndIdentities(t *testing.T) {
	s := newTestSim()
	ctx := context.Background()

	require.NoError(t, s.PlaceOrder(ctx, SideBid, OrderRequest{PriceInTicks: 9_997, SizeInBaseLots: 5}))
	require.NoError(t, s.PlaceOrder(ctx, SideAsk, OrderRequest{PriceInTicks: 10_003, SizeInBaseLots: 5}))

	// The bid consumed counter 0 and rests under its complement; the ask
	// consumed counter 1 and rests under the raw value.
	bid, ok := s.LookupOrder(SideBid, OrderID{PriceInTicks: 9_997, SequenceNumber: ^uint64(0)})
	require.True(t, ok)
	assert.Equal(t, "me", bid.Trader)
	_, ok = s.LookupOrder(SideAsk, OrderID{PriceInTicks: 10_003, SequenceNumber: 1})
	require.True(t, ok)
	assert.Equal(t, uint64(2), s.NextSequenceNumber())
}

func TestCancelOrdersSkipsMissing(t *testing.T) {
	s := newTestSim()
	id := s.SeedOrder(SideBid, "me", 9_997, 5)
	ghost := OrderID{PriceInTicks: 9_000, SequenceNumber: ^uint64(99)}

	require.NoError(t, s.CancelOrders(context.Background(), []OrderID{id, ghost}))

	_, ok := s.LookupOrder(SideBid, id)
	assert.False(t, ok)
	stats := s.Stats()
	assert.Equal(t, 1, stats.CancelBatches)
	assert.Equal(t, 1, stats.CanceledOrders)
}

func TestPlaceOrdersAtomicAllOrNothing(t *testing.T) {
	s := newTestSim()
	ctx := context.Background()
	s.RejectSide(SideAsk, true)

	err := s.PlaceOrdersAtomic(ctx,
		[]OrderRequest{{PriceInTicks: 9_997, SizeInBaseLots: 5}},
		[]OrderRequest{{PriceInTicks: 10_003, SizeInBaseLots: 5}})
	assert.ErrorIs(t, err, ErrOrderRejected)

	// Nothing rested, no counter consumed.
	assert.Equal(t, NoBestBid, s.BestQuote(SideBid, ""))
	assert.Equal(t, uint64(0), s.NextSequenceNumber())
}

func TestPlaceOrderRejectedSideDropsSilently(t *testing.T) {
	s := newTestSim()
	ctx := context.Background()
	s.RejectSide(SideAsk, true)

	require.NoError(t, s.PlaceOrder(ctx, SideAsk, OrderRequest{PriceInTicks: 10_003, SizeInBaseLots: 5}))
	assert.Equal(t, NoBestAsk, s.BestQuote(SideAsk, ""))
	assert.Equal(t, uint64(0), s.NextSequenceNumber())
}

func TestSweepConsumesCounterWithoutResting(t *testing.T) {
	s := newTestSim()
	s.SweepSide(SideAsk, true)

	require.NoError(t, s.PlaceOrder(context.Background(), SideAsk, OrderRequest{PriceInTicks: 10_003, SizeInBaseLots: 5}))
	assert.Equal(t, uint64(1), s.NextSequenceNumber())
	_, ok := s.LookupOrder(SideAsk, OrderID{PriceInTicks: 10_003, SequenceNumber: 0})
	assert.False(t, ok)
}

func TestFillOrderRemovesFromBook(t *testing.T) {
	s := newTestSim()
	id := s.SeedOrder(SideAsk, "me", 10_003, 5)
	assert.True(t, s.FillOrder(SideAsk, id))
	assert.False(t, s.FillOrder(SideAsk, id))
	_, ok := s.LookupOrder(SideAsk, id)
	assert.False(t, ok)
}

func TestSlotAdvancesWithActivity(t *testing.T) {
	s := newTestSim()
	start := s.Slot()
	require.NoError(t, s.PlaceOrder(context.Background(), SideBid, OrderRequest{PriceInTicks: 1, SizeInBaseLots: 1}))
	s.AdvanceSlot()
	assert.Equal(t, start+2, s.Slot())
}
