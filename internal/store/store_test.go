package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quoter-go/quoter"
)

func sampleState() quoter.State {
	return quoter.State{
		Trader: "trader-1",
		Market: "SOL-USDC",
		Bid: quoter.TrackedOrder{
			SequenceNumber: ^uint64(41),
			PriceInTicks:   9_997,
			SizeInBaseLots: 10_003,
		},
		Ask: quoter.TrackedOrder{
			SequenceNumber: 42,
			PriceInTicks:   10_003,
			SizeInBaseLots: 9_997,
		},
		LastUpdateSlot:     7,
		LastUpdateUnixNano: 1_700_000_000_000_000_000,
		Params: quoter.Params{
			QuoteEdgeInBps:        3,
			QuoteSizeInQuoteAtoms: 100_000_000,
			Behavior:              quoter.BehaviorJoin,
			PostOnly:              true,
		},
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	want := sampleState()
	require.NoError(t, s.Save(want))

	got, err := s.Load("trader-1", "SOL-USDC")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadMissing(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	_, err = s.Load("trader-1", "SOL-USDC")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveOverwrites(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	first := sampleState()
	require.NoError(t, s.Save(first))

	second := first
	second.Ask.SequenceNumber = 99
	second.LastUpdateSlot = 8
	require.NoError(t, s.Save(second))

	got, err := s.Load("trader-1", "SOL-USDC")
	require.NoError(t, err)
	assert.Equal(t, second, got)
}

func TestStatesKeyedPerPair(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	a := sampleState()
	b := sampleState()
	b.Market = "ETH-USDC"
	b.Ask.PriceInTicks = 20_000
	require.NoError(t, s.Save(a))
	require.NoError(t, s.Save(b))

	gotA, err := s.Load("trader-1", "SOL-USDC")
	require.NoError(t, err)
	gotB, err := s.Load("trader-1", "ETH-USDC")
	require.NoError(t, err)
	assert.NotEqual(t, gotA.Ask.PriceInTicks, gotB.Ask.PriceInTicks)
}

func TestNewRequiresDir(t *testing.T) {
	_, err := New("")
	assert.Error(t, err)
}
