package quoter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uptr(v uint64) *uint64     { return &v }
func bptr(b Behavior) *Behavior { return &b }

func TestParseBehavior(t *testing.T) {
	cases := []struct {
		in      string
		want    Behavior
		wantErr bool
	}{
		{"join", BehaviorJoin, false},
		{"DIME", BehaviorDime, false},
		{" ignore ", BehaviorIgnore, false},
		{"", BehaviorJoin, true},
		{"improve", BehaviorJoin, true},
	}
	for _, tc := range cases {
		got, err := ParseBehavior(tc.in)
		if tc.wantErr {
			assert.Error(t, err, "input %q", tc.in)
			continue
		}
		require.NoError(t, err, "input %q", tc.in)
		assert.Equal(t, tc.want, got, "input %q", tc.in)
	}
}

func TestApplyPartialUpdate(t *testing.T) {
	p := Params{
		QuoteEdgeInBps:        3,
		QuoteSizeInQuoteAtoms: 100_000_000,
		Behavior:              BehaviorJoin,
		PostOnly:              true,
	}

	// Only size supplied: edge and behavior retained.
	p.Apply(ParamsUpdate{QuoteSizeInQuoteAtoms: uptr(50_000_000), PostOnly: true})
	assert.Equal(t, uint64(3), p.QuoteEdgeInBps)
	assert.Equal(t, uint64(50_000_000), p.QuoteSizeInQuoteAtoms)
	assert.Equal(t, BehaviorJoin, p.Behavior)

	// Edge of zero means "no change", not "set to zero".
	p.Apply(ParamsUpdate{QuoteEdgeInBps: uptr(0), PostOnly: true})
	assert.Equal(t, uint64(3), p.QuoteEdgeInBps)

	// PostOnly always takes the supplied value.
	p.Apply(ParamsUpdate{PostOnly: false})
	assert.False(t, p.PostOnly)

	p.Apply(ParamsUpdate{QuoteEdgeInBps: uptr(7), Behavior: bptr(BehaviorDime), PostOnly: true})
	assert.Equal(t, uint64(7), p.QuoteEdgeInBps)
	assert.Equal(t, BehaviorDime, p.Behavior)
	assert.True(t, p.PostOnly)
}

func TestValidateForInit(t *testing.T) {
	full := ParamsUpdate{
		QuoteEdgeInBps:        uptr(3),
		QuoteSizeInQuoteAtoms: uptr(100_000_000),
		Behavior:              bptr(BehaviorJoin),
		PostOnly:              true,
	}
	assert.NoError(t, full.validateForInit())

	missing := full
	missing.Behavior = nil
	assert.ErrorIs(t, missing.validateForInit(), ErrInvalidStrategyParams)

	zeroEdge := full
	zeroEdge.QuoteEdgeInBps = uptr(0)
	assert.ErrorIs(t, zeroEdge.validateForInit(), ErrEdgeMustBeNonZero)
}
