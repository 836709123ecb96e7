package venue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validHeader() MarketHeader {
	return MarketHeader{
		Discriminant:                    MarketDiscriminant,
		RawBaseUnitsPerBaseUnit:         1,
		TickSizeInQuoteAtomsPerBaseUnit: 10_000,
		QuoteLotSize:                    1,
		TickSizeInQuoteLotsPerBaseLot:   1,
	}
}

func TestParseHeaderRoundTrip(t *testing.T) {
	want := validHeader()
	got, err := ParseHeader(want.Encode())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestParseHeaderTooShort(t *testing.T) {
	_, err := ParseHeader(make([]byte, 39))
	assert.ErrorIs(t, err, ErrFailedToDeserializeMarket)
}

func TestParseHeaderWrongDiscriminant(t *testing.T) {
	h := validHeader()
	h.Discriminant = 7
	_, err := ParseHeader(h.Encode())
	assert.ErrorIs(t, err, ErrInvalidVenueProgram)
}

func TestValidateRejectsZeroTickSizes(t *testing.T) {
	h := validHeader()
	h.TickSizeInQuoteAtomsPerBaseUnit = 0
	assert.ErrorIs(t, h.Validate(), ErrFailedToDeserializeMarket)

	h = validHeader()
	h.TickSizeInQuoteLotsPerBaseLot = 0
	assert.ErrorIs(t, h.Validate(), ErrFailedToDeserializeMarket)
}

func TestSideFromSequenceNumber(t *testing.T) {
	assert.Equal(t, SideBid, SideFromSequenceNumber(^uint64(0)))
	assert.Equal(t, SideBid, SideFromSequenceNumber(^uint64(12345)))
	assert.Equal(t, SideAsk, SideFromSequenceNumber(0))
	assert.Equal(t, SideAsk, SideFromSequenceNumber(12345))
}

func TestSideOpposite(t *testing.T) {
	assert.Equal(t, SideAsk, SideBid.Opposite())
	assert.Equal(t, SideBid, SideAsk.Opposite())
}
