package venue

import (
	"encoding/binary"
	"errors"
)

// MarketDiscriminant tags account data that belongs to a recognized venue
// market instance.
const MarketDiscriminant uint64 = 8167313896524341111

// headerSize is the wire size of MarketHeader: five little-endian uint64s.
const headerSize = 5 * 8

var (
	// ErrInvalidVenueProgram is returned when market data does not carry
	// the recognized discriminant.
	ErrInvalidVenueProgram = errors.New("invalid venue program")
	// ErrFailedToDeserializeMarket is returned when market data is too
	// short or otherwise malformed.
	ErrFailedToDeserializeMarket = errors.New("failed to deserialize market")
)

// MarketHeader holds the unit parameters of one market. All prices on the
// venue are integer multiples of ticks and all sizes integer multiples of
// base lots; the header fixes the conversion factors between raw feed
// units, atoms, ticks and lots.
type MarketHeader struct {
	Discriminant                    uint64
	RawBaseUnitsPerBaseUnit         uint64
	TickSizeInQuoteAtomsPerBaseUnit uint64
	QuoteLotSize                    uint64
	TickSizeInQuoteLotsPerBaseLot   uint64
}

// ParseHeader decodes a MarketHeader from raw account data and verifies the
// discriminant.
func ParseHeader(raw []byte) (MarketHeader, error) {
	if len(raw) < headerSize {
		return MarketHeader{}, ErrFailedToDeserializeMarket
	}
	h := MarketHeader{
		Discriminant:                    binary.LittleEndian.Uint64(raw[0:8]),
		RawBaseUnitsPerBaseUnit:         binary.LittleEndian.Uint64(raw[8:16]),
		TickSizeInQuoteAtomsPerBaseUnit: binary.LittleEndian.Uint64(raw[16:24]),
		QuoteLotSize:                    binary.LittleEndian.Uint64(raw[24:32]),
		TickSizeInQuoteLotsPerBaseLot:   binary.LittleEndian.Uint64(raw[32:40]),
	}
	if err := h.Validate(); err != nil {
		return MarketHeader{}, err
	}
	return h, nil
}

// Validate checks the discriminant and that unit parameters are usable.
func (h MarketHeader) Validate() error {
	if h.Discriminant != MarketDiscriminant {
		return ErrInvalidVenueProgram
	}
	if h.TickSizeInQuoteAtomsPerBaseUnit == 0 || h.TickSizeInQuoteLotsPerBaseLot == 0 {
		return ErrFailedToDeserializeMarket
	}
	return nil
}

// Encode serializes the header into its wire layout.
func (h MarketHeader) Encode() []byte {
	raw := make([]byte, headerSize)
	binary.LittleEndian.PutUint64(raw[0:8], h.Discriminant)
	binary.LittleEndian.PutUint64(raw[8:16], h.RawBaseUnitsPerBaseUnit)
	binary.LittleEndian.PutUint64(raw[16:24], h.TickSizeInQuoteAtomsPerBaseUnit)
	binary.LittleEndian.PutUint64(raw[24:32], h.QuoteLotSize)
	binary.LittleEndian.PutUint64(raw[32:40], h.TickSizeInQuoteLotsPerBaseLot)
	return raw
}
