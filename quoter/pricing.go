package quoter

import "quoter-go/venue"

// Price math: pure integer arithmetic across the venue's unit system. All
// divisions floor; edges are denominated in basis points of the fair price.

const bpsDenominator = 10_000

// FairPriceInTicks converts a fair price quoted in quote atoms per raw base
// unit into ticks.
func FairPriceInTicks(fairPriceInQuoteAtomsPerRawBaseUnit uint64, h venue.MarketHeader) uint64 {
	return fairPriceInQuoteAtomsPerRawBaseUnit * h.RawBaseUnitsPerBaseUnit / h.TickSizeInQuoteAtomsPerBaseUnit
}

// BidPriceInTicks subtracts the edge from the fair price.
func BidPriceInTicks(fairTicks, edgeInBps uint64) uint64 {
	return fairTicks - edgeInBps*fairTicks/bpsDenominator
}

// AskPriceInTicks adds the edge to the fair price.
func AskPriceInTicks(fairTicks, edgeInBps uint64) uint64 {
	return fairTicks + edgeInBps*fairTicks/bpsDenominator
}

// SizeInQuoteLots converts a notional in quote atoms into quote lots.
func SizeInQuoteLots(quoteSizeInQuoteAtoms uint64, h venue.MarketHeader) uint64 {
	return quoteSizeInQuoteAtoms * h.QuoteLotSize
}

// SizeInBaseLots converts a quote-lot notional into base lots at the given
// price. Because bid and ask prices differ, the two sides generally get
// unequal sizes for the same notional; that asymmetry is intentional. A
// zero price must be rejected before this division runs.
func SizeInBaseLots(sizeInQuoteLots, priceInTicks uint64, h venue.MarketHeader) (uint64, error) {
	if priceInTicks == 0 {
		return 0, ErrComputedPriceZero
	}
	return sizeInQuoteLots / (priceInTicks * h.TickSizeInQuoteLotsPerBaseLot), nil
}
