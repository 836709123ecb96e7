package quoter

import "errors"

// Fatal-to-the-call errors. Venue parse failures surface as
// venue.ErrInvalidVenueProgram / venue.ErrFailedToDeserializeMarket.
var (
	// ErrInvalidStrategyParams rejects initialization when a required
	// parameter is missing.
	ErrInvalidStrategyParams = errors.New("invalid strategy params")
	// ErrEdgeMustBeNonZero rejects a zero edge at initialization; a zero
	// edge would quote bid == ask and self-match.
	ErrEdgeMustBeNonZero = errors.New("edge must be non-zero")
	// ErrComputedPriceZero rejects a reconciliation pass whose computed
	// bid or ask price is zero, before the size division runs.
	ErrComputedPriceZero = errors.New("computed price is zero")
)
