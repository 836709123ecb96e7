package quoter

import (
	"time"

	"quoter-go/venue"
)

// TrackedOrder records the currently believed resting order on one side.
// A zero size means no resting order is tracked on that side.
type TrackedOrder struct {
	SequenceNumber uint64 `json:"sequence_number"`
	PriceInTicks   uint64 `json:"price_in_ticks"`
	SizeInBaseLots uint64 `json:"size_in_base_lots"`
}

// ID returns the venue identity of the tracked order.
func (t TrackedOrder) ID() venue.OrderID {
	return venue.OrderID{PriceInTicks: t.PriceInTicks, SequenceNumber: t.SequenceNumber}
}

// State is the persisted strategy record for one (trader, market) pair. At
// most one resting bid and one resting ask are tracked at any time; it is
// mutated only by the engine at the end of each reconciliation pass.
type State struct {
	Trader string `json:"trader"`
	Market string `json:"market"`

	Bid TrackedOrder `json:"bid"`
	Ask TrackedOrder `json:"ask"`

	LastUpdateSlot     uint64 `json:"last_update_slot"`
	LastUpdateUnixNano int64  `json:"last_update_unix_nano"`

	Params Params `json:"params"`
}

// Initialize validates params and creates a fresh State with zeroed order
// fields. All three of edge, size and behavior are required here; the
// partial-update semantics apply only to later reconciliation passes.
func Initialize(trader string, market venue.Market, params ParamsUpdate, now time.Time) (*State, error) {
	if err := params.validateForInit(); err != nil {
		return nil, err
	}
	if err := market.Header().Validate(); err != nil {
		return nil, err
	}
	return &State{
		Trader:             trader,
		Market:             market.Key(),
		LastUpdateSlot:     market.Slot(),
		LastUpdateUnixNano: now.UnixNano(),
		Params: Params{
			QuoteEdgeInBps:        *params.QuoteEdgeInBps,
			QuoteSizeInQuoteAtoms: *params.QuoteSizeInQuoteAtoms,
			Behavior:              *params.Behavior,
			PostOnly:              params.PostOnly,
		},
	}, nil
}
