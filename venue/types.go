// Package venue defines the read/write surface of the central-limit-order-book
// venue the quoting strategy runs against: book queries, order identities and
// the cancel/place gateway. Implementations dispatch to whatever transport the
// host execution environment provides; this repo ships an in-memory simulator.
package venue

import (
	"context"
	"math"
)

// Side of the book.
type Side uint8

const (
	SideBid Side = iota
	SideAsk
)

func (s Side) String() string {
	switch s {
	case SideBid:
		return "BID"
	case SideAsk:
		return "ASK"
	default:
		return "UNKNOWN"
	}
}

// Opposite returns the other side of the book.
func (s Side) Opposite() Side {
	if s == SideBid {
		return SideAsk
	}
	return SideBid
}

// OrderID uniquely identifies a resting order within one side of the book.
// Sequence numbers are issued monotonically by the venue; bid-side identities
// carry the bitwise complement of the raw counter, ask-side identities carry
// the raw counter directly. This encoding is a protocol invariant of the
// venue, not a local convention.
type OrderID struct {
	PriceInTicks   uint64
	SequenceNumber uint64
}

// SideFromSequenceNumber recovers the side from an order's sequence number.
// Complemented (bid) sequence numbers always have the high bit set because
// the raw counter never reaches 2^63 in practice.
func SideFromSequenceNumber(seq uint64) Side {
	if seq&(1<<63) != 0 {
		return SideBid
	}
	return SideAsk
}

// Sentinel prices returned by BestQuote when no opposing resting order
// exists on the queried side.
const (
	NoBestBid uint64 = 1
	NoBestAsk uint64 = math.MaxUint64
)

// RestingOrder is the live view of an order sitting in the book.
type RestingOrder struct {
	Trader         string
	SizeInBaseLots uint64
}

// OrderRequest describes one limit order to be placed.
type OrderRequest struct {
	PriceInTicks   uint64
	SizeInBaseLots uint64
	ClientOrderID  string
	PostOnly       bool
}

// BookView is a read-only query surface over the venue's current book.
type BookView interface {
	// BestQuote returns the best price on the given side among orders not
	// placed by excludeTrader, or the side's sentinel when none exists.
	BestQuote(side Side, excludeTrader string) uint64
	// LookupOrder resolves an order identity to its live state.
	LookupOrder(side Side, id OrderID) (RestingOrder, bool)
	// NextSequenceNumber returns the raw counter value the venue will
	// assign to the next placed order.
	NextSequenceNumber() uint64
	// Slot is the venue's logical clock.
	Slot() uint64
}

// OrderGateway submits cancel and place requests to the venue.
type OrderGateway interface {
	// CancelOrders cancels the given identities as one batched request.
	CancelOrders(ctx context.Context, ids []OrderID) error
	// PlaceOrdersAtomic places all given orders with all-or-nothing
	// semantics: either every order lands or none does.
	PlaceOrdersAtomic(ctx context.Context, bids, asks []OrderRequest) error
	// PlaceOrder places a single order with no atomicity guarantee.
	PlaceOrder(ctx context.Context, side Side, req OrderRequest) error
}

// Market couples a validated header with a live book view.
type Market interface {
	BookView
	Key() string
	Header() MarketHeader
}
