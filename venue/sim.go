package venue

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/time/rate"
)

// ErrOrderRejected is returned by the simulator when a placement is refused.
var ErrOrderRejected = errors.New("order rejected")

// Sim is an in-memory market implementing both BookView and OrderGateway
// with the venue's sequence-number semantics. It backs paper-trading mode
// and tests; a live deployment swaps in a transport-backed implementation.
type Sim struct {
	key    string
	owner  string
	header MarketHeader

	mu     sync.RWMutex
	bids   map[OrderID]RestingOrder
	asks   map[OrderID]RestingOrder
	seq    uint64
	slot   uint64
	reject map[Side]bool
	sweep  map[Side]bool

	// Limiter paces gateway requests when set.
	Limiter *rate.Limiter

	stats SimStats
}

// SimStats counts gateway activity, for assertions and paper-mode reporting.
type SimStats struct {
	CancelBatches    int
	CanceledOrders   int
	AtomicPlacements int
	SinglePlacements int
}

// NewSim creates an empty simulated market. Orders placed through the
// gateway are attributed to owner; competitor orders are seeded with
// SeedOrder.
func NewSim(key, owner string, header MarketHeader) *Sim {
	return &Sim{
		key:    key,
		owner:  owner,
		header: header,
		bids:   make(map[OrderID]RestingOrder),
		asks:   make(map[OrderID]RestingOrder),
		reject: make(map[Side]bool),
		sweep:  make(map[Side]bool),
	}
}

func (s *Sim) Key() string          { return s.key }
func (s *Sim) Header() MarketHeader { return s.header }

func (s *Sim) book(side Side) map[OrderID]RestingOrder {
	if side == SideBid {
		return s.bids
	}
	return s.asks
}

// BestQuote returns the best price on side among orders whose trader differs
// from excludeTrader, or the side's sentinel.
func (s *Sim) BestQuote(side Side, excludeTrader string) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	best := uint64(0)
	found := false
	for id, o := range s.book(side) {
		if o.Trader == excludeTrader {
			continue
		}
		if !found {
			best = id.PriceInTicks
			found = true
			continue
		}
		if side == SideBid && id.PriceInTicks > best {
			best = id.PriceInTicks
		}
		if side == SideAsk && id.PriceInTicks < best {
			best = id.PriceInTicks
		}
	}
	if !found {
		if side == SideBid {
			return NoBestBid
		}
		return NoBestAsk
	}
	return best
}

func (s *Sim) LookupOrder(side Side, id OrderID) (RestingOrder, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.book(side)[id]
	return o, ok
}

func (s *Sim) NextSequenceNumber() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.seq
}

func (s *Sim) Slot() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.slot
}

// AdvanceSlot moves the venue's logical clock forward.
func (s *Sim) AdvanceSlot() {
	s.mu.Lock()
	s.slot++
	s.mu.Unlock()
}

func (s *Sim) wait(ctx context.Context) error {
	if s.Limiter == nil {
		return nil
	}
	return s.Limiter.Wait(ctx)
}

// CancelOrders removes the given identities from the book. Identities that
// no longer rest are skipped, matching venue behavior for already-filled
// orders in a cancel batch.
func (s *Sim) CancelOrders(ctx context.Context, ids []OrderID) error {
	if err := s.wait(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.CancelBatches++
	for _, id := range ids {
		side := SideFromSequenceNumber(id.SequenceNumber)
		if _, ok := s.book(side)[id]; ok {
			delete(s.book(side), id)
			s.stats.CanceledOrders++
		}
	}
	s.slot++
	return nil
}

// PlaceOrdersAtomic lands every order or none. Sequence numbers are
// consumed in packet order: bids first, then asks.
func (s *Sim) PlaceOrdersAtomic(ctx context.Context, bids, asks []OrderRequest) error {
	if err := s.wait(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.AtomicPlacements++
	if (len(bids) > 0 && s.reject[SideBid]) || (len(asks) > 0 && s.reject[SideAsk]) {
		s.slot++
		return ErrOrderRejected
	}
	for _, req := range bids {
		s.restLocked(SideBid, s.owner, req)
	}
	for _, req := range asks {
		s.restLocked(SideAsk, s.owner, req)
	}
	s.slot++
	return nil
}

// PlaceOrder lands a single order; a rejected side drops the order without
// consuming a sequence number but does not error, mirroring the venue's
// silent handling of unfillable opportunistic quotes.
func (s *Sim) PlaceOrder(ctx context.Context, side Side, req OrderRequest) error {
	if err := s.wait(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.SinglePlacements++
	if !s.reject[side] {
		s.restLocked(side, s.owner, req)
	}
	s.slot++
	return nil
}

func (s *Sim) restLocked(side Side, trader string, req OrderRequest) OrderID {
	n := s.seq
	s.seq++
	id := OrderID{PriceInTicks: req.PriceInTicks, SequenceNumber: n}
	if side == SideBid {
		id.SequenceNumber = ^n
	}
	if s.sweep[side] {
		// Counter consumed, nothing rests: an aggressive taker swept the
		// order the moment it arrived.
		return id
	}
	s.book(side)[id] = RestingOrder{Trader: trader, SizeInBaseLots: req.SizeInBaseLots}
	return id
}

// SeedOrder rests a competitor order directly in the book.
func (s *Sim) SeedOrder(side Side, trader string, priceInTicks, sizeInBaseLots uint64) OrderID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.restLocked(side, trader, OrderRequest{
		PriceInTicks:   priceInTicks,
		SizeInBaseLots: sizeInBaseLots,
	})
}

// FillOrder removes a resting order, simulating an external fill.
func (s *Sim) FillOrder(side Side, id OrderID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.book(side)[id]; !ok {
		return false
	}
	delete(s.book(side), id)
	s.slot++
	return true
}

// RejectSide makes subsequent placements on side fail to rest.
func (s *Sim) RejectSide(side Side, reject bool) {
	s.mu.Lock()
	s.reject[side] = reject
	s.mu.Unlock()
}

// SweepSide makes subsequent placements on side fill in full on arrival:
// the placement succeeds and consumes a sequence number but never rests.
func (s *Sim) SweepSide(side Side, sweep bool) {
	s.mu.Lock()
	s.sweep[side] = sweep
	s.mu.Unlock()
}

// Stats returns a copy of the gateway counters.
func (s *Sim) Stats() SimStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}
