package quoter

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"quoter-go/metrics"
	"quoter-go/venue"
)

// OrderParams carries the inputs of one reconciliation pass.
type OrderParams struct {
	FairPriceInQuoteAtomsPerRawBaseUnit uint64
	StrategyParams                      ParamsUpdate
}

// Engine orchestrates one reconciliation pass per UpdateQuotes call: price
// math, price-improvement clamping, diffing against the live book, and the
// minimal set of cancel/place actions. A single mutex serializes passes for
// the one (trader, market) pair the engine owns, standing in for the
// atomicity the original execution environment provided.
type Engine struct {
	mu sync.Mutex

	market  venue.Market
	gateway venue.OrderGateway
	state   *State

	log     *zap.Logger
	metrics *metrics.Collector
	now     func() time.Time

	clientOrderID string
}

// New wires an engine around an initialized State.
func New(market venue.Market, gateway venue.OrderGateway, state *State, log *zap.Logger, mc *metrics.Collector) (*Engine, error) {
	if market == nil {
		return nil, fmt.Errorf("market is required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("gateway is required")
	}
	if state == nil {
		return nil, fmt.Errorf("state is required")
	}
	if state.Market != market.Key() {
		return nil, fmt.Errorf("state belongs to market %s, engine bound to %s", state.Market, market.Key())
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		market:        market,
		gateway:       gateway,
		state:         state,
		log:           log,
		metrics:       mc,
		now:           time.Now,
		clientOrderID: uuid.NewSHA1(uuid.NameSpaceOID, []byte(state.Trader)).String(),
	}, nil
}

// State returns a snapshot of the strategy state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return *e.state
}

// target is one side's wanted quote for this pass.
type target struct {
	side    venue.Side
	price   uint64
	size    uint64
	tracked *TrackedOrder
}

// UpdateQuotes runs one reconciliation pass. Parameter updates are merged
// first and timestamps advance even when no order action is taken.
func (e *Engine) UpdateQuotes(ctx context.Context, params OrderParams) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := e.state
	st.LastUpdateSlot = e.market.Slot()
	st.LastUpdateUnixNano = e.now().UnixNano()
	st.Params.Apply(params.StrategyParams)

	header := e.market.Header()
	if err := header.Validate(); err != nil {
		return err
	}

	fairTicks := FairPriceInTicks(params.FairPriceInQuoteAtomsPerRawBaseUnit, header)
	bidTicks := BidPriceInTicks(fairTicks, st.Params.QuoteEdgeInBps)
	askTicks := AskPriceInTicks(fairTicks, st.Params.QuoteEdgeInBps)

	bestBid := e.market.BestQuote(venue.SideBid, st.Trader)
	bestAsk := e.market.BestQuote(venue.SideAsk, st.Trader)
	bidTicks, askTicks = clampToBest(st.Params.Behavior, bidTicks, askTicks, bestBid, bestAsk)

	// Price zero would make the size division undefined; reject before
	// dividing.
	if bidTicks == 0 || askTicks == 0 {
		return ErrComputedPriceZero
	}

	quoteLots := SizeInQuoteLots(st.Params.QuoteSizeInQuoteAtoms, header)
	bidLots, err := SizeInBaseLots(quoteLots, bidTicks, header)
	if err != nil {
		return err
	}
	askLots, err := SizeInBaseLots(quoteLots, askTicks, header)
	if err != nil {
		return err
	}

	e.metrics.IncCycles()
	e.metrics.SetQuote(fairTicks, bidTicks, askTicks, bidLots, askLots)
	e.log.Debug("computed quotes",
		zap.Uint64("fair_ticks", fairTicks),
		zap.Uint64("bid_ticks", bidTicks),
		zap.Uint64("ask_ticks", askTicks),
		zap.Uint64("bid_lots", bidLots),
		zap.Uint64("ask_lots", askLots),
		zap.Uint64("best_bid", bestBid),
		zap.Uint64("best_ask", bestAsk))

	targets := [2]target{
		{side: venue.SideBid, price: bidTicks, size: bidLots, tracked: &st.Bid},
		{side: venue.SideAsk, price: askTicks, size: askLots, tracked: &st.Ask},
	}

	// Diff each side against the live book. A tracked order found with
	// identical price and size is left alone; anything else found goes
	// into the cancel batch. A tracked order missing from the book was
	// filled or canceled externally: nothing to cancel, side changed.
	changed := [2]bool{true, true}
	var cancels []venue.OrderID
	for i, tgt := range targets {
		live, ok := e.market.LookupOrder(tgt.side, tgt.tracked.ID())
		if !ok {
			continue
		}
		if live.SizeInBaseLots == tgt.size && tgt.tracked.PriceInTicks == tgt.price {
			changed[i] = false
			continue
		}
		cancels = append(cancels, tgt.tracked.ID())
	}

	// Snapshot the counter before any placement so the new identities can
	// be predicted afterwards.
	seq := e.market.NextSequenceNumber()

	if len(cancels) > 0 {
		if err := e.gateway.CancelOrders(ctx, cancels); err != nil {
			return fmt.Errorf("cancel orders: %w", err)
		}
		e.metrics.IncCancelBatches()
	}

	if !changed[0] && !changed[1] {
		e.log.Debug("no orders to change")
		e.metrics.IncNoChangeCycles()
		return nil
	}

	if err := e.place(ctx, st, targets, changed); err != nil {
		return err
	}

	e.confirm(targets, changed, seq)
	return nil
}

// clampToBest applies the price-improvement policy. Sentinel best prices
// mean no opposing order exists and impose no constraint.
func clampToBest(b Behavior, bid, ask, bestBid, bestAsk uint64) (uint64, uint64) {
	switch b {
	case BehaviorJoin:
		if bestAsk != venue.NoBestAsk && ask < bestAsk {
			ask = bestAsk
		}
		if bestBid != venue.NoBestBid && bid > bestBid {
			bid = bestBid
		}
	case BehaviorDime:
		if bestAsk != venue.NoBestAsk && ask < bestAsk-1 {
			ask = bestAsk - 1
		}
		if bestBid != venue.NoBestBid && bid > bestBid+1 {
			bid = bestBid + 1
		}
	}
	return bid, ask
}

// place submits the changed sides. Post-only orders, and any behavior that
// may price-improve, go out as one all-or-nothing batch so the strategy is
// never left one-sided by a partial landing. Join without post-only places
// each side independently.
func (e *Engine) place(ctx context.Context, st *State, targets [2]target, changed [2]bool) error {
	atomic := st.Params.PostOnly || st.Params.Behavior != BehaviorJoin

	placed := 0
	if atomic {
		var bids, asks []venue.OrderRequest
		for i, tgt := range targets {
			if !changed[i] {
				continue
			}
			req := e.request(st, tgt)
			if tgt.side == venue.SideBid {
				bids = append(bids, req)
			} else {
				asks = append(asks, req)
			}
			placed++
		}
		if err := e.gateway.PlaceOrdersAtomic(ctx, bids, asks); err != nil {
			return fmt.Errorf("place orders: %w", err)
		}
	} else {
		for i, tgt := range targets {
			if !changed[i] {
				continue
			}
			if err := e.gateway.PlaceOrder(ctx, tgt.side, e.request(st, tgt)); err != nil {
				return fmt.Errorf("place %s: %w", tgt.side, err)
			}
			placed++
		}
	}
	e.metrics.AddOrdersPlaced(placed)
	return nil
}

func (e *Engine) request(st *State, tgt target) venue.OrderRequest {
	return venue.OrderRequest{
		PriceInTicks:   tgt.price,
		SizeInBaseLots: tgt.size,
		ClientOrderID:  e.clientOrderID,
		PostOnly:       st.Params.PostOnly,
	}
}

// confirm re-reads the book and records the actual resting state of the
// just-placed orders. The bid's sequence number is the bitwise complement
// of the counter snapshot; the counter advances past the bid only when the
// bid actually landed. A predicted order that cannot be found was filled
// in full on arrival or rejected: the side's tracked state is left as-is
// and the next pass recovers naturally when the lookup misses again.
func (e *Engine) confirm(targets [2]target, changed [2]bool, seq uint64) {
	if changed[0] {
		id := venue.OrderID{PriceInTicks: targets[0].price, SequenceNumber: ^seq}
		if live, ok := e.market.LookupOrder(venue.SideBid, id); ok {
			*targets[0].tracked = TrackedOrder{
				SequenceNumber: ^seq,
				PriceInTicks:   targets[0].price,
				SizeInBaseLots: live.SizeInBaseLots,
			}
			seq++
			e.log.Debug("placed bid order", zap.Uint64("price_ticks", targets[0].price))
		} else {
			e.log.Warn("bid order not found after placement",
				zap.Uint64("price_ticks", targets[0].price))
			e.metrics.IncReconcileWarnings()
		}
	}
	if changed[1] {
		id := venue.OrderID{PriceInTicks: targets[1].price, SequenceNumber: seq}
		if live, ok := e.market.LookupOrder(venue.SideAsk, id); ok {
			*targets[1].tracked = TrackedOrder{
				SequenceNumber: seq,
				PriceInTicks:   targets[1].price,
				SizeInBaseLots: live.SizeInBaseLots,
			}
			e.log.Debug("placed ask order", zap.Uint64("price_ticks", targets[1].price))
		} else {
			e.log.Warn("ask order not found after placement",
				zap.Uint64("price_ticks", targets[1].price))
			e.metrics.IncReconcileWarnings()
		}
	}
}
