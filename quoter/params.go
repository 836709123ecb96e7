// Package quoter implements the quoting strategy core: price math around an
// externally supplied fair price, a price-improvement policy, and the
// diff-based reconciliation that keeps the venue book in sync with the
// wanted quotes.
package quoter

import (
	"fmt"
	"strings"
)

// Behavior selects how computed quotes interact with the best opposing
// resting quote.
type Behavior uint8

const (
	// BehaviorJoin never posts strictly better than the best existing
	// opposing quote; it joins it instead.
	BehaviorJoin Behavior = iota
	// BehaviorDime allows improving the best opposing quote by at most
	// one tick.
	BehaviorDime
	// BehaviorIgnore uses the edge-derived price unmodified.
	BehaviorIgnore
)

func (b Behavior) String() string {
	switch b {
	case BehaviorJoin:
		return "join"
	case BehaviorDime:
		return "dime"
	case BehaviorIgnore:
		return "ignore"
	default:
		return "unknown"
	}
}

// ParseBehavior parses a case-insensitive behavior name.
func ParseBehavior(s string) (Behavior, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "join":
		return BehaviorJoin, nil
	case "dime":
		return BehaviorDime, nil
	case "ignore":
		return BehaviorIgnore, nil
	default:
		return BehaviorJoin, fmt.Errorf("unknown price improvement behavior %q", s)
	}
}

// Params are the effective strategy parameters.
type Params struct {
	// QuoteEdgeInBps is the half-spread in basis points between the
	// quoted price and the fair price. Always > 0 once initialized.
	QuoteEdgeInBps uint64
	// QuoteSizeInQuoteAtoms is the target notional per side.
	QuoteSizeInQuoteAtoms uint64
	// Behavior determines whether/how to improve on the opposing best.
	Behavior Behavior
	// PostOnly guarantees orders never cross the spread.
	PostOnly bool
}

// ParamsUpdate is the partial-update form of Params: nil fields retain the
// stored value. PostOnly always takes the supplied value.
type ParamsUpdate struct {
	QuoteEdgeInBps        *uint64
	QuoteSizeInQuoteAtoms *uint64
	Behavior              *Behavior
	PostOnly              bool
}

// Apply merges u onto p field by field. A supplied edge of 0 is treated as
// "no change" rather than an instruction, unlike at initialization where a
// zero edge is rejected outright.
func (p *Params) Apply(u ParamsUpdate) {
	if u.QuoteEdgeInBps != nil && *u.QuoteEdgeInBps > 0 {
		p.QuoteEdgeInBps = *u.QuoteEdgeInBps
	}
	if u.QuoteSizeInQuoteAtoms != nil {
		p.QuoteSizeInQuoteAtoms = *u.QuoteSizeInQuoteAtoms
	}
	if u.Behavior != nil {
		p.Behavior = *u.Behavior
	}
	p.PostOnly = u.PostOnly
}

func (u ParamsUpdate) validateForInit() error {
	if u.QuoteEdgeInBps == nil || u.QuoteSizeInQuoteAtoms == nil || u.Behavior == nil {
		return ErrInvalidStrategyParams
	}
	if *u.QuoteEdgeInBps == 0 {
		return ErrEdgeMustBeNonZero
	}
	return nil
}
