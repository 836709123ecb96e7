package config

import "quoter-go/quoter"

// ParamsUpdate converts the strategy section into the partial update the
// engine consumes. Validation has already run, so the behavior parse cannot
// fail here.
func (sc StrategyConfig) ParamsUpdate() (quoter.ParamsUpdate, error) {
	behavior, err := quoter.ParseBehavior(sc.PriceImprovement)
	if err != nil {
		return quoter.ParamsUpdate{}, err
	}
	update := quoter.ParamsUpdate{
		Behavior: &behavior,
	}
	if sc.QuoteEdgeInBps != 0 {
		edge := sc.QuoteEdgeInBps
		update.QuoteEdgeInBps = &edge
	}
	if sc.QuoteSizeInQuoteAtoms != 0 {
		size := sc.QuoteSizeInQuoteAtoms
		update.QuoteSizeInQuoteAtoms = &size
	}
	if sc.PostOnly != nil {
		update.PostOnly = *sc.PostOnly
	} else {
		update.PostOnly = true
	}
	return update, nil
}
