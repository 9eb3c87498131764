package engine

import (
	"quantbt/types"
)

// Strategy generates one signal per bar. Implementations precompute their
// indicator series in Init and must not read bars after index i in OnBar:
// the engine calls OnBar in increasing bar order and relies on the absence of
// look-ahead.
//
// A strategy must emit HOLD while inside its warm-up period or whenever a
// value it needs is NaN. OnBar must be a pure function of the series and the
// configured parameters so that re-running the same series reproduces the
// same signal sequence.
type Strategy interface {
	Name() string

	// WarmUp returns the number of leading bars for which the strategy
	// cannot produce a valid BUY/SELL decision.
	WarmUp() int

	// Init precomputes indicator series for the given price series. It is
	// called once per run, before the first OnBar.
	Init(series *types.Series) error

	// OnBar returns the signal for bar i.
	OnBar(i int) types.Signal
}
