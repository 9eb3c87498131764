package types

// Signal is a per-bar strategy decision. Strategies are pure functions of the
// candle history up to and including the current bar, so replaying the same
// series yields the same signal sequence.
type Signal string

const (
	SignalBuy  Signal = "BUY"
	SignalSell Signal = "SELL"
	SignalHold Signal = "HOLD"
)
