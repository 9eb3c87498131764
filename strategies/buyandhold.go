package strategies

import (
	"quantbt/internal/engine"
	"quantbt/types"
)

var _ engine.Strategy = (*BuyAndHold)(nil)

// BuyAndHold is the benchmark baseline: it buys on the second bar and never
// sells, leaving the engine's end-of-data close to realize the trade.
type BuyAndHold struct{}

func NewBuyAndHold() *BuyAndHold { return &BuyAndHold{} }

func (s *BuyAndHold) Name() string { return "buy_and_hold" }

func (s *BuyAndHold) WarmUp() int { return 1 }

func (s *BuyAndHold) Init(*types.Series) error { return nil }

func (s *BuyAndHold) OnBar(i int) types.Signal {
	if i == 1 {
		return types.SignalBuy
	}
	return types.SignalHold
}
