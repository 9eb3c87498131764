package strategies

import (
	"fmt"
	"math"

	"quantbt/internal/engine"
	"quantbt/internal/indicator"
	"quantbt/types"
)

var _ engine.Strategy = (*RSI)(nil)

// RSI buys when the index drops below the oversold threshold and sells when
// it rises above the overbought threshold.
type RSI struct {
	period     int
	oversold   float64
	overbought float64

	rsi []float64
}

func NewRSI(period int, oversold, overbought float64) (*RSI, error) {
	if period <= 0 {
		return nil, fmt.Errorf("%w: rsi period must be positive, got %d", ErrInvalidParameter, period)
	}
	if oversold >= overbought {
		return nil, fmt.Errorf("%w: rsi oversold %.1f must be below overbought %.1f", ErrInvalidParameter, oversold, overbought)
	}
	return &RSI{period: period, oversold: oversold, overbought: overbought}, nil
}

func (s *RSI) Name() string { return "rsi" }

func (s *RSI) WarmUp() int { return s.period + 1 }

func (s *RSI) Init(series *types.Series) error {
	s.rsi = indicator.RSI(series.Closes(), s.period)
	return nil
}

func (s *RSI) OnBar(i int) types.Signal {
	v := s.rsi[i]
	if math.IsNaN(v) {
		return types.SignalHold
	}
	if v < s.oversold {
		return types.SignalBuy
	}
	if v > s.overbought {
		return types.SignalSell
	}
	return types.SignalHold
}
