package strategies

import (
	"fmt"
	"math"

	"quantbt/internal/engine"
	"quantbt/internal/indicator"
	"quantbt/types"
)

var _ engine.Strategy = (*MACD)(nil)

// MACD signals on crossings of the MACD line and its signal line: a cross
// above is a buy, a cross below is a sell.
type MACD struct {
	fast         int
	slow         int
	signalPeriod int

	line   []float64
	signal []float64
}

func NewMACD(fast, slow, signalPeriod int) (*MACD, error) {
	if fast <= 0 || slow <= 0 || signalPeriod <= 0 {
		return nil, fmt.Errorf("%w: macd periods must be positive", ErrInvalidParameter)
	}
	if fast >= slow {
		return nil, fmt.Errorf("%w: macd fast %d must be below slow %d", ErrInvalidParameter, fast, slow)
	}
	return &MACD{fast: fast, slow: slow, signalPeriod: signalPeriod}, nil
}

func (s *MACD) Name() string { return "macd" }

// WarmUp is conservative: the EMAs are defined from the first bar, but the
// lines carry no crossover information until the slow EMA and the signal
// smoothing have settled.
func (s *MACD) WarmUp() int { return s.slow + s.signalPeriod }

func (s *MACD) Init(series *types.Series) error {
	s.line, s.signal, _ = indicator.MACD(series.Closes(), s.fast, s.slow, s.signalPeriod)
	return nil
}

func (s *MACD) OnBar(i int) types.Signal {
	if i < s.WarmUp() {
		return types.SignalHold
	}
	cur, prev := s.line[i]-s.signal[i], s.line[i-1]-s.signal[i-1]
	if math.IsNaN(cur) || math.IsNaN(prev) {
		return types.SignalHold
	}
	if cur > 0 && prev <= 0 {
		return types.SignalBuy
	}
	if cur < 0 && prev >= 0 {
		return types.SignalSell
	}
	return types.SignalHold
}
