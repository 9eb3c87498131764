package strategies

import (
	"fmt"
	"math"

	"quantbt/internal/engine"
	"quantbt/internal/indicator"
	"quantbt/types"
)

var _ engine.Strategy = (*Bollinger)(nil)

// Bollinger buys when the close touches the lower band and sells when it
// touches the upper band.
type Bollinger struct {
	period int
	numStd float64

	closes []float64
	upper  []float64
	lower  []float64
}

func NewBollinger(period int, numStd float64) (*Bollinger, error) {
	if period <= 1 {
		return nil, fmt.Errorf("%w: bollinger period must be greater than 1, got %d", ErrInvalidParameter, period)
	}
	if numStd <= 0 {
		return nil, fmt.Errorf("%w: bollinger num_std must be positive, got %.2f", ErrInvalidParameter, numStd)
	}
	return &Bollinger{period: period, numStd: numStd}, nil
}

func (s *Bollinger) Name() string { return "bollinger" }

func (s *Bollinger) WarmUp() int { return s.period }

func (s *Bollinger) Init(series *types.Series) error {
	s.closes = series.Closes()
	s.upper, _, s.lower = indicator.Bollinger(s.closes, s.period, s.numStd)
	return nil
}

func (s *Bollinger) OnBar(i int) types.Signal {
	up, lo := s.upper[i], s.lower[i]
	if math.IsNaN(up) || math.IsNaN(lo) {
		return types.SignalHold
	}
	close := s.closes[i]
	if close <= lo {
		return types.SignalBuy
	}
	if close >= up {
		return types.SignalSell
	}
	return types.SignalHold
}
