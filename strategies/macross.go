package strategies

import (
	"fmt"
	"math"

	"quantbt/internal/engine"
	"quantbt/internal/indicator"
	"quantbt/types"
)

var _ engine.Strategy = (*MACross)(nil)

// MACross signals on golden/death crosses of a fast and a slow moving
// average. The averages are EMAs by default, SMAs when useEMA is false.
type MACross struct {
	fastWindow int
	slowWindow int
	useEMA     bool

	fast []float64
	slow []float64
}

func NewMACross(fastWindow, slowWindow int, useEMA bool) (*MACross, error) {
	if fastWindow <= 0 || slowWindow <= 0 {
		return nil, fmt.Errorf("%w: ma windows must be positive", ErrInvalidParameter)
	}
	if fastWindow >= slowWindow {
		return nil, fmt.Errorf("%w: fast window %d must be below slow window %d", ErrInvalidParameter, fastWindow, slowWindow)
	}
	return &MACross{fastWindow: fastWindow, slowWindow: slowWindow, useEMA: useEMA}, nil
}

func (s *MACross) Name() string { return "ma_cross" }

func (s *MACross) WarmUp() int { return s.slowWindow + 1 }

func (s *MACross) Init(series *types.Series) error {
	closes := series.Closes()
	if s.useEMA {
		s.fast = indicator.EMA(closes, s.fastWindow)
		s.slow = indicator.EMA(closes, s.slowWindow)
	} else {
		s.fast = indicator.SMA(closes, s.fastWindow)
		s.slow = indicator.SMA(closes, s.slowWindow)
	}
	return nil
}

func (s *MACross) OnBar(i int) types.Signal {
	if i < s.WarmUp() {
		return types.SignalHold
	}
	cur, prev := s.fast[i]-s.slow[i], s.fast[i-1]-s.slow[i-1]
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
