// Package strategies implements the built-in signal generators: RSI, MACD,
// Bollinger, moving-average cross, a voting Combined aggregator and a
// buy-and-hold baseline. All variants satisfy engine.Strategy.
package strategies

import (
	"errors"
	"fmt"

	"quantbt/internal/engine"
)

var (
	ErrInvalidParameter = errors.New("invalid strategy parameter")
	ErrUnknownStrategy  = errors.New("unknown strategy")
)

// Build constructs a strategy by name from a flat parameter map. Missing
// parameters fall back to the documented defaults. This is the entry point
// used by the config loader and the optimizer grid.
func Build(name string, params map[string]float64) (engine.Strategy, error) {
	p := paramReader{params: params}
	switch name {
	case "rsi":
		return NewRSI(
			p.intOr("period", 14),
			p.or("oversold", 30),
			p.or("overbought", 70),
		)
	case "macd":
		return NewMACD(
			p.intOr("fast", 12),
			p.intOr("slow", 26),
			p.intOr("signal", 9),
		)
	case "bollinger":
		return NewBollinger(
			p.intOr("period", 20),
			p.or("num_std", 2),
		)
	case "ma_cross":
		return NewMACross(
			p.intOr("fast_window", 20),
			p.intOr("slow_window", 50),
			p.or("use_ema", 1) != 0,
		)
	case "combined":
		return buildCombined(p)
	case "buy_and_hold":
		return NewBuyAndHold(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}

// buildCombined wires the default voting aggregate of RSI, MACD and
// Bollinger sub-strategies, each configured from the same parameter map.
func buildCombined(p paramReader) (engine.Strategy, error) {
	rsi, err := NewRSI(p.intOr("period", 14), p.or("oversold", 30), p.or("overbought", 70))
	if err != nil {
		return nil, err
	}
	macd, err := NewMACD(p.intOr("fast", 12), p.intOr("slow", 26), p.intOr("signal", 9))
	if err != nil {
		return nil, err
	}
	boll, err := NewBollinger(p.intOr("bb_period", 20), p.or("num_std", 2))
	if err != nil {
		return nil, err
	}
	return NewCombined(VoteMajority, rsi, macd, boll)
}

type paramReader struct {
	params map[string]float64
}

func (p paramReader) or(key string, def float64) float64 {
	if v, ok := p.params[key]; ok {
		return v
	}
	return def
}

func (p paramReader) intOr(key string, def int) int {
	if v, ok := p.params[key]; ok {
		return int(v)
	}
	return def
}
