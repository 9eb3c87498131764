package types

import (
	"time"

	"github.com/shopspring/decimal"
)

type Candle struct {
	Ticker    string          `json:"ticker"`
	Open      decimal.Decimal `json:"open"`
	Close     decimal.Decimal `json:"close"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Volume    decimal.Decimal `json:"volume"`
	Interval  Interval        `json:"interval"`
	Timestamp time.Time       `json:"timestamp"`
}

// Series is a timestamp-ordered sequence of candles for a single instrument.
// It is treated as read-only once built: the engine and the optimizer share
// one Series across concurrent runs without copying.
type Series struct {
	Ticker   string
	Interval Interval
	Candles  []Candle
}

func NewSeries(ticker string, interval Interval, candles []Candle) *Series {
	return &Series{
		Ticker:   ticker,
		Interval: interval,
		Candles:  candles,
	}
}

func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Candles)
}

// Closes returns the close prices as float64 for indicator computation.
func (s *Series) Closes() []float64 {
	out := make([]float64, len(s.Candles))
	for i, c := range s.Candles {
		out[i] = c.Close.InexactFloat64()
	}
	return out
}

func (s *Series) Highs() []float64 {
	out := make([]float64, len(s.Candles))
	for i, c := range s.Candles {
		out[i] = c.High.InexactFloat64()
	}
	return out
}

func (s *Series) Lows() []float64 {
	out := make([]float64, len(s.Candles))
	for i, c := range s.Candles {
		out[i] = c.Low.InexactFloat64()
	}
	return out
}

// Slice returns the half-open window [start, end) as a new Series sharing the
// backing array. Walk-forward validation uses it to carve train/test windows.
func (s *Series) Slice(start, end int) *Series {
	if start < 0 {
		start = 0
	}
	if end > len(s.Candles) {
		end = len(s.Candles)
	}
	if start > end {
		start = end
	}
	return &Series{
		Ticker:   s.Ticker,
		Interval: s.Interval,
		Candles:  s.Candles[start:end],
	}
}
