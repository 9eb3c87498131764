package types

import (
	"github.com/shopspring/decimal"
)

// Report is the summary of one completed run. It is a pure reduction of the
// equity curve and the trade ledger: recomputing it from the same inputs
// yields the same numbers.
//
// Conventions:
//   - TotalReturnPct, MaxDrawdownPct and AnnualReturnPct are percentages.
//   - WinRate is a fraction in [0, 1]; 0 when there are no trades.
//   - SharpeRatio is annualized from per-bar equity returns and is 0 when the
//     return standard deviation is 0.
//   - ProfitFactor is +Inf when there are winning trades and no losing ones,
//     0 when there are no winning trades.
type Report struct {
	TotalReturnPct  float64
	AnnualReturnPct float64
	WinRate         float64
	SharpeRatio     float64
	MaxDrawdownPct  float64
	ProfitFactor    float64
	CalmarRatio     float64

	NumTrades            int
	WinningTrades        int
	LosingTrades         int
	MaxConsecutiveLosses int

	InitialCapital decimal.Decimal
	FinalEquity    decimal.Decimal
	NetProfit      decimal.Decimal
	TotalFees      decimal.Decimal
	AvgWin         decimal.Decimal
	AvgLoss        decimal.Decimal
}
