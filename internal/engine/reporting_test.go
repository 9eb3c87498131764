package engine

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"quantbt/types"
)

func tradeWithPnL(pnl string) types.Trade {
	return types.Trade{NetPnL: decimal.RequireFromString(pnl)}
}

func equityCurve(start time.Time, values ...string) []types.EquityPoint {
	curve := make([]types.EquityPoint, len(values))
	for i, v := range values {
		curve[i] = types.EquityPoint{
			Time:   start.Add(time.Duration(i) * time.Hour),
			Equity: decimal.RequireFromString(v),
		}
	}
	return curve
}

func TestCalcTradeStats(t *testing.T) {
	tests := []struct {
		name               string
		trades             []types.Trade
		wantWinRate        float64
		wantProfitFactor   float64
		wantMaxLossStreak  int
		wantWinningTrades  int
		wantLosingTrades   int
	}{
		{
			name: "mixed",
			trades: []types.Trade{
				tradeWithPnL("100"), tradeWithPnL("-40"), tradeWithPnL("-10"),
				tradeWithPnL("50"), tradeWithPnL("-25"),
			},
			wantWinRate:       0.4,
			wantProfitFactor:  2, // 150 / 75
			wantMaxLossStreak: 2,
			wantWinningTrades: 2,
			wantLosingTrades:  3,
		},
		{
			name:             "no trades",
			wantWinRate:      0,
			wantProfitFactor: 0,
		},
		{
			name:             "only winners",
			trades:           []types.Trade{tradeWithPnL("10"), tradeWithPnL("20")},
			wantWinRate:      1,
			wantProfitFactor: math.Inf(1),
			wantWinningTrades: 2,
		},
		{
			name:              "only losers",
			trades:            []types.Trade{tradeWithPnL("-10"), tradeWithPnL("-20")},
			wantWinRate:       0,
			wantProfitFactor:  0,
			wantMaxLossStreak: 2,
			wantLosingTrades:  2,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			report := types.Report{}
			wg := waitGroupOf(1)
			calcTradeStats(test.trades, &report, wg)

			if report.WinRate != test.wantWinRate {
				t.Errorf("win rate = %f, want %f", report.WinRate, test.wantWinRate)
			}
			if report.ProfitFactor != test.wantProfitFactor {
				t.Errorf("profit factor = %f, want %f", report.ProfitFactor, test.wantProfitFactor)
			}
			if report.MaxConsecutiveLosses != test.wantMaxLossStreak {
				t.Errorf("max loss streak = %d, want %d", report.MaxConsecutiveLosses, test.wantMaxLossStreak)
			}
			if report.WinningTrades != test.wantWinningTrades {
				t.Errorf("winning trades = %d, want %d", report.WinningTrades, test.wantWinningTrades)
			}
			if report.LosingTrades != test.wantLosingTrades {
				t.Errorf("losing trades = %d, want %d", report.LosingTrades, test.wantLosingTrades)
			}
		})
	}
}

func TestCalcMaxDrawdownPct(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		curve []types.EquityPoint
		want  float64
	}{
		{
			name:  "single drawdown",
			curve: equityCurve(start, "100", "120", "90", "110"),
			want:  25, // (120-90)/120
		},
		{
			name:  "monotonic rise",
			curve: equityCurve(start, "100", "110", "120"),
			want:  0,
		},
		{
			name:  "deepest of two",
			curve: equityCurve(start, "100", "80", "100", "50"),
			want:  50,
		},
		{
			name: "empty",
			want: 0,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := calcMaxDrawdownPct(test.curve)
			if math.Abs(got-test.want) > 1e-9 {
				t.Errorf("max drawdown = %f, want %f", got, test.want)
			}
		})
	}
}

func TestCalcSharpeRatio(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("zero variance returns zero", func(t *testing.T) {
		// Constant 1% per bar: mean > 0 but stddev == 0.
		curve := equityCurve(start, "100", "101", "102.01", "103.0301")
		wg := waitGroupOf(1)
		if got := calcSharpeRatio(curve, types.Hour, wg); got != 0 {
			t.Errorf("sharpe = %f, want 0 on zero-variance returns", got)
		}
	})

	t.Run("flat curve returns zero", func(t *testing.T) {
		curve := equityCurve(start, "100", "100", "100")
		wg := waitGroupOf(1)
		if got := calcSharpeRatio(curve, types.Hour, wg); got != 0 {
			t.Errorf("sharpe = %f, want 0 on flat curve", got)
		}
	})

	t.Run("annualization by interval", func(t *testing.T) {
		curve := equityCurve(start, "100", "102", "101", "104", "103")

		wgA := waitGroupOf(1)
		hourly := calcSharpeRatio(curve, types.Hour, wgA)
		wgB := waitGroupOf(1)
		daily := calcSharpeRatio(curve, types.Day, wgB)

		if hourly == 0 || daily == 0 {
			t.Fatalf("expected nonzero sharpe, got hourly=%f daily=%f", hourly, daily)
		}
		// Same returns, hourly annualizes with sqrt(8760) vs sqrt(365).
		want := math.Sqrt(24)
		if got := hourly / daily; math.Abs(got-want) > 1e-9 {
			t.Errorf("hourly/daily sharpe ratio = %f, want %f", got, want)
		}
	})
}

func TestBuildReport(t *testing.T) {
	initial := decimal.RequireFromString("1000")
	p := newPortfolio(initial)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	p.equityCurve = equityCurve(start, "1000", "1100", "1050", "1200")
	p.trades = []types.Trade{tradeWithPnL("150"), tradeWithPnL("-50"), tradeWithPnL("100")}
	p.totalFees = decimal.RequireFromString("12.5")

	report := buildReport(initial, p, types.Hour)

	if !report.FinalEquity.Equal(decimal.RequireFromString("1200")) {
		t.Errorf("final equity = %s, want 1200", report.FinalEquity)
	}
	if !report.NetProfit.Equal(decimal.RequireFromString("200")) {
		t.Errorf("net profit = %s, want 200", report.NetProfit)
	}
	if math.Abs(report.TotalReturnPct-20) > 1e-9 {
		t.Errorf("total return = %f, want 20", report.TotalReturnPct)
	}
	if report.NumTrades != 3 {
		t.Errorf("num trades = %d, want 3", report.NumTrades)
	}
	if math.Abs(report.WinRate-2.0/3.0) > 1e-9 {
		t.Errorf("win rate = %f, want 2/3", report.WinRate)
	}
	if !report.AvgWin.Equal(decimal.RequireFromString("125")) {
		t.Errorf("avg win = %s, want 125", report.AvgWin)
	}
	if !report.AvgLoss.Equal(decimal.RequireFromString("50")) {
		t.Errorf("avg loss = %s, want 50", report.AvgLoss)
	}
	if !report.TotalFees.Equal(decimal.RequireFromString("12.5")) {
		t.Errorf("total fees = %s, want 12.5", report.TotalFees)
	}

	// Drawdown: peak 1100 to trough 1050.
	wantDD := (1100.0 - 1050.0) / 1100.0 * 100
	if math.Abs(report.MaxDrawdownPct-wantDD) > 1e-9 {
		t.Errorf("max drawdown = %f, want %f", report.MaxDrawdownPct, wantDD)
	}
	if math.Abs(report.CalmarRatio-report.TotalReturnPct/report.MaxDrawdownPct) > 1e-9 {
		t.Errorf("calmar = %f, want return/drawdown", report.CalmarRatio)
	}
}

func waitGroupOf(n int) *sync.WaitGroup {
	var wg sync.WaitGroup
	wg.Add(n)
	return &wg
}
