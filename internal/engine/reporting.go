package engine

import (
	"fmt"
	"math"
	"sync"

	"github.com/shopspring/decimal"

	"quantbt/types"
)

// buildReport reduces the finished run into a Report. The metric formulas are
// exact contracts:
//
//	total_return_pct = (final_equity/initial_equity - 1) * 100
//	win_rate         = winners/trades, 0 when there are no trades
//	sharpe           = mean(r)/stddev(r) * sqrt(periods_per_year), 0 when
//	                   stddev(r) == 0; r are per-bar equity returns and
//	                   stddev is the sample standard deviation
//	max_drawdown_pct = max over t of (peak - equity[t])/peak, as positive %
//	profit_factor    = sum(winning pnl)/|sum(losing pnl)|; +Inf with winners
//	                   and no losers, 0 with no winners
func buildReport(initial decimal.Decimal, p *portfolio, interval types.Interval) types.Report {
	report := types.Report{
		InitialCapital: initial,
		NumTrades:      len(p.trades),
		TotalFees:      p.totalFees,
	}

	finalEquity := initial
	if n := len(p.equityCurve); n > 0 {
		finalEquity = p.equityCurve[n-1].Equity
	}
	report.FinalEquity = finalEquity
	report.NetProfit = finalEquity.Sub(initial)

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		report.TotalReturnPct, report.AnnualReturnPct = calcReturns(initial, finalEquity, p.equityCurve, &wg)
	}()
	go func() {
		calcTradeStats(p.trades, &report, &wg)
	}()
	go func() {
		report.SharpeRatio = calcSharpeRatio(p.equityCurve, interval, &wg)
	}()
	wg.Wait()

	// Drawdown feeds Calmar, so it runs after the fan-out.
	report.MaxDrawdownPct = calcMaxDrawdownPct(p.equityCurve)
	if report.MaxDrawdownPct > 0 {
		report.CalmarRatio = report.TotalReturnPct / report.MaxDrawdownPct
	}

	return report
}

func calcReturns(initial, final decimal.Decimal, curve []types.EquityPoint, wg *sync.WaitGroup) (totalPct, annualPct float64) {
	defer wg.Done()

	if !initial.IsPositive() {
		return 0, 0
	}
	totalReturn := final.Div(initial).InexactFloat64() - 1
	totalPct = totalReturn * 100

	if len(curve) < 2 {
		return totalPct, 0
	}
	days := curve[len(curve)-1].Time.Sub(curve[0].Time).Hours() / 24
	if days <= 0 || totalReturn <= -1 {
		return totalPct, 0
	}
	annualPct = (math.Pow(1+totalReturn, 365/days) - 1) * 100
	return totalPct, annualPct
}

func calcTradeStats(trades []types.Trade, report *types.Report, wg *sync.WaitGroup) {
	defer wg.Done()

	sumWins := decimal.Zero
	sumLosses := decimal.Zero
	winCount := 0
	lossCount := 0
	maxLossStreak := 0
	curStreak := 0

	// The ledger is already in exit-time order.
	for _, tr := range trades {
		switch {
		case tr.NetPnL.IsPositive():
			sumWins = sumWins.Add(tr.NetPnL)
			winCount++
			curStreak = 0
		case tr.NetPnL.IsNegative():
			sumLosses = sumLosses.Add(tr.NetPnL.Abs())
			lossCount++
			curStreak++
			if curStreak > maxLossStreak {
				maxLossStreak = curStreak
			}
		default:
			curStreak = 0
		}
	}

	report.WinningTrades = winCount
	report.LosingTrades = lossCount
	report.MaxConsecutiveLosses = maxLossStreak

	if len(trades) > 0 {
		report.WinRate = float64(winCount) / float64(len(trades))
	}
	if winCount > 0 {
		report.AvgWin = sumWins.Div(decimal.NewFromInt(int64(winCount)))
	} else {
		report.AvgWin = decimal.Zero
	}
	if lossCount > 0 {
		report.AvgLoss = sumLosses.Div(decimal.NewFromInt(int64(lossCount)))
	} else {
		report.AvgLoss = decimal.Zero
	}

	switch {
	case winCount > 0 && lossCount == 0:
		report.ProfitFactor = math.Inf(1)
	case winCount == 0:
		report.ProfitFactor = 0
	default:
		report.ProfitFactor = sumWins.InexactFloat64() / sumLosses.InexactFloat64()
	}
}

func calcSharpeRatio(curve []types.EquityPoint, interval types.Interval, wg *sync.WaitGroup) float64 {
	defer wg.Done()

	returns := barReturns(curve)
	if len(returns) < 2 {
		return 0
	}

	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))

	var varianceSum float64
	for _, r := range returns {
		diff := r - mean
		varianceSum += diff * diff
	}
	std := math.Sqrt(varianceSum / float64(len(returns)-1))
	if std == 0 {
		return 0
	}

	periods := types.PeriodsPerYear(interval)
	if periods <= 0 {
		return 0
	}
	return mean / std * math.Sqrt(periods)
}

func calcMaxDrawdownPct(curve []types.EquityPoint) float64 {
	if len(curve) == 0 {
		return 0
	}

	peak := curve[0].Equity
	maxDDPct := decimal.Zero
	for _, point := range curve {
		if point.Equity.GreaterThan(peak) {
			peak = point.Equity
		}
		if !peak.IsPositive() {
			continue
		}
		dd := peak.Sub(point.Equity).Div(peak)
		if dd.GreaterThan(maxDDPct) {
			maxDDPct = dd
		}
	}
	return maxDDPct.InexactFloat64() * 100
}

// barReturns converts the equity curve into per-bar simple returns.
func barReturns(curve []types.EquityPoint) []float64 {
	if len(curve) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(curve)-1)
	prev := curve[0].Equity
	for _, point := range curve[1:] {
		if prev.IsPositive() {
			r := point.Equity.Div(prev).InexactFloat64() - 1
			returns = append(returns, r)
		}
		prev = point.Equity
	}
	return returns
}

// PrintReport writes a human-readable performance summary to stdout.
func PrintReport(report types.Report) {
	fmt.Println("===== Backtest Report =====")

	fmt.Println("\n-- Capital --")
	fmt.Printf("Initial Capital:       %s\n", report.InitialCapital)
	fmt.Printf("Final Equity:          %s\n", report.FinalEquity.StringFixed(2))
	fmt.Printf("Net Profit:            %s\n", report.NetProfit.StringFixed(2))
	fmt.Printf("Total Return:          %.2f%%\n", report.TotalReturnPct)
	fmt.Printf("Annual Return:         %.2f%%\n", report.AnnualReturnPct)

	fmt.Println("\n-- Trades --")
	fmt.Printf("Total Trades:          %d\n", report.NumTrades)
	fmt.Printf("Winning Trades:        %d\n", report.WinningTrades)
	fmt.Printf("Losing Trades:         %d\n", report.LosingTrades)
	fmt.Printf("Win Rate:              %.2f%%\n", report.WinRate*100)
	fmt.Printf("Avg Win:               %s\n", report.AvgWin.StringFixed(2))
	fmt.Printf("Avg Loss:              %s\n", report.AvgLoss.StringFixed(2))
	fmt.Printf("Max Consecutive Losses:%d\n", report.MaxConsecutiveLosses)

	fmt.Println("\n-- Risk --")
	fmt.Printf("Sharpe Ratio:          %.2f\n", report.SharpeRatio)
	fmt.Printf("Max Drawdown:          %.2f%%\n", report.MaxDrawdownPct)
	fmt.Printf("Profit Factor:         %.2f\n", report.ProfitFactor)
	fmt.Printf("Calmar Ratio:          %.2f\n", report.CalmarRatio)

	fmt.Println("\n-- Costs --")
	fmt.Printf("Total Fees:            %s\n", report.TotalFees.StringFixed(2))

	fmt.Println("===========================")
}
