package engine

import (
	"github.com/schollz/progressbar/v3"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"quantbt/types"
)

// Backtester replays a price series bar by bar, applies the strategy signal
// at each step and maintains position and cash state under the configured fee
// model.
//
// Execution model (fixed, documented):
//   - Fills happen at the current bar's close.
//   - Entry quantity is floored to whole units and sized so that notional
//     plus entry fee fits in the committed cash.
//   - Each entry and exit pays notional * FeeRate.
//   - A position still open after the last bar is force-closed at the final
//     close and flagged ExitEndOfData in the ledger.
type Backtester struct {
	cfg Config
	log *zap.Logger
}

// Result is the full outcome of one run: the summary report, the trade
// ledger and the per-bar equity curve.
type Result struct {
	Report      types.Report
	Trades      []types.Trade
	EquityCurve []types.EquityPoint
	FinalEquity decimal.Decimal
}

func New(cfg Config) (*Backtester, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Backtester{cfg: cfg, log: log}, nil
}

// Run simulates the strategy over the series. The series is read-only and
// may be shared across concurrent runs; all mutable state is run-local.
func (b *Backtester) Run(series *types.Series, strat Strategy) (*Result, error) {
	if strat == nil {
		return nil, ErrNilStrategy
	}
	if series.Len() == 0 {
		return nil, ErrEmptySeries
	}
	if err := strat.Init(series); err != nil {
		return nil, err
	}

	p := newPortfolio(b.cfg.InitialCapital)

	var bar *progressbar.ProgressBar
	if b.cfg.ShowProgress {
		bar = initProgressBar(series.Len(), "Backtesting "+series.Ticker)
	}

	for i := range series.Candles {
		candle := &series.Candles[i]

		sig := types.SignalHold
		exited := false
		if p.isLong() && b.cfg.hasRiskExits() {
			if reason, hit := b.riskExit(p, candle.Close); hit {
				p.close(series.Ticker, candle.Close, b.cfg.FeeRate, candle.Timestamp, reason)
				exited = true
			}
		}
		// A risk exit consumes the bar; the signal is not evaluated.
		if !exited {
			sig = strat.OnBar(i)
		}

		switch sig {
		case types.SignalBuy:
			if !p.isLong() {
				b.openLong(p, series.Ticker, candle)
			}
		case types.SignalSell:
			if p.isLong() {
				p.close(series.Ticker, candle.Close, b.cfg.FeeRate, candle.Timestamp, types.ExitSignal)
			}
		}

		p.markEquity(candle.Timestamp, candle.Close)
		if bar != nil {
			bar.Add(1)
		}
	}

	// Mark-to-market close so every run ends with a complete ledger. The
	// final equity point is restated to reflect the exit fee.
	if p.isLong() {
		last := &series.Candles[series.Len()-1]
		p.close(series.Ticker, last.Close, b.cfg.FeeRate, last.Timestamp, types.ExitEndOfData)
		p.equityCurve[len(p.equityCurve)-1].Equity = p.cash
	}

	report := buildReport(b.cfg.InitialCapital, p, series.Interval)
	return &Result{
		Report:      report,
		Trades:      p.trades,
		EquityCurve: p.equityCurve,
		FinalEquity: report.FinalEquity,
	}, nil
}

// openLong sizes and enters a position at the bar close. A BUY that cannot
// afford a single unit is a logged no-op, not an error: under all-cash sizing
// this only happens on degenerate inputs, but it must never abort a run.
func (b *Backtester) openLong(p *portfolio, ticker string, candle *types.Candle) {
	price := candle.Close
	if !price.IsPositive() {
		b.log.Debug("buy skipped, non-positive close",
			zap.String("ticker", ticker),
			zap.Time("bar", candle.Timestamp))
		return
	}

	committed := p.cash
	if b.cfg.Sizing == SizeFractional {
		committed = p.cash.Mul(b.cfg.PositionPct)
	}

	// Floor so that qty*price*(1+fee) never exceeds the committed cash.
	one := decimal.NewFromInt(1)
	qty := committed.Div(price.Mul(one.Add(b.cfg.FeeRate))).Floor()
	if !qty.IsPositive() {
		b.log.Debug("buy skipped, insufficient capital",
			zap.String("ticker", ticker),
			zap.Time("bar", candle.Timestamp),
			zap.String("cash", p.cash.String()),
			zap.String("price", price.String()))
		return
	}

	p.open(qty, price, b.cfg.FeeRate, candle.Timestamp)
}

// riskExit checks the open position against the configured stop-loss and
// take-profit, both measured as close-to-entry percentage moves.
func (b *Backtester) riskExit(p *portfolio, close decimal.Decimal) (types.ExitReason, bool) {
	entry := p.position.EntryPrice
	if !entry.IsPositive() {
		return "", false
	}
	change := close.Sub(entry).Div(entry)

	if b.cfg.StopLossPct.IsPositive() && change.LessThanOrEqual(b.cfg.StopLossPct.Neg()) {
		return types.ExitStopLoss, true
	}
	if b.cfg.TakeProfitPct.IsPositive() && change.GreaterThanOrEqual(b.cfg.TakeProfitPct) {
		return types.ExitTakeProfit, true
	}
	return "", false
}

func initProgressBar(maxTicks int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(maxTicks,
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}
