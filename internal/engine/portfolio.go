package engine

import (
	"time"

	"quantbt/types"

	"github.com/shopspring/decimal"
)

// portfolio is the run-local state of one simulation: cash, the single open
// position, the trade ledger and the equity curve. Each Backtester run gets a
// fresh portfolio, nothing is shared between runs.
type portfolio struct {
	cash        decimal.Decimal
	position    types.Position
	trades      []types.Trade
	equityCurve []types.EquityPoint
	totalFees   decimal.Decimal
}

func newPortfolio(initialCash decimal.Decimal) *portfolio {
	return &portfolio{
		cash:     initialCash,
		position: types.Position{Side: types.PositionFlat},
	}
}

func (p *portfolio) isLong() bool {
	return p.position.Side == types.PositionLong
}

// equity is cash plus the open position marked at the given price.
func (p *portfolio) equity(price decimal.Decimal) decimal.Decimal {
	if !p.isLong() {
		return p.cash
	}
	return p.cash.Add(p.position.Quantity.Mul(price))
}

// markEquity appends the equity-curve point for the current bar. Exactly one
// point is recorded per simulated bar, in timestamp order.
func (p *portfolio) markEquity(ts time.Time, price decimal.Decimal) {
	p.equityCurve = append(p.equityCurve, types.EquityPoint{
		Time:   ts,
		Equity: p.equity(price),
	})
}

// open enters a long position at the given price, deducting notional and fee
// from cash. The caller has already sized qty so that cost plus fee fits.
func (p *portfolio) open(qty, price, feeRate decimal.Decimal, ts time.Time) {
	cost := qty.Mul(price)
	fee := cost.Mul(feeRate)
	p.cash = p.cash.Sub(cost).Sub(fee)
	p.totalFees = p.totalFees.Add(fee)
	p.position = types.Position{
		Side:       types.PositionLong,
		Quantity:   qty,
		EntryPrice: price,
		EntryTime:  ts,
		EntryFee:   fee,
	}
}

// close exits the open position at the given price and appends the completed
// round trip to the trade ledger.
func (p *portfolio) close(ticker string, price, feeRate decimal.Decimal, ts time.Time, reason types.ExitReason) {
	qty := p.position.Quantity
	proceeds := qty.Mul(price)
	fee := proceeds.Mul(feeRate)
	p.cash = p.cash.Add(proceeds).Sub(fee)
	p.totalFees = p.totalFees.Add(fee)

	gross := price.Sub(p.position.EntryPrice).Mul(qty)
	fees := p.position.EntryFee.Add(fee)
	p.trades = append(p.trades, types.Trade{
		Ticker:     ticker,
		Quantity:   qty,
		EntryTime:  p.position.EntryTime,
		EntryPrice: p.position.EntryPrice,
		ExitTime:   ts,
		ExitPrice:  price,
		GrossPnL:   gross,
		Fees:       fees,
		NetPnL:     gross.Sub(fees),
		ExitReason: reason,
	})
	p.position = types.Position{Side: types.PositionFlat}
}
