package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExitReason records what closed a trade. End-of-data closes are forced
// mark-to-market exits appended by the engine when a run finishes while a
// position is still open; callers can filter them out of strategy statistics.
type ExitReason string

const (
	ExitSignal     ExitReason = "SIGNAL"
	ExitStopLoss   ExitReason = "STOP_LOSS"
	ExitTakeProfit ExitReason = "TAKE_PROFIT"
	ExitEndOfData  ExitReason = "END_OF_DATA"
)

// Trade is one closed long round trip. Immutable once appended to the ledger.
type Trade struct {
	Ticker     string
	Quantity   decimal.Decimal
	EntryTime  time.Time
	EntryPrice decimal.Decimal
	ExitTime   time.Time
	ExitPrice  decimal.Decimal
	GrossPnL   decimal.Decimal
	Fees       decimal.Decimal
	NetPnL     decimal.Decimal
	ExitReason ExitReason
}
