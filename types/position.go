package types

import (
	"time"

	"github.com/shopspring/decimal"
)

type PositionSide string

const (
	PositionFlat PositionSide = "FLAT"
	PositionLong PositionSide = "LONG"
)

// Position is the single open position of a run. The engine models one
// instrument, long-only, no pyramiding: at most one position is open at a
// time and its quantity never changes between entry and exit.
type Position struct {
	Side       PositionSide
	Quantity   decimal.Decimal
	EntryPrice decimal.Decimal
	EntryTime  time.Time
	EntryFee   decimal.Decimal
}

// EquityPoint is one (timestamp, total equity) sample of the equity curve.
// The engine appends exactly one point per simulated bar.
type EquityPoint struct {
	Time   time.Time
	Equity decimal.Decimal
}
