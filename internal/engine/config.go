package engine

import (
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Sizing selects how much cash an entry commits. Quantities are always
// floored to whole units, which changes compounding behavior versus
// fractional fills and is part of the documented execution model.
type Sizing string

const (
	// SizeAllCash invests all available cash into one position per entry.
	SizeAllCash Sizing = "ALL_CASH"
	// SizeFractional invests PositionPct of available cash per entry.
	SizeFractional Sizing = "FRACTIONAL"
)

// Config carries all run parameters. There is no process-global state: every
// Backtester gets its own Config, which makes concurrent optimizer runs safe
// by construction.
type Config struct {
	InitialCapital decimal.Decimal
	// FeeRate is charged on the notional of every entry and exit.
	FeeRate decimal.Decimal
	Sizing  Sizing
	// PositionPct is the fraction of cash committed per entry when Sizing
	// is SizeFractional. Ignored otherwise.
	PositionPct decimal.Decimal
	// StopLossPct and TakeProfitPct are optional risk exits checked on each
	// bar close against the entry price. Zero disables them.
	StopLossPct   decimal.Decimal
	TakeProfitPct decimal.Decimal

	ShowProgress bool
	Logger       *zap.Logger
}

// DefaultConfig returns the documented defaults: 10000 initial capital,
// 0.001 fee rate, all-cash sizing, no stop-loss or take-profit.
func DefaultConfig() Config {
	return Config{
		InitialCapital: decimal.NewFromInt(10000),
		FeeRate:        decimal.NewFromFloat(0.001),
		Sizing:         SizeAllCash,
		PositionPct:    decimal.NewFromInt(1),
	}
}

func (c *Config) validate() error {
	if !c.InitialCapital.IsPositive() {
		return fmt.Errorf("%w: initial capital must be positive, got %s", ErrInvalidConfig, c.InitialCapital)
	}
	if c.FeeRate.IsNegative() {
		return fmt.Errorf("%w: fee rate must not be negative, got %s", ErrInvalidConfig, c.FeeRate)
	}
	switch c.Sizing {
	case SizeAllCash:
	case SizeFractional:
		if !c.PositionPct.IsPositive() || c.PositionPct.GreaterThan(decimal.NewFromInt(1)) {
			return fmt.Errorf("%w: position pct must be in (0, 1], got %s", ErrInvalidConfig, c.PositionPct)
		}
	default:
		return fmt.Errorf("%w: unknown sizing policy %q", ErrInvalidConfig, c.Sizing)
	}
	if c.StopLossPct.IsNegative() || c.TakeProfitPct.IsNegative() {
		return fmt.Errorf("%w: stop-loss and take-profit must not be negative", ErrInvalidConfig)
	}
	return nil
}

func (c *Config) hasRiskExits() bool {
	return c.StopLossPct.IsPositive() || c.TakeProfitPct.IsPositive()
}
