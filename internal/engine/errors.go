package engine

import "errors"

var (
	ErrInvalidConfig = errors.New("invalid backtest config")
	ErrEmptySeries   = errors.New("price series is empty")
	ErrNilStrategy   = errors.New("strategy is nil")
)
