package optimizer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quantbt/internal/engine"
	"quantbt/types"
)

// stepStrategy buys at one fixed bar and sells on the next. Its performance
// depends only on the two closes around that bar, which makes sweep rankings
// easy to stage.
type stepStrategy struct {
	buyBar int
}

func (s *stepStrategy) Name() string             { return "step" }
func (s *stepStrategy) WarmUp() int              { return 0 }
func (s *stepStrategy) Init(*types.Series) error { return nil }
func (s *stepStrategy) OnBar(i int) types.Signal {
	switch i {
	case s.buyBar:
		return types.SignalBuy
	case s.buyBar + 1:
		return types.SignalSell
	}
	return types.SignalHold
}

func stepFactory(params map[string]float64) (engine.Strategy, error) {
	n := int(params["n"])
	if n < 0 {
		return nil, errors.New("negative buy bar")
	}
	return &stepStrategy{buyBar: n}, nil
}

func sweepSeries(closes ...float64) *types.Series {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	candles := make([]types.Candle, len(closes))
	for i, c := range closes {
		price := decimal.NewFromFloat(c)
		candles[i] = types.Candle{
			Ticker:    "TEST",
			Open:      price,
			High:      price,
			Low:       price,
			Close:     price,
			Interval:  types.Hour,
			Timestamp: start.Add(time.Duration(i) * time.Hour),
		}
	}
	return types.NewSeries("TEST", types.Hour, candles)
}

func feeFreeConfig() engine.Config {
	cfg := engine.DefaultConfig()
	cfg.InitialCapital = decimal.NewFromInt(1000)
	cfg.FeeRate = decimal.Zero
	return cfg
}

func TestSweepRanking(t *testing.T) {
	opt, err := New(Config{
		Backtest:  feeFreeConfig(),
		Objective: ObjectiveTotalReturn,
		Workers:   4,
	})
	require.NoError(t, err)

	// Buying at bar 2 catches the 5 -> 40 move, bar 0 the 10 -> 20 move,
	// bar 3 goes nowhere and bar 1 rides 20 -> 5 down.
	series := sweepSeries(10, 20, 5, 40, 40)
	grid := NewGrid().Add("n", 0, 1, 2, 3)

	sweep, err := opt.Run(context.Background(), series, stepFactory, grid)
	require.NoError(t, err)
	require.Len(t, sweep.Results, 4)
	assert.NotEmpty(t, sweep.ID)
	assert.Equal(t, ObjectiveTotalReturn, sweep.Objective)

	var order []float64
	for _, r := range sweep.Results {
		require.NoError(t, r.Err)
		order = append(order, r.Params["n"])
	}
	assert.Equal(t, []float64{2, 0, 3, 1}, order)

	best, ok := sweep.Best()
	require.True(t, ok)
	assert.Equal(t, float64(2), best.Params["n"])
	assert.InDelta(t, 700, best.Report.TotalReturnPct, 1e-9)
}

func TestSweepRecordsFailedCombinations(t *testing.T) {
	opt, err := New(Config{
		Backtest:  feeFreeConfig(),
		Objective: ObjectiveTotalReturn,
	})
	require.NoError(t, err)

	series := sweepSeries(10, 20, 5, 40, 40)
	grid := NewGrid().Add("n", -1, 0, 2)

	sweep, err := opt.Run(context.Background(), series, stepFactory, grid)
	require.NoError(t, err)
	require.Len(t, sweep.Results, 3)

	// Failed combinations rank last, successes stay ordered.
	assert.Equal(t, float64(2), sweep.Results[0].Params["n"])
	assert.Equal(t, float64(0), sweep.Results[1].Params["n"])
	assert.Error(t, sweep.Results[2].Err)
	assert.Equal(t, float64(-1), sweep.Results[2].Params["n"])

	best, ok := sweep.Best()
	require.True(t, ok)
	assert.NoError(t, best.Err)
}

func TestSweepTieBreakByParamKey(t *testing.T) {
	opt, err := New(Config{
		Backtest:  feeFreeConfig(),
		Objective: ObjectiveTotalReturn,
	})
	require.NoError(t, err)

	series := sweepSeries(10, 20, 5, 40, 40)
	// The noise parameter never reaches the strategy, so both combinations
	// produce identical reports and the canonical key decides.
	grid := NewGrid().Add("n", 0).Add("noise", 2, 1)

	sweep, err := opt.Run(context.Background(), series, stepFactory, grid)
	require.NoError(t, err)
	require.Len(t, sweep.Results, 2)
	assert.Equal(t, float64(1), sweep.Results[0].Params["noise"])
	assert.Equal(t, float64(2), sweep.Results[1].Params["noise"])
}

func TestSweepCancellation(t *testing.T) {
	opt, err := New(Config{
		Backtest:  feeFreeConfig(),
		Objective: ObjectiveTotalReturn,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	series := sweepSeries(10, 20, 5, 40, 40)
	grid := NewGrid().Add("n", 0, 1, 2, 3)

	_, err = opt.Run(ctx, series, stepFactory, grid)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSweepEmptyGrid(t *testing.T) {
	opt, err := New(Config{Backtest: feeFreeConfig()})
	require.NoError(t, err)

	_, err = opt.Run(context.Background(), sweepSeries(10, 20), stepFactory, NewGrid())
	assert.ErrorIs(t, err, ErrEmptyGrid)
}

func TestNewValidatesBacktestConfig(t *testing.T) {
	cfg := feeFreeConfig()
	cfg.InitialCapital = decimal.Zero

	_, err := New(Config{Backtest: cfg})
	assert.ErrorIs(t, err, engine.ErrInvalidConfig)
}

func TestObjectiveValue(t *testing.T) {
	report := types.Report{
		TotalReturnPct: 12,
		SharpeRatio:    1.5,
		ProfitFactor:   2.5,
		CalmarRatio:    0.8,
	}

	assert.Equal(t, 1.5, objectiveValue(report, ObjectiveSharpe))
	assert.Equal(t, 12.0, objectiveValue(report, ObjectiveTotalReturn))
	assert.Equal(t, 2.5, objectiveValue(report, ObjectiveProfitFactor))
	assert.Equal(t, 0.8, objectiveValue(report, ObjectiveCalmar))
	assert.Equal(t, 27.0, objectiveValue(report, ObjectiveScore))
	// Unknown objectives fall back to sharpe.
	assert.Equal(t, 1.5, objectiveValue(report, Objective("")))
}
