package optimizer

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"quantbt/types"
)

var (
	ErrInvalidWindow = errors.New("invalid walk-forward window")
	ErrNoWindows     = errors.New("series too short for any walk-forward window")
)

// WalkForwardConfig partitions the series into sequential train/test window
// pairs, measured in bars. StepBars defaults to TestBars, giving
// non-overlapping test windows that tile the series.
type WalkForwardConfig struct {
	TrainBars int
	TestBars  int
	StepBars  int
}

func (c *WalkForwardConfig) validate() error {
	if c.TrainBars <= 0 {
		return fmt.Errorf("%w: train bars must be positive, got %d", ErrInvalidWindow, c.TrainBars)
	}
	if c.TestBars <= 0 {
		return fmt.Errorf("%w: test bars must be positive, got %d", ErrInvalidWindow, c.TestBars)
	}
	if c.StepBars < 0 {
		return fmt.Errorf("%w: step bars must not be negative, got %d", ErrInvalidWindow, c.StepBars)
	}
	return nil
}

// Window is one train/test pair, half-open bar index ranges.
type Window struct {
	TrainStart int
	TrainEnd   int
	TestStart  int
	TestEnd    int
}

// WindowResult is the out-of-sample outcome of one window: the parameter set
// picked on the train window and its performance on the unseen test window.
type WindowResult struct {
	Window
	BestParams  map[string]float64
	TrainReport types.Report
	TestReport  types.Report
	Err         error
}

// WalkForwardResult aggregates the per-window out-of-sample scores.
type WalkForwardResult struct {
	Objective Objective
	Windows   []WindowResult
	// MeanObjective is the mean of the objective over the test windows
	// that evaluated successfully.
	MeanObjective float64
}

// WalkForward runs the grid search on each train window, picks the best
// parameter set there, and evaluates only that set on the paired test
// window. Parameter selection never reads a bar from its own test window;
// that separation is the point of the whole procedure.
func (o *Optimizer) WalkForward(ctx context.Context, series *types.Series, factory Factory, grid *Grid, wf WalkForwardConfig) (*WalkForwardResult, error) {
	if err := wf.validate(); err != nil {
		return nil, err
	}
	if err := grid.validate(); err != nil {
		return nil, err
	}
	if wf.StepBars == 0 {
		wf.StepBars = wf.TestBars
	}

	windows := makeWindows(series.Len(), wf)
	if len(windows) == 0 {
		return nil, fmt.Errorf("%w: %d bars, need at least %d", ErrNoWindows, series.Len(), wf.TrainBars+wf.TestBars)
	}

	out := &WalkForwardResult{Objective: o.cfg.Objective}
	var objectiveSum float64
	scored := 0

	for _, w := range windows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		wr := WindowResult{Window: w}
		trainSeries := series.Slice(w.TrainStart, w.TrainEnd)

		sweep, err := o.Run(ctx, trainSeries, factory, grid)
		if err != nil {
			return nil, err
		}
		best, ok := sweep.Best()
		if !ok {
			wr.Err = fmt.Errorf("no combination succeeded on train window [%d, %d)", w.TrainStart, w.TrainEnd)
			out.Windows = append(out.Windows, wr)
			continue
		}
		wr.BestParams = best.Params
		wr.TrainReport = best.Report

		testSeries := series.Slice(w.TestStart, w.TestEnd)
		testRes := o.evaluate(testSeries, factory, best.Params)
		if testRes.Err != nil {
			wr.Err = testRes.Err
			out.Windows = append(out.Windows, wr)
			continue
		}
		wr.TestReport = testRes.Report

		objectiveSum += objectiveValue(wr.TestReport, o.cfg.Objective)
		scored++
		out.Windows = append(out.Windows, wr)

		o.log.Debug("walk-forward window done",
			zap.Int("train_start", w.TrainStart),
			zap.Int("test_start", w.TestStart),
			zap.String("best_params", paramKey(best.Params)),
			zap.Float64("test_objective", objectiveValue(wr.TestReport, o.cfg.Objective)))
	}

	if scored > 0 {
		out.MeanObjective = objectiveSum / float64(scored)
	}
	return out, nil
}

func makeWindows(totalBars int, wf WalkForwardConfig) []Window {
	var windows []Window
	for start := 0; start+wf.TrainBars+wf.TestBars <= totalBars; start += wf.StepBars {
		trainEnd := start + wf.TrainBars
		windows = append(windows, Window{
			TrainStart: start,
			TrainEnd:   trainEnd,
			TestStart:  trainEnd,
			TestEnd:    trainEnd + wf.TestBars,
		})
	}
	return windows
}
