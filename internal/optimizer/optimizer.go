// Package optimizer searches strategy-parameter space by running independent
// backtests over a parameter grid, optionally with walk-forward validation.
package optimizer

import (
	"context"
	"runtime"
	"sort"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"quantbt/internal/engine"
	"quantbt/types"
)

// Objective selects the metric a sweep ranks by.
type Objective string

const (
	ObjectiveSharpe       Objective = "sharpe"
	ObjectiveTotalReturn  Objective = "total_return"
	ObjectiveProfitFactor Objective = "profit_factor"
	ObjectiveCalmar       Objective = "calmar"
	// ObjectiveScore is the composite total_return_pct + 10*sharpe.
	ObjectiveScore Objective = "score"
)

func objectiveValue(report types.Report, objective Objective) float64 {
	switch objective {
	case ObjectiveTotalReturn:
		return report.TotalReturnPct
	case ObjectiveProfitFactor:
		return report.ProfitFactor
	case ObjectiveCalmar:
		return report.CalmarRatio
	case ObjectiveScore:
		return report.TotalReturnPct + 10*report.SharpeRatio
	default:
		return report.SharpeRatio
	}
}

// Factory builds a fresh strategy instance from a parameter set. Every
// evaluation gets its own instance so runs share no mutable state.
type Factory func(params map[string]float64) (engine.Strategy, error)

// Result is the outcome of one parameter combination. A combination whose
// strategy construction or run fails is recorded with Err rather than
// dropped; it ranks below all successful combinations.
type Result struct {
	Params map[string]float64
	Report types.Report
	Err    error
}

// Sweep is one completed grid search, results sorted best-first.
type Sweep struct {
	ID        string
	Objective Objective
	Results   []Result
}

// Best returns the top-ranked successful result.
func (s *Sweep) Best() (Result, bool) {
	for _, r := range s.Results {
		if r.Err == nil {
			return r, true
		}
	}
	return Result{}, false
}

type Config struct {
	Backtest  engine.Config
	Objective Objective
	// Workers bounds the evaluation pool; defaults to GOMAXPROCS.
	Workers      int
	ShowProgress bool
	Logger       *zap.Logger
}

type Optimizer struct {
	cfg Config
	log *zap.Logger
}

func New(cfg Config) (*Optimizer, error) {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	if cfg.Objective == "" {
		cfg.Objective = ObjectiveSharpe
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	// Per-combination runs never show their own progress bar.
	cfg.Backtest.ShowProgress = false
	if _, err := engine.New(cfg.Backtest); err != nil {
		return nil, err
	}
	return &Optimizer{cfg: cfg, log: log}, nil
}

// Run evaluates every combination of the grid with an independent backtest
// and returns the results ranked by the configured objective. Cancellation
// is cooperative: the context is checked between combinations, never
// mid-simulation.
func (o *Optimizer) Run(ctx context.Context, series *types.Series, factory Factory, grid *Grid) (*Sweep, error) {
	if err := grid.validate(); err != nil {
		return nil, err
	}

	combos := grid.Combinations()
	results := make([]Result, len(combos))

	var bar *progressbar.ProgressBar
	if o.cfg.ShowProgress {
		bar = initSweepProgressBar(len(combos))
	}
	o.log.Debug("starting sweep",
		zap.Int("combinations", len(combos)),
		zap.Int("workers", o.cfg.Workers),
		zap.String("objective", string(o.cfg.Objective)))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.Workers)
	for i, combo := range combos {
		if err := gctx.Err(); err != nil {
			break
		}
		g.Go(func() error {
			results[i] = o.evaluate(series, factory, combo)
			if bar != nil {
				bar.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	o.sortResults(results)
	return &Sweep{
		ID:        uuid.NewString(),
		Objective: o.cfg.Objective,
		Results:   results,
	}, nil
}

// evaluate runs one combination with a fresh strategy and portfolio.
func (o *Optimizer) evaluate(series *types.Series, factory Factory, params map[string]float64) Result {
	res := Result{Params: params}

	strat, err := factory(params)
	if err != nil {
		o.log.Debug("combination rejected", zap.String("params", paramKey(params)), zap.Error(err))
		res.Err = err
		return res
	}

	bt, err := engine.New(o.cfg.Backtest)
	if err != nil {
		res.Err = err
		return res
	}
	run, err := bt.Run(series, strat)
	if err != nil {
		o.log.Debug("combination failed", zap.String("params", paramKey(params)), zap.Error(err))
		res.Err = err
		return res
	}
	res.Report = run.Report
	return res
}

// sortResults ranks best-first: objective descending, then total return
// descending, then canonical parameter order. Failed combinations sort last.
func (o *Optimizer) sortResults(results []Result) {
	objective := o.cfg.Objective
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if (a.Err == nil) != (b.Err == nil) {
			return a.Err == nil
		}
		if a.Err != nil {
			return paramKey(a.Params) < paramKey(b.Params)
		}
		av, bv := objectiveValue(a.Report, objective), objectiveValue(b.Report, objective)
		if av != bv {
			return av > bv
		}
		if a.Report.TotalReturnPct != b.Report.TotalReturnPct {
			return a.Report.TotalReturnPct > b.Report.TotalReturnPct
		}
		return paramKey(a.Params) < paramKey(b.Params)
	})
}

func initSweepProgressBar(combinations int) *progressbar.ProgressBar {
	return progressbar.NewOptions(combinations,
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetElapsedTime(true),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("Optimizing..."),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
}
