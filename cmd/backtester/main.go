package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"quantbt/internal/config"
	"quantbt/internal/engine"
	"quantbt/internal/optimizer"
	"quantbt/internal/repository"
	"quantbt/strategies"
	"quantbt/types"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	mode := flag.String("mode", "backtest", "run mode: backtest, optimize or walkforward")
	strategyName := flag.String("strategy", "", "strategy name, overrides the config value")
	csvPath := flag.String("csv", "", "optional path to write the trade ledger as CSV")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *strategyName != "" {
		cfg.Strategy.Name = *strategyName
	}

	logger, err := buildLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, cfg, logger, *mode, *csvPath); err != nil {
		logger.Fatal("run failed", zap.String("mode", *mode), zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger, mode, csvPath string) error {
	db, err := repository.NewDatabase(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	series, err := loadSeries(ctx, db, cfg.Data)
	if err != nil {
		return err
	}
	logger.Info("loaded series",
		zap.String("ticker", series.Ticker),
		zap.String("interval", string(series.Interval)),
		zap.Int("bars", series.Len()))

	btCfg, err := backtestConfig(cfg.Backtest, logger)
	if err != nil {
		return err
	}

	switch mode {
	case "backtest":
		return runBacktest(cfg, btCfg, series, csvPath)
	case "optimize":
		return runOptimize(ctx, cfg, btCfg, series, logger)
	case "walkforward":
		return runWalkForward(ctx, cfg, btCfg, series, logger)
	default:
		return fmt.Errorf("unknown mode %q", mode)
	}
}

func runBacktest(cfg *config.Config, btCfg engine.Config, series *types.Series, csvPath string) error {
	strat, err := strategies.Build(cfg.Strategy.Name, cfg.Strategy.Params)
	if err != nil {
		return err
	}
	bt, err := engine.New(btCfg)
	if err != nil {
		return err
	}
	result, err := bt.Run(series, strat)
	if err != nil {
		return err
	}

	engine.PrintReport(result.Report)
	if csvPath != "" {
		if err := engine.WriteTradesCSVFile(csvPath, result.Trades); err != nil {
			return err
		}
		fmt.Printf("\nTrade ledger written to %s\n", csvPath)
	}
	return nil
}

func runOptimize(ctx context.Context, cfg *config.Config, btCfg engine.Config, series *types.Series, logger *zap.Logger) error {
	opt, grid, factory, err := buildOptimizer(cfg, btCfg, logger)
	if err != nil {
		return err
	}

	sweep, err := opt.Run(ctx, series, factory, grid)
	if err != nil {
		return err
	}
	printSweep(sweep)
	return nil
}

func runWalkForward(ctx context.Context, cfg *config.Config, btCfg engine.Config, series *types.Series, logger *zap.Logger) error {
	opt, grid, factory, err := buildOptimizer(cfg, btCfg, logger)
	if err != nil {
		return err
	}

	wf := optimizer.WalkForwardConfig{
		TrainBars: cfg.Optimizer.WalkForward.TrainBars,
		TestBars:  cfg.Optimizer.WalkForward.TestBars,
		StepBars:  cfg.Optimizer.WalkForward.StepBars,
	}
	result, err := opt.WalkForward(ctx, series, factory, grid, wf)
	if err != nil {
		return err
	}
	printWalkForward(result)
	return nil
}

func buildOptimizer(cfg *config.Config, btCfg engine.Config, logger *zap.Logger) (*optimizer.Optimizer, *optimizer.Grid, optimizer.Factory, error) {
	if len(cfg.Optimizer.Grid) == 0 {
		return nil, nil, nil, fmt.Errorf("optimizer.grid is empty in config")
	}

	// Sort the grid names so enumeration order does not depend on YAML map
	// iteration.
	names := make([]string, 0, len(cfg.Optimizer.Grid))
	for name := range cfg.Optimizer.Grid {
		names = append(names, name)
	}
	sort.Strings(names)

	grid := optimizer.NewGrid()
	for _, name := range names {
		grid.Add(name, cfg.Optimizer.Grid[name]...)
	}

	opt, err := optimizer.New(optimizer.Config{
		Backtest:     btCfg,
		Objective:    optimizer.Objective(cfg.Optimizer.Objective),
		Workers:      cfg.Optimizer.Workers,
		ShowProgress: cfg.Backtest.ShowProgress,
		Logger:       logger,
	})
	if err != nil {
		return nil, nil, nil, err
	}

	strategyName := cfg.Strategy.Name
	base := cfg.Strategy.Params
	factory := func(params map[string]float64) (engine.Strategy, error) {
		merged := make(map[string]float64, len(base)+len(params))
		for k, v := range base {
			merged[k] = v
		}
		for k, v := range params {
			merged[k] = v
		}
		return strategies.Build(strategyName, merged)
	}
	return opt, grid, factory, nil
}

func loadSeries(ctx context.Context, db *repository.Database, data config.Data) (*types.Series, error) {
	interval, ok := types.ConvertInterval[data.Interval]
	if !ok {
		return nil, fmt.Errorf("interval %q %w", data.Interval, repository.ErrIntervalNotSupported)
	}
	start, err := time.Parse("2006-01-02", data.Start)
	if err != nil {
		return nil, fmt.Errorf("parse start date: %w", err)
	}
	end, err := time.Parse("2006-01-02", data.End)
	if err != nil {
		return nil, fmt.Errorf("parse end date: %w", err)
	}
	return db.GetSeries(ctx, data.Ticker, interval, start, end)
}

func backtestConfig(bt config.Backtest, logger *zap.Logger) (engine.Config, error) {
	cfg := engine.DefaultConfig()
	cfg.Logger = logger
	cfg.ShowProgress = bt.ShowProgress

	var err error
	if bt.InitialCapital != "" {
		if cfg.InitialCapital, err = decimal.NewFromString(bt.InitialCapital); err != nil {
			return cfg, fmt.Errorf("parse initial_capital: %w", err)
		}
	}
	if bt.FeeRate != "" {
		if cfg.FeeRate, err = decimal.NewFromString(bt.FeeRate); err != nil {
			return cfg, fmt.Errorf("parse fee_rate: %w", err)
		}
	}
	if bt.PositionPct > 0 && bt.PositionPct < 1 {
		cfg.Sizing = engine.SizeFractional
		cfg.PositionPct = decimal.NewFromFloat(bt.PositionPct)
	}
	if bt.StopLossPct > 0 {
		cfg.StopLossPct = decimal.NewFromFloat(bt.StopLossPct)
	}
	if bt.TakeProfitPct > 0 {
		cfg.TakeProfitPct = decimal.NewFromFloat(bt.TakeProfitPct)
	}
	return cfg, nil
}

func buildLogger(cfg config.Logging) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	var zcfg zap.Config
	if cfg.Format == "json" {
		zcfg = zap.NewProductionConfig()
	} else {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	return zcfg.Build()
}

func printSweep(sweep *optimizer.Sweep) {
	fmt.Printf("===== Sweep %s =====\n", sweep.ID)
	fmt.Printf("Objective: %s, combinations: %d\n\n", sweep.Objective, len(sweep.Results))

	top := sweep.Results
	if len(top) > 10 {
		top = top[:10]
	}
	for i, r := range top {
		if r.Err != nil {
			fmt.Printf("%2d. %v FAILED: %v\n", i+1, r.Params, r.Err)
			continue
		}
		fmt.Printf("%2d. %v  return=%.2f%%  sharpe=%.2f  maxdd=%.2f%%  trades=%d\n",
			i+1, r.Params, r.Report.TotalReturnPct, r.Report.SharpeRatio,
			r.Report.MaxDrawdownPct, r.Report.NumTrades)
	}

	if best, ok := sweep.Best(); ok {
		fmt.Println("\n-- Best combination --")
		fmt.Printf("Params: %v\n", best.Params)
		engine.PrintReport(best.Report)
	}
}

func printWalkForward(result *optimizer.WalkForwardResult) {
	fmt.Println("===== Walk-Forward Validation =====")
	fmt.Printf("Objective: %s, windows: %d\n\n", result.Objective, len(result.Windows))

	for i, w := range result.Windows {
		if w.Err != nil {
			fmt.Printf("window %d [train %d:%d test %d:%d] FAILED: %v\n",
				i+1, w.TrainStart, w.TrainEnd, w.TestStart, w.TestEnd, w.Err)
			continue
		}
		fmt.Printf("window %d [train %d:%d test %d:%d] params=%v train_return=%.2f%% test_return=%.2f%% test_sharpe=%.2f\n",
			i+1, w.TrainStart, w.TrainEnd, w.TestStart, w.TestEnd,
			w.BestParams, w.TrainReport.TotalReturnPct,
			w.TestReport.TotalReturnPct, w.TestReport.SharpeRatio)
	}

	fmt.Printf("\nMean out-of-sample objective: %.4f\n", result.MeanObjective)
}
