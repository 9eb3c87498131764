package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for a backtester run.
type Config struct {
	Database  Database  `yaml:"database"`
	Logging   Logging   `yaml:"logging"`
	Data      Data      `yaml:"data"`
	Backtest  Backtest  `yaml:"backtest"`
	Strategy  Strategy  `yaml:"strategy"`
	Optimizer Optimizer `yaml:"optimizer"`
}

// Database holds the connection string of the candle store.
type Database struct {
	URL string `yaml:"url"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Data selects the instrument and date range to simulate over.
type Data struct {
	Ticker   string `yaml:"ticker"`
	Interval string `yaml:"interval"`
	Start    string `yaml:"start"`
	End      string `yaml:"end"`
}

// Backtest holds the execution parameters of a single simulation.
type Backtest struct {
	InitialCapital string  `yaml:"initial_capital"`
	FeeRate        string  `yaml:"fee_rate"`
	PositionPct    float64 `yaml:"position_pct"`
	StopLossPct    float64 `yaml:"stop_loss_pct"`
	TakeProfitPct  float64 `yaml:"take_profit_pct"`
	ShowProgress   bool    `yaml:"show_progress"`
}

// Strategy names the strategy to run and its fixed parameters. Parameters
// present in the optimizer grid override these during a sweep.
type Strategy struct {
	Name   string             `yaml:"name"`
	Params map[string]float64 `yaml:"params"`
}

// Optimizer configures the parameter sweep and walk-forward validation.
type Optimizer struct {
	Objective   string               `yaml:"objective"`
	Workers     int                  `yaml:"workers"`
	Grid        map[string][]float64 `yaml:"grid"`
	WalkForward WalkForward          `yaml:"walk_forward"`
}

// WalkForward sizes the train/test windows in bars. A zero step defaults to
// the test size, tiling the series with non-overlapping test windows.
type WalkForward struct {
	TrainBars int `yaml:"train_bars"`
	TestBars  int `yaml:"test_bars"`
	StepBars  int `yaml:"step_bars"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path, parses it into a
// Config struct, and then applies environment variable overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Logging: Logging{Level: "info", Format: "console"},
		Data:    Data{Interval: "60"},
		Backtest: Backtest{
			InitialCapital: "10000",
			FeeRate:        "0.001",
			PositionPct:    1,
		},
		Strategy:  Strategy{Name: "rsi"},
		Optimizer: Optimizer{Objective: "sharpe"},
	}
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
