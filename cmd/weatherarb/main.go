package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alejandrodnm/weatherarb/config"
	"github.com/alejandrodnm/weatherarb/internal/application/scheduler"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitHalted  = 2
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	paper := flag.Bool("paper", false, "paper trading (default)")
	live := flag.Bool("live", false, "trade with real money")
	interval := flag.Int("interval", 0, "off-peak poll interval in seconds (overrides config)")
	cities := flag.String("cities", "", "comma-separated city ids (overrides config)")
	once := flag.Bool("once", false, "run one scan cycle and exit")
	report := flag.Bool("report", false, "print the trade ledger and exit")
	simulate := flag.Bool("simulate", false, "run the Monte Carlo simulation and exit")
	simDays := flag.Int("sim-days", 30, "days to simulate")
	simSeed := flag.Uint64("sim-seed", 0, "simulation seed (0 = random)")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	flag.Parse()

	if *paper && *live {
		slog.Error("-paper and -live are mutually exclusive")
		os.Exit(exitFailure)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(exitFailure)
	}

	switch {
	case *live:
		cfg.Trading.Mode = "live"
	case *paper:
		cfg.Trading.Mode = "paper"
	}
	if *interval > 0 {
		cfg.Scheduler.PollIntervalSeconds = *interval
	}
	if *cities != "" {
		cfg.Cities = config.SplitCities(*cities)
	}
	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	if *simulate {
		runSimulate(*simDays, *simSeed, cfg.Trading.PaperBalance, cfg.Trading.PaperFraction)
		return
	}

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "err", err)
		os.Exit(exitFailure)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *report {
		if err := runReport(ctx, cfg); err != nil {
			slog.Error("report failed", "err", err)
			os.Exit(exitFailure)
		}
		return
	}

	slog.Info("weatherarb starting",
		"config", *configPath,
		"mode", string(cfg.Mode()),
		"cities", cfg.Cities,
		"poll_interval", cfg.PollInterval(),
		"min_edge", cfg.Trading.MinEdge,
		"once", *once,
	)

	code := exitOK
	if err := runBot(ctx, cfg, *once); err != nil {
		if errors.Is(err, scheduler.ErrCircuitBreakerTripped) {
			slog.Error("trading halted by circuit breaker")
			code = exitHalted
		} else {
			slog.Error("weatherarb exited with error", "err", err)
			code = exitFailure
		}
	}
	cancel()
	if code != exitOK {
		os.Exit(code)
	}
	slog.Info("weatherarb stopped cleanly")
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
