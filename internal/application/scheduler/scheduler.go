package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/weatherarb/internal/application/arbitrage"
	"github.com/alejandrodnm/weatherarb/internal/application/reconcile"
	"github.com/alejandrodnm/weatherarb/internal/domain"
	"github.com/alejandrodnm/weatherarb/internal/ports"
)

// ErrCircuitBreakerTripped is returned by Run and RunOnce when the live
// circuit breaker halts trading. It is terminal for the process.
var ErrCircuitBreakerTripped = errors.New("circuit breaker tripped")

const (
	DefaultPollInterval = 300 * time.Second
	DefaultPeakInterval = 60 * time.Second
	DefaultPeakStart    = 12
	DefaultPeakEnd      = 18
	DefaultStatusEvery  = 5
)

// Reconciler is the subset of reconcile.Reconciler the scheduler uses.
type Reconciler interface {
	Reconcile(ctx context.Context, loc domain.Location) (reconcile.Result, error)
	TrackerStatus(locationID string) (domain.TrackerStatus, bool)
}

// Executor is the subset of execution.Controller the scheduler uses.
type Executor interface {
	Execute(ctx context.Context, opp domain.Opportunity) bool
	CheckCircuitBreaker(ctx context.Context) bool
	RecordScan(opportunities int)
	Status() domain.StatusSnapshot
}

// Config holds the scan cadence and the trading filter.
type Config struct {
	Locations     []domain.Location
	PollInterval  time.Duration
	PeakInterval  time.Duration
	PeakStartHour int // inclusive, process-local hour
	PeakEndHour   int // exclusive
	StatusEvery   int // scans between status reports
	MinTier       domain.CertaintyTier
}

// Scheduler drives the scan loop. It runs on a single goroutine: trackers
// and session state are only touched between its suspension points.
type Scheduler struct {
	cfg        Config
	reconciler Reconciler
	markets    ports.MarketProvider
	engine     *arbitrage.Engine
	executor   Executor
	alerter    ports.Alerter
	reporter   ports.StatusReporter
	now        func() time.Time

	stopped bool
}

// New creates a scheduler. alerter and reporter may be nil.
func New(
	cfg Config,
	reconciler Reconciler,
	markets ports.MarketProvider,
	engine *arbitrage.Engine,
	executor Executor,
	alerter ports.Alerter,
	reporter ports.StatusReporter,
) *Scheduler {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.PeakInterval <= 0 {
		cfg.PeakInterval = DefaultPeakInterval
	}
	if cfg.PeakStartHour == 0 && cfg.PeakEndHour == 0 {
		cfg.PeakStartHour, cfg.PeakEndHour = DefaultPeakStart, DefaultPeakEnd
	}
	if cfg.StatusEvery <= 0 {
		cfg.StatusEvery = DefaultStatusEvery
	}
	if cfg.MinTier == 0 {
		cfg.MinTier = domain.TierCertain
	}
	return &Scheduler{
		cfg:        cfg,
		reconciler: reconciler,
		markets:    markets,
		engine:     engine,
		executor:   executor,
		alerter:    alerter,
		reporter:   reporter,
		now:        time.Now,
	}
}

// WithClock replaces the clock used for cadence and market dates (tests).
func (s *Scheduler) WithClock(now func() time.Time) *Scheduler {
	s.now = now
	return s
}

// Stopped reports whether the circuit breaker halted the scheduler.
func (s *Scheduler) Stopped() bool {
	return s.stopped
}

// Interval returns the wait before the next cycle: the peak interval while
// the process-local hour is inside the peak window, else the poll interval.
func (s *Scheduler) Interval(now time.Time) time.Duration {
	h := now.Hour()
	if h >= s.cfg.PeakStartHour && h < s.cfg.PeakEndHour {
		return s.cfg.PeakInterval
	}
	return s.cfg.PollInterval
}

// Run loops until ctx is cancelled (nil) or the circuit breaker trips
// (ErrCircuitBreakerTripped). A final status report is always printed.
func (s *Scheduler) Run(ctx context.Context) error {
	defer s.ReportStatus(context.WithoutCancel(ctx))

	ids := make([]string, len(s.cfg.Locations))
	for i, l := range s.cfg.Locations {
		ids[i] = l.ID
	}
	slog.Info("scheduler: starting",
		"locations", ids,
		"poll_interval", s.cfg.PollInterval,
		"peak_interval", s.cfg.PeakInterval,
		"min_tier", s.cfg.MinTier.String(),
	)

	for scans := 1; ; scans++ {
		if ctx.Err() != nil {
			slog.Info("scheduler: stopped")
			return nil
		}
		if err := s.RunOnce(ctx); err != nil {
			return err
		}
		if scans%s.cfg.StatusEvery == 0 {
			s.ReportStatus(ctx)
		}

		wait := s.Interval(s.now())
		slog.Debug("scheduler: waiting", "next_in", wait)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			slog.Info("scheduler: stopped")
			return nil
		case <-timer.C:
		}
	}
}

// RunOnce runs a single cycle over every location.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	if s.stopped {
		return ErrCircuitBreakerTripped
	}
	if s.executor.CheckCircuitBreaker(ctx) {
		s.stopped = true
		slog.Error("scheduler: halted by circuit breaker")
		return ErrCircuitBreakerTripped
	}

	start := time.Now()
	total := 0
	for _, loc := range s.cfg.Locations {
		if ctx.Err() != nil {
			break
		}
		n, err := s.scanLocation(ctx, loc)
		if err != nil {
			slog.Warn("scheduler: location scan failed", "location", loc.ID, "err", err)
			continue
		}
		total += n
	}
	s.executor.RecordScan(total)

	slog.Info("scheduler: cycle complete",
		"opportunities", total,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// scanLocation returns how many opportunities it found at any tier.
func (s *Scheduler) scanLocation(ctx context.Context, loc domain.Location) (int, error) {
	res, err := s.reconciler.Reconcile(ctx, loc)
	if err != nil {
		return 0, fmt.Errorf("scheduler.scanLocation: reconcile: %w", err)
	}
	if !res.HasData {
		slog.Info("scheduler: no temperature data yet", "location", loc.ID)
		return 0, nil
	}

	zone, err := loc.Zone()
	if err != nil {
		return 0, fmt.Errorf("scheduler.scanLocation: %w", err)
	}
	markets, err := s.markets.ListActiveMarkets(ctx, loc, s.now().In(zone))
	if err != nil {
		return 0, fmt.Errorf("scheduler.scanLocation: markets: %w", err)
	}

	opps := s.engine.Scan(loc, markets, res.MaxF)
	tradable := arbitrage.FilterByCertainty(opps, s.cfg.MinTier)

	slog.Info("scheduler: location scanned",
		"location", loc.ID,
		"max_f", res.MaxF,
		"markets", len(markets),
		"opportunities", len(opps),
		"tradable", len(tradable),
	)
	for _, opp := range opps {
		if !opp.Tier.AtLeast(s.cfg.MinTier) {
			slog.Debug("scheduler: below min tier, not traded", "opp", opp.String())
		}
	}

	for _, opp := range tradable {
		if s.alerter != nil {
			s.alerter.OpportunityAlert(ctx, opp)
		}
		s.executor.Execute(ctx, opp)
	}
	return len(opps), nil
}

// ReportStatus prints the session summary with every tracker.
func (s *Scheduler) ReportStatus(ctx context.Context) {
	if s.reporter == nil {
		return
	}
	st := s.executor.Status()
	for _, loc := range s.cfg.Locations {
		if ts, ok := s.reconciler.TrackerStatus(loc.ID); ok {
			st.Trackers = append(st.Trackers, ts)
		}
	}
	s.reporter.ReportStatus(ctx, st)
}
