package main

import (
	"context"
	"crypto/rsa"
	"fmt"
	"log/slog"
	"time"

	"github.com/alejandrodnm/weatherarb/config"
	"github.com/alejandrodnm/weatherarb/internal/adapters/kalshi"
	"github.com/alejandrodnm/weatherarb/internal/adapters/notify"
	"github.com/alejandrodnm/weatherarb/internal/adapters/storage"
	"github.com/alejandrodnm/weatherarb/internal/adapters/weather"
	"github.com/alejandrodnm/weatherarb/internal/application/arbitrage"
	"github.com/alejandrodnm/weatherarb/internal/application/execution"
	"github.com/alejandrodnm/weatherarb/internal/application/reconcile"
	"github.com/alejandrodnm/weatherarb/internal/application/scheduler"
	"github.com/alejandrodnm/weatherarb/internal/ports"
)

const liveAbortWindow = 5 * time.Second

// idleCloser is implemented by every HTTP-backed adapter.
type idleCloser interface {
	CloseIdleConnections()
}

func runBot(ctx context.Context, cfg *config.Config, once bool) error {
	locations, err := cfg.ActiveLocations()
	if err != nil {
		return fmt.Errorf("runBot: locations: %w", err)
	}
	mode := cfg.Mode()

	if !mode.IsPaper() {
		fmt.Printf("\n⚠️  LIVE TRADING MODE: REAL MONEY WILL BE SPENT\n")
		fmt.Printf("   Max position: $%.2f | Max contracts: %d | Circuit breaker: %.0f%% loss\n",
			cfg.Trading.MaxPositionSize, cfg.Trading.MaxContracts, cfg.Trading.MaxLossPct*100)
		fmt.Printf("   Press Ctrl+C within 5 seconds to abort...\n\n")

		abortTimer := time.NewTimer(liveAbortWindow)
		select {
		case <-abortTimer.C:
		case <-ctx.Done():
			slog.Info("live trading aborted by user")
			return nil
		}
	}

	key, err := loadKey(cfg)
	if err != nil {
		return err
	}
	client, err := kalshi.NewClient(kalshi.Config{
		BaseURL: cfg.API.KalshiBase,
		KeyID:   cfg.Kalshi.APIKeyID,
		Key:     key,
		Timeout: config.Timeout(cfg.API.KalshiTimeoutSeconds),
	})
	if err != nil {
		return fmt.Errorf("runBot: kalshi client: %w", err)
	}

	iem := weather.NewIEM(cfg.API.IEMBase, config.Timeout(cfg.API.IEMTimeoutSeconds), cfg.API.UserAgent)
	metar := weather.NewMETAR(cfg.API.METARBase, config.Timeout(cfg.API.METARTimeoutSeconds), cfg.API.UserAgent)
	nws := weather.NewNWS(cfg.API.NWSBase, config.Timeout(cfg.API.NWSTimeoutSeconds), cfg.API.UserAgent)
	defer closeIdle(client, iem, metar, nws)

	ledger, err := openLedger(cfg.Storage)
	if err != nil {
		return err
	}
	defer func() {
		if err := ledger.Close(); err != nil {
			slog.Warn("ledger close failed", "err", err)
		}
	}()

	reconciler := reconcile.New(reconcile.Config{
		Staleness: cfg.Staleness(),
		Policy:    reconcile.NewPolicy(cfg.Reconcile.Policy, cfg.Reconcile.AgreementToleranceF),
	}, iem, metar, nws)

	controller := execution.New(execution.Config{
		Mode:            mode,
		MaxPositionSize: cfg.Trading.MaxPositionSize,
		MaxContracts:    cfg.Trading.MaxContracts,
		PaperBalance:    cfg.Trading.PaperBalance,
		PaperFraction:   cfg.Trading.PaperFraction,
		MaxLossPct:      cfg.Trading.MaxLossPct,
	}, client, ledger)
	if err := controller.Start(ctx); err != nil {
		return fmt.Errorf("runBot: %w", err)
	}

	sched := scheduler.New(scheduler.Config{
		Locations:     locations,
		PollInterval:  cfg.PollInterval(),
		PeakInterval:  cfg.PeakInterval(),
		PeakStartHour: cfg.Scheduler.PeakStartHour,
		PeakEndHour:   cfg.Scheduler.PeakEndHour,
		StatusEvery:   cfg.Scheduler.StatusEvery,
		MinTier:       cfg.MinTier(),
	},
		reconciler,
		client,
		arbitrage.New(cfg.Trading.MinEdge),
		controller,
		newAlerter(cfg),
		notify.NewConsole(),
	)

	if once {
		defer sched.ReportStatus(context.WithoutCancel(ctx))
		return sched.RunOnce(ctx)
	}
	return sched.Run(ctx)
}

// loadKey is mandatory in live mode. In paper mode a missing or unreadable
// key only disables signed requests.
func loadKey(cfg *config.Config) (*rsa.PrivateKey, error) {
	path := cfg.Kalshi.PrivateKeyPath
	if cfg.Mode().IsPaper() {
		if cfg.Kalshi.APIKeyID == "" || path == "" {
			return nil, nil
		}
		key, err := kalshi.LoadPrivateKey(path)
		if err != nil {
			slog.Warn("kalshi key not loaded, requests go unsigned", "path", path, "err", err)
			return nil, nil
		}
		return key, nil
	}

	if cfg.Kalshi.APIKeyID == "" {
		return nil, fmt.Errorf("loadKey: live mode requires KALSHI_API_KEY_ID")
	}
	key, err := kalshi.LoadPrivateKey(path)
	if err != nil {
		return nil, fmt.Errorf("loadKey: %w", err)
	}
	return key, nil
}

// openLedger opens the configured ledgers behind a single Multi. SQLite goes
// first so List reads from it.
func openLedger(cfg config.StorageConfig) (*storage.Multi, error) {
	var ledgers []ports.TradeLedger
	if cfg.SQLitePath != "" {
		l, err := storage.NewSQLiteLedger(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("openLedger: %w", err)
		}
		ledgers = append(ledgers, l)
	}
	if cfg.JSONPath != "" {
		l, err := storage.NewJSONLedger(cfg.JSONPath)
		if err != nil {
			for _, open := range ledgers {
				_ = open.Close()
			}
			return nil, fmt.Errorf("openLedger: %w", err)
		}
		ledgers = append(ledgers, l)
	}
	return storage.NewMulti(ledgers...), nil
}

func newAlerter(cfg *config.Config) *notify.Alerter {
	var sinks []notify.Sink
	if cfg.Alerts.WebhookURL != "" {
		sinks = append(sinks, notify.NewWebhook(cfg.Alerts.WebhookURL, 10*time.Second))
	}
	if cfg.Alerts.TelegramBotToken != "" && cfg.Alerts.TelegramChatID != "" {
		tg, err := notify.NewTelegram(cfg.Alerts.TelegramBotToken, cfg.Alerts.TelegramChatID)
		if err != nil {
			slog.Warn("telegram alerts disabled", "err", err)
		} else {
			sinks = append(sinks, tg)
		}
	}
	return notify.NewAlerter(cfg.AlertCooldown(), sinks...)
}

func closeIdle(closers ...idleCloser) {
	for _, c := range closers {
		c.CloseIdleConnections()
	}
}
