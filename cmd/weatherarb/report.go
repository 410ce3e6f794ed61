package main

import (
	"context"
	"fmt"

	"github.com/alejandrodnm/weatherarb/config"
	"github.com/alejandrodnm/weatherarb/internal/adapters/notify"
	"github.com/alejandrodnm/weatherarb/internal/application/simulation"
)

func runReport(ctx context.Context, cfg *config.Config) error {
	ledger, err := openLedger(cfg.Storage)
	if err != nil {
		return err
	}
	defer ledger.Close()

	records, err := ledger.List(ctx)
	if err != nil {
		return fmt.Errorf("runReport: %w", err)
	}
	notify.NewConsole().PrintLedger(records)
	return nil
}

func runSimulate(days int, seed uint64, balance, fraction float64) {
	summary := simulation.Run(simulation.Config{
		Seed:            seed,
		Days:            days,
		StartingBalance: balance,
		PositionPct:     fraction,
	})
	notify.NewConsole().PrintSimulation(summary)
}
