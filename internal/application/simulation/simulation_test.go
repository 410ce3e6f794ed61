package simulation_test

import (
	"testing"

	"github.com/alejandrodnm/weatherarb/internal/application/simulation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_Reproducible(t *testing.T) {
	a := simulation.Run(simulation.Config{Seed: 42})
	b := simulation.Run(simulation.Config{Seed: 42})
	assert.Equal(t, a, b)

	assert.Equal(t, uint64(42), a.Seed)
	assert.Equal(t, 30, a.Days)
	assert.Len(t, a.Daily, 30)
	assert.InDelta(t, 1000.0, a.StartingBalance, 1e-9)
}

func TestRun_Invariants(t *testing.T) {
	for seed := uint64(1); seed <= 20; seed++ {
		s := simulation.Run(simulation.Config{Seed: seed, Days: 60})

		trades, wins, opps := 0, 0, 0
		for _, d := range s.Daily {
			assert.LessOrEqual(t, d.Opportunities, 3)
			assert.LessOrEqual(t, d.Trades, d.Opportunities)
			assert.LessOrEqual(t, d.Wins, d.Trades)
			trades += d.Trades
			wins += d.Wins
			opps += d.Opportunities
		}
		assert.Equal(t, trades, s.Trades)
		assert.Equal(t, wins, s.Wins)
		assert.Equal(t, opps, s.Opportunities)
		assert.Equal(t, s.Trades-s.Wins, s.Losses)
		assert.InDelta(t, s.FinalBalance-s.StartingBalance, s.TotalPnL, 0.011)

		if s.Trades > 0 {
			assert.GreaterOrEqual(t, s.AvgEdgePct, 2.0)
			assert.LessOrEqual(t, s.AvgEdgePct, 15.0)
		}
	}
}

func TestRun_CertainWinsOnly(t *testing.T) {
	s := simulation.Run(simulation.Config{
		Seed:            7,
		Days:            200,
		OpportunityRate: 1,
		FillRate:        1,
		WinRate:         1,
	})

	require.Positive(t, s.Trades)
	assert.Equal(t, s.Opportunities, s.Trades)
	assert.Zero(t, s.Losses)
	assert.InDelta(t, 100.0, s.WinRatePct, 1e-9)
	assert.Greater(t, s.FinalBalance, s.StartingBalance)
	assert.Positive(t, s.ROIPct)

	prev := s.StartingBalance
	for _, d := range s.Daily {
		assert.GreaterOrEqual(t, d.Balance, prev, "day %d", d.Day)
		prev = d.Balance
	}
}

func TestRun_LosingEverything(t *testing.T) {
	s := simulation.Run(simulation.Config{
		Seed:            3,
		Days:            100,
		OpportunityRate: 1,
		FillRate:        1,
		WinRate:         1e-12,
	})
	assert.Less(t, s.FinalBalance, s.StartingBalance)
	assert.Negative(t, s.ROIPct)
}

func TestRun_ZeroSeedIsRecorded(t *testing.T) {
	s := simulation.Run(simulation.Config{Days: 1})
	assert.NotZero(t, s.Seed)
}
