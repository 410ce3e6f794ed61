package simulation

import (
	"math/rand/v2"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alejandrodnm/weatherarb/internal/domain"
)

const (
	DefaultStartingBalance = 1000.0
	DefaultDays            = 30
	DefaultOpportunityRate = 0.5
	DefaultPositionPct     = 0.10
	DefaultFillRate        = 0.90
	DefaultWinRate         = 0.99

	entryCap = 0.99
)

var (
	oppCounts  = []int{1, 2, 3}
	oppWeights = []float64{0.70, 0.25, 0.05}

	edges       = []float64{0.02, 0.03, 0.05, 0.08, 0.10, 0.15}
	edgeWeights = []float64{0.30, 0.25, 0.20, 0.15, 0.07, 0.03}
)

// Config parameterizes the Monte Carlo run. Zero values take the defaults.
type Config struct {
	Seed            uint64 // 0 = derive from the clock
	Days            int
	StartingBalance float64
	OpportunityRate float64 // chance that a day has any opportunity
	PositionPct     float64
	FillRate        float64
	WinRate         float64
}

func (c *Config) setDefaults() {
	if c.Seed == 0 {
		c.Seed = uint64(time.Now().UnixNano())
	}
	if c.Days <= 0 {
		c.Days = DefaultDays
	}
	if c.StartingBalance <= 0 {
		c.StartingBalance = DefaultStartingBalance
	}
	if c.OpportunityRate <= 0 {
		c.OpportunityRate = DefaultOpportunityRate
	}
	if c.PositionPct <= 0 {
		c.PositionPct = DefaultPositionPct
	}
	if c.FillRate <= 0 {
		c.FillRate = DefaultFillRate
	}
	if c.WinRate <= 0 {
		c.WinRate = DefaultWinRate
	}
}

// Run simulates Certain-tier trading over cfg.Days. Each opportunity buys at
// 0.99 minus its edge with PositionPct of the current balance, fills with
// FillRate and settles at $1 per contract with WinRate. The same seed always
// produces the same summary.
func Run(cfg Config) domain.SimulationSummary {
	cfg.setDefaults()
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))

	balance := decimal.NewFromFloat(cfg.StartingBalance)
	edgeSum := 0.0
	sum := domain.SimulationSummary{
		Seed:            cfg.Seed,
		Days:            cfg.Days,
		StartingBalance: cfg.StartingBalance,
	}

	for d := 1; d <= cfg.Days; d++ {
		day := domain.SimulationDay{Day: d}
		dayPnL := decimal.Zero

		n := 0
		if rng.Float64() < cfg.OpportunityRate {
			n = oppCounts[pick(rng, oppWeights)]
		}
		day.Opportunities = n

		for range n {
			edge := edges[pick(rng, edgeWeights)]
			price := decimal.NewFromFloat(entryCap - edge).Round(2)

			contracts := balance.Mul(decimal.NewFromFloat(cfg.PositionPct)).Div(price).Floor().IntPart()
			if contracts < 1 {
				continue
			}
			if rng.Float64() >= cfg.FillRate {
				continue
			}

			qty := decimal.NewFromInt(contracts)
			cost := qty.Mul(price)
			profit := cost.Neg()
			if rng.Float64() < cfg.WinRate {
				profit = qty.Sub(cost)
				day.Wins++
			}
			balance = balance.Add(profit)
			dayPnL = dayPnL.Add(profit)
			day.Trades++
			edgeSum += edge
		}

		day.PnL = dayPnL.Round(2).InexactFloat64()
		day.Balance = balance.Round(2).InexactFloat64()
		sum.Opportunities += day.Opportunities
		sum.Trades += day.Trades
		sum.Wins += day.Wins
		sum.Daily = append(sum.Daily, day)
	}

	start := decimal.NewFromFloat(cfg.StartingBalance)
	pnl := balance.Sub(start)
	sum.FinalBalance = balance.Round(2).InexactFloat64()
	sum.TotalPnL = pnl.Round(2).InexactFloat64()
	sum.ROIPct = pnl.Div(start).Mul(decimal.NewFromInt(100)).Round(1).InexactFloat64()
	sum.Losses = sum.Trades - sum.Wins
	if sum.Trades > 0 {
		sum.WinRatePct = float64(sum.Wins) / float64(sum.Trades) * 100
		sum.AvgEdgePct = edgeSum / float64(sum.Trades) * 100
	}
	return sum
}

// pick returns an index drawn with the given weights.
func pick(rng *rand.Rand, weights []float64) int {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	r := rng.Float64() * total
	for i, w := range weights {
		if r < w {
			return i
		}
		r -= w
	}
	return len(weights) - 1
}
