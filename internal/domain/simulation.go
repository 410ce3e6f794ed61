package domain

// SimulationDay es el resultado de un día simulado.
type SimulationDay struct {
	Day           int
	Opportunities int
	Trades        int
	Wins          int
	PnL           float64
	Balance       float64
}

// SimulationSummary es el resultado agregado de la simulación Monte Carlo.
type SimulationSummary struct {
	Seed            uint64
	Days            int
	StartingBalance float64
	FinalBalance    float64
	TotalPnL        float64
	ROIPct          float64
	Opportunities   int
	Trades          int
	Wins            int
	Losses          int
	WinRatePct      float64
	AvgEdgePct      float64
	Daily           []SimulationDay
}
