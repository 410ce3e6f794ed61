package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alejandrodnm/weatherarb/internal/domain"
	"github.com/olekukonko/tablewriter"
)

// Console implementa ports.StatusReporter y los reportes de la CLI.
type Console struct {
	out io.Writer
}

// NewConsole crea un reporter que escribe a stdout.
func NewConsole() *Console {
	return &Console{out: os.Stdout}
}

// NewConsoleWriter crea un reporter sobre w (tests).
func NewConsoleWriter(w io.Writer) *Console {
	return &Console{out: w}
}

// ReportStatus imprime el resumen de la sesión y el estado de los trackers.
func (c *Console) ReportStatus(_ context.Context, s domain.StatusSnapshot) {
	mode := strings.ToUpper(string(s.Mode))
	fmt.Fprintf(c.out, "\n── STATUS [%s] ──\n", mode)
	fmt.Fprintf(c.out, "  Runtime:       %.1fh\n", s.Runtime.Hours())
	fmt.Fprintf(c.out, "  Scans:         %d\n", s.Scans)
	fmt.Fprintf(c.out, "  Opportunities: %d\n", s.Opportunities)
	fmt.Fprintf(c.out, "  Trades:        %d\n", s.Trades)

	if s.Mode.IsPaper() {
		fmt.Fprintf(c.out, "  Balance:       $%.2f\n", s.PaperBalance)
		fmt.Fprintf(c.out, "  P&L:           %s\n", signedUSD(s.PaperPnL))
	} else if s.LiveBalanceKnown {
		fmt.Fprintf(c.out, "  Live balance:  $%.2f\n", s.LiveBalance)
		fmt.Fprintf(c.out, "  Session P&L:   %s\n", signedUSD(s.LivePnL))
	} else {
		fmt.Fprintf(c.out, "  Live balance:  unavailable\n")
	}
	if s.Halted {
		fmt.Fprintf(c.out, "  Circuit breaker: TRIGGERED (%s)\n", s.HaltReason)
	}

	if len(s.Trackers) == 0 {
		return
	}
	table := tablewriter.NewWriter(c.out)
	table.Header("City", "Date", "Max °F", "Source", "Observed")
	for _, t := range s.Trackers {
		maxLabel, src, seen := "-", "-", "-"
		if t.Set {
			maxLabel = fmt.Sprintf("%.1f", t.MaxF)
			src = t.Source.String()
			seen = t.ObservedAt.UTC().Format("15:04Z")
		}
		table.Append(
			t.LocationID,
			t.Date.Format("2006-01-02"),
			maxLabel,
			src,
			seen,
		)
	}
	table.Render()
}

// PrintLedger imprime el histórico de trades con totales (-report).
func (c *Console) PrintLedger(records []domain.TradeRecord) {
	if len(records) == 0 {
		fmt.Fprintln(c.out, "\n  No trades recorded yet.")
		return
	}

	sum := domain.SummarizeTrades(records)

	fmt.Fprintf(c.out, "\n")
	fmt.Fprintf(c.out, "========================================================\n")
	fmt.Fprintf(c.out, "  TRADE LEDGER (%d trades)\n", sum.Trades)
	fmt.Fprintf(c.out, "  %s to %s\n",
		records[0].Timestamp.Format("2006-01-02"),
		records[len(records)-1].Timestamp.Format("2006-01-02"))
	fmt.Fprintf(c.out, "========================================================\n\n")

	tbl := tablewriter.NewWriter(c.out)
	tbl.Header("Time", "Mode", "City", "Ticker", "Side", "Qty", "Price", "Cost", "Cert", "Edge")
	for _, r := range records {
		tbl.Append(
			r.Timestamp.Format("01-02 15:04"),
			r.Mode,
			r.Location,
			r.Ticker,
			strings.ToUpper(r.Side),
			fmt.Sprintf("%d", r.Quantity),
			fmt.Sprintf("%d¢", r.PriceCents),
			fmt.Sprintf("$%.2f", r.Cost),
			r.Certainty,
			fmt.Sprintf("%.1f%%", r.EdgePct),
		)
	}
	tbl.Render()

	fmt.Fprintf(c.out, "\n── TOTALS ──\n")
	fmt.Fprintf(c.out, "  Contracts:       %d\n", sum.Contracts)
	fmt.Fprintf(c.out, "  Total cost:      $%.2f\n", sum.TotalCost)
	fmt.Fprintf(c.out, "  Expected payout: $%.2f\n", sum.ExpectedPayout)
	fmt.Fprintf(c.out, "  Expected profit: %s\n", signedUSD(sum.ExpectedProfit))
	fmt.Fprintf(c.out, "  Avg edge:        %.1f%%\n", sum.AvgEdgePct)

	if len(sum.ByLocation) > 1 {
		fmt.Fprintf(c.out, "\n── BY CITY ──\n")
		fmt.Fprintf(c.out, "  %-12s %6s %10s %10s\n", "City", "Trades", "Cost", "Profit")
		for _, l := range sum.ByLocation {
			fmt.Fprintf(c.out, "  %-12s %6d %10s %10s\n",
				l.Location, l.Trades, fmt.Sprintf("$%.2f", l.TotalCost), signedUSD(l.ExpectedProfit))
		}
	}
	fmt.Fprintln(c.out)
}

// PrintSimulation imprime el resultado de la simulación Monte Carlo.
func (c *Console) PrintSimulation(s domain.SimulationSummary) {
	fmt.Fprintf(c.out, "\n")
	fmt.Fprintf(c.out, "========================================================\n")
	fmt.Fprintf(c.out, "  SIMULATION: %d days (seed %d)\n", s.Days, s.Seed)
	fmt.Fprintf(c.out, "========================================================\n\n")

	tbl := tablewriter.NewWriter(c.out)
	tbl.Header("Day", "Opps", "Trades", "Wins", "P&L", "Balance")
	for _, d := range s.Daily {
		if d.Opportunities == 0 {
			continue
		}
		tbl.Append(
			fmt.Sprintf("%d", d.Day),
			fmt.Sprintf("%d", d.Opportunities),
			fmt.Sprintf("%d", d.Trades),
			fmt.Sprintf("%d", d.Wins),
			signedUSD(d.PnL),
			fmt.Sprintf("$%.2f", d.Balance),
		)
	}
	tbl.Render()

	fmt.Fprintf(c.out, "\n── SUMMARY ──\n")
	fmt.Fprintf(c.out, "  Starting balance: $%.2f\n", s.StartingBalance)
	fmt.Fprintf(c.out, "  Final balance:    $%.2f\n", s.FinalBalance)
	fmt.Fprintf(c.out, "  Total P&L:        %s\n", signedUSD(s.TotalPnL))
	fmt.Fprintf(c.out, "  ROI:              %.1f%%\n", s.ROIPct)
	fmt.Fprintf(c.out, "  Opportunities:    %d\n", s.Opportunities)
	fmt.Fprintf(c.out, "  Trades:           %d (%d won, %d lost)\n", s.Trades, s.Wins, s.Losses)
	fmt.Fprintf(c.out, "  Win rate:         %.1f%%\n", s.WinRatePct)
	fmt.Fprintf(c.out, "  Avg edge:         %.1f%%\n", s.AvgEdgePct)
	fmt.Fprintln(c.out)
}

func signedUSD(v float64) string {
	if v < 0 {
		return fmt.Sprintf("-$%.2f", -v)
	}
	return fmt.Sprintf("+$%.2f", v)
}
