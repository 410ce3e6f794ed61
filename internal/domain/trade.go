package domain

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// OrderRequest es una orden limit de compra sobre un contrato.
type OrderRequest struct {
	Ticker          string
	Side            string // "yes" | "no"
	Quantity        int
	LimitPriceCents int
	Paper           bool
}

// OrderResult es la respuesta del ejecutor. Success=false no es un error:
// el motivo viene en Error.
type OrderResult struct {
	Success        bool
	OrderID        string
	FilledPrice    float64
	FilledQuantity int
	Error          string
}

// PriceToCents convierte un precio 0..1 a centavos redondeando al más cercano.
func PriceToCents(price float64) int {
	return int(decimal.NewFromFloat(price).Mul(hundred).Round(0).IntPart())
}

// CentsToPrice convierte centavos de Kalshi a precio 0..1.
func CentsToPrice(cents int64) float64 {
	return decimal.NewFromInt(cents).Div(hundred).InexactFloat64()
}

// TradeRecord es una entrada inmutable del ledger de trades.
type TradeRecord struct {
	ID          string    `json:"id"`
	Ticker      string    `json:"ticker"`
	Location    string    `json:"city"`
	Side        string    `json:"side"`
	Quantity    int       `json:"quantity"`
	PriceCents  int       `json:"price_cents"`
	Cost        float64   `json:"cost"`
	MarketKind  string    `json:"market_type"`
	Threshold   float64   `json:"threshold"`
	TempAtTrade float64   `json:"temp_at_trade"`
	Certainty   string    `json:"certainty"`
	EdgePct     float64   `json:"edge"`
	Timestamp   time.Time `json:"timestamp"`
	Mode        string    `json:"mode"`
	OrderID     string    `json:"order_id,omitempty"`
}

// NewTradeRecord construye el registro a partir de la oportunidad ejecutada.
// El coste se calcula en centavos exactos y se redondea a 2 decimales.
func NewTradeRecord(id string, opp Opportunity, qty, priceCents int, orderID string, mode Mode, at time.Time) TradeRecord {
	cost := decimal.NewFromInt(int64(qty)).
		Mul(decimal.NewFromInt(int64(priceCents))).
		Div(hundred).
		Round(2)
	edge := decimal.NewFromFloat(opp.Edge).Mul(hundred).Round(1)

	return TradeRecord{
		ID:          id,
		Ticker:      opp.Ticker,
		Location:    opp.LocationID,
		Side:        opp.Action.Side(),
		Quantity:    qty,
		PriceCents:  priceCents,
		Cost:        cost.InexactFloat64(),
		MarketKind:  opp.Kind.String(),
		Threshold:   opp.Threshold,
		TempAtTrade: opp.ObservedMaxF,
		Certainty:   opp.Tier.String(),
		EdgePct:     edge.InexactFloat64(),
		Timestamp:   at,
		Mode:        string(mode),
		OrderID:     orderID,
	}
}

// ExpectedProfit es el pago de 1$ por contrato menos el coste.
func (r TradeRecord) ExpectedProfit() float64 {
	payout := decimal.NewFromInt(int64(r.Quantity))
	return payout.Sub(decimal.NewFromFloat(r.Cost)).Round(2).InexactFloat64()
}

// TradeSummary agrega el ledger para el reporte.
type TradeSummary struct {
	Trades         int
	Contracts      int
	TotalCost      float64
	ExpectedPayout float64
	ExpectedProfit float64
	AvgEdgePct     float64
	ByLocation     []LocationSummary
}

// LocationSummary es el agregado de una ciudad.
type LocationSummary struct {
	Location       string
	Trades         int
	TotalCost      float64
	ExpectedProfit float64
}

// SummarizeTrades agrega los registros; ByLocation sale ordenado por ciudad.
func SummarizeTrades(records []TradeRecord) TradeSummary {
	var (
		sum     TradeSummary
		cost    = decimal.Zero
		payout  = decimal.Zero
		edgeSum = decimal.Zero
	)
	type acc struct {
		trades int
		cost   decimal.Decimal
		profit decimal.Decimal
	}
	byLoc := make(map[string]*acc)

	for _, r := range records {
		c := decimal.NewFromFloat(r.Cost)
		p := decimal.NewFromInt(int64(r.Quantity))
		sum.Trades++
		sum.Contracts += r.Quantity
		cost = cost.Add(c)
		payout = payout.Add(p)
		edgeSum = edgeSum.Add(decimal.NewFromFloat(r.EdgePct))

		a, ok := byLoc[r.Location]
		if !ok {
			a = &acc{cost: decimal.Zero, profit: decimal.Zero}
			byLoc[r.Location] = a
		}
		a.trades++
		a.cost = a.cost.Add(c)
		a.profit = a.profit.Add(p.Sub(c))
	}

	sum.TotalCost = cost.Round(2).InexactFloat64()
	sum.ExpectedPayout = payout.Round(2).InexactFloat64()
	sum.ExpectedProfit = payout.Sub(cost).Round(2).InexactFloat64()
	if sum.Trades > 0 {
		sum.AvgEdgePct = edgeSum.Div(decimal.NewFromInt(int64(sum.Trades))).Round(1).InexactFloat64()
	}

	for loc, a := range byLoc {
		sum.ByLocation = append(sum.ByLocation, LocationSummary{
			Location:       loc,
			Trades:         a.trades,
			TotalCost:      a.cost.Round(2).InexactFloat64(),
			ExpectedProfit: a.profit.Round(2).InexactFloat64(),
		})
	}
	sort.Slice(sum.ByLocation, func(i, j int) bool {
		return sum.ByLocation[i].Location < sum.ByLocation[j].Location
	})
	return sum
}
