package arbitrage

// engine.go: decide si un contrato está mal valorado frente a la máxima ya observada.
//
// La máxima diaria solo sube, así que ciertos resultados quedan determinados
// antes del cierre: un "85° o más" con la máxima en 86 ya ha ganado. El fair
// value se limita a 0.99 para dejar margen a la comisión de liquidación.

import (
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/alejandrodnm/weatherarb/internal/domain"
)

const (
	// FairValueCap es el valor justo de un resultado ya determinado.
	FairValueCap = 0.99

	// NearFactor descuenta el fair value cuando la máxima está a menos de
	// NearWindowF grados del umbral de un mercado Above.
	NearFactor  = 0.80
	NearWindowF = 2.0

	// BufferF es el margen sobre el umbral superior en Below/Between.
	BufferF = 0.5

	edgeEpsilon = 1e-9
)

// Engine evalúa mercados contra la máxima actual. No guarda estado del scan.
type Engine struct {
	minEdge float64
	now     func() time.Time
}

// New crea un Engine con el edge mínimo configurado (0.03 = 3¢).
func New(minEdge float64) *Engine {
	return &Engine{minEdge: minEdge, now: time.Now}
}

// WithClock sustituye el reloj de DetectedAt (tests).
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// MinEdge devuelve el edge mínimo configurado.
func (e *Engine) MinEdge() float64 {
	return e.minEdge
}

// Evaluate aplica la regla del tipo de mercado. Devuelve nil si ninguna
// regla dispara o el edge no alcanza el mínimo del tier.
func (e *Engine) Evaluate(loc domain.Location, m domain.Market, currentMax float64) *domain.Opportunity {
	if math.IsInf(currentMax, 0) || math.IsNaN(currentMax) {
		return nil
	}

	switch m.Kind() {
	case domain.KindAbove:
		low, _ := m.Low()
		switch {
		case currentMax >= low:
			return e.build(loc, m, currentMax, low, domain.ActionBuyYes, m.YesAsk, FairValueCap, e.minEdge, domain.TierCertain)
		case currentMax >= low-NearWindowF:
			return e.build(loc, m, currentMax, low, domain.ActionBuyYes, m.YesAsk, NearFactor*FairValueCap, 2*e.minEdge, domain.TierNearCertain)
		}

	case domain.KindBelow, domain.KindBetween:
		// Por encima del techo "N o menos" y "N a M" ya han perdido: se compra NO.
		high, _ := m.High()
		if currentMax > high+BufferF {
			return e.build(loc, m, currentMax, high, domain.ActionBuyNo, m.NoAsk, FairValueCap, e.minEdge, domain.TierCertain)
		}
	}
	return nil
}

func (e *Engine) build(loc domain.Location, m domain.Market, currentMax, threshold float64,
	action domain.Action, price, fair, required float64, tier domain.CertaintyTier) *domain.Opportunity {

	edge := fair - price
	if edge+edgeEpsilon < required {
		return nil
	}
	return &domain.Opportunity{
		LocationID:   loc.ID,
		Ticker:       m.Ticker,
		Title:        m.Label(),
		Action:       action,
		ObservedMaxF: currentMax,
		Threshold:    threshold,
		Kind:         m.Kind(),
		Price:        price,
		FairValue:    fair,
		Edge:         edge,
		Tier:         tier,
		DetectedAt:   e.now(),
	}
}

// Scan evalúa cada mercado por separado y devuelve las oportunidades
// ordenadas por edge descendente. Cada detección se registra en el log.
func (e *Engine) Scan(loc domain.Location, markets []domain.Market, currentMax float64) []domain.Opportunity {
	var opps []domain.Opportunity
	for _, m := range markets {
		opp := e.Evaluate(loc, m, currentMax)
		if opp == nil {
			continue
		}
		slog.Info("arbitrage: opportunity detected",
			"location", loc.ID,
			"ticker", opp.Ticker,
			"action", opp.Action.String(),
			"tier", opp.Tier.String(),
			"max_f", opp.ObservedMaxF,
			"threshold", opp.Threshold,
			"price", opp.Price,
			"edge", opp.Edge,
		)
		opps = append(opps, *opp)
	}

	sort.SliceStable(opps, func(i, j int) bool {
		return opps[i].Edge > opps[j].Edge
	})
	return opps
}

// FilterByCertainty conserva las oportunidades con tier >= minTier.
func FilterByCertainty(opps []domain.Opportunity, minTier domain.CertaintyTier) []domain.Opportunity {
	var out []domain.Opportunity
	for _, o := range opps {
		if o.Tier.AtLeast(minTier) {
			out = append(out, o)
		}
	}
	return out
}
