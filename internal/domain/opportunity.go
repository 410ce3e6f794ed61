package domain

import (
	"fmt"
	"strings"
	"time"
)

// Action es la orden que dispara una oportunidad.
type Action int

const (
	ActionBuyYes Action = iota + 1
	ActionBuyNo
)

func (a Action) String() string {
	switch a {
	case ActionBuyYes:
		return "BUY_YES"
	case ActionBuyNo:
		return "BUY_NO"
	default:
		return "NONE"
	}
}

// Side traduce la acción al lado de la orden en Kalshi.
func (a Action) Side() string {
	if a == ActionBuyNo {
		return "no"
	}
	return "yes"
}

// CertaintyTier clasifica cuán determinado está ya el resultado del contrato.
// El valor numérico es el rango ordinal.
type CertaintyTier int

const (
	TierProbable    CertaintyTier = 1
	TierNearCertain CertaintyTier = 2
	TierCertain     CertaintyTier = 3
)

// Rank devuelve 3/2/1, o 0 para un valor desconocido.
func (t CertaintyTier) Rank() int {
	if t < TierProbable || t > TierCertain {
		return 0
	}
	return int(t)
}

// AtLeast compara por rango ordinal.
func (t CertaintyTier) AtLeast(min CertaintyTier) bool {
	return t.Rank() > 0 && t.Rank() >= min.Rank()
}

func (t CertaintyTier) String() string {
	switch t {
	case TierCertain:
		return "CERTAIN"
	case TierNearCertain:
		return "NEAR_CERTAIN"
	case TierProbable:
		return "PROBABLE"
	default:
		return "UNKNOWN"
	}
}

// ParseCertaintyTier acepta "certain", "near_certain" o "probable" (sin distinguir mayúsculas).
func ParseCertaintyTier(s string) (CertaintyTier, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CERTAIN":
		return TierCertain, nil
	case "NEAR_CERTAIN", "NEAR-CERTAIN", "NEARCERTAIN":
		return TierNearCertain, nil
	case "PROBABLE":
		return TierProbable, nil
	}
	return 0, fmt.Errorf("unknown certainty tier %q", s)
}

// Opportunity es una señal de trade detectada en un scan. No se muta.
type Opportunity struct {
	LocationID   string
	Ticker       string
	Title        string
	Action       Action
	ObservedMaxF float64
	Threshold    float64
	Kind         MarketKind
	Price        float64 // ask a pagar, 0..1
	FairValue    float64
	Edge         float64 // FairValue - Price
	Tier         CertaintyTier
	DetectedAt   time.Time
}

// ProfitPotential es el beneficio esperado por dólar arriesgado.
func (o Opportunity) ProfitPotential() float64 {
	if o.Price <= 0 {
		return 0
	}
	return o.Edge / o.Price
}

func (o Opportunity) String() string {
	return fmt.Sprintf("%s | %s %s @ %.0f¢ (fair %.0f¢, edge %.1f¢) | max %.1f°F vs %.0f°F | %s",
		strings.ToUpper(o.LocationID), o.Action, o.Ticker,
		o.Price*100, o.FairValue*100, o.Edge*100,
		o.ObservedMaxF, o.Threshold, o.Tier)
}
