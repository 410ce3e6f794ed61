package domain

import "fmt"

// DefaultMaxLossPct es la fracción del capital inicial que dispara el corte.
const DefaultMaxLossPct = 0.50

// CapitalBreaker corta el trading live cuando la pérdida de la sesión alcanza
// MaxLossPct del balance inicial. Una vez disparado no se rearma.
type CapitalBreaker struct {
	InitialBalance  float64
	MaxLossPct      float64
	LastLoss        float64
	Triggered       bool
	TriggeredReason string
}

// NewCapitalBreaker usa DefaultMaxLossPct si maxLossPct no está en (0, 1].
func NewCapitalBreaker(initialBalance, maxLossPct float64) *CapitalBreaker {
	if maxLossPct <= 0 || maxLossPct > 1 {
		maxLossPct = DefaultMaxLossPct
	}
	return &CapitalBreaker{InitialBalance: initialBalance, MaxLossPct: maxLossPct}
}

// IsOpen devuelve true si el trading está permitido.
func (cb *CapitalBreaker) IsOpen() bool {
	return !cb.Triggered
}

// MaxLoss es la pérdida en dólares que dispara el corte.
func (cb *CapitalBreaker) MaxLoss() float64 {
	return cb.InitialBalance * cb.MaxLossPct
}

// Check evalúa el balance actual y devuelve IsOpen().
// Sin balance inicial conocido (<= 0) nunca dispara.
func (cb *CapitalBreaker) Check(currentBalance float64) bool {
	if cb.Triggered {
		return false
	}
	if cb.InitialBalance <= 0 {
		return true
	}
	loss := cb.InitialBalance - currentBalance
	cb.LastLoss = loss
	if loss >= cb.MaxLoss() {
		cb.Triggered = true
		cb.TriggeredReason = fmt.Sprintf("lost $%.2f (>= %.0f%% of $%.2f)",
			loss, cb.MaxLossPct*100, cb.InitialBalance)
	}
	return !cb.Triggered
}
