package domain

import (
	"math"
	"time"
)

// DailyMaxTracker guarda la máxima confirmada del día local de una ubicación.
//
// La máxima solo sube dentro de un mismo día. El cambio de día no se hace
// aquí: el dueño del tracker lo sustituye por uno nuevo.
type DailyMaxTracker struct {
	LocationID string
	Date       time.Time // medianoche local del día que registra

	maxF float64
	last *Observation
}

// NewDailyMaxTracker crea un tracker vacío (máxima = -Inf) para el día local de day.
func NewDailyMaxTracker(locationID string, day time.Time) *DailyMaxTracker {
	return &DailyMaxTracker{
		LocationID: locationID,
		Date:       LocalMidnight(day, day.Location()),
		maxF:       math.Inf(-1),
	}
}

// MaxF devuelve la máxima actual, o -Inf si aún no hay lecturas.
func (t *DailyMaxTracker) MaxF() float64 {
	return t.maxF
}

// IsSet indica si el tracker ya aceptó alguna lectura.
func (t *DailyMaxTracker) IsSet() bool {
	return !math.IsInf(t.maxF, -1)
}

// Last devuelve la última observación aceptada, o nil.
func (t *DailyMaxTracker) Last() *Observation {
	if t.last == nil {
		return nil
	}
	o := *t.last
	return &o
}

// Update acepta obs si supera estrictamente la máxima actual.
func (t *DailyMaxTracker) Update(obs Observation) bool {
	if !obs.Plausible() || obs.TemperatureF <= t.maxF {
		return false
	}
	t.maxF = obs.TemperatureF
	t.last = &obs
	return true
}

// ExpiredAt es true cuando el día local de now es posterior al del tracker.
func (t *DailyMaxTracker) ExpiredAt(now time.Time) bool {
	today := LocalMidnight(now, t.Date.Location())
	return today.After(t.Date)
}
