package domain

import (
	"errors"
	"fmt"
	"time"
)

// Rango plausible para una lectura en °F. Fuera de él la lectura se descarta
// antes de llegar a cualquier otra estructura.
const (
	MinPlausibleF = -50.0
	MaxPlausibleF = 140.0
)

// ErrImplausibleTemperature indica una lectura fuera del rango plausible.
var ErrImplausibleTemperature = errors.New("implausible temperature")

// SourceKind identifica de qué tipo de fuente viene una observación.
// El valor numérico es la prioridad de desempate (mayor gana).
type SourceKind int

const (
	SourcePrimaryStation SourceKind = iota + 1 // NWS: última observación oficial de la estación
	SourceFastFeed                             // METAR: reporte de aviación, más frecuente
	SourceHistoricalFeed                       // IEM: serie completa del día
)

func (k SourceKind) String() string {
	switch k {
	case SourcePrimaryStation:
		return "nws"
	case SourceFastFeed:
		return "metar"
	case SourceHistoricalFeed:
		return "iem"
	default:
		return "unknown"
	}
}

// Priority devuelve el orden de desempate: histórico > rápido > estación.
func (k SourceKind) Priority() int {
	if k < SourcePrimaryStation || k > SourceHistoricalFeed {
		return 0
	}
	return int(k)
}

// IsSeries es true para fuentes que devuelven la serie del día.
// Sus lecturas no caducan a los 90 minutos: capturan un pico ya confirmado.
func (k SourceKind) IsSeries() bool {
	return k == SourceHistoricalFeed
}

// Observation es una lectura de temperatura ya normalizada a °F y UTC.
type Observation struct {
	StationID    string
	Timestamp    time.Time
	TemperatureF float64
	Source       SourceKind
}

// NewObservation construye una observación validando la plausibilidad.
func NewObservation(stationID string, ts time.Time, tempF float64, src SourceKind) (Observation, error) {
	if !IsPlausible(tempF) {
		return Observation{}, fmt.Errorf("%w: %.1f°F from %s/%s", ErrImplausibleTemperature, tempF, src, stationID)
	}
	return Observation{
		StationID:    stationID,
		Timestamp:    ts.UTC(),
		TemperatureF: tempF,
		Source:       src,
	}, nil
}

// IsPlausible devuelve false también para NaN.
func IsPlausible(tempF float64) bool {
	return tempF >= MinPlausibleF && tempF <= MaxPlausibleF
}

// Plausible aplica IsPlausible a la lectura.
func (o Observation) Plausible() bool {
	return IsPlausible(o.TemperatureF)
}

// Age devuelve la antigüedad de la lectura respecto a now.
func (o Observation) Age(now time.Time) time.Duration {
	return now.Sub(o.Timestamp)
}

// CelsiusToFahrenheit convierte °C a °F.
func CelsiusToFahrenheit(c float64) float64 {
	return c*9/5 + 32
}
