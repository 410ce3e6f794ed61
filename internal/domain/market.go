package domain

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// ErrInvalidMarket indica umbrales incompatibles con el tipo de mercado.
var ErrInvalidMarket = errors.New("invalid market")

// MarketKind es la forma del contrato de temperatura.
type MarketKind int

const (
	KindAbove   MarketKind = iota + 1 // "85°F or above": solo umbral inferior
	KindBelow                         // "80°F or below": solo umbral superior
	KindBetween                       // "81°F to 84°F": ambos
)

func (k MarketKind) String() string {
	switch k {
	case KindAbove:
		return "above"
	case KindBelow:
		return "below"
	case KindBetween:
		return "between"
	default:
		return "unknown"
	}
}

// Market es un snapshot inmutable de un contrato activo.
// Los umbrales solo se fijan con los constructores NewXxxMarket.
type Market struct {
	Ticker       string
	Title        string
	Subtitle     string
	YesBid       float64 // 0..1
	YesAsk       float64
	NoBid        float64
	NoAsk        float64
	Volume       int64
	OpenInterest int64
	Expiration   time.Time

	kind MarketKind
	low  float64
	high float64
}

// NewAboveMarket crea un mercado "low o más".
func NewAboveMarket(ticker string, low float64) (Market, error) {
	if !finite(low) {
		return Market{}, fmt.Errorf("%w: %s above threshold %v", ErrInvalidMarket, ticker, low)
	}
	return Market{Ticker: ticker, kind: KindAbove, low: low}, nil
}

// NewBelowMarket crea un mercado "high o menos".
func NewBelowMarket(ticker string, high float64) (Market, error) {
	if !finite(high) {
		return Market{}, fmt.Errorf("%w: %s below threshold %v", ErrInvalidMarket, ticker, high)
	}
	return Market{Ticker: ticker, kind: KindBelow, high: high}, nil
}

// NewBetweenMarket crea un mercado de rango [low, high].
func NewBetweenMarket(ticker string, low, high float64) (Market, error) {
	if !finite(low) || !finite(high) || low > high {
		return Market{}, fmt.Errorf("%w: %s range %v-%v", ErrInvalidMarket, ticker, low, high)
	}
	return Market{Ticker: ticker, kind: KindBetween, low: low, high: high}, nil
}

// Kind devuelve el tipo; cero si el mercado no salió de un constructor.
func (m Market) Kind() MarketKind {
	return m.kind
}

// Low devuelve el umbral inferior (Above y Between).
func (m Market) Low() (float64, bool) {
	if m.kind == KindAbove || m.kind == KindBetween {
		return m.low, true
	}
	return 0, false
}

// High devuelve el umbral superior (Below y Between).
func (m Market) High() (float64, bool) {
	if m.kind == KindBelow || m.kind == KindBetween {
		return m.high, true
	}
	return 0, false
}

// Label une título y subtítulo para logs y tablas.
func (m Market) Label() string {
	return strings.TrimSpace(m.Title + " " + m.Subtitle)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
