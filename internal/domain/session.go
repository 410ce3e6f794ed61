package domain

import (
	"fmt"
	"strings"
	"time"
)

// Mode es el interruptor global paper/live.
type Mode string

const (
	ModePaper Mode = "paper"
	ModeLive  Mode = "live"
)

// DefaultPaperBalance es el capital simulado con el que arranca una sesión paper.
const DefaultPaperBalance = 1000.0

// ParseMode valida el modo de trading.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModePaper:
		return ModePaper, nil
	case ModeLive:
		return ModeLive, nil
	}
	return "", fmt.Errorf("unknown trading mode %q (want paper|live)", s)
}

func (m Mode) IsPaper() bool { return m != ModeLive }

// Session es el estado de la sesión, propiedad del controlador de ejecución.
// Solo se reinicia al reiniciar el proceso.
type Session struct {
	Mode               Mode
	StartedAt          time.Time
	TradedTickers      map[string]struct{}
	PaperBalance       float64
	PaperPnL           float64
	InitialLiveBalance float64
	SessionLoss        float64
	ScanCount          int
	OpportunityCount   int
	TradeCount         int
}

// NewSession crea una sesión vacía.
func NewSession(mode Mode, paperBalance float64, startedAt time.Time) *Session {
	return &Session{
		Mode:          mode,
		StartedAt:     startedAt,
		TradedTickers: make(map[string]struct{}),
		PaperBalance:  paperBalance,
	}
}

// HasTraded indica si el ticker ya se operó en esta sesión.
func (s Session) HasTraded(ticker string) bool {
	_, ok := s.TradedTickers[ticker]
	return ok
}

// MarkTraded registra el ticker como operado.
func (s *Session) MarkTraded(ticker string) {
	s.TradedTickers[ticker] = struct{}{}
}

// Clone devuelve una copia independiente (incluido el set de tickers).
func (s *Session) Clone() Session {
	c := *s
	c.TradedTickers = make(map[string]struct{}, len(s.TradedTickers))
	for t := range s.TradedTickers {
		c.TradedTickers[t] = struct{}{}
	}
	return c
}

// StatusSnapshot es lo que imprime el reporte de estado.
type StatusSnapshot struct {
	Mode             Mode
	Runtime          time.Duration
	Scans            int
	Opportunities    int
	Trades           int
	PaperBalance     float64
	PaperPnL         float64
	LiveBalance      float64
	LivePnL          float64
	LiveBalanceKnown bool
	Halted           bool
	HaltReason       string
	Trackers         []TrackerStatus
}

// TrackerStatus resume el tracker de una ubicación para el reporte.
type TrackerStatus struct {
	LocationID string
	Date       time.Time
	MaxF       float64
	Set        bool
	Source     SourceKind
	ObservedAt time.Time
}
