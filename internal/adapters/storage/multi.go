package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/alejandrodnm/weatherarb/internal/domain"
	"github.com/alejandrodnm/weatherarb/internal/ports"
)

// Multi reparte cada Append entre varios ledgers. List lee del primero.
type Multi struct {
	ledgers []ports.TradeLedger
}

// NewMulti agrupa los ledgers; nil se ignora.
func NewMulti(ledgers ...ports.TradeLedger) *Multi {
	m := &Multi{}
	for _, l := range ledgers {
		if l != nil {
			m.ledgers = append(m.ledgers, l)
		}
	}
	return m
}

// Append escribe en todos y agrega los errores. Un fallo en uno no impide
// escribir en los demás.
func (m *Multi) Append(ctx context.Context, rec domain.TradeRecord) error {
	var errs []error
	for _, l := range m.ledgers {
		if err := l.Append(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// List devuelve el contenido del ledger primario.
func (m *Multi) List(ctx context.Context) ([]domain.TradeRecord, error) {
	if len(m.ledgers) == 0 {
		return nil, nil
	}
	recs, err := m.ledgers[0].List(ctx)
	if err != nil {
		return nil, fmt.Errorf("storage.Multi.List: %w", err)
	}
	return recs, nil
}

// Close cierra todos.
func (m *Multi) Close() error {
	var errs []error
	for _, l := range m.ledgers {
		if err := l.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
