package storage

// json.go: ledger en un único documento JSON {"trades": [...]}.
//
// Cada Append reescribe el fichero completo vía tmp + rename, así un crash
// a mitad de escritura nunca deja el ledger truncado.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/alejandrodnm/weatherarb/internal/domain"
)

type ledgerDoc struct {
	Trades []domain.TradeRecord `json:"trades"`
}

// JSONLedger implementa ports.TradeLedger sobre un fichero JSON.
type JSONLedger struct {
	path   string
	mu     sync.Mutex
	trades []domain.TradeRecord
}

// NewJSONLedger carga el fichero si existe; si no, empieza vacío.
// Un fichero corrupto es un error: no se sobrescribe historia.
func NewJSONLedger(path string) (*JSONLedger, error) {
	l := &JSONLedger{path: path}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return l, nil
	case err != nil:
		return nil, fmt.Errorf("storage.NewJSONLedger: read %q: %w", path, err)
	}
	if len(data) == 0 {
		return l, nil
	}

	var doc ledgerDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("storage.NewJSONLedger: decode %q: %w", path, err)
	}
	l.trades = doc.Trades
	return l, nil
}

// Append añade el trade y persiste el documento.
func (l *JSONLedger) Append(_ context.Context, rec domain.TradeRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	next := append(l.trades[:len(l.trades):len(l.trades)], rec)
	if err := l.write(next); err != nil {
		return fmt.Errorf("storage.JSONLedger.Append: %w", err)
	}
	l.trades = next
	return nil
}

// List devuelve una copia de los trades en orden de inserción.
func (l *JSONLedger) List(_ context.Context) ([]domain.TradeRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]domain.TradeRecord, len(l.trades))
	copy(out, l.trades)
	return out, nil
}

// Close no hace nada: cada Append ya está en disco.
func (l *JSONLedger) Close() error {
	return nil
}

func (l *JSONLedger) write(trades []domain.TradeRecord) error {
	if trades == nil {
		trades = []domain.TradeRecord{}
	}
	data, err := json.MarshalIndent(ledgerDoc{Trades: trades}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}

	dir := filepath.Dir(l.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %q: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(l.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	defer os.Remove(tmp.Name()) // no-op tras el rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), l.path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
