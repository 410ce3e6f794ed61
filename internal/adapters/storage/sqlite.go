package storage

// sqlite.go: ledger de trades en SQLite (pure Go, sin CGo).
//
// Una fila por trade ejecutado, append-only. El ID es la clave primaria:
// reinsertar el mismo registro es un error, no un duplicado silencioso.

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/alejandrodnm/weatherarb/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS trades (
    seq           INTEGER PRIMARY KEY AUTOINCREMENT,
    id            TEXT    NOT NULL UNIQUE,
    ticker        TEXT    NOT NULL,
    city          TEXT    NOT NULL,
    side          TEXT    NOT NULL,
    quantity      INTEGER NOT NULL,
    price_cents   INTEGER NOT NULL,
    cost          REAL    NOT NULL,
    market_type   TEXT    NOT NULL,
    threshold     REAL    NOT NULL DEFAULT 0,
    temp_at_trade REAL    NOT NULL DEFAULT 0,
    certainty     TEXT    NOT NULL,
    edge          REAL    NOT NULL DEFAULT 0,
    traded_at     TEXT    NOT NULL, -- RFC3339Nano UTC
    mode          TEXT    NOT NULL,
    order_id      TEXT    NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_trades_at   ON trades(traded_at DESC);
CREATE INDEX IF NOT EXISTS idx_trades_city ON trades(city);
`

// SQLiteLedger implementa ports.TradeLedger sobre SQLite.
type SQLiteLedger struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteLedger abre (o crea) la base de datos en path. ":memory:" para tests.
func NewSQLiteLedger(path string) (*SQLiteLedger, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewSQLiteLedger: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewSQLiteLedger: apply schema: %w", err)
	}
	return &SQLiteLedger{db: db}, nil
}

// Append inserta un trade.
func (s *SQLiteLedger) Append(ctx context.Context, rec domain.TradeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO trades (
			id, ticker, city, side, quantity, price_cents, cost, market_type,
			threshold, temp_at_trade, certainty, edge, traded_at, mode, order_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Ticker, rec.Location, rec.Side, rec.Quantity, rec.PriceCents, rec.Cost, rec.MarketKind,
		rec.Threshold, rec.TempAtTrade, rec.Certainty, rec.EdgePct, rec.Timestamp.UTC().Format(time.RFC3339Nano), rec.Mode, rec.OrderID,
	)
	if err != nil {
		return fmt.Errorf("storage.SQLiteLedger.Append: %s: %w", rec.ID, err)
	}
	return nil
}

// List devuelve todos los trades en orden de inserción.
func (s *SQLiteLedger) List(ctx context.Context) ([]domain.TradeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ticker, city, side, quantity, price_cents, cost, market_type,
		       threshold, temp_at_trade, certainty, edge, traded_at, mode, order_id
		FROM trades ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("storage.SQLiteLedger.List: query: %w", err)
	}
	defer rows.Close()

	var out []domain.TradeRecord
	for rows.Next() {
		var (
			r  domain.TradeRecord
			at string
		)
		if err := rows.Scan(
			&r.ID, &r.Ticker, &r.Location, &r.Side, &r.Quantity, &r.PriceCents, &r.Cost, &r.MarketKind,
			&r.Threshold, &r.TempAtTrade, &r.Certainty, &r.EdgePct, &at, &r.Mode, &r.OrderID,
		); err != nil {
			return nil, fmt.Errorf("storage.SQLiteLedger.List: scan: %w", err)
		}
		if r.Timestamp, err = time.Parse(time.RFC3339Nano, at); err != nil {
			return nil, fmt.Errorf("storage.SQLiteLedger.List: parse traded_at %q: %w", at, err)
		}
		r.Timestamp = r.Timestamp.UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close cierra la conexión.
func (s *SQLiteLedger) Close() error {
	return s.db.Close()
}
