package ports

import (
	"context"

	"github.com/alejandrodnm/weatherarb/internal/domain"
)

// TradeLedger is the append-only history of executed trades.
type TradeLedger interface {
	Append(ctx context.Context, rec domain.TradeRecord) error

	// List returns every record in insertion order.
	List(ctx context.Context) ([]domain.TradeRecord, error)

	Close() error
}
