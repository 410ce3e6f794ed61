package ports

import (
	"context"

	"github.com/alejandrodnm/weatherarb/internal/domain"
)

// OrderExecutor places orders and reports the available balance.
type OrderExecutor interface {
	// PlaceOrder submits a limit buy. A rejected order is reported through
	// OrderResult.Success=false; the error is reserved for transport failures.
	PlaceOrder(ctx context.Context, req domain.OrderRequest) (domain.OrderResult, error)

	// GetBalance returns the available balance in cents.
	GetBalance(ctx context.Context) (int64, error)
}
