package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/weatherarb/internal/domain"
)

// MarketProvider lista los contratos de temperatura activos de una ubicación.
type MarketProvider interface {
	// ListActiveMarkets devuelve solo mercados activos cuyo evento es el día
	// local today, con los umbrales ya parseados.
	ListActiveMarkets(ctx context.Context, loc domain.Location, today time.Time) ([]domain.Market, error)
}
