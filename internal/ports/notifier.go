package ports

import (
	"context"

	"github.com/alejandrodnm/weatherarb/internal/domain"
)

// Alerter avisa al usuario de una oportunidad antes de ejecutarla.
// Las implementaciones aplican su propio cooldown y nunca fallan hacia arriba.
type Alerter interface {
	OpportunityAlert(ctx context.Context, opp domain.Opportunity)
}

// StatusReporter imprime el resumen periódico de la sesión.
type StatusReporter interface {
	ReportStatus(ctx context.Context, status domain.StatusSnapshot)
}
