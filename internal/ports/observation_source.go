package ports

import (
	"context"

	"github.com/alejandrodnm/weatherarb/internal/domain"
)

// ObservationSource obtiene lecturas de temperatura de un proveedor.
type ObservationSource interface {
	// Name identifica la fuente en logs ("iem", "metar", "nws").
	Name() string

	// Kind determina la prioridad de desempate y si aplica la regla de staleness.
	Kind() domain.SourceKind

	// Fetch devuelve cero o más lecturas para la ubicación. Las fuentes de
	// un solo punto devuelven como mucho una; las de serie devuelven la serie
	// de las últimas hoursBack horas. Un error equivale a "sin datos".
	Fetch(ctx context.Context, loc domain.Location, hoursBack int) ([]domain.Observation, error)
}
