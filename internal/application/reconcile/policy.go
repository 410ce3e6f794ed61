package reconcile

import (
	"sort"

	"github.com/alejandrodnm/weatherarb/internal/domain"
)

// Policy elige la lectura del ciclo entre los candidatos (uno por fuente).
// ok=false significa que este ciclo no aporta lectura.
type Policy interface {
	Name() string
	Select(cands []domain.Observation) (domain.Observation, bool)
}

// MaxPolicy toma la temperatura estrictamente más alta; los empates los
// gana la fuente de mayor prioridad.
type MaxPolicy struct{}

func (MaxPolicy) Name() string { return "max" }

func (MaxPolicy) Select(cands []domain.Observation) (domain.Observation, bool) {
	var (
		best domain.Observation
		ok   bool
	)
	for _, c := range cands {
		if !ok || beats(c, best) {
			best, ok = c, true
		}
	}
	return best, ok
}

// AgreementPolicy exige que al menos dos fuentes coincidan dentro de
// ToleranceF; de la pareja que coincide se toma la más alta. Sin acuerdo,
// no hay lectura.
type AgreementPolicy struct {
	ToleranceF float64
}

func (AgreementPolicy) Name() string { return "agreement" }

func (p AgreementPolicy) Select(cands []domain.Observation) (domain.Observation, bool) {
	tol := p.ToleranceF
	if tol <= 0 {
		tol = 2
	}

	// Orden de mayor a menor: la primera pareja que coincide es la más alta.
	sorted := make([]domain.Observation, len(cands))
	copy(sorted, cands)
	sort.SliceStable(sorted, func(i, j int) bool { return beats(sorted[i], sorted[j]) })

	for i := 0; i < len(sorted); i++ {
		for j := i + 1; j < len(sorted); j++ {
			if sorted[i].Source == sorted[j].Source {
				continue
			}
			if sorted[i].TemperatureF-sorted[j].TemperatureF <= tol {
				return sorted[i], true
			}
		}
	}
	return domain.Observation{}, false
}

// NewPolicy devuelve la política por nombre; cualquier otro valor es max.
func NewPolicy(name string, toleranceF float64) Policy {
	if name == "agreement" {
		return AgreementPolicy{ToleranceF: toleranceF}
	}
	return MaxPolicy{}
}

// beats indica si a gana a b: más caliente, o igual y de mayor prioridad.
func beats(a, b domain.Observation) bool {
	if a.TemperatureF != b.TemperatureF {
		return a.TemperatureF > b.TemperatureF
	}
	return a.Source.Priority() > b.Source.Priority()
}
