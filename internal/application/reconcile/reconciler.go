package reconcile

// reconciler.go: combina las fuentes de temperatura en la máxima del día.
//
// Cada ciclo consulta todas las fuentes en paralelo, cada una con su
// propio timeout. Una fuente que falla cuenta como "sin datos": nunca rompe
// el ciclo. El tracker de cada ubicación vive aquí y se sustituye al cambiar
// el día local.

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/alejandrodnm/weatherarb/internal/domain"
	"github.com/alejandrodnm/weatherarb/internal/ports"
)

const (
	DefaultStaleness     = 90 * time.Minute
	DefaultSourceTimeout = 10 * time.Second
)

// Config contiene la configuración del reconciliador.
type Config struct {
	Staleness     time.Duration // edad máxima de una lectura puntual
	SourceTimeout time.Duration // para fuentes sin Timeout() propio
	Policy        Policy
}

// Result es la salida de un ciclo para una ubicación.
type Result struct {
	MaxF    float64             // máxima del día; -Inf si no hay
	HasData bool                // el tracker tiene máxima
	Latest  *domain.Observation // lectura elegida en este ciclo, o nil
	Updated bool                // la lectura elegida subió la máxima
}

// timeouter lo implementan las fuentes con timeout propio.
type timeouter interface {
	Timeout() time.Duration
}

// Reconciler es dueño de los trackers diarios. No es seguro para uso
// concurrente: lo llama una sola goroutine (el scheduler).
type Reconciler struct {
	cfg      Config
	sources  []ports.ObservationSource
	trackers map[string]*domain.DailyMaxTracker
	now      func() time.Time
}

// New crea un Reconciler con las fuentes dadas.
func New(cfg Config, sources ...ports.ObservationSource) *Reconciler {
	if cfg.Staleness <= 0 {
		cfg.Staleness = DefaultStaleness
	}
	if cfg.SourceTimeout <= 0 {
		cfg.SourceTimeout = DefaultSourceTimeout
	}
	if cfg.Policy == nil {
		cfg.Policy = MaxPolicy{}
	}
	return &Reconciler{
		cfg:      cfg,
		sources:  sources,
		trackers: make(map[string]*domain.DailyMaxTracker),
		now:      time.Now,
	}
}

// WithClock sustituye el reloj (tests).
func (r *Reconciler) WithClock(now func() time.Time) *Reconciler {
	r.now = now
	return r
}

// Reconcile consulta las fuentes y actualiza el tracker de loc.
// El error solo se devuelve si la zona horaria de loc es inválida.
func (r *Reconciler) Reconcile(ctx context.Context, loc domain.Location) (Result, error) {
	zone, err := loc.Zone()
	if err != nil {
		return Result{}, fmt.Errorf("reconcile.Reconcile: %w", err)
	}

	now := r.now()
	tracker := r.trackerFor(loc.ID, now, zone)
	hoursBack := int(domain.HoursSinceMidnight(now, zone)) + 1

	cands := r.collect(ctx, loc, hoursBack, now, zone)

	res := Result{}
	if chosen, ok := r.cfg.Policy.Select(cands); ok {
		res.Updated = tracker.Update(chosen)
		res.Latest = &chosen
		if res.Updated {
			slog.Info("reconcile: new daily max",
				"location", loc.ID,
				"max_f", chosen.TemperatureF,
				"source", chosen.Source.String(),
				"observed_at", chosen.Timestamp.Format(time.RFC3339),
			)
		}
	} else if len(cands) > 0 {
		slog.Debug("reconcile: policy rejected candidates",
			"location", loc.ID, "policy", r.cfg.Policy.Name(), "candidates", len(cands))
	}

	res.MaxF = tracker.MaxF()
	res.HasData = tracker.IsSet()
	return res, nil
}

// TrackerStatus devuelve el estado del tracker de locationID para el reporte.
func (r *Reconciler) TrackerStatus(locationID string) (domain.TrackerStatus, bool) {
	t, ok := r.trackers[locationID]
	if !ok {
		return domain.TrackerStatus{}, false
	}
	st := domain.TrackerStatus{
		LocationID: locationID,
		Date:       t.Date,
		MaxF:       t.MaxF(),
		Set:        t.IsSet(),
	}
	if last := t.Last(); last != nil {
		st.Source = last.Source
		st.ObservedAt = last.Timestamp
	}
	return st, true
}

// CurrentMax devuelve la máxima actual de locationID (-Inf si no hay tracker).
func (r *Reconciler) CurrentMax(locationID string) (float64, bool) {
	t, ok := r.trackers[locationID]
	if !ok || !t.IsSet() {
		return 0, false
	}
	return t.MaxF(), true
}

// trackerFor devuelve el tracker del día; al avanzar el día local crea uno
// nuevo. Un reloj que retrocede no recrea el tracker.
func (r *Reconciler) trackerFor(id string, now time.Time, zone *time.Location) *domain.DailyMaxTracker {
	t, ok := r.trackers[id]
	if ok && !t.ExpiredAt(now) {
		return t
	}
	if ok {
		slog.Info("reconcile: local day rolled over",
			"location", id,
			"previous_date", t.Date.Format("2006-01-02"),
			"previous_max_f", t.MaxF(),
		)
	}
	t = domain.NewDailyMaxTracker(id, now.In(zone))
	r.trackers[id] = t
	return t
}

type fetchResult struct {
	source ports.ObservationSource
	obs    []domain.Observation
	err    error
}

// collect consulta todas las fuentes en paralelo y devuelve el mejor
// candidato válido de cada una.
func (r *Reconciler) collect(ctx context.Context, loc domain.Location, hoursBack int, now time.Time, zone *time.Location) []domain.Observation {
	resultCh := make(chan fetchResult, len(r.sources))

	var wg sync.WaitGroup
	for _, src := range r.sources {
		wg.Add(1)
		go func(src ports.ObservationSource) {
			defer wg.Done()
			fctx, cancel := context.WithTimeout(ctx, r.timeoutFor(src))
			defer cancel()
			obs, err := src.Fetch(fctx, loc, hoursBack)
			resultCh <- fetchResult{source: src, obs: obs, err: err}
		}(src)
	}

	// Cerrar resultCh cuando todas las fuentes terminen.
	go func() {
		wg.Wait()
		close(resultCh)
	}()

	var cands []domain.Observation
	for res := range resultCh {
		if res.err != nil {
			slog.Warn("reconcile: source failed",
				"location", loc.ID, "source", res.source.Name(), "err", res.err)
			continue
		}
		if best, ok := r.bestOf(res, loc, now, zone); ok {
			cands = append(cands, best)
		}
	}

	// Orden estable para que la política no dependa del orden de llegada.
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].Source.Priority() > cands[j].Source.Priority()
	})
	return cands
}

// bestOf filtra las lecturas de una fuente y devuelve la más alta.
//   - implausibles: fuera siempre.
//   - series (IEM): solo las del día local actual; no caducan.
//   - puntuales: fuera si tienen más de Staleness o son de otro día local.
func (r *Reconciler) bestOf(res fetchResult, loc domain.Location, now time.Time, zone *time.Location) (domain.Observation, bool) {
	series := res.source.Kind().IsSeries()

	var (
		best domain.Observation
		ok   bool
	)
	for _, o := range res.obs {
		if !o.Plausible() {
			slog.Warn("reconcile: implausible reading dropped",
				"location", loc.ID, "source", res.source.Name(), "temp_f", o.TemperatureF)
			continue
		}
		if !domain.SameLocalDay(o.Timestamp, now, zone) {
			if !series {
				slog.Debug("reconcile: reading from another local day dropped",
					"location", loc.ID, "source", res.source.Name(), "observed_at", o.Timestamp.Format(time.RFC3339))
			}
			continue
		}
		if !series {
			if age := o.Age(now); age > r.cfg.Staleness {
				slog.Warn("reconcile: stale reading dropped",
					"location", loc.ID,
					"source", res.source.Name(),
					"age_min", int(age.Minutes()),
				)
				continue
			}
		}
		if !ok || o.TemperatureF > best.TemperatureF {
			best, ok = o, true
		}
	}
	return best, ok
}

func (r *Reconciler) timeoutFor(src ports.ObservationSource) time.Duration {
	if t, ok := src.(timeouter); ok && t.Timeout() > 0 {
		return t.Timeout()
	}
	return r.cfg.SourceTimeout
}
