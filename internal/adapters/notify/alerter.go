package notify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/alejandrodnm/weatherarb/internal/domain"
	"golang.org/x/time/rate"
)

// DefaultCooldown es el mínimo entre dos alertas.
const DefaultCooldown = 60 * time.Second

// Sink es un canal externo de alertas (webhook, Telegram).
type Sink interface {
	Name() string
	Send(ctx context.Context, title, message string) error
}

// Alerter implementa ports.Alerter: banner en consola y envío a los sinks,
// como mucho una alerta por cooldown.
type Alerter struct {
	out     io.Writer
	limiter *rate.Limiter
	sinks   []Sink
	now     func() time.Time
}

// NewAlerter crea el alerter. cooldown <= 0 desactiva el límite.
func NewAlerter(cooldown time.Duration, sinks ...Sink) *Alerter {
	return NewAlerterWriter(os.Stdout, cooldown, sinks...)
}

// NewAlerterWriter crea el alerter escribiendo el banner en out.
func NewAlerterWriter(out io.Writer, cooldown time.Duration, sinks ...Sink) *Alerter {
	limit := rate.Inf
	if cooldown > 0 {
		limit = rate.Every(cooldown)
	}
	a := &Alerter{
		out:     out,
		limiter: rate.NewLimiter(limit, 1),
		now:     time.Now,
	}
	for _, s := range sinks {
		if s != nil {
			a.sinks = append(a.sinks, s)
		}
	}
	return a
}

// WithClock sustituye el reloj (tests).
func (a *Alerter) WithClock(now func() time.Time) *Alerter {
	a.now = now
	return a
}

// OpportunityAlert nunca falla hacia arriba: los errores de los sinks se loguean.
func (a *Alerter) OpportunityAlert(ctx context.Context, opp domain.Opportunity) {
	if !a.limiter.AllowN(a.now(), 1) {
		slog.Debug("notify: alert suppressed by cooldown", "ticker", opp.Ticker)
		return
	}

	title, message := AlertText(opp)
	fmt.Fprintf(a.out, "\n%s\n  %s\n  %s\n%s\n", strings.Repeat("=", 56), title, message, strings.Repeat("=", 56))

	for _, s := range a.sinks {
		if err := s.Send(ctx, title, message); err != nil {
			slog.Warn("notify: alert delivery failed", "sink", s.Name(), "ticker", opp.Ticker, "err", err)
		}
	}
}

// AlertText arma título y cuerpo de la alerta.
func AlertText(opp domain.Opportunity) (title, message string) {
	title = "Weather Arb: " + strings.ToUpper(opp.LocationID)
	message = fmt.Sprintf("%s %s | Edge: %.1f%%", opp.Action, opp.Ticker, opp.Edge*100)
	return title, message
}
