package weather

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/alejandrodnm/weatherarb/internal/domain"
)

const defaultMETARWait = 10 * time.Second

// Temperature/dewpoint group of a raw METAR, e.g. " 26/18 " or " M03/M07 ".
var metarTempGroup = regexp.MustCompile(`\s(M?\d{2})/(M?\d{2})\s`)

// METAR fetches the latest aviation report from aviationweather.gov.
type METAR struct {
	client  *httpClient
	baseURL string
	timeout time.Duration
	now     func() time.Time
}

type metarReport struct {
	IcaoID  string   `json:"icaoId"`
	Temp    *float64 `json:"temp"`
	ObsTime *int64   `json:"obsTime"`
	RawOb   string   `json:"rawOb"`
}

// NewMETAR creates the source. Empty baseURL uses the production host.
func NewMETAR(baseURL string, timeout time.Duration, userAgent string) *METAR {
	if baseURL == "" {
		baseURL = DefaultMETARBase
	}
	if timeout <= 0 {
		timeout = defaultMETARWait
	}
	return &METAR{
		client:  newHTTPClient(timeout, userAgent),
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		now:     time.Now,
	}
}

func (s *METAR) Name() string            { return "metar" }
func (s *METAR) Kind() domain.SourceKind { return domain.SourceFastFeed }
func (s *METAR) Timeout() time.Duration  { return s.timeout }
func (s *METAR) CloseIdleConnections()   { s.client.CloseIdle() }

// Fetch returns the latest report as a single observation, or nothing.
func (s *METAR) Fetch(ctx context.Context, loc domain.Location, _ int) ([]domain.Observation, error) {
	station := loc.Metar()
	q := url.Values{}
	q.Set("ids", station)
	q.Set("format", "json")

	var reports []metarReport
	if err := s.client.getJSON(ctx, s.baseURL+"/metar?"+q.Encode(), "application/json", &reports); err != nil {
		return nil, fmt.Errorf("metar.Fetch %s: %w", station, err)
	}
	if len(reports) == 0 {
		slog.Debug("metar: no report", "station", station)
		return nil, nil
	}

	m := reports[0]
	var tempC float64
	switch {
	case m.Temp != nil:
		tempC = *m.Temp
	default:
		c, ok := parseRawMETARTemp(m.RawOb)
		if !ok {
			slog.Warn("metar: report without temperature", "station", station)
			return nil, nil
		}
		tempC = c
	}

	ts := s.now().UTC()
	if m.ObsTime != nil {
		ts = time.Unix(*m.ObsTime, 0).UTC()
	}

	o, err := domain.NewObservation(station, ts, domain.CelsiusToFahrenheit(tempC), domain.SourceFastFeed)
	if err != nil {
		slog.Warn("metar: implausible reading dropped", "station", station, "err", err)
		return nil, nil
	}
	return []domain.Observation{o}, nil
}

// parseRawMETARTemp extracts the temperature in °C from the T/Td group.
// A leading M means minus.
func parseRawMETARTemp(raw string) (float64, bool) {
	m := metarTempGroup.FindStringSubmatch(raw)
	if m == nil {
		return 0, false
	}
	s := m[1]
	neg := strings.HasPrefix(s, "M")
	v, err := strconv.ParseFloat(strings.TrimPrefix(s, "M"), 64)
	if err != nil {
		return 0, false
	}
	if neg {
		v = -v
	}
	return v, true
}
