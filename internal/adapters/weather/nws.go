package weather

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/alejandrodnm/weatherarb/internal/domain"
)

const defaultNWSWait = 10 * time.Second

// NWS fetches the latest observation of the official station from api.weather.gov.
type NWS struct {
	client  *httpClient
	baseURL string
	timeout time.Duration
	now     func() time.Time
}

type nwsLatestResponse struct {
	Properties struct {
		Timestamp   string `json:"timestamp"`
		Temperature struct {
			Value    *float64 `json:"value"`
			UnitCode string   `json:"unitCode"`
		} `json:"temperature"`
	} `json:"properties"`
}

// NewNWS creates the source. Empty baseURL uses the production host.
func NewNWS(baseURL string, timeout time.Duration, userAgent string) *NWS {
	if baseURL == "" {
		baseURL = DefaultNWSBase
	}
	if timeout <= 0 {
		timeout = defaultNWSWait
	}
	return &NWS{
		client:  newHTTPClient(timeout, userAgent),
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		now:     time.Now,
	}
}

func (s *NWS) Name() string            { return "nws" }
func (s *NWS) Kind() domain.SourceKind { return domain.SourcePrimaryStation }
func (s *NWS) Timeout() time.Duration  { return s.timeout }
func (s *NWS) CloseIdleConnections()   { s.client.CloseIdle() }

// Fetch returns the latest station observation, or nothing when the station
// reports a null temperature.
func (s *NWS) Fetch(ctx context.Context, loc domain.Location, _ int) ([]domain.Observation, error) {
	station := loc.StationID
	endpoint := fmt.Sprintf("%s/stations/%s/observations/latest", s.baseURL, url.PathEscape(station))

	var resp nwsLatestResponse
	if err := s.client.getJSON(ctx, endpoint, "application/geo+json", &resp); err != nil {
		return nil, fmt.Errorf("nws.Fetch %s: %w", station, err)
	}

	v := resp.Properties.Temperature.Value
	if v == nil {
		slog.Warn("nws: no temperature in latest observation", "station", station)
		return nil, nil
	}

	tempC := *v
	if strings.HasSuffix(resp.Properties.Temperature.UnitCode, "degF") {
		tempC = (tempC - 32) * 5 / 9
	}

	ts := s.now().UTC()
	if resp.Properties.Timestamp != "" {
		parsed, err := time.Parse(time.RFC3339, resp.Properties.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("nws.Fetch %s: parse timestamp %q: %w", station, resp.Properties.Timestamp, err)
		}
		ts = parsed
	}

	o, err := domain.NewObservation(station, ts, domain.CelsiusToFahrenheit(tempC), domain.SourcePrimaryStation)
	if err != nil {
		slog.Warn("nws: implausible reading dropped", "station", station, "err", err)
		return nil, nil
	}
	return []domain.Observation{o}, nil
}
