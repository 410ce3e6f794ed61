package weather

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/alejandrodnm/weatherarb/internal/domain"
)

const (
	iemPath        = "/cgi-bin/request/asos.py"
	iemTimeLayout  = "2006-01-02 15:04"
	defaultIEMWait = 15 * time.Second
)

// IEM fetches the ASOS series (routine METARs plus specials) from the Iowa
// Environmental Mesonet. It is the historical source: the reconciler takes
// the peak of today's entries and does not apply the staleness rule.
type IEM struct {
	client  *httpClient
	baseURL string
	timeout time.Duration
	now     func() time.Time
}

// NewIEM creates the source. Empty baseURL uses the production host.
func NewIEM(baseURL string, timeout time.Duration, userAgent string) *IEM {
	if baseURL == "" {
		baseURL = DefaultIEMBase
	}
	if timeout <= 0 {
		timeout = defaultIEMWait
	}
	return &IEM{
		client:  newHTTPClient(timeout, userAgent),
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		now:     time.Now,
	}
}

func (s *IEM) Name() string            { return "iem" }
func (s *IEM) Kind() domain.SourceKind { return domain.SourceHistoricalFeed }
func (s *IEM) Timeout() time.Duration  { return s.timeout }
func (s *IEM) CloseIdleConnections()   { s.client.CloseIdle() }

// Fetch returns the observations of the last hoursBack hours, newest first.
func (s *IEM) Fetch(ctx context.Context, loc domain.Location, hoursBack int) ([]domain.Observation, error) {
	station := loc.Metar()
	if hoursBack < 1 {
		hoursBack = 1
	}

	now := s.now().UTC()
	start := now.Add(-time.Duration(hoursBack) * time.Hour)
	// The end date is exclusive on the IEM side, so ask through tomorrow.
	end := now.AddDate(0, 0, 1)

	q := url.Values{}
	q.Set("station", strings.TrimPrefix(station, "K"))
	q.Set("data", "tmpf")
	q.Set("year1", strconv.Itoa(start.Year()))
	q.Set("month1", strconv.Itoa(int(start.Month())))
	q.Set("day1", strconv.Itoa(start.Day()))
	q.Set("year2", strconv.Itoa(end.Year()))
	q.Set("month2", strconv.Itoa(int(end.Month())))
	q.Set("day2", strconv.Itoa(end.Day()))
	q.Set("tz", "Etc/UTC")
	q.Set("format", "onlycomma")
	q.Set("latlon", "no")
	q.Set("elev", "no")
	q.Set("missing", "empty")
	q.Set("trace", "empty")
	q.Set("direct", "no")

	body, err := s.client.get(ctx, s.baseURL+iemPath+"?"+q.Encode(), "text/csv, text/plain")
	if err != nil {
		return nil, fmt.Errorf("iem.Fetch %s: %w", station, err)
	}

	obs, err := parseIEMCSV(station, body)
	if err != nil {
		return nil, fmt.Errorf("iem.Fetch %s: %w", station, err)
	}

	// The window may reach back before start (whole days are requested).
	kept := obs[:0]
	for _, o := range obs {
		if !o.Timestamp.Before(start) {
			kept = append(kept, o)
		}
	}

	slog.Debug("iem: fetched series", "station", station, "count", len(kept), "hours_back", hoursBack)
	return kept, nil
}

// parseIEMCSV parses "station,valid,tmpf" rows. Rows with an empty or
// unparsable temperature are skipped; implausible ones are logged and dropped.
func parseIEMCSV(stationID string, body []byte) ([]domain.Observation, error) {
	r := csv.NewReader(bytes.NewReader(body))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	var out []domain.Observation
	for line := 0; ; line++ {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse csv line %d: %w", line+1, err)
		}
		if len(rec) < 3 || rec[0] == "station" || strings.HasPrefix(rec[0], "#") {
			continue
		}

		tempStr := strings.TrimSpace(rec[2])
		if tempStr == "" || tempStr == "M" {
			continue
		}
		tempF, err := strconv.ParseFloat(tempStr, 64)
		if err != nil {
			continue
		}
		ts, err := time.ParseInLocation(iemTimeLayout, strings.TrimSpace(rec[1]), time.UTC)
		if err != nil {
			continue
		}

		o, err := domain.NewObservation(stationID, ts, tempF, domain.SourceHistoricalFeed)
		if err != nil {
			slog.Warn("iem: implausible reading dropped", "station", stationID, "temp_f", tempF, "at", ts)
			continue
		}
		out = append(out, o)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}
