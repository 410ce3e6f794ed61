package kalshi_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alejandrodnm/weatherarb/internal/adapters/kalshi"
	"github.com/alejandrodnm/weatherarb/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const marketsFixture = `{
	"cursor": "",
	"markets": [
		{"ticker": "KXHIGHNY-26JAN19-T85", "title": "Highest temperature in NYC on Jan 19, 2026?", "subtitle": "85° or above",
		 "status": "active", "yes_bid": 3, "yes_ask": 5, "no_bid": 94, "no_ask": 96, "volume": 1200, "open_interest": 340,
		 "expiration_time": "2026-01-20T05:00:00Z"},
		{"ticker": "KXHIGHNY-26JAN19-B82.5", "title": "Highest temperature in NYC on Jan 19, 2026?", "subtitle": "82° to 83°",
		 "status": "active", "yes_bid": 38, "yes_ask": 40, "no_bid": 58, "no_ask": 61,
		 "expiration_time": "2026-01-20T05:00:00Z"},
		{"ticker": "KXHIGHNY-26JAN19-T80", "title": "Highest temperature in NYC on Jan 19, 2026?", "subtitle": "80° or below",
		 "status": "active", "yes_ask": 0, "no_bid": 97,
		 "expiration_time": "2026-01-20T05:00:00Z"},
		{"ticker": "KXHIGHNY-26JAN19-T90", "title": "Highest temperature in NYC on Jan 19, 2026?", "subtitle": "90° or above",
		 "status": "closed", "yes_ask": 1, "no_ask": 99,
		 "expiration_time": "2026-01-20T05:00:00Z"},
		{"ticker": "KXHIGHNY-26JAN18-T85", "title": "Highest temperature in NYC on Jan 18, 2026?", "subtitle": "85° or above",
		 "status": "active", "yes_ask": 50, "no_ask": 50,
		 "expiration_time": "2026-01-19T05:00:00Z"},
		{"ticker": "KXHIGHNY-26JAN19-X", "title": "Highest temperature in NYC on Jan 19, 2026?", "subtitle": "Sunny",
		 "status": "active", "yes_ask": 50, "no_ask": 50,
		 "expiration_time": "2026-01-20T05:00:00Z"},
		{"ticker": "KXHIGHNY-26JAN19-T70", "title": "Highest temperature in NYC on Jan 19, 2026?", "subtitle": "70° or above",
		 "status": "active", "yes_ask": 50, "no_ask": 50}
	]
}`

var nyc = domain.Location{ID: "nyc", SeriesTicker: "KXHIGHNY", StationID: "KNYC", TimeZone: "America/New_York"}

func today(t *testing.T) time.Time {
	t.Helper()
	zone, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	return time.Date(2026, 1, 19, 14, 0, 0, 0, zone)
}

func newTestClient(t *testing.T, srv *httptest.Server, cfg kalshi.Config) *kalshi.Client {
	t.Helper()
	cfg.BaseURL = srv.URL + "/trade-api/v2"
	c, err := kalshi.NewClient(cfg)
	require.NoError(t, err)
	return c
}

func TestListActiveMarkets_FiltersAndParses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/trade-api/v2/markets", r.URL.Path)
		assert.Equal(t, "KXHIGHNY", r.URL.Query().Get("series_ticker"))
		assert.Equal(t, "100", r.URL.Query().Get("limit"))
		assert.Empty(t, r.Header.Get("KALSHI-ACCESS-SIGNATURE"), "no key, no signature")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(marketsFixture))
	}))
	defer srv.Close()

	markets, err := newTestClient(t, srv, kalshi.Config{}).ListActiveMarkets(context.Background(), nyc, today(t))
	require.NoError(t, err)
	require.Len(t, markets, 3, "closed, other-day, unparseable and no-expiration markets are dropped")

	above := markets[0]
	assert.Equal(t, "KXHIGHNY-26JAN19-T85", above.Ticker)
	assert.Equal(t, domain.KindAbove, above.Kind())
	low, ok := above.Low()
	require.True(t, ok)
	assert.InDelta(t, 85.0, low, 1e-9)
	assert.InDelta(t, 0.05, above.YesAsk, 1e-9)
	assert.InDelta(t, 0.96, above.NoAsk, 1e-9)
	assert.InDelta(t, 0.94, above.NoBid, 1e-9)
	assert.Equal(t, int64(1200), above.Volume)
	assert.Equal(t, time.Date(2026, 1, 20, 5, 0, 0, 0, time.UTC), above.Expiration.UTC())

	between := markets[1]
	assert.Equal(t, domain.KindBetween, between.Kind())
	low, _ = between.Low()
	high, _ := between.High()
	assert.InDelta(t, 82.0, low, 1e-9)
	assert.InDelta(t, 83.0, high, 1e-9)

	below := markets[2]
	assert.Equal(t, domain.KindBelow, below.Kind())
	assert.InDelta(t, 1.0, below.YesAsk, 1e-9, "zero ask means no offers")
	assert.InDelta(t, 1.0, below.NoAsk, 1e-9, "missing ask defaults to 100c")
	assert.InDelta(t, 0.0, below.YesBid, 1e-9)
}

func TestListActiveMarkets_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"code":"internal","message":"upstream unavailable"}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv, kalshi.Config{}).ListActiveMarkets(context.Background(), nyc, today(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upstream unavailable")
	assert.Contains(t, err.Error(), "KXHIGHNY")
}

func TestListActiveMarkets_FollowsCursor(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Query().Get("cursor") == "" {
			// Página llena: 100 mercados cerrados y un cursor.
			w.Write([]byte(`{"cursor":"next","markets":[` + repeatClosed(100) + `]}`))
			return
		}
		assert.Equal(t, "next", r.URL.Query().Get("cursor"))
		w.Write([]byte(marketsFixture))
	}))
	defer srv.Close()

	markets, err := newTestClient(t, srv, kalshi.Config{}).ListActiveMarkets(context.Background(), nyc, today(t))
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Len(t, markets, 3)
}

func repeatClosed(n int) string {
	out := ""
	for i := 0; i < n; i++ {
		if i > 0 {
			out += ","
		}
		out += `{"ticker":"X","status":"closed"}`
	}
	return out
}

// --- thresholds ---

func TestParseThresholds(t *testing.T) {
	cases := []struct {
		title, subtitle string
		kind            domain.MarketKind
		low, high       float64
	}{
		{"Will the high in NYC be >85° on Jan 19?", "", domain.KindAbove, 85, 0},
		{"Will the high in NYC be <60° on Jan 19?", "", domain.KindBelow, 0, 60},
		{"Highest temperature in Chicago", "84° or higher", domain.KindAbove, 84, 0},
		{"Highest temperature in Chicago", "72°F or lower", domain.KindBelow, 0, 72},
		{"Highest temperature in Miami", "at 90 or more", domain.KindAbove, 90, 0},
		{"Highest temperature in Miami", "81° to 84°", domain.KindBetween, 81, 84},
		{"Highest temperature in Miami", "81-82", domain.KindBetween, 81, 82},
		{"Will it be over 90 today", "", domain.KindAbove, 90, 0},
		{"Will it stay under 40 degrees", "", domain.KindBelow, 0, 40},
	}
	for _, tc := range cases {
		th, ok := kalshi.ParseThresholds(tc.title, tc.subtitle)
		require.True(t, ok, tc.title+" "+tc.subtitle)
		assert.Equal(t, tc.kind, th.Kind, tc.title+" "+tc.subtitle)
		assert.InDelta(t, tc.low, th.Low, 1e-9, tc.title+" "+tc.subtitle)
		assert.InDelta(t, tc.high, th.High, 1e-9, tc.title+" "+tc.subtitle)
	}
}

func TestParseThresholds_NoMatch(t *testing.T) {
	_, ok := kalshi.ParseThresholds("Rain in Seattle", "maybe")
	assert.False(t, ok)

	_, ok = kalshi.ParseThresholds("Temperature on day 3", "")
	assert.False(t, ok, "a number without direction is not a threshold")
}

func TestThresholds_Market(t *testing.T) {
	m, err := kalshi.Thresholds{Kind: domain.KindBetween, Low: 81, High: 84}.Market("T")
	require.NoError(t, err)
	assert.Equal(t, domain.KindBetween, m.Kind())

	_, err = kalshi.Thresholds{Kind: domain.KindBetween, Low: 84, High: 81}.Market("T")
	assert.ErrorIs(t, err, domain.ErrInvalidMarket)
}

func TestParseEventDate(t *testing.T) {
	ref := today(t)

	d, ok := kalshi.ParseEventDate("Highest temperature in NYC on Jan 19, 2026?", ref)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 1, 19, 0, 0, 0, 0, ref.Location()), d)

	d, ok = kalshi.ParseEventDate("High temp on February 3", ref)
	require.True(t, ok)
	assert.Equal(t, time.Date(2026, 2, 3, 0, 0, 0, 0, ref.Location()), d, "missing year uses the reference year")

	_, ok = kalshi.ParseEventDate("Highest temperature in NYC today", ref)
	assert.False(t, ok)

	_, ok = kalshi.ParseEventDate("Decided on Xyz 4", ref)
	assert.False(t, ok)
}
