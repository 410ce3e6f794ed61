package kalshi

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/alejandrodnm/weatherarb/internal/domain"
)

const (
	marketsPageSize = 100
	maxMarketPages  = 10
)

// ListActiveMarkets returns the active contracts of loc's series whose event
// date is today's local date, with thresholds parsed. Markets that cannot be
// parsed are skipped with a debug log.
func (c *Client) ListActiveMarkets(ctx context.Context, loc domain.Location, today time.Time) ([]domain.Market, error) {
	var (
		out    []domain.Market
		cursor string
	)
	for page := 0; page < maxMarketPages; page++ {
		q := url.Values{}
		q.Set("series_ticker", loc.SeriesTicker)
		q.Set("limit", strconv.Itoa(marketsPageSize))
		if cursor != "" {
			q.Set("cursor", cursor)
		}

		var resp marketsResponse
		if err := c.get(ctx, "/markets", q, &resp); err != nil {
			return nil, fmt.Errorf("kalshi.ListActiveMarkets: %s: %w", loc.SeriesTicker, err)
		}

		for _, raw := range resp.Markets {
			m, ok := toMarket(raw, today)
			if !ok {
				continue
			}
			out = append(out, m)
		}

		if resp.Cursor == "" || len(resp.Markets) < marketsPageSize {
			break
		}
		cursor = resp.Cursor
	}

	slog.Debug("kalshi: markets listed", "series", loc.SeriesTicker, "active_today", len(out))
	return out, nil
}

// toMarket converts one wire market, applying the active/today filters.
func toMarket(raw marketJSON, today time.Time) (domain.Market, bool) {
	if raw.Status != "active" {
		return domain.Market{}, false
	}
	exp, err := time.Parse(time.RFC3339, raw.ExpirationTime)
	if err != nil {
		slog.Debug("kalshi: skipping market without expiration", "ticker", raw.Ticker)
		return domain.Market{}, false
	}

	day, ok := ParseEventDate(raw.Title, today)
	if !ok || !sameDate(day, today) {
		return domain.Market{}, false
	}

	th, ok := ParseThresholds(raw.Title, raw.Subtitle)
	if !ok {
		slog.Debug("kalshi: unparseable thresholds", "ticker", raw.Ticker, "title", raw.Title)
		return domain.Market{}, false
	}
	m, err := th.Market(raw.Ticker)
	if err != nil {
		slog.Debug("kalshi: invalid market", "ticker", raw.Ticker, "err", err)
		return domain.Market{}, false
	}

	m.Title = raw.Title
	m.Subtitle = raw.Subtitle
	m.YesBid = domain.CentsToPrice(bid(raw.YesBid))
	m.YesAsk = domain.CentsToPrice(ask(raw.YesAsk))
	m.NoBid = domain.CentsToPrice(bid(raw.NoBid))
	m.NoAsk = domain.CentsToPrice(ask(raw.NoAsk))
	m.Volume = raw.Volume
	m.OpenInterest = raw.OpenInterest
	m.Expiration = exp
	return m, true
}

// ask treats a missing or zero ask as "no offers", priced at 100c.
func ask(v *int64) int64 {
	if v == nil || *v == 0 {
		return 100
	}
	return *v
}

func bid(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
