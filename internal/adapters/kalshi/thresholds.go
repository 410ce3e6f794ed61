package kalshi

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/alejandrodnm/weatherarb/internal/domain"
)

var (
	reGreater = regexp.MustCompile(`>(\d+)°?`)
	reLess    = regexp.MustCompile(`<(\d+)°?`)
	reAbove   = regexp.MustCompile(`(\d+)\s*°?\s*f?\s*(?:or\s+)?(?:above|higher|or\s+more|at\s+least)`)
	reBelow   = regexp.MustCompile(`(\d+)\s*°?\s*f?\s*(?:or\s+)?(?:below|lower|or\s+less|at\s+most)`)
	reRange   = regexp.MustCompile(`(\d+)\s*°?\s*f?\s*(?:to|-)\s*(\d+)\s*°?\s*f?`)
	reNumber  = regexp.MustCompile(`(\d+)`)

	// "on Jan 19, 2026"; the year is optional.
	reEventDate = regexp.MustCompile(`on\s+(\w+)\s+(\d+),?\s*(\d{4})?`)
)

var months = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// Thresholds is the parsed settlement condition of a market title.
type Thresholds struct {
	Kind domain.MarketKind
	Low  float64
	High float64
}

// ParseThresholds reads the temperature condition out of title + subtitle.
// Patterns are tried from most to least explicit; ok is false when nothing
// matches.
func ParseThresholds(title, subtitle string) (Thresholds, bool) {
	text := strings.ToLower(title + " " + subtitle)

	if m := reGreater.FindStringSubmatch(text); m != nil {
		return Thresholds{Kind: domain.KindAbove, Low: atof(m[1])}, true
	}
	if m := reLess.FindStringSubmatch(text); m != nil {
		return Thresholds{Kind: domain.KindBelow, High: atof(m[1])}, true
	}
	if m := reAbove.FindStringSubmatch(text); m != nil {
		return Thresholds{Kind: domain.KindAbove, Low: atof(m[1])}, true
	}
	if m := reBelow.FindStringSubmatch(text); m != nil {
		return Thresholds{Kind: domain.KindBelow, High: atof(m[1])}, true
	}
	if m := reRange.FindStringSubmatch(text); m != nil {
		return Thresholds{Kind: domain.KindBetween, Low: atof(m[1]), High: atof(m[2])}, true
	}

	// Last resort: a bare number plus an explicit direction keyword.
	if m := reNumber.FindStringSubmatch(text); m != nil {
		v := atof(m[1])
		switch {
		case containsAny(text, "above", "over", "higher"):
			return Thresholds{Kind: domain.KindAbove, Low: v}, true
		case containsAny(text, "below", "under", "lower"):
			return Thresholds{Kind: domain.KindBelow, High: v}, true
		}
	}
	return Thresholds{}, false
}

// Market builds the domain market for these thresholds.
func (t Thresholds) Market(ticker string) (domain.Market, error) {
	switch t.Kind {
	case domain.KindAbove:
		return domain.NewAboveMarket(ticker, t.Low)
	case domain.KindBelow:
		return domain.NewBelowMarket(ticker, t.High)
	default:
		return domain.NewBetweenMarket(ticker, t.Low, t.High)
	}
}

// ParseEventDate extracts the event date from a title like
// "Highest temperature in NYC on Jan 19, 2026?". Without a year the
// year of fallback is used. The result is midnight in fallback's location.
func ParseEventDate(title string, fallback time.Time) (time.Time, bool) {
	m := reEventDate.FindStringSubmatch(title)
	if m == nil {
		return time.Time{}, false
	}
	name := strings.ToLower(m[1])
	if len(name) < 3 {
		return time.Time{}, false
	}
	month, ok := months[name[:3]]
	if !ok {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(m[2])
	if err != nil || day < 1 || day > 31 {
		return time.Time{}, false
	}
	year := fallback.Year()
	if m[3] != "" {
		year, _ = strconv.Atoi(m[3])
	}
	return time.Date(year, month, day, 0, 0, 0, 0, fallback.Location()), true
}

func atof(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
