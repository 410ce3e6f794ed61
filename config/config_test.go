package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alejandrodnm/weatherarb/config"
	"github.com/alejandrodnm/weatherarb/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, domain.ModePaper, cfg.Mode())
	assert.InDelta(t, 50.0, cfg.Trading.MaxPositionSize, 1e-9)
	assert.InDelta(t, 0.03, cfg.Trading.MinEdge, 1e-9)
	assert.Equal(t, 50, cfg.Trading.MaxContracts)
	assert.Equal(t, domain.TierCertain, cfg.MinTier())
	assert.InDelta(t, 1000.0, cfg.Trading.PaperBalance, 1e-9)
	assert.Equal(t, 300*time.Second, cfg.PollInterval())
	assert.Equal(t, 60*time.Second, cfg.PeakInterval())
	assert.Equal(t, 12, cfg.Scheduler.PeakStartHour)
	assert.Equal(t, 18, cfg.Scheduler.PeakEndHour)
	assert.Equal(t, 90*time.Minute, cfg.Staleness())
	assert.Equal(t, time.Minute, cfg.AlertCooldown())
	assert.Equal(t, "max", cfg.Reconcile.Policy)
	assert.Equal(t, []string{"nyc", "chicago", "miami"}, cfg.Cities)
	assert.Equal(t, "kalshi.key", cfg.Kalshi.PrivateKeyPath)
	assert.Equal(t, "weatherarb.db", cfg.Storage.SQLitePath)
	assert.Equal(t, "trades.json", cfg.Storage.JSONPath)
	assert.Equal(t, 15, cfg.API.IEMTimeoutSeconds)
	assert.Equal(t, 10, cfg.API.NWSTimeoutSeconds)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_YAML(t *testing.T) {
	path := writeYAML(t, `
trading:
  mode: live
  min_edge: 0.05
  min_certainty: near_certain
scheduler:
  poll_interval_seconds: 120
reconcile:
  policy: Agreement
cities: [denver, sf]
storage:
  json_path: out/trades.json
locations:
  - id: Boston
    name: Boston
    series_ticker: KXHIGHBOS
    station_id: KBOS
    timezone: America/New_York
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, domain.ModeLive, cfg.Mode())
	assert.InDelta(t, 0.05, cfg.Trading.MinEdge, 1e-9)
	assert.Equal(t, domain.TierNearCertain, cfg.MinTier())
	assert.Equal(t, 120*time.Second, cfg.PollInterval())
	assert.Equal(t, "agreement", cfg.Reconcile.Policy)
	assert.Empty(t, cfg.Storage.SQLitePath, "an explicit json_path keeps sqlite disabled")

	locs, err := cfg.ActiveLocations()
	require.NoError(t, err)
	require.Len(t, locs, 2)
	assert.Equal(t, "KXHIGHDEN", locs[0].SeriesTicker)
	assert.Equal(t, "KSFO", locs[1].StationID)

	boston, err := cfg.Registry().Lookup("boston")
	require.NoError(t, err)
	assert.Equal(t, "KBOS", boston.StationID)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeYAML(t, "trading:\n  mode: paper\n  min_edge: 0.04\n")
	t.Setenv("TRADING_MODE", "live")
	t.Setenv("MIN_EDGE", "0.06")
	t.Setenv("MAX_POSITION_SIZE", "25")
	t.Setenv("MAX_CONTRACT_LIMIT", "10")
	t.Setenv("POLL_INTERVAL", "90")
	t.Setenv("CITIES", " NYC, la ,,vegas")
	t.Setenv("KALSHI_API_KEY_ID", "key-123")
	t.Setenv("ALERT_WEBHOOK_URL", "https://ntfy.sh/arb")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, domain.ModeLive, cfg.Mode())
	assert.InDelta(t, 0.06, cfg.Trading.MinEdge, 1e-9)
	assert.InDelta(t, 25.0, cfg.Trading.MaxPositionSize, 1e-9)
	assert.Equal(t, 10, cfg.Trading.MaxContracts)
	assert.Equal(t, 90*time.Second, cfg.PollInterval())
	assert.Equal(t, []string{"nyc", "la", "vegas"}, cfg.Cities)
	assert.Equal(t, "key-123", cfg.Kalshi.APIKeyID)
	assert.Equal(t, "https://ntfy.sh/arb", cfg.Alerts.WebhookURL)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_BadEnvNumber(t *testing.T) {
	t.Setenv("MIN_EDGE", "three cents")
	_, err := config.Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MIN_EDGE")
}

func TestLoad_BadYAML(t *testing.T) {
	_, err := config.Load(writeYAML(t, "trading: [unclosed"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	cfg.Trading.Mode = "yolo"
	cfg.Trading.MinEdge = 1.5
	cfg.Reconcile.Policy = "average"
	cfg.Cities = []string{"nyc", "atlantis"}

	err = cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrUnknownLocation)
	assert.Contains(t, err.Error(), "yolo")
	assert.Contains(t, err.Error(), "min_edge must be")
	assert.Contains(t, err.Error(), "reconcile.policy must be")
}

// --- registry ---

func TestDefaultLocations(t *testing.T) {
	locs := config.DefaultLocations()
	require.Len(t, locs, 13)

	seen := map[string]bool{}
	for _, l := range locs {
		assert.False(t, seen[l.ID], "duplicate id %s", l.ID)
		seen[l.ID] = true
		_, err := l.Zone()
		assert.NoError(t, err, l.ID)
		assert.NotEmpty(t, l.SeriesTicker, l.ID)
		assert.Equal(t, byte('K'), l.StationID[0], l.ID)
	}

	chi, err := config.NewRegistry().Lookup("Chicago")
	require.NoError(t, err)
	assert.Equal(t, "KMDW", chi.StationID)
}

func TestRegistry_Override(t *testing.T) {
	r := config.NewRegistry(domain.Location{ID: "nyc", SeriesTicker: "KXHIGHNY", StationID: "KLGA", TimeZone: "America/New_York"})
	nyc, err := r.Lookup("nyc")
	require.NoError(t, err)
	assert.Equal(t, "KLGA", nyc.StationID)
	assert.Len(t, r.IDs(), 13)
}

func TestRegistry_ResolveErrors(t *testing.T) {
	r := config.NewRegistry(domain.Location{ID: "mars", SeriesTicker: "KXHIGHMARS", StationID: "KMRS", TimeZone: "Mars/Olympus"})

	_, err := r.Resolve([]string{"nyc", "gotham"})
	assert.ErrorIs(t, err, config.ErrUnknownLocation)

	_, err = r.Resolve([]string{"mars"})
	assert.Error(t, err, "invalid time zone")
}
