package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/alejandrodnm/weatherarb/internal/domain"
)

// Config es la configuración completa del bot.
type Config struct {
	Trading   TradingConfig     `yaml:"trading"`
	Scheduler SchedulerConfig   `yaml:"scheduler"`
	Reconcile ReconcileConfig   `yaml:"reconcile"`
	API       APIConfig         `yaml:"api"`
	Kalshi    KalshiConfig      `yaml:"kalshi"`
	Alerts    AlertsConfig      `yaml:"alerts"`
	Storage   StorageConfig     `yaml:"storage"`
	Log       LogConfig         `yaml:"log"`
	Cities    []string          `yaml:"cities"`    // IDs a escanear, en orden
	Locations []domain.Location `yaml:"locations"` // altas o sustituciones sobre el registro por defecto
}

// TradingConfig controla tamaño y umbrales de las órdenes.
type TradingConfig struct {
	Mode            string  `yaml:"mode"`              // paper | live
	MaxPositionSize float64 `yaml:"max_position_size"` // $ por trade en live
	MinEdge         float64 `yaml:"min_edge"`          // 0.03 = 3 centavos
	MaxContracts    int     `yaml:"max_contracts"`
	MinCertainty    string  `yaml:"min_certainty"` // CERTAIN | NEAR_CERTAIN | PROBABLE
	PaperBalance    float64 `yaml:"paper_balance"`
	PaperFraction   float64 `yaml:"paper_fraction"` // fracción del balance paper por trade
	MaxLossPct      float64 `yaml:"max_loss_pct"`   // circuit breaker live
}

// SchedulerConfig controla la cadencia de escaneo.
type SchedulerConfig struct {
	PollIntervalSeconds int `yaml:"poll_interval_seconds"`
	PeakIntervalSeconds int `yaml:"peak_interval_seconds"`
	PeakStartHour       int `yaml:"peak_start_hour"` // inclusive, hora local del proceso
	PeakEndHour         int `yaml:"peak_end_hour"`   // exclusiva
	StatusEvery         int `yaml:"status_every"`    // scans entre reportes de estado
}

// ReconcileConfig controla cómo se combinan las fuentes.
type ReconcileConfig struct {
	Policy              string  `yaml:"policy"` // max | agreement
	StalenessMinutes    int     `yaml:"staleness_minutes"`
	AgreementToleranceF float64 `yaml:"agreement_tolerance_f"`
}

// APIConfig contiene los base URLs y timeouts de las APIs.
type APIConfig struct {
	IEMBase              string `yaml:"iem_base"`
	METARBase            string `yaml:"metar_base"`
	NWSBase              string `yaml:"nws_base"`
	KalshiBase           string `yaml:"kalshi_base"`
	UserAgent            string `yaml:"user_agent"`
	IEMTimeoutSeconds    int    `yaml:"iem_timeout_seconds"`
	METARTimeoutSeconds  int    `yaml:"metar_timeout_seconds"`
	NWSTimeoutSeconds    int    `yaml:"nws_timeout_seconds"`
	KalshiTimeoutSeconds int    `yaml:"kalshi_timeout_seconds"`
}

// KalshiConfig son las credenciales de la API de trading.
type KalshiConfig struct {
	APIKeyID       string `yaml:"api_key_id"`
	PrivateKeyPath string `yaml:"private_key_path"`
}

// AlertsConfig son los canales opcionales de alerta.
type AlertsConfig struct {
	WebhookURL       string `yaml:"webhook_url"`
	TelegramBotToken string `yaml:"telegram_bot_token"`
	TelegramChatID   string `yaml:"telegram_chat_id"`
	CooldownSeconds  int    `yaml:"cooldown_seconds"`
}

// StorageConfig controla dónde se persiste el ledger.
type StorageConfig struct {
	SQLitePath string `yaml:"sqlite_path"` // "" desactiva SQLite
	JSONPath   string `yaml:"json_path"`   // "" desactiva el JSON
}

// LogConfig controla el formato y nivel de logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load carga .env (si existe), luego el YAML en path (si existe) y aplica
// overrides de entorno y defaults. path vacío o inexistente = solo defaults.
func Load(path string) (*Config, error) {
	// Cargar .env si existe (silencia error si no hay archivo)
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
			}
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	setDefaults(&cfg)

	return &cfg, nil
}

// Validate comprueba rangos y que las ciudades existan en el registro.
func (c *Config) Validate() error {
	var errs []error
	if _, err := domain.ParseMode(c.Trading.Mode); err != nil {
		errs = append(errs, err)
	}
	if _, err := domain.ParseCertaintyTier(c.Trading.MinCertainty); err != nil {
		errs = append(errs, err)
	}
	if c.Trading.MinEdge <= 0 || c.Trading.MinEdge >= 1 {
		errs = append(errs, fmt.Errorf("min_edge must be in (0, 1), got %v", c.Trading.MinEdge))
	}
	if c.Trading.PaperFraction <= 0 || c.Trading.PaperFraction > 1 {
		errs = append(errs, fmt.Errorf("paper_fraction must be in (0, 1], got %v", c.Trading.PaperFraction))
	}
	if c.Trading.MaxLossPct <= 0 || c.Trading.MaxLossPct > 1 {
		errs = append(errs, fmt.Errorf("max_loss_pct must be in (0, 1], got %v", c.Trading.MaxLossPct))
	}
	if c.Scheduler.PeakStartHour < 0 || c.Scheduler.PeakEndHour > 24 || c.Scheduler.PeakStartHour > c.Scheduler.PeakEndHour {
		errs = append(errs, fmt.Errorf("peak hours must satisfy 0 <= start <= end <= 24, got %d-%d",
			c.Scheduler.PeakStartHour, c.Scheduler.PeakEndHour))
	}
	switch c.Reconcile.Policy {
	case "max", "agreement":
	default:
		errs = append(errs, fmt.Errorf("reconcile.policy must be max or agreement, got %q", c.Reconcile.Policy))
	}
	if len(c.Cities) == 0 {
		errs = append(errs, errors.New("cities must not be empty"))
	}
	if _, err := c.ActiveLocations(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Mode devuelve el modo de trading ya validado (paper si es inválido).
func (c *Config) Mode() domain.Mode {
	m, err := domain.ParseMode(c.Trading.Mode)
	if err != nil {
		return domain.ModePaper
	}
	return m
}

// MinTier devuelve el tier mínimo a ejecutar.
func (c *Config) MinTier() domain.CertaintyTier {
	t, err := domain.ParseCertaintyTier(c.Trading.MinCertainty)
	if err != nil {
		return domain.TierCertain
	}
	return t
}

// Registry devuelve el registro por defecto con las ubicaciones del YAML aplicadas.
func (c *Config) Registry() *Registry {
	return NewRegistry(c.Locations...)
}

// ActiveLocations resuelve Cities contra el registro.
func (c *Config) ActiveLocations() ([]domain.Location, error) {
	return c.Registry().Resolve(c.Cities)
}

// PollInterval es la cadencia fuera de horas pico.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Scheduler.PollIntervalSeconds) * time.Second
}

// PeakInterval es la cadencia en horas pico.
func (c *Config) PeakInterval() time.Duration {
	return time.Duration(c.Scheduler.PeakIntervalSeconds) * time.Second
}

// Staleness es la edad máxima de una lectura puntual.
func (c *Config) Staleness() time.Duration {
	return time.Duration(c.Reconcile.StalenessMinutes) * time.Minute
}

// AlertCooldown es el mínimo entre alertas.
func (c *Config) AlertCooldown() time.Duration {
	return time.Duration(c.Alerts.CooldownSeconds) * time.Second
}

// Timeout convierte segundos de configuración a Duration.
func Timeout(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}

// applyEnvOverrides sobreescribe valores con variables de entorno si están presentes.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("TRADING_MODE"); v != "" {
		cfg.Trading.Mode = v
	}
	if v := os.Getenv("MAX_POSITION_SIZE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("MAX_POSITION_SIZE: %w", err)
		}
		cfg.Trading.MaxPositionSize = f
	}
	if v := os.Getenv("MIN_EDGE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("MIN_EDGE: %w", err)
		}
		cfg.Trading.MinEdge = f
	}
	if v := os.Getenv("MAX_CONTRACT_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MAX_CONTRACT_LIMIT: %w", err)
		}
		cfg.Trading.MaxContracts = n
	}
	if v := os.Getenv("POLL_INTERVAL"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("POLL_INTERVAL: %w", err)
		}
		cfg.Scheduler.PollIntervalSeconds = n
	}
	if v := os.Getenv("CITIES"); v != "" {
		cfg.Cities = SplitCities(v)
	}
	if v := os.Getenv("KALSHI_API_KEY_ID"); v != "" {
		cfg.Kalshi.APIKeyID = v
	}
	if v := os.Getenv("KALSHI_PRIVATE_KEY_PATH"); v != "" {
		cfg.Kalshi.PrivateKeyPath = v
	}
	if v := os.Getenv("ALERT_WEBHOOK_URL"); v != "" {
		cfg.Alerts.WebhookURL = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Alerts.TelegramBotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Alerts.TelegramChatID = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	return nil
}

// SplitCities parsea "nyc, Chicago,miami" en IDs normalizados.
func SplitCities(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if id := strings.ToLower(strings.TrimSpace(part)); id != "" {
			out = append(out, id)
		}
	}
	return out
}

// setDefaults asegura que los valores requeridos tengan valores sensatos.
func setDefaults(cfg *Config) {
	t := &cfg.Trading
	if t.Mode == "" {
		t.Mode = string(domain.ModePaper)
	}
	if t.MaxPositionSize <= 0 {
		t.MaxPositionSize = 50
	}
	if t.MinEdge <= 0 {
		t.MinEdge = 0.03
	}
	if t.MaxContracts <= 0 {
		t.MaxContracts = 50
	}
	if t.MinCertainty == "" {
		t.MinCertainty = domain.TierCertain.String()
	}
	if t.PaperBalance <= 0 {
		t.PaperBalance = domain.DefaultPaperBalance
	}
	if t.PaperFraction <= 0 {
		t.PaperFraction = 0.10
	}
	if t.MaxLossPct <= 0 {
		t.MaxLossPct = domain.DefaultMaxLossPct
	}

	s := &cfg.Scheduler
	if s.PollIntervalSeconds <= 0 {
		s.PollIntervalSeconds = 300
	}
	if s.PeakIntervalSeconds <= 0 {
		s.PeakIntervalSeconds = 60
	}
	if s.PeakStartHour == 0 && s.PeakEndHour == 0 {
		s.PeakStartHour, s.PeakEndHour = 12, 18
	}
	if s.StatusEvery <= 0 {
		s.StatusEvery = 5
	}

	r := &cfg.Reconcile
	if r.Policy == "" {
		r.Policy = "max"
	}
	r.Policy = strings.ToLower(r.Policy)
	if r.StalenessMinutes <= 0 {
		r.StalenessMinutes = 90
	}
	if r.AgreementToleranceF <= 0 {
		r.AgreementToleranceF = 2
	}

	a := &cfg.API
	if a.IEMBase == "" {
		a.IEMBase = "https://mesonet.agron.iastate.edu"
	}
	if a.METARBase == "" {
		a.METARBase = "https://aviationweather.gov/api/data"
	}
	if a.NWSBase == "" {
		a.NWSBase = "https://api.weather.gov"
	}
	if a.KalshiBase == "" {
		a.KalshiBase = "https://api.elections.kalshi.com/trade-api/v2"
	}
	if a.IEMTimeoutSeconds <= 0 {
		a.IEMTimeoutSeconds = 15
	}
	if a.METARTimeoutSeconds <= 0 {
		a.METARTimeoutSeconds = 10
	}
	if a.NWSTimeoutSeconds <= 0 {
		a.NWSTimeoutSeconds = 10
	}
	if a.KalshiTimeoutSeconds <= 0 {
		a.KalshiTimeoutSeconds = 15
	}

	if cfg.Kalshi.PrivateKeyPath == "" {
		cfg.Kalshi.PrivateKeyPath = "kalshi.key"
	}
	if cfg.Alerts.CooldownSeconds <= 0 {
		cfg.Alerts.CooldownSeconds = 60
	}
	if cfg.Storage.SQLitePath == "" && cfg.Storage.JSONPath == "" {
		cfg.Storage.SQLitePath = "weatherarb.db"
		cfg.Storage.JSONPath = "trades.json"
	}
	if len(cfg.Cities) == 0 {
		cfg.Cities = []string{"nyc", "chicago", "miami"}
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
