package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. STATBOARD_BACKEND_BASE_URL
const EnvPrefix = "STATBOARD_"

// DefaultPath is where the CLI looks for a config file when none is given
const DefaultPath = "/etc/statboard/config.yaml"

// Config is the main configuration structure
type Config struct {
	Backend     BackendConfig     `yaml:"backend" env:",prefix=BACKEND_"`
	Credentials CredentialsConfig `yaml:"credentials" env:",prefix=CREDENTIALS_"`
	Server      ServerConfig      `yaml:"server" env:",prefix=SERVER_"`
	Display     DisplayConfig     `yaml:"display" env:",prefix=DISPLAY_"`
	Campaigns   CampaignsConfig   `yaml:"campaigns" env:",prefix=CAMPAIGNS_"`
	Metrics     MetricsConfig     `yaml:"metrics" env:",prefix=METRICS_"`
	Logging     LoggingConfig     `yaml:"logging" env:",prefix=LOGGING_"`
}

// BackendConfig points at the statistics backend
type BackendConfig struct {
	BaseURL string        `yaml:"base_url" env:"BASE_URL"`
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"` // Default: 30s
}

// CredentialsConfig locates the bearer token store
type CredentialsConfig struct {
	Path string `yaml:"path" env:"PATH"` // Default: <user config dir>/statboard/credentials.db
}

type ServerConfig struct {
	ListenAddr   string        `yaml:"listen_addr" env:"LISTEN_ADDR"` // Default: 127.0.0.1:8090
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" env:"IDLE_TIMEOUT"`
	SessionTTL   time.Duration `yaml:"session_ttl" env:"SESSION_TTL"` // Idle lifetime of a browser session, default 12h
	AllowedIPs   []string      `yaml:"allowed_ips" env:"ALLOWED_IPS"` // Empty = allow all
	TLS          TLSConfig     `yaml:"tls" env:",prefix=TLS_"`
}

type TLSConfig struct {
	CertFile string     `yaml:"cert_file" env:"CERT_FILE"`
	KeyFile  string     `yaml:"key_file" env:"KEY_FILE"`
	ACME     ACMEConfig `yaml:"acme" env:",prefix=ACME_"`
}

type ACMEConfig struct {
	Enabled  bool     `yaml:"enabled" env:"ENABLED"`
	Email    string   `yaml:"email" env:"EMAIL"`
	Domains  []string `yaml:"domains" env:"DOMAINS"`
	CacheDir string   `yaml:"cache_dir" env:"CACHE_DIR"`
}

// DisplayConfig controls number formatting in tables and KPI cards
type DisplayConfig struct {
	Locale         string `yaml:"locale" env:"LOCALE"`                   // BCP 47 tag, default en-US
	CurrencySymbol string `yaml:"currency_symbol" env:"CURRENCY_SYMBOL"` // Default: $
	TruncateAt     int    `yaml:"truncate_at" env:"TRUNCATE_AT"`         // Default: 50
}

// CampaignsConfig locates the campaign catalog behind the KPI cards
type CampaignsConfig struct {
	DataFile string `yaml:"data_file" env:"DATA_FILE"` // Empty = no campaigns
}

// MetricsConfig contains Prometheus metrics settings
type MetricsConfig struct {
	Enabled    bool     `yaml:"enabled" env:"ENABLED"`
	Path       string   `yaml:"path" env:"PATH"`               // Default: /metrics
	AllowedIPs []string `yaml:"allowed_ips" env:"ALLOWED_IPS"` // IP addresses/CIDRs allowed to scrape (empty = allow all)
}

type LoggingConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`   // debug, info, warn, error
	Format string `yaml:"format" env:"FORMAT"` // json, text
}

// Load reads the YAML file at path, applies STATBOARD_* environment
// overrides and fills defaults. An empty path skips the file.
func Load(ctx context.Context, path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := applyEnv(ctx, cfg, envconfig.OsLookuper()); err != nil {
		return nil, err
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// ResolvePath returns the file Load should read. A default path that does not
// exist resolves to "", an explicitly requested one is kept so Load reports it.
func ResolvePath(path string, explicit bool) string {
	if explicit {
		return path
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return ""
	}
	return path
}

func applyEnv(ctx context.Context, cfg *Config, lookuper envconfig.Lookuper) error {
	err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:           cfg,
		Lookuper:         envconfig.PrefixLookuper(EnvPrefix, lookuper),
		DefaultOverwrite: true,
	})
	if err != nil {
		return fmt.Errorf("failed to process environment config: %w", err)
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.Backend.BaseURL == "" {
		c.Backend.BaseURL = "http://localhost:3001"
	}
	if c.Backend.Timeout == 0 {
		c.Backend.Timeout = 30 * time.Second
	}

	if c.Credentials.Path == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			dir = os.TempDir()
		}
		c.Credentials.Path = filepath.Join(dir, "statboard", "credentials.db")
	}

	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = "127.0.0.1:8090"
	}
	if c.Server.SessionTTL == 0 {
		c.Server.SessionTTL = 12 * time.Hour
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 30 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60 * time.Second
	}
	if c.Server.TLS.ACME.CacheDir == "" {
		c.Server.TLS.ACME.CacheDir = "/var/lib/statboard/certs"
	}

	if c.Display.Locale == "" {
		c.Display.Locale = "en-US"
	}
	if c.Display.CurrencySymbol == "" {
		c.Display.CurrencySymbol = "$"
	}
	if c.Display.TruncateAt == 0 {
		c.Display.TruncateAt = 50
	}

	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

// Validate checks the configuration after defaults are applied
func (c *Config) Validate() error {
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid backend.base_url: %q (must be an http or https URL)", c.Backend.BaseURL)
	}
	if c.Backend.Timeout < 0 {
		return fmt.Errorf("backend.timeout must not be negative")
	}

	if c.Server.SessionTTL < 0 {
		return fmt.Errorf("server.session_ttl must not be negative")
	}

	if _, err := language.Parse(c.Display.Locale); err != nil {
		return fmt.Errorf("invalid display.locale: %s", c.Display.Locale)
	}
	if c.Display.TruncateAt < 0 {
		return fmt.Errorf("display.truncate_at must not be negative")
	}

	if !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with /")
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("invalid logging.level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}

	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("invalid logging.format: %s (must be json or text)", c.Logging.Format)
	}

	return c.validateTLS()
}

func (c *Config) validateTLS() error {
	tls := c.Server.TLS
	hasCerts := tls.CertFile != "" || tls.KeyFile != ""
	hasACME := tls.ACME.Enabled

	if hasCerts && hasACME {
		return fmt.Errorf("cannot use both manual certificates and ACME")
	}

	if hasCerts {
		if tls.CertFile == "" {
			return fmt.Errorf("server.tls.cert_file is required when using manual certificates")
		}
		if tls.KeyFile == "" {
			return fmt.Errorf("server.tls.key_file is required when using manual certificates")
		}
	}

	if hasACME {
		if tls.ACME.Email == "" {
			return fmt.Errorf("server.tls.acme.email is required when ACME is enabled")
		}
		if len(tls.ACME.Domains) == 0 {
			return fmt.Errorf("server.tls.acme.domains must not be empty when ACME is enabled")
		}
	}

	return nil
}

// HasTLS reports whether serve should listen with TLS
func (c *Config) HasTLS() bool {
	return (c.Server.TLS.CertFile != "" && c.Server.TLS.KeyFile != "") || c.Server.TLS.ACME.Enabled
}
