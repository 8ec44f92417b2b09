// Package config handles configuration loading for earningsinsights.
// It supports YAML config files, a .env file and environment variable overrides.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable override.
const EnvPrefix = "EARNINGS"

// Config represents the complete application configuration.
type Config struct {
	API          APIConfig          `mapstructure:"api"          yaml:"api"`
	SEC          SECConfig          `mapstructure:"sec"          yaml:"sec"`
	HTTP         HTTPConfig         `mapstructure:"http"         yaml:"http"`
	Cache        CacheConfig        `mapstructure:"cache"        yaml:"cache"`
	Yahoo        YahooConfig        `mapstructure:"yahoo"        yaml:"yahoo"`
	AlphaVantage AlphaVantageConfig `mapstructure:"alphavantage" yaml:"alphavantage"`
	Logging      LoggingConfig      `mapstructure:"logging"      yaml:"logging"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host           string        `mapstructure:"host"            yaml:"host"`
	Port           int           `mapstructure:"port"            yaml:"port"`
	CORSOrigins    []string      `mapstructure:"cors_origins"    yaml:"cors_origins"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
}

// SECConfig holds SEC EDGAR access settings.
type SECConfig struct {
	ContactEmail   string        `mapstructure:"contact_email"   yaml:"contact_email"`
	WWWBaseURL     string        `mapstructure:"www_base_url"    yaml:"www_base_url"`
	DataBaseURL    string        `mapstructure:"data_base_url"   yaml:"data_base_url"`
	RateLimit      float64       `mapstructure:"rate_limit"      yaml:"rate_limit"` // requests per second
	Timeout        time.Duration `mapstructure:"timeout"         yaml:"timeout"`
	MaxConcurrency int           `mapstructure:"max_concurrency" yaml:"max_concurrency"`
	ListFormat     string        `mapstructure:"list_format"     yaml:"list_format"` // "xml" or "atom"
	ParentFallback bool          `mapstructure:"parent_fallback" yaml:"parent_fallback"`
}

// UserAgent returns the User-Agent EDGAR requires: an app name plus a contact address.
func (c SECConfig) UserAgent() string {
	return "EarningsCallInsights/1.0 (mailto:" + c.ContactEmail + ")"
}

// HTTPConfig holds outbound HTTP client settings shared by providers.
type HTTPConfig struct {
	MaxRetries int `mapstructure:"max_retries" yaml:"max_retries"`
}

// CacheConfig holds the JSON file cache settings.
type CacheConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// YahooConfig holds headless browser settings for Yahoo Finance.
type YahooConfig struct {
	BaseURL    string        `mapstructure:"base_url"    yaml:"base_url"`
	Headless   bool          `mapstructure:"headless"    yaml:"headless"`
	NoSandbox  bool          `mapstructure:"no_sandbox"  yaml:"no_sandbox"`
	ExecPath   string        `mapstructure:"exec_path"   yaml:"exec_path"`
	UserAgent  string        `mapstructure:"user_agent"  yaml:"user_agent"`
	ExpandWait time.Duration `mapstructure:"expand_wait" yaml:"expand_wait"`
	Timeout    time.Duration `mapstructure:"timeout"     yaml:"timeout"`
}

// AlphaVantageConfig holds Alpha Vantage API settings.
type AlphaVantageConfig struct {
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
	APIKey  string `mapstructure:"api_key"  yaml:"api_key"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.earningsinsights/config.yaml (home directory)
//  3. /etc/earningsinsights/config.yaml (system)
//
// Environment variables override config file values.
// Format: EARNINGS_<SECTION>_<KEY>, e.g., EARNINGS_SEC_CONTACT_EMAIL
func Load() (*Config, error) {
	v := newViper()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".earningsinsights"))
	v.AddConfigPath("/etc/earningsinsights")

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, eris.Wrap(err, "error reading config file")
		}
	}

	return decode(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, eris.Wrapf(err, "error reading config file %s", path)
	}

	return decode(v)
}

// LoadDotEnv loads KEY=VALUE pairs from the given files (default ".env")
// into the process environment. Missing files are ignored and variables
// already set are not overwritten.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return eris.Wrapf(err, "loading %s", p)
		}
	}
	return nil
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "error unmarshaling config")
	}
	overrideFromEnv(&cfg)
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"http://localhost:3000"})
	v.SetDefault("api.request_timeout", "5m")

	// SEC defaults (EDGAR fair access: at most 10 requests per second)
	v.SetDefault("sec.contact_email", "admin@example.com")
	v.SetDefault("sec.www_base_url", "https://www.sec.gov")
	v.SetDefault("sec.data_base_url", "https://data.sec.gov")
	v.SetDefault("sec.rate_limit", 10.0)
	v.SetDefault("sec.timeout", "60s")
	v.SetDefault("sec.max_concurrency", 4)
	v.SetDefault("sec.list_format", "xml")
	v.SetDefault("sec.parent_fallback", false)

	v.SetDefault("http.max_retries", 0)

	v.SetDefault("cache.dir", "public")

	// Yahoo defaults
	v.SetDefault("yahoo.base_url", "https://finance.yahoo.com")
	v.SetDefault("yahoo.headless", true)
	v.SetDefault("yahoo.no_sandbox", true)
	v.SetDefault("yahoo.exec_path", "")
	v.SetDefault("yahoo.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	v.SetDefault("yahoo.expand_wait", "5s")
	v.SetDefault("yahoo.timeout", "90s")

	v.SetDefault("alphavantage.base_url", "https://www.alphavantage.co/query")
	v.SetDefault("alphavantage.api_key", "")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// overrideFromEnv explicitly reads sensitive keys from environment variables.
func overrideFromEnv(cfg *Config) {
	if key := os.Getenv("EARNINGS_ALPHAVANTAGE_API_KEY"); key != "" {
		cfg.AlphaVantage.APIKey = key
	} else if key := os.Getenv("ALPHA_VANTAGE_API_KEY"); key != "" {
		cfg.AlphaVantage.APIKey = key
	}
	if email := os.Getenv("EARNINGS_SEC_CONTACT_EMAIL"); email != "" {
		cfg.SEC.ContactEmail = email
	}
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
