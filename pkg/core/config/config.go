// Package config builds the process-wide configuration. It is constructed once
// in main and passed down explicitly; nothing reads the environment later.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"fin_ratio/pkg/core/ratio"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	defaultDARTBaseURL = "https://opendart.fss.or.kr/api"
	defaultReportCode  = "11011" // annual business report
	defaultFsDiv       = "CFS"   // consolidated statements
	defaultYearMarker  = "년"
)

// DARTConfig configures the upstream disclosure API client.
type DARTConfig struct {
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	ReportCode string
	FsDiv      string
}

// Config holds everything the service needs at startup.
type Config struct {
	DatabaseURL    string
	StoreDriver    string
	SQLitePath     string
	CacheDir       string
	DefaultCompany string
	LogLevel       string
	LogFormat      string
	Port           string
	YearMarker     string

	DART  DARTConfig
	Ratio ratio.Definitions
}

// fileConfig is the optional YAML file (RATIO_CONFIG).
type fileConfig struct {
	YearMarker string            `yaml:"year_marker"`
	ReportCode string            `yaml:"report_code"`
	FsDiv      string            `yaml:"fs_div"`
	Ratio      ratio.Definitions `yaml:"ratio"`
}

// Load reads .env (if present), the environment and the optional YAML file.
func Load() (*Config, error) {
	// A missing .env is normal in containers.
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		StoreDriver:    getEnv("STORE_DRIVER", DriverPostgres),
		SQLitePath:     getEnv("SQLITE_PATH", "fin_ratio.db"),
		CacheDir:       getEnv("CACHE_DIR", ".cache/dart"),
		DefaultCompany: getEnv("DEFAULT_COMPANY", "삼성전자"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", LogFormatJSON),
		Port:           getEnv("PORT", "8080"),
		YearMarker:     defaultYearMarker,
		DART: DARTConfig{
			APIKey:     os.Getenv("DART_API_KEY"),
			BaseURL:    getEnv("DART_BASE_URL", defaultDARTBaseURL),
			Timeout:    30 * time.Second,
			ReportCode: defaultReportCode,
			FsDiv:      defaultFsDiv,
		},
		Ratio: ratio.DefaultDefinitions(),
	}

	timeoutSec, err := getEnvAsInt("DART_TIMEOUT_SECONDS", 30)
	if err != nil {
		return nil, err
	}
	cfg.DART.Timeout = time.Duration(timeoutSec) * time.Second

	if path := os.Getenv("RATIO_CONFIG"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read ratio config %s: %w", path, err)
	}
	return c.applyYAML(data)
}

func (c *Config) applyYAML(data []byte) error {
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse ratio config: %w", err)
	}
	if fc.YearMarker != "" {
		c.YearMarker = fc.YearMarker
	}
	if fc.ReportCode != "" {
		c.DART.ReportCode = fc.ReportCode
	}
	if fc.FsDiv != "" {
		c.DART.FsDiv = fc.FsDiv
	}
	c.Ratio = fc.Ratio.WithDefaults()
	return nil
}

// Validate checks settings that would otherwise fail late.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL environment variable is not set")
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH must not be empty")
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.DART.Timeout <= 0 {
		return fmt.Errorf("DART_TIMEOUT_SECONDS must be positive")
	}
	return c.Ratio.Validate()
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) (int, error) {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue, nil
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: expected an integer, got '%s'", key, valueStr)
	}

	return value, nil
}
