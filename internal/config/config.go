// Package config loads gyouji-cal settings from a YAML file and the environment.
//
// A missing config file is created with defaults on first run. Environment
// variables (optionally read from a .env file) override file values, so the
// server can be configured entirely through GYOUJI_* variables in containers.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/kosen-tools/gyouji-cal/internal/calendar"
	"github.com/kosen-tools/gyouji-cal/internal/scraper"
)

const DefaultSourceURL = "https://www.tsuyama-ct.ac.jp/gyouji/gyouji.html"

// Selectors tell the collector where month headings and listing items are.
type Selectors struct {
	Month string `yaml:"month"`
	Item  string `yaml:"item"`
}

// Config is the top-level application configuration.
type Config struct {
	// SourceURL is the published event calendar page.
	SourceURL string `yaml:"source_url"`
	UserAgent string `yaml:"user_agent"`
	// Timeout bounds a single page fetch, e.g. "30s".
	Timeout time.Duration `yaml:"timeout"`

	// Listen is the HTTP listen address for the serve command.
	Listen string `yaml:"listen"`
	// CacheDir holds the last fetched page for conditional requests.
	// Empty disables the page cache.
	CacheDir string `yaml:"cache_dir"`
	// CacheTTL is how long the server reuses a built calendar before
	// building it again on request.
	CacheTTL time.Duration `yaml:"cache_ttl"`
	// Refresh is a cron schedule for rebuilding the calendar in the
	// background. Empty disables scheduled refresh.
	Refresh string `yaml:"refresh"`

	ProdID       string `yaml:"prod_id"`
	CalendarName string `yaml:"calendar_name"`
	Timezone     string `yaml:"timezone"`

	// KeepDuplicates disables removal of repeated identical events.
	KeepDuplicates bool `yaml:"keep_duplicates"`

	LogLevel  string    `yaml:"log_level"`
	Selectors Selectors `yaml:"selectors"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	c := &Config{}
	c.Normalize()
	return c
}

// Normalize fills in zero values with defaults.
func (c *Config) Normalize() {
	if c.SourceURL == "" {
		c.SourceURL = DefaultSourceURL
	}
	if c.UserAgent == "" {
		c.UserAgent = scraper.DefaultUserAgent
	}
	if c.Timeout <= 0 {
		c.Timeout = scraper.Timeout
	}
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = time.Hour
	}
	if c.ProdID == "" {
		c.ProdID = calendar.DefaultProdID
	}
	if c.CalendarName == "" {
		c.CalendarName = "行事予定"
	}
	if c.Timezone == "" {
		c.Timezone = "Asia/Tokyo"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Selectors.Month == "" {
		c.Selectors.Month = scraper.DefaultMonthSelector
	}
	if c.Selectors.Item == "" {
		c.Selectors.Item = scraper.DefaultItemSelector
	}
}

// Load reads configuration from a YAML file. If the file does not exist a
// default config is written there and returned.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes cfg to path atomically (temp file + rename) with 0600 perms.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".gyouji-cal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}

// LoadEnv reads the given .env files (missing files are ignored) into the
// process environment without overriding variables already set.
func LoadEnv(files ...string) {
	for _, f := range files {
		_ = godotenv.Load(f)
	}
}

// ApplyEnv overrides fields from GYOUJI_* environment variables.
func (c *Config) ApplyEnv() error {
	c.SourceURL = getEnv("GYOUJI_SOURCE_URL", c.SourceURL)
	c.UserAgent = getEnv("GYOUJI_USER_AGENT", c.UserAgent)
	c.Listen = getEnv("GYOUJI_LISTEN", c.Listen)
	c.CacheDir = getEnv("GYOUJI_CACHE_DIR", c.CacheDir)
	c.Refresh = getEnv("GYOUJI_REFRESH", c.Refresh)
	c.ProdID = getEnv("GYOUJI_PROD_ID", c.ProdID)
	c.CalendarName = getEnv("GYOUJI_CALENDAR_NAME", c.CalendarName)
	c.Timezone = getEnv("GYOUJI_TIMEZONE", c.Timezone)
	c.LogLevel = getEnv("GYOUJI_LOG_LEVEL", c.LogLevel)
	c.Selectors.Month = getEnv("GYOUJI_MONTH_SELECTOR", c.Selectors.Month)
	c.Selectors.Item = getEnv("GYOUJI_ITEM_SELECTOR", c.Selectors.Item)

	if v, ok := os.LookupEnv("GYOUJI_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return errors.New("GYOUJI_TIMEOUT: " + err.Error())
		}
		c.Timeout = d
	}
	if v, ok := os.LookupEnv("GYOUJI_CACHE_TTL"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return errors.New("GYOUJI_CACHE_TTL: " + err.Error())
		}
		c.CacheTTL = d
	}
	if v, ok := os.LookupEnv("GYOUJI_KEEP_DUPLICATES"); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return errors.New("GYOUJI_KEEP_DUPLICATES: " + err.Error())
		}
		c.KeepDuplicates = b
	}

	c.Normalize()
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
