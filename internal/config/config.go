// Package config loads the application configuration from a YAML file with
// environment overrides for secrets.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"

	defaultListen        = ":8080"
	defaultDataDir       = "./data"
	defaultProxyURL      = "https://api.allorigins.win/raw?url="
	defaultHomepageURL   = "https://plus.nasa.gov/"
	defaultUserAgent     = "Mozilla/5.0 (compatible; CosmicClassroom Content Scraper; Educational Use)"
	defaultTimeout       = 30 * time.Second
	defaultRequestDelay  = 2 * time.Second
	defaultMaxShows      = 20
	defaultMinTitleLen   = 10
	defaultMinSeries     = 4
	defaultRetentionDays = 30
	defaultFreshAfter    = time.Hour
	defaultRefreshAfter  = 24 * time.Hour
	defaultCacheTTL      = 5 * time.Minute
)

var defaultSeriesURLs = []string{
	"https://plus.nasa.gov/series/far-out/",
	"https://plus.nasa.gov/series/other-worlds/",
	"https://plus.nasa.gov/series/down-to-earth/",
	"https://plus.nasa.gov/series/nasa-explorers/",
}

// Duration wraps time.Duration so values like "30s" parse from YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}

	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("cannot parse duration %q: %w", s, err)
	}

	*d = Duration(v)

	return nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

type ScraperConfig struct {
	ProxyURL     string   `yaml:"proxy_url"`
	HomepageURL  string   `yaml:"homepage_url"`
	SeriesURLs   []string `yaml:"series_urls"`
	UserAgent    string   `yaml:"user_agent"`
	Timeout      Duration `yaml:"timeout"`
	RequestDelay Duration `yaml:"request_delay"`
	MaxShows     int      `yaml:"max_shows"`
	MinTitleLen  int      `yaml:"min_title_len"`
	MinSeries    int      `yaml:"min_series"`
}

type StalenessConfig struct {
	FreshAfter   Duration `yaml:"fresh_after"`
	RefreshAfter Duration `yaml:"refresh_after"`
}

type CacheConfig struct {
	RedisURL string   `yaml:"redis_url"`
	TTL      Duration `yaml:"ttl"`
}

type Config struct {
	Listen        string          `yaml:"listen"`
	DataDir       string          `yaml:"data_dir"`
	LogLevel      string          `yaml:"log_level"`
	RetentionDays int             `yaml:"retention_days"`
	Scraper       ScraperConfig   `yaml:"scraper"`
	Staleness     StalenessConfig `yaml:"staleness"`
	Cache         CacheConfig     `yaml:"cache"`
	NASAAPIKey    string          `yaml:"-"`
}

// Load reads the config file, applies defaults and pulls secrets from the
// environment. A missing file is not an error: every setting has a default,
// so the binaries run without one. NASA_API_KEY is env-only so the key never
// lands in a config file; REDIS_URL overrides the file when set.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("cannot read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config file: %w", err)
	}

	cfg.applyDefaults()

	cfg.NASAAPIKey = os.Getenv("NASA_API_KEY")
	if u := os.Getenv("REDIS_URL"); u != "" {
		cfg.Cache.RedisURL = u
	}

	return &cfg, nil
}

// MustLoad is Load for binary startup paths where a bad config is fatal.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}

	return cfg
}

func (c *Config) applyDefaults() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.DataDir == "" {
		c.DataDir = defaultDataDir
	}
	if c.LogLevel == "" {
		c.LogLevel = LogLevelInfo
	}
	if c.RetentionDays <= 0 {
		c.RetentionDays = defaultRetentionDays
	}

	s := &c.Scraper
	if s.ProxyURL == "" {
		s.ProxyURL = defaultProxyURL
	}
	if s.HomepageURL == "" {
		s.HomepageURL = defaultHomepageURL
	}
	if len(s.SeriesURLs) == 0 {
		s.SeriesURLs = append([]string(nil), defaultSeriesURLs...)
	}
	if s.UserAgent == "" {
		s.UserAgent = defaultUserAgent
	}
	if s.Timeout <= 0 {
		s.Timeout = Duration(defaultTimeout)
	}
	if s.RequestDelay < 0 {
		s.RequestDelay = 0
	} else if s.RequestDelay == 0 {
		s.RequestDelay = Duration(defaultRequestDelay)
	}
	if s.MaxShows <= 0 {
		s.MaxShows = defaultMaxShows
	}
	if s.MinTitleLen <= 0 {
		s.MinTitleLen = defaultMinTitleLen
	}
	if s.MinSeries <= 0 {
		s.MinSeries = defaultMinSeries
	}

	if c.Staleness.FreshAfter <= 0 {
		c.Staleness.FreshAfter = Duration(defaultFreshAfter)
	}
	if c.Staleness.RefreshAfter <= 0 {
		c.Staleness.RefreshAfter = Duration(defaultRefreshAfter)
	}

	if c.Cache.TTL <= 0 {
		c.Cache.TTL = Duration(defaultCacheTTL)
	}
}
