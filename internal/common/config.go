// Package common provides shared utilities for stockwatch
package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Search sources
const (
	SearchSourceLive  = "live"
	SearchSourceCache = "cache"
)

// Config holds all configuration for stockwatch
type Config struct {
	Environment string          `toml:"environment"`
	Server      ServerConfig    `toml:"server"`
	Storage     StorageConfig   `toml:"storage"`
	Market      MarketConfig    `toml:"market"`
	Search      SearchConfig    `toml:"search"`
	Refresher   RefresherConfig `toml:"refresher"`
	Clients     ClientsConfig   `toml:"clients"`
	Logging     LoggingConfig   `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StorageConfig holds the locations of the persisted JSON files.
// Relative file paths are resolved against DataPath.
type StorageConfig struct {
	DataPath      string `toml:"data_path"`
	PortfolioFile string `toml:"portfolio_file"`
	PricesFile    string `toml:"prices_file"`
	StockListFile string `toml:"stocklist_file"`
	Versions      int    `toml:"versions"` // backups kept of the portfolio file, 0 disables
}

// Resolve returns name joined to DataPath unless it is already absolute.
func (c *StorageConfig) Resolve(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.DataPath, name)
}

// PortfolioPath returns the resolved portfolio file path.
func (c *StorageConfig) PortfolioPath() string { return c.Resolve(c.PortfolioFile) }

// PricesPath returns the resolved price snapshot path.
func (c *StorageConfig) PricesPath() string { return c.Resolve(c.PricesFile) }

// StockListPath returns the resolved ticker-universe snapshot path.
func (c *StorageConfig) StockListPath() string { return c.Resolve(c.StockListFile) }

// MarketConfig holds exchange calendar settings
type MarketConfig struct {
	Timezone     string `toml:"timezone"`
	HistoryStart string `toml:"history_start"` // YYYY-MM-DD
}

// GetLocation returns the market timezone, falling back to a fixed KST zone
// when tzdata is unavailable.
func (c *MarketConfig) GetLocation() *time.Location {
	return LoadLocation(c.Timezone)
}

// GetHistoryStart parses HistoryStart, defaulting to 2000-01-01.
func (c *MarketConfig) GetHistoryStart() time.Time {
	t, err := time.ParseInLocation(DateFormat, c.HistoryStart, c.GetLocation())
	if err != nil {
		return time.Date(2000, 1, 1, 0, 0, 0, 0, c.GetLocation())
	}
	return t
}

// SearchConfig selects where keyword search reads the ticker universe from
type SearchConfig struct {
	Source string `toml:"source"` // "live" or "cache"
}

// RefresherConfig holds snapshot refresher settings
type RefresherConfig struct {
	WatchlistFile string `toml:"watchlist_file"` // defaults to storage.portfolio_file
	ChartFile     string `toml:"chart_file"`     // empty disables the ratio chart
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	EODHD EODHDConfig `toml:"eodhd"`
}

// EODHDConfig holds EODHD API configuration
type EODHDConfig struct {
	BaseURL           string `toml:"base_url"`
	APIKey            string `toml:"api_key"`
	RateLimit         int    `toml:"rate_limit"`
	Timeout           string `toml:"timeout"`
	PrimaryExchange   string `toml:"primary_exchange"`
	SecondaryExchange string `toml:"secondary_exchange"`
	FundExchange      string `toml:"fund_exchange"`
	Encoding          string `toml:"encoding"` // response charset override, e.g. "euc-kr"
}

// GetTimeout parses and returns the timeout duration
func (c *EODHDConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level    string   `toml:"level"`
	Format   string   `toml:"format"`
	Outputs  []string `toml:"outputs"`
	FilePath string   `toml:"file_path"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 5000,
		},
		Storage: StorageConfig{
			DataPath:      ".",
			PortfolioFile: "portfolio.json",
			PricesFile:    "data/prices.json",
			StockListFile: "data/stocklist.json",
		},
		Market: MarketConfig{
			Timezone:     "Asia/Seoul",
			HistoryStart: "2000-01-01",
		},
		Search: SearchConfig{
			Source: SearchSourceLive,
		},
		Refresher: RefresherConfig{
			ChartFile: "data/ratios.png",
		},
		Clients: ClientsConfig{
			EODHD: EODHDConfig{
				BaseURL:           "https://eodhd.com/api",
				RateLimit:         10,
				Timeout:           "30s",
				PrimaryExchange:   "KO",
				SecondaryExchange: "KQ",
				FundExchange:      "KO",
			},
		},
		Logging: LoggingConfig{
			Level:   "info",
			Format:  "text",
			Outputs: []string{"console"},
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Later files override earlier ones
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)
	validateSearchSource(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("STOCKWATCH_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("STOCKWATCH_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("STOCKWATCH_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("STOCKWATCH_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if path := os.Getenv("STOCKWATCH_DATA_PATH"); path != "" {
		config.Storage.DataPath = path
	}

	if f := os.Getenv("STOCKWATCH_PORTFOLIO_FILE"); f != "" {
		config.Storage.PortfolioFile = f
	}

	if f := os.Getenv("STOCKWATCH_WATCHLIST_FILE"); f != "" {
		config.Refresher.WatchlistFile = f
	}

	if src := os.Getenv("STOCKWATCH_SEARCH_SOURCE"); src != "" {
		config.Search.Source = src
	}

	for _, name := range []string{"EODHD_API_KEY", "STOCKWATCH_EODHD_API_KEY"} {
		if v := os.Getenv(name); v != "" {
			config.Clients.EODHD.APIKey = v
			break
		}
	}
}

// validateSearchSource ensures Search.Source is "live" or "cache", defaulting to "live".
func validateSearchSource(config *Config) {
	src := strings.ToLower(strings.TrimSpace(config.Search.Source))
	if src != SearchSourceLive && src != SearchSourceCache {
		src = SearchSourceLive
	}
	config.Search.Source = src
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

// WatchlistSourcePath returns the file the refresher reads the watchlist from.
func (c *Config) WatchlistSourcePath() string {
	if c.Refresher.WatchlistFile != "" {
		return c.Storage.Resolve(c.Refresher.WatchlistFile)
	}
	return c.Storage.PortfolioPath()
}

// ChartPath returns the resolved chart output path, or "" when disabled.
func (c *Config) ChartPath() string {
	return c.Storage.Resolve(c.Refresher.ChartFile)
}

// ValidateRequired returns the names of settings that must be provided
// before the provider can be queried.
func (c *Config) ValidateRequired() []string {
	var missing []string
	if c.Clients.EODHD.APIKey == "" {
		missing = append(missing, "clients.eodhd.api_key")
	}
	return missing
}
