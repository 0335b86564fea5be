// Package app wires configuration, storage, the market data provider and
// services into the shared core used by cmd/stockwatch-server and
// cmd/stockwatch-refresh.
package app

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bobmcallan/stockwatch/internal/clients/eodhd"
	"github.com/bobmcallan/stockwatch/internal/common"
	"github.com/bobmcallan/stockwatch/internal/interfaces"
	"github.com/bobmcallan/stockwatch/internal/metrics"
	"github.com/bobmcallan/stockwatch/internal/services/enrich"
	"github.com/bobmcallan/stockwatch/internal/services/search"
	"github.com/bobmcallan/stockwatch/internal/services/snapshot"
	"github.com/bobmcallan/stockwatch/internal/services/watchlist"
	"github.com/bobmcallan/stockwatch/internal/storage"
)

// App holds all initialized services and clients.
type App struct {
	Config           *common.Config
	Logger           *common.Logger
	Metrics          *metrics.Metrics
	Storage          *storage.Manager
	Provider         interfaces.MarketDataProvider
	WatchlistService interfaces.WatchlistService
	Enricher         interfaces.PriceEnricher
	SearchService    interfaces.TickerSearch
	SnapshotService  interfaces.SnapshotService
	StartupTime      time.Time
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// ResolveConfigPath picks the config file: the given path, STOCKWATCH_CONFIG,
// stockwatch.toml next to the binary, then config/stockwatch.toml.
func ResolveConfigPath(configPath string) string {
	if configPath == "" {
		configPath = os.Getenv("STOCKWATCH_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(getBinaryDir(), "stockwatch.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/stockwatch.toml" // fallback for development
		}
	}
	return configPath
}

// NewApp loads configuration and initializes all services.
// configPath may be empty, in which case ResolveConfigPath decides.
func NewApp(configPath string) (*App, error) {
	// Load version from .version file (fallback if ldflags not set)
	common.LoadVersionFromFile()

	config, err := common.LoadConfig(ResolveConfigPath(configPath))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := common.NewLoggerFromConfig(config.Logging)
	return NewAppWithConfig(config, logger, nil), nil
}

// NewAppWithConfig wires services from an already loaded config. provider
// may be nil, in which case an EODHD client is built from the config.
func NewAppWithConfig(config *common.Config, logger *common.Logger, provider interfaces.MarketDataProvider) *App {
	startupStart := time.Now()
	m := metrics.New()

	if provider == nil {
		for _, name := range config.ValidateRequired() {
			logger.Warn().Str("setting", name).Msg("Required setting missing - price and search requests will fail")
		}
		provider = eodhd.NewClientFromConfig(config.Clients.EODHD, logger, m)
	}

	storageManager := storage.NewManager(logger, config)

	watchlistService := watchlist.NewService(storageManager.WatchlistStore(), logger, m)
	enricher := enrich.NewService(provider, config.Market, logger, m)
	searchService := search.NewService(provider, storageManager.SnapshotStore(), config, logger)
	snapshotService := snapshot.NewService(
		storageManager.WatchlistStoreAt(config.WatchlistSourcePath()),
		enricher,
		searchService,
		storageManager.SnapshotStore(),
		config,
		logger,
		m,
	)

	a := &App{
		Config:           config,
		Logger:           logger,
		Metrics:          m,
		Storage:          storageManager,
		Provider:         provider,
		WatchlistService: watchlistService,
		Enricher:         enricher,
		SearchService:    searchService,
		SnapshotService:  snapshotService,
		StartupTime:      startupStart,
	}

	logger.Info().Dur("startup", time.Since(startupStart)).Msg("App initialized")

	return a
}
