package storage

import (
	"github.com/bobmcallan/stockwatch/internal/common"
	"github.com/bobmcallan/stockwatch/internal/interfaces"
)

// Manager hands out the file-backed stores configured for this process.
type Manager struct {
	fs        *FileStore
	watchlist *watchlistStorage
	snapshots *snapshotStorage
	logger    *common.Logger
}

// NewManager creates the stores from the storage section of the config.
func NewManager(logger *common.Logger, config *common.Config) *Manager {
	fs := NewFileStore(logger, config.Storage.Versions)

	logger.Debug().
		Str("portfolio", config.Storage.PortfolioPath()).
		Str("prices", config.Storage.PricesPath()).
		Str("stocklist", config.Storage.StockListPath()).
		Int("versions", config.Storage.Versions).
		Msg("Storage manager initialized")

	return &Manager{
		fs:        fs,
		watchlist: newWatchlistStorage(fs, config.Storage.PortfolioPath(), logger),
		snapshots: newSnapshotStorage(fs, config.Storage.PricesPath(), config.Storage.StockListPath(), logger),
		logger:    logger,
	}
}

// WatchlistStore returns the store for the portfolio file.
func (m *Manager) WatchlistStore() interfaces.WatchlistStore {
	return m.watchlist
}

// WatchlistStoreAt returns a store over another watchlist file, e.g. a
// legacy watchlist.json read by the refresher.
func (m *Manager) WatchlistStoreAt(path string) interfaces.WatchlistStore {
	if path == m.watchlist.path {
		return m.watchlist
	}
	return newWatchlistStorage(m.fs, path, m.logger)
}

func (m *Manager) SnapshotStore() interfaces.SnapshotStore {
	return m.snapshots
}
