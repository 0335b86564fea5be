package storage

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/bobmcallan/stockwatch/internal/common"
	"github.com/bobmcallan/stockwatch/internal/interfaces"
	"github.com/bobmcallan/stockwatch/internal/models"
)

// watchlistStorage keeps the watchlist in a single { "watchlist": [...] } file.
type watchlistStorage struct {
	fs     *FileStore
	path   string
	logger *common.Logger
}

func newWatchlistStorage(fs *FileStore, path string, logger *common.Logger) *watchlistStorage {
	return &watchlistStorage{fs: fs, path: path, logger: logger}
}

func (s *watchlistStorage) Load(ctx context.Context) ([]models.WatchlistEntry, error) {
	var doc models.WatchlistFile
	err := s.fs.readJSON(s.path, &doc)
	if err == nil {
		if doc.Watchlist == nil {
			doc.Watchlist = []models.WatchlistEntry{}
		}
		return doc.Watchlist, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	seed := models.DefaultWatchlist()
	if err := s.Save(ctx, seed); err != nil {
		return nil, fmt.Errorf("failed to seed watchlist: %w", err)
	}
	s.logger.Info().Str("path", s.path).Int("entries", len(seed)).Msg("Seeded default watchlist")
	return seed, nil
}

func (s *watchlistStorage) Save(ctx context.Context, entries []models.WatchlistEntry) error {
	if entries == nil {
		entries = []models.WatchlistEntry{}
	}
	return s.fs.writeJSON(s.path, models.WatchlistFile{Watchlist: entries}, writeOptions{indent: true, versioned: true})
}

var _ interfaces.WatchlistStore = (*watchlistStorage)(nil)
