package interfaces

import (
	"context"

	"github.com/bobmcallan/stockwatch/internal/models"
)

// WatchlistStore persists the watchlist as one document.
type WatchlistStore interface {
	// Load returns the stored watchlist, seeding and saving the default list
	// when the file does not exist yet.
	Load(ctx context.Context) ([]models.WatchlistEntry, error)

	// Save replaces the stored watchlist.
	Save(ctx context.Context, entries []models.WatchlistEntry) error
}

// SnapshotStore persists the refresher's cache documents.
type SnapshotStore interface {
	ReadPrices(ctx context.Context) (*models.PriceSnapshot, error)
	WritePrices(ctx context.Context, snap *models.PriceSnapshot) error

	ReadStockList(ctx context.Context) (*models.StockList, error)
	WriteStockList(ctx context.Context, list *models.StockList) error

	// WriteChart stores a rendered PNG at the given path.
	WriteChart(ctx context.Context, path string, png []byte) error
}
