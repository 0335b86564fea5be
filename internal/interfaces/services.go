package interfaces

import (
	"context"
	"time"

	"github.com/bobmcallan/stockwatch/internal/models"
)

// WatchlistService manages the user's watchlist
type WatchlistService interface {
	List(ctx context.Context) ([]models.WatchlistEntry, error)
	Add(ctx context.Context, draft models.EntryDraft) (*models.WatchlistEntry, error)
	Update(ctx context.Context, ticker string, fields models.EntryFields) (*models.WatchlistEntry, error)
	Delete(ctx context.Context, ticker string) error
}

// PriceEnricher turns a ticker into its current price relative to its all-time high
type PriceEnricher interface {
	Enrich(ctx context.Context, ticker, name string) (models.PriceInfo, error)
}

// TickerSearch finds listings by name keyword
type TickerSearch interface {
	Search(ctx context.Context, keyword string) ([]models.TickerRecord, error)

	// Universe returns every named listing for the trading day, unfiltered
	Universe(ctx context.Context, day time.Time) ([]models.TickerRecord, error)
}

// SnapshotService rebuilds the offline cache files
type SnapshotService interface {
	RefreshPrices(ctx context.Context) (*models.PriceSnapshot, error)
	RefreshStockList(ctx context.Context) (*models.StockList, error)

	// Run refreshes prices then the stock list
	Run(ctx context.Context) error

	// RenderChart draws a bar chart of each ticker's ratio as PNG
	RenderChart(snap *models.PriceSnapshot) ([]byte, error)
}
