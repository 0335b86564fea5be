package storage

import (
	"context"

	"github.com/bobmcallan/stockwatch/internal/common"
	"github.com/bobmcallan/stockwatch/internal/interfaces"
	"github.com/bobmcallan/stockwatch/internal/models"
)

// snapshotStorage holds the refresher's price and ticker-universe caches.
type snapshotStorage struct {
	fs            *FileStore
	pricesPath    string
	stockListPath string
	logger        *common.Logger
}

func newSnapshotStorage(fs *FileStore, pricesPath, stockListPath string, logger *common.Logger) *snapshotStorage {
	return &snapshotStorage{fs: fs, pricesPath: pricesPath, stockListPath: stockListPath, logger: logger}
}

func (s *snapshotStorage) ReadPrices(ctx context.Context) (*models.PriceSnapshot, error) {
	var snap models.PriceSnapshot
	if err := s.fs.readJSON(s.pricesPath, &snap); err != nil {
		return nil, err
	}
	if snap.Prices == nil {
		snap.Prices = map[string]models.PriceInfo{}
	}
	return &snap, nil
}

func (s *snapshotStorage) WritePrices(ctx context.Context, snap *models.PriceSnapshot) error {
	return s.fs.writeJSON(s.pricesPath, snap, writeOptions{indent: true})
}

func (s *snapshotStorage) ReadStockList(ctx context.Context) (*models.StockList, error) {
	var list models.StockList
	if err := s.fs.readJSON(s.stockListPath, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// WriteStockList writes compact JSON; the universe runs to thousands of records.
func (s *snapshotStorage) WriteStockList(ctx context.Context, list *models.StockList) error {
	return s.fs.writeJSON(s.stockListPath, list, writeOptions{})
}

func (s *snapshotStorage) WriteChart(ctx context.Context, path string, png []byte) error {
	return s.fs.WriteRaw(path, png)
}

var _ interfaces.SnapshotStore = (*snapshotStorage)(nil)
