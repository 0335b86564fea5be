package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/stockwatch/internal/common"
	"github.com/bobmcallan/stockwatch/internal/models"
)

func newTestWatchlistStore(t *testing.T) (*watchlistStorage, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "portfolio.json")
	return newWatchlistStorage(newTestFileStore(t, 0), path, common.NewSilentLogger()), path
}

func TestWatchlistLoad_SeedsDefaultsWhenMissing(t *testing.T) {
	store, path := newTestWatchlistStore(t)

	entries, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.DefaultWatchlist(), entries)

	data, err := os.ReadFile(path)
	require.NoError(t, err, "seed is persisted")
	assert.Contains(t, string(data), `"watchlist": [`)
	assert.Contains(t, string(data), "SK하이닉스")
}

func TestWatchlistLoad_ExistingFile(t *testing.T) {
	store, path := newTestWatchlistStore(t)
	os.WriteFile(path, []byte(`{"watchlist":[{"ticker":"005930","name":"삼성전자","quantity":10,"buy_price":70000,"sell_target":90000}]}`), 0644)

	entries, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.WatchlistEntry{Ticker: "005930", Name: "삼성전자", Quantity: 10, BuyPrice: 70000, SellTarget: 90000}, entries[0])
}

func TestWatchlistLoad_EmptyListIsNotReseeded(t *testing.T) {
	store, path := newTestWatchlistStore(t)
	os.WriteFile(path, []byte(`{"watchlist":[]}`), 0644)

	entries, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.NotNil(t, entries)
}

func TestWatchlistLoad_MalformedIsParseError(t *testing.T) {
	store, path := newTestWatchlistStore(t)
	os.WriteFile(path, []byte(`not json`), 0644)

	_, err := store.Load(context.Background())
	assert.ErrorIs(t, err, common.ErrParse)

	data, _ := os.ReadFile(path)
	assert.Equal(t, "not json", string(data), "malformed file is left alone")
}

func TestWatchlistSave_PreservesOrderAndLayout(t *testing.T) {
	store, path := newTestWatchlistStore(t)
	entries := []models.WatchlistEntry{
		{Ticker: "B", Name: "Second"},
		{Ticker: "A", Name: "First", Quantity: 1},
	}
	require.NoError(t, store.Save(context.Background(), entries))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	want := `{
  "watchlist": [
    {
      "ticker": "B",
      "name": "Second",
      "quantity": 0,
      "buy_price": 0,
      "sell_target": 0
    },
    {
      "ticker": "A",
      "name": "First",
      "quantity": 1,
      "buy_price": 0,
      "sell_target": 0
    }
  ]
}
`
	assert.Equal(t, want, string(data))
}

func TestManager_WatchlistStoreAt(t *testing.T) {
	dir := t.TempDir()
	cfg := common.NewDefaultConfig()
	cfg.Storage.DataPath = dir
	mgr := NewManager(common.NewSilentLogger(), cfg)

	assert.Same(t, mgr.WatchlistStore(), mgr.WatchlistStoreAt(cfg.Storage.PortfolioPath()))

	legacy := filepath.Join(dir, "watchlist.json")
	os.WriteFile(legacy, []byte(`{"watchlist":[{"ticker":"005930","name":"삼성전자"}]}`), 0644)

	entries, err := mgr.WatchlistStoreAt(legacy).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "005930", entries[0].Ticker)
}
