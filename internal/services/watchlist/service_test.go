package watchlist

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/stockwatch/internal/common"
	"github.com/bobmcallan/stockwatch/internal/metrics"
	"github.com/bobmcallan/stockwatch/internal/models"
	"github.com/bobmcallan/stockwatch/internal/storage"
)

// --- mock store ---

type memStore struct {
	entries []models.WatchlistEntry
	saves   int
	loadErr error
}

func (m *memStore) Load(ctx context.Context) ([]models.WatchlistEntry, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return append([]models.WatchlistEntry{}, m.entries...), nil
}

func (m *memStore) Save(ctx context.Context, entries []models.WatchlistEntry) error {
	m.saves++
	m.entries = append([]models.WatchlistEntry{}, entries...)
	return nil
}

func newTestService(entries ...models.WatchlistEntry) (*Service, *memStore) {
	store := &memStore{entries: entries}
	return NewService(store, common.NewSilentLogger(), nil), store
}

func num(raw string) *models.FlexNumber { return models.NewFlexNumber(raw) }

// --- Add ---

func TestAdd_TrimsAndAppends(t *testing.T) {
	svc, store := newTestService(models.WatchlistEntry{Ticker: "000660", Name: "SK하이닉스"})

	entry, err := svc.Add(context.Background(), models.EntryDraft{
		Ticker: " 005930 ",
		Name:   "삼성전자\t",
		EntryFields: models.EntryFields{
			Quantity:   num(`"10"`),
			BuyPrice:   num(`70000.7`),
			SellTarget: num(`""`),
		},
	})
	require.NoError(t, err)
	assert.Equal(t, models.WatchlistEntry{Ticker: "005930", Name: "삼성전자", Quantity: 10, BuyPrice: 70000}, *entry)

	require.Len(t, store.entries, 2)
	assert.Equal(t, "000660", store.entries[0].Ticker)
	assert.Equal(t, "005930", store.entries[1].Ticker)
}

func TestAdd_Validation(t *testing.T) {
	tests := []struct {
		name            string
		draft           models.EntryDraft
		missingIdentity bool
	}{
		{"missing ticker", models.EntryDraft{Name: "삼성전자"}, true},
		{"blank name", models.EntryDraft{Ticker: "005930", Name: "   "}, true},
		{"non-numeric quantity", models.EntryDraft{Ticker: "005930", Name: "삼성전자", EntryFields: models.EntryFields{Quantity: num(`"abc"`)}}, false},
		{"negative buy price", models.EntryDraft{Ticker: "005930", Name: "삼성전자", EntryFields: models.EntryFields{BuyPrice: num(`-1`)}}, false},
		{"quantity beyond int64", models.EntryDraft{Ticker: "005930", Name: "삼성전자", EntryFields: models.EntryFields{Quantity: num(`1e19`)}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store := newTestService()
			_, err := svc.Add(context.Background(), tt.draft)
			assert.ErrorIs(t, err, common.ErrValidation)
			assert.Equal(t, tt.missingIdentity, errors.Is(err, common.ErrMissingIdentity))
			assert.Zero(t, store.saves)
		})
	}
}

func TestAdd_DuplicateRejected(t *testing.T) {
	svc, store := newTestService(models.WatchlistEntry{Ticker: "005930", Name: "삼성전자"})

	_, err := svc.Add(context.Background(), models.EntryDraft{Ticker: "005930 ", Name: "other"})
	assert.ErrorIs(t, err, common.ErrDuplicate)
	assert.Zero(t, store.saves)
	assert.Len(t, store.entries, 1)
}

func TestAdd_DuplicateIsCaseSensitive(t *testing.T) {
	svc, store := newTestService(models.WatchlistEntry{Ticker: "abc", Name: "lower"})

	_, err := svc.Add(context.Background(), models.EntryDraft{Ticker: "ABC", Name: "upper"})
	require.NoError(t, err)
	assert.Len(t, store.entries, 2)
}

func TestAdd_LoadErrorPropagates(t *testing.T) {
	svc, store := newTestService()
	store.loadErr = common.ErrParse

	_, err := svc.Add(context.Background(), models.EntryDraft{Ticker: "005930", Name: "삼성전자"})
	assert.ErrorIs(t, err, common.ErrParse)
}

// --- Update ---

func TestUpdate_OverwritesAndDefaultsToZero(t *testing.T) {
	svc, store := newTestService(
		models.WatchlistEntry{Ticker: "005930", Name: "삼성전자", Quantity: 5, BuyPrice: 60000, SellTarget: 90000},
		models.WatchlistEntry{Ticker: "000660", Name: "SK하이닉스"},
	)

	entry, err := svc.Update(context.Background(), "005930", models.EntryFields{Quantity: num(`12`)})
	require.NoError(t, err)
	assert.Equal(t, int64(12), entry.Quantity)
	assert.Zero(t, entry.BuyPrice)
	assert.Zero(t, entry.SellTarget)

	assert.Equal(t, models.WatchlistEntry{Ticker: "005930", Name: "삼성전자", Quantity: 12}, store.entries[0])
	assert.Equal(t, "000660", store.entries[1].Ticker, "order preserved")
}

func TestUpdate_NotFound(t *testing.T) {
	svc, store := newTestService(models.WatchlistEntry{Ticker: "005930", Name: "삼성전자"})

	_, err := svc.Update(context.Background(), "999999", models.EntryFields{})
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.Zero(t, store.saves)
}

func TestUpdate_BadNumberRejectedBeforeWrite(t *testing.T) {
	svc, store := newTestService(models.WatchlistEntry{Ticker: "005930", Name: "삼성전자", Quantity: 5})

	_, err := svc.Update(context.Background(), "005930", models.EntryFields{SellTarget: num(`"lots"`)})
	assert.ErrorIs(t, err, common.ErrValidation)
	assert.Zero(t, store.saves)
	assert.Equal(t, int64(5), store.entries[0].Quantity)
}

// --- Delete ---

func TestDelete_RemovesAllMatchesWithoutReordering(t *testing.T) {
	svc, store := newTestService(
		models.WatchlistEntry{Ticker: "A"},
		models.WatchlistEntry{Ticker: "B"},
		models.WatchlistEntry{Ticker: "A"},
		models.WatchlistEntry{Ticker: "C"},
	)

	require.NoError(t, svc.Delete(context.Background(), "A"))

	var tickers []string
	for _, e := range store.entries {
		tickers = append(tickers, e.Ticker)
	}
	assert.Equal(t, []string{"B", "C"}, tickers)
}

func TestDelete_AbsentStillSaves(t *testing.T) {
	svc, store := newTestService(models.WatchlistEntry{Ticker: "A"})

	require.NoError(t, svc.Delete(context.Background(), "Z"))
	assert.Equal(t, 1, store.saves)
	assert.Len(t, store.entries, 1)
}

// --- File-backed ---

func TestService_FileBacked(t *testing.T) {
	cfg := common.NewDefaultConfig()
	cfg.Storage.DataPath = t.TempDir()
	mgr := storage.NewManager(common.NewSilentLogger(), cfg)
	m := metrics.New()
	svc := NewService(mgr.WatchlistStore(), common.NewSilentLogger(), m)
	ctx := context.Background()

	// First read seeds the default list
	entries, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 9)

	_, err = svc.Add(ctx, models.EntryDraft{Ticker: "035420", Name: "NAVER"})
	require.NoError(t, err)

	before, err := os.ReadFile(cfg.Storage.PortfolioPath())
	require.NoError(t, err)

	// Rejected mutations leave the file byte-for-byte unchanged
	_, err = svc.Add(ctx, models.EntryDraft{Ticker: "035420", Name: "NAVER"})
	assert.True(t, errors.Is(err, common.ErrDuplicate))
	_, err = svc.Update(ctx, "nope", models.EntryFields{})
	assert.True(t, errors.Is(err, common.ErrNotFound))

	after, err := os.ReadFile(cfg.Storage.PortfolioPath())
	require.NoError(t, err)
	assert.Equal(t, before, after)

	require.NoError(t, svc.Delete(ctx, "035420"))
	entries, err = svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultWatchlist(), entries)
}
