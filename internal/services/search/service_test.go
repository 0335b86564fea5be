package search

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/stockwatch/internal/common"
	"github.com/bobmcallan/stockwatch/internal/models"
)

// --- Mocks ---

type mockProvider struct {
	listings map[models.Market][]models.TickerRecord
	listErr  map[models.Market]error
	nameErr  map[string]bool

	listCalls int
	days      []time.Time
}

func (m *mockProvider) EquityHistory(_ context.Context, _ string, _, _ time.Time) ([]models.DailyBar, error) {
	return nil, nil
}

func (m *mockProvider) FundHistory(_ context.Context, _ string, _, _ time.Time) ([]models.DailyBar, error) {
	return nil, nil
}

func (m *mockProvider) ListTickers(_ context.Context, day time.Time, market models.Market) ([]string, error) {
	m.listCalls++
	m.days = append(m.days, day)
	if err := m.listErr[market]; err != nil {
		return nil, err
	}
	var out []string
	for _, r := range m.listings[market] {
		out = append(out, r.Ticker)
	}
	return out, nil
}

func (m *mockProvider) TickerName(_ context.Context, ticker string, market models.Market) (string, error) {
	if m.nameErr[ticker] {
		return "", errors.New("lookup failed")
	}
	for _, r := range m.listings[market] {
		if r.Ticker == ticker {
			return r.Name, nil
		}
	}
	return "", errors.New("unknown")
}

type mockSnapshots struct {
	list *models.StockList
	err  error
}

func (m *mockSnapshots) ReadPrices(context.Context) (*models.PriceSnapshot, error) { return nil, os.ErrNotExist }
func (m *mockSnapshots) WritePrices(context.Context, *models.PriceSnapshot) error  { return nil }
func (m *mockSnapshots) ReadStockList(context.Context) (*models.StockList, error) {
	return m.list, m.err
}
func (m *mockSnapshots) WriteStockList(context.Context, *models.StockList) error { return nil }
func (m *mockSnapshots) WriteChart(context.Context, string, []byte) error        { return nil }

func rec(ticker, name string, market models.Market) models.TickerRecord {
	return models.TickerRecord{Ticker: ticker, Name: name, Market: market}
}

func testProvider() *mockProvider {
	return &mockProvider{listings: map[models.Market][]models.TickerRecord{
		models.MarketKOSPI: {
			rec("005930", "삼성전자", models.MarketKOSPI),
			rec("028260", "삼성물산", models.MarketKOSPI),
			rec("000660", "SK하이닉스", models.MarketKOSPI),
		},
		models.MarketKOSDAQ: {
			rec("140860", "파크시스템스", models.MarketKOSDAQ),
			rec("900000", "  ", models.MarketKOSDAQ),
		},
		models.MarketETF: {
			rec("069500", "KODEX 200", models.MarketETF),
			rec("102780", "KODEX 삼성그룹", models.MarketETF),
		},
	}}
}

// saturday, 2026-10-17 10:00 KST
func saturday() time.Time {
	return time.Date(2026, 10, 17, 1, 0, 0, 0, time.UTC)
}

func newTestService(p *mockProvider, snaps *mockSnapshots, source string) *Service {
	cfg := common.NewDefaultConfig()
	cfg.Search.Source = source
	svc := NewService(p, nil, cfg, common.NewSilentLogger())
	if snaps != nil {
		svc.snapshots = snaps
	}
	svc.now = saturday
	return svc
}

// --- Live ---

func TestSearch_BlankKeywordSkipsProvider(t *testing.T) {
	p := testProvider()
	svc := newTestService(p, nil, common.SearchSourceLive)

	got, err := svc.Search(context.Background(), "   ")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Zero(t, p.listCalls)
}

func TestSearch_LiveOrdersByPartition(t *testing.T) {
	p := testProvider()
	svc := newTestService(p, nil, common.SearchSourceLive)

	got, err := svc.Search(context.Background(), " 삼성 ")
	require.NoError(t, err)
	assert.Equal(t, []models.TickerRecord{
		rec("005930", "삼성전자", models.MarketKOSPI),
		rec("028260", "삼성물산", models.MarketKOSPI),
		rec("102780", "KODEX 삼성그룹", models.MarketETF),
	}, got)
}

func TestSearch_CaseInsensitive(t *testing.T) {
	svc := newTestService(testProvider(), nil, common.SearchSourceLive)

	got, err := svc.Search(context.Background(), "kodex")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "069500", got[0].Ticker)

	got, err = svc.Search(context.Background(), "sk하이")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "000660", got[0].Ticker)
}

func TestSearch_UsesMostRecentTradingDay(t *testing.T) {
	p := testProvider()
	svc := newTestService(p, nil, common.SearchSourceLive)

	_, err := svc.Search(context.Background(), "삼성")
	require.NoError(t, err)
	require.NotEmpty(t, p.days)
	assert.Equal(t, "2026-10-16", p.days[0].Format(common.DateFormat))
	assert.Equal(t, time.Friday, p.days[0].Weekday())
}

func TestSearch_PartitionAndNameFailuresAreSkipped(t *testing.T) {
	p := testProvider()
	p.listErr = map[models.Market]error{models.MarketKOSDAQ: errors.New("down")}
	p.nameErr = map[string]bool{"005930": true}
	svc := newTestService(p, nil, common.SearchSourceLive)

	got, err := svc.Search(context.Background(), "삼성")
	require.NoError(t, err)
	assert.Equal(t, []models.TickerRecord{
		rec("028260", "삼성물산", models.MarketKOSPI),
		rec("102780", "KODEX 삼성그룹", models.MarketETF),
	}, got)
}

func TestSearch_CancelledContext(t *testing.T) {
	svc := newTestService(testProvider(), nil, common.SearchSourceLive)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Search(ctx, "삼성")
	assert.ErrorIs(t, err, context.Canceled)
}

// --- Cache ---

func TestSearch_CachePreservesFileOrder(t *testing.T) {
	p := testProvider()
	snaps := &mockSnapshots{list: &models.StockList{
		UpdatedAt: "2026-10-16 18:00:00",
		Stocks: []models.TickerRecord{
			rec("102780", "KODEX 삼성그룹", models.MarketETF),
			rec("005930", "삼성전자", models.MarketKOSPI),
			rec("000660", "SK하이닉스", models.MarketKOSPI),
		},
	}}
	svc := newTestService(p, snaps, common.SearchSourceCache)

	got, err := svc.Search(context.Background(), "삼성")
	require.NoError(t, err)
	assert.Equal(t, []models.TickerRecord{
		rec("102780", "KODEX 삼성그룹", models.MarketETF),
		rec("005930", "삼성전자", models.MarketKOSPI),
	}, got)
	assert.Zero(t, p.listCalls, "cache hit never queries the provider")
}

func TestSearch_MissingCacheFallsBackToLive(t *testing.T) {
	p := testProvider()
	svc := newTestService(p, &mockSnapshots{err: os.ErrNotExist}, common.SearchSourceCache)

	got, err := svc.Search(context.Background(), "파크")
	require.NoError(t, err)
	assert.Equal(t, []models.TickerRecord{rec("140860", "파크시스템스", models.MarketKOSDAQ)}, got)
	assert.Equal(t, 3, p.listCalls)
}

// --- Universe ---

func TestUniverse_SkipsBlankNames(t *testing.T) {
	svc := newTestService(testProvider(), nil, common.SearchSourceLive)

	got, err := svc.Universe(context.Background(), time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, got, 6)
	assert.Equal(t, "005930", got[0].Ticker)
	assert.Equal(t, "140860", got[3].Ticker)
	assert.Equal(t, models.MarketETF, got[5].Market)
}
