// Package snapshot rebuilds the offline price and ticker-universe caches
package snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/bobmcallan/stockwatch/internal/common"
	"github.com/bobmcallan/stockwatch/internal/interfaces"
	"github.com/bobmcallan/stockwatch/internal/metrics"
	"github.com/bobmcallan/stockwatch/internal/models"
)

// Refresh steps, used as metric labels
const (
	StepPrices    = "prices"
	StepStockList = "stocklist"
)

// Compile-time interface check
var _ interfaces.SnapshotService = (*Service)(nil)

// Service implements SnapshotService. Each step is a single pass with no
// retries; individual failures are logged and the step writes what it has.
type Service struct {
	watchlist interfaces.WatchlistStore
	enricher  interfaces.PriceEnricher
	search    interfaces.TickerSearch
	snapshots interfaces.SnapshotStore
	chartPath string
	location  *time.Location
	logger    *common.Logger
	metrics   *metrics.Metrics
	now       func() time.Time // injectable clock for testing
}

// NewService creates a new snapshot service. chartPath may be empty to
// skip the ratio chart.
func NewService(
	watchlist interfaces.WatchlistStore,
	enricher interfaces.PriceEnricher,
	search interfaces.TickerSearch,
	snapshots interfaces.SnapshotStore,
	config *common.Config,
	logger *common.Logger,
	m *metrics.Metrics,
) *Service {
	return &Service{
		watchlist: watchlist,
		enricher:  enricher,
		search:    search,
		snapshots: snapshots,
		chartPath: config.ChartPath(),
		location:  config.Market.GetLocation(),
		logger:    logger,
		metrics:   m,
		now:       time.Now,
	}
}

func (s *Service) timestamp() string {
	return s.now().In(s.location).Format(common.TimestampFormat)
}

// RefreshPrices enriches every watchlist entry in order and writes the
// price snapshot. A watchlist that cannot be parsed aborts the step; an
// entry that cannot be enriched is left out. Cancellation stops enrichment
// early, but the partial snapshot is still written.
func (s *Service) RefreshPrices(ctx context.Context) (*models.PriceSnapshot, error) {
	snap, err := s.refreshPrices(ctx)
	n := 0
	if snap != nil {
		n = len(snap.Prices)
	}
	s.metrics.ObserveRefresh(StepPrices, n, err)
	return snap, err
}

func (s *Service) refreshPrices(ctx context.Context) (*models.PriceSnapshot, error) {
	entries, err := s.watchlist.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load watchlist: %w", err)
	}

	prices := make(map[string]models.PriceInfo, len(entries))
	var skipped int
	for _, e := range entries {
		if ctx.Err() != nil {
			break
		}
		info, err := s.enricher.Enrich(ctx, e.Ticker, e.Name)
		if err != nil {
			skipped++
			s.logger.Info().Err(err).Str("ticker", e.Ticker).Str("name", e.Name).Msg("Skipping ticker without price data")
			continue
		}
		prices[e.Ticker] = info
		s.logger.Info().
			Str("ticker", e.Ticker).
			Str("name", e.Name).
			Int64("current", info.CurrentPrice).
			Int64("ath", info.AllTimeHigh).
			Float64("ratio", info.Ratio).
			Msg("Price refreshed")
	}

	snap := &models.PriceSnapshot{UpdatedAt: s.timestamp(), Prices: prices}
	if err := s.snapshots.WritePrices(ctx, snap); err != nil {
		return nil, fmt.Errorf("failed to write price snapshot: %w", err)
	}

	s.logger.Info().Int("saved", len(prices)).Int("skipped", skipped).Msg("Price snapshot written")

	s.writeChart(ctx, snap)

	if err := ctx.Err(); err != nil {
		return snap, fmt.Errorf("price refresh interrupted: %w", err)
	}
	return snap, nil
}

// writeChart renders the ratio chart if configured. Failures are logged only.
func (s *Service) writeChart(ctx context.Context, snap *models.PriceSnapshot) {
	if s.chartPath == "" || len(snap.Prices) == 0 {
		return
	}
	png, err := s.RenderChart(snap)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Ratio chart render failed")
		return
	}
	if err := s.snapshots.WriteChart(ctx, s.chartPath, png); err != nil {
		s.logger.Warn().Err(err).Str("path", s.chartPath).Msg("Ratio chart write failed")
		return
	}
	s.logger.Info().Str("path", s.chartPath).Msg("Ratio chart written")
}

// RenderChart draws the ratio bar chart for a price snapshot.
func (s *Service) RenderChart(snap *models.PriceSnapshot) ([]byte, error) {
	return RenderRatioChart(snap)
}

// RefreshStockList rebuilds the ticker universe for the most recent
// trading day and writes it.
func (s *Service) RefreshStockList(ctx context.Context) (*models.StockList, error) {
	list, err := s.refreshStockList(ctx)
	n := 0
	if list != nil {
		n = len(list.Stocks)
	}
	s.metrics.ObserveRefresh(StepStockList, n, err)
	return list, err
}

func (s *Service) refreshStockList(ctx context.Context) (*models.StockList, error) {
	day := common.RecentTradingDay(s.now().In(s.location))
	s.logger.Info().Str("day", day.Format(common.DateFormat)).Msg("Building stock list")

	records, err := s.search.Universe(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("failed to build stock list: %w", err)
	}

	list := &models.StockList{UpdatedAt: s.timestamp(), Stocks: records}
	if err := s.snapshots.WriteStockList(ctx, list); err != nil {
		return nil, fmt.Errorf("failed to write stock list: %w", err)
	}

	s.logger.Info().Int("stocks", len(records)).Msg("Stock list written")
	return list, nil
}

// Run refreshes prices then the stock list. A price step failure stops the
// run before the stock list is rebuilt.
func (s *Service) Run(ctx context.Context) error {
	if _, err := s.RefreshPrices(ctx); err != nil {
		return err
	}
	if _, err := s.RefreshStockList(ctx); err != nil {
		return err
	}
	return nil
}
