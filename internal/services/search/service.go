// Package search provides keyword search over the listed ticker universe
package search

import (
	"context"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/bobmcallan/stockwatch/internal/common"
	"github.com/bobmcallan/stockwatch/internal/interfaces"
	"github.com/bobmcallan/stockwatch/internal/models"
)

// Compile-time interface check
var _ interfaces.TickerSearch = (*Service)(nil)

// Service implements TickerSearch. With the cache source it filters the
// refresher's stock list, falling back to the live provider when the cache
// cannot be read.
type Service struct {
	provider  interfaces.MarketDataProvider
	snapshots interfaces.SnapshotStore
	source    string
	location  *time.Location
	logger    *common.Logger
	now       func() time.Time // injectable clock for testing
}

// NewService creates a new search service. snapshots may be nil when the
// source is live.
func NewService(provider interfaces.MarketDataProvider, snapshots interfaces.SnapshotStore, config *common.Config, logger *common.Logger) *Service {
	return &Service{
		provider:  provider,
		snapshots: snapshots,
		source:    config.Search.Source,
		location:  config.Market.GetLocation(),
		logger:    logger,
		now:       time.Now,
	}
}

// Search returns listings whose name contains keyword, compared under
// Unicode case folding. A blank keyword returns an empty result without
// touching the provider or the cache.
func (s *Service) Search(ctx context.Context, keyword string) ([]models.TickerRecord, error) {
	keyword = strings.TrimSpace(keyword)
	results := []models.TickerRecord{}
	if keyword == "" {
		return results, nil
	}

	match := matcher(keyword)

	if s.source == common.SearchSourceCache && s.snapshots != nil {
		list, err := s.snapshots.ReadStockList(ctx)
		if err == nil {
			for _, rec := range list.Stocks {
				if match(rec.Name) {
					results = append(results, rec)
				}
			}
			return results, nil
		}
		s.logger.Warn().Err(err).Msg("Stock list cache unavailable, searching live")
	}

	err := s.walk(ctx, common.RecentTradingDay(s.now().In(s.location)), func(rec models.TickerRecord) {
		if match(rec.Name) {
			results = append(results, rec)
		}
	})
	return results, err
}

// Universe returns every named listing for day in partition order.
func (s *Service) Universe(ctx context.Context, day time.Time) ([]models.TickerRecord, error) {
	records := []models.TickerRecord{}
	err := s.walk(ctx, day, func(rec models.TickerRecord) {
		records = append(records, rec)
	})
	return records, err
}

// walk visits each named ticker of every partition in search order.
// Failed partitions and unresolvable names are logged and skipped; only
// context cancellation stops the walk.
func (s *Service) walk(ctx context.Context, day time.Time, visit func(models.TickerRecord)) error {
	for _, market := range models.SearchOrder {
		if err := ctx.Err(); err != nil {
			return err
		}

		tickers, err := s.provider.ListTickers(ctx, day, market)
		if err != nil {
			s.logger.Warn().
				Err(&common.ProviderError{Op: "list_tickers", Err: err}).
				Str("market", string(market)).
				Msg("Ticker list unavailable, skipping market")
			continue
		}

		for _, ticker := range tickers {
			name, err := s.provider.TickerName(ctx, ticker, market)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				s.logger.Debug().Err(err).Str("ticker", ticker).Msg("Ticker name unavailable, skipping")
				continue
			}
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			visit(models.TickerRecord{Ticker: ticker, Name: name, Market: market})
		}
	}
	return nil
}

// matcher returns a case-insensitive substring test for keyword.
func matcher(keyword string) func(string) bool {
	fold := cases.Fold()
	needle := fold.String(keyword)
	return func(name string) bool {
		return strings.Contains(fold.String(name), needle)
	}
}
