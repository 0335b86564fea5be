// Package enrich computes a ticker's current price relative to its all-time high
package enrich

import (
	"context"
	"errors"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bobmcallan/stockwatch/internal/common"
	"github.com/bobmcallan/stockwatch/internal/interfaces"
	"github.com/bobmcallan/stockwatch/internal/metrics"
	"github.com/bobmcallan/stockwatch/internal/models"
)

// Compile-time interface check
var _ interfaces.PriceEnricher = (*Service)(nil)

// Service implements PriceEnricher over a MarketDataProvider.
type Service struct {
	provider     interfaces.MarketDataProvider
	historyStart time.Time
	location     *time.Location
	logger       *common.Logger
	metrics      *metrics.Metrics
	now          func() time.Time // injectable clock for testing
}

// NewService creates a new enrichment service
func NewService(provider interfaces.MarketDataProvider, market common.MarketConfig, logger *common.Logger, m *metrics.Metrics) *Service {
	return &Service{
		provider:     provider,
		historyStart: market.GetHistoryStart(),
		location:     market.GetLocation(),
		logger:       logger,
		metrics:      m,
		now:          time.Now,
	}
}

// Enrich fetches the full daily history for ticker, trying equities first
// and funds second. An empty series returns common.ErrNoData; a failed
// query returns *common.ProviderError.
func (s *Service) Enrich(ctx context.Context, ticker, name string) (models.PriceInfo, error) {
	info, err := s.enrich(ctx, ticker)
	switch {
	case err == nil:
		s.metrics.ObserveEnrich(metrics.OutcomeOK)
		s.logger.Debug().Str("ticker", ticker).Str("name", name).Float64("ratio", info.Ratio).Msg("Price enriched")
	case errors.Is(err, common.ErrNoData):
		s.metrics.ObserveEnrich(metrics.OutcomeNoData)
		s.logger.Debug().Str("ticker", ticker).Str("name", name).Msg("No price data")
	default:
		s.metrics.ObserveEnrich(metrics.OutcomeProviderError)
		s.logger.Warn().Err(err).Str("ticker", ticker).Str("name", name).Msg("Price enrichment failed")
	}
	return info, err
}

func (s *Service) enrich(ctx context.Context, ticker string) (models.PriceInfo, error) {
	if ticker == "" {
		return models.PriceInfo{}, common.ErrNoData
	}

	to := s.now().In(s.location)
	from := s.historyStart

	bars, err := s.provider.EquityHistory(ctx, ticker, from, to)
	if err != nil {
		return models.PriceInfo{}, &common.ProviderError{Op: "equity_history", Ticker: ticker, Err: err}
	}
	if len(bars) == 0 {
		bars, err = s.provider.FundHistory(ctx, ticker, from, to)
		if err != nil {
			return models.PriceInfo{}, &common.ProviderError{Op: "fund_history", Ticker: ticker, Err: err}
		}
	}
	if len(bars) == 0 {
		return models.PriceInfo{}, common.ErrNoData
	}

	return Summarize(bars)
}

// Summarize derives PriceInfo from a non-empty daily series. The series is
// sorted by date first; the all-time-high date is the earliest day that
// reached the maximum high. Bars with a non-finite high or close are skipped.
func Summarize(bars []models.DailyBar) (models.PriceInfo, error) {
	sorted := make([]models.DailyBar, 0, len(bars))
	for _, b := range bars {
		if finite(b.High) && finite(b.Close) {
			sorted = append(sorted, b)
		}
	}
	if len(sorted) == 0 {
		return models.PriceInfo{}, common.ErrNoData
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	athIdx := 0
	for i := 1; i < len(sorted); i++ {
		if sorted[i].High > sorted[athIdx].High {
			athIdx = i
		}
	}

	current := truncate(sorted[len(sorted)-1].Close)
	ath := truncate(sorted[athIdx].High)
	if ath <= 0 {
		return models.PriceInfo{}, common.ErrNoData
	}

	return models.PriceInfo{
		CurrentPrice:    current,
		AllTimeHigh:     ath,
		AllTimeHighDate: sorted[athIdx].Date.Format(common.DateFormat),
		Ratio:           Ratio(current, ath),
	}, nil
}

// Ratio returns current as a percentage of ath, rounded half away from
// zero to two decimals.
func Ratio(current, ath int64) float64 {
	r, _ := decimal.NewFromInt(current).
		Mul(decimal.NewFromInt(100)).
		DivRound(decimal.NewFromInt(ath), 2).
		Float64()
	return r
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func truncate(price float64) int64 {
	return decimal.NewFromFloat(price).Truncate(0).IntPart()
}
