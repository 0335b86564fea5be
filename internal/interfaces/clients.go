// Package interfaces defines service contracts for stockwatch
package interfaces

import (
	"context"
	"time"

	"github.com/bobmcallan/stockwatch/internal/models"
)

// MarketDataProvider is the external source of price history and listings.
// An unknown series is an empty slice, not an error.
type MarketDataProvider interface {
	// EquityHistory returns daily bars for a listed stock
	EquityHistory(ctx context.Context, ticker string, from, to time.Time) ([]models.DailyBar, error)

	// FundHistory returns daily bars for an ETF
	FundHistory(ctx context.Context, ticker string, from, to time.Time) ([]models.DailyBar, error)

	// ListTickers returns the tickers listed in a market on the given trading day
	ListTickers(ctx context.Context, day time.Time, market models.Market) ([]string, error)

	// TickerName returns the display name of a listed ticker
	TickerName(ctx context.Context, ticker string, market models.Market) (string, error)
}

// EODOption configures EOD data requests
type EODOption func(*EODParams)

// EODParams holds EOD query parameters
type EODParams struct {
	From   time.Time
	To     time.Time
	Period string // "d": daily bars only
	Order  string // "a": oldest first
}

// WithDateRange sets the date range for EOD query
func WithDateRange(from, to time.Time) EODOption {
	return func(p *EODParams) {
		p.From = from
		p.To = to
	}
}
