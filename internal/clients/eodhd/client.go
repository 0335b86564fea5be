// Package eodhd provides a client for the EODHD API
package eodhd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/time/rate"

	"github.com/bobmcallan/stockwatch/internal/common"
	"github.com/bobmcallan/stockwatch/internal/interfaces"
	"github.com/bobmcallan/stockwatch/internal/metrics"
	"github.com/bobmcallan/stockwatch/internal/models"
)

// flexFloat64 handles JSON values that may be either a number or a string.
// Unparseable and non-finite strings ("NaN", "Inf") decode as 0.
type flexFloat64 float64

func (f *flexFloat64) UnmarshalJSON(data []byte) error {
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*f = flexFloat64(num)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s == "" || s == "N/A" {
			*f = 0
			return nil
		}
		num, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(num) || math.IsInf(num, 0) {
			*f = 0
			return nil
		}
		*f = flexFloat64(num)
		return nil
	}
	return fmt.Errorf("cannot unmarshal %s into float64", string(data))
}

const (
	DefaultBaseURL   = "https://eodhd.com/api"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 10 // requests per second

	// KRX exchange codes
	DefaultPrimaryExchange   = "KO"
	DefaultSecondaryExchange = "KQ"
	DefaultFundExchange      = "KO"
)

// Client implements the MarketDataProvider interface against EODHD
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
	metrics    *metrics.Metrics

	primary   string
	secondary string
	fund      string
	encoding  string // forced response charset, empty trusts Content-Type

	mu       sync.Mutex
	listings map[models.Market]*listing
}

// listing is one market's symbol list as fetched on a given day.
type listing struct {
	day   string
	codes []string
	names map[string]string
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		if requestsPerSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
		}
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithMetrics records request counts and latency
func WithMetrics(m *metrics.Metrics) ClientOption {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithExchanges sets the exchange codes backing the KOSPI, KOSDAQ and ETF
// partitions. Empty values keep the defaults.
func WithExchanges(primary, secondary, fund string) ClientOption {
	return func(c *Client) {
		if primary != "" {
			c.primary = primary
		}
		if secondary != "" {
			c.secondary = secondary
		}
		if fund != "" {
			c.fund = fund
		}
	}
}

// WithEncoding forces the response charset (e.g. "euc-kr") regardless of
// the Content-Type header.
func WithEncoding(name string) ClientOption {
	return func(c *Client) {
		c.encoding = name
	}
}

// NewClient creates a new EODHD client
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter:   rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:    common.NewSilentLogger(),
		primary:   DefaultPrimaryExchange,
		secondary: DefaultSecondaryExchange,
		fund:      DefaultFundExchange,
		listings:  make(map[models.Market]*listing),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// NewClientFromConfig creates a client from the eodhd config section
func NewClientFromConfig(cfg common.EODHDConfig, logger *common.Logger, m *metrics.Metrics) *Client {
	opts := []ClientOption{
		WithLogger(logger),
		WithRateLimit(cfg.RateLimit),
		WithTimeout(cfg.GetTimeout()),
		WithExchanges(cfg.PrimaryExchange, cfg.SecondaryExchange, cfg.FundExchange),
		WithEncoding(cfg.Encoding),
		WithMetrics(m),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, WithBaseURL(cfg.BaseURL))
	}
	return NewClient(cfg.APIKey, opts...)
}

// APIError represents an API error
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("EODHD API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// get performs a rate-limited GET request
func (c *Client) get(ctx context.Context, endpoint, path string, params url.Values, result interface{}) error {
	// Wait for rate limiter
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	// Add API key
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_token", c.apiKey)
	params.Set("fmt", "json")

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug().Str("url", c.baseURL+path).Msg("EODHD API request")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveProvider(endpoint, 0, time.Since(start))
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()
	c.metrics.ObserveProvider(endpoint, resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    strings.TrimSpace(string(body)),
			Endpoint:   path,
		}
	}

	body, err := c.decodeBody(resp)
	if err != nil {
		return err
	}

	if err := json.NewDecoder(body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// decodeBody wraps the response body in a UTF-8 transcoder when the
// response (or the configured override) names another charset.
func (c *Client) decodeBody(resp *http.Response) (io.Reader, error) {
	charset := c.encoding
	if charset == "" {
		if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type")); err == nil {
			charset = params["charset"]
		}
	}
	if charset == "" || strings.EqualFold(charset, "utf-8") || strings.EqualFold(charset, "utf8") {
		return resp.Body, nil
	}

	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, fmt.Errorf("unsupported response charset %q: %w", charset, err)
	}
	return enc.NewDecoder().Reader(resp.Body), nil
}

// GetEOD retrieves end-of-day price data for an exchange-qualified symbol,
// e.g. "005930.KO". Bars are returned in the order the API sent them.
func (c *Client) GetEOD(ctx context.Context, symbol string, opts ...interfaces.EODOption) ([]models.DailyBar, error) {
	params := &interfaces.EODParams{
		Period: "d",
		Order:  "a", // ascending (oldest first)
	}

	for _, opt := range opts {
		opt(params)
	}

	urlParams := url.Values{}
	urlParams.Set("period", params.Period)
	urlParams.Set("order", params.Order)

	if !params.From.IsZero() {
		urlParams.Set("from", params.From.Format(common.DateFormat))
	}
	if !params.To.IsZero() {
		urlParams.Set("to", params.To.Format(common.DateFormat))
	}

	path := fmt.Sprintf("/eod/%s", url.PathEscape(symbol))

	var bars []eodBarResponse
	if err := c.get(ctx, "eod", path, urlParams, &bars); err != nil {
		return nil, err
	}

	result := make([]models.DailyBar, 0, len(bars))
	for _, bar := range bars {
		date, err := time.Parse(common.DateFormat, bar.Date)
		if err != nil {
			c.logger.Warn().Str("symbol", symbol).Str("date", bar.Date).Msg("Skipping bar with unparseable date")
			continue
		}
		result = append(result, models.DailyBar{
			Date:     date,
			Open:     float64(bar.Open),
			High:     float64(bar.High),
			Low:      float64(bar.Low),
			Close:    float64(bar.Close),
			AdjClose: float64(bar.AdjustedClose),
			Volume:   int64(bar.Volume),
		})
	}

	return result, nil
}

// eodBarResponse represents the API response for EOD data
type eodBarResponse struct {
	Date          string      `json:"date"`
	Open          flexFloat64 `json:"open"`
	High          flexFloat64 `json:"high"`
	Low           flexFloat64 `json:"low"`
	Close         flexFloat64 `json:"close"`
	AdjustedClose flexFloat64 `json:"adjusted_close"`
	Volume        flexFloat64 `json:"volume"`
}

// history fetches a symbol's bars, treating 404 as an empty series.
func (c *Client) history(ctx context.Context, ticker, exchange string, from, to time.Time) ([]models.DailyBar, error) {
	bars, err := c.GetEOD(ctx, symbolFor(ticker, exchange), interfaces.WithDateRange(from, to))
	if IsNotFound(err) {
		return nil, nil
	}
	return bars, err
}

// EquityHistory tries the primary board, then the secondary board.
func (c *Client) EquityHistory(ctx context.Context, ticker string, from, to time.Time) ([]models.DailyBar, error) {
	exchanges := []string{c.primary}
	if c.secondary != "" && c.secondary != c.primary {
		exchanges = append(exchanges, c.secondary)
	}

	for _, ex := range exchanges {
		bars, err := c.history(ctx, ticker, ex, from, to)
		if err != nil {
			return nil, err
		}
		if len(bars) > 0 {
			return bars, nil
		}
	}
	return nil, nil
}

// FundHistory queries the fund exchange.
func (c *Client) FundHistory(ctx context.Context, ticker string, from, to time.Time) ([]models.DailyBar, error) {
	return c.history(ctx, ticker, c.fund, from, to)
}

// Symbol is one entry of the exchange symbol list
type Symbol struct {
	Code     string `json:"Code"`
	Name     string `json:"Name"`
	Country  string `json:"Country"`
	Exchange string `json:"Exchange"`
	Currency string `json:"Currency"`
	Type     string `json:"Type"`
	Isin     string `json:"Isin"`
}

// GetExchangeSymbols retrieves the symbols for an exchange, optionally
// filtered by security type ("common_stock", "etf").
func (c *Client) GetExchangeSymbols(ctx context.Context, exchange, securityType string) ([]Symbol, error) {
	path := fmt.Sprintf("/exchange-symbol-list/%s", url.PathEscape(exchange))

	params := url.Values{}
	if securityType != "" {
		params.Set("type", securityType)
	}

	var symbols []Symbol
	if err := c.get(ctx, "exchange_symbol_list", path, params, &symbols); err != nil {
		return nil, err
	}

	return symbols, nil
}

// exchangeFor maps a partition to its exchange code and security type.
func (c *Client) exchangeFor(market models.Market) (string, string, error) {
	switch market {
	case models.MarketKOSPI:
		return c.primary, "common_stock", nil
	case models.MarketKOSDAQ:
		return c.secondary, "common_stock", nil
	case models.MarketETF:
		return c.fund, "etf", nil
	default:
		return "", "", fmt.Errorf("unknown market %q", market)
	}
}

// ListTickers returns the market's symbols in provider order. The symbol
// list is current listings only, so day keys the cache rather than the query.
func (c *Client) ListTickers(ctx context.Context, day time.Time, market models.Market) ([]string, error) {
	l, err := c.loadListing(ctx, day.Format(common.DateFormat), market)
	if err != nil {
		return nil, err
	}
	return append([]string(nil), l.codes...), nil
}

// TickerName resolves a display name from the market's symbol list,
// fetching it when no listing has been loaded yet.
func (c *Client) TickerName(ctx context.Context, ticker string, market models.Market) (string, error) {
	c.mu.Lock()
	l := c.listings[market]
	c.mu.Unlock()

	if l == nil {
		var err error
		l, err = c.loadListing(ctx, time.Now().Format(common.DateFormat), market)
		if err != nil {
			return "", err
		}
	}

	name, ok := l.names[ticker]
	if !ok {
		return "", fmt.Errorf("ticker %s not listed on %s", ticker, market)
	}
	return name, nil
}

func (c *Client) loadListing(ctx context.Context, day string, market models.Market) (*listing, error) {
	c.mu.Lock()
	if l, ok := c.listings[market]; ok && l.day == day {
		c.mu.Unlock()
		return l, nil
	}
	c.mu.Unlock()

	exchange, securityType, err := c.exchangeFor(market)
	if err != nil {
		return nil, err
	}

	symbols, err := c.GetExchangeSymbols(ctx, exchange, securityType)
	if err != nil {
		return nil, err
	}

	l := &listing{
		day:   day,
		codes: make([]string, 0, len(symbols)),
		names: make(map[string]string, len(symbols)),
	}
	for _, s := range symbols {
		if s.Code == "" {
			continue
		}
		if _, dup := l.names[s.Code]; dup {
			continue
		}
		l.codes = append(l.codes, s.Code)
		l.names[s.Code] = strings.TrimSpace(s.Name)
	}

	c.mu.Lock()
	c.listings[market] = l
	c.mu.Unlock()

	c.logger.Debug().Str("market", string(market)).Int("symbols", len(l.codes)).Msg("EODHD symbol list loaded")

	return l, nil
}

func symbolFor(ticker, exchange string) string {
	return ticker + "." + exchange
}

// Ensure Client implements MarketDataProvider
var _ interfaces.MarketDataProvider = (*Client)(nil)
