package models

import "time"

// Market is the wire name of a listing partition.
type Market string

const (
	MarketKOSPI  Market = "KOSPI"  // primary board
	MarketKOSDAQ Market = "KOSDAQ" // secondary board
	MarketETF    Market = "ETF"    // funds
)

// SearchOrder is the partition traversal order for search and universe rebuilds.
var SearchOrder = []Market{MarketKOSPI, MarketKOSDAQ, MarketETF}

// IsFund reports whether the market lists funds rather than equities.
func (m Market) IsFund() bool { return m == MarketETF }

// DailyBar represents a single day's price data from the provider
type DailyBar struct {
	Date     time.Time `json:"date"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	AdjClose float64   `json:"adjusted_close"`
	Volume   int64     `json:"volume"`
}

// PriceInfo is the enrichment result for one ticker.
type PriceInfo struct {
	CurrentPrice    int64   `json:"current_price"`
	AllTimeHigh     int64   `json:"all_time_high"`
	AllTimeHighDate string  `json:"all_time_high_date"` // YYYY-MM-DD
	Ratio           float64 `json:"ratio"`              // current/ATH in percent, 2 decimals
}

// TickerRecord is one searchable listing.
type TickerRecord struct {
	Ticker string `json:"ticker"`
	Name   string `json:"name"`
	Market Market `json:"market"`
}

// PriceSnapshot is the refresher's price cache document.
type PriceSnapshot struct {
	UpdatedAt string               `json:"updated_at"`
	Prices    map[string]PriceInfo `json:"prices"`
}

// StockList is the refresher's ticker-universe cache document.
type StockList struct {
	UpdatedAt string         `json:"updated_at"`
	Stocks    []TickerRecord `json:"stocks"`
}
