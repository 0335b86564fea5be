// Package models defines data structures for stockwatch
package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// WatchlistEntry is one tracked security with the user's trade parameters.
// Field order matches the persisted JSON layout.
type WatchlistEntry struct {
	Ticker     string `json:"ticker"`
	Name       string `json:"name"`
	Quantity   int64  `json:"quantity"`
	BuyPrice   int64  `json:"buy_price"`
	SellTarget int64  `json:"sell_target"`
}

// WatchlistFile is the on-disk document: the watchlist is its only field.
type WatchlistFile struct {
	Watchlist []WatchlistEntry `json:"watchlist"`
}

// EntryFields carries the mutable numeric fields of a request body.
// Absent fields stay nil and normalise to 0.
type EntryFields struct {
	Quantity   *FlexNumber `json:"quantity"`
	BuyPrice   *FlexNumber `json:"buy_price"`
	SellTarget *FlexNumber `json:"sell_target"`
}

// EntryDraft is an add request before validation.
type EntryDraft struct {
	Ticker string `json:"ticker"`
	Name   string `json:"name"`
	EntryFields
}

// FlexNumber keeps a raw request value that may be a JSON number, a numeric
// string, an empty string or null. Conversion is deferred to Int64 so the
// caller decides how to report bad input.
type FlexNumber struct {
	raw json.RawMessage
}

// NewFlexNumber builds a FlexNumber from a raw JSON literal, e.g. `"12"` or `12.5`.
func NewFlexNumber(raw string) *FlexNumber {
	return &FlexNumber{raw: json.RawMessage(raw)}
}

func (n *FlexNumber) UnmarshalJSON(data []byte) error {
	n.raw = append(n.raw[:0], data...)
	return nil
}

// ErrNotNumeric is returned by FlexNumber.Int64 for values that are not numbers.
var ErrNotNumeric = errors.New("not a number")

// ErrNegative is returned by FlexNumber.Int64 for values below zero.
var ErrNegative = errors.New("must not be negative")

// Int64 converts the value to a non-negative integer. Missing, null and empty
// values are 0; fractions are truncated toward zero.
func (n *FlexNumber) Int64() (int64, error) {
	if n == nil {
		return 0, nil
	}
	raw := bytes.TrimSpace(n.raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, nil
	}

	text := string(raw)
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, ErrNotNumeric
		}
		text = strings.TrimSpace(s)
		if text == "" {
			return 0, nil
		}
	}

	d, err := decimal.NewFromString(text)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrNotNumeric, text)
	}
	if d.IsNegative() {
		return 0, ErrNegative
	}
	d = d.Truncate(0)
	if d.GreaterThan(maxInt64) {
		return 0, fmt.Errorf("%w: %q out of range", ErrNotNumeric, text)
	}
	return d.IntPart(), nil
}

var maxInt64 = decimal.NewFromInt(math.MaxInt64)

// DefaultWatchlist is seeded when no portfolio file exists yet.
func DefaultWatchlist() []WatchlistEntry {
	return []WatchlistEntry{
		{Ticker: "000660", Name: "SK하이닉스"},
		{Ticker: "028260", Name: "삼성물산"},
		{Ticker: "064350", Name: "현대로템"},
		{Ticker: "079550", Name: "LIG넥스원"},
		{Ticker: "140860", Name: "파크시스템스"},
		{Ticker: "469160", Name: "PLUS 고배당주"},
		{Ticker: "449450", Name: "SOL금융지주플러스고배당"},
		{Ticker: "411060", Name: "ACE KRX금현물"},
		{Ticker: "005930", Name: "삼성전자"},
	}
}
