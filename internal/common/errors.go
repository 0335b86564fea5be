package common

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by storage, services and the HTTP layer.
// Callers classify with errors.Is / errors.As.
var (
	ErrValidation = errors.New("validation failed")
	ErrDuplicate  = errors.New("already registered")
	ErrNotFound   = errors.New("not found")
	ErrParse      = errors.New("malformed file")
	ErrNoData     = errors.New("no price data")

	// ErrMissingIdentity is wrapped together with ErrValidation when an
	// entry lacks a ticker or name.
	ErrMissingIdentity = errors.New("ticker and name are required")
)

// ValidationError returns an error wrapping ErrValidation with a message for the user.
func ValidationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// MissingIdentityError returns an error matching both ErrValidation and ErrMissingIdentity.
func MissingIdentityError() error {
	return fmt.Errorf("%w: %w", ErrValidation, ErrMissingIdentity)
}

// ProviderError reports a failed market data query. It is distinct from
// ErrNoData: the series may exist, the provider just could not be reached or
// returned something unusable.
type ProviderError struct {
	Op     string // equity_history, fund_history, list_tickers, ticker_name
	Ticker string
	Err    error
}

func (e *ProviderError) Error() string {
	if e.Ticker == "" {
		return fmt.Sprintf("provider %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("provider %s failed for %s: %v", e.Op, e.Ticker, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsProviderError reports whether err carries a *ProviderError.
func IsProviderError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}
