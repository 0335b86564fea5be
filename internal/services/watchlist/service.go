// Package watchlist provides watchlist management services
package watchlist

import (
	"context"
	"fmt"
	"strings"

	"github.com/bobmcallan/stockwatch/internal/common"
	"github.com/bobmcallan/stockwatch/internal/interfaces"
	"github.com/bobmcallan/stockwatch/internal/metrics"
	"github.com/bobmcallan/stockwatch/internal/models"
)

// Compile-time interface check
var _ interfaces.WatchlistService = (*Service)(nil)

// Service implements WatchlistService over a whole-file store. Every
// mutation reloads, validates, then rewrites the file; rejected requests
// never write.
type Service struct {
	store   interfaces.WatchlistStore
	logger  *common.Logger
	metrics *metrics.Metrics
}

// NewService creates a new watchlist service
func NewService(store interfaces.WatchlistStore, logger *common.Logger, m *metrics.Metrics) *Service {
	return &Service{
		store:   store,
		logger:  logger,
		metrics: m,
	}
}

// findByTicker returns the index of the first entry with the exact ticker, or -1.
func findByTicker(entries []models.WatchlistEntry, ticker string) int {
	for i := range entries {
		if entries[i].Ticker == ticker {
			return i
		}
	}
	return -1
}

// List returns the watchlist in stored order
func (s *Service) List(ctx context.Context) ([]models.WatchlistEntry, error) {
	entries, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load watchlist: %w", err)
	}
	s.metrics.SetWatchlistSize(len(entries))
	return entries, nil
}

// Add appends a new entry. Ticker and name are trimmed and required;
// the ticker must not already be present.
func (s *Service) Add(ctx context.Context, draft models.EntryDraft) (*models.WatchlistEntry, error) {
	ticker := strings.TrimSpace(draft.Ticker)
	name := strings.TrimSpace(draft.Name)
	if ticker == "" || name == "" {
		return nil, common.MissingIdentityError()
	}

	entry := models.WatchlistEntry{Ticker: ticker, Name: name}
	if err := applyFields(&entry, draft.EntryFields); err != nil {
		return nil, err
	}

	entries, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load watchlist: %w", err)
	}

	if findByTicker(entries, ticker) >= 0 {
		return nil, fmt.Errorf("%w: %s", common.ErrDuplicate, ticker)
	}

	entries = append(entries, entry)
	if err := s.store.Save(ctx, entries); err != nil {
		return nil, fmt.Errorf("failed to save watchlist: %w", err)
	}
	s.metrics.SetWatchlistSize(len(entries))

	s.logger.Info().Str("ticker", ticker).Str("name", name).Msg("Watchlist entry added")
	return &entry, nil
}

// Update overwrites quantity, buy price and sell target. Fields missing
// from the request reset to 0.
func (s *Service) Update(ctx context.Context, ticker string, fields models.EntryFields) (*models.WatchlistEntry, error) {
	var values models.WatchlistEntry
	if err := applyFields(&values, fields); err != nil {
		return nil, err
	}

	entries, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load watchlist: %w", err)
	}

	idx := findByTicker(entries, ticker)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", common.ErrNotFound, ticker)
	}

	existing := &entries[idx]
	existing.Quantity = values.Quantity
	existing.BuyPrice = values.BuyPrice
	existing.SellTarget = values.SellTarget

	if err := s.store.Save(ctx, entries); err != nil {
		return nil, fmt.Errorf("failed to save watchlist: %w", err)
	}

	s.logger.Info().Str("ticker", ticker).Msg("Watchlist entry updated")
	updated := *existing
	return &updated, nil
}

// Delete removes every entry with the ticker. A missing ticker is not an
// error; the file is rewritten either way.
func (s *Service) Delete(ctx context.Context, ticker string) error {
	entries, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load watchlist: %w", err)
	}

	kept := make([]models.WatchlistEntry, 0, len(entries))
	for _, e := range entries {
		if e.Ticker != ticker {
			kept = append(kept, e)
		}
	}

	if err := s.store.Save(ctx, kept); err != nil {
		return fmt.Errorf("failed to save watchlist: %w", err)
	}
	s.metrics.SetWatchlistSize(len(kept))

	s.logger.Info().Str("ticker", ticker).Int("removed", len(entries)-len(kept)).Msg("Watchlist entry deleted")
	return nil
}

// applyFields normalises the numeric request fields onto entry.
func applyFields(entry *models.WatchlistEntry, fields models.EntryFields) error {
	targets := []struct {
		name  string
		value *models.FlexNumber
		dest  *int64
	}{
		{"quantity", fields.Quantity, &entry.Quantity},
		{"buy_price", fields.BuyPrice, &entry.BuyPrice},
		{"sell_target", fields.SellTarget, &entry.SellTarget},
	}
	for _, t := range targets {
		n, err := t.value.Int64()
		if err != nil {
			return common.ValidationError("%s %v", t.name, err)
		}
		*t.dest = n
	}
	return nil
}
