package server

import (
	"errors"
	"net/http"
	"os"
	"strings"

	"github.com/bobmcallan/stockwatch/internal/common"
	"github.com/bobmcallan/stockwatch/internal/models"
)

// User-facing error messages. Numeric field failures keep the service's
// detail so the offending field is named.
const (
	msgRequired     = "종목코드와 종목명은 필수입니다."
	msgDuplicate    = "이미 등록된 종목입니다."
	msgNotFound     = "종목을 찾을 수 없습니다."
	msgNoData       = "데이터를 가져올 수 없습니다."
	msgNoSnapshot   = "가격 스냅샷이 아직 없습니다."
	msgStoreBroken  = "stored file is malformed"
	msgInternalFail = "Internal server error"
)

// writeServiceError maps service errors onto HTTP responses.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, common.ErrMissingIdentity):
		WriteErrorWithCode(w, http.StatusBadRequest, msgRequired, "validation")
	case errors.Is(err, common.ErrValidation):
		msg := strings.TrimPrefix(err.Error(), common.ErrValidation.Error()+": ")
		WriteErrorWithCode(w, http.StatusBadRequest, msg, "validation")
	case errors.Is(err, common.ErrDuplicate):
		WriteErrorWithCode(w, http.StatusBadRequest, msgDuplicate, "duplicate")
	case errors.Is(err, common.ErrNotFound):
		WriteErrorWithCode(w, http.StatusNotFound, msgNotFound, "not_found")
	case errors.Is(err, common.ErrNoData), common.IsProviderError(err):
		WriteErrorWithCode(w, http.StatusNotFound, msgNoData, "no_data")
	case errors.Is(err, common.ErrParse):
		s.logger.Error().Err(err).Msg("Stored file unreadable")
		WriteErrorWithCode(w, http.StatusInternalServerError, msgStoreBroken, "parse")
	default:
		s.logger.Error().Err(err).Msg("Request failed")
		WriteError(w, http.StatusInternalServerError, msgInternalFail)
	}
}

// handlePortfolio handles GET and POST /api/portfolio.
func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		entries, err := s.app.WatchlistService.List(r.Context())
		if err != nil {
			s.writeServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, entries)

	case http.MethodPost:
		var draft models.EntryDraft
		if !DecodeJSON(w, r, &draft) {
			return
		}
		if _, err := s.app.WatchlistService.Add(r.Context(), draft); err != nil {
			s.writeServiceError(w, err)
			return
		}
		WriteSuccess(w)

	default:
		RequireMethod(w, r, http.MethodGet, http.MethodPost)
	}
}

// handlePortfolioEntry handles PUT and DELETE /api/portfolio/{ticker}.
func (s *Server) handlePortfolioEntry(w http.ResponseWriter, r *http.Request) {
	ticker := PathParam(r, "/api/portfolio/", "")
	if ticker == "" {
		WriteError(w, http.StatusNotFound, msgNotFound)
		return
	}

	switch r.Method {
	case http.MethodPut:
		var fields models.EntryFields
		if !DecodeJSON(w, r, &fields) {
			return
		}
		if _, err := s.app.WatchlistService.Update(r.Context(), ticker, fields); err != nil {
			s.writeServiceError(w, err)
			return
		}
		WriteSuccess(w)

	case http.MethodDelete:
		if err := s.app.WatchlistService.Delete(r.Context(), ticker); err != nil {
			s.writeServiceError(w, err)
			return
		}
		WriteSuccess(w)

	default:
		RequireMethod(w, r, http.MethodPut, http.MethodDelete)
	}
}

// handleStock handles GET /api/stock/{ticker}?name=
func (s *Server) handleStock(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	ticker := PathParam(r, "/api/stock/", "")
	if ticker == "" {
		WriteErrorWithCode(w, http.StatusNotFound, msgNoData, "no_data")
		return
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		name = ticker
	}

	info, err := s.app.Enricher.Enrich(r.Context(), ticker, name)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, info)
}

// handleSearch handles GET /api/search?q=
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	results, err := s.app.SearchService.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, results)
}

// handlePrices handles GET /api/prices, serving the refresher's snapshot.
func (s *Server) handlePrices(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	snap, err := s.app.Storage.SnapshotStore().ReadPrices(r.Context())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			WriteErrorWithCode(w, http.StatusNotFound, msgNoSnapshot, "no_snapshot")
			return
		}
		s.writeServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, snap)
}

// handlePortfolioChart handles GET /api/portfolio/chart, rendering the
// ratio bar chart from the latest price snapshot. Other methods address a
// watchlist entry whose ticker is "chart".
func (s *Server) handlePortfolioChart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.handlePortfolioEntry(w, r)
		return
	}
	snap, err := s.app.Storage.SnapshotStore().ReadPrices(r.Context())
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		s.writeServiceError(w, err)
		return
	}
	if snap == nil || len(snap.Prices) == 0 {
		WriteErrorWithCode(w, http.StatusNotFound, msgNoSnapshot, "no_snapshot")
		return
	}

	png, err := s.app.SnapshotService.RenderChart(snap)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}
