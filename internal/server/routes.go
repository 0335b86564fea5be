package server

import (
	"net/http"
	"runtime"
	"time"

	"github.com/bobmcallan/stockwatch/internal/common"
)

// registerRoutes sets up all REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)
	mux.Handle("/metrics", s.app.Metrics.Handler())

	// Watchlist
	mux.HandleFunc("/api/portfolio/chart", s.handlePortfolioChart)
	mux.HandleFunc("/api/portfolio/", s.handlePortfolioEntry)
	mux.HandleFunc("/api/portfolio", s.handlePortfolio)

	// Market data
	mux.HandleFunc("/api/stock/", s.handleStock)
	mux.HandleFunc("/api/search", s.handleSearch)
	mux.HandleFunc("/api/prices", s.handlePrices)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.GetVersion(),
		"build":   common.GetBuild(),
		"commit":  common.GetGitCommit(),
		"go":      runtime.Version(),
		"uptime":  time.Since(s.app.StartupTime).Round(time.Second).String(),
		"search":  s.app.Config.Search.Source,
	})
}
