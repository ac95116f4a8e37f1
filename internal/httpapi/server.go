package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"siteops/internal/domain"
	"siteops/internal/recon"
	"siteops/internal/report"
	"siteops/internal/store"
)

// Server serves the back-office HTTP API.
type Server struct {
	recon    *recon.Service
	sites    store.SiteStore
	receipts store.ReceiptStore
	daysBack int // default scan window when the query omits one
	log      *slog.Logger
}

// NewServer creates an API server. defaultDaysBack is used when a scan
// request does not carry a "days" parameter; values below 1 fall back to
// recon.DefaultDaysBack.
func NewServer(rs *recon.Service, sites store.SiteStore, receipts store.ReceiptStore, defaultDaysBack int, log *slog.Logger) *Server {
	if defaultDaysBack < 1 {
		defaultDaysBack = recon.DefaultDaysBack
	}
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		recon:    rs,
		sites:    sites,
		receipts: receipts,
		daysBack: defaultDaysBack,
		log:      log.With("component", "httpapi"),
	}
}

// RegisterRoutes registers all API routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/sites/{siteID}/cashups/missing", s.handleMissingCashups)
	mux.HandleFunc("GET /api/sites/{siteID}/pnl", s.handlePNL)
}

// Handler returns an http.Handler with CORS middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding JSON response", "error", err)
	}
}

func writeFailure(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(FailureResponse{Success: false, Error: msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, HealthResponse{Status: "ok"})
}

// handleMissingCashups runs the reconciliation scan for one site.
// GET /api/sites/{siteID}/cashups/missing?days=N
func (s *Server) handleMissingCashups(w http.ResponseWriter, r *http.Request) {
	siteID := r.PathValue("siteID")

	site, ok, err := s.sites.GetSite(r.Context(), siteID)
	if err != nil {
		writeFailure(w, http.StatusInternalServerError, "site lookup failed: "+err.Error())
		return
	}
	if !ok {
		writeFailure(w, http.StatusNotFound, "unknown site "+siteID)
		return
	}

	days := s.daysBack
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeFailure(w, http.StatusBadRequest, "days must be a non-negative integer")
			return
		}
		days = n
	}

	dates, err := s.recon.MissingCashupDates(r.Context(), site.ID, days)
	if err != nil {
		s.log.Error("reconciliation scan failed", "site", site.ID, "error", err)
		writeFailure(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, MissingCashupsResponse{Success: true, SiteID: site.ID, Dates: dates})
}

// handlePNL aggregates receipts into daily totals and a range summary.
// GET /api/sites/{siteID}/pnl?start=YYYY-MM-DD&end=YYYY-MM-DD
// The range defaults to the trailing 30 days ending yesterday.
func (s *Server) handlePNL(w http.ResponseWriter, r *http.Request) {
	siteID := r.PathValue("siteID")

	site, ok, err := s.sites.GetSite(r.Context(), siteID)
	if err != nil {
		writeFailure(w, http.StatusInternalServerError, "site lookup failed: "+err.Error())
		return
	}
	if !ok {
		writeFailure(w, http.StatusNotFound, "unknown site "+siteID)
		return
	}

	now := time.Now().UTC()
	start := now.AddDate(0, 0, -30).Format(domain.DateLayout)
	end := now.AddDate(0, 0, -1).Format(domain.DateLayout)
	if v := r.URL.Query().Get("start"); v != "" {
		if _, err := time.Parse(domain.DateLayout, v); err != nil {
			writeFailure(w, http.StatusBadRequest, "start must be YYYY-MM-DD")
			return
		}
		start = v
	}
	if v := r.URL.Query().Get("end"); v != "" {
		if _, err := time.Parse(domain.DateLayout, v); err != nil {
			writeFailure(w, http.StatusBadRequest, "end must be YYYY-MM-DD")
			return
		}
		end = v
	}
	if end < start {
		writeFailure(w, http.StatusBadRequest, "end precedes start")
		return
	}

	receipts, err := s.receipts.ReadReceipts(r.Context(), site.ID, start, end)
	if err != nil {
		s.log.Error("reading receipts failed", "site", site.ID, "error", err)
		writeFailure(w, http.StatusInternalServerError, "reading receipts: "+err.Error())
		return
	}

	days := report.DailyTotals(receipts)
	writeJSON(w, PNLResponse{
		Success: true,
		SiteID:  site.ID,
		Start:   start,
		End:     end,
		Days:    days,
		Totals:  report.Summarize(days),
	})
}
