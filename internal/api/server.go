// Package api is the operational HTTP surface: health, metrics, and
// read-only views over the ledger.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lakeshore-ultimate/tally/internal/activity"
	"github.com/lakeshore-ultimate/tally/internal/report"
)

// Ledger is the read surface the API exposes.
type Ledger interface {
	All(ctx context.Context) ([]activity.Record, error)
}

type Server struct {
	router   *chi.Mux
	port     int
	reporter *report.Reporter
	ledger   Ledger
}

func NewServer(port int, reporter *report.Reporter, ledger Ledger) *Server {
	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	s := &Server{
		router:   router,
		port:     port,
		reporter: reporter,
		ledger:   ledger,
	}

	router.Get("/health", s.health)
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/api/v1/leaderboard", s.leaderboard)
	router.Get("/api/v1/activities", s.activities)

	return s
}

func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	slog.Info("API server starting", "addr", addr)
	return http.ListenAndServe(addr, s.router)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) leaderboard(w http.ResponseWriter, r *http.Request) {
	totals, err := s.reporter.Standings(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	type row struct {
		UserID string `json:"user_id"`
		Points int    `json:"points"`
	}
	rows := make([]row, 0, len(totals))
	for _, t := range totals {
		rows = append(rows, row{UserID: t.UserID, Points: t.Points})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(rows)
}

func (s *Server) activities(w http.ResponseWriter, r *http.Request) {
	recs, err := s.ledger.All(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	type row struct {
		ID         string `json:"id"`
		UserID     string `json:"user_id"`
		Date       string `json:"date"`
		MessageRef string `json:"message_ref"`
		Type       string `json:"activity_type"`
		Points     int    `json:"points"`
	}
	rows := make([]row, 0, len(recs))
	for _, rec := range recs {
		rows = append(rows, row{
			ID:         rec.ID.String(),
			UserID:     rec.UserID,
			Date:       rec.Date,
			MessageRef: rec.MessageRef,
			Type:       string(rec.Type),
			Points:     rec.Points,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(rows)
}
