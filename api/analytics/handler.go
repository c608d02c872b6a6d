// Package analytics exposes the aggregator rollups over HTTP.
package analytics

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	coreanalytics "github.com/vertiops/evtol-ops/core/analytics"
)

const defaultWindowDays = 30

// NewHandler returns an HTTP handler serving the analytics rollups under
// /api/analytics/. The window is controlled with the "days" query parameter.
func NewHandler(agg *coreanalytics.Aggregator) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/analytics/fleet", func(w http.ResponseWriter, r *http.Request) {
		serve(w, r, func() (any, error) { return agg.FleetMetrics(r.Context()) })
	})
	mux.HandleFunc("/api/analytics/flights", func(w http.ResponseWriter, r *http.Request) {
		serve(w, r, func() (any, error) { return agg.FlightStats(r.Context(), since(r)) })
	})
	mux.HandleFunc("/api/analytics/energy", func(w http.ResponseWriter, r *http.Request) {
		serve(w, r, func() (any, error) { return agg.EnergyTrend(r.Context(), since(r)) })
	})
	mux.HandleFunc("/api/analytics/traffic/hourly", func(w http.ResponseWriter, r *http.Request) {
		serve(w, r, func() (any, error) { return agg.HourlyTraffic(r.Context(), since(r)) })
	})
	mux.HandleFunc("/api/analytics/traffic/congestion", func(w http.ResponseWriter, r *http.Request) {
		serve(w, r, func() (any, error) { return agg.CongestionByRoute(r.Context(), since(r)) })
	})
	mux.HandleFunc("/api/analytics/risk", func(w http.ResponseWriter, r *http.Request) {
		serve(w, r, func() (any, error) { return agg.RiskDistribution(r.Context(), since(r)) })
	})
	mux.HandleFunc("/api/analytics/maintenance", func(w http.ResponseWriter, r *http.Request) {
		serve(w, r, func() (any, error) { return agg.MaintenanceByModel(r.Context()) })
	})
	return mux
}

func since(r *http.Request) time.Time {
	days := defaultWindowDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		if d, err := strconv.Atoi(raw); err == nil && d > 0 {
			days = d
		}
	}
	return time.Now().UTC().Add(-time.Duration(days) * 24 * time.Hour)
}

func serve(w http.ResponseWriter, r *http.Request, fn func() (any, error)) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	out, err := fn()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(out); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
