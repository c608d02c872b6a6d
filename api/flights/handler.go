// Package flights exposes flight data over HTTP.
package flights

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/vertiops/evtol-ops/core/model"
)

// ActiveLister lists flights currently in progress.
type ActiveLister interface {
	ActiveFlights(ctx context.Context) ([]model.Flight, error)
}

// NewActiveHandler returns an HTTP handler serving in-progress flights via
// GET /api/flights/active.
func NewActiveHandler(d ActiveLister) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		flights, err := d.ActiveFlights(r.Context())
		// Rows with undecodable paths are still served.
		if err != nil && len(flights) == 0 {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if flights == nil {
			flights = []model.Flight{}
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(flights); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})
}
