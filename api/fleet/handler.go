// Package fleet exposes the fleet snapshot over HTTP.
package fleet

import (
	"context"
	"encoding/json"
	"net/http"

	corefleet "github.com/vertiops/evtol-ops/core/fleet"
)

// Snapshotter provides the current fleet state including reservations.
type Snapshotter interface {
	Snapshot(ctx context.Context) ([]corefleet.VehicleStatus, error)
}

// NewSnapshotHandler returns an HTTP handler serving the fleet snapshot via
// GET /api/fleet.
func NewSnapshotHandler(reg Snapshotter) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		vehicles, err := reg.Snapshot(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(vehicles); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})
}
