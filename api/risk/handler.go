// Package risk exposes the safety scorer over HTTP.
package risk

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/vertiops/evtol-ops/core/metrics"
	corerisk "github.com/vertiops/evtol-ops/core/risk"
)

// Scorer assesses flight conditions. A nil Scorer means the model artifact
// could not be loaded.
type Scorer interface {
	Score(condition string, temperature, windSpeed float64, vehicleCount int, averageSpeed float64) (corerisk.Assessment, error)
}

type scoreRequest struct {
	Condition    string  `json:"condition"`
	Temperature  float64 `json:"temperature"`
	WindSpeed    float64 `json:"wind_speed"`
	VehicleCount int     `json:"vehicle_count"`
	AverageSpeed float64 `json:"average_speed"`
}

type scoreResponse struct {
	RiskLevel     string    `json:"risk_level"`
	Probabilities []float64 `json:"probabilities"` // [Low, Medium, High]
}

// NewScoreHandler returns an HTTP handler serving risk assessments via
// POST /api/risk/score. It answers 503 while the model is unavailable.
func NewScoreHandler(s Scorer, rec metrics.ScoreRecorder) http.Handler {
	if rec == nil {
		rec = metrics.NopSink{}
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if s == nil {
			http.Error(w, corerisk.ErrModelUnavailable.Error(), http.StatusServiceUnavailable)
			return
		}
		var req scoreRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		a, err := s.Score(req.Condition, req.Temperature, req.WindSpeed, req.VehicleCount, req.AverageSpeed)
		if err != nil {
			var uc *corerisk.UnknownCategoryError
			switch {
			case errors.Is(err, corerisk.ErrModelUnavailable):
				http.Error(w, err.Error(), http.StatusServiceUnavailable)
			case errors.As(err, &uc):
				http.Error(w, err.Error(), http.StatusBadRequest)
			default:
				http.Error(w, err.Error(), http.StatusInternalServerError)
			}
			return
		}
		_ = rec.RecordScore(metrics.ScoreEvent{
			Condition: req.Condition,
			Level:     string(a.Level),
			Time:      time.Now().UTC(),
		})
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(scoreResponse{
			RiskLevel:     string(a.Level),
			Probabilities: a.Probabilities,
		}); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})
}
