// Package risk turns raw weather and traffic telemetry into a categorical
// safety classification using injected, already-fitted model artifacts.
package risk

import (
	"errors"
	"fmt"

	"github.com/vertiops/evtol-ops/core/model"
)

// ErrModelUnavailable is returned when the fitted artifacts failed to load.
// It disables the scorer only; fleet and dispatch operation continue.
var ErrModelUnavailable = errors.New("model artifacts unavailable")

// UnknownCategoryError reports an out-of-vocabulary condition label.
type UnknownCategoryError struct {
	Category string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("unknown condition category %q", e.Category)
}

// Encoder maps a known condition category to its numeric code.
type Encoder interface {
	Encode(category string) (float64, error)
}

// Scaler maps a raw feature vector to a normalized one.
type Scaler interface {
	Transform(features []float64) ([]float64, error)
}

// Classifier maps a normalized feature vector to a discrete class index and
// a probability distribution over all classes.
type Classifier interface {
	Predict(features []float64) (int, []float64, error)
}

// Assessment is the scorer output: the argmax risk level and the full
// three-class probability distribution in Low, Medium, High order.
type Assessment struct {
	Level         model.RiskLevel `json:"risk_level"`
	Probabilities []float64       `json:"probabilities"`
}

// levels maps class indices to risk levels by position.
var levels = []model.RiskLevel{model.RiskLow, model.RiskMedium, model.RiskHigh}

// Scorer is a stateless pipeline over immutable fitted artifacts. It never
// mutates fleet or flight state and is safe for concurrent use.
type Scorer struct {
	encoder    Encoder
	scaler     Scaler
	classifier Classifier
}

// NewScorer creates a Scorer from fitted artifacts.
func NewScorer(encoder Encoder, scaler Scaler, classifier Classifier) (*Scorer, error) {
	if encoder == nil || scaler == nil || classifier == nil {
		return nil, fmt.Errorf("risk: nil artifact provided to NewScorer")
	}
	return &Scorer{encoder: encoder, scaler: scaler, classifier: classifier}, nil
}

// Score classifies one operating context. The feature vector is assembled in
// the fixed order the model was trained on: encoded condition, temperature,
// wind speed, vehicle count, average speed.
func (s *Scorer) Score(condition string, temperature, windSpeed float64, vehicleCount int, averageSpeed float64) (Assessment, error) {
	code, err := s.encoder.Encode(condition)
	if err != nil {
		return Assessment{}, err
	}
	features := []float64{code, temperature, windSpeed, float64(vehicleCount), averageSpeed}
	scaled, err := s.scaler.Transform(features)
	if err != nil {
		return Assessment{}, fmt.Errorf("scale features: %w", err)
	}
	class, probs, err := s.classifier.Predict(scaled)
	if err != nil {
		return Assessment{}, fmt.Errorf("classify: %w", err)
	}
	if len(probs) != len(levels) {
		return Assessment{}, fmt.Errorf("classifier returned %d probabilities, want %d", len(probs), len(levels))
	}
	if class < 0 || class >= len(levels) {
		return Assessment{}, fmt.Errorf("classifier returned class index %d out of range", class)
	}
	return Assessment{Level: levels[class], Probabilities: probs}, nil
}
