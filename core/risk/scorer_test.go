package risk

import (
	"errors"
	"math"
	"testing"

	"github.com/vertiops/evtol-ops/core/model"
)

// fakeEncoder mimics a fitted label encoder over the weather vocabulary.
type fakeEncoder struct{ classes map[string]float64 }

func (f fakeEncoder) Encode(category string) (float64, error) {
	code, ok := f.classes[category]
	if !ok {
		return 0, &UnknownCategoryError{Category: category}
	}
	return code, nil
}

type identityScaler struct{}

func (identityScaler) Transform(features []float64) ([]float64, error) { return features, nil }

// windClassifier classifies purely on wind speed so tests are deterministic.
type windClassifier struct{}

func (windClassifier) Predict(features []float64) (int, []float64, error) {
	wind := features[2]
	switch {
	case wind >= 60:
		return 2, []float64{0.05, 0.15, 0.8}, nil
	case wind >= 25:
		return 1, []float64{0.2, 0.6, 0.2}, nil
	default:
		return 0, []float64{0.7, 0.2, 0.1}, nil
	}
}

func newTestScorer(t *testing.T) *Scorer {
	t.Helper()
	enc := fakeEncoder{classes: map[string]float64{
		"Clear": 0, "Fog": 1, "Rain": 2, "Snow": 3, "Storm": 4,
	}}
	s, err := NewScorer(enc, identityScaler{}, windClassifier{})
	if err != nil {
		t.Fatalf("new scorer: %v", err)
	}
	return s
}

func TestScoreStormHighWind(t *testing.T) {
	s := newTestScorer(t)
	a, err := s.Score("Storm", -5, 80, 40, 30)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if a.Level != model.RiskHigh {
		t.Fatalf("expected High, got %s", a.Level)
	}
	if len(a.Probabilities) != 3 {
		t.Fatalf("expected 3 probabilities, got %d", len(a.Probabilities))
	}
	var sum float64
	for _, p := range a.Probabilities {
		sum += p
	}
	if math.Abs(sum-1) > 1e-6 {
		t.Fatalf("probabilities must sum to 1, got %f", sum)
	}
}

func TestScoreCalm(t *testing.T) {
	s := newTestScorer(t)
	a, err := s.Score("Clear", 20, 5, 3, 120)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if a.Level != model.RiskLow {
		t.Fatalf("expected Low, got %s", a.Level)
	}
}

func TestScoreUnknownCategory(t *testing.T) {
	s := newTestScorer(t)
	_, err := s.Score("Hurricane", 10, 10, 10, 10)
	var uc *UnknownCategoryError
	if !errors.As(err, &uc) || uc.Category != "Hurricane" {
		t.Fatalf("expected UnknownCategoryError, got %v", err)
	}
}

type badClassifier struct {
	probs []float64
	class int
}

func (b badClassifier) Predict([]float64) (int, []float64, error) { return b.class, b.probs, nil }

func TestScoreRejectsMalformedClassifierOutput(t *testing.T) {
	enc := fakeEncoder{classes: map[string]float64{"Clear": 0}}

	s, _ := NewScorer(enc, identityScaler{}, badClassifier{class: 0, probs: []float64{0.5, 0.5}})
	if _, err := s.Score("Clear", 0, 0, 0, 0); err == nil {
		t.Fatal("two-class distribution accepted")
	}

	s, _ = NewScorer(enc, identityScaler{}, badClassifier{class: 7, probs: []float64{0.2, 0.3, 0.5}})
	if _, err := s.Score("Clear", 0, 0, 0, 0); err == nil {
		t.Fatal("out-of-range class index accepted")
	}
}

func TestNewScorerNilArtifacts(t *testing.T) {
	if _, err := NewScorer(nil, identityScaler{}, windClassifier{}); err == nil {
		t.Fatal("nil encoder accepted")
	}
}
