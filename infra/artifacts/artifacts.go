// Package artifacts loads the fitted risk-model components (label encoder,
// feature scaler, classifier) exported by the offline training pipeline.
package artifacts

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"gonum.org/v1/gonum/mat"

	"github.com/vertiops/evtol-ops/core/risk"
)

// bundleFile is the on-disk JSON layout of the exported artifacts.
type bundleFile struct {
	Encoder struct {
		Classes []string `json:"classes"`
	} `json:"encoder"`
	Scaler struct {
		Mean  []float64 `json:"mean"`
		Scale []float64 `json:"scale"`
	} `json:"scaler"`
	Classifier struct {
		Weights   [][]float64 `json:"weights"` // classes x features
		Intercept []float64   `json:"intercept"`
	} `json:"classifier"`
}

// Bundle holds the loaded artifacts. It is immutable after Load and safe to
// share across goroutines.
type Bundle struct {
	Encoder    risk.Encoder
	Scaler     risk.Scaler
	Classifier risk.Classifier
}

// Load reads and validates the artifact file. Any failure is reported as
// risk.ErrModelUnavailable: the scorer stays down, the rest of the system
// keeps running.
func Load(path string) (*Bundle, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", risk.ErrModelUnavailable, path, err)
	}
	var bf bundleFile
	if err := json.Unmarshal(raw, &bf); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", risk.ErrModelUnavailable, path, err)
	}

	enc, err := newLabelEncoder(bf.Encoder.Classes)
	if err != nil {
		return nil, fmt.Errorf("%w: encoder: %v", risk.ErrModelUnavailable, err)
	}
	sc, err := newStandardScaler(bf.Scaler.Mean, bf.Scaler.Scale)
	if err != nil {
		return nil, fmt.Errorf("%w: scaler: %v", risk.ErrModelUnavailable, err)
	}
	clf, err := newSoftmaxClassifier(bf.Classifier.Weights, bf.Classifier.Intercept, len(bf.Scaler.Mean))
	if err != nil {
		return nil, fmt.Errorf("%w: classifier: %v", risk.ErrModelUnavailable, err)
	}
	return &Bundle{Encoder: enc, Scaler: sc, Classifier: clf}, nil
}

// labelEncoder maps category labels to the numeric codes assigned during
// fitting.
type labelEncoder struct {
	codes map[string]float64
}

func newLabelEncoder(classes []string) (*labelEncoder, error) {
	if len(classes) == 0 {
		return nil, fmt.Errorf("no classes")
	}
	codes := make(map[string]float64, len(classes))
	for i, c := range classes {
		if _, dup := codes[c]; dup {
			return nil, fmt.Errorf("duplicate class %q", c)
		}
		codes[c] = float64(i)
	}
	return &labelEncoder{codes: codes}, nil
}

func (e *labelEncoder) Encode(category string) (float64, error) {
	code, ok := e.codes[category]
	if !ok {
		return 0, &risk.UnknownCategoryError{Category: category}
	}
	return code, nil
}

// standardScaler applies the fitted (x - mean) / scale normalization.
type standardScaler struct {
	mean  []float64
	scale []float64
}

func newStandardScaler(mean, scale []float64) (*standardScaler, error) {
	if len(mean) == 0 || len(mean) != len(scale) {
		return nil, fmt.Errorf("mean/scale length mismatch: %d vs %d", len(mean), len(scale))
	}
	for i, s := range scale {
		if s == 0 {
			return nil, fmt.Errorf("zero scale for feature %d", i)
		}
	}
	return &standardScaler{mean: mean, scale: scale}, nil
}

func (s *standardScaler) Transform(features []float64) ([]float64, error) {
	if len(features) != len(s.mean) {
		return nil, fmt.Errorf("got %d features, want %d", len(features), len(s.mean))
	}
	out := make([]float64, len(features))
	for i, f := range features {
		out[i] = (f - s.mean[i]) / s.scale[i]
	}
	return out, nil
}

// softmaxClassifier evaluates a fitted multinomial logistic model:
// z = Wx + b, softmax over z.
type softmaxClassifier struct {
	weights   *mat.Dense // classes x features
	intercept *mat.VecDense
	classes   int
}

func newSoftmaxClassifier(weights [][]float64, intercept []float64, features int) (*softmaxClassifier, error) {
	classes := len(weights)
	if classes == 0 {
		return nil, fmt.Errorf("no weight rows")
	}
	if len(intercept) != classes {
		return nil, fmt.Errorf("intercept length %d does not match %d classes", len(intercept), classes)
	}
	flat := make([]float64, 0, classes*features)
	for i, row := range weights {
		if len(row) != features {
			return nil, fmt.Errorf("weight row %d has %d columns, want %d", i, len(row), features)
		}
		flat = append(flat, row...)
	}
	return &softmaxClassifier{
		weights:   mat.NewDense(classes, features, flat),
		intercept: mat.NewVecDense(classes, append([]float64(nil), intercept...)),
		classes:   classes,
	}, nil
}

func (c *softmaxClassifier) Predict(features []float64) (int, []float64, error) {
	if len(features) != c.weights.RawMatrix().Cols {
		return 0, nil, fmt.Errorf("got %d features, want %d", len(features), c.weights.RawMatrix().Cols)
	}
	x := mat.NewVecDense(len(features), append([]float64(nil), features...))
	var z mat.VecDense
	z.MulVec(c.weights, x)
	z.AddVec(&z, c.intercept)

	// Softmax with the usual max shift for numerical stability.
	maxZ := math.Inf(-1)
	for i := 0; i < c.classes; i++ {
		if v := z.AtVec(i); v > maxZ {
			maxZ = v
		}
	}
	probs := make([]float64, c.classes)
	var sum float64
	for i := 0; i < c.classes; i++ {
		probs[i] = math.Exp(z.AtVec(i) - maxZ)
		sum += probs[i]
	}
	argmax := 0
	for i := range probs {
		probs[i] /= sum
		if probs[i] > probs[argmax] {
			argmax = i
		}
	}
	return argmax, probs, nil
}
