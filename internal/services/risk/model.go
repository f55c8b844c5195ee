package risk

import (
	"errors"
	"fmt"
	"math"

	"FinNarrative/internal/domain/models"
)

const (
	KindClassifier = "classifier"
	KindRegressor  = "regressor"
)

// Prediction is the uniform output of every model kind.
type Prediction struct {
	Score float64
	Level models.RiskLevel
}

// Model is resolved once from an artifact; callers never inspect which
// kind they hold.
type Model interface {
	Kind() string
	Predict(f models.RiskFeatures) (Prediction, error)
}

// Classifier is a multinomial logistic model over risk levels.
type Classifier struct {
	Classes      []models.RiskLevel
	Coefficients [][]float64
	Intercepts   []float64
}

func (c *Classifier) Kind() string { return KindClassifier }

// Probabilities returns softmax class probabilities aligned with Classes.
func (c *Classifier) Probabilities(f models.RiskFeatures) ([]float64, error) {
	x := f.Vector()
	logits := make([]float64, len(c.Classes))
	maxLogit := math.Inf(-1)
	for k := range c.Classes {
		z, err := dot(c.Coefficients[k], x)
		if err != nil {
			return nil, err
		}
		z += c.Intercepts[k]
		logits[k] = z
		if z > maxLogit {
			maxLogit = z
		}
	}
	sum := 0.0
	for k, z := range logits {
		logits[k] = math.Exp(z - maxLogit)
		sum += logits[k]
	}
	if sum == 0 || math.IsNaN(sum) || math.IsInf(sum, 0) {
		return nil, errors.New("degenerate class probabilities")
	}
	for k := range logits {
		logits[k] /= sum
	}
	return logits, nil
}

func (c *Classifier) Predict(f models.RiskFeatures) (Prediction, error) {
	probs, err := c.Probabilities(f)
	if err != nil {
		return Prediction{}, err
	}
	best := 0
	for k, p := range probs {
		if p > probs[best] {
			best = k
		}
	}
	return Prediction{Score: probs[best], Level: c.Classes[best]}, nil
}

// Regressor is a linear model with an optional logistic link.
type Regressor struct {
	Coefficients []float64
	Intercept    float64
	Logistic     bool
	Thresholds   Thresholds
}

func (r *Regressor) Kind() string { return KindRegressor }

func (r *Regressor) Predict(f models.RiskFeatures) (Prediction, error) {
	y, err := dot(r.Coefficients, f.Vector())
	if err != nil {
		return Prediction{}, err
	}
	y += r.Intercept
	if r.Logistic {
		y = 1 / (1 + math.Exp(-y))
	}
	if math.IsNaN(y) {
		return Prediction{}, errors.New("regressor produced NaN")
	}
	score := models.Clamp01(y)
	return Prediction{Score: score, Level: r.Thresholds.Level(score)}, nil
}

func dot(w, x []float64) (float64, error) {
	if len(w) != len(x) {
		return 0, fmt.Errorf("expected %d coefficients, got %d", len(x), len(w))
	}
	s := 0.0
	for i := range w {
		s += w[i] * x[i]
	}
	return s, nil
}
