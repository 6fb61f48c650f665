// Package predictor turns a rock feature vector into a rockburst hazard
// grade with a probability for each of the four grades.
//
// Scorers are built once from versioned parameters and are immutable
// afterwards, so Predict is deterministic and safe for concurrent use.
package predictor

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/kartoza/rockburst/internal/grade"
	"github.com/kartoza/rockburst/internal/rock"
)

// Predictor scores feature vectors
type Predictor interface {
	// Predict returns an InvalidInputError for vectors that fail validation
	Predict(v rock.FeatureVector) (*Result, error)
	Version() string
	Kind() Kind
	GetConfig() map[string]interface{}
}

// Probabilities holds one probability per grade, indexed by grade
type Probabilities [grade.Count]float64

// Sum returns the total probability mass
func (p Probabilities) Sum() float64 {
	return floats.Sum(p[:])
}

// Result is the outcome of a single prediction
type Result struct {
	Grade         grade.Grade   `json:"grade"`
	GradeLabel    string        `json:"grade_label"`
	Probabilities Probabilities `json:"class_probabilities"`
	ModelVersion  string        `json:"model_version"`
}

// New builds the scorer selected by the parameters' kind
func New(p Params) (Predictor, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}

	switch p.Kind {
	case KindForest:
		return NewForestScorer(p)
	default:
		return NewRuleScorer(p)
	}
}

// newResult picks the arg-max grade; ties go to the lower grade.
func newResult(probs Probabilities, version string) *Result {
	g := grade.Grade(floats.MaxIdx(probs[:]))
	return &Result{
		Grade:         g,
		GradeLabel:    g.Label(),
		Probabilities: probs,
		ModelVersion:  version,
	}
}
