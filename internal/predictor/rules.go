package predictor

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/kartoza/rockburst/internal/grade"
	"github.com/kartoza/rockburst/internal/rock"
)

// RuleScorer is a deterministic heuristic over normalised features.
//
// The hazard index is a weighted mean of four terms, each in [0,1]:
// the stress ratio σθ/σc scaled by StressRatioCap, the brittleness
// σc/σt scaled between BrittlenessMin and BrittlenessMax, dryness
// (1 - wet), and a per-rock-type factor. Grade probabilities are a
// softmax over the squared distance of the index to each grade centre.
// The weights are not calibrated against field data.
type RuleScorer struct {
	params Params
	// weights normalised to sum to 1
	weights [4]float64
}

// NewRuleScorer builds a rule scorer from validated parameters
func NewRuleScorer(p Params) (*RuleScorer, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	r := p.Rules
	w := []float64{r.StressWeight, r.BrittlenessWeight, r.DrynessWeight, r.RockWeight}
	floats.Scale(1/floats.Sum(w), w)

	s := &RuleScorer{params: p}
	copy(s.weights[:], w)
	return s, nil
}

// HazardIndex maps a feature vector onto [0,1]
func (s *RuleScorer) HazardIndex(v rock.FeatureVector) float64 {
	r := s.params.Rules
	terms := []float64{
		clamp01(v.SigmaThetaCRatio / r.StressRatioCap),
		clamp01((v.SigmaCTRatio - r.BrittlenessMin) / (r.BrittlenessMax - r.BrittlenessMin)),
		clamp01(1 - v.Wet),
		clamp01(r.RockFactors[v.RockType.Code()-1]),
	}
	return floats.Dot(s.weights[:], terms)
}

// Probabilities returns the softmax over grade centres for a hazard index
func (s *RuleScorer) Probabilities(h float64) Probabilities {
	r := s.params.Rules
	logits := make([]float64, grade.Count)
	for k, c := range r.Centers {
		d := h - c
		logits[k] = -d * d / (2 * r.Temperature * r.Temperature)
	}

	lse := floats.LogSumExp(logits)
	var probs Probabilities
	for k, l := range logits {
		probs[k] = math.Exp(l - lse)
	}
	return probs
}

// Predict scores a validated feature vector
func (s *RuleScorer) Predict(v rock.FeatureVector) (*Result, error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}
	return newResult(s.Probabilities(s.HazardIndex(v)), s.params.Version), nil
}

// grade returns the arg-max grade without validation; used to label
// reference samples that are already in range.
func (s *RuleScorer) grade(v rock.FeatureVector) grade.Grade {
	probs := s.Probabilities(s.HazardIndex(v))
	return grade.Grade(floats.MaxIdx(probs[:]))
}

func (s *RuleScorer) Version() string { return s.params.Version }

func (s *RuleScorer) Kind() Kind { return KindRules }

// GetConfig returns the scorer configuration
func (s *RuleScorer) GetConfig() map[string]interface{} {
	return map[string]interface{}{
		"version":     s.params.Version,
		"kind":        KindRules,
		"weights":     s.weights,
		"centers":     s.params.Rules.Centers,
		"temperature": s.params.Rules.Temperature,
	}
}

func clamp01(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}
