package predictor

import (
	"fmt"

	"github.com/kartoza/rockburst/internal/grade"
	"github.com/kartoza/rockburst/internal/rock"
)

// Kind selects the scoring strategy
type Kind string

const (
	KindRules  Kind = "rules"
	KindForest Kind = "forest"
)

// Default parameter versions seeded into the registry
const (
	DefaultRulesVersion  = "rules-v1"
	DefaultForestVersion = "forest-v1"
)

// RuleParams holds the weights of the hazard index and the softmax shape
type RuleParams struct {
	StressWeight      float64 `json:"stress_weight"`
	BrittlenessWeight float64 `json:"brittleness_weight"`
	DrynessWeight     float64 `json:"dryness_weight"`
	RockWeight        float64 `json:"rock_weight"`

	// σθ/σc at which the stress term saturates
	StressRatioCap float64 `json:"stress_ratio_cap"`
	// σc/σt span mapped onto [0,1] for the brittleness term
	BrittlenessMin float64 `json:"brittleness_min"`
	BrittlenessMax float64 `json:"brittleness_max"`

	// Indexed by rock code - 1
	RockFactors []float64 `json:"rock_factors"`
	// Hazard index centre of each grade
	Centers     []float64 `json:"centers"`
	Temperature float64   `json:"temperature"`
}

// ForestParams controls the one-off training of the forest scorer
type ForestParams struct {
	Trees   int   `json:"trees"`
	Samples int   `json:"samples"`
	Seed    int64 `json:"seed"`
}

// Params is a versioned, immutable scorer configuration
type Params struct {
	Version string        `json:"version"`
	Kind    Kind          `json:"kind"`
	Rules   RuleParams    `json:"rules"`
	Forest  *ForestParams `json:"forest,omitempty"`
}

// DefaultRuleParams returns the parameters of rules-v1
func DefaultRuleParams() RuleParams {
	return RuleParams{
		StressWeight:      0.50,
		BrittlenessWeight: 0.25,
		DrynessWeight:     0.10,
		RockWeight:        0.15,
		StressRatioCap:    0.7,
		BrittlenessMin:    5,
		BrittlenessMax:    40,
		RockFactors:       []float64{1.0, 0.85, 0.7, 0.55, 0.4},
		Centers:           []float64{0.125, 0.375, 0.625, 0.875},
		Temperature:       0.15,
	}
}

// DefaultParams returns the built-in parameter sets
func DefaultParams() []Params {
	return []Params{
		{
			Version: DefaultRulesVersion,
			Kind:    KindRules,
			Rules:   DefaultRuleParams(),
		},
		{
			Version: DefaultForestVersion,
			Kind:    KindForest,
			Rules:   DefaultRuleParams(),
			Forest: &ForestParams{
				Trees:   100,
				Samples: 1000,
				Seed:    42,
			},
		},
	}
}

// Validate checks that the parameters can build a scorer
func (p Params) Validate() error {
	if p.Version == "" {
		return fmt.Errorf("version is required")
	}

	switch p.Kind {
	case KindRules:
	case KindForest:
		if p.Forest == nil {
			return fmt.Errorf("%s: forest parameters are required", p.Version)
		}
		if p.Forest.Trees <= 0 || p.Forest.Samples <= 0 {
			return fmt.Errorf("%s: trees and samples must be positive", p.Version)
		}
	default:
		return fmt.Errorf("%s: unknown kind %q", p.Version, p.Kind)
	}

	r := p.Rules
	weights := []float64{r.StressWeight, r.BrittlenessWeight, r.DrynessWeight, r.RockWeight}
	var total float64
	for _, w := range weights {
		if w < 0 {
			return fmt.Errorf("%s: weights must not be negative", p.Version)
		}
		total += w
	}
	if total == 0 {
		return fmt.Errorf("%s: at least one weight must be positive", p.Version)
	}
	if r.StressRatioCap <= 0 {
		return fmt.Errorf("%s: stress_ratio_cap must be positive", p.Version)
	}
	if r.BrittlenessMax <= r.BrittlenessMin {
		return fmt.Errorf("%s: brittleness_max must exceed brittleness_min", p.Version)
	}
	if len(r.RockFactors) != len(rock.RockTypes) {
		return fmt.Errorf("%s: need %d rock factors, got %d", p.Version, len(rock.RockTypes), len(r.RockFactors))
	}
	if len(r.Centers) != grade.Count {
		return fmt.Errorf("%s: need %d grade centres, got %d", p.Version, grade.Count, len(r.Centers))
	}
	if r.Temperature <= 0 {
		return fmt.Errorf("%s: temperature must be positive", p.Version)
	}
	return nil
}
