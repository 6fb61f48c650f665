package predictor

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"

	randomforest "github.com/malaschitz/randomForest"
	"gonum.org/v1/gonum/floats"

	"github.com/kartoza/rockburst/internal/grade"
	"github.com/kartoza/rockburst/internal/rock"
)

// ForestScorer is a random forest trained on a seeded reference set drawn
// from the documented input ranges and labelled by the rule scorer.
//
// Tree growth draws from the global math/rand source, so two trainings of
// the same parameters differ. A version is fixed by persisting the trees
// with MarshalModel and restoring them with LoadForestScorer.
type ForestScorer struct {
	params     Params
	forest     *randomforest.Forest
	importance []float64
	trained    bool
	restored   bool
}

// storedForest is the persisted form of a trained forest
type storedForest struct {
	Version string               `json:"version"`
	Forest  *randomforest.Forest `json:"forest"`
}

// NewForestScorer trains the forest described by the parameters
func NewForestScorer(p Params) (*ForestScorer, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.Kind != KindForest {
		return nil, fmt.Errorf("%s: not a forest parameter set", p.Version)
	}

	rules, err := NewRuleScorer(p)
	if err != nil {
		return nil, err
	}

	x, y := referenceSet(rules, p.Forest.Samples, p.Forest.Seed)

	forest := &randomforest.Forest{}
	forest.Data = randomforest.ForestData{X: x, Class: y}
	forest.Train(p.Forest.Trees)

	// Votes never consult the training data
	forest.Data = randomforest.ForestData{}
	sanitizeForest(forest)

	return &ForestScorer{
		params:     p,
		forest:     forest,
		importance: forest.FeatureImportance,
		trained:    true,
	}, nil
}

// LoadForestScorer restores a forest written by MarshalModel. Nothing is
// retrained.
func LoadForestScorer(p Params, data []byte) (*ForestScorer, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.Kind != KindForest {
		return nil, fmt.Errorf("%s: not a forest parameter set", p.Version)
	}

	var stored storedForest
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("%s: failed to decode stored forest: %w", p.Version, err)
	}
	if stored.Version != p.Version {
		return nil, fmt.Errorf("%s: stored forest belongs to %q", p.Version, stored.Version)
	}
	if err := checkForest(stored.Forest); err != nil {
		return nil, fmt.Errorf("%s: %w", p.Version, err)
	}

	return &ForestScorer{
		params:     p,
		forest:     stored.Forest,
		importance: stored.Forest.FeatureImportance,
		trained:    true,
		restored:   true,
	}, nil
}

// MarshalModel serializes the trained trees
func (f *ForestScorer) MarshalModel() ([]byte, error) {
	data, err := json.Marshal(storedForest{Version: f.params.Version, Forest: f.forest})
	if err != nil {
		return nil, fmt.Errorf("%s: failed to encode forest: %w", f.params.Version, err)
	}
	return data, nil
}

// checkForest rejects stored forests that Vote cannot walk
func checkForest(forest *randomforest.Forest) error {
	switch {
	case forest == nil:
		return fmt.Errorf("stored forest is empty")
	case forest.NTrees <= 0 || len(forest.Trees) != forest.NTrees:
		return fmt.Errorf("stored forest has %d of %d trees", len(forest.Trees), forest.NTrees)
	case forest.Features != rock.NumFeatures:
		return fmt.Errorf("stored forest expects %d features, want %d", forest.Features, rock.NumFeatures)
	case forest.Classes < 1 || forest.Classes > grade.Count:
		return fmt.Errorf("stored forest has %d classes", forest.Classes)
	}
	for i := range forest.Trees {
		if err := checkBranch(&forest.Trees[i].Root, forest.Features); err != nil {
			return fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return nil
}

func checkBranch(b *randomforest.Branch, features int) error {
	if b.IsLeaf {
		return nil
	}
	if b.Branch0 == nil || b.Branch1 == nil {
		return fmt.Errorf("split at depth %d is missing a branch", b.Depth)
	}
	if b.Attribute < 0 || b.Attribute >= features {
		return fmt.Errorf("split at depth %d uses feature %d", b.Depth, b.Attribute)
	}
	if err := checkBranch(b.Branch0, features); err != nil {
		return err
	}
	return checkBranch(b.Branch1, features)
}

// sanitizeForest zeroes the NaN statistics that empty splits leave behind,
// which JSON cannot carry and which would poison the vote.
func sanitizeForest(forest *randomforest.Forest) {
	for i := range forest.FeatureImportance {
		forest.FeatureImportance[i] = finite(forest.FeatureImportance[i])
	}
	for i := range forest.Trees {
		forest.Trees[i].Validation = finite(forest.Trees[i].Validation)
		sanitizeBranch(&forest.Trees[i].Root)
	}
}

func sanitizeBranch(b *randomforest.Branch) {
	if b == nil {
		return
	}
	b.Gini = finite(b.Gini)
	b.GiniGain = finite(b.GiniGain)
	for i := range b.LeafValue {
		b.LeafValue[i] = finite(b.LeafValue[i])
	}
	sanitizeBranch(b.Branch0)
	sanitizeBranch(b.Branch1)
}

func finite(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return x
}

// referenceSet samples the documented ranges with a private source so the
// training data is identical for a given seed.
func referenceSet(rules *RuleScorer, n int, seed int64) ([][]float64, []int) {
	r := rand.New(rand.NewSource(seed))
	uniform := func(rg rock.Range) float64 {
		return rg.Min + r.Float64()*(rg.Max-rg.Min)
	}

	x := make([][]float64, 0, n)
	y := make([]int, 0, n)
	for i := 0; i < n; i++ {
		v := rock.Derive(rock.Measurements{
			RockType:   rock.RockTypes[r.Intn(len(rock.RockTypes))],
			SigmaTheta: uniform(rock.SigmaThetaRange),
			SigmaC:     uniform(rock.SigmaCRange),
			SigmaT:     uniform(rock.SigmaTRange),
			Wet:        uniform(rock.WetRange),
		})
		x = append(x, v.Slice())
		y = append(y, int(rules.grade(v)))
	}
	return x, y
}

// Predict returns the normalised forest vote for a validated vector
func (f *ForestScorer) Predict(v rock.FeatureVector) (*Result, error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}

	votes := f.forest.Vote(v.Slice())

	// Grades missing from the reference set never receive votes
	var probs Probabilities
	copy(probs[:], votes)
	total := probs.Sum()
	if total <= 0 {
		return nil, fmt.Errorf("%s: forest returned no votes", f.params.Version)
	}
	floats.Scale(1/total, probs[:])

	return newResult(probs, f.params.Version), nil
}

// IsTrained returns whether the forest has been trained
func (f *ForestScorer) IsTrained() bool {
	return f.trained
}

// FeatureImportance returns the per-feature importance reported by training
func (f *ForestScorer) FeatureImportance() []float64 {
	out := make([]float64, len(f.importance))
	copy(out, f.importance)
	return out
}

func (f *ForestScorer) Version() string { return f.params.Version }

func (f *ForestScorer) Kind() Kind { return KindForest }

// GetConfig returns the forest configuration
func (f *ForestScorer) GetConfig() map[string]interface{} {
	return map[string]interface{}{
		"version":            f.params.Version,
		"kind":               KindForest,
		"trees":              f.params.Forest.Trees,
		"samples":            f.params.Forest.Samples,
		"seed":               f.params.Forest.Seed,
		"classes":            grade.Count,
		"trained":            f.trained,
		"restored":           f.restored,
		"feature_importance": f.FeatureImportance(),
	}
}
