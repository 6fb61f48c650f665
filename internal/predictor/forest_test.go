package predictor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kartoza/rockburst/internal/rock"
)

// smallForest keeps training fast in tests
func smallForest() Params {
	p := DefaultParams()[1]
	p.Forest = &ForestParams{Trees: 15, Samples: 300, Seed: 7}
	return p
}

func TestReferenceSetDeterministic(t *testing.T) {
	rules, err := NewRuleScorer(smallForest())
	require.NoError(t, err)

	x1, y1 := referenceSet(rules, 50, 42)
	x2, y2 := referenceSet(rules, 50, 42)
	assert.Equal(t, x1, x2)
	assert.Equal(t, y1, y2)

	for i, row := range x1 {
		require.Len(t, row, rock.NumFeatures)
		assert.GreaterOrEqual(t, y1[i], 0)
		assert.Less(t, y1[i], 4)
	}
}

func TestForestTrainedOnce(t *testing.T) {
	p, err := New(smallForest())
	require.NoError(t, err)

	f, ok := p.(*ForestScorer)
	require.True(t, ok)
	assert.True(t, f.IsTrained())
	assert.Equal(t, KindForest, f.Kind())

	cfg := f.GetConfig()
	assert.Equal(t, 15, cfg["trees"])
	assert.Equal(t, true, cfg["trained"])
}

func TestForestPredict(t *testing.T) {
	p, err := New(smallForest())
	require.NoError(t, err)

	for _, rt := range rock.RockTypes {
		v := granite()
		v.RockType = rt

		res, err := p.Predict(v)
		require.NoError(t, err)
		assertWellFormed(t, res)

		again, err := p.Predict(v)
		require.NoError(t, err)
		assert.Equal(t, res, again)
	}
}

func TestForestRejectsInvalid(t *testing.T) {
	p, err := New(smallForest())
	require.NoError(t, err)

	v := granite()
	v.RockType = 99
	_, err = p.Predict(v)
	_, ok := rock.IsInvalidInput(err)
	assert.True(t, ok)
}

func TestForestScorerRequiresForestKind(t *testing.T) {
	_, err := NewForestScorer(DefaultParams()[0])
	assert.Error(t, err)
}

func TestForestModelRoundTrip(t *testing.T) {
	trained, err := NewForestScorer(smallForest())
	require.NoError(t, err)

	data, err := trained.MarshalModel()
	require.NoError(t, err)

	loaded, err := LoadForestScorer(smallForest(), data)
	require.NoError(t, err)
	assert.Equal(t, true, loaded.GetConfig()["restored"])

	for _, m := range rock.Ranges() {
		for _, x := range []float64{m.Min, m.Default, m.Max} {
			ms := rock.DefaultMeasurements()
			switch m.Field {
			case "sigma_theta":
				ms.SigmaTheta = x
			case "sigma_c":
				ms.SigmaC = x
			case "sigma_t":
				ms.SigmaT = x
			case "wet":
				ms.Wet = x
			}
			v := rock.Derive(ms)

			want, err := trained.Predict(v)
			require.NoError(t, err)
			got, err := loaded.Predict(v)
			require.NoError(t, err)
			assert.Equal(t, want, got, "%s=%g", m.Field, x)
		}
	}
}

func TestLoadForestScorerRejectsBadModels(t *testing.T) {
	trained, err := NewForestScorer(smallForest())
	require.NoError(t, err)
	data, err := trained.MarshalModel()
	require.NoError(t, err)

	other := smallForest()
	other.Version = "forest-v9"

	tests := []struct {
		name   string
		params Params
		data   []byte
	}{
		{"not json", smallForest(), []byte("{")},
		{"no forest", smallForest(), []byte(`{"version":"forest-v1"}`)},
		{"no trees", smallForest(), []byte(`{"version":"forest-v1","forest":{"NTrees":0,"Features":7,"Classes":4}}`)},
		{"wrong features", smallForest(), []byte(`{"version":"forest-v1","forest":{"NTrees":1,"Features":3,"Classes":4,"Trees":[{"Root":{"IsLeaf":true}}]}}`)},
		{"broken split", smallForest(), []byte(`{"version":"forest-v1","forest":{"NTrees":1,"Features":7,"Classes":4,"Trees":[{"Root":{"IsLeaf":false}}]}}`)},
		{"other version", other, data},
		{"rules params", DefaultParams()[0], data},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadForestScorer(tt.params, tt.data)
			assert.Error(t, err)
		})
	}
}
