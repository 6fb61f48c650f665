package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kartoza/rockburst/internal/grade"
	"github.com/kartoza/rockburst/internal/predictor"
	"github.com/kartoza/rockburst/internal/rock"
)

func TestMeasurementsMissingField(t *testing.T) {
	var req PredictRequest
	require.NoError(t, json.Unmarshal([]byte(`{"rock_type":"granite","sigma_theta":50,"sigma_c":100,"wet":0.5}`), &req))

	_, err := req.Measurements()
	invalid, ok := rock.IsInvalidInput(err)
	require.True(t, ok)
	assert.Equal(t, "sigma_t", invalid.Field)
}

func TestMeasurementsMissingRockType(t *testing.T) {
	var req PredictRequest
	require.NoError(t, json.Unmarshal([]byte(`{"sigma_theta":50,"sigma_c":100,"sigma_t":10,"wet":0.5}`), &req))

	_, err := req.Measurements()
	invalid, ok := rock.IsInvalidInput(err)
	require.True(t, ok)
	assert.Equal(t, "rock_type", invalid.Field)
}

func TestMeasurementsComplete(t *testing.T) {
	var req PredictRequest
	require.NoError(t, json.Unmarshal([]byte(`{"rock_type":1,"sigma_theta":50,"sigma_c":100,"sigma_t":10,"wet":0}`), &req))

	m, err := req.Measurements()
	require.NoError(t, err)
	assert.Equal(t, rock.Granite, m.RockType)
	assert.Equal(t, 0.0, m.Wet)
}

func TestNewPredictResponse(t *testing.T) {
	v := rock.Derive(rock.DefaultMeasurements())
	res := &predictor.Result{
		Grade:         grade.Weak,
		GradeLabel:    grade.Weak.Label(),
		Probabilities: predictor.Probabilities{0.1, 0.6, 0.2, 0.1},
		ModelVersion:  "rules-v1",
	}

	resp := NewPredictResponse(v, res)
	assert.Equal(t, 1, resp.Grade)
	assert.Equal(t, "#FFC107", resp.Color)
	require.Len(t, resp.Bars, grade.Count)
	for i, bar := range resp.Bars {
		assert.Equal(t, i, bar.Grade)
		assert.Equal(t, res.Probabilities[i], bar.Probability)
	}
	assert.Contains(t, resp.Explanation, "Weak rockburst tendency (grade 1)")
	assert.Contains(t, resp.Explanation, "rules-v1")
}

func TestGradeCatalog(t *testing.T) {
	c := NewGradeCatalog()
	assert.Len(t, c.Grades, grade.Count)
	assert.NotEmpty(t, c.Advice)
}
