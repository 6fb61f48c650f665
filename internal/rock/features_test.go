package rock

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectDerivesRatios(t *testing.T) {
	v, err := Collect(Measurements{
		RockType:   Granite,
		SigmaTheta: 50.0,
		SigmaC:     100.0,
		SigmaT:     10.0,
		Wet:        0.5,
	})
	require.NoError(t, err)

	assert.Equal(t, 0.5, v.SigmaThetaCRatio)
	assert.Equal(t, 10.0, v.SigmaCTRatio)
	assert.NoError(t, v.Validate())
}

func TestCollectBoundaries(t *testing.T) {
	low := Measurements{
		RockType:   Granite,
		SigmaTheta: SigmaThetaRange.Min,
		SigmaC:     SigmaCRange.Min,
		SigmaT:     SigmaTRange.Min,
		Wet:        WetRange.Min,
	}
	high := Measurements{
		RockType:   Shale,
		SigmaTheta: SigmaThetaRange.Max,
		SigmaC:     SigmaCRange.Max,
		SigmaT:     SigmaTRange.Max,
		Wet:        WetRange.Max,
	}

	for _, m := range []Measurements{low, high} {
		v, err := Collect(m)
		require.NoError(t, err)
		assert.NoError(t, v.Validate())
	}
}

func TestCollectRejectsOutOfRange(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*Measurements)
		field string
	}{
		{"rock type", func(m *Measurements) { m.RockType = 99 }, "rock_type"},
		{"stress low", func(m *Measurements) { m.SigmaTheta = 9.9 }, "sigma_theta"},
		{"compressive high", func(m *Measurements) { m.SigmaC = 300.1 }, "sigma_c"},
		{"tensile zero", func(m *Measurements) { m.SigmaT = 0 }, "sigma_t"},
		{"wet", func(m *Measurements) { m.Wet = 1.5 }, "wet"},
		{"nan", func(m *Measurements) { m.SigmaC = math.NaN() }, "sigma_c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := DefaultMeasurements()
			tt.edit(&m)

			_, err := Collect(m)
			require.Error(t, err)
			invalid, ok := IsInvalidInput(err)
			require.True(t, ok)
			assert.Equal(t, tt.field, invalid.Field)
		})
	}
}

func TestValidate(t *testing.T) {
	good := Derive(DefaultMeasurements())
	require.NoError(t, good.Validate())

	bad := good
	bad.RockType = 99
	_, ok := IsInvalidInput(bad.Validate())
	assert.True(t, ok)

	bad = good
	bad.SigmaCTRatio = math.Inf(1)
	_, ok = IsInvalidInput(bad.Validate())
	assert.True(t, ok)

	bad = good
	bad.Wet = -0.1
	_, ok = IsInvalidInput(bad.Validate())
	assert.True(t, ok)

	bad = good
	bad.SigmaTheta = -5
	_, ok = IsInvalidInput(bad.Validate())
	assert.True(t, ok)
}

func TestSliceOrder(t *testing.T) {
	v := Derive(Measurements{RockType: Limestone, SigmaTheta: 50, SigmaC: 100, SigmaT: 10, Wet: 0.25})
	assert.Equal(t, []float64{3, 50, 100, 10, 0.5, 10, 0.25}, v.Slice())
	assert.Len(t, v.Slice(), NumFeatures)
}

func TestErrorMessage(t *testing.T) {
	err := NewInvalidInputError("wet", 1.5, "must be within [0, 1]")
	assert.Equal(t, "invalid input: wet=1.5 must be within [0, 1]", err.Error())

	err = NewInvalidInputError("sigma_c", nil, "is required")
	assert.Equal(t, "invalid input: sigma_c is required", err.Error())
}
