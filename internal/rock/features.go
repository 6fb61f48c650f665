package rock

import (
	"fmt"
	"math"
)

// Range is the documented input range of a form control
type Range struct {
	Field   string  `json:"field"`
	Label   string  `json:"label"`
	Unit    string  `json:"unit,omitempty"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Default float64 `json:"default"`
	Step    float64 `json:"step"`
}

// Contains reports whether v lies within [Min, Max]
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Documented ranges of the continuous inputs
var (
	SigmaThetaRange = Range{Field: "sigma_theta", Label: "In-situ stress σθ", Unit: "MPa", Min: 10.0, Max: 200.0, Default: 50.0, Step: 0.1}
	SigmaCRange     = Range{Field: "sigma_c", Label: "Uniaxial compressive strength σc", Unit: "MPa", Min: 20.0, Max: 300.0, Default: 100.0, Step: 0.1}
	SigmaTRange     = Range{Field: "sigma_t", Label: "Tensile strength σt", Unit: "MPa", Min: 1.0, Max: 50.0, Default: 10.0, Step: 0.1}
	WetRange        = Range{Field: "wet", Label: "Moisture fraction", Min: 0.0, Max: 1.0, Default: 0.5, Step: 0.01}
)

// Ranges returns the continuous input ranges in form order
func Ranges() []Range {
	return []Range{SigmaThetaRange, SigmaCRange, SigmaTRange, WetRange}
}

// Measurements are the raw values gathered from the form
type Measurements struct {
	RockType   RockType `json:"rock_type"`
	SigmaTheta float64  `json:"sigma_theta"`
	SigmaC     float64  `json:"sigma_c"`
	SigmaT     float64  `json:"sigma_t"`
	Wet        float64  `json:"wet"`
}

// DefaultMeasurements returns the form's initial state
func DefaultMeasurements() Measurements {
	return Measurements{
		RockType:   Granite,
		SigmaTheta: SigmaThetaRange.Default,
		SigmaC:     SigmaCRange.Default,
		SigmaT:     SigmaTRange.Default,
		Wet:        WetRange.Default,
	}
}

// FeatureVector is the fixed-order seven-field input of the predictor.
type FeatureVector struct {
	RockType         RockType `json:"rock_type"`
	SigmaTheta       float64  `json:"sigma_theta"`
	SigmaC           float64  `json:"sigma_c"`
	SigmaT           float64  `json:"sigma_t"`
	SigmaThetaCRatio float64  `json:"sigma_theta_c_ratio"`
	SigmaCTRatio     float64  `json:"sigma_c_t_ratio"`
	Wet              float64  `json:"wet"`
}

// NumFeatures is the length of FeatureVector.Slice
const NumFeatures = 7

// Collect checks the measurements against the documented ranges and
// derives the two strength ratios.
func Collect(m Measurements) (FeatureVector, error) {
	if !m.RockType.Valid() {
		return FeatureVector{}, NewInvalidInputError("rock_type", int(m.RockType), "must be one of 1-5")
	}

	checks := []struct {
		r Range
		v float64
	}{
		{SigmaThetaRange, m.SigmaTheta},
		{SigmaCRange, m.SigmaC},
		{SigmaTRange, m.SigmaT},
		{WetRange, m.Wet},
	}
	for _, c := range checks {
		if math.IsNaN(c.v) || math.IsInf(c.v, 0) {
			return FeatureVector{}, NewInvalidInputError(c.r.Field, c.v, "must be a finite number")
		}
		if !c.r.Contains(c.v) {
			return FeatureVector{}, NewInvalidInputError(c.r.Field, c.v, outOfRange(c.r))
		}
	}

	return Derive(m), nil
}

// Derive computes the ratios without range checks.
// Callers must ensure SigmaC and SigmaT are non-zero.
func Derive(m Measurements) FeatureVector {
	return FeatureVector{
		RockType:         m.RockType,
		SigmaTheta:       m.SigmaTheta,
		SigmaC:           m.SigmaC,
		SigmaT:           m.SigmaT,
		SigmaThetaCRatio: m.SigmaTheta / m.SigmaC,
		SigmaCTRatio:     m.SigmaC / m.SigmaT,
		Wet:              m.Wet,
	}
}

// Validate checks the predictor preconditions: a known rock type,
// finite positive stresses and ratios, and a moisture fraction in [0,1].
func (v FeatureVector) Validate() error {
	if !v.RockType.Valid() {
		return NewInvalidInputError("rock_type", int(v.RockType), "must be one of 1-5")
	}

	positive := []struct {
		field string
		value float64
	}{
		{"sigma_theta", v.SigmaTheta},
		{"sigma_c", v.SigmaC},
		{"sigma_t", v.SigmaT},
		{"sigma_theta_c_ratio", v.SigmaThetaCRatio},
		{"sigma_c_t_ratio", v.SigmaCTRatio},
	}
	for _, p := range positive {
		if math.IsNaN(p.value) || math.IsInf(p.value, 0) {
			return NewInvalidInputError(p.field, p.value, "must be a finite number")
		}
		if p.value <= 0 {
			return NewInvalidInputError(p.field, p.value, "must be positive")
		}
	}

	if math.IsNaN(v.Wet) || v.Wet < 0 || v.Wet > 1 {
		return NewInvalidInputError("wet", v.Wet, "must be within [0, 1]")
	}
	return nil
}

// Slice returns the features in predictor column order
func (v FeatureVector) Slice() []float64 {
	return []float64{
		float64(v.RockType.Code()),
		v.SigmaTheta,
		v.SigmaC,
		v.SigmaT,
		v.SigmaThetaCRatio,
		v.SigmaCTRatio,
		v.Wet,
	}
}

func outOfRange(r Range) string {
	return fmt.Sprintf("must be within [%g, %g]", r.Min, r.Max)
}
