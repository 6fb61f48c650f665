package models

import (
	"fmt"

	"github.com/kartoza/rockburst/internal/grade"
	"github.com/kartoza/rockburst/internal/predictor"
	"github.com/kartoza/rockburst/internal/rock"
)

// PredictRequest carries the form values. Pointers distinguish a missing
// field from a zero value.
type PredictRequest struct {
	RockType   *rock.RockType `json:"rock_type"`
	SigmaTheta *float64       `json:"sigma_theta"`
	SigmaC     *float64       `json:"sigma_c"`
	SigmaT     *float64       `json:"sigma_t"`
	Wet        *float64       `json:"wet"`
}

// Measurements converts the request, rejecting missing fields
func (r PredictRequest) Measurements() (rock.Measurements, error) {
	if r.RockType == nil {
		return rock.Measurements{}, rock.NewInvalidInputError("rock_type", nil, "is required")
	}

	fields := []struct {
		name  string
		value *float64
	}{
		{"sigma_theta", r.SigmaTheta},
		{"sigma_c", r.SigmaC},
		{"sigma_t", r.SigmaT},
		{"wet", r.Wet},
	}
	for _, f := range fields {
		if f.value == nil {
			return rock.Measurements{}, rock.NewInvalidInputError(f.name, nil, "is required")
		}
	}

	return rock.Measurements{
		RockType:   *r.RockType,
		SigmaTheta: *r.SigmaTheta,
		SigmaC:     *r.SigmaC,
		SigmaT:     *r.SigmaT,
		Wet:        *r.Wet,
	}, nil
}

// ProbabilityBar is one bar of the probability chart
type ProbabilityBar struct {
	Grade       int     `json:"grade"`
	Label       string  `json:"label"`
	Color       string  `json:"color"`
	Probability float64 `json:"probability"`
}

// PredictResponse contains the prediction and what the page needs to render it
type PredictResponse struct {
	Features      rock.FeatureVector      `json:"features"`
	Grade         int                     `json:"grade"`
	GradeLabel    string                  `json:"grade_label"`
	Color         string                  `json:"color"`
	Probabilities predictor.Probabilities `json:"class_probabilities"`
	Bars          []ProbabilityBar        `json:"bars"`
	Explanation   string                  `json:"explanation"`
	ModelVersion  string                  `json:"model_version"`
}

// NewPredictResponse builds the response for a scored feature vector
func NewPredictResponse(v rock.FeatureVector, res *predictor.Result) PredictResponse {
	bars := make([]ProbabilityBar, 0, grade.Count)
	for _, g := range grade.All {
		bars = append(bars, ProbabilityBar{
			Grade:       int(g),
			Label:       g.Label(),
			Color:       g.Color(),
			Probability: res.Probabilities[g],
		})
	}

	return PredictResponse{
		Features:      v,
		Grade:         int(res.Grade),
		GradeLabel:    res.GradeLabel,
		Color:         res.Grade.Color(),
		Probabilities: res.Probabilities,
		Bars:          bars,
		Explanation:   Explain(res),
		ModelVersion:  res.ModelVersion,
	}
}

// Explain returns the paragraph shown under the result heading
func Explain(res *predictor.Result) string {
	return fmt.Sprintf(
		"Based on the rock parameters provided, the predicted rockburst grade of this sample is %s. "+
			"The prediction weighs in-situ stress, compressive strength and tensile strength together with moisture and rock type (model %s).",
		res.Grade, res.ModelVersion)
}

// RockTypeInfo describes a selectable rock type
type RockTypeInfo struct {
	Code int    `json:"code"`
	Name string `json:"name"`
}

// GradeInfo describes a grade for the guide panel
type GradeInfo struct {
	Grade       int    `json:"grade"`
	Label       string `json:"label"`
	Color       string `json:"color"`
	Description string `json:"description"`
}

// GradeCatalog is the grade guide plus prevention advice
type GradeCatalog struct {
	Grades []GradeInfo `json:"grades"`
	Advice []string    `json:"advice"`
}

// NewGradeCatalog builds the catalogue from the grade table
func NewGradeCatalog() GradeCatalog {
	grades := make([]GradeInfo, 0, grade.Count)
	for _, g := range grade.All {
		grades = append(grades, GradeInfo{
			Grade:       int(g),
			Label:       g.Label(),
			Color:       g.Color(),
			Description: g.Description(),
		})
	}
	return GradeCatalog{Grades: grades, Advice: grade.Advice}
}

// ParametersResponse describes the form controls
type ParametersResponse struct {
	RockTypes []RockTypeInfo    `json:"rock_types"`
	Ranges    []rock.Range      `json:"ranges"`
	Defaults  rock.Measurements `json:"defaults"`
}

// ErrorResponse is returned for failed requests
type ErrorResponse struct {
	Error   string `json:"error"`
	Field   string `json:"field,omitempty"`
	Details string `json:"details,omitempty"`
}
