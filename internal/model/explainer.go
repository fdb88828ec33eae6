package model

import "fmt"

// Explainer computes a per-feature contribution vector for one preprocessed
// input row. The vector is parallel to the pipeline's feature-name list and
// positive contributions push the default probability up.
type Explainer interface {
	Contributions(features []float64) ([]float64, error)
}

// ExplainerSpec is the serialized form of a fitted attribution explainer.
type ExplainerSpec struct {
	Weights  []float64 `json:"weights" yaml:"weights"`
	Baseline []float64 `json:"baseline" yaml:"baseline"`
}

// LinearExplainer attributes w_i * (x_i - baseline_i) to each feature. For a
// linear-in-features model this is the exact decomposition of the score shift
// from the baseline row.
type LinearExplainer struct {
	weights  []float64
	baseline []float64
}

// NewLinearExplainer builds an explainer from a decoded spec. A missing
// baseline defaults to zero, which is the population mean of standardized
// inputs.
func NewLinearExplainer(spec ExplainerSpec) (*LinearExplainer, error) {
	if len(spec.Weights) == 0 {
		return nil, fmt.Errorf("explainer has no weights")
	}
	baseline := spec.Baseline
	if len(baseline) == 0 {
		baseline = make([]float64, len(spec.Weights))
	}
	if len(baseline) != len(spec.Weights) {
		return nil, fmt.Errorf("explainer baseline length %d does not match weights %d", len(baseline), len(spec.Weights))
	}
	return &LinearExplainer{weights: spec.Weights, baseline: baseline}, nil
}

// RebuildExplainer reconstructs an explainer directly from a fitted
// classifier. The serialized artifact is a convenience; the explainer is
// always reproducible from the model itself.
func RebuildExplainer(spec ClassifierSpec) (*LinearExplainer, error) {
	if len(spec.Weights) == 0 {
		return nil, fmt.Errorf("cannot rebuild explainer: classifier %q has no weights", spec.Kind)
	}
	return &LinearExplainer{
		weights:  spec.Weights,
		baseline: make([]float64, len(spec.Weights)),
	}, nil
}

// Spec returns the serializable form, used for best-effort persistence of a
// rebuilt explainer.
func (e *LinearExplainer) Spec() ExplainerSpec {
	return ExplainerSpec{Weights: e.weights, Baseline: e.baseline}
}

func (e *LinearExplainer) Contributions(features []float64) ([]float64, error) {
	if len(features) != len(e.weights) {
		return nil, fmt.Errorf("feature vector length %d does not match explainer width %d", len(features), len(e.weights))
	}
	out := make([]float64, len(features))
	for i, w := range e.weights {
		out[i] = w * (features[i] - e.baseline[i])
	}
	return out, nil
}
