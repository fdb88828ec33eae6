package model

import (
	"fmt"
	"math"
)

// PreprocessSpec is the serialized form of the fitted preprocessing stage:
// the raw input columns it consumes, their imputation values, and the
// standardization statistics, all parallel to Features.
type PreprocessSpec struct {
	Features []string  `json:"features" yaml:"features"`
	Medians  []float64 `json:"medians" yaml:"medians"`
	Means    []float64 `json:"means" yaml:"means"`
	Scales   []float64 `json:"scales" yaml:"scales"`
}

// Preprocessor applies median imputation and standard scaling, producing the
// column order the classifier was trained on.
type Preprocessor struct {
	spec PreprocessSpec
}

// NewPreprocessor validates the fitted statistics are internally consistent.
func NewPreprocessor(spec PreprocessSpec) (*Preprocessor, error) {
	n := len(spec.Features)
	if n == 0 {
		return nil, fmt.Errorf("preprocessor has no input features")
	}
	if len(spec.Medians) != n || len(spec.Means) != n || len(spec.Scales) != n {
		return nil, fmt.Errorf("preprocessor statistics misaligned: %d features, %d medians, %d means, %d scales",
			n, len(spec.Medians), len(spec.Means), len(spec.Scales))
	}
	return &Preprocessor{spec: spec}, nil
}

// Features returns the raw input columns the transform consumes, in order.
func (p *Preprocessor) Features() []string {
	return p.spec.Features
}

// Transform maps a raw feature row to the classifier's input vector. Missing
// or NaN values are imputed with the fitted median before scaling. Columns in
// the row that the transform does not know are ignored; the transform's own
// columns must all be resolvable.
func (p *Preprocessor) Transform(row map[string]float64) ([]float64, error) {
	out := make([]float64, len(p.spec.Features))
	for i, name := range p.spec.Features {
		v, ok := row[name]
		if !ok || math.IsNaN(v) {
			v = p.spec.Medians[i]
		}
		if math.IsInf(v, 0) {
			v = p.spec.Medians[i]
		}

		scale := p.spec.Scales[i]
		if scale == 0 {
			out[i] = v - p.spec.Means[i]
			continue
		}
		out[i] = (v - p.spec.Means[i]) / scale
	}
	return out, nil
}

// PipelineSpec is the serialized artifact bundle: the preprocessing stage,
// the final classifier stage, and the post-transform feature-name list that
// attribution vectors are parallel to.
type PipelineSpec struct {
	Preprocess   PreprocessSpec `json:"preprocess" yaml:"preprocess"`
	Classifier   ClassifierSpec `json:"classifier" yaml:"classifier"`
	FeatureNames []string       `json:"feature_names" yaml:"feature_names"`
}

// Pipeline is the runtime form of a loaded artifact bundle.
type Pipeline struct {
	Preprocessor *Preprocessor
	Classifier   Classifier
	// FeatureNames is the post-preprocessing column order; attribution
	// vectors from the explainer are parallel to it.
	FeatureNames []string
}

// BuildPipeline resolves a decoded artifact spec into its runtime form.
func BuildPipeline(spec PipelineSpec) (*Pipeline, error) {
	pre, err := NewPreprocessor(spec.Preprocess)
	if err != nil {
		return nil, fmt.Errorf("preprocessing stage: %w", err)
	}

	clf, err := Resolve(spec.Classifier)
	if err != nil {
		return nil, fmt.Errorf("classifier stage: %w", err)
	}

	names := spec.FeatureNames
	if len(names) == 0 {
		names = spec.Preprocess.Features
	}
	if len(names) != len(spec.Classifier.Weights) {
		return nil, fmt.Errorf("feature-name list length %d does not match classifier width %d",
			len(names), len(spec.Classifier.Weights))
	}

	return &Pipeline{
		Preprocessor: pre,
		Classifier:   clf,
		FeatureNames: names,
	}, nil
}
