// Package model holds the local scoring pipeline: the preprocessing
// transform, the classifier capability interfaces, and the linear attribution
// explainer. All types here are pure and safe for shared read-only use once
// built.
package model

import (
	"fmt"
	"math"
)

// ProbabilisticClassifier exposes per-class probability mass for a single
// preprocessed feature vector. Index 1 is the positive (default) class.
type ProbabilisticClassifier interface {
	PredictProba(features []float64) ([]float64, error)
}

// ScalarClassifier exposes a single probability-like score.
type ScalarClassifier interface {
	Predict(features []float64) (float64, error)
}

// Classifier is the capability variant resolved once at load time. Exactly
// one of the two fields is non-nil; callers never probe capabilities per
// prediction.
type Classifier struct {
	Probabilistic ProbabilisticClassifier
	Scalar        ScalarClassifier
}

// DefaultProbability returns the probability mass assigned to the default
// class, preferring the probabilistic interface when present.
func (c Classifier) DefaultProbability(features []float64) (float64, error) {
	switch {
	case c.Probabilistic != nil:
		probs, err := c.Probabilistic.PredictProba(features)
		if err != nil {
			return 0, err
		}
		if len(probs) < 2 {
			return 0, fmt.Errorf("classifier returned %d class probabilities, want 2", len(probs))
		}
		return probs[1], nil
	case c.Scalar != nil:
		return c.Scalar.Predict(features)
	default:
		return 0, fmt.Errorf("classifier has no prediction capability")
	}
}

// ClassifierSpec is the serialized form of a fitted classifier inside an
// artifact bundle.
type ClassifierSpec struct {
	Kind    string    `json:"kind" yaml:"kind"`
	Weights []float64 `json:"weights" yaml:"weights"`
	Bias    float64   `json:"bias" yaml:"bias"`
}

// Resolve builds the runtime classifier for a spec. Unknown kinds are a
// configuration error.
func Resolve(spec ClassifierSpec) (Classifier, error) {
	if len(spec.Weights) == 0 {
		return Classifier{}, fmt.Errorf("classifier %q has no weights", spec.Kind)
	}

	switch spec.Kind {
	case "logistic":
		return Classifier{Probabilistic: &logisticModel{weights: spec.Weights, bias: spec.Bias}}, nil
	case "linear":
		return Classifier{Scalar: &linearModel{weights: spec.Weights, bias: spec.Bias}}, nil
	default:
		return Classifier{}, fmt.Errorf("unknown classifier kind %q", spec.Kind)
	}
}

type logisticModel struct {
	weights []float64
	bias    float64
}

func (m *logisticModel) PredictProba(features []float64) ([]float64, error) {
	score, err := dot(m.weights, features, m.bias)
	if err != nil {
		return nil, err
	}
	p := sigmoid(score)
	return []float64{1 - p, p}, nil
}

type linearModel struct {
	weights []float64
	bias    float64
}

func (m *linearModel) Predict(features []float64) (float64, error) {
	return dot(m.weights, features, m.bias)
}

func dot(weights, features []float64, bias float64) (float64, error) {
	if len(weights) != len(features) {
		return 0, fmt.Errorf("feature vector length %d does not match model weights %d", len(features), len(weights))
	}
	sum := bias
	for i, w := range weights {
		sum += w * features[i]
	}
	if math.IsNaN(sum) || math.IsInf(sum, 0) {
		return 0, fmt.Errorf("classifier produced a non-finite score")
	}
	return sum, nil
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}
