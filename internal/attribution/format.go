// Package attribution turns raw per-feature contribution vectors into the
// ranked, sign-annotated table the dashboard renders as a diverging bar chart.
package attribution

import (
	"fmt"
	"math"
	"sort"
)

// TopK is the number of contributions kept after ranking. The dashboard
// further truncates to 10 rows for display, but the chart data always carries
// up to 15 so analysts can expand it.
const TopK = 15

// Direction says which way a feature pushed the predicted default
// probability. The sign convention is fixed: positive contributions increase
// predicted risk.
type Direction string

const (
	IncreasesRisk Direction = "increases_risk"
	DecreasesRisk Direction = "decreases_risk"
)

// Contribution is one row of the ranked attribution table.
type Contribution struct {
	Feature  string    `json:"feature"`
	Value    float64   `json:"value"`
	Absolute float64   `json:"absolute"`
	Left     float64   `json:"left"`
	Right    float64   `json:"right"`
	Color    Direction `json:"color"`
}

// Table is a ranked attribution table plus the top feature names in reverse
// rank order. The reverse ordering matches the chart convention: categories
// are laid out bottom-to-top, so the least important of the retained features
// comes first.
type Table struct {
	Rows        []Contribution `json:"rows"`
	TopFeatures []string       `json:"top_features"`
}

// ShapeMismatchError reports a contribution vector whose length disagrees
// with the feature-name list. This means the artifact bundle is internally
// inconsistent and the analysis must halt rather than render a chart built
// from misaligned arrays.
type ShapeMismatchError struct {
	Values   int
	Features int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("attribution shape mismatch: %d contribution values vs %d feature names", e.Values, e.Features)
}

// Format ranks a single contribution vector against its parallel feature-name
// list. Ranking is by absolute value descending with ties keeping original
// order; the result is truncated to TopK and feature names are mapped through
// the friendly-name table.
func Format(values []float64, featureNames []string) (Table, error) {
	if len(values) != len(featureNames) {
		return Table{}, &ShapeMismatchError{Values: len(values), Features: len(featureNames)}
	}

	abs := make([]float64, len(values))
	for i, v := range values {
		abs[i] = math.Abs(v)
	}
	return rank(values, abs, featureNames)
}

// FormatSamples handles explainer backends that return one contribution row
// per sample. Per feature it ranks by the mean of absolute values across
// samples and displays the mean signed value; with a single sample this
// reduces to Format.
func FormatSamples(samples [][]float64, featureNames []string) (Table, error) {
	if len(samples) == 0 {
		return Table{}, &ShapeMismatchError{Values: 0, Features: len(featureNames)}
	}
	for _, row := range samples {
		if len(row) != len(featureNames) {
			return Table{}, &ShapeMismatchError{Values: len(row), Features: len(featureNames)}
		}
	}

	n := len(featureNames)
	signed := make([]float64, n)
	abs := make([]float64, n)
	for _, row := range samples {
		for i, v := range row {
			signed[i] += v
			abs[i] += math.Abs(v)
		}
	}
	for i := range signed {
		signed[i] /= float64(len(samples))
		abs[i] /= float64(len(samples))
	}

	return rank(signed, abs, featureNames)
}

func rank(signed, abs []float64, featureNames []string) (Table, error) {
	idx := make([]int, len(featureNames))
	for i := range idx {
		idx[i] = i
	}

	// Stable keeps the original (post-preprocessing column) order on ties so
	// repeated calls give bit-identical output. NaN magnitudes sort last.
	sort.SliceStable(idx, func(a, b int) bool {
		av, bv := abs[idx[a]], abs[idx[b]]
		if math.IsNaN(bv) {
			return !math.IsNaN(av)
		}
		if math.IsNaN(av) {
			return false
		}
		return av > bv
	})

	k := TopK
	if len(idx) < k {
		k = len(idx)
	}

	rows := make([]Contribution, 0, k)
	for _, i := range idx[:k] {
		v := signed[i]
		c := Contribution{
			Feature:  FriendlyName(featureNames[i]),
			Value:    v,
			Absolute: abs[i],
			Left:     math.Min(v, 0),
			Right:    math.Max(v, 0),
			Color:    DecreasesRisk,
		}
		if v > 0 {
			c.Color = IncreasesRisk
		}
		rows = append(rows, c)
	}

	top := make([]string, len(rows))
	for i, row := range rows {
		top[len(rows)-1-i] = row.Feature
	}

	return Table{Rows: rows, TopFeatures: top}, nil
}
