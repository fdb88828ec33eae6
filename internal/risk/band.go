// Package risk maps a default probability onto one of three decision bands.
// The band thresholds are decision-grade business constants shared with the
// credit officers' operating procedure; changing them changes real credit
// decisions, so they live here and nowhere else.
package risk

import "fmt"

// Band is a discrete risk category derived from a default probability.
type Band string

const (
	Low      Band = "low"
	Moderate Band = "moderate"
	High     Band = "high"
)

// Action is the recommended handling of a credit application.
type Action string

const (
	Accept Action = "accept"
	Review Action = "review"
	Reject Action = "reject"
)

// Band boundaries in percent. 30 and 50 both belong to the moderate band.
const (
	lowUpperPct      = 30.0
	moderateUpperPct = 50.0
)

// Assessment is the full policy outcome for one probability.
type Assessment struct {
	Probability    float64 `json:"probability"`
	ScorePct       float64 `json:"score_pct"`
	Band           Band    `json:"band"`
	Action         Action  `json:"action"`
	Recommendation string  `json:"recommendation"`
}

// Classify maps a probability in [0,1] onto a risk band and recommended
// action. Probabilities outside [0,1] are rejected rather than clamped: a
// caller holding an out-of-range score has a broken prediction source.
func Classify(probability float64) (Assessment, error) {
	if probability != probability || probability < 0 || probability > 1 {
		return Assessment{}, fmt.Errorf("probability out of range [0,1]: %v", probability)
	}

	pct := probability * 100

	a := Assessment{
		Probability: probability,
		ScorePct:    pct,
	}

	switch {
	case pct < lowUpperPct:
		a.Band = Low
		a.Action = Accept
		a.Recommendation = "Low default risk. We recommend accepting this client's credit application."
	case pct <= moderateUpperPct:
		a.Band = Moderate
		a.Action = Review
		a.Recommendation = "Moderate default risk. We recommend reviewing additional factors before deciding."
	default:
		a.Band = High
		a.Action = Reject
		a.Recommendation = "High default risk. We recommend rejecting this client's credit application."
	}

	return a, nil
}
