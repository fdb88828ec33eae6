package dataset

import (
	"fmt"
	"math"
)

// Profile is the human-facing summary of one client shown alongside the
// score: derived ages and durations plus the headline credit figures.
type Profile struct {
	ClientID        int64   `json:"client_id"`
	Gender          string  `json:"gender"`
	AgeYears        int     `json:"age_years"`
	YearsEmployed   string  `json:"years_employed"`
	FamilyMembers   int     `json:"family_members"`
	Children        int     `json:"children"`
	FamilyStatus    string  `json:"family_status"`
	Education       string  `json:"education"`
	IncomeType      string  `json:"income_type"`
	OccupationType  string  `json:"occupation_type"`
	CreditAmount    float64 `json:"credit_amount"`
	Annuity         float64 `json:"annuity"`
	IncomePerPerson float64 `json:"income_per_person"`
	PaymentRate     float64 `json:"payment_rate"`
}

// BuildProfile derives the profile fields from a raw row. Ages are stored in
// the dataset as negative day counts relative to the application date.
func BuildProfile(r Row) Profile {
	p := Profile{
		ClientID:        r.ID,
		FamilyStatus:    r.Raw["NAME_FAMILY_STATUS"],
		Education:       r.Raw["NAME_EDUCATION_TYPE"],
		IncomeType:      r.Raw["NAME_INCOME_TYPE"],
		OccupationType:  r.Raw["OCCUPATION_TYPE"],
		CreditAmount:    zeroIfNaN(r.Values["AMT_CREDIT"]),
		Annuity:         zeroIfNaN(r.Values["AMT_ANNUITY"]),
		IncomePerPerson: zeroIfNaN(r.Values["INCOME_PER_PERSON"]),
		PaymentRate:     zeroIfNaN(r.Values["PAYMENT_RATE"]),
	}

	if g := r.Values["CODE_GENDER"]; !math.IsNaN(g) && g == 1 {
		p.Gender = "male"
	} else {
		p.Gender = "female"
	}

	if days := r.Values["DAYS_BIRTH"]; !math.IsNaN(days) {
		p.AgeYears = int(math.Round(-days / 365))
	}
	p.YearsEmployed = employmentLabel(r.Values["DAYS_EMPLOYED"])

	if v := r.Values["CNT_FAM_MEMBERS"]; !math.IsNaN(v) {
		p.FamilyMembers = int(math.Round(v))
	}
	if v := r.Values["CNT_CHILDREN"]; !math.IsNaN(v) {
		p.Children = int(math.Round(v))
	}

	return p
}

func employmentLabel(daysEmployed float64) string {
	if math.IsNaN(daysEmployed) {
		return "no information"
	}
	years := int(math.Round(-daysEmployed / 365))
	switch {
	case years < 1:
		return "less than a year"
	case years == 1:
		return "1 year"
	default:
		return fmt.Sprintf("%d years", years)
	}
}

func zeroIfNaN(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}
