package attribution

// friendlyNames maps technical feature identifiers from the credit dataset to
// labels a credit officer can read. Identifiers absent from the table pass
// through unchanged; an unknown feature name is never an error.
var friendlyNames = map[string]string{
	// Personal information
	"CNT_CHILDREN":           "Number of Children",
	"CNT_FAM_MEMBERS":        "Family Members",
	"DAYS_BIRTH":             "Age (days)",
	"DAYS_EMPLOYED":          "Employment Duration (days)",
	"DAYS_REGISTRATION":      "Registration Duration (days)",
	"DAYS_ID_PUBLISH":        "ID Publication Date (days)",
	"DAYS_LAST_PHONE_CHANGE": "Phone Change Date (days)",
	"OWN_CAR_AGE":            "Car Age (years)",

	// Financial information
	"AMT_INCOME_TOTAL":           "Total Income",
	"AMT_CREDIT":                 "Credit Amount",
	"AMT_ANNUITY":                "Loan Annuity",
	"AMT_GOODS_PRICE":            "Goods Price",
	"REGION_POPULATION_RELATIVE": "Regional Population (relative)",

	// External scores
	"EXT_SOURCE_1": "External Score 1",
	"EXT_SOURCE_2": "External Score 2",
	"EXT_SOURCE_3": "External Score 3",

	// Building information
	"APARTMENTS_AVG":              "Apartments (avg)",
	"BASEMENTAREA_AVG":            "Basement Area (avg)",
	"YEARS_BEGINEXPLUATATION_AVG": "Building Age (avg)",
	"YEARS_BUILD_AVG":             "Construction Year (avg)",
	"COMMONAREA_AVG":              "Common Area (avg)",
	"ELEVATORS_AVG":               "Elevators (avg)",
	"ENTRANCES_AVG":               "Entrances (avg)",
	"FLOORSMAX_AVG":               "Max Floors (avg)",
	"FLOORSMIN_AVG":               "Min Floors (avg)",
	"LANDAREA_AVG":                "Land Area (avg)",
	"LIVINGAPARTMENTS_AVG":        "Living Apartments (avg)",
	"LIVINGAREA_AVG":              "Living Area (avg)",
	"NONLIVINGAPARTMENTS_AVG":     "Non-living Apartments (avg)",
	"NONLIVINGAREA_AVG":           "Non-living Area (avg)",
	"TOTALAREA_MODE":              "Total Area (mode)",

	"APARTMENTS_MODE":              "Apartments (mode)",
	"BASEMENTAREA_MODE":            "Basement Area (mode)",
	"YEARS_BEGINEXPLUATATION_MODE": "Building Age (mode)",
	"YEARS_BUILD_MODE":             "Construction Year (mode)",
	"COMMONAREA_MODE":              "Common Area (mode)",
	"ELEVATORS_MODE":               "Elevators (mode)",
	"ENTRANCES_MODE":               "Entrances (mode)",
	"FLOORSMAX_MODE":               "Max Floors (mode)",
	"FLOORSMIN_MODE":               "Min Floors (mode)",
	"LANDAREA_MODE":                "Land Area (mode)",
	"LIVINGAPARTMENTS_MODE":        "Living Apartments (mode)",
	"LIVINGAREA_MODE":              "Living Area (mode)",
	"NONLIVINGAPARTMENTS_MODE":     "Non-living Apartments (mode)",
	"NONLIVINGAREA_MODE":           "Non-living Area (mode)",

	"APARTMENTS_MEDI":              "Apartments (median)",
	"BASEMENTAREA_MEDI":            "Basement Area (median)",
	"YEARS_BEGINEXPLUATATION_MEDI": "Building Age (median)",
	"YEARS_BUILD_MEDI":             "Construction Year (median)",
	"COMMONAREA_MEDI":              "Common Area (median)",
	"ELEVATORS_MEDI":               "Elevators (median)",
	"ENTRANCES_MEDI":               "Entrances (median)",
	"FLOORSMAX_MEDI":               "Max Floors (median)",
	"FLOORSMIN_MEDI":               "Min Floors (median)",
	"LANDAREA_MEDI":                "Land Area (median)",
	"LIVINGAPARTMENTS_MEDI":        "Living Apartments (median)",
	"LIVINGAREA_MEDI":              "Living Area (median)",
	"NONLIVINGAPARTMENTS_MEDI":     "Non-living Apartments (median)",
	"NONLIVINGAREA_MEDI":           "Non-living Area (median)",

	// Social circle
	"OBS_30_CNT_SOCIAL_CIRCLE": "Social Circle Observations (30 days)",
	"DEF_30_CNT_SOCIAL_CIRCLE": "Social Circle Defaults (30 days)",
	"OBS_60_CNT_SOCIAL_CIRCLE": "Social Circle Observations (60 days)",
	"DEF_60_CNT_SOCIAL_CIRCLE": "Social Circle Defaults (60 days)",

	// Credit bureau
	"AMT_REQ_CREDIT_BUREAU_HOUR": "Credit Bureau Requests (last hour)",
	"AMT_REQ_CREDIT_BUREAU_DAY":  "Credit Bureau Requests (last day)",
	"AMT_REQ_CREDIT_BUREAU_WEEK": "Credit Bureau Requests (last week)",
	"AMT_REQ_CREDIT_BUREAU_MON":  "Credit Bureau Requests (last month)",
	"AMT_REQ_CREDIT_BUREAU_QRT":  "Credit Bureau Requests (last quarter)",
	"AMT_REQ_CREDIT_BUREAU_YEAR": "Credit Bureau Requests (last year)",

	// Regional ratings
	"REGION_RATING_CLIENT":        "Regional Client Rating",
	"REGION_RATING_CLIENT_W_CITY": "Regional City Rating",

	// Region/city mismatch flags
	"REG_REGION_NOT_LIVE_REGION":  "Registration Region != Living Region",
	"REG_REGION_NOT_WORK_REGION":  "Registration Region != Work Region",
	"LIVE_REGION_NOT_WORK_REGION": "Living Region != Work Region",
	"REG_CITY_NOT_LIVE_CITY":      "Registration City != Living City",
	"REG_CITY_NOT_WORK_CITY":      "Registration City != Work City",
	"LIVE_CITY_NOT_WORK_CITY":     "Living City != Work City",

	// Contact flags
	"FLAG_MOBIL":       "Mobile Phone Provided",
	"FLAG_EMP_PHONE":   "Work Phone Provided",
	"FLAG_WORK_PHONE":  "Work Phone Available",
	"FLAG_CONT_MOBILE": "Mobile Contact Available",
	"FLAG_PHONE":       "Home Phone Provided",
	"FLAG_EMAIL":       "Email Provided",

	// Application details
	"HOUR_APPR_PROCESS_START":    "Application Hour",
	"WEEKDAY_APPR_PROCESS_START": "Application Weekday",
}

// FriendlyName returns the human-readable label for a technical feature
// identifier, or the identifier itself when no mapping exists.
func FriendlyName(feature string) string {
	if name, ok := friendlyNames[feature]; ok {
		return name
	}
	return feature
}
