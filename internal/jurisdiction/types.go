package jurisdiction

import (
	"fmt"
	"strings"
)

// LOB is an insurance line of business with its own rollout timeline.
type LOB string

const (
	LOBAuto     LOB = "auto"
	LOBHome     LOB = "home"
	LOBUmbrella LOB = "umbrella"
)

// AllLOBs lists the lines of business in display order.
var AllLOBs = []LOB{LOBAuto, LOBHome, LOBUmbrella}

// ParseLOB accepts a line of business case-insensitively.
func ParseLOB(s string) (LOB, error) {
	switch LOB(strings.ToLower(strings.TrimSpace(s))) {
	case LOBAuto:
		return LOBAuto, nil
	case LOBHome, "home/dwelling", "dwelling":
		return LOBHome, nil
	case LOBUmbrella:
		return LOBUmbrella, nil
	}
	return "", fmt.Errorf("unknown line of business %q (want auto, home or umbrella)", s)
}

// Label returns the capitalised display name.
func (l LOB) Label() string {
	switch l {
	case LOBAuto:
		return "Auto"
	case LOBHome:
		return "Home"
	case LOBUmbrella:
		return "Umbrella"
	}
	return string(l)
}

// Defaults applied when a column is missing.
const (
	NotAvailable      = "N/A"
	DefaultComplexity = "Medium"
)

// Spreadsheet column names.
const (
	ColState             = "State"
	ColTotalForms        = "Total Forms"
	ColAutoForms         = "Auto Forms"
	ColHomeForms         = "Home/Dwelling"
	ColUmbrella          = "Umbrella"
	ColRatingRequirement = "Rating Req."
	ColComplexity        = "Complexity"
	ColTestingComplexity = "Testing Complexity"
	ColOverallFilingType = "Overall Filing Type"
	ColAutoFiling        = "Auto Filing"
	ColHomeFiling        = "Home Filing"
	ColRateRegulation    = "Rate Regulation"
	ColPIPRequired       = "PIP Required"
	ColUMUIM             = "UM/UIM"
	ColNoFault           = "No-Fault"
	ColKeyRequirements   = "Key State Requirements"
	ColStateRanking      = "State Ranking"
)

// Columns lists every column the normalizer reads, in export order.
var Columns = []string{
	ColState, ColTotalForms, ColAutoForms, ColHomeForms, ColUmbrella, ColRatingRequirement,
	ColComplexity, ColTestingComplexity, ColOverallFilingType, ColAutoFiling, ColHomeFiling,
	ColRateRegulation, ColPIPRequired, ColUMUIM, ColNoFault, ColKeyRequirements, ColStateRanking,
}

// StateRecord is the normalized view of one jurisdiction.
type StateRecord struct {
	Code string `json:"code"`
	Name string `json:"name"`

	TotalForms    int `json:"totalForms"`
	AutoForms     int `json:"autoForms"`
	HomeForms     int `json:"homeForms"`
	UmbrellaForms int `json:"umbrellaForms"`

	RatingRequirement string `json:"ratingRequirement"`
	Complexity        string `json:"complexity"`
	TestingComplexity string `json:"testingComplexity"`
	OverallFilingType string `json:"overallFilingType"`
	AutoFiling        string `json:"autoFiling"`
	HomeFiling        string `json:"homeFiling"`
	RateRegulation    string `json:"rateRegulation"`
	PIPRequired       string `json:"pipRequired"`
	UMUIM             string `json:"umUim"`
	NoFault           string `json:"noFault"`
	KeyRequirements   string `json:"keyRequirements"`
	Ranking           int    `json:"ranking"`

	Pass       int     `json:"pass"`
	Fail       int     `json:"fail"`
	NoRun      int     `json:"noRun"`
	Completion float64 `json:"completion"`

	Density DensityBand `json:"density"`
}

// TotalExecuted returns pass + fail + noRun.
func (r StateRecord) TotalExecuted() int {
	return r.Pass + r.Fail + r.NoRun
}

// FormsFor returns the form count relevant to a line of business.
func (r StateRecord) FormsFor(lob LOB) int {
	switch lob {
	case LOBAuto:
		return r.AutoForms
	case LOBHome:
		return r.HomeForms
	case LOBUmbrella:
		return r.UmbrellaForms
	}
	return 0
}

// DensityBand classifies a jurisdiction by total form count for the choropleth.
type DensityBand string

const (
	DensityVeryHigh DensityBand = "very-high"
	DensityHigh     DensityBand = "high"
	DensityModerate DensityBand = "moderate"
	DensityLow      DensityBand = "low"
	DensityMinimal  DensityBand = "minimal"
)

// DensityBands lists the bands from densest to sparsest.
var DensityBands = []DensityBand{DensityVeryHigh, DensityHigh, DensityModerate, DensityLow, DensityMinimal}

// ClassifyDensity maps a total form count to its band.
func ClassifyDensity(totalForms int) DensityBand {
	switch {
	case totalForms > 150:
		return DensityVeryHigh
	case totalForms > 100:
		return DensityHigh
	case totalForms > 50:
		return DensityModerate
	case totalForms > 20:
		return DensityLow
	default:
		return DensityMinimal
	}
}
