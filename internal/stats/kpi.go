package stats

import (
	"cmp"
	"slices"

	"insurelytics/internal/jurisdiction"
)

// UnknownCategory replaces the "N/A" default in frequency tables.
const UnknownCategory = "Unknown"

// TopStateCount caps the TopStates ranking.
const TopStateCount = 10

// seededComplexities always appear in the complexity table, even at zero.
var seededComplexities = []string{"High", "Medium", "Low"}

// KPISummary aggregates every StateRecord of a snapshot.
type KPISummary struct {
	TotalForms       int     `json:"totalForms"`
	TotalAutoForms   int     `json:"totalAutoForms"`
	TotalHomeForms   int     `json:"totalHomeForms"`
	TotalUmbrella    int     `json:"totalUmbrella"`
	StateCount       int     `json:"stateCount"`
	AvgFormsPerState int     `json:"avgFormsPerState"`
	MedianForms      float64 `json:"medianForms"`

	ComplexityCount     map[string]int `json:"complexityCount"`
	FilingTypeCount     map[string]int `json:"filingTypeCount"`
	RateRegulationCount map[string]int `json:"rateRegulationCount"`

	TotalPass         int     `json:"totalPass"`
	TotalFail         int     `json:"totalFail"`
	TotalNoRun        int     `json:"totalNoRun"`
	OverallCompletion float64 `json:"overallCompletion"`

	DensityBands map[jurisdiction.DensityBand]int `json:"densityBands"`

	TopStates []TopState `json:"topStates"`
}

// TopState is one entry of the forms ranking.
type TopState struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	TotalForms int    `json:"totalForms"`
}

// CalculateKPISummary folds the records into a KPISummary. It is pure and
// independent of map iteration order.
func CalculateKPISummary(records map[string]jurisdiction.StateRecord) KPISummary {
	kpi := KPISummary{
		ComplexityCount:     make(map[string]int),
		FilingTypeCount:     make(map[string]int),
		RateRegulationCount: make(map[string]int),
		DensityBands:        make(map[jurisdiction.DensityBand]int),
	}
	for _, tier := range seededComplexities {
		kpi.ComplexityCount[tier] = 0
	}
	for _, band := range jurisdiction.DensityBands {
		kpi.DensityBands[band] = 0
	}

	totals := make([]int, 0, len(records))
	for _, rec := range records {
		kpi.TotalForms += rec.TotalForms
		kpi.TotalAutoForms += rec.AutoForms
		kpi.TotalHomeForms += rec.HomeForms
		kpi.TotalUmbrella += rec.UmbrellaForms
		totals = append(totals, rec.TotalForms)

		kpi.ComplexityCount[rec.Complexity]++
		kpi.FilingTypeCount[categoryOf(rec.OverallFilingType)]++
		kpi.RateRegulationCount[categoryOf(rec.RateRegulation)]++
		kpi.DensityBands[rec.Density]++

		kpi.TotalPass += rec.Pass
		kpi.TotalFail += rec.Fail
		kpi.TotalNoRun += rec.NoRun
	}

	kpi.StateCount = len(records)
	kpi.AvgFormsPerState = RoundedAverage(kpi.TotalForms, kpi.StateCount)
	kpi.MedianForms = CalculateMedianDiscrete(totals)
	kpi.OverallCompletion = Percent(kpi.TotalPass, kpi.TotalPass+kpi.TotalFail+kpi.TotalNoRun)
	kpi.TopStates = RankTopStates(records, TopStateCount)

	return kpi
}

// RankTopStates orders records by total forms, highest first, breaking ties by
// code, and keeps at most limit entries.
func RankTopStates(records map[string]jurisdiction.StateRecord, limit int) []TopState {
	ranked := make([]TopState, 0, len(records))
	for code, rec := range records {
		ranked = append(ranked, TopState{Code: code, Name: rec.Name, TotalForms: rec.TotalForms})
	}
	slices.SortFunc(ranked, func(a, b TopState) int {
		if c := cmp.Compare(b.TotalForms, a.TotalForms); c != 0 {
			return c
		}
		return cmp.Compare(a.Code, b.Code)
	})
	if limit >= 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

func categoryOf(v string) string {
	if v == "" || v == jurisdiction.NotAvailable {
		return UnknownCategory
	}
	return v
}
