package stats

import (
	"testing"

	"insurelytics/internal/jurisdiction"
)

func record(code string, total int, complexity, filing, regulation string) jurisdiction.StateRecord {
	return jurisdiction.StateRecord{
		Code:              code,
		Name:              code,
		TotalForms:        total,
		Complexity:        complexity,
		OverallFilingType: filing,
		RateRegulation:    regulation,
		Density:           jurisdiction.ClassifyDensity(total),
	}
}

func TestCalculateKPISummary_Empty(t *testing.T) {
	kpi := CalculateKPISummary(nil)

	if kpi.StateCount != 0 || kpi.AvgFormsPerState != 0 || kpi.TotalForms != 0 {
		t.Errorf("unexpected totals for empty input: %+v", kpi)
	}
	for _, tier := range []string{"High", "Medium", "Low"} {
		if n, ok := kpi.ComplexityCount[tier]; !ok || n != 0 {
			t.Errorf("ComplexityCount[%s] = %d, %v; want seeded 0", tier, n, ok)
		}
	}
	if kpi.OverallCompletion != 0 {
		t.Errorf("OverallCompletion = %v, want 0", kpi.OverallCompletion)
	}
}

func TestCalculateKPISummary(t *testing.T) {
	tx := record("TX", 150, "Critical", "Prior Approval", "File and Use")
	tx.AutoForms, tx.HomeForms, tx.UmbrellaForms = 80, 60, 10
	tx.Pass, tx.Fail, tx.NoRun = 6, 1, 1

	oh := record("OH", 40, "Low", jurisdiction.NotAvailable, "File and Use")
	oh.AutoForms, oh.HomeForms = 30, 10
	oh.Pass = 2

	ut := record("UT", 11, "Medium", "Prior Approval", jurisdiction.NotAvailable)

	kpi := CalculateKPISummary(map[string]jurisdiction.StateRecord{"TX": tx, "OH": oh, "UT": ut})

	if kpi.TotalForms != 201 {
		t.Errorf("TotalForms = %d, want 201", kpi.TotalForms)
	}
	if kpi.TotalAutoForms != 110 || kpi.TotalHomeForms != 70 || kpi.TotalUmbrella != 10 {
		t.Errorf("per-LOB totals = %d/%d/%d", kpi.TotalAutoForms, kpi.TotalHomeForms, kpi.TotalUmbrella)
	}
	if kpi.StateCount != 3 {
		t.Errorf("StateCount = %d, want 3", kpi.StateCount)
	}
	// round(201 / 3) = 67
	if kpi.AvgFormsPerState != 67 {
		t.Errorf("AvgFormsPerState = %d, want 67", kpi.AvgFormsPerState)
	}
	if kpi.MedianForms != 40 {
		t.Errorf("MedianForms = %v, want 40", kpi.MedianForms)
	}

	wantComplexity := map[string]int{"High": 0, "Medium": 1, "Low": 1, "Critical": 1}
	for tier, want := range wantComplexity {
		if kpi.ComplexityCount[tier] != want {
			t.Errorf("ComplexityCount[%s] = %d, want %d", tier, kpi.ComplexityCount[tier], want)
		}
	}
	if kpi.FilingTypeCount["Prior Approval"] != 2 || kpi.FilingTypeCount[UnknownCategory] != 1 {
		t.Errorf("FilingTypeCount = %v", kpi.FilingTypeCount)
	}
	if _, ok := kpi.FilingTypeCount[jurisdiction.NotAvailable]; ok {
		t.Error("FilingTypeCount should not carry N/A")
	}
	if kpi.RateRegulationCount["File and Use"] != 2 || kpi.RateRegulationCount[UnknownCategory] != 1 {
		t.Errorf("RateRegulationCount = %v", kpi.RateRegulationCount)
	}

	// 8 passes of 10 executions
	if kpi.TotalPass != 8 || kpi.TotalFail != 1 || kpi.TotalNoRun != 1 || kpi.OverallCompletion != 80 {
		t.Errorf("execution totals = %d/%d/%d %.2f", kpi.TotalPass, kpi.TotalFail, kpi.TotalNoRun, kpi.OverallCompletion)
	}

	if kpi.DensityBands[jurisdiction.DensityHigh] != 1 ||
		kpi.DensityBands[jurisdiction.DensityMinimal] != 1 ||
		kpi.DensityBands[jurisdiction.DensityLow] != 1 ||
		kpi.DensityBands[jurisdiction.DensityVeryHigh] != 0 {
		t.Errorf("DensityBands = %v", kpi.DensityBands)
	}
}

func TestCalculateKPISummary_TotalEqualsSum(t *testing.T) {
	records := make(map[string]jurisdiction.StateRecord)
	sum := 0
	for i, code := range []string{"AL", "AK", "AZ", "AR", "CA", "CO", "CT"} {
		forms := i*37 + 3
		sum += forms
		records[code] = record(code, forms, "High", "Prior Approval", "File and Use")
	}

	kpi := CalculateKPISummary(records)
	if kpi.TotalForms != sum {
		t.Errorf("TotalForms = %d, want %d", kpi.TotalForms, sum)
	}
	if kpi.AvgFormsPerState != RoundedAverage(sum, len(records)) {
		t.Errorf("AvgFormsPerState = %d", kpi.AvgFormsPerState)
	}
}

func TestRankTopStates(t *testing.T) {
	records := map[string]jurisdiction.StateRecord{}
	forms := map[string]int{
		"AL": 5, "AK": 90, "AZ": 40, "AR": 40, "CA": 300, "CO": 12,
		"CT": 40, "DE": 0, "FL": 220, "GA": 18, "HI": 7, "ID": 1,
	}
	for code, n := range forms {
		records[code] = record(code, n, "High", "Prior Approval", "File and Use")
	}

	got := CalculateKPISummary(records).TopStates
	want := []string{"CA", "FL", "AK", "AR", "AZ", "CT", "GA", "CO", "HI", "AL"}
	if len(got) != TopStateCount {
		t.Fatalf("len(TopStates) = %d, want %d", len(got), TopStateCount)
	}
	for i, code := range want {
		if got[i].Code != code || got[i].TotalForms != forms[code] || got[i].Name != code {
			t.Errorf("TopStates[%d] = %+v, want %s with %d forms", i, got[i], code, forms[code])
		}
	}

	// Same input, same ranking, regardless of map iteration.
	for i := 0; i < 5; i++ {
		again := RankTopStates(records, TopStateCount)
		for j := range again {
			if again[j] != got[j] {
				t.Fatalf("run %d: TopStates[%d] = %+v, want %+v", i, j, again[j], got[j])
			}
		}
	}
}

func TestRankTopStates_FewerThanLimit(t *testing.T) {
	records := map[string]jurisdiction.StateRecord{
		"OH": record("OH", 10, "Low", "", ""),
		"TX": record("TX", 10, "Low", "", ""),
	}
	got := RankTopStates(records, TopStateCount)
	if len(got) != 2 || got[0].Code != "OH" || got[1].Code != "TX" {
		t.Errorf("RankTopStates() = %+v", got)
	}

	if empty := CalculateKPISummary(nil).TopStates; empty == nil || len(empty) != 0 {
		t.Errorf("TopStates for no records = %#v, want empty slice", empty)
	}
}
