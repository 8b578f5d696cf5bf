package visuals

import (
	"strings"
	"testing"

	"insurelytics/internal/jurisdiction"
	"insurelytics/internal/reference"
	"insurelytics/internal/stats"
)

func TestGenerateRolloutChart(t *testing.T) {
	tables, err := reference.Default()
	if err != nil {
		t.Fatal(err)
	}
	tl := stats.BucketTimeline(jurisdiction.LOBAuto, nil, tables.Schedule)

	chart := GenerateRolloutChart(tl)
	if !strings.HasPrefix(chart, "```mermaid\nxychart-beta\n") {
		t.Fatalf("unexpected chart header: %q", chart)
	}
	if !strings.Contains(chart, "Auto Rollout") {
		t.Error("missing title")
	}
	if !strings.Contains(chart, `x-axis ["2026", "2027", "2028", "2029", "2030", "2031"]`) {
		t.Errorf("missing year axis in %q", chart)
	}
	// Q1 series: OH | UT IN NE | CO NV KY | CT DE ME | WA MI | NY
	if !strings.Contains(chart, "bar [1, 3, 3, 3, 2, 1]") {
		t.Errorf("unexpected Q1 series in %q", chart)
	}
	if got := strings.Count(chart, "    bar ["); got != 4 {
		t.Errorf("expected 4 quarter series, got %d", got)
	}
}

func TestGenerateRolloutChart_Empty(t *testing.T) {
	if got := GenerateRolloutChart(stats.LOBTimeline{}); got != "" {
		t.Errorf("expected empty chart, got %q", got)
	}
}

func TestGenerateComplexityPie(t *testing.T) {
	kpi := stats.KPISummary{
		StateCount:      3,
		ComplexityCount: map[string]int{"High": 2, "Medium": 0, "Low": 1},
	}
	chart := GenerateComplexityPie(kpi)

	if !strings.Contains(chart, `"High" : 2`) || !strings.Contains(chart, `"Low" : 1`) {
		t.Errorf("missing slices in %q", chart)
	}
	if strings.Contains(chart, `"Medium"`) {
		t.Error("zero-count tiers should be omitted")
	}
	if GenerateComplexityPie(stats.KPISummary{}) != "" {
		t.Error("expected empty pie for no jurisdictions")
	}
}

func TestGenerateDensityChart(t *testing.T) {
	kpi := stats.KPISummary{
		StateCount: 2,
		DensityBands: map[jurisdiction.DensityBand]int{
			jurisdiction.DensityVeryHigh: 1,
			jurisdiction.DensityMinimal:  1,
		},
	}
	chart := GenerateDensityChart(kpi)
	if !strings.Contains(chart, "bar [1, 0, 0, 0, 1]") {
		t.Errorf("unexpected series in %q", chart)
	}
}
