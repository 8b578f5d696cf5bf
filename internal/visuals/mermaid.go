package visuals

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"insurelytics/internal/jurisdiction"
	"insurelytics/internal/reference"
	"insurelytics/internal/stats"
)

// GenerateRolloutChart creates a Mermaid stacked view of jurisdictions per year,
// one bar series per quarter.
func GenerateRolloutChart(tl stats.LOBTimeline) string {
	if len(tl.Years) == 0 || tl.Len() == 0 {
		return ""
	}

	var labels []string
	perQuarter := make([][]string, reference.Quarters)
	maxVal := 0

	for _, y := range tl.Years {
		labels = append(labels, fmt.Sprintf("\"%d\"", y))
		yearTotal := 0
		for q := 1; q <= reference.Quarters; q++ {
			n := len(tl.Entries(y, q))
			perQuarter[q-1] = append(perQuarter[q-1], fmt.Sprintf("%d", n))
			yearTotal += n
		}
		if yearTotal > maxVal {
			maxVal = yearTotal
		}
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString(fmt.Sprintf("    title \"%s Rollout (Jurisdictions per Quarter)\"\n", tl.LOB.Label()))
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis \"Jurisdictions\" 0 --> %d\n", maxVal+int(math.Max(1, float64(maxVal)*0.2))))
	for _, series := range perQuarter {
		sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(series, ", ")))
	}
	sb.WriteString("```")
	return sb.String()
}

// GenerateComplexityPie creates a Mermaid pie chart of complexity tiers.
func GenerateComplexityPie(kpi stats.KPISummary) string {
	if kpi.StateCount == 0 {
		return ""
	}

	tiers := make([]string, 0, len(kpi.ComplexityCount))
	for tier, n := range kpi.ComplexityCount {
		if n > 0 {
			tiers = append(tiers, tier)
		}
	}
	slices.Sort(tiers)

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("pie title Complexity Distribution\n")
	for _, tier := range tiers {
		sb.WriteString(fmt.Sprintf("    \"%s\" : %d\n", tier, kpi.ComplexityCount[tier]))
	}
	sb.WriteString("```")
	return sb.String()
}

// GenerateDensityChart creates a Mermaid bar chart of jurisdictions per form-density band.
func GenerateDensityChart(kpi stats.KPISummary) string {
	if kpi.StateCount == 0 {
		return ""
	}

	var labels, values []string
	maxVal := 0
	for _, band := range jurisdiction.DensityBands {
		n := kpi.DensityBands[band]
		labels = append(labels, fmt.Sprintf("\"%s\"", band))
		values = append(values, fmt.Sprintf("%d", n))
		if n > maxVal {
			maxVal = n
		}
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString("    title \"Form Density\"\n")
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis \"Jurisdictions\" 0 --> %d\n", maxVal+1))
	sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(values, ", ")))
	sb.WriteString("```")
	return sb.String()
}
