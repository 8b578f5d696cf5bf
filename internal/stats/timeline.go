package stats

import (
	"fmt"
	"slices"

	"insurelytics/internal/jurisdiction"
	"insurelytics/internal/reference"
)

// TimelineEntry places one jurisdiction in a (year, quarter) bucket for a line of business.
type TimelineEntry struct {
	LOB        jurisdiction.LOB `json:"lob"`
	Year       int              `json:"year"`
	Quarter    int              `json:"quarter"`
	Code       string           `json:"code"`
	Name       string           `json:"name"`
	Complexity string           `json:"complexity"`
}

// LOBTimeline is the year → quarter → entries grid for one line of business.
// Every (year, quarter) of the window is present, possibly empty.
type LOBTimeline struct {
	LOB     jurisdiction.LOB                `json:"lob"`
	Years   []int                           `json:"years"`
	Buckets map[int]map[int][]TimelineEntry `json:"buckets"`
}

// TimelineModel holds one LOBTimeline per line of business.
type TimelineModel map[jurisdiction.LOB]LOBTimeline

// QuarterLabel returns "Q1".."Q4".
func QuarterLabel(q int) string {
	return fmt.Sprintf("Q%d", q)
}

func newLOBTimeline(lob jurisdiction.LOB, years []int) LOBTimeline {
	t := LOBTimeline{
		LOB:     lob,
		Years:   slices.Clone(years),
		Buckets: make(map[int]map[int][]TimelineEntry, len(years)),
	}
	for _, y := range years {
		quarters := make(map[int][]TimelineEntry, reference.Quarters)
		for q := 1; q <= reference.Quarters; q++ {
			quarters[q] = []TimelineEntry{}
		}
		t.Buckets[y] = quarters
	}
	return t
}

// Entries returns the bucket for (year, quarter); nil outside the window.
func (t LOBTimeline) Entries(year, quarter int) []TimelineEntry {
	return t.Buckets[year][quarter]
}

// CodesInYear returns every code scheduled in year, quarter by quarter.
func (t LOBTimeline) CodesInYear(year int) []string {
	var codes []string
	for q := 1; q <= reference.Quarters; q++ {
		for _, e := range t.Buckets[year][q] {
			codes = append(codes, e.Code)
		}
	}
	return codes
}

// Placement finds the bucket holding code.
func (t LOBTimeline) Placement(code string) (TimelineEntry, bool) {
	for _, y := range t.Years {
		for q := 1; q <= reference.Quarters; q++ {
			for _, e := range t.Buckets[y][q] {
				if e.Code == code {
					return e, true
				}
			}
		}
	}
	return TimelineEntry{}, false
}

// Len returns the number of entries across all buckets.
func (t LOBTimeline) Len() int {
	n := 0
	for _, quarters := range t.Buckets {
		for _, entries := range quarters {
			n += len(entries)
		}
	}
	return n
}

// BucketTimeline assigns jurisdictions to (year, quarter) buckets for one line of business.
//
// Auto follows the explicit schedule, including codes absent from the upload.
// Home and Umbrella include only records with a positive form count; their
// year comes from the first byte of the code modulo the window length.
func BucketTimeline(lob jurisdiction.LOB, records map[string]jurisdiction.StateRecord, sched reference.Schedule) LOBTimeline {
	t := newLOBTimeline(lob, sched.Years)
	if len(sched.Years) == 0 {
		return t
	}
	seen := make(map[string]bool)

	add := func(e TimelineEntry) {
		if seen[e.Code] {
			return
		}
		quarters, ok := t.Buckets[e.Year]
		if !ok {
			return
		}
		seen[e.Code] = true
		quarters[e.Quarter] = append(quarters[e.Quarter], e)
	}

	switch lob {
	case jurisdiction.LOBAuto:
		for _, slot := range sched.Auto {
			for _, code := range slot.Codes {
				entry := TimelineEntry{
					LOB: lob, Year: slot.Year, Quarter: slot.Quarter,
					Code: code, Name: code, Complexity: jurisdiction.DefaultComplexity,
				}
				if rec, ok := records[code]; ok {
					entry.Name = rec.Name
					entry.Complexity = rec.Complexity
				}
				add(entry)
			}
		}

	case jurisdiction.LOBHome, jurisdiction.LOBUmbrella:
		codes := make([]string, 0, len(records))
		for code := range records {
			codes = append(codes, code)
		}
		slices.Sort(codes)

		for _, code := range codes {
			rec := records[code]
			if code == "" || rec.FormsFor(lob) <= 0 {
				continue
			}
			add(TimelineEntry{
				LOB:        lob,
				Year:       sched.Years[int(code[0])%len(sched.Years)],
				Quarter:    derivedQuarter(lob, rec.Complexity),
				Code:       code,
				Name:       rec.Name,
				Complexity: rec.Complexity,
			})
		}
	}

	return t
}

func derivedQuarter(lob jurisdiction.LOB, complexity string) int {
	if lob == jurisdiction.LOBUmbrella {
		return 2
	}
	switch complexity {
	case "Critical", "High":
		return 3
	case "Medium":
		return 2
	default:
		return 1
	}
}

// BuildTimelineModel buckets every line of business.
func BuildTimelineModel(records map[string]jurisdiction.StateRecord, sched reference.Schedule) TimelineModel {
	model := make(TimelineModel, len(jurisdiction.AllLOBs))
	for _, lob := range jurisdiction.AllLOBs {
		model[lob] = BucketTimeline(lob, records, sched)
	}
	return model
}

// QuarterView is one quarter of a YearView.
type QuarterView struct {
	Quarter string          `json:"quarter"`
	Entries []TimelineEntry `json:"entries"`
}

// YearView is an ordered rendering of one year of a LOBTimeline.
type YearView struct {
	Year     int           `json:"year"`
	Quarters []QuarterView `json:"quarters"`
}

// View returns the grid in year and quarter order.
func (t LOBTimeline) View() []YearView {
	out := make([]YearView, 0, len(t.Years))
	for _, y := range t.Years {
		yv := YearView{Year: y}
		for q := 1; q <= reference.Quarters; q++ {
			yv.Quarters = append(yv.Quarters, QuarterView{Quarter: QuarterLabel(q), Entries: t.Buckets[y][q]})
		}
		out = append(out, yv)
	}
	return out
}
