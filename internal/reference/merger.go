package reference

// Placement is a (year, quarter) assignment.
type Placement struct {
	Year    int `json:"year"`
	Quarter int `json:"quarter"`
}

// Merged is everything the reference tables know about one jurisdiction.
type Merged struct {
	Code         string     `json:"code"`
	Execution    Execution  `json:"execution"`
	HasExecution bool       `json:"hasExecution"`
	Completion   float64    `json:"completion"`
	Auto         *Placement `json:"auto,omitempty"`
}

// Merger composes lookups over the static tables. It has no side effects.
type Merger struct {
	tables *Tables
	auto   map[string]Placement
}

// NewMerger indexes the tables for per-code lookups.
func NewMerger(tables *Tables) *Merger {
	m := &Merger{tables: tables, auto: make(map[string]Placement)}
	for _, slot := range tables.Schedule.Auto {
		for _, code := range slot.Codes {
			if _, seen := m.auto[code]; !seen {
				m.auto[code] = Placement{Year: slot.Year, Quarter: slot.Quarter}
			}
		}
	}
	return m
}

// Lookup returns the execution counts and Auto placement for code. Codes
// without execution data get zero counts and zero completion.
func (m *Merger) Lookup(code string) Merged {
	merged := Merged{Code: code}

	if exec, ok := m.tables.Execution[code]; ok {
		merged.Execution = exec
		merged.HasExecution = true
		merged.Completion = exec.Completion()
	}

	if p, ok := m.auto[code]; ok {
		placement := p
		merged.Auto = &placement
	}
	return merged
}

// Schedule returns the rollout schedule the merger was built from.
func (m *Merger) Schedule() Schedule {
	return m.tables.Schedule
}
