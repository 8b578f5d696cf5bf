// Package selection holds the hover, selection and year-filter state that
// drives the choropleth and detail panels.
package selection

import (
	"slices"

	"insurelytics/internal/jurisdiction"
	"insurelytics/internal/stats"
)

// State is the selection state. Empty strings and a zero year mean "none".
type State struct {
	Hovered  string `json:"hovered,omitempty"`
	Selected string `json:"selected,omitempty"`
	Year     int    `json:"year,omitempty"`
}

// IsIdle reports whether nothing is hovered, selected or filtered.
func (s State) IsIdle() bool {
	return s == State{}
}

// ActiveCode is the code the detail panel shows: the hovered one, else the selected one.
func (s State) ActiveCode() string {
	if s.Hovered != "" {
		return s.Hovered
	}
	return s.Selected
}

// EventKind names a selection input.
type EventKind string

const (
	EventHover      EventKind = "hover"
	EventHoverClear EventKind = "hover_clear"
	EventClick      EventKind = "click"
	EventSelectYear EventKind = "select_year"
	EventDeselect   EventKind = "deselect"
	EventClearAll   EventKind = "clear_all"
)

// Event is one input to Reduce.
type Event struct {
	Kind EventKind `json:"kind"`
	Code string    `json:"code,omitempty"`
	Year int       `json:"year,omitempty"`
}

// Context is the read-only data the reducer consults.
type Context struct {
	LOB      jurisdiction.LOB
	Timeline stats.TimelineModel
	// Codes is the universe of jurisdiction codes the map draws.
	Codes []string
}

func (c Context) active() (stats.LOBTimeline, bool) {
	tl, ok := c.Timeline[c.LOB]
	return tl, ok
}

func (c Context) yearMembers(year int) map[string]bool {
	members := make(map[string]bool)
	tl, ok := c.active()
	if !ok {
		return members
	}
	for _, code := range tl.CodesInYear(year) {
		members[code] = true
	}
	return members
}

func (c Context) hasYear(year int) bool {
	tl, ok := c.active()
	if !ok {
		return false
	}
	return slices.Contains(tl.Years, year)
}

// Reduce returns the state after e. The second result is false when the event
// is rejected, in which case the returned state equals s.
func Reduce(s State, e Event, ctx Context) (State, bool) {
	switch e.Kind {
	case EventHover:
		if e.Code == "" {
			return s, false
		}
		s.Hovered = e.Code
		return s, true

	case EventHoverClear:
		s.Hovered = ""
		return s, true

	case EventClick:
		if e.Code == "" {
			return s, false
		}
		if s.Year != 0 && !ctx.yearMembers(s.Year)[e.Code] {
			return s, false
		}
		s.Selected = e.Code
		return s, true

	case EventSelectYear:
		if !ctx.hasYear(e.Year) {
			return s, false
		}
		next := State{Year: e.Year}
		if s.Year == e.Year {
			next.Year = 0
		}
		return next, true

	case EventDeselect:
		s.Selected = ""
		return s, true

	case EventClearAll:
		return State{}, true
	}
	return s, false
}

// DimSet returns, in code order, every code outside the filtered year for the
// active line of business. It is empty when no year filter is set.
func DimSet(s State, ctx Context) []string {
	if s.Year == 0 {
		return []string{}
	}
	members := ctx.yearMembers(s.Year)
	dim := make([]string, 0, len(ctx.Codes))
	for _, code := range ctx.Codes {
		if !members[code] {
			dim = append(dim, code)
		}
	}
	slices.Sort(dim)
	return dim
}
