// Package reference holds the static tables compiled into the binary: the
// jurisdiction name table, the per-jurisdiction testing-execution summary and
// the rollout schedule. Tables can be substituted from a directory so the
// normalizer and bucketer can be exercised against other data.
package reference

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"sync"

	"insurelytics/internal/region"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

const (
	regionsFile   = "regions.yaml"
	executionFile = "execution.yaml"
	scheduleFile  = "schedule.yaml"

	// WindowYears is the fixed length of the rollout window.
	WindowYears = 6
	// Quarters per year.
	Quarters = 4
)

// ErrInvalidTable is returned when a reference table fails validation.
var ErrInvalidTable = errors.New("invalid reference table")

//go:embed data/*.yaml
var embedded embed.FS

// Execution holds testing-execution counts for one jurisdiction.
type Execution struct {
	Pass  int `yaml:"pass" json:"pass"`
	Fail  int `yaml:"fail" json:"fail"`
	NoRun int `yaml:"no_run" json:"noRun"`
}

// Total returns pass + fail + noRun.
func (e Execution) Total() int {
	return e.Pass + e.Fail + e.NoRun
}

// Completion returns pass / total * 100, or 0 when nothing was executed.
func (e Execution) Completion() float64 {
	total := e.Total()
	if total == 0 {
		return 0
	}
	return float64(e.Pass) * 100 / float64(total)
}

// Slot is one (year, quarter) cell of the explicit schedule.
type Slot struct {
	Year    int      `yaml:"year" json:"year"`
	Quarter int      `yaml:"quarter" json:"quarter"`
	Codes   []string `yaml:"codes" json:"codes"`
}

// Schedule is the fixed rollout window plus the explicit Auto assignments.
type Schedule struct {
	Years []int  `yaml:"years" json:"years"`
	Auto  []Slot `yaml:"auto" json:"auto"`
}

// HasYear reports whether year lies in the window.
func (s Schedule) HasYear(year int) bool {
	return slices.Contains(s.Years, year)
}

// Tables bundles every static table.
type Tables struct {
	Regions   []region.Entry       `yaml:"regions"`
	Execution map[string]Execution `yaml:"execution"`
	Schedule  Schedule             `yaml:"-"`

	resolver *region.Resolver
}

// Resolver returns the name → code resolver built from the region table.
func (t *Tables) Resolver() *region.Resolver {
	return t.resolver
}

var defaultTables = sync.OnceValues(func() (*Tables, error) {
	sub, err := fs.Sub(embedded, "data")
	if err != nil {
		return nil, err
	}
	return Load(sub)
})

// Default returns the embedded tables. The result is shared and must be treated as read-only.
func Default() (*Tables, error) {
	return defaultTables()
}

// LoadDir reads tables from a directory holding regions.yaml, execution.yaml and schedule.yaml.
func LoadDir(dir string) (*Tables, error) {
	t, err := Load(os.DirFS(dir))
	if err != nil {
		return nil, err
	}
	log.Info().Str("dir", dir).Int("regions", len(t.Regions)).Msg("Loaded reference tables from directory")
	return t, nil
}

// Load reads and validates the tables from fsys.
func Load(fsys fs.FS) (*Tables, error) {
	t := &Tables{}

	// 1. Regions and execution share the Tables document shape
	for _, name := range []string{regionsFile, executionFile} {
		if err := decodeFile(fsys, name, t); err != nil {
			return nil, err
		}
	}

	// 2. Schedule
	if err := decodeFile(fsys, scheduleFile, &t.Schedule); err != nil {
		return nil, err
	}

	if t.Execution == nil {
		t.Execution = make(map[string]Execution)
	}
	t.resolver = region.NewResolver(t.Regions)

	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func decodeFile(fsys fs.FS, name string, target any) error {
	raw, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := yaml.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrInvalidTable, name, err)
	}
	return nil
}

// Validate checks the cross-table invariants: every code is known, the window
// spans six consecutive years, slots sit inside the window and no code is
// scheduled twice.
func (t *Tables) Validate() error {
	if t.resolver == nil {
		t.resolver = region.NewResolver(t.Regions)
	}
	if t.resolver.Len() == 0 {
		return fmt.Errorf("%w: region table is empty", ErrInvalidTable)
	}

	for code, e := range t.Execution {
		if !t.resolver.Known(code) {
			return fmt.Errorf("%w: execution entry for unknown code %q", ErrInvalidTable, code)
		}
		if e.Pass < 0 || e.Fail < 0 || e.NoRun < 0 {
			return fmt.Errorf("%w: negative execution count for %q", ErrInvalidTable, code)
		}
	}

	years := t.Schedule.Years
	if len(years) != WindowYears {
		return fmt.Errorf("%w: schedule window has %d years, want %d", ErrInvalidTable, len(years), WindowYears)
	}
	for i := 1; i < len(years); i++ {
		if years[i] != years[i-1]+1 {
			return fmt.Errorf("%w: schedule years must be consecutive, got %v", ErrInvalidTable, years)
		}
	}

	scheduled := make(map[string]Slot)
	for _, slot := range t.Schedule.Auto {
		if !t.Schedule.HasYear(slot.Year) {
			return fmt.Errorf("%w: auto slot year %d outside window %v", ErrInvalidTable, slot.Year, years)
		}
		if slot.Quarter < 1 || slot.Quarter > Quarters {
			return fmt.Errorf("%w: auto slot %d has quarter %d", ErrInvalidTable, slot.Year, slot.Quarter)
		}
		for _, code := range slot.Codes {
			if !t.resolver.Known(code) {
				return fmt.Errorf("%w: auto schedule lists unknown code %q", ErrInvalidTable, code)
			}
			if prev, dup := scheduled[code]; dup {
				return fmt.Errorf("%w: %s scheduled twice (%d Q%d and %d Q%d)",
					ErrInvalidTable, code, prev.Year, prev.Quarter, slot.Year, slot.Quarter)
			}
			scheduled[code] = slot
		}
	}
	return nil
}
