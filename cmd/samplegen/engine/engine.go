package engine

import (
	"bytes"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"slices"

	"insurelytics/internal/jurisdiction"
	"insurelytics/internal/reference"

	"github.com/xuri/excelize/v2"
)

// SheetName is the single sheet every generated workbook carries.
const SheetName = "States"

type GeneratorConfig struct {
	Scenario string // "clean" or "noisy"
	Count    int    // jurisdictions, capped at the region table size
	Seed     int64
}

var (
	complexities    = []string{"Critical", "High", "Medium", "Low"}
	filingTypes     = []string{"Prior Approval", "File and Use", "Use and File", "Informational"}
	rateRegulations = []string{"Prior Approval", "File and Use", "Flex Rating", "Competitive"}
	yesNo           = []string{"Yes", "No"}
)

// Generate returns a header row followed by one data row per jurisdiction.
// The noisy scenario adds an unresolvable name, a duplicate and blank cells.
func Generate(cfg GeneratorConfig) ([][]any, error) {
	tables, err := reference.Default()
	if err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(cfg.Seed))

	regions := slices.Clone(tables.Regions)
	rng.Shuffle(len(regions), func(i, j int) { regions[i], regions[j] = regions[j], regions[i] })
	count := cfg.Count
	if count <= 0 || count > len(regions) {
		count = len(regions)
	}

	header := make([]any, len(jurisdiction.Columns))
	for i, c := range jurisdiction.Columns {
		header[i] = c
	}
	rows := [][]any{header}

	for i, r := range regions[:count] {
		rows = append(rows, dataRow(rng, r.Name, i+1))
	}

	switch cfg.Scenario {
	case "", "clean":
	case "noisy":
		rows = append(rows, dataRow(rng, "Atlantis", 0))
		if count > 0 {
			rows = append(rows, dataRow(rng, regions[0].Name, 1))
		}
		// Blank out optional text cells in every third row
		for i := 3; i < len(rows); i += 3 {
			for col := 5; col < len(rows[i])-1; col++ {
				rows[i][col] = nil
			}
		}
	default:
		return nil, fmt.Errorf("unknown scenario %q (want clean or noisy)", cfg.Scenario)
	}

	return rows, nil
}

func dataRow(rng *rand.Rand, name string, ranking int) []any {
	auto := rng.Intn(120)
	home := rng.Intn(80)
	umbrella := 0
	if rng.Intn(3) > 0 {
		umbrella = 1 + rng.Intn(15)
	}
	pick := func(opts []string) string { return opts[rng.Intn(len(opts))] }

	return []any{
		name,
		auto + home + umbrella,
		auto,
		home,
		umbrella,
		pick(yesNo),
		pick(complexities),
		pick(complexities),
		pick(filingTypes),
		pick(filingTypes),
		pick(filingTypes),
		pick(rateRegulations),
		pick(yesNo),
		pick(yesNo),
		pick(yesNo),
		fmt.Sprintf("Filing review within %d days", 15+rng.Intn(60)),
		ranking,
	}
}

// Workbook renders rows into an xlsx workbook.
func Workbook(rows [][]any) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		r := row
		if err := f.SetSheetRow(SheetName, cell, &r); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("encode workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// Save writes the workbook to path, creating parent directories.
func Save(path string, rows [][]any) error {
	data, err := Workbook(rows)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
