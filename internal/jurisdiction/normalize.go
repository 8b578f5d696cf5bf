// Package jurisdiction turns spreadsheet rows into per-jurisdiction records.
package jurisdiction

import (
	"fmt"
	"math"

	"insurelytics/internal/reference"
	"insurelytics/internal/sheet"

	"github.com/rs/zerolog/log"
)

// RowSource is a single-pass row iterator such as *sheet.Rows.
type RowSource interface {
	Next() bool
	Row() sheet.RawRow
	Err() error
}

// NameResolver maps a full jurisdiction name to its code.
type NameResolver interface {
	Resolve(name string) (string, bool)
}

// ReferenceLookup returns the static reference data for a code.
type ReferenceLookup interface {
	Lookup(code string) reference.Merged
}

// NormalizeStats counts what happened to the rows during normalization.
type NormalizeStats struct {
	Rows       int `json:"rows"`
	Unresolved int `json:"unresolved"`
	Duplicates int `json:"duplicates"`
}

// Normalize builds one StateRecord per resolved jurisdiction. Rows whose name
// does not resolve are skipped. When a code repeats, the later row wins.
// An iteration error discards everything collected so far.
func Normalize(rows RowSource, resolver NameResolver, lookup ReferenceLookup) (map[string]StateRecord, NormalizeStats, error) {
	records := make(map[string]StateRecord)
	var stats NormalizeStats

	for rows.Next() {
		row := rows.Row()
		stats.Rows++

		// 1. Resolve. Only string names are eligible.
		name, _ := row[ColState].(string)
		code, ok := resolver.Resolve(name)
		if !ok {
			stats.Unresolved++
			log.Debug().Any("state", row[ColState]).Int("row", stats.Rows).Msg("Skipping row with unresolved jurisdiction")
			continue
		}

		// 2. Merge with reference data and build
		rec := BuildRecord(code, name, row, lookup.Lookup(code))

		// 3. Last write wins
		if _, dup := records[code]; dup {
			stats.Duplicates++
			log.Debug().Str("code", code).Int("row", stats.Rows).Msg("Duplicate jurisdiction, later row overwrites earlier")
		}
		records[code] = rec
	}

	if err := rows.Err(); err != nil {
		return nil, stats, fmt.Errorf("normalize rows: %w", err)
	}

	log.Debug().
		Int("rows", stats.Rows).
		Int("records", len(records)).
		Int("unresolved", stats.Unresolved).
		Int("duplicates", stats.Duplicates).
		Msg("Normalized jurisdiction rows")

	return records, stats, nil
}

// BuildRecord combines one row with the reference data for its code, applying
// defaults for every missing column.
func BuildRecord(code, name string, row sheet.RawRow, ref reference.Merged) StateRecord {
	rec := StateRecord{
		Code: code,
		Name: name,

		TotalForms:    intField(row, ColTotalForms),
		AutoForms:     intField(row, ColAutoForms),
		HomeForms:     intField(row, ColHomeForms),
		UmbrellaForms: intField(row, ColUmbrella),

		RatingRequirement: textField(row, ColRatingRequirement, NotAvailable),
		Complexity:        textField(row, ColComplexity, DefaultComplexity),
		TestingComplexity: textField(row, ColTestingComplexity, NotAvailable),
		OverallFilingType: textField(row, ColOverallFilingType, NotAvailable),
		AutoFiling:        textField(row, ColAutoFiling, NotAvailable),
		HomeFiling:        textField(row, ColHomeFiling, NotAvailable),
		RateRegulation:    textField(row, ColRateRegulation, NotAvailable),
		PIPRequired:       textField(row, ColPIPRequired, NotAvailable),
		UMUIM:             textField(row, ColUMUIM, NotAvailable),
		NoFault:           textField(row, ColNoFault, NotAvailable),
		KeyRequirements:   textField(row, ColKeyRequirements, NotAvailable),
		Ranking:           intField(row, ColStateRanking),

		Pass:       ref.Execution.Pass,
		Fail:       ref.Execution.Fail,
		NoRun:      ref.Execution.NoRun,
		Completion: ref.Completion,
	}
	rec.Density = ClassifyDensity(rec.TotalForms)
	return rec
}

// maxCellInt bounds integer cells. Anything beyond it, or not finite, is
// treated as a missing value so totals cannot wrap.
const maxCellInt = math.MaxInt32

func intField(row sheet.RawRow, column string) int {
	n, ok := row.Number(column)
	if !ok || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0
	}
	n = math.Round(n)
	if n > maxCellInt || n < -maxCellInt {
		return 0
	}
	return int(n)
}

func textField(row sheet.RawRow, column, fallback string) string {
	s, ok := row.String(column)
	if !ok || s == "" {
		return fallback
	}
	return s
}
