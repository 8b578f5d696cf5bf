package sheet

import (
	"bytes"
	"fmt"

	"github.com/extrame/xls"
)

// maxLegacyCols bounds the column scan for rows that carry cells but no ROW
// record, which leaves the decoder without a column extent.
const maxLegacyCols = 256

// legacySource walks the first sheet of a BIFF workbook by row index.
type legacySource struct {
	sheet  *xls.WorkSheet
	cursor int
	last   int
}

func openLegacy(data []byte) (src source, err error) {
	// The BIFF decoder panics on some truncated streams.
	defer func() {
		if r := recover(); r != nil {
			src = nil
			err = fmt.Errorf("decode legacy workbook: %v", r)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, err
	}
	if wb.NumSheets() == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, fmt.Errorf("first sheet is unreadable")
	}
	return &legacySource{sheet: sheet, last: int(sheet.MaxRow)}, nil
}

func (s *legacySource) next() ([]string, bool, error) {
	if s.cursor > s.last {
		return nil, false, nil
	}
	idx := s.cursor
	s.cursor++

	row, ok := s.row(idx)
	if !ok {
		// No record at this index: the row is blank.
		return []string{}, true, nil
	}
	cells, err := s.cells(idx, row)
	if err != nil {
		return nil, false, err
	}
	return cells, true, nil
}

// row looks up a row by index. The decoder dereferences a missing map entry,
// so an absent row surfaces as a panic and is reported as not found.
func (s *legacySource) row(idx int) (row *xls.Row, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			row, ok = nil, false
		}
	}()
	row = s.sheet.Row(idx)
	return row, row != nil
}

func (s *legacySource) cells(idx int, row *xls.Row) (cells []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			cells = nil
			err = fmt.Errorf("decode legacy row %d: %v", idx, r)
		}
	}()

	lastCol := row.LastCol()
	if lastCol <= 0 {
		return scanCells(row), nil
	}
	cells = make([]string, lastCol)
	for c := row.FirstCol(); c < lastCol; c++ {
		cells[c] = row.Col(c)
	}
	return cells, nil
}

// scanCells reads a row with an unknown extent and drops trailing blanks.
func scanCells(row *xls.Row) []string {
	cells := make([]string, maxLegacyCols)
	width := 0
	for c := range cells {
		cells[c] = row.Col(c)
		if cells[c] != "" {
			width = c + 1
		}
	}
	return cells[:width]
}

func (s *legacySource) close() error {
	return nil
}
