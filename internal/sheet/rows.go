package sheet

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// RawRow maps a header name to a scalar cell value: either a string or a float64.
// Empty cells are absent.
type RawRow map[string]any

// String returns the cell as text. Numbers are formatted without trailing zeros.
func (r RawRow) String(column string) (string, bool) {
	v, ok := r[column]
	if !ok {
		return "", false
	}
	switch val := v.(type) {
	case string:
		return val, true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	default:
		return fmt.Sprint(val), true
	}
}

// Number returns the cell as a float64. Numeric strings are accepted.
func (r RawRow) Number(column string) (float64, bool) {
	v, ok := r[column]
	if !ok {
		return 0, false
	}
	switch val := v.(type) {
	case float64:
		return val, true
	case string:
		return parseNumber(val)
	default:
		return 0, false
	}
}

// source yields raw cell text, one physical row at a time.
type source interface {
	next() ([]string, bool, error)
	close() error
}

// Rows is a lazy, finite, single-pass sequence of RawRow values read from the
// first sheet of a workbook.
type Rows struct {
	src     source
	format  Format
	header  []string
	peeked  RawRow
	current RawRow
	count   int
	done    bool
	err     error
}

// Header returns the normalized column names.
func (r *Rows) Header() []string {
	out := make([]string, len(r.header))
	copy(out, r.header)
	return out
}

// Format reports which container the rows were decoded from.
func (r *Rows) Format() Format {
	return r.format
}

// Next advances to the next data row. Once it returns false it keeps returning false.
func (r *Rows) Next() bool {
	if r.done {
		return false
	}
	if r.peeked != nil {
		r.current, r.peeked = r.peeked, nil
		r.count++
		return true
	}

	row, err := r.readDataRow()
	if err != nil {
		r.err = parseErr(r.format, ErrCorrupt, err)
		r.finish()
		return false
	}
	if row == nil {
		r.finish()
		return false
	}
	r.current = row
	r.count++
	return true
}

// Row returns the current row. Only valid after Next returned true.
func (r *Rows) Row() RawRow {
	return r.current
}

// Count returns the number of data rows handed out so far.
func (r *Rows) Count() int {
	return r.count
}

// Err returns the first decoding error encountered during iteration.
func (r *Rows) Err() error {
	return r.err
}

// Close releases the underlying decoder. It is safe to call more than once.
func (r *Rows) Close() error {
	if r.src == nil {
		return nil
	}
	err := r.src.close()
	r.src = nil
	r.done = true
	return err
}

func (r *Rows) finish() {
	r.current = nil
	_ = r.Close()
}

// readHeader consumes leading blank rows and stores the first non-blank row as header.
func (r *Rows) readHeader() error {
	for {
		cells, ok, err := r.src.next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if isBlank(cells) {
			continue
		}
		r.header = normalizeHeader(cells)
		return nil
	}
}

// readDataRow returns the next non-blank row, or nil at the end of the sheet.
func (r *Rows) readDataRow() (RawRow, error) {
	for {
		cells, ok, err := r.src.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, nil
		}
		row := r.toRawRow(cells)
		if len(row) == 0 {
			continue
		}
		return row, nil
	}
}

func (r *Rows) toRawRow(cells []string) RawRow {
	row := make(RawRow, len(r.header))
	for i, raw := range cells {
		if i >= len(r.header) || r.header[i] == "" {
			continue
		}
		text := strings.TrimSpace(raw)
		if text == "" {
			continue
		}
		if n, ok := parseNumber(text); ok {
			row[r.header[i]] = n
		} else {
			row[r.header[i]] = text
		}
	}
	return row
}

// normalizeHeader trims names and disambiguates repeats with a numeric suffix
// ("Name", "Name_1", ...).
func normalizeHeader(cells []string) []string {
	seen := make(map[string]int, len(cells))
	header := make([]string, len(cells))
	for i, c := range cells {
		name := strings.TrimSpace(c)
		if name == "" {
			continue
		}
		if n, dup := seen[name]; dup {
			seen[name] = n + 1
			name = fmt.Sprintf("%s_%d", name, n+1)
		} else {
			seen[name] = 0
		}
		header[i] = name
	}
	return header
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
