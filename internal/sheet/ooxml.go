package sheet

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

type ooxmlSource struct {
	file *excelize.File
	rows *excelize.Rows
}

func openOOXML(data []byte) (source, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		_ = f.Close()
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.Rows(sheets[0])
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("open sheet %q: %w", sheets[0], err)
	}
	return &ooxmlSource{file: f, rows: rows}, nil
}

func (s *ooxmlSource) next() ([]string, bool, error) {
	if !s.rows.Next() {
		if err := s.rows.Error(); err != nil {
			return nil, false, err
		}
		return nil, false, nil
	}
	// Raw values keep numbers free of display formatting ("1,250" -> "1250").
	cols, err := s.rows.Columns(excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, false, err
	}
	return cols, true, nil
}

func (s *ooxmlSource) close() error {
	rowsErr := s.rows.Close()
	fileErr := s.file.Close()
	if rowsErr != nil {
		return rowsErr
	}
	return fileErr
}
