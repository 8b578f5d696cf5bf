package sheet

import (
	"bytes"

	"github.com/rs/zerolog/log"
)

// Format identifies a workbook container.
type Format string

const (
	FormatUnknown Format = "unknown"
	// FormatOOXML is the zip-based workbook (.xlsx).
	FormatOOXML Format = "xlsx"
	// FormatLegacy is the OLE2 compound-document workbook (.xls).
	FormatLegacy Format = "xls"
)

var (
	zipMagic = []byte{'P', 'K', 0x03, 0x04}
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

// Sniff identifies the container from its leading bytes.
func Sniff(data []byte) Format {
	switch {
	case bytes.HasPrefix(data, zipMagic):
		return FormatOOXML
	case bytes.HasPrefix(data, oleMagic):
		return FormatLegacy
	default:
		return FormatUnknown
	}
}

// Parse decodes the first sheet of a workbook. The returned Rows already holds
// the header and has verified that at least one data row exists; the rest of
// the sheet is read on demand. Callers must Close the Rows.
func Parse(data []byte) (*Rows, error) {
	format := Sniff(data)

	var (
		src source
		err error
	)
	switch format {
	case FormatOOXML:
		src, err = openOOXML(data)
	case FormatLegacy:
		src, err = openLegacy(data)
	default:
		return nil, parseErr(format, ErrUnknownFormat, nil)
	}
	if err != nil {
		return nil, parseErr(format, ErrCorrupt, err)
	}

	rows := &Rows{src: src, format: format}

	// 1. Header row
	if err := rows.readHeader(); err != nil {
		_ = rows.Close()
		return nil, parseErr(format, ErrCorrupt, err)
	}
	if len(rows.header) == 0 {
		_ = rows.Close()
		return nil, parseErr(format, ErrNoDataRows, nil)
	}

	// 2. At least one data row must exist before anything is handed out
	first, err := rows.readDataRow()
	if err != nil {
		_ = rows.Close()
		return nil, parseErr(format, ErrCorrupt, err)
	}
	if first == nil {
		_ = rows.Close()
		return nil, parseErr(format, ErrNoDataRows, nil)
	}
	rows.peeked = first

	log.Debug().Str("format", string(format)).Strs("header", rows.header).Msg("Workbook opened")
	return rows, nil
}
