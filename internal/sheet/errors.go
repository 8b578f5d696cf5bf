package sheet

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownFormat means the bytes do not start with a known workbook signature.
	ErrUnknownFormat = errors.New("not a recognized spreadsheet container")
	// ErrCorrupt means the container was recognized but could not be decoded.
	ErrCorrupt = errors.New("corrupt spreadsheet container")
	// ErrNoDataRows means the first sheet has a header but no data rows (or nothing at all).
	ErrNoDataRows = errors.New("spreadsheet contains no data rows")
)

// ParseError is the only user-visible ingestion failure. Nothing decoded before
// the failure may be published.
type ParseError struct {
	Format Format
	Reason error
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse %s workbook: %v: %v", e.Format, e.Reason, e.Err)
	}
	return fmt.Sprintf("parse %s workbook: %v", e.Format, e.Reason)
}

// Unwrap exposes both the sentinel reason and the underlying decoder error.
func (e *ParseError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Reason}
	}
	return []error{e.Reason, e.Err}
}

func parseErr(format Format, reason, cause error) *ParseError {
	return &ParseError{Format: format, Reason: reason, Err: cause}
}
