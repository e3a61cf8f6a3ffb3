package ingest

import (
	"fmt"
	"strings"
)

// SchemaError reports required columns missing from the upload's header
// row. The file is rejected whole; no partial dataset is kept.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Missing, ", "))
}

// FormatError reports a cell that could not be parsed. Dates fail the
// whole normalization because time bucketing needs a total order on them.
type FormatError struct {
	Row    int
	Column string
	Value  string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("row %d: cannot parse %s value %q", e.Row, e.Column, e.Value)
}

// UnsupportedFormatError reports an upload that is neither CSV nor Excel.
type UnsupportedFormatError struct {
	Filename string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("%s: not a CSV or Excel file", e.Filename)
}
