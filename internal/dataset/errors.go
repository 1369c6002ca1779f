package dataset

import (
	"errors"
	"fmt"
)

// ErrDataFormat indicates the workbook lacks the expected sheet, labels, or values.
var ErrDataFormat = errors.New("dataset: unexpected data format")

// ErrParse indicates a month header cell that is not a year-month value.
var ErrParse = errors.New("dataset: parse error")

// DataFormatError describes a structural problem in the source workbook.
type DataFormatError struct {
	Path   string
	Sheet  string
	Cell   string
	Reason string
}

func (e *DataFormatError) Error() string {
	loc := e.Sheet
	if e.Cell != "" {
		loc = fmt.Sprintf("%s!%s", e.Sheet, e.Cell)
	}
	switch {
	case loc == "":
		return "dataset: " + e.Reason
	case e.Path != "":
		return fmt.Sprintf("dataset: %s (%s in %s)", e.Reason, loc, e.Path)
	default:
		return fmt.Sprintf("dataset: %s (%s)", e.Reason, loc)
	}
}

func (e *DataFormatError) Is(target error) bool { return target == ErrDataFormat }

// ParseError reports a date cell that does not hold a year-month value.
type ParseError struct {
	Sheet string
	Cell  string
	Value string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("dataset: %s!%s: %q is not a year-month value", e.Sheet, e.Cell, e.Value)
}

func (e *ParseError) Is(target error) bool { return target == ErrParse }
