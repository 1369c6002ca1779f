package dataset

import (
	"context"
	"errors"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog"
	"github.com/vinodismyname/gasdash/config"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Options identifies the sheet and row labels of the source workbook.
type Options struct {
	Sheet         string
	HeaderLabel   string
	NationalLabel string
}

// DefaultOptions returns the layout of the published demand workbook.
func DefaultOptions() Options {
	return Options{
		Sheet:         config.DefaultSheet,
		HeaderLabel:   config.DefaultHeaderLabel,
		NationalLabel: config.DefaultNationalLabel,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if strings.TrimSpace(o.Sheet) == "" {
		o.Sheet = d.Sheet
	}
	if strings.TrimSpace(o.HeaderLabel) == "" {
		o.HeaderLabel = d.HeaderLabel
	}
	if strings.TrimSpace(o.NationalLabel) == "" {
		o.NationalLabel = d.NationalLabel
	}
	return o
}

// Load opens the workbook at path and reshapes its demand sheet.
func Load(ctx context.Context, path string, opts Options) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t, err := Parse(f, opts)
	if err != nil {
		var dfe *DataFormatError
		if errors.As(err, &dfe) {
			dfe.Path = path
		}
		return nil, err
	}
	zerolog.Ctx(ctx).Info().
		Str("path", path).
		Str("sheet", opts.withDefaults().Sheet).
		Int("rows", t.Len()).
		Int("distributors", len(t.Distributors)).
		Msg("demand workbook loaded")
	return t, nil
}

// Parse reshapes the demand sheet of an open workbook. The sheet holds one
// row per metric: the first row carries the header label followed by the
// months, the national-total row is identified by its label, and every
// other labeled row is a distributor. The result is transposed so months
// become rows.
func Parse(f *excelize.File, opts Options) (*Table, error) {
	opts = opts.withDefaults()
	sheet := opts.Sheet
	if !slices.Contains(f.GetSheetList(), sheet) {
		return nil, &DataFormatError{Sheet: sheet, Reason: "sheet not found"}
	}
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, &DataFormatError{Sheet: sheet, Cell: "A1", Reason: "sheet is empty"}
	}

	header := rows[0]
	if normalizeLabel(header[0]) != normalizeLabel(opts.HeaderLabel) {
		return nil, &DataFormatError{Sheet: sheet, Cell: "A1", Reason: "header label not found"}
	}

	months := header[1:]
	for len(months) > 0 && strings.TrimSpace(months[len(months)-1]) == "" {
		months = months[:len(months)-1]
	}
	if len(months) == 0 {
		return nil, &DataFormatError{Sheet: sheet, Cell: "B1", Reason: "no month columns"}
	}
	dates := make([]time.Time, len(months))
	for j, raw := range months {
		d, ok := parseYearMonth(raw)
		if !ok {
			cell, _ := excelize.CoordinatesToCellName(j+2, 1)
			return nil, &ParseError{Sheet: sheet, Cell: cell, Value: raw}
		}
		dates[j] = d
	}

	nationalKey := normalizeLabel(opts.NationalLabel)
	var (
		names    []string
		columns  [][]float64
		national []float64
	)
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		label := ""
		if len(row) > 0 {
			label = strings.TrimSpace(row[0])
		}
		if label == "" {
			if blankRow(row) {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(1, i+1)
			return nil, &DataFormatError{Sheet: sheet, Cell: cell, Reason: "values without a row label"}
		}
		values, err := rowValues(sheet, row, i, len(dates))
		if err != nil {
			return nil, err
		}
		if normalizeLabel(label) == nationalKey {
			if national != nil {
				cell, _ := excelize.CoordinatesToCellName(1, i+1)
				return nil, &DataFormatError{Sheet: sheet, Cell: cell, Reason: "national total row repeated"}
			}
			national = values
			continue
		}
		names = append(names, label)
		columns = append(columns, values)
	}
	if national == nil {
		return nil, &DataFormatError{Sheet: sheet, Reason: "national total row not found"}
	}

	t, err := NewTable(dates, names, columns, national)
	if err != nil {
		var dfe *DataFormatError
		if errors.As(err, &dfe) {
			dfe.Sheet = sheet
		}
		return nil, err
	}
	return t, nil
}

func rowValues(sheet string, row []string, rowIdx, n int) ([]float64, error) {
	out := make([]float64, n)
	for j := 0; j < n; j++ {
		col := j + 1
		if col >= len(row) || strings.TrimSpace(row[col]) == "" {
			out[j] = math.NaN()
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(row[col]), 64)
		if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
			cell, _ := excelize.CoordinatesToCellName(col+1, rowIdx+1)
			return nil, &DataFormatError{Sheet: sheet, Cell: cell, Reason: "demand value is not numeric"}
		}
		if v < 0 {
			cell, _ := excelize.CoordinatesToCellName(col+1, rowIdx+1)
			return nil, &DataFormatError{Sheet: sheet, Cell: cell, Reason: "demand value is negative"}
		}
		out[j] = v
	}
	return out, nil
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

var yearMonth = regexp.MustCompile(`^(\d{4})-(\d{1,2})(?:-\d{1,2}(?:[ T].*)?)?$`)

// Serial dates before 1950 are rejected so bare year numbers are not
// mistaken for dates.
const minSerialDate = 18264

func parseYearMonth(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if m := yearMonth.FindStringSubmatch(s); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		if month < 1 || month > 12 {
			return time.Time{}, false
		}
		return time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC), true
	}
	serial, err := strconv.ParseFloat(s, 64)
	if err != nil || serial < minSerialDate {
		return time.Time{}, false
	}
	d, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC), true
}

// normalizeLabel folds accents, case, and all whitespace so labels match
// regardless of spacing differences in the published sheet.
func normalizeLabel(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	folded = strings.ToUpper(folded)
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, folded)
}
