// Package dataset loads the distributor demand workbook into a tidy,
// month-indexed table.
package dataset

import (
	"fmt"
	"math"
	"time"
)

// Table is the tidy monthly demand table. Rows are months in strictly
// increasing order; each distributor has one column in source order.
// Missing observations are stored as NaN and skipped by Mean.
type Table struct {
	Dates        []time.Time
	Distributors []string
	National     []float64

	columns [][]float64
	index   map[string]int
}

// NewTable validates and assembles a Table. values holds one slice per
// distributor, each aligned with dates.
func NewTable(dates []time.Time, distributors []string, values [][]float64, national []float64) (*Table, error) {
	if len(values) != len(distributors) {
		return nil, formatErr("%d distributors but %d columns", len(distributors), len(values))
	}
	if len(national) != len(dates) {
		return nil, formatErr("national total has %d rows, want %d", len(national), len(dates))
	}
	for i := 1; i < len(dates); i++ {
		if !dates[i].After(dates[i-1]) {
			return nil, formatErr("month %s does not follow %s", dates[i].Format("2006-01"), dates[i-1].Format("2006-01"))
		}
	}
	for i, v := range national {
		if math.IsNaN(v) || v < 0 {
			return nil, formatErr("national total missing or negative for %s", dates[i].Format("2006-01"))
		}
	}
	t := &Table{
		Dates:        dates,
		Distributors: distributors,
		National:     national,
		columns:      values,
		index:        make(map[string]int, len(distributors)),
	}
	for i, name := range distributors {
		if _, dup := t.index[name]; dup {
			return nil, formatErr("distributor %q listed twice", name)
		}
		if len(values[i]) != len(dates) {
			return nil, formatErr("column %q has %d rows, want %d", name, len(values[i]), len(dates))
		}
		for j, v := range values[i] {
			if v < 0 {
				return nil, formatErr("negative demand for %q in %s", name, dates[j].Format("2006-01"))
			}
		}
		t.index[name] = i
	}
	return t, nil
}

// Len returns the number of monthly rows.
func (t *Table) Len() int { return len(t.Dates) }

// Column returns a distributor's values aligned with Dates.
func (t *Table) Column(name string) ([]float64, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.columns[i], true
}

// ColumnAt returns the i-th distributor column.
func (t *Table) ColumnAt(i int) []float64 { return t.columns[i] }

// Years returns the distinct calendar years present, ascending.
func (t *Table) Years() []int {
	var out []int
	for _, d := range t.Dates {
		y := d.Year()
		if len(out) == 0 || out[len(out)-1] != y {
			out = append(out, y)
		}
	}
	return out
}

// FilterYears returns a new table restricted to rows whose year lies in
// [minYear, maxYear]. The receiver is not modified.
func (t *Table) FilterYears(minYear, maxYear int) *Table {
	var rows []int
	for i, d := range t.Dates {
		if y := d.Year(); y >= minYear && y <= maxYear {
			rows = append(rows, i)
		}
	}
	out := &Table{
		Dates:        make([]time.Time, len(rows)),
		Distributors: t.Distributors,
		National:     make([]float64, len(rows)),
		columns:      make([][]float64, len(t.columns)),
		index:        t.index,
	}
	for k, i := range rows {
		out.Dates[k] = t.Dates[i]
		out.National[k] = t.National[i]
	}
	for c, col := range t.columns {
		sub := make([]float64, len(rows))
		for k, i := range rows {
			sub[k] = col[i]
		}
		out.columns[c] = sub
	}
	return out
}

// Mean averages the non-missing values. ok is false when none are present.
func Mean(values []float64) (mean float64, ok bool) {
	var sum float64
	n := 0
	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

func formatErr(format string, args ...any) error {
	return &DataFormatError{Reason: fmt.Sprintf(format, args...)}
}
