package dataset

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

const testSheet = "2008-2023"

// buildWorkbook lays out the demand sheet the way it is published: one row
// per metric, months across the first row.
func buildWorkbook(t *testing.T, rows [][]any) *excelize.File {
	t.Helper()
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetName("Sheet1", testSheet))
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		r := row
		require.NoError(t, f.SetSheetRow(testSheet, cell, &r))
	}
	return f
}

func saveWorkbook(t *testing.T, f *excelize.File) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "demanda.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
	return path
}

func sampleRows() [][]any {
	return [][]any{
		{"CONSUMO DE GÁS NATURALPOR DISTRIBUIDORA SEM O SEGMENTO TERMELÉTRICO (em milhões de m³/dia)", "2020-01", "2020-02", "2021-01"},
		{"D1 (SP)", 10, 10, 10},
		{"D2 (BA)", 5, 5, 5},
		{"TOTAL DISTRIBUIDORAS SEM O SEGMENTO TERMELÉTRICO", 15, 15, 15},
	}
}

func TestParse_TransposesSheet(t *testing.T) {
	rows := sampleRows()
	f := buildWorkbook(t, rows)
	defer f.Close()

	table, err := Parse(f, DefaultOptions())
	require.NoError(t, err)

	// One row per month column: header length minus the label column.
	require.Equal(t, len(rows[0])-1, table.Len())
	require.Equal(t, []string{"D1 (SP)", "D2 (BA)"}, table.Distributors)
	require.Equal(t, []float64{15, 15, 15}, table.National)

	col, ok := table.Column("D1 (SP)")
	require.True(t, ok)
	require.Equal(t, []float64{10, 10, 10}, col)

	require.Equal(t, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), table.Dates[0])
	for i := 1; i < table.Len(); i++ {
		require.True(t, table.Dates[i].After(table.Dates[i-1]))
	}
	require.Equal(t, []int{2020, 2021}, table.Years())
}

func TestParse_LabelsMatchIgnoringAccentsAndSpacing(t *testing.T) {
	rows := sampleRows()
	rows[0][0] = "consumo de gas natural por distribuidora sem o segmento termeletrico (em milhoes de m³/dia)"
	rows[3][0] = "Total Distribuidoras  sem o Segmento Termelétrico"
	f := buildWorkbook(t, rows)
	defer f.Close()

	table, err := Parse(f, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, table.Distributors, 2)
}

func TestParse_SerialDates(t *testing.T) {
	rows := sampleRows()
	rows[0][1] = 43831 // 2020-01-01
	rows[0][2] = 43862 // 2020-02-01
	rows[0][3] = 44197 // 2021-01-01
	f := buildWorkbook(t, rows)
	defer f.Close()

	table, err := Parse(f, DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, "2020-02", table.Dates[1].Format("2006-01"))
	require.Equal(t, "2021-01", table.Dates[2].Format("2006-01"))
}

func TestParse_MissingSheet(t *testing.T) {
	f := buildWorkbook(t, sampleRows())
	defer f.Close()

	_, err := Parse(f, Options{Sheet: "2009-2024"})
	require.ErrorIs(t, err, ErrDataFormat)
}

func TestParse_MissingHeaderLabel(t *testing.T) {
	rows := sampleRows()
	rows[0][0] = "Something else"
	f := buildWorkbook(t, rows)
	defer f.Close()

	_, err := Parse(f, DefaultOptions())
	require.ErrorIs(t, err, ErrDataFormat)
}

func TestParse_MissingNationalTotal(t *testing.T) {
	rows := sampleRows()[:3]
	f := buildWorkbook(t, rows)
	defer f.Close()

	_, err := Parse(f, DefaultOptions())
	require.ErrorIs(t, err, ErrDataFormat)
	require.Contains(t, err.Error(), "national total")
}

func TestParse_MalformedDate(t *testing.T) {
	rows := sampleRows()
	rows[0][2] = "fev/2020"
	f := buildWorkbook(t, rows)
	defer f.Close()

	_, err := Parse(f, DefaultOptions())
	require.ErrorIs(t, err, ErrParse)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	require.Equal(t, "C1", pe.Cell)
}

func TestParse_BareYearIsNotADate(t *testing.T) {
	rows := sampleRows()
	rows[0][1] = 2020
	f := buildWorkbook(t, rows)
	defer f.Close()

	_, err := Parse(f, DefaultOptions())
	require.ErrorIs(t, err, ErrParse)
}

func TestParse_RejectsNegativeAndNonNumeric(t *testing.T) {
	rows := sampleRows()
	rows[1][2] = -1
	f := buildWorkbook(t, rows)
	_, err := Parse(f, DefaultOptions())
	require.ErrorIs(t, err, ErrDataFormat)
	require.NoError(t, f.Close())

	rows = sampleRows()
	rows[2][1] = "n/d"
	f = buildWorkbook(t, rows)
	_, err = Parse(f, DefaultOptions())
	require.ErrorIs(t, err, ErrDataFormat)
	require.NoError(t, f.Close())
}

func TestParse_RejectsUnorderedMonths(t *testing.T) {
	rows := sampleRows()
	rows[0][2] = "2020-01"
	f := buildWorkbook(t, rows)
	defer f.Close()

	_, err := Parse(f, DefaultOptions())
	require.ErrorIs(t, err, ErrDataFormat)
}

func TestParse_BlankCellsAreMissing(t *testing.T) {
	rows := sampleRows()
	rows[2] = []any{"D2 (BA)", 5, "", 7}
	f := buildWorkbook(t, rows)
	defer f.Close()

	table, err := Parse(f, DefaultOptions())
	require.NoError(t, err)
	col, _ := table.Column("D2 (BA)")
	require.True(t, math.IsNaN(col[1]))

	mean, ok := Mean(col)
	require.True(t, ok)
	require.InDelta(t, 6.0, mean, 1e-9)
}

func TestLoad_FromDisk(t *testing.T) {
	path := saveWorkbook(t, buildWorkbook(t, sampleRows()))

	table, err := Load(context.Background(), path, Options{})
	require.NoError(t, err)
	require.Equal(t, 3, table.Len())
}

func TestLoad_DataFormatErrorCarriesPath(t *testing.T) {
	rows := sampleRows()[:3]
	path := saveWorkbook(t, buildWorkbook(t, rows))

	_, err := Load(context.Background(), path, Options{})
	var dfe *DataFormatError
	require.ErrorAs(t, err, &dfe)
	require.Equal(t, path, dfe.Path)
}

func TestFilterYears(t *testing.T) {
	f := buildWorkbook(t, sampleRows())
	defer f.Close()
	table, err := Parse(f, DefaultOptions())
	require.NoError(t, err)

	sub := table.FilterYears(2020, 2020)
	require.Equal(t, 2, sub.Len())
	col, ok := sub.Column("D2 (BA)")
	require.True(t, ok)
	require.Equal(t, []float64{5, 5}, col)
	// The source table is untouched.
	require.Equal(t, 3, table.Len())

	require.Equal(t, 0, table.FilterYears(2030, 2031).Len())
}
