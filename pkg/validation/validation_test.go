package validation

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
	"github.com/vinodismyname/gasdash/pkg/pagination"
)

func init() {
	Register("mode", func(fl validator.FieldLevel) bool {
		switch fl.Field().String() {
		case "distributor", "regiao":
			return true
		}
		return false
	})
}

type rangeInput struct {
	MinYear int      `json:"min_year" validate:"gte=1900,lte=2100"`
	MaxYear int      `json:"max_year" validate:"gte=1900,lte=2100,gtefield=MinYear"`
	Mode    string   `json:"mode" validate:"omitempty,mode"`
	Names   []string `json:"entities" validate:"omitempty,max=10,dive,entity"`
	Cursor  string   `json:"cursor" validate:"omitempty,cursor"`
}

type pathInput struct {
	Path string `json:"path" validate:"required,filepath_ext"`
}

func TestValidateStruct_Range(t *testing.T) {
	require.Empty(t, ValidateStruct(rangeInput{MinYear: 2010, MaxYear: 2012, Mode: "regiao"}))
	require.Equal(t, "VALIDATION: maxyear must be >= minyear", ValidateStruct(rangeInput{MinYear: 2012, MaxYear: 2010}))
	require.Equal(t, "VALIDATION: minyear must satisfy gte=1900", ValidateStruct(rangeInput{MinYear: 10, MaxYear: 2010}))
	require.Equal(t, "VALIDATION: mode must be distributor or region", ValidateStruct(rangeInput{MinYear: 2010, MaxYear: 2010, Mode: "country"}))
	require.Equal(t, "VALIDATION: names[0] contains an empty or oversized name", ValidateStruct(rangeInput{MinYear: 2010, MaxYear: 2010, Names: []string{" "}}))
}

func TestValidateStruct_Cursor(t *testing.T) {
	tok, err := pagination.EncodeCursor(pagination.Cursor{M: "region", E: "h", Y0: 2010, Y1: 2010, Ps: 5})
	require.NoError(t, err)
	require.Empty(t, ValidateStruct(rangeInput{MinYear: 2010, MaxYear: 2010, Cursor: tok}))
	require.Equal(t, "CURSOR_INVALID: failed to decode cursor; restart pagination", ValidateStruct(rangeInput{MinYear: 2010, MaxYear: 2010, Cursor: "%%"}))
}

func TestValidateStruct_Path(t *testing.T) {
	require.Empty(t, ValidateStruct(pathInput{Path: "/data/Demanda.XLSX"}))
	require.Equal(t, "VALIDATION: path is required", ValidateStruct(pathInput{}))
	require.Equal(t, "VALIDATION: path must be an Excel workbook (.xlsx, .xlsm)", ValidateStruct(pathInput{Path: "/data/x.csv"}))
}

func TestRegister_AddsTag(t *testing.T) {
	type even struct {
		N int `validate:"even"`
	}
	Register("even", func(fl validator.FieldLevel) bool { return fl.Field().Int()%2 == 0 })
	require.Empty(t, ValidateStruct(even{N: 4}))
	require.Equal(t, "VALIDATION: invalid n", ValidateStruct(even{N: 3}))
	require.Panics(t, func() { Register("", nil) })
}
