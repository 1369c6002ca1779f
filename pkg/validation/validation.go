package validation

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/vinodismyname/gasdash/pkg/pagination"
)

var (
	v    *validator.Validate
	once sync.Once
)

// Validator returns a singleton validator with custom rules registered.
func Validator() *validator.Validate {
	once.Do(func() {
		v = validator.New()
		_ = v.RegisterValidation("filepath_ext", func(fl validator.FieldLevel) bool {
			s := strings.ToLower(strings.TrimSpace(fl.Field().String()))
			return strings.HasSuffix(s, ".xlsx") || strings.HasSuffix(s, ".xlsm")
		})
		// empty is allowed; pair with omitempty
		_ = v.RegisterValidation("cursor", func(fl validator.FieldLevel) bool {
			s := strings.TrimSpace(fl.Field().String())
			if s == "" {
				return true
			}
			_, err := pagination.DecodeCursor(s)
			return err == nil
		})
		_ = v.RegisterValidation("entity", func(fl validator.FieldLevel) bool {
			s := strings.TrimSpace(fl.Field().String())
			return s != "" && len(s) <= 200
		})
	})
	return v
}

// Register adds a domain tag to the shared validator. Callers register from
// package init so the tag exists before the first struct is validated.
func Register(tag string, fn validator.Func) {
	if err := Validator().RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("validation: register %q: %v", tag, err))
	}
}

// ValidateStruct validates a struct and returns a user-friendly error string
// suitable for MCP tool errors. Returns empty string when valid.
func ValidateStruct(s any) string {
	err := Validator().Struct(s)
	if err == nil {
		return ""
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return "VALIDATION: invalid inputs"
	}
	fe := ve[0]
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("VALIDATION: %s is required", field)
	case "filepath_ext":
		return "VALIDATION: path must be an Excel workbook (.xlsx, .xlsm)"
	case "mode":
		return "VALIDATION: mode must be distributor or region"
	case "cursor":
		return "CURSOR_INVALID: failed to decode cursor; restart pagination"
	case "entity":
		return fmt.Sprintf("VALIDATION: %s contains an empty or oversized name", field)
	case "gtefield":
		return fmt.Sprintf("VALIDATION: %s must be >= %s", field, strings.ToLower(fe.Param()))
	case "min", "max", "gt", "gte", "lte":
		return fmt.Sprintf("VALIDATION: %s must satisfy %s=%s", field, fe.Tag(), fe.Param())
	case "dive":
		return fmt.Sprintf("VALIDATION: invalid %s", field)
	}
	return fmt.Sprintf("VALIDATION: invalid %s", field)
}
