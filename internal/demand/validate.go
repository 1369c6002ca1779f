package demand

import (
	"github.com/go-playground/validator/v10"
	"github.com/vinodismyname/gasdash/pkg/validation"
)

// The "mode" struct tag accepts whatever ParseMode accepts.
func init() {
	validation.Register("mode", func(fl validator.FieldLevel) bool {
		_, err := ParseMode(fl.Field().String())
		return err == nil
	})
}
