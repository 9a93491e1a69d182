// internal/config/validator.go
//
// Thin wrapper around go-playground/validator.
//
// Context
// -------
// `Load` calls `validateStruct` right after unmarshal and defaults.  Any
// failure aborts startup so the binary never runs half-configured.  The one
// custom rule, `dsn_verbs`, rejects DSN templates with more than one `%s`.

package config

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

var v = newValidator()

func newValidator() *validator.Validate {
	vv := validator.New()
	_ = vv.RegisterValidation("dsn_verbs", func(fl validator.FieldLevel) bool {
		return strings.Count(fl.Field().String(), "%s") <= 1
	})
	vv.RegisterStructValidation(func(sl validator.StructLevel) {
		d := sl.Current().Interface().(Database)
		if strings.Contains(d.DSN, "%s") && d.Password == "" {
			sl.ReportError(d.Password, "Password", "password", "required_with_verb", "")
		}
	}, Database{})
	return vv
}

// validateStruct returns the first validation error, or nil on success.
func validateStruct(c *Config) error {
	return v.Struct(c)
}
