package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	validate *validator.Validate

	identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	// "ident" accepts control, rule, predicate and link names.
	if err := validate.RegisterValidation("ident", func(fl validator.FieldLevel) bool {
		return identPattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
}

// ValidIdent reports whether s is usable as a control, rule or link name.
func ValidIdent(s string) bool {
	return identPattern.MatchString(s)
}

// Struct validates v against its `validate` struct tags and reports every
// failing field.
func Struct(v any) error {
	if v == nil {
		return errors.New("value cannot be nil")
	}
	if err := validate.Struct(v); err != nil {
		return formatValidationError(err)
	}
	return nil
}

// formatValidationError converts validator errors to a more user-friendly format
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	errs := make([]error, 0, len(validationErrs))
	for _, e := range validationErrs {
		// Drop the top-level type name: "Document.Rules[0].Name" -> "Rules[0].Name".
		field := e.Namespace()
		if i := strings.IndexByte(field, '.'); i >= 0 {
			field = field[i+1:]
		}
		switch e.Tag() {
		case "required":
			errs = append(errs, fmt.Errorf("%s: field is required", field))
		case "min":
			errs = append(errs, fmt.Errorf("%s: must be at least %s", field, e.Param()))
		case "max":
			errs = append(errs, fmt.Errorf("%s: must not exceed %s", field, e.Param()))
		case "oneof":
			errs = append(errs, fmt.Errorf("%s: must be one of [%s]", field, e.Param()))
		case "ident":
			errs = append(errs, fmt.Errorf("%s: %q is not a valid identifier", field, e.Value()))
		default:
			errs = append(errs, fmt.Errorf("%s: validation failed (%s)", field, e.Tag()))
		}
	}
	return errors.Join(errs...)
}
