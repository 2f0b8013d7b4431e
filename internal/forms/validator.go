// Package forms validates submitted HTML forms and converts them to typed input.
// Validation never touches a store.
package forms

import (
	"errors"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldErrors maps a form field name to a message shown next to the field
type FieldErrors map[string]string

// Add records msg for field unless the field already has an error
func (fe FieldErrors) Add(field, msg string) {
	if _, exists := fe[field]; !exists {
		fe[field] = msg
	}
}

// Any reports whether at least one field failed
func (fe FieldErrors) Any() bool {
	return len(fe) > 0
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report errors under the HTML field name
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	_ = v.RegisterValidation("money", isMoney)
	_ = v.RegisterValidation("maxbytes", maxBytes)
	return v
}

// moneyPattern fits NUMERIC(12,2): up to ten integer digits and two fraction digits
var moneyPattern = regexp.MustCompile(`^\d{1,10}(\.\d{1,2})?$`)

// isMoney accepts plain non-negative decimals that fit the amount column.
// Exponent, hex and underscore forms are rejected.
func isMoney(fl validator.FieldLevel) bool {
	raw := strings.TrimSpace(fl.Field().String())
	if !moneyPattern.MatchString(raw) {
		return false
	}
	_, err := strconv.ParseFloat(raw, 64)
	return err == nil
}

// maxBytes bounds the UTF-8 length of a string, unlike max which counts runes
func maxBytes(fl validator.FieldLevel) bool {
	limit, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}
	return len(fl.Field().String()) <= limit
}

// check runs struct validation and collects messages per field
func check(form interface{}) FieldErrors {
	errs := FieldErrors{}
	err := validate.Struct(form)
	if err == nil {
		return errs
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errs.Add("form", "Invalid form submission.")
		return errs
	}
	for _, fe := range verrs {
		errs.Add(fe.Field(), message(fe))
	}
	return errs
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "min":
		return "Must be at least " + fe.Param() + " characters."
	case "max":
		return "Must be at most " + fe.Param() + " characters."
	case "eqfield":
		return "Passwords must match."
	case "datetime":
		return "Enter a valid date (YYYY-MM-DD)."
	case "maxbytes":
		return "Must be at most " + fe.Param() + " bytes."
	case "money":
		return "Enter a valid non-negative amount."
	case "oneof":
		return "Must be one of: " + fe.Param() + "."
	default:
		return "Invalid value."
	}
}
