// Package validation runs struct-tag validation on boundary inputs and reports
// failures as apperr.ErrInvalidInput.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"bidmarket/internal/apperr"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// Struct validates v and flattens field errors into a single InvalidInput error.
func Struct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.InvalidInput("%v", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", fe.Field(), fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
		}
	}
	return apperr.InvalidInput("%s", strings.Join(msgs, "; "))
}

// NonNegative checks an optional money amount.
func NonNegative(field string, d decimal.NullDecimal) error {
	if d.Valid && d.Decimal.IsNegative() {
		return apperr.InvalidInput("%s must be >= 0", field)
	}
	return nil
}

// Positive checks a required money amount.
func Positive(field string, d decimal.Decimal) error {
	if !d.IsPositive() {
		return apperr.InvalidInput("%s must be > 0", field)
	}
	return nil
}
