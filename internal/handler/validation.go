package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	customError "github.com/segyhp/credit-engine/pkg/errors"
	"github.com/segyhp/credit-engine/pkg/utils"
)

// NewValidator returns a validator that understands decimal.Decimal fields through
// the decimal_gt, decimal_gte and decimal_scale tags, and reports fields by their
// JSON name.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})

	mustRegister(v, "decimal_gt", decimalCompare(func(cmp int) bool { return cmp > 0 }))
	mustRegister(v, "decimal_gte", decimalCompare(func(cmp int) bool { return cmp >= 0 }))
	mustRegister(v, "decimal_scale", decimalScale)

	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s validation: %v", tag, err))
	}
}

func decimalCompare(accept func(cmp int) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		value, err := decimal.NewFromString(fl.Field().String())
		if err != nil {
			return false
		}
		bound, err := decimal.NewFromString(fl.Param())
		if err != nil {
			return false
		}
		return accept(value.Cmp(bound))
	}
}

// decimalScale accepts values with at most Param() fractional digits.
func decimalScale(fl validator.FieldLevel) bool {
	value, err := decimal.NewFromString(fl.Field().String())
	if err != nil {
		return false
	}
	places, err := strconv.ParseInt(fl.Param(), 10, 32)
	if err != nil {
		return false
	}
	return utils.HasScale(value, int32(places))
}

// fieldErrors maps a struct field to the domain error reported when it fails validation.
type fieldErrors map[string]func(fe validator.FieldError) error

// decodeAndValidate reads a JSON body into dst and validates it.
func decodeAndValidate(v *validator.Validate, r *http.Request, dst interface{}, fields fieldErrors) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return customError.WrapValidation(fmt.Errorf("malformed request body: %w", err))
	}

	err := v.Struct(dst)
	if err == nil {
		return nil
	}

	var errs validator.ValidationErrors
	if errors.As(err, &errs) {
		for _, fe := range errs {
			if wrap, ok := fields[fe.StructField()]; ok {
				return wrap(fe)
			}
		}
	}
	return customError.WrapValidation(err)
}

func invalidTerms(fe validator.FieldError) error {
	return customError.WrapInvalidLoanTerms(fmt.Sprintf("%s must satisfy %s %s", fe.Field(), fe.Tag(), fe.Param()))
}

func invalidAmount(fe validator.FieldError) error {
	return customError.WrapInvalidPaymentAmount(fmt.Sprint(fe.Value()))
}
