package handler

import (
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// NewValidator returns a validator that understands decimal_gt=N and decimal_gte=N on decimal fields
func NewValidator() *validator.Validate {
	v := validator.New()

	// Decimals are validated through their string form
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})

	_ = v.RegisterValidation("decimal_gt", decimalCompare(func(d, p decimal.Decimal) bool { return d.GreaterThan(p) }))
	_ = v.RegisterValidation("decimal_gte", decimalCompare(func(d, p decimal.Decimal) bool { return d.GreaterThanOrEqual(p) }))
	return v
}

func decimalCompare(cmp func(value, param decimal.Decimal) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		param, err := decimal.NewFromString(fl.Param())
		if err != nil {
			return false
		}

		value, err := decimal.NewFromString(fl.Field().String())
		if err != nil {
			return false
		}
		return cmp(value, param)
	}
}
