package domain

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	_ = validate.RegisterValidation("decimal_amount", validateDecimalAmount)
}

// validateDecimalAmount accepts strictly positive decimal strings.
func validateDecimalAmount(fl validator.FieldLevel) bool {
	amount, err := decimal.NewFromString(fl.Field().String())
	if err != nil {
		return false
	}
	return amount.IsPositive()
}

// Validate checks the request before any network or launch action.
func (r PaymentRequest) Validate() error {
	return validateStruct(r)
}

// Validate checks the config passed to Initialize.
func (c Config) Validate() error {
	if err := validateStruct(c); err != nil {
		return err
	}
	if c.Environment != EnvironmentDevelopment && c.Environment != EnvironmentProduction {
		return NewPaymentError(ErrInvalidParams,
			fmt.Sprintf("unsupported environment %s", c.Environment), ErrCodeInvalidParams)
	}
	return nil
}

func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return NewPaymentError(ErrInvalidParams, err.Error(), ErrCodeInvalidParams)
	}

	fe := fieldErrs[0]
	var msg string
	switch fe.Tag() {
	case "required":
		msg = fe.Field() + " is required"
	case "decimal_amount":
		msg = fmt.Sprintf("%s must be a positive decimal, got %q", fe.Field(), fe.Value())
	default:
		msg = fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
	return NewPaymentError(ErrInvalidParams, msg, ErrCodeInvalidParams)
}
