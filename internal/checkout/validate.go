package checkout

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/order"
	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func shippingValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
			return ValidPhone(fl.Field().String())
		})
		validate = v
	})
	return validate
}

// ValidPhone accepts 9 to 15 digits with an optional leading "+". Spaces,
// dashes and parentheses are ignored.
func ValidPhone(s string) bool {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "+")
	digits := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == ' ' || r == '-' || r == '(' || r == ')':
		default:
			return false
		}
	}
	return digits >= 9 && digits <= 15
}

// normalizeShipping trims every field so whitespace-only input counts as
// empty.
func normalizeShipping(s order.Shipping) order.Shipping {
	return order.Shipping{
		Name:       strings.TrimSpace(s.Name),
		Email:      strings.ToLower(strings.TrimSpace(s.Email)),
		Phone:      strings.TrimSpace(s.Phone),
		Address:    strings.TrimSpace(s.Address),
		County:     strings.TrimSpace(s.County),
		Town:       strings.TrimSpace(s.Town),
		PostalCode: strings.TrimSpace(s.PostalCode),
		Notes:      strings.TrimSpace(s.Notes),
	}
}

// ValidateShipping returns a *ValidationError listing every bad field, or nil.
func ValidateShipping(s order.Shipping) error {
	err := shippingValidator().Struct(normalizeShipping(s))
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	ve := &ValidationError{Fields: make(map[string]string, len(fieldErrs))}
	for _, fe := range fieldErrs {
		ve.Fields[fe.Field()] = fieldMessage(fe)
	}
	return ve
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return "enter a valid email address"
	case "phone":
		return "enter a valid phone number"
	}
	return fe.Field() + " is invalid"
}
