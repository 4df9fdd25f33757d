package httpx

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator checks request DTOs and reports failures by their JSON field name.
type Validator struct {
	v *validator.Validate
}

// NewValidator constructs a validator keyed on json tags.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return &Validator{v: v}
}

// Struct validates target and returns an ErrValidation error naming the first
// offending field.
func (v *Validator) Struct(target any) error {
	err := v.v.Struct(target)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		switch fe.Tag() {
		case "required":
			return Errorf(ErrValidation, "Campo requerido: %s", fe.Field())
		default:
			return Errorf(ErrValidation, "Campo inválido: %s", fe.Field())
		}
	}
	return Errorf(ErrValidation, "Datos inválidos")
}
