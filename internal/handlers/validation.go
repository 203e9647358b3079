package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/reviewbridge/reviewbridge-api/internal/models"
	pkgerrors "github.com/reviewbridge/reviewbridge-api/pkg/errors"
)

// RegisterBindingValidations installs the review validators on gin's binding
// engine. Must run before the router serves requests.
func RegisterBindingValidations() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}
	return models.RegisterValidations(v)
}

// ParseBindErrors converts a ShouldBind error into field messages. It returns
// nil when the body could not be decoded at all.
func ParseBindErrors(err error) []pkgerrors.FieldError {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return models.FieldErrors(verrs)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return []pkgerrors.FieldError{{
			Field:   typeErr.Field,
			Message: fmt.Sprintf("%s must be %s", typeErr.Field, kindWord(typeErr.Type)),
		}}
	}

	return nil
}

// kindWord names a Go type the way a JSON client thinks of it
func kindWord(t reflect.Type) string {
	if t == nil {
		return "a valid value"
	}
	switch t.Kind() {
	case reflect.Pointer:
		return kindWord(t.Elem())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "a whole number"
	case reflect.Float32, reflect.Float64:
		return "a number"
	case reflect.Bool:
		return "a boolean"
	case reflect.String:
		return "a string"
	case reflect.Slice, reflect.Array:
		return "a list"
	case reflect.Map, reflect.Struct:
		return "an object"
	default:
		return "a valid value"
	}
}
