package models

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	pkgerrors "github.com/reviewbridge/reviewbridge-api/pkg/errors"
	"github.com/reviewbridge/reviewbridge-api/pkg/media"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// RegisterValidations installs the custom tags on v and reports fields by
// their JSON names. It is applied to gin's engine and to the package validator.
func RegisterValidations(v *validator.Validate) error {
	v.SetTagName("binding")
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	if err := v.RegisterValidation("media_type", func(fl validator.FieldLevel) bool {
		return media.IsAllowed(fl.Field().String())
	}); err != nil {
		return err
	}

	return v.RegisterValidation("media_size", func(fl validator.FieldLevel) bool {
		return media.DecodedSize(fl.Field().String()) <= media.MaxSize
	})
}

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		if err := RegisterValidations(validate); err != nil {
			panic(err)
		}
	})
	return validate
}

// Validate checks s against its binding tags and returns a
// *pkgerrors.ValidationError listing every failing field.
func Validate(s any) error {
	err := validatorInstance().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	return &pkgerrors.ValidationError{Fields: FieldErrors(verrs)}
}

// FieldErrors converts validator errors into user-facing messages
func FieldErrors(verrs validator.ValidationErrors) []pkgerrors.FieldError {
	out := make([]pkgerrors.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, pkgerrors.FieldError{
			Field:   fieldPath(fe),
			Message: fieldMessage(fe),
		})
	}
	return out
}

// fieldPath drops the root struct name: "ReviewSubmission.image.data" -> "image.data"
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return "Invalid email format"
	case "gt":
		return field + " must be greater than " + fe.Param()
	case "min":
		if fe.Kind() == reflect.String {
			return field + " must be at least " + fe.Param() + " characters"
		}
		return field + " must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return field + " must not exceed " + fe.Param() + " characters"
		}
		return field + " must be at most " + fe.Param()
	case "oneof":
		return field + " must be one of: " + fe.Param()
	case "media_type":
		return field + " must be one of: " + strings.Join(media.AllowedTypes(), ", ")
	case "media_size":
		return field + " must not exceed 5MB"
	default:
		return field + " is invalid"
	}
}
