package dto

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"bibliolab/internal/core/apperror"
	"bibliolab/internal/domain/catalog/book"
	"bibliolab/internal/domain/people/person"
)

var registerOnce sync.Once

// RegisterValidators installs the custom binding tags on gin's validator:
// isbn13, booktitle and personname. Field errors report JSON names.
func RegisterValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			err = errors.New("gin validator engine is not validator/v10")
			return
		}
		err = configure(v)
	})
	return err
}

func configure(v *validator.Validate) error {
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	validators := map[string]validator.Func{
		"isbn13": func(fl validator.FieldLevel) bool {
			return book.IsValidISBN(fl.Field().String())
		},
		"booktitle": func(fl validator.FieldLevel) bool {
			return book.IsValidTitle(fl.Field().String())
		},
		"personname": func(fl validator.FieldLevel) bool {
			return person.IsValidName(fl.Field().String())
		},
	}
	for tag, fn := range validators {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("register %s: %w", tag, err)
		}
	}
	return nil
}

// BindingError converts a gin binding failure into a ValidationError. The
// first failing field is reported in details.field; every failure is listed
// in details.errors.
func BindingError(err error) *apperror.AppError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperror.NewValidation("invalid request body").WithDetail("error", err.Error())
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fieldMessage(fe)
	}
	first := verrs[0]
	return apperror.NewFieldValidation(first.Field(), first.Field()+" "+fieldMessage(first)).
		WithDetail("errors", fields)
}

func fieldMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + e.Param()
	case "max":
		return "must not exceed " + e.Param()
	case "oneof":
		return "must be one of: " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "lte":
		return "must be less than or equal to " + e.Param()
	case "gt":
		return "must be greater than " + e.Param()
	case "uuid":
		return "must be a valid UUID"
	case "isbn13":
		return "must contain exactly 13 digits"
	case "booktitle":
		return "contains invalid characters"
	case "personname":
		return "may contain only letters, spaces and hyphens"
	default:
		return "is invalid"
	}
}
