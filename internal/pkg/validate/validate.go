// Package validate wraps go-playground/validator and reports every violated
// field as an apperr.FieldError keyed by its JSON path.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/campus-site/core/internal/pkg/apperr"
	"github.com/go-playground/validator/v10"
)

var (
	inst *validator.Validate
	once sync.Once
)

func initValidator() {
	inst = validator.New(validator.WithRequiredStructEnabled())
	inst.RegisterTagNameFunc(fieldName)
}

// fieldName uses the JSON name, falling back to the BSON name for variant
// bodies that are flattened out of the JSON envelope.
func fieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		name = strings.SplitN(fld.Tag.Get("bson"), ",", 2)[0]
	}
	if name == "-" {
		return ""
	}
	return name
}

// Engine returns the shared validator.
func Engine() *validator.Validate {
	once.Do(initValidator)
	return inst
}

// Struct validates s and converts failures into a single Validation error
// listing every offending field.
func Struct(op string, s any) error {
	err := Engine().Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Validation(op, apperr.FieldError{Field: "", Rule: "invalid", Message: err.Error()})
	}
	fields := make([]apperr.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apperr.FieldError{
			Field:   path(fe.Namespace()),
			Rule:    fe.Tag(),
			Message: message(fe),
		})
	}
	return apperr.Validation(op, fields...)
}

// path drops the root struct name from a namespace such as
// "Document.article.category".
func path(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Sprintf("failed %q", fe.Tag())
	}
}
