package user

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	pkgerrors "user-service/pkg/errors"
)

// newValidator builds the request validator. Field names are taken from the
// json tag so error descriptors carry the wire names the client sent.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// toValidationError converts validator output into the application's
// validation error. Fields are checked independently and every failure is
// reported, in field declaration order, so one request can surface all of
// its problems at once.
func toValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fieldErrors := make([]pkgerrors.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fieldErrors = append(fieldErrors, pkgerrors.FieldError{
			Field:   fe.Field(),
			Message: fieldMessage(fe),
		})
	}

	return pkgerrors.NewValidationError(fieldErrors...)
}

// fieldMessage renders the message for a single failed rule.
func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}
