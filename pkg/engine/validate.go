package engine

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// fieldPath strips the root struct name from a validator namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

// formatValidationError turns a field error into a request error message.
func formatValidationError(fe validator.FieldError) string {
	field := fieldPath(fe)
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return field + " must have at least " + fe.Param() + " entries"
	case "gte":
		return field + " must be at least " + fe.Param()
	case "lte":
		return field + " must be at most " + fe.Param()
	case "gt":
		return field + " must be greater than " + fe.Param()
	case "oneof":
		return field + " must be one of " + fe.Param()
	default:
		return field + " failed " + fe.Tag() + " validation"
	}
}

// validationCode classifies a field error: bad coordinates and radiuses are
// invalid values, everything else is an invalid option.
func validationCode(fe validator.FieldError) string {
	field := fieldPath(fe)
	switch {
	case strings.HasPrefix(field, "Coordinates[") || strings.HasPrefix(field, "Coordinate."):
		return CodeInvalidValue
	case strings.HasPrefix(field, "Radiuses["):
		return CodeInvalidValue
	}
	return CodeInvalidOptions
}

// checkStruct validates s and converts the first failure into a request
// error.
func checkStruct(s any) *requestError {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &requestError{code: CodeInvalidOptions, message: err.Error()}
	}
	msgs := make([]string, len(verrs))
	for i, fe := range verrs {
		msgs[i] = formatValidationError(fe)
	}
	return &requestError{code: validationCode(verrs[0]), message: strings.Join(msgs, "; ")}
}
