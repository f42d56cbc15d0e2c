package api

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// newValidator reports fields by their JSON names
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateRequest writes a 422 for the first invalid field of req
func (s *Server) validateRequest(w http.ResponseWriter, req any) bool {
	err := s.validate.Struct(req)
	if err == nil {
		return true
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		writeError(w, http.StatusBadRequest, "invalid request")
		return false
	}

	fe := verrs[0]
	field := fe.Field()
	// dive errors are reported as ids[1]; the client sent "ids"
	if i := strings.IndexByte(field, '['); i > 0 {
		field = field[:i]
	}
	writeValidation(w, field, validationMessage(field, fe))
	return false
}

func validationMessage(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "min":
		return fmt.Sprintf("The %s field is required.", field)
	case "http_url":
		return fmt.Sprintf("The %s must be a valid URL.", field)
	case "oneof":
		return fmt.Sprintf("The selected %s is invalid. Use one of: %s.", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "max":
		return fmt.Sprintf("The %s may not be greater than %s characters.", field, fe.Param())
	default:
		return fmt.Sprintf("The %s field is invalid.", field)
	}
}
