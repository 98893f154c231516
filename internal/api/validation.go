package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

var requestValidator = validator.New()

// RequestError carries per-field validation messages so handlers can return
// an errors array for multi-field failures.
type RequestError struct {
	Fields []string
}

func (e *RequestError) Error() string {
	return strings.Join(e.Fields, "; ")
}

// decodeAndValidate decodes a single JSON document into dst (rejecting
// unknown fields and trailing content) and runs struct validation.
func decodeAndValidate(body io.Reader, dst any) error {
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return &RequestError{Fields: []string{"invalid JSON body"}}
	}

	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return &RequestError{Fields: []string{"invalid JSON body"}}
	}

	if err := requestValidator.Struct(dst); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
			fields := make([]string, 0, len(validationErrors))
			for _, fe := range validationErrors {
				fields = append(fields, fieldErrorMessage(fe))
			}
			return &RequestError{Fields: fields}
		}

		return &RequestError{Fields: []string{"invalid request payload"}}
	}

	return nil
}

func fieldErrorMessage(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field()[:1]) + fe.Field()[1:]
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return "invalid email format"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "gt", "gte":
		return fmt.Sprintf("%s is out of range", field)
	default:
		return fmt.Sprintf("invalid %s", field)
	}
}

func writeRequestError(w http.ResponseWriter, err error) {
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		validationFailed(w, reqErr.Fields)
		return
	}
	badRequest(w, err.Error())
}
