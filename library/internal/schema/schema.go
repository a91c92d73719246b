// Package schema turns raw request input into validated model values.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/Astemirdum/library-management/pkg/validate"
	"github.com/pkg/errors"
)

type Validator interface {
	Validate(i interface{}) error
}

// decode unmarshals body into v. JSON type mismatches become field errors.
func decode(body []byte, v interface{}) error {
	if len(bytes.TrimSpace(body)) == 0 {
		body = []byte("{}")
	}
	err := json.Unmarshal(body, v)
	if err == nil {
		return nil
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		if typeErr.Field == "" {
			return validate.NewValidationError(validate.FieldError{
				Message: fmt.Sprintf("expected object, received %s", typeErr.Value),
			})
		}
		return validate.NewValidationError(validate.FieldError{
			Field:   typeErr.Field,
			Message: fmt.Sprintf("expected %s, received %s", kindName(typeErr.Type), typeErr.Value),
		})
	}
	return validate.NewValidationError(validate.FieldError{
		Message: "malformed JSON body: " + err.Error(),
	})
}

func kindName(t reflect.Type) string {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Bool:
		return "boolean"
	case reflect.String:
		return "string"
	}
	return t.Kind().String()
}

// nullFields reports every key of body that is explicitly null and maps to a
// field of v. An omitted field is fine, a null one is a type error.
func nullFields(body []byte, v interface{}) []validate.FieldError {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil
	}
	var issues []validate.FieldError
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		val, ok := raw[name]
		if !ok || !bytes.Equal(bytes.TrimSpace(val), []byte("null")) {
			continue
		}
		issues = append(issues, validate.FieldError{
			Field:   name,
			Message: fmt.Sprintf("expected %s, received null", kindName(f.Type)),
		})
	}
	return issues
}

// merge appends extra field errors to a validator result.
func merge(err error, extra ...validate.FieldError) error {
	if err == nil {
		if len(extra) == 0 {
			return nil
		}
		return validate.NewValidationError(extra...)
	}
	var verr *validate.ValidationError
	if !errors.As(err, &verr) {
		return err
	}
	verr.Errors = append(verr.Errors, extra...)
	return verr
}

func trim(s *string) {
	if s != nil {
		*s = strings.TrimSpace(*s)
	}
}
