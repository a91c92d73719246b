package validate

import (
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/pkg/errors"
)

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every field an input was rejected for.
type ValidationError struct {
	Errors []FieldError `json:"errors"`
}

func NewValidationError(fields ...FieldError) *ValidationError {
	return &ValidationError{Errors: fields}
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		if fe.Field == "" {
			msgs = append(msgs, fe.Message)
			continue
		}
		msgs = append(msgs, fe.Field+": "+fe.Message)
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

type CustomValidator struct {
	validator *validator.Validate
	trans     ut.Translator
}

func NewCustomValidator() *CustomValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonTagName)

	enLocale := en.New()
	trans, _ := ut.New(enLocale, enLocale).GetTranslator("en")
	if err := enTranslations.RegisterDefaultTranslations(v, trans); err != nil {
		panic(errors.Wrap(err, "register default translations"))
	}

	cv := &CustomValidator{validator: v, trans: trans}
	if err := v.RegisterValidation("isbn", cv.isbn); err != nil {
		panic(errors.Wrap(err, "register isbn"))
	}
	for tag, text := range map[string]string{
		"isbn":    "{0} must be a valid ISBN-10 or ISBN-13",
		"mongodb": "{0} must be a valid MongoDB ObjectId",
	} {
		if err := registerTranslation(v, trans, tag, text); err != nil {
			panic(errors.Wrapf(err, "register %s translation", tag))
		}
	}
	return cv
}

// Validate runs struct validation and converts validator errors into *ValidationError.
func (cv *CustomValidator) Validate(i interface{}) error {
	err := cv.validator.Struct(i)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	out := &ValidationError{Errors: make([]FieldError, 0, len(ve))}
	for _, fe := range ve {
		out.Errors = append(out.Errors, FieldError{
			Field:   fe.Field(),
			Message: fe.Translate(cv.trans),
		})
	}
	return out
}

// isbn accepts ISBN-10/13 written with or without hyphens and spaces.
func (cv *CustomValidator) isbn(fl validator.FieldLevel) bool {
	s := strings.NewReplacer("-", "", " ", "").Replace(fl.Field().String())
	return cv.validator.Var(s, "isbn10|isbn13") == nil
}

func registerTranslation(v *validator.Validate, trans ut.Translator, tag, text string) error {
	return v.RegisterTranslation(tag, trans,
		func(ut ut.Translator) error {
			return ut.Add(tag, text, true)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			t, err := ut.T(tag, fe.Field())
			if err != nil {
				return fe.Error()
			}
			return t
		})
}

func jsonTagName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	switch name {
	case "-":
		return ""
	case "":
		return fld.Name
	}
	return name
}
