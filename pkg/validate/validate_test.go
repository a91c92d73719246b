package validate_test

import (
	"testing"

	"github.com/Astemirdum/library-management/pkg/validate"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Title string `json:"title" validate:"required"`
	ISBN  string `json:"isbn" validate:"required,isbn"`
	Ref   string `json:"ref" validate:"omitempty,mongodb"`
	Count *int   `json:"count" validate:"required,min=0"`
}

func TestCustomValidator_Validate(t *testing.T) {
	t.Parallel()
	zero, negative := 0, -1
	tests := []struct {
		name   string
		input  sample
		fields map[string]string
	}{
		{
			name:  "ok",
			input: sample{Title: "Dune", ISBN: "9780441172719", Count: &zero},
		},
		{
			name:  "ok. hyphenated isbn",
			input: sample{Title: "Dune", ISBN: "978-0-441-17271-9", Ref: "64b7f0c2a1b2c3d4e5f60718", Count: &zero},
		},
		{
			name:  "ok. isbn-10 with X check digit",
			input: sample{Title: "x", ISBN: "0-8044-2957-X", Count: &zero},
		},
		{
			name:  "err. missing fields",
			input: sample{},
			fields: map[string]string{
				"title": "title is a required field",
				"isbn":  "isbn is a required field",
				"count": "count is a required field",
			},
		},
		{
			name:  "err. bad values",
			input: sample{Title: "x", ISBN: "12345", Ref: "nope", Count: &negative},
			fields: map[string]string{
				"isbn":  "isbn must be a valid ISBN-10 or ISBN-13",
				"ref":   "ref must be a valid MongoDB ObjectId",
				"count": "count must be 0 or greater",
			},
		},
	}
	v := validate.NewCustomValidator()
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := v.Validate(tt.input)
			if len(tt.fields) == 0 {
				require.NoError(t, err)
				return
			}
			var verr *validate.ValidationError
			require.True(t, errors.As(err, &verr))
			got := make(map[string]string, len(verr.Errors))
			for _, fe := range verr.Errors {
				got[fe.Field] = fe.Message
			}
			require.Equal(t, tt.fields, got)
		})
	}
}

func TestValidationError_Error(t *testing.T) {
	err := validate.NewValidationError(
		validate.FieldError{Field: "title", Message: "title is a required field"},
		validate.FieldError{Message: "malformed body"},
	)
	require.Equal(t, "validation failed: title: title is a required field; malformed body", err.Error())
}
