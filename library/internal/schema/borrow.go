package schema

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/Astemirdum/library-management/library/internal/model"
	"github.com/Astemirdum/library-management/pkg/validate"
	"github.com/araddon/dateparse"
)

type createBorrowInput struct {
	Book     json.RawMessage `json:"book"`
	Quantity *int            `json:"quantity"`
	DueDate  json.RawMessage `json:"dueDate"`
}

type createBorrow struct {
	Book     string `json:"book" validate:"required,mongodb"`
	Quantity *int   `json:"quantity" validate:"required,min=1"`
}

// ParseCreateBorrow validates a borrow body. book may be an id string or an
// extended JSON {"$oid": ...} object; dueDate may be a date string or epoch milliseconds.
func ParseCreateBorrow(v Validator, body []byte) (model.CreateBorrow, error) {
	var in createBorrowInput
	if err := decode(body, &in); err != nil {
		return model.CreateBorrow{}, err
	}
	req := createBorrow{
		Book:     coerceObjectID(in.Book),
		Quantity: in.Quantity,
	}

	var issues []validate.FieldError
	dueDate, ok := coerceDate(in.DueDate)
	switch {
	case isNull(in.DueDate):
		issues = append(issues, validate.FieldError{Field: "dueDate", Message: "dueDate is a required field"})
	case !ok:
		issues = append(issues, validate.FieldError{Field: "dueDate", Message: "dueDate must be a valid date"})
	}
	if err := merge(v.Validate(req), issues...); err != nil {
		return model.CreateBorrow{}, err
	}

	return model.CreateBorrow{
		BookID:   req.Book,
		Quantity: *req.Quantity,
		DueDate:  dueDate,
	}, nil
}

func isNull(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}

func coerceObjectID(raw json.RawMessage) string {
	if isNull(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.ToLower(s)
	}
	var oid struct {
		Hex string `json:"$oid"`
	}
	if err := json.Unmarshal(raw, &oid); err == nil && oid.Hex != "" {
		return strings.ToLower(oid.Hex)
	}
	return string(raw)
}

// maxEpochMillis is the largest instant a JavaScript Date can hold.
const maxEpochMillis = 8.64e15

func coerceDate(raw json.RawMessage) (time.Time, bool) {
	if isNull(raw) {
		return time.Time{}, false
	}
	var ms float64
	if err := json.Unmarshal(raw, &ms); err == nil {
		if math.IsNaN(ms) || math.Abs(ms) > maxEpochMillis {
			return time.Time{}, false
		}
		return time.UnixMilli(int64(ms)).UTC(), true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return time.Time{}, false
	}
	t, err := dateparse.ParseIn(strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}
