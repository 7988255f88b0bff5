package handler

import (
	"errors"
	"testing"
)

type sample struct {
	Email string `json:"customer_email" validate:"required,email"`
	Start string `json:"start_booking_date" validate:"required,datetime=2006-01-02"`
	Skip  string `json:"-" validate:"omitempty,max=2"`
}

func TestRequestValidatorUsesJSONNames(t *testing.T) {
	v := NewRequestValidator()
	err := v.Validate(&sample{Email: "x", Start: "2024/01/01"})
	var fe FieldErrors
	if !errors.As(err, &fe) {
		t.Fatalf("err = %v, want FieldErrors", err)
	}
	if fe["customer_email"] != "customer_email must be a valid email address" {
		t.Fatalf("email message = %q", fe["customer_email"])
	}
	if fe["start_booking_date"] != "start_booking_date must be a date formatted YYYY-MM-DD" {
		t.Fatalf("date message = %q", fe["start_booking_date"])
	}
	if err := v.Validate(&sample{Email: "a@b.co", Start: "2024-01-01"}); err != nil {
		t.Fatalf("valid sample rejected: %v", err)
	}
}
