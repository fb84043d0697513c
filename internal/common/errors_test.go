package common

import (
	"errors"
	"testing"
)

func TestAppErrorUnwrap(t *testing.T) {
	err := NewAppError("EXTRACT_FAILED", "extracting bill", ErrMissingRequiredField)
	if !errors.Is(err, ErrMissingRequiredField) {
		t.Error("AppError should unwrap to its cause")
	}
	if err.Error() != "EXTRACT_FAILED: extracting bill: missing required field" {
		t.Errorf("unexpected message: %q", err.Error())
	}
}

func TestWrapError(t *testing.T) {
	if WrapError(nil, "ignored") != nil {
		t.Error("wrapping nil should stay nil")
	}
	err := WrapError(ErrUnrecognizedBillType, "processing x.pdf")
	if !errors.Is(err, ErrUnrecognizedBillType) {
		t.Error("sentinel lost through wrap")
	}
}

func TestMissingFieldError(t *testing.T) {
	err := MissingFieldError("issue date")
	if !errors.Is(err, ErrMissingRequiredField) {
		t.Error("MissingFieldError should match the sentinel")
	}
}
