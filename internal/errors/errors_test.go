package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestAppError_ErrorAndUnwrap(t *testing.T) {
	cause := errors.New("redis: nil")
	err := Wrap(cause, ErrCodeNotFound, "recipe not found")

	if got, want := err.Error(), "recipe not found: redis: nil"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the cause")
	}
	if NotFound("gone").Error() != "gone" {
		t.Error("Error() without cause should be the message")
	}
}

func TestWrap_Nil(t *testing.T) {
	if Wrap(nil, ErrCodeInternal, "x") != nil {
		t.Error("Wrap(nil) should return nil")
	}
}

func TestWrapf(t *testing.T) {
	err := Wrapf(errors.New("boom"), ErrCodeInternal, "load profile %s", "u1")
	if err.Message != "load profile u1" {
		t.Errorf("Message = %q", err.Message)
	}
}

func TestPredicates(t *testing.T) {
	tests := []struct {
		name string
		err  error
		pred func(error) bool
	}{
		{name: "not found", err: NotFound("x"), pred: IsNotFound},
		{name: "validation", err: Validation("x"), pred: IsValidation},
		{name: "validation field", err: ValidationField("title", "x"), pred: IsValidation},
		{name: "unauthorized", err: Unauthorized("x"), pred: IsUnauthorized},
		{name: "conflict", err: &AppError{Code: ErrCodeConflict}, pred: IsConflict},
		{name: "timeout", err: &AppError{Code: ErrCodeTimeout}, pred: IsTimeout},
		{name: "wrapped", err: fmt.Errorf("outer: %w", NotFound("x")), pred: IsNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.pred(tt.err) {
				t.Errorf("predicate false for %v", tt.err)
			}
		})
	}
	if IsNotFound(errors.New("plain")) {
		t.Error("plain error should not match")
	}
	if GetCode(errors.New("plain")) != "" {
		t.Error("GetCode on plain error should be empty")
	}
	if GetField(ValidationField("title", "x")) != "title" {
		t.Error("GetField should return the field")
	}
	if Internal("x").Code != ErrCodeInternal {
		t.Error("Internal code mismatch")
	}
}
