package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidDimension, "%s must be positive", "Width")

	if err.Code != ErrCodeInvalidDimension {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvalidDimension)
	}

	if err.Message != "Width must be positive" {
		t.Errorf("Message = %v, want %v", err.Message, "Width must be positive")
	}

	expected := "INVALID_DIMENSION: Width must be positive"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeInternal, cause, "commit lattice")

	if err.Code != ErrCodeInternal {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInternal)
	}

	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}

	unwrapped := errors.Unwrap(err)
	if unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}

	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{
			name:     "matching code",
			err:      New(ErrCodeInvalidSpacing, "test"),
			code:     ErrCodeInvalidSpacing,
			expected: true,
		},
		{
			name:     "non-matching code",
			err:      New(ErrCodeInvalidSpacing, "test"),
			code:     ErrCodeInvalidRadius,
			expected: false,
		},
		{
			name:     "fmt wrapped",
			err:      fmt.Errorf("generate: %w", New(ErrCodeInvalidRadius, "inner")),
			code:     ErrCodeInvalidRadius,
			expected: true,
		},
		{
			name:     "non-Error type",
			err:      errors.New("plain error"),
			code:     ErrCodeInvalidDimension,
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			code:     ErrCodeInvalidDimension,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Code
	}{
		{"Error type", New(ErrCodeMissingParameter, "test"), ErrCodeMissingParameter},
		{"plain error", errors.New("plain"), ""},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.expected {
				t.Errorf("GetCode() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"Error type", New(ErrCodeInvalidSpacing, "Spacing must be positive"), "Spacing must be positive"},
		{"wrapped Error", fmt.Errorf("validate: %w", New(ErrCodeUnknownNeighborhoodType, "Unknown neighborhood type")), "Unknown neighborhood type"},
		{"plain error", errors.New("plain error"), "plain error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.expected {
				t.Errorf("UserMessage() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestIsValidation(t *testing.T) {
	if !IsValidation(New(ErrCodeGridTooLarge, "x")) {
		t.Error("GRID_TOO_LARGE should be a validation error")
	}
	if IsValidation(New(ErrCodeInternal, "x")) {
		t.Error("INTERNAL_ERROR should not be a validation error")
	}
	if IsValidation(errors.New("plain")) {
		t.Error("plain errors are not validation errors")
	}
}

func TestErrorCodesAreUnique(t *testing.T) {
	codes := []Code{
		ErrCodeNoConfiguration,
		ErrCodeMissingParameter,
		ErrCodeInvalidDimension,
		ErrCodeInvalidSpacing,
		ErrCodeInvalidConnectivity,
		ErrCodeInvalidRadius,
		ErrCodeUnknownNeighborhoodType,
		ErrCodeGridTooLarge,
		ErrCodeInvalidKind,
		ErrCodeInvalidFormat,
		ErrCodeInvalidInput,
		ErrCodeNotFound,
		ErrCodeInternal,
	}

	seen := make(map[Code]bool)
	for _, code := range codes {
		if seen[code] {
			t.Errorf("Duplicate error code: %s", code)
		}
		seen[code] = true
	}
}
