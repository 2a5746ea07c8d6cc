package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{Message: "quantity must be a positive integer"}
	if err.Error() != "quantity must be a positive integer" {
		t.Errorf("Error() = %q, want %q", err.Error(), "quantity must be a positive integer")
	}
}

func TestSentinelErrors_AreDistinct(t *testing.T) {
	if errors.Is(ErrInvalidOrder, ErrInvalidSide) {
		t.Error("ErrInvalidOrder and ErrInvalidSide should be distinct")
	}
}

func TestInvalidOrder_SurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("insert bid: %w", ErrInvalidOrder)
	if !errors.Is(err, ErrInvalidOrder) {
		t.Error("wrapped error should match ErrInvalidOrder")
	}
}
