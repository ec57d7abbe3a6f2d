package tensor

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrInvalidShape     = errors.New("invalid shape")
	ErrShapeMismatch    = errors.New("shape mismatch")
	ErrDTypeMismatch    = errors.New("dtype mismatch")
	ErrUnsupportedDType = errors.New("unsupported dtype")
	ErrDeviceMismatch   = errors.New("buffer belongs to another device")
	ErrReleased         = errors.New("buffer already released")
)

// CheckSameLayout returns an error wrapping ErrShapeMismatch or ErrDTypeMismatch
// when a and b do not share shape and dtype. what names the check in the message.
func CheckSameLayout(what string, a, b Buffer) error {
	if !a.Shape().Equal(b.Shape()) {
		return fmt.Errorf("%s: %w: %v vs %v", what, ErrShapeMismatch, a.Shape(), b.Shape())
	}
	if a.DType() != b.DType() {
		return fmt.Errorf("%s: %w: %s vs %s", what, ErrDTypeMismatch, a.DType(), b.DType())
	}
	return nil
}
