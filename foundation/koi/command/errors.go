// File: errors.go
// Title: Command Model Errors
// Description: Variant mismatch and value interpretation errors.
// Author: msto63
// Version: v0.1.0
// Created: 2026-10-16
// Modified: 2026-10-16
//
// Change History:
// - 2026-10-16 v0.1.0: Initial implementation

package command

import (
	"errors"
	"fmt"

	mdwerror "github.com/msto63/koi/foundation/core/error"
)

var (
	// ErrVariantMismatch is matched by every *VariantError
	ErrVariantMismatch = errors.New("parameter variant mismatch")

	// ErrInvalidValue is returned when a raw token is not a valid typed value
	ErrInvalidValue = errors.New("invalid value")
)

// VariantError is the panic value of Value and NameValue when the
// parameter holds the other variant.
type VariantError struct {
	Op   string
	Want Kind
	Got  Kind
}

func (e *VariantError) Error() string {
	return fmt.Sprintf("command.Parameter.%s: want %s parameter, have %s", e.Op, e.Want, e.Got)
}

// Is reports ErrVariantMismatch
func (e *VariantError) Is(target error) bool {
	return target == ErrVariantMismatch
}

// Code returns the error code used when the panic is recovered and logged
func (e *VariantError) Code() mdwerror.Code {
	return mdwerror.CodeVariantMismatch
}

func invalidValue(raw, reason string) error {
	return mdwerror.Wrap(ErrInvalidValue, reason).
		WithCode(mdwerror.CodeInvalidValue).
		WithDetail("raw", raw)
}
