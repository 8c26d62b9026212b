package errors

import (
	"fmt"
	"math"
	"unicode"
)

// ValidateRange checks that v is finite and lies in the closed interval
// [lo, hi]. Failures are reported as *InvalidParameterError for field.
func ValidateRange(field string, v, lo, hi float64, unit string) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return &InvalidParameterError{Field: field, Constraint: "must be a finite number", Value: v}
	}
	if v < lo || v > hi {
		return &InvalidParameterError{
			Field:      field,
			Constraint: fmt.Sprintf("out of range [%g, %g]%s", lo, hi, unitSuffix(unit)),
			Value:      v,
		}
	}
	return nil
}

// ValidatePositive checks that v is finite and strictly greater than zero.
func ValidatePositive(field string, v float64, unit string) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return &InvalidParameterError{Field: field, Constraint: "must be a finite number", Value: v}
	}
	if v <= 0 {
		return &InvalidParameterError{Field: field, Constraint: "must be > 0" + unitSuffix(unit), Value: v}
	}
	return nil
}

// ValidateNonNegative checks that v is finite and not below zero.
func ValidateNonNegative(field string, v float64, unit string) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return &InvalidParameterError{Field: field, Constraint: "must be a finite number", Value: v}
	}
	if v < 0 {
		return &InvalidParameterError{Field: field, Constraint: "must be >= 0" + unitSuffix(unit), Value: v}
	}
	return nil
}

// ValidatePositiveInt checks that n is strictly greater than zero.
func ValidatePositiveInt(field string, n int) error {
	if n <= 0 {
		return &InvalidParameterError{Field: field, Constraint: "must be > 0", Value: n}
	}
	return nil
}

func unitSuffix(unit string) string {
	if unit == "" {
		return ""
	}
	return " " + unit
}

// ValidateOutputDir validates an output directory supplied by the user.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
func ValidateOutputDir(path string) error {
	if path == "" {
		return New(ErrCodeInvalidConfig, "output directory cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidConfig, "output directory too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidConfig, "output directory contains invalid characters")
		}
	}
	return nil
}
