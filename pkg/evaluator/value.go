// Package evaluator implements the doug runtime: values, scopes and the tree-walking evaluator.
package evaluator

import (
	"math"
	"strconv"
)

// Value is the interface for all doug runtime values.
// The sealed marker method restricts implementations to this package.
type Value interface {
	value() // sealed marker
}

// Null represents the absence of a value.
type Null struct{}

func (Null) value() {}

// Bool represents a boolean value.
type Bool struct {
	Value bool
}

func (Bool) value() {}

// Number represents a 64-bit floating-point value.
type Number struct {
	Value float64
}

func (Number) value() {}

// NewNull creates a null value.
func NewNull() Value {
	return Null{}
}

// NewBool creates a boolean value.
func NewBool(b bool) Value {
	return Bool{Value: b}
}

// NewNumber creates a numeric value.
func NewNumber(n float64) Value {
	return Number{Value: n}
}

// TypeName returns the user-facing type name of v.
func TypeName(v Value) string {
	switch v.(type) {
	case Null:
		return "null"
	case Bool:
		return "boolean"
	case Number:
		return "number"
	default:
		return "unknown"
	}
}

// FormatValue renders v for display. Integral numbers print without a
// decimal point; non-finite numbers print as +Inf, -Inf and NaN.
func FormatValue(v Value) string {
	switch val := v.(type) {
	case Null:
		return "null"
	case Bool:
		return strconv.FormatBool(val.Value)
	case Number:
		return formatNumber(val.Value)
	default:
		return "<unknown>"
	}
}

func formatNumber(f float64) string {
	if !math.IsInf(f, 0) && !math.IsNaN(f) && f == math.Trunc(f) && math.Abs(f) < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
