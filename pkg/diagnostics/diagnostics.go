// Package diagnostics defines doug diagnostic types for lex, parse, validation and runtime errors.
package diagnostics

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/douglang/doug/pkg/ast"
)

// Diagnostic code constants.
const (
	ELex         = "E_LEX"
	EParse       = "E_PARSE"
	ERedeclared  = "E_REDECLARED"
	EUndeclared  = "E_UNDECLARED"
	EConstAssign = "E_CONST_ASSIGN"
	EType        = "E_TYPE"
	ECanceled    = "E_CANCELED"
	EIO          = "E_IO"
)

// Phases a diagnostic can come from, in pipeline order.
const (
	PhaseLex     = "lex"
	PhaseParse   = "parse"
	PhaseScope   = "scope"
	PhaseType    = "type"
	PhaseRuntime = "runtime"
	PhaseIO      = "io"
)

var phases = map[string]string{
	ELex:         PhaseLex,
	EParse:       PhaseParse,
	ERedeclared:  PhaseScope,
	EUndeclared:  PhaseScope,
	EConstAssign: PhaseScope,
	EType:        PhaseType,
	ECanceled:    PhaseRuntime,
	EIO:          PhaseIO,
}

// Phase names the stage of a doug turn that reports code. Scope codes come
// from both the validator and the evaluator. Unknown codes map to runtime.
func Phase(code string) string {
	if p, ok := phases[code]; ok {
		return p
	}
	return PhaseRuntime
}

// Diagnostic represents a lex, parse, validation, or runtime diagnostic.
type Diagnostic struct {
	Code    string    `json:"code"`
	Message string    `json:"message"`
	Span    *ast.Span `json:"span,omitempty"`
	Hint    string    `json:"hint,omitempty"`
}

// MakeDiag creates a new Diagnostic.
func MakeDiag(code, message string, span *ast.Span, hint string) Diagnostic {
	return Diagnostic{
		Code:    code,
		Message: message,
		Span:    span,
		Hint:    hint,
	}
}

// FormatDiagnostic formats a single diagnostic for display: JSON, or a
// "<phase> error[CODE]: message" header followed by the source location.
func FormatDiagnostic(d Diagnostic, pretty bool) string {
	if !pretty {
		b, _ := json.Marshal(d)
		return string(b)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s error[%s]: %s\n  --> %s", Phase(d.Code), d.Code, d.Message, location(d.Span))
	if d.Hint != "" {
		fmt.Fprintf(&b, "\n  hint: %s", d.Hint)
	}
	return b.String()
}

func location(span *ast.Span) string {
	if span == nil {
		return "<unknown>"
	}
	file := span.File
	if file == "" {
		file = "<input>"
	}
	return fmt.Sprintf("%s:%d:%d", file, span.StartLine, span.StartCol)
}

// FormatDiagnostics formats a slice of diagnostics for display. Pretty
// entries are separated by a blank line.
func FormatDiagnostics(diags []Diagnostic, pretty bool) string {
	if !pretty {
		b, _ := json.Marshal(diags)
		return string(b)
	}
	return strings.Join(lo.Map(diags, func(d Diagnostic, _ int) string {
		return FormatDiagnostic(d, true)
	}), "\n\n")
}

// IsSyntax reports whether code belongs to the lex/parse phase.
func IsSyntax(code string) bool {
	p := Phase(code)
	return p == PhaseLex || p == PhaseParse
}
