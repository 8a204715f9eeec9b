package parser_test

import (
	"testing"

	"github.com/douglang/doug/pkg/parser"
)

// FuzzParse feeds random inputs to the parser to catch panics.
// The parser should never panic; it returns a diagnostic for invalid input.
func FuzzParse(f *testing.F) {
	seeds := []string{
		// Declarations
		`let x = 42;`,
		`const y = 1;`,
		`let z;`,
		`const c;`,
		// Arithmetic
		`1 + 2 * 3`,
		`10 - 3 - 2`,
		`(2 + 3) * 4 % 5 / 6`,
		`1+-2`,
		// Assignment
		`x = 1`,
		`a = b = c`,
		`1 = 2`,
		// Null
		`null`,
		`let n = null;`,
		// Multiple statements
		"let a = 1;\nlet b = 2;\na + b",
		// Empty program
		``,
		// Just whitespace
		`   `,
		// Unclosed paren
		`(1 + 2`,
		`((((`,
		`))))`,
		// Stray tokens
		`;`,
		`let`,
		`let x`,
		`let x 5`,
		`=`,
		// Unsupported characters
		`1.5`,
		`"hello"`,
	}

	for _, s := range seeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, input string) {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Fatalf("parser.Parse panicked on input %q: %v", input, r)
				}
			}()
			prog, diags := parser.Parse(input, "fuzz.doug")
			if (prog == nil) == (len(diags) == 0) {
				t.Fatalf("parser.Parse(%q) returned program=%v with %d diagnostics", input, prog != nil, len(diags))
			}
		}()
	})
}
