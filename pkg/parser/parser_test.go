package parser_test

import (
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/douglang/doug/pkg/ast"
	"github.com/douglang/doug/pkg/diagnostics"
	"github.com/douglang/doug/pkg/parser"
)

// helper: parse source and assert no diagnostics
func mustParse(t *testing.T, source string) *ast.Program {
	t.Helper()
	prog, diags := parser.Parse(source, "test.doug")
	require.Empty(t, diags, "unexpected diagnostics")
	require.NotNil(t, prog)
	return prog
}

// helper: parse source and assert exactly one diagnostic is returned
func mustFail(t *testing.T, source string) diagnostics.Diagnostic {
	t.Helper()
	prog, diags := parser.Parse(source, "test.doug")
	require.Nil(t, prog, "expected parse of %q to fail", source)
	require.Len(t, diags, 1)
	return diags[0]
}

// helper: extract the single statement from a program, assert it is an ExprStmt, return its Expr
func singleExpr(t *testing.T, source string) ast.Expr {
	t.Helper()
	prog := mustParse(t, source)
	require.Len(t, prog.Statements, 1)
	es, ok := prog.Statements[0].(*ast.ExprStmt)
	require.True(t, ok, "expected ExprStmt, got %T", prog.Statements[0])
	return es.Expr
}

// sexpr renders an expression as a fully parenthesised string so tree shape is easy to assert.
func sexpr(e ast.Expr) string {
	switch n := e.(type) {
	case *ast.NumericLiteral:
		return ftoa(n.Value)
	case *ast.NullLiteral:
		return "null"
	case *ast.Identifier:
		return n.Name
	case *ast.BinaryExpr:
		return "(" + sexpr(n.Left) + " " + string(n.Op) + " " + sexpr(n.Right) + ")"
	case *ast.AssignExpr:
		return "(" + n.Name + " = " + sexpr(n.Value) + ")"
	}
	return "?"
}

func ftoa(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// ---- 1. Literals and identifiers ----

func TestNumericLiteral(t *testing.T) {
	tests := []struct {
		source string
		want   float64
	}{
		{"0", 0},
		{"42", 42},
		{"1000000", 1000000},
		{"007", 7},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			lit, ok := singleExpr(t, tt.source).(*ast.NumericLiteral)
			require.True(t, ok)
			assert.Equal(t, tt.want, lit.Value)
		})
	}
}

func TestHugeNumericLiteralOverflowsToInf(t *testing.T) {
	digits := make([]byte, 400)
	for i := range digits {
		digits[i] = '9'
	}
	lit, ok := singleExpr(t, string(digits)).(*ast.NumericLiteral)
	require.True(t, ok)
	assert.True(t, math.IsInf(lit.Value, 1))
}

func TestNullLiteral(t *testing.T) {
	_, ok := singleExpr(t, "null").(*ast.NullLiteral)
	assert.True(t, ok)
}

func TestIdentifier(t *testing.T) {
	id, ok := singleExpr(t, "foo").(*ast.Identifier)
	require.True(t, ok)
	assert.Equal(t, "foo", id.Name)
}

// ---- 2. Precedence and associativity ----

func TestPrecedenceAndAssociativity(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{"2 + 3 * 4", "(2 + (3 * 4))"},
		{"2 * 3 + 4", "((2 * 3) + 4)"},
		{"10 - 3 - 2", "((10 - 3) - 2)"},
		{"8 / 4 / 2", "((8 / 4) / 2)"},
		{"7 % 4 * 2", "((7 % 4) * 2)"},
		{"(2 + 3) * 4", "((2 + 3) * 4)"},
		{"2 * (3 + 4) - 1", "((2 * (3 + 4)) - 1)"},
		{"((1))", "1"},
		{"a + b * c - d / e % f", "((a + (b * c)) - ((d / e) % f))"},
		{"1 + null", "(1 + null)"},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			assert.Equal(t, tt.want, sexpr(singleExpr(t, tt.source)))
		})
	}
}

func TestBinaryExprSpan(t *testing.T) {
	bin, ok := singleExpr(t, "1 + 23").(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, 1, bin.Span.StartCol)
	assert.Equal(t, 7, bin.Span.EndCol)
}

// ---- 3. Assignment ----

func TestAssignment(t *testing.T) {
	tests := []struct {
		source string
		want   string
	}{
		{"x = 1", "(x = 1)"},
		{"x = 1;", "(x = 1)"},
		{"x = y + 2 * 3", "(x = (y + (2 * 3)))"},
		{"a = b = 1", "(a = (b = 1))"},
		{"(a = 2) * 3", "((a = 2) * 3)"},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			assert.Equal(t, tt.want, sexpr(singleExpr(t, tt.source)))
		})
	}
}

func TestInvalidAssignmentTarget(t *testing.T) {
	for _, src := range []string{"1 = 2", "a + b = 3", "(a) = 3"} {
		t.Run(src, func(t *testing.T) {
			d := mustFail(t, src)
			assert.Equal(t, diagnostics.EParse, d.Code)
			assert.Contains(t, d.Message, "invalid assignment target")
		})
	}
}

// ---- 4. Declarations ----

func TestVarDecl(t *testing.T) {
	tests := []struct {
		source   string
		constant bool
		name     string
		init     string
	}{
		{"let x = 5;", false, "x", "5"},
		{"let x = 5", false, "x", "5"},
		{"const y = 1 + 2;", true, "y", "(1 + 2)"},
		{"let z = null;", false, "z", "null"},
		{"let w;", false, "w", ""},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			prog := mustParse(t, tt.source)
			require.Len(t, prog.Statements, 1)
			decl, ok := prog.Statements[0].(*ast.VarDecl)
			require.True(t, ok, "expected VarDecl, got %T", prog.Statements[0])
			assert.Equal(t, tt.constant, decl.Constant)
			assert.Equal(t, tt.name, decl.Name)
			if tt.init == "" {
				assert.True(t, decl.Init.IsAbsent())
				return
			}
			init, ok := decl.Init.Get()
			require.True(t, ok)
			assert.Equal(t, tt.init, sexpr(init))
		})
	}
}

func TestVarDeclSpanCoversTerminator(t *testing.T) {
	prog := mustParse(t, "let abc = 10;")
	decl := prog.Statements[0].(*ast.VarDecl)
	assert.Equal(t, 1, decl.Span.StartCol)
	assert.Equal(t, 14, decl.Span.EndCol)
}

func TestVarDeclErrors(t *testing.T) {
	tests := []struct {
		source string
		msg    string
	}{
		{"const c;", "constant 'c' must be initialized"},
		{"let = 5;", "expected identifier after 'let', got '='"},
		{"const 5 = 5;", "expected identifier after 'const', got '5'"},
		{"let;", "expected identifier after 'let', got ';'"},
		{"let x", "expected ';' or '=' after 'let x', got 'end of input'"},
		{"let x 5", "expected ';' or '=' after 'let x', got '5'"},
		{"let let = 1", "expected identifier after 'let', got 'let'"},
		{"let x = ;", "unexpected token ';'"},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			d := mustFail(t, tt.source)
			assert.Equal(t, diagnostics.EParse, d.Code)
			assert.Equal(t, tt.msg, d.Message)
			assert.NotNil(t, d.Span)
		})
	}
}

// ---- 5. Programs ----

func TestEmptyProgram(t *testing.T) {
	prog := mustParse(t, "")
	assert.Empty(t, prog.Statements)
}

func TestMultipleStatements(t *testing.T) {
	prog := mustParse(t, "let a = 1; const b = 2;\na + b; a = 3 b")
	require.Len(t, prog.Statements, 5)
	assert.IsType(t, &ast.VarDecl{}, prog.Statements[0])
	assert.IsType(t, &ast.VarDecl{}, prog.Statements[1])
	assert.IsType(t, &ast.ExprStmt{}, prog.Statements[2])
	assert.IsType(t, &ast.ExprStmt{}, prog.Statements[3])
	assert.IsType(t, &ast.ExprStmt{}, prog.Statements[4])
	assert.Equal(t, "(a = 3)", sexpr(prog.Statements[3].(*ast.ExprStmt).Expr))
}

func TestBareSemicolonIsAnError(t *testing.T) {
	d := mustFail(t, ";")
	assert.Equal(t, "unexpected token ';'", d.Message)
}

// ---- 6. Syntax errors ----

func TestSyntaxErrors(t *testing.T) {
	tests := []struct {
		source string
		msg    string
	}{
		{"(1 + 2", "expected ')', got 'end of input'"},
		{"(1 + 2;", "expected ')', got ';'"},
		{")", "unexpected token ')'"},
		{"1 +", "unexpected token 'end of input'"},
		{"* 2", "unexpected token '*'"},
		{"1 + * 2", "unexpected token '*'"},
		{"(1))", "unexpected token ')'"},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			d := mustFail(t, tt.source)
			assert.Equal(t, diagnostics.EParse, d.Code)
			assert.Equal(t, tt.msg, d.Message)
		})
	}
}

func TestLexErrorsSurfaceAsDiagnostics(t *testing.T) {
	d := mustFail(t, "let x = 1 & 2;")
	assert.Equal(t, diagnostics.ELex, d.Code)
	assert.Equal(t, "unsupported character '&'", d.Message)
	require.NotNil(t, d.Span)
	assert.Equal(t, 11, d.Span.StartCol)
}

// ---- 7. Purity ----

func TestParseIsIdempotent(t *testing.T) {
	sources := []string{
		"",
		"let x = 5; x",
		"const y = (1 + 2) * 3 % 4; y = y - 1",
		"a = b = null",
	}
	for _, src := range sources {
		first := mustParse(t, src)
		second := mustParse(t, src)
		assert.Equal(t, first, second, "source %q", src)
	}
}
