// Package formatter implements the doug source code formatter.
package formatter

import (
	"math"
	"strconv"
	"strings"

	"github.com/douglang/doug/pkg/ast"
)

// Precedence table for binary operators (higher = tighter binding)
var precedence = map[ast.BinaryOp]int{
	ast.OpAdd: 1, ast.OpSub: 1,
	ast.OpMul: 2, ast.OpDiv: 2, ast.OpMod: 2,
}

// overflowLiteral is a digit run past the float64 range; it parses back to +Inf.
var overflowLiteral = "1" + strings.Repeat("0", 309)

func needsParens(child ast.Expr, parentOp ast.BinaryOp, isRight bool) bool {
	switch c := child.(type) {
	case *ast.AssignExpr:
		// assignment binds loosest of all
		return true
	case *ast.BinaryExpr:
		childPrec := precedence[c.Op]
		parentPrec := precedence[parentOp]
		if childPrec < parentPrec {
			return true
		}
		// operators are left-associative, so a same-precedence right child was grouped
		return childPrec == parentPrec && isRight
	}
	return false
}

// Format pretty-prints a doug AST back to source code: one statement per
// line, each terminated by ';'.
func Format(program *ast.Program) string {
	if program == nil || len(program.Statements) == 0 {
		return ""
	}

	lines := make([]string, 0, len(program.Statements))
	for _, s := range program.Statements {
		lines = append(lines, FormatStmt(s))
	}

	return strings.Join(lines, "\n") + "\n"
}

// FormatStmt renders a single statement with its terminator.
func FormatStmt(s ast.Stmt) string {
	switch stmt := s.(type) {
	case *ast.VarDecl:
		out := stmt.Keyword() + " " + stmt.Name
		if init, ok := stmt.Init.Get(); ok {
			out += " = " + FormatExpr(init)
		}
		return out + ";"
	case *ast.ExprStmt:
		return FormatExpr(stmt.Expr) + ";"
	case *ast.Program:
		return strings.TrimSuffix(Format(stmt), "\n")
	}
	return ""
}

// FormatExpr renders an expression with the minimal parentheses that
// preserve its tree.
func FormatExpr(e ast.Expr) string {
	switch expr := e.(type) {
	case *ast.NumericLiteral:
		return formatNumericLiteral(expr.Value)
	case *ast.NullLiteral:
		return "null"
	case *ast.Identifier:
		return expr.Name
	case *ast.AssignExpr:
		return expr.Name + " = " + FormatExpr(expr.Value)
	case *ast.BinaryExpr:
		leftStr := FormatExpr(expr.Left)
		rightStr := FormatExpr(expr.Right)
		if needsParens(expr.Left, expr.Op, false) {
			leftStr = "(" + leftStr + ")"
		}
		if needsParens(expr.Right, expr.Op, true) {
			rightStr = "(" + rightStr + ")"
		}
		return leftStr + " " + string(expr.Op) + " " + rightStr
	}
	return ""
}

// formatNumericLiteral writes value as a digit run. Literals are never
// negative or fractional since the scanner only produces digit runs.
func formatNumericLiteral(value float64) string {
	if math.IsInf(value, 1) {
		return overflowLiteral
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
