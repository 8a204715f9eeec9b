// Package validator implements static checks of doug programs.
// It walks a Program without evaluating it and reports name errors the
// evaluator would otherwise only find at run time.
package validator

import (
	"fmt"

	"github.com/douglang/doug/pkg/ast"
	"github.com/douglang/doug/pkg/diagnostics"
)

// Options seeds the outermost scope with names that already exist, such
// as bindings made by earlier turns of a session.
type Options struct {
	Known     []string
	Constants []string
}

type scope struct {
	bindings  map[string]bool
	constants map[string]bool
	parent    *scope
}

func newScope(parent *scope) *scope {
	return &scope{
		bindings:  make(map[string]bool),
		constants: make(map[string]bool),
		parent:    parent,
	}
}

func (s *scope) has(name string) bool {
	if s.bindings[name] {
		return true
	}
	if s.parent != nil {
		return s.parent.has(name)
	}
	return false
}

func (s *scope) add(name string, constant bool) {
	s.bindings[name] = true
	if constant {
		s.constants[name] = true
	}
}

func (s *scope) hasLocal(name string) bool {
	return s.bindings[name]
}

func (s *scope) isConstant(name string) bool {
	for sc := s; sc != nil; sc = sc.parent {
		if sc.bindings[name] {
			return sc.constants[name]
		}
	}
	return false
}

type validator struct {
	diags []diagnostics.Diagnostic
}

// Validate checks program against the names in known, all treated as
// mutable bindings, and returns every diagnostic found.
func Validate(program *ast.Program, known []string) []diagnostics.Diagnostic {
	return ValidateWith(program, Options{Known: known})
}

// ValidateWith is Validate with separate mutable and constant seeds.
func ValidateWith(program *ast.Program, opts Options) []diagnostics.Diagnostic {
	if program == nil {
		return nil
	}

	// seeds share the program's scope: a session declares every turn into
	// one Environment
	outer := newScope(nil)
	for _, name := range opts.Known {
		outer.add(name, false)
	}
	for _, name := range opts.Constants {
		outer.add(name, true)
	}

	v := &validator{}
	v.validateStatements(program.Statements, outer)
	return v.diags
}

func (v *validator) addDiag(code, msg string, span ast.Span) {
	v.diags = append(v.diags, diagnostics.MakeDiag(code, msg, &span, ""))
}

func (v *validator) validateStatements(stmts []ast.Stmt, sc *scope) {
	for _, stmt := range stmts {
		v.validateStmt(stmt, sc)
	}
}

func (v *validator) validateStmt(stmt ast.Stmt, sc *scope) {
	switch s := stmt.(type) {
	case *ast.VarDecl:
		if init, ok := s.Init.Get(); ok {
			v.validateExpr(init, sc)
		}
		if sc.hasLocal(s.Name) {
			v.addDiag(diagnostics.ERedeclared, fmt.Sprintf("variable '%s' is already declared", s.Name), s.Span)
			return
		}
		sc.add(s.Name, s.Constant)

	case *ast.ExprStmt:
		v.validateExpr(s.Expr, sc)

	case *ast.Program:
		// evaluated in the enclosing Env, so it shares the enclosing scope
		v.validateStatements(s.Statements, sc)
	}
}

func (v *validator) validateExpr(expr ast.Expr, sc *scope) {
	if expr == nil {
		return
	}

	switch e := expr.(type) {
	case *ast.NumericLiteral, *ast.NullLiteral:
		// literals are always valid

	case *ast.Identifier:
		if !sc.has(e.Name) {
			v.addDiag(diagnostics.EUndeclared, fmt.Sprintf("variable '%s' is not declared", e.Name), e.Span)
		}

	case *ast.BinaryExpr:
		v.validateExpr(e.Left, sc)
		v.validateExpr(e.Right, sc)

	case *ast.AssignExpr:
		v.validateExpr(e.Value, sc)
		switch {
		case !sc.has(e.Name):
			v.addDiag(diagnostics.EUndeclared, fmt.Sprintf("variable '%s' is not declared", e.Name), e.Span)
		case sc.isConstant(e.Name):
			v.addDiag(diagnostics.EConstAssign, fmt.Sprintf("cannot assign to constant '%s'", e.Name), e.Span)
		}
	}
}
