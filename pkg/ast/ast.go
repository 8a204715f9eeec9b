// Package ast defines the doug language AST node types.
package ast

import "github.com/samber/mo"

// Span represents a source location range.
type Span struct {
	File      string `json:"file"`
	StartLine int    `json:"startLine"`
	StartCol  int    `json:"startCol"`
	EndLine   int    `json:"endLine"`
	EndCol    int    `json:"endCol"`
}

// Node is the interface implemented by all AST nodes.
type Node interface {
	Kind() string
	NodeSpan() Span
}

// BinaryOp represents a binary arithmetic operator.
type BinaryOp string

const (
	OpAdd BinaryOp = "+"
	OpSub BinaryOp = "-"
	OpMul BinaryOp = "*"
	OpDiv BinaryOp = "/"
	OpMod BinaryOp = "%"
)

// BinaryOpFromString maps an operator character to its BinaryOp.
func BinaryOpFromString(s string) (BinaryOp, bool) {
	switch op := BinaryOp(s); op {
	case OpAdd, OpSub, OpMul, OpDiv, OpMod:
		return op, true
	}
	return "", false
}

// --- Expr is the interface for all expression nodes ---

type Expr interface {
	Node
	exprNode() // sealed marker
}

// --- Stmt is the interface for all statement nodes ---

type Stmt interface {
	Node
	stmtNode() // sealed marker
}

// --- Expressions ---

type NumericLiteral struct {
	Span  Span
	Value float64
}

func (n *NumericLiteral) Kind() string   { return "NumericLiteral" }
func (n *NumericLiteral) NodeSpan() Span { return n.Span }
func (n *NumericLiteral) exprNode()      {}

type NullLiteral struct {
	Span Span
}

func (n *NullLiteral) Kind() string   { return "NullLiteral" }
func (n *NullLiteral) NodeSpan() Span { return n.Span }
func (n *NullLiteral) exprNode()      {}

type Identifier struct {
	Span Span
	Name string
}

func (n *Identifier) Kind() string   { return "Identifier" }
func (n *Identifier) NodeSpan() Span { return n.Span }
func (n *Identifier) exprNode()      {}

type BinaryExpr struct {
	Span  Span
	Op    BinaryOp
	Left  Expr
	Right Expr
}

func (n *BinaryExpr) Kind() string   { return "BinaryExpr" }
func (n *BinaryExpr) NodeSpan() Span { return n.Span }
func (n *BinaryExpr) exprNode()      {}

// AssignExpr rebinds an existing variable and yields the assigned value.
type AssignExpr struct {
	Span  Span
	Name  string
	Value Expr
}

func (n *AssignExpr) Kind() string   { return "AssignExpr" }
func (n *AssignExpr) NodeSpan() Span { return n.Span }
func (n *AssignExpr) exprNode()      {}

// --- Statements ---

type ExprStmt struct {
	Span Span
	Expr Expr
}

func (n *ExprStmt) Kind() string   { return "ExprStmt" }
func (n *ExprStmt) NodeSpan() Span { return n.Span }
func (n *ExprStmt) stmtNode()      {}

// VarDecl is a `let` or `const` declaration. Init is absent only for an
// uninitialized `let`.
type VarDecl struct {
	Span     Span
	Constant bool
	Name     string
	Init     mo.Option[Expr]
}

func (n *VarDecl) Kind() string   { return "VarDecl" }
func (n *VarDecl) NodeSpan() Span { return n.Span }
func (n *VarDecl) stmtNode()      {}

// Keyword returns the declaring keyword.
func (n *VarDecl) Keyword() string {
	if n.Constant {
		return "const"
	}
	return "let"
}

// --- Program ---

// Program is an ordered statement sequence. It is itself a statement so a
// whole program can be evaluated as one unit.
type Program struct {
	Span       Span
	Statements []Stmt
}

func (n *Program) Kind() string   { return "Program" }
func (n *Program) NodeSpan() Span { return n.Span }
func (n *Program) stmtNode()      {}
