// Package parser implements the doug language parser.
package parser

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/samber/mo"

	"github.com/douglang/doug/pkg/ast"
	"github.com/douglang/doug/pkg/diagnostics"
	"github.com/douglang/doug/pkg/lexer"
)

type parser struct {
	tokens []lexer.Token
	pos    int
	diags  []diagnostics.Diagnostic
}

// Parse tokenizes source and parses it into an AST.
// Parsing stops at the first error; on failure the program is nil and the
// returned slice holds that single diagnostic.
func Parse(source, filename string) (*ast.Program, []diagnostics.Diagnostic) {
	tokens, err := lexer.Tokenize(source, filename)
	if err != nil {
		var le *lexer.LexError
		if errors.As(err, &le) {
			return nil, []diagnostics.Diagnostic{le.Diag}
		}
		return nil, []diagnostics.Diagnostic{diagnostics.MakeDiag(diagnostics.ELex, err.Error(), nil, "")}
	}

	p := &parser{tokens: tokens, pos: 0}
	prog := p.parseProgram()
	if len(p.diags) > 0 {
		return nil, p.diags
	}
	return prog, nil
}

func (p *parser) current() lexer.Token {
	if p.pos >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1] // EOF
	}
	return p.tokens[p.pos]
}

func (p *parser) peek() lexer.TokenType {
	return p.current().Type
}

func (p *parser) peekAt(offset int) lexer.TokenType {
	idx := p.pos + offset
	if idx >= len(p.tokens) {
		return lexer.TokEOF
	}
	return p.tokens[idx].Type
}

func (p *parser) advance() lexer.Token {
	tok := p.current()
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return tok
}

func (p *parser) expect(typ lexer.TokenType) (lexer.Token, bool) {
	tok := p.current()
	if tok.Type != typ {
		p.addError(fmt.Sprintf("expected %s, got '%s'", typ, tok.Describe()), &tok.Span)
		return tok, false
	}
	return p.advance(), true
}

func (p *parser) addError(msg string, span *ast.Span) {
	p.diags = append(p.diags, diagnostics.MakeDiag(diagnostics.EParse, msg, span, ""))
}

func (p *parser) spanFrom(start ast.Span) ast.Span {
	cur := p.current().Span
	return ast.Span{
		File:      start.File,
		StartLine: start.StartLine,
		StartCol:  start.StartCol,
		EndLine:   cur.StartLine,
		EndCol:    cur.StartCol,
	}
}

func (p *parser) spanFromTo(start, end ast.Span) ast.Span {
	return ast.Span{
		File:      start.File,
		StartLine: start.StartLine,
		StartCol:  start.StartCol,
		EndLine:   end.EndLine,
		EndCol:    end.EndCol,
	}
}

// --- Program ---

func (p *parser) parseProgram() *ast.Program {
	startSpan := p.current().Span

	stmts := []ast.Stmt{}
	for p.peek() != lexer.TokEOF {
		stmt := p.parseStmt()
		if stmt == nil {
			return nil
		}
		stmts = append(stmts, stmt)
	}

	return &ast.Program{
		Span:       p.spanFrom(startSpan),
		Statements: stmts,
	}
}

// --- Statements ---

func (p *parser) parseStmt() ast.Stmt {
	switch p.peek() {
	case lexer.TokLet, lexer.TokConst:
		s := p.parseVarDecl()
		if s == nil {
			return nil
		}
		return s
	default:
		s := p.parseExprStmt()
		if s == nil {
			return nil
		}
		return s
	}
}

func (p *parser) parseVarDecl() *ast.VarDecl {
	start := p.advance() // consume 'let' or 'const'
	constant := start.Type == lexer.TokConst

	nameTok := p.current()
	if nameTok.Type != lexer.TokIdent {
		p.addError(fmt.Sprintf("expected identifier after '%s', got '%s'", start.Value, nameTok.Describe()), &nameTok.Span)
		return nil
	}
	p.advance()

	switch p.peek() {
	case lexer.TokSemicolon:
		end := p.advance()
		if constant {
			span := p.spanFromTo(start.Span, end.Span)
			p.addError(fmt.Sprintf("constant '%s' must be initialized", nameTok.Value), &span)
			return nil
		}
		return &ast.VarDecl{
			Span:     p.spanFromTo(start.Span, end.Span),
			Constant: false,
			Name:     nameTok.Value,
			Init:     mo.None[ast.Expr](),
		}

	case lexer.TokEquals:
		p.advance()
		value := p.parseExpr()
		if value == nil {
			return nil
		}
		end := value.NodeSpan()
		if p.peek() == lexer.TokSemicolon {
			end = p.advance().Span
		}
		return &ast.VarDecl{
			Span:     p.spanFromTo(start.Span, end),
			Constant: constant,
			Name:     nameTok.Value,
			Init:     mo.Some(value),
		}

	default:
		tok := p.current()
		p.addError(fmt.Sprintf("expected ';' or '=' after '%s %s', got '%s'", start.Value, nameTok.Value, tok.Describe()), &tok.Span)
		return nil
	}
}

func (p *parser) parseExprStmt() *ast.ExprStmt {
	expr := p.parseExpr()
	if expr == nil {
		return nil
	}

	end := expr.NodeSpan()
	if p.peek() == lexer.TokSemicolon {
		end = p.advance().Span
	}

	return &ast.ExprStmt{
		Span: p.spanFromTo(expr.NodeSpan(), end),
		Expr: expr,
	}
}

// --- Expressions ---

func (p *parser) parseExpr() ast.Expr {
	return p.parseAssignment()
}

func (p *parser) parseAssignment() ast.Expr {
	if p.peek() == lexer.TokIdent && p.peekAt(1) == lexer.TokEquals {
		nameTok := p.advance()
		p.advance() // consume '='
		value := p.parseAssignment()
		if value == nil {
			return nil
		}
		return &ast.AssignExpr{
			Span:  p.spanFromTo(nameTok.Span, value.NodeSpan()),
			Name:  nameTok.Value,
			Value: value,
		}
	}

	expr := p.parseAdditive()
	if expr == nil {
		return nil
	}
	if p.peek() == lexer.TokEquals {
		tok := p.current()
		p.addError(fmt.Sprintf("invalid assignment target '%s'", expr.Kind()), &tok.Span)
		return nil
	}
	return expr
}

func (p *parser) binaryOpIn(ops ...ast.BinaryOp) (ast.BinaryOp, bool) {
	tok := p.current()
	if tok.Type != lexer.TokBinaryOp {
		return "", false
	}
	op, ok := ast.BinaryOpFromString(tok.Value)
	if !ok {
		return "", false
	}
	for _, want := range ops {
		if op == want {
			return op, true
		}
	}
	return "", false
}

func (p *parser) parseAdditive() ast.Expr {
	left := p.parseMultiplicative()
	if left == nil {
		return nil
	}

	for {
		op, ok := p.binaryOpIn(ast.OpAdd, ast.OpSub)
		if !ok {
			return left
		}
		p.advance()
		right := p.parseMultiplicative()
		if right == nil {
			return nil
		}
		left = &ast.BinaryExpr{
			Span:  p.spanFromTo(left.NodeSpan(), right.NodeSpan()),
			Op:    op,
			Left:  left,
			Right: right,
		}
	}
}

func (p *parser) parseMultiplicative() ast.Expr {
	left := p.parsePrimary()
	if left == nil {
		return nil
	}

	for {
		op, ok := p.binaryOpIn(ast.OpMul, ast.OpDiv, ast.OpMod)
		if !ok {
			return left
		}
		p.advance()
		right := p.parsePrimary()
		if right == nil {
			return nil
		}
		left = &ast.BinaryExpr{
			Span:  p.spanFromTo(left.NodeSpan(), right.NodeSpan()),
			Op:    op,
			Left:  left,
			Right: right,
		}
	}
}

func (p *parser) parsePrimary() ast.Expr {
	switch p.peek() {
	case lexer.TokLParen:
		// Grouped expression
		p.advance()
		expr := p.parseExpr()
		if expr == nil {
			return nil
		}
		if _, ok := p.expect(lexer.TokRParen); !ok {
			return nil
		}
		return expr

	case lexer.TokNumber:
		tok := p.advance()
		val, err := strconv.ParseFloat(tok.Value, 64)
		if err != nil {
			// Digit runs always parse; overflow rounds to +Inf with ErrRange.
			var numErr *strconv.NumError
			if !errors.As(err, &numErr) || !errors.Is(numErr.Err, strconv.ErrRange) {
				p.addError(fmt.Sprintf("invalid number '%s'", tok.Value), &tok.Span)
				return nil
			}
		}
		return &ast.NumericLiteral{Span: tok.Span, Value: val}

	case lexer.TokNull:
		tok := p.advance()
		return &ast.NullLiteral{Span: tok.Span}

	case lexer.TokIdent:
		tok := p.advance()
		return &ast.Identifier{Span: tok.Span, Name: tok.Value}

	default:
		tok := p.current()
		p.addError(fmt.Sprintf("unexpected token '%s'", tok.Describe()), &tok.Span)
		return nil
	}
}
