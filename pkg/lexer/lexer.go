// Package lexer implements the doug language tokenizer.
package lexer

import (
	"fmt"
	"unicode/utf8"

	"github.com/douglang/doug/pkg/ast"
	"github.com/douglang/doug/pkg/diagnostics"
)

// TokenType identifies the type of a lexer token.
type TokenType int

const (
	// Keywords
	TokLet TokenType = iota
	TokConst
	TokNull

	// Literals
	TokNumber

	// Identifiers
	TokIdent

	// Operators and punctuation
	TokBinaryOp  // + - * / %
	TokEquals    // =
	TokLParen    // (
	TokRParen    // )
	TokSemicolon // ;

	// Special
	TokEOF
)

var tokenNames = map[TokenType]string{
	TokLet:       "'let'",
	TokConst:     "'const'",
	TokNull:      "'null'",
	TokNumber:    "number",
	TokIdent:     "identifier",
	TokBinaryOp:  "operator",
	TokEquals:    "'='",
	TokLParen:    "'('",
	TokRParen:    "')'",
	TokSemicolon: "';'",
	TokEOF:       "end of input",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("token(%d)", int(t))
}

// IsKeyword reports whether t is a reserved word.
func (t TokenType) IsKeyword() bool {
	return t >= TokLet && t <= TokNull
}

// Token represents a single lexer token.
type Token struct {
	Type  TokenType
	Value string
	Span  ast.Span
}

// Describe renders the token for error messages.
func (t Token) Describe() string {
	if t.Type == TokEOF {
		return "end of input"
	}
	return t.Value
}

var keywords = map[string]TokenType{
	"let":   TokLet,
	"const": TokConst,
	"null":  TokNull,
}

type scanner struct {
	source   string
	filename string
	pos      int
	line     int
	col      int
}

func newScanner(source, filename string) *scanner {
	return &scanner{
		source:   source,
		filename: filename,
		pos:      0,
		line:     1,
		col:      1,
	}
}

func (s *scanner) atEnd() bool {
	return s.pos >= len(s.source)
}

func (s *scanner) peek() byte {
	if s.atEnd() {
		return 0
	}
	return s.source[s.pos]
}

func (s *scanner) advance() byte {
	ch := s.source[s.pos]
	s.pos++
	if ch == '\n' {
		s.line++
		s.col = 1
	} else {
		s.col++
	}
	return ch
}

func (s *scanner) span(startLine, startCol int) ast.Span {
	return ast.Span{
		File:      s.filename,
		StartLine: startLine,
		StartCol:  startCol,
		EndLine:   s.line,
		EndCol:    s.col,
	}
}

func (s *scanner) skipWhitespace() {
	for !s.atEnd() {
		switch s.peek() {
		case ' ', '\t', '\n':
			s.advance()
		default:
			return
		}
	}
}

func isAlpha(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

// scanRun consumes a maximal run of bytes satisfying pred.
func (s *scanner) scanRun(pred func(byte) bool) string {
	start := s.pos
	for !s.atEnd() && pred(s.peek()) {
		s.advance()
	}
	return s.source[start:s.pos]
}

func (s *scanner) scanNumber() Token {
	startLine, startCol := s.line, s.col
	text := s.scanRun(isDigit)
	return Token{
		Type:  TokNumber,
		Value: text,
		Span:  s.span(startLine, startCol),
	}
}

func (s *scanner) scanIdentOrKeyword() Token {
	startLine, startCol := s.line, s.col
	text := s.scanRun(isAlpha)

	if tokType, ok := keywords[text]; ok {
		return Token{
			Type:  tokType,
			Value: text,
			Span:  s.span(startLine, startCol),
		}
	}

	return Token{
		Type:  TokIdent,
		Value: text,
		Span:  s.span(startLine, startCol),
	}
}

func (s *scanner) lexError(line, col int, msg string) error {
	diag := diagnostics.MakeDiag(
		diagnostics.ELex,
		msg,
		&ast.Span{File: s.filename, StartLine: line, StartCol: col, EndLine: line, EndCol: col + 1},
		"",
	)
	return &LexError{Diag: diag}
}

// LexError wraps a diagnostic for lex errors.
type LexError struct {
	Diag diagnostics.Diagnostic
}

func (e *LexError) Error() string {
	return e.Diag.Message
}

func (s *scanner) single(typ TokenType) Token {
	startLine, startCol := s.line, s.col
	ch := s.advance()
	return Token{Type: typ, Value: string(ch), Span: s.span(startLine, startCol)}
}

func (s *scanner) nextToken() (Token, error) {
	s.skipWhitespace()

	if s.atEnd() {
		return Token{
			Type:  TokEOF,
			Value: "",
			Span:  s.span(s.line, s.col),
		}, nil
	}

	ch := s.peek()

	switch ch {
	case '(':
		return s.single(TokLParen), nil
	case ')':
		return s.single(TokRParen), nil
	case ';':
		return s.single(TokSemicolon), nil
	case '=':
		return s.single(TokEquals), nil
	case '+', '-', '*', '/', '%':
		return s.single(TokBinaryOp), nil
	}

	if isDigit(ch) {
		return s.scanNumber(), nil
	}

	if isAlpha(ch) {
		return s.scanIdentOrKeyword(), nil
	}

	r, _ := utf8.DecodeRuneInString(s.source[s.pos:])
	return Token{}, s.lexError(s.line, s.col, fmt.Sprintf("unsupported character %q", r))
}

// Tokenize breaks source code into a slice of tokens terminated by TokEOF.
// The only failure is an unsupported character, reported as a *LexError.
func Tokenize(source, filename string) ([]Token, error) {
	s := newScanner(source, filename)
	var tokens []Token

	for {
		tok, err := s.nextToken()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == TokEOF {
			break
		}
	}

	return tokens, nil
}
