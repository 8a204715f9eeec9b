// Package runtime provides the doug session: one Environment fed by
// successive turns of source text.
package runtime

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/douglang/doug/pkg/diagnostics"
	"github.com/douglang/doug/pkg/evaluator"
	"github.com/douglang/doug/pkg/formatter"
	"github.com/douglang/doug/pkg/lexer"
	"github.com/douglang/doug/pkg/metrics"
	"github.com/douglang/doug/pkg/parser"
	"github.com/douglang/doug/pkg/validator"
)

// DefaultFilename labels spans of REPL input.
const DefaultFilename = "<repl>"

// Session wires the scanner, parser and evaluator around a persistent
// Environment. It is not safe for concurrent use.
type Session struct {
	env      *evaluator.Env
	logger   *zap.Logger
	metrics  *metrics.Collector
	prelude  map[string]float64
	filename string
	prompt   string
	pretty   bool
	trace    func(event evaluator.TraceEvent)
}

// Option is a functional option for configuring the Session.
type Option func(*Session)

// WithLogger sets the logger. Trace events are logged at debug level.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics sets the collector that records turns.
func WithMetrics(c *metrics.Collector) Option {
	return func(s *Session) {
		s.metrics = c
	}
}

// WithPrelude declares extra constant bindings in the root Environment.
func WithPrelude(prelude map[string]float64) Option {
	return func(s *Session) {
		s.prelude = prelude
	}
}

// WithFilename sets the file name attached to diagnostic spans.
func WithFilename(name string) Option {
	return func(s *Session) {
		s.filename = name
	}
}

// WithPrompt sets the REPL prompt.
func WithPrompt(prompt string) Option {
	return func(s *Session) {
		s.prompt = prompt
	}
}

// WithPretty selects human-readable diagnostics instead of JSON.
func WithPretty(pretty bool) Option {
	return func(s *Session) {
		s.pretty = pretty
	}
}

// WithTrace sets an extra trace callback.
func WithTrace(fn func(event evaluator.TraceEvent)) Option {
	return func(s *Session) {
		s.trace = fn
	}
}

// New creates a Session whose root Environment holds the constants null,
// true and false plus any prelude bindings.
func New(opts ...Option) *Session {
	s := &Session{
		env:      evaluator.NewEnv(nil),
		logger:   zap.NewNop(),
		filename: DefaultFilename,
		prompt:   "> ",
	}
	for _, opt := range opts {
		opt(s)
	}

	builtins := []struct {
		name string
		val  evaluator.Value
	}{
		{"null", evaluator.NewNull()},
		{"true", evaluator.NewBool(true)},
		{"false", evaluator.NewBool(false)},
	}
	for _, b := range builtins {
		// fresh root env, cannot collide
		_, _ = s.env.Declare(b.name, b.val, true)
	}

	names := lo.Keys(s.prelude)
	sort.Strings(names)
	for _, name := range names {
		if !isIdentifier(name) {
			s.logger.Warn("skipping prelude binding with invalid name", zap.String("name", name))
			continue
		}
		if _, err := s.env.Declare(name, evaluator.NewNumber(s.prelude[name]), true); err != nil {
			s.logger.Warn("skipping prelude binding", zap.String("name", name), zap.Error(err))
		}
	}

	s.metrics.SetBindings(len(s.env.Names()))
	return s
}

// isIdentifier reports whether name scans as exactly one identifier token.
func isIdentifier(name string) bool {
	tokens, err := lexer.Tokenize(name, "")
	return err == nil && len(tokens) == 2 && tokens[0].Type == lexer.TokIdent
}

// Env exposes the session Environment.
func (s *Session) Env() *evaluator.Env {
	return s.env
}

// Eval runs one turn: parse source and evaluate it against the session
// Environment. Parse failures return *DiagnosticError, evaluation failures
// *evaluator.RuntimeError. Bindings made before a failing statement stay.
func (s *Session) Eval(ctx context.Context, source string) (evaluator.Value, error) {
	start := time.Now()
	val, err := s.eval(ctx, source)

	code := Code(err)
	s.metrics.ObserveTurn(code, time.Since(start))
	s.metrics.SetBindings(len(s.env.Names()))
	if err != nil {
		s.logger.Debug("turn failed", zap.String("code", code), zap.Error(err))
	}
	return val, err
}

func (s *Session) eval(ctx context.Context, source string) (evaluator.Value, error) {
	if err := ctx.Err(); err != nil {
		return nil, &evaluator.RuntimeError{
			Code:    diagnostics.ECanceled,
			Message: fmt.Sprintf("evaluation canceled: %v", err),
		}
	}

	program, diags := parser.Parse(source, s.filename)
	if len(diags) > 0 {
		return nil, &DiagnosticError{Diagnostics: diags}
	}

	return evaluator.EvaluateContext(ctx, program, s.env, evaluator.Options{Trace: s.emit})
}

func (s *Session) emit(event evaluator.TraceEvent) {
	if ce := s.logger.Check(zap.DebugLevel, "trace"); ce != nil {
		fields := []zap.Field{
			zap.String("event", string(event.Event)),
			zap.String("kind", event.Kind),
		}
		if event.Name != "" {
			fields = append(fields, zap.String("name", event.Name))
		}
		if event.Value != nil {
			fields = append(fields, zap.String("value", evaluator.FormatValue(event.Value)))
		}
		if event.Span != nil {
			fields = append(fields, zap.Int("line", event.Span.StartLine), zap.Int("col", event.Span.StartCol))
		}
		ce.Write(fields...)
	}
	if s.trace != nil {
		s.trace(event)
	}
}

// Check parses and validates source against the session's current
// bindings without evaluating it.
func (s *Session) Check(source string) []diagnostics.Diagnostic {
	program, diags := parser.Parse(source, s.filename)
	if len(diags) > 0 {
		return diags
	}

	var opts validator.Options
	for _, b := range s.env.Bindings() {
		if b.Constant {
			opts.Constants = append(opts.Constants, b.Name)
		} else {
			opts.Known = append(opts.Known, b.Name)
		}
	}
	return validator.ValidateWith(program, opts)
}

// Format parses and formats source.
func (s *Session) Format(source string) (string, error) {
	program, diags := parser.Parse(source, s.filename)
	if len(diags) > 0 {
		return "", &DiagnosticError{Diagnostics: diags}
	}
	return formatter.Format(program), nil
}

// IsExit reports whether line ends the session: it is empty or mentions exit.
func IsExit(line string) bool {
	return line == "" || strings.Contains(line, "exit")
}

type lineResult struct {
	line string
	err  error
}

// readLines feeds lines from in to the returned channel, one per receive,
// until a read fails or done is closed.
func readLines(in io.Reader, done <-chan struct{}) <-chan lineResult {
	lines := make(chan lineResult)
	go func() {
		defer close(lines)
		reader := bufio.NewReader(in)
		for {
			line, err := reader.ReadString('\n')
			select {
			case lines <- lineResult{line: line, err: err}:
			case <-done:
				return
			}
			if err != nil {
				return
			}
		}
	}()
	return lines
}

// REPL reads one turn per line from in until the exit signal, EOF or ctx
// is done, writing the prompt, each result and each diagnostic to out.
// Failed turns do not end the loop. A read blocked on in is abandoned when
// ctx is done.
func (s *Session) REPL(ctx context.Context, in io.Reader, out io.Writer) error {
	done := make(chan struct{})
	defer close(done)
	lines := readLines(in, done)

	for {
		if ctx.Err() != nil {
			return nil
		}

		if _, err := io.WriteString(out, s.prompt); err != nil {
			return err
		}

		var res lineResult
		select {
		case <-ctx.Done():
			s.logger.Debug("repl canceled")
			return nil
		case res = <-lines:
		}

		line, err := res.line, res.err
		eof := errors.Is(err, io.EOF)
		if err != nil && !eof {
			return err
		}
		if eof && line == "" {
			_, err := io.WriteString(out, "\n")
			return err
		}

		line = strings.TrimSuffix(line, "\n")
		line = strings.TrimSuffix(line, "\r")
		if IsExit(line) {
			return nil
		}

		val, evalErr := s.Eval(ctx, line)
		result := ""
		if evalErr != nil {
			result = s.FormatError(evalErr)
		} else {
			result = evaluator.FormatValue(val)
		}
		if _, err := fmt.Fprintln(out, result); err != nil {
			return err
		}

		if eof {
			return nil
		}
	}
}

// FormatError renders a turn error as diagnostics.
func (s *Session) FormatError(err error) string {
	var dErr *DiagnosticError
	if errors.As(err, &dErr) {
		return diagnostics.FormatDiagnostics(dErr.Diagnostics, s.pretty)
	}
	var rtErr *evaluator.RuntimeError
	if errors.As(err, &rtErr) {
		return diagnostics.FormatDiagnostic(rtErr.Diagnostic(), s.pretty)
	}
	return err.Error()
}

// Code returns the diagnostic code carried by err, or "" for nil.
func Code(err error) string {
	if err == nil {
		return ""
	}
	var dErr *DiagnosticError
	if errors.As(err, &dErr) && len(dErr.Diagnostics) > 0 {
		return dErr.Diagnostics[0].Code
	}
	var rtErr *evaluator.RuntimeError
	if errors.As(err, &rtErr) {
		return rtErr.Code
	}
	return diagnostics.EIO
}

// DiagnosticError wraps diagnostics as an error.
type DiagnosticError struct {
	Diagnostics []diagnostics.Diagnostic
}

func (e *DiagnosticError) Error() string {
	msgs := make([]string, len(e.Diagnostics))
	for i, d := range e.Diagnostics {
		msgs[i] = fmt.Sprintf("%s: %s", d.Code, d.Message)
	}
	return strings.Join(msgs, "; ")
}
