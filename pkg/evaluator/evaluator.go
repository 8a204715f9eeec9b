package evaluator

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/douglang/doug/pkg/ast"
	"github.com/douglang/doug/pkg/diagnostics"
)

// TraceEventType identifies the type of a trace event.
type TraceEventType string

const (
	TraceStmtStart TraceEventType = "stmt_start"
	TraceStmtEnd   TraceEventType = "stmt_end"
	TraceDeclare   TraceEventType = "declare"
	TraceAssign    TraceEventType = "assign"
)

// TraceEvent represents a single trace event emitted during evaluation.
type TraceEvent struct {
	Event TraceEventType
	Kind  string
	Name  string
	Value Value
	Span  *ast.Span
}

// Options configures evaluation.
type Options struct {
	// Trace, when set, receives statement and binding events.
	Trace func(event TraceEvent)
}

// RuntimeError represents an error raised while evaluating a statement.
type RuntimeError struct {
	Code    string
	Message string
	Span    *ast.Span
}

func (e *RuntimeError) Error() string {
	return e.Message
}

// Diagnostic converts the error to a diagnostic.
func (e *RuntimeError) Diagnostic() diagnostics.Diagnostic {
	return diagnostics.MakeDiag(e.Code, e.Message, e.Span, "")
}

type evaluator struct {
	ctx  context.Context
	opts Options
}

func (ev *evaluator) emit(event TraceEvent) {
	if ev.opts.Trace != nil {
		ev.opts.Trace(event)
	}
}

// Evaluate reduces stmt to a single value, resolving names through env.
func Evaluate(stmt ast.Stmt, env *Env) (Value, error) {
	return EvaluateContext(context.Background(), stmt, env, Options{})
}

// EvaluateContext is Evaluate with a context checked before each program
// statement and an optional trace hook.
func EvaluateContext(ctx context.Context, stmt ast.Stmt, env *Env, opts Options) (Value, error) {
	ev := &evaluator{ctx: ctx, opts: opts}
	return ev.evalStmt(stmt, env)
}

func (ev *evaluator) evalStmt(stmt ast.Stmt, env *Env) (Value, error) {
	switch s := stmt.(type) {
	case *ast.Program:
		return ev.evalProgram(s, env)

	case *ast.ExprStmt:
		return ev.evalExpr(s.Expr, env)

	case *ast.VarDecl:
		var val Value = NewNull()
		if init, ok := s.Init.Get(); ok {
			v, err := ev.evalExpr(init, env)
			if err != nil {
				return nil, err
			}
			val = v
		}
		declared, err := env.Declare(s.Name, val, s.Constant)
		if err != nil {
			return nil, withSpan(err, s.Span)
		}
		span := s.Span
		ev.emit(TraceEvent{Event: TraceDeclare, Kind: s.Kind(), Name: s.Name, Value: declared, Span: &span})
		return declared, nil

	default:
		return nil, unsupported(stmt)
	}
}

func (ev *evaluator) evalProgram(prog *ast.Program, env *Env) (Value, error) {
	var lastVal Value = NewNull()

	for _, stmt := range prog.Statements {
		if err := ev.ctx.Err(); err != nil {
			span := stmt.NodeSpan()
			return nil, &RuntimeError{
				Code:    diagnostics.ECanceled,
				Message: fmt.Sprintf("evaluation canceled: %v", err),
				Span:    &span,
			}
		}

		span := stmt.NodeSpan()
		ev.emit(TraceEvent{Event: TraceStmtStart, Kind: stmt.Kind(), Span: &span})

		val, err := ev.evalStmt(stmt, env)
		if err != nil {
			return nil, err
		}
		lastVal = val

		ev.emit(TraceEvent{Event: TraceStmtEnd, Kind: stmt.Kind(), Value: val, Span: &span})
	}

	return lastVal, nil
}

func (ev *evaluator) evalExpr(expr ast.Expr, env *Env) (Value, error) {
	switch e := expr.(type) {
	case *ast.NumericLiteral:
		return NewNumber(e.Value), nil

	case *ast.NullLiteral:
		return NewNull(), nil

	case *ast.Identifier:
		val, err := env.Lookup(e.Name)
		if err != nil {
			return nil, withSpan(err, e.Span)
		}
		return val, nil

	case *ast.BinaryExpr:
		return ev.evalBinaryOp(e, env)

	case *ast.AssignExpr:
		val, err := ev.evalExpr(e.Value, env)
		if err != nil {
			return nil, err
		}
		assigned, err := env.Assign(e.Name, val)
		if err != nil {
			return nil, withSpan(err, e.Span)
		}
		span := e.Span
		ev.emit(TraceEvent{Event: TraceAssign, Kind: e.Kind(), Name: e.Name, Value: assigned, Span: &span})
		return assigned, nil

	default:
		return nil, unsupported(expr)
	}
}

func (ev *evaluator) evalBinaryOp(e *ast.BinaryExpr, env *Env) (Value, error) {
	left, err := ev.evalExpr(e.Left, env)
	if err != nil {
		return nil, err
	}
	right, err := ev.evalExpr(e.Right, env)
	if err != nil {
		return nil, err
	}

	span := e.Span
	lNum, lOk := left.(Number)
	rNum, rOk := right.(Number)
	if !lOk || !rOk {
		return nil, &RuntimeError{
			Code:    diagnostics.EType,
			Message: fmt.Sprintf("unsupported operand types for '%s': %s and %s", e.Op, TypeName(left), TypeName(right)),
			Span:    &span,
		}
	}

	result, err := Arithmetic(e.Op, lNum.Value, rNum.Value)
	if err != nil {
		return nil, withSpan(err, span)
	}
	return NewNumber(result), nil
}

// Arithmetic applies op with IEEE-754 semantics. Division by zero yields
// ±Inf or NaN; % is the floating-point remainder (math.Mod).
func Arithmetic(op ast.BinaryOp, l, r float64) (float64, error) {
	switch op {
	case ast.OpAdd:
		return l + r, nil
	case ast.OpSub:
		return l - r, nil
	case ast.OpMul:
		return l * r, nil
	case ast.OpDiv:
		return l / r, nil
	case ast.OpMod:
		return math.Mod(l, r), nil
	}
	return 0, &RuntimeError{
		Code:    diagnostics.EType,
		Message: fmt.Sprintf("unsupported operator '%s'", op),
	}
}

// withSpan attaches span to a RuntimeError that has none.
func withSpan(err error, span ast.Span) error {
	var rtErr *RuntimeError
	if errors.As(err, &rtErr) && rtErr.Span == nil {
		rtErr.Span = &span
	}
	return err
}

func unsupported(node ast.Node) error {
	if node == nil {
		return &RuntimeError{Code: diagnostics.EType, Message: "cannot evaluate nil node"}
	}
	span := node.NodeSpan()
	return &RuntimeError{
		Code:    diagnostics.EType,
		Message: fmt.Sprintf("unsupported node type: %s", node.Kind()),
		Span:    &span,
	}
}
