package evaluator

import (
	"fmt"
	"sort"

	"github.com/samber/lo"

	"github.com/douglang/doug/pkg/diagnostics"
)

// Env is a scoped environment for variable bindings.
// It supports parent-chained lookup for lexical scoping; a child scope may
// shadow its ancestors but never sees its siblings.
type Env struct {
	bindings  map[string]Value
	constants map[string]struct{}
	parent    *Env
}

// Binding describes one visible name.
type Binding struct {
	Name     string
	Value    Value
	Constant bool
}

// NewEnv creates a new environment with an optional parent scope.
func NewEnv(parent *Env) *Env {
	return &Env{
		bindings:  make(map[string]Value),
		constants: make(map[string]struct{}),
		parent:    parent,
	}
}

// Child creates a new child scope whose parent is this environment.
func (e *Env) Child() *Env {
	return NewEnv(e)
}

// Declare binds name in this scope only. It fails if name is already bound
// in this exact scope; bindings in outer scopes are shadowed.
func (e *Env) Declare(name string, val Value, constant bool) (Value, error) {
	if e.HasLocal(name) {
		return nil, &RuntimeError{
			Code:    diagnostics.ERedeclared,
			Message: fmt.Sprintf("variable '%s' is already declared", name),
		}
	}
	e.bindings[name] = val
	if constant {
		e.constants[name] = struct{}{}
	}
	return val, nil
}

// Assign updates the nearest binding of name, walking outward through
// parent scopes. Constants are never updated.
func (e *Env) Assign(name string, val Value) (Value, error) {
	scope := e.resolve(name)
	if scope == nil {
		return nil, undeclared(name)
	}
	if _, ok := scope.constants[name]; ok {
		return nil, &RuntimeError{
			Code:    diagnostics.EConstAssign,
			Message: fmt.Sprintf("cannot assign to constant '%s'", name),
		}
	}
	scope.bindings[name] = val
	return val, nil
}

// Lookup returns the value of the nearest binding of name.
func (e *Env) Lookup(name string) (Value, error) {
	scope := e.resolve(name)
	if scope == nil {
		return nil, undeclared(name)
	}
	return scope.bindings[name], nil
}

// HasLocal checks whether a variable is defined in this exact scope.
func (e *Env) HasLocal(name string) bool {
	_, ok := e.bindings[name]
	return ok
}

// Bindings lists every visible binding sorted by name. Inner scopes win.
func (e *Env) Bindings() []Binding {
	seen := make(map[string]Binding)
	for scope := e; scope != nil; scope = scope.parent {
		for name, val := range scope.bindings {
			if _, ok := seen[name]; ok {
				continue
			}
			_, constant := scope.constants[name]
			seen[name] = Binding{Name: name, Value: val, Constant: constant}
		}
	}
	out := lo.Values(seen)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Names lists every visible name, sorted.
func (e *Env) Names() []string {
	return lo.Map(e.Bindings(), func(b Binding, _ int) string { return b.Name })
}

func (e *Env) resolve(name string) *Env {
	for scope := e; scope != nil; scope = scope.parent {
		if _, ok := scope.bindings[name]; ok {
			return scope
		}
	}
	return nil
}

func undeclared(name string) error {
	return &RuntimeError{
		Code:    diagnostics.EUndeclared,
		Message: fmt.Sprintf("variable '%s' is not declared", name),
	}
}
