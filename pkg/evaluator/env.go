package evaluator

import (
	"github.com/thomasrohde/scheval/pkg/diagnostics"
)

// Frame is one level of name to value bindings. Names keep their insertion
// order so the global frame built from the primitive table is laid out
// deterministically.
type Frame struct {
	names []string
	slots map[string]Value
}

func newFrame() *Frame {
	return &Frame{slots: make(map[string]Value)}
}

func (f *Frame) bind(name string, val Value) {
	if _, ok := f.slots[name]; !ok {
		f.names = append(f.names, name)
	}
	f.slots[name] = val
}

// Names returns the bound names in definition order.
func (f *Frame) Names() []string {
	return append([]string(nil), f.names...)
}

// Env is a chain of frames. Environments are shared by reference between
// closures; mutations through one reference are visible through all.
type Env struct {
	frame  *Frame
	parent *Env
}

// NewEnv creates an environment with an empty local frame and an optional
// parent scope.
func NewEnv(parent *Env) *Env {
	return &Env{frame: newFrame(), parent: parent}
}

// Parent returns the enclosing environment, or nil for the global one.
func (e *Env) Parent() *Env {
	return e.parent
}

// Frame returns the local frame.
func (e *Env) Frame() *Frame {
	if e.frame == nil {
		e.frame = newFrame()
	}
	return e.frame
}

// find returns the nearest frame binding name.
func (e *Env) find(name string) (*Frame, bool) {
	for env := e; env != nil; env = env.parent {
		if env.frame == nil {
			continue
		}
		if _, ok := env.frame.slots[name]; ok {
			return env.frame, true
		}
	}
	return nil, false
}

// Lookup resolves name innermost-first. It fails with E_UNBOUND when no
// frame binds the name and E_UNASSIGNED when the binding still holds a
// letrec placeholder.
func (e *Env) Lookup(name string) (Value, error) {
	frame, ok := e.find(name)
	if !ok {
		return nil, newError(diagnostics.EUnbound, nil, "unbound variable: %s", name)
	}
	val := frame.slots[name]
	if _, isPlaceholder := val.(unassigned); isPlaceholder {
		return nil, newError(diagnostics.EUnassigned, nil, "variable used before assignment: %s", name)
	}
	return val, nil
}

// IsBound reports whether any frame in the chain binds name.
func (e *Env) IsBound(name string) bool {
	_, ok := e.find(name)
	return ok
}

// Define binds name in the local frame only, overwriting any existing
// local binding.
func (e *Env) Define(name string, val Value) {
	e.Frame().bind(name, val)
}

// SetVariable mutates the nearest existing binding of name. It never
// creates a binding.
func (e *Env) SetVariable(name string, val Value) error {
	frame, ok := e.find(name)
	if !ok {
		return newError(diagnostics.EUnbound, nil, "unbound variable: set! %s", name)
	}
	frame.slots[name] = val
	return nil
}

// Extend returns a child environment binding names to values positionally.
func (e *Env) Extend(names []string, values []Value) (*Env, error) {
	switch {
	case len(names) < len(values):
		return nil, newError(diagnostics.EArity, nil, "too many arguments: expected %d, got %d", len(names), len(values))
	case len(names) > len(values):
		return nil, newError(diagnostics.EArity, nil, "too few arguments: expected %d, got %d", len(names), len(values))
	}
	child := NewEnv(e)
	for i, name := range names {
		child.frame.bind(name, values[i])
	}
	return child, nil
}
