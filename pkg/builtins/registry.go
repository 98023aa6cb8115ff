// Package builtins provides the primitive procedure table bound into the
// global environment.
package builtins

import (
	"github.com/thomasrohde/scheval/pkg/evaluator"
)

// Registry holds primitive definitions in declaration order.
type Registry struct {
	defs  []evaluator.PrimitiveDef
	index map[string]int
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		index: make(map[string]int),
	}
}

// Register adds a primitive. Registering an existing name replaces the
// definition in place, keeping its position.
func (r *Registry) Register(def evaluator.PrimitiveDef) {
	if i, ok := r.index[def.Name]; ok {
		r.defs[i] = def
		return
	}
	r.index[def.Name] = len(r.defs)
	r.defs = append(r.defs, def)
}

// Get retrieves a primitive by name.
func (r *Registry) Get(name string) (evaluator.PrimitiveDef, bool) {
	i, ok := r.index[name]
	if !ok {
		return evaluator.PrimitiveDef{}, false
	}
	return r.defs[i], true
}

// All returns every primitive in declaration order.
func (r *Registry) All() []evaluator.PrimitiveDef {
	return append([]evaluator.PrimitiveDef(nil), r.defs...)
}

// Names returns the registered names in declaration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.defs))
	for i, def := range r.defs {
		names[i] = def.Name
	}
	return names
}
