package evaluator

import (
	"github.com/thomasrohde/scheval/pkg/ast"
)

// Procedure is a callable value.
type Procedure interface {
	Value
	ProcName() string
}

// Primitive is a native operation identified by its dispatch key.
type Primitive struct {
	Name string
	Key  string
}

func (*Primitive) schemeValue() {}

func (p *Primitive) ProcName() string { return p.Name }

// Compound is a user-defined closure. Env is captured by reference.
type Compound struct {
	Name    string
	Formals []string
	Body    []ast.Node
	Env     *Env
}

func (*Compound) schemeValue() {}

func (c *Compound) ProcName() string { return c.Name }

// NewPrimitive creates a primitive procedure value.
func NewPrimitive(name, key string) *Primitive {
	return &Primitive{Name: name, Key: key}
}

// MakeProcedure builds a closure over env.
func MakeProcedure(formals []*ast.Identifier, body []ast.Node, env *Env) *Compound {
	names := make([]string, len(formals))
	for i, f := range formals {
		names[i] = f.Name
	}
	return &Compound{Formals: names, Body: body, Env: env}
}
