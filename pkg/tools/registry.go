// Package tools provides host procedures: operations that reach outside
// the evaluator, such as loading files, and are bound next to the
// primitives in a session environment.
package tools

import (
	"context"

	"github.com/thomasrohde/scheval/pkg/evaluator"
)

// Def represents a host procedure.
type Def struct {
	Name    string
	Execute func(ctx context.Context, args []evaluator.Value) (evaluator.Value, error)
}

// Loader evaluates a source file in the calling session and returns the
// value of its last form.
type Loader func(ctx context.Context, path string) (evaluator.Value, error)

// Registry holds registered host procedures in registration order.
type Registry struct {
	tools map[string]*Def
	order []string
}

// NewRegistry creates a new empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]*Def),
	}
}

// Register adds a tool to the registry.
func (r *Registry) Register(tool Def) {
	if _, exists := r.tools[tool.Name]; !exists {
		r.order = append(r.order, tool.Name)
	}
	r.tools[tool.Name] = &tool
}

// Get retrieves a tool by name.
func (r *Registry) Get(name string) *Def {
	return r.tools[name]
}

// All returns all registered tools in registration order.
func (r *Registry) All() []*Def {
	out := make([]*Def, len(r.order))
	for i, name := range r.order {
		out[i] = r.tools[name]
	}
	return out
}

// RegisterDefaults adds all built-in host procedures.
func RegisterDefaults(r *Registry, load Loader, version string) {
	r.Register(loadTool(load))
	r.Register(readFileTool())
	r.Register(fileExistsTool())
	r.Register(directoryListTool())
	r.Register(versionTool(version))
}

func stringArg(name string, args []evaluator.Value) (string, error) {
	if len(args) != 1 {
		return "", evaluator.ArityError(name, "expected 1 argument(s), got %d", len(args))
	}
	s, ok := args[0].(evaluator.String)
	if !ok {
		return "", evaluator.TypeError(name, "string", args[0])
	}
	return s.Value, nil
}

func versionTool(version string) Def {
	return Def{
		Name: "version",
		Execute: func(ctx context.Context, args []evaluator.Value) (evaluator.Value, error) {
			if len(args) != 0 {
				return nil, evaluator.ArityError("version", "expected 0 argument(s), got %d", len(args))
			}
			return evaluator.NewString(version), nil
		},
	}
}
