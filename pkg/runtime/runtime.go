// Package runtime provides the top-level interpreter session orchestrator.
package runtime

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/thomasrohde/scheval/pkg/ast"
	"github.com/thomasrohde/scheval/pkg/builtins"
	"github.com/thomasrohde/scheval/pkg/diagnostics"
	"github.com/thomasrohde/scheval/pkg/evaluator"
	"github.com/thomasrohde/scheval/pkg/formatter"
	"github.com/thomasrohde/scheval/pkg/parser"
	"github.com/thomasrohde/scheval/pkg/tools"
	"github.com/thomasrohde/scheval/pkg/validator"
)

// Version is the interpreter version reported by the version procedure.
const Version = "0.1.0"

// Result holds the outcome of evaluating a source unit.
type Result struct {
	// Value is the value of the last form, Unspecified for an empty source.
	Value evaluator.Value
	// Values holds one value per successfully evaluated top-level form.
	Values []evaluator.Value
}

// Runtime wires together all components into one interpreter session. The
// global environment persists across Eval calls.
type Runtime struct {
	builtins *builtins.Registry
	tools    *tools.Registry
	out      io.Writer
	runID    string
	trace    func(event evaluator.TraceEvent)
	maxDepth int64
	logger   *slog.Logger

	ev  *evaluator.Evaluator
	env *evaluator.Env
	ctx context.Context
}

// Option is a functional option for configuring the Runtime.
type Option func(*Runtime)

// WithBuiltins replaces the primitive table.
func WithBuiltins(r *builtins.Registry) Option {
	return func(rt *Runtime) {
		rt.builtins = r
	}
}

// WithTools replaces the host procedure table.
func WithTools(r *tools.Registry) Option {
	return func(rt *Runtime) {
		rt.tools = r
	}
}

// WithOutput sets the writer used by display, write and newline.
func WithOutput(w io.Writer) Option {
	return func(rt *Runtime) {
		rt.out = w
	}
}

// WithRunID sets the run ID for trace events.
func WithRunID(id string) Option {
	return func(rt *Runtime) {
		rt.runID = id
	}
}

// WithTrace sets the trace callback.
func WithTrace(fn func(event evaluator.TraceEvent)) Option {
	return func(rt *Runtime) {
		rt.trace = fn
	}
}

// WithMaxDepth sets the nested application budget.
func WithMaxDepth(depth int64) Option {
	return func(rt *Runtime) {
		rt.maxDepth = depth
	}
}

// WithLogger sets the logger for host-level diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(rt *Runtime) {
		rt.logger = l
	}
}

// New creates a new Runtime with the given options.
// By default the standard primitives write to stdout and the host
// procedures load, read-file, file-exists?, directory-list and version are
// bound after them.
func New(opts ...Option) *Runtime {
	rt := &Runtime{
		out:      os.Stdout,
		runID:    "cli",
		maxDepth: evaluator.DefaultMaxDepth,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		ctx:      context.Background(),
	}
	for _, opt := range opts {
		opt(rt)
	}
	if rt.builtins == nil {
		rt.builtins = builtins.Defaults(rt.out)
	}
	if rt.tools == nil {
		rt.tools = tools.NewRegistry()
		tools.RegisterDefaults(rt.tools, rt.loadValue, Version)
	}

	primitives := rt.builtins.All()
	for _, def := range rt.tools.All() {
		primitives = append(primitives, rt.hostPrimitive(def))
	}
	rt.ev = evaluator.New(evaluator.Options{
		Primitives:  primitives,
		Trace:       rt.trace,
		RunID:       rt.runID,
		Budget:      evaluator.Budget{MaxDepth: rt.maxDepth},
		Interrupted: rt.interrupted,
	})
	rt.env = rt.ev.NewGlobalEnv()
	return rt
}

// interrupted reports the cancellation of the Eval call in progress.
func (rt *Runtime) interrupted() error {
	return rt.ctx.Err()
}

// hostPrimitive adapts a tool to the primitive calling convention. The
// context is the one passed to the Eval call in progress.
func (rt *Runtime) hostPrimitive(def *tools.Def) evaluator.PrimitiveDef {
	execute := def.Execute
	return evaluator.PrimitiveDef{
		Name: def.Name,
		Key:  "host:" + def.Name,
		Execute: func(args []evaluator.Value) (evaluator.Value, error) {
			return execute(rt.ctx, args)
		},
	}
}

// Env returns the session's global environment.
func (rt *Runtime) Env() *evaluator.Env {
	return rt.env
}

// Evaluator returns the underlying evaluator.
func (rt *Runtime) Evaluator() *evaluator.Evaluator {
	return rt.ev
}

// Reset discards every definition made in the session.
func (rt *Runtime) Reset() {
	rt.env = rt.ev.NewGlobalEnv()
}

// Eval parses, validates and evaluates source in the session environment,
// one top-level form at a time. Forms evaluated before a failure keep their
// effects; the partial result is returned with the error.
func (rt *Runtime) Eval(ctx context.Context, source, filename string) (*Result, error) {
	program, diags := parser.Parse(source, filename)
	if len(diags) > 0 {
		return nil, &DiagnosticError{Diagnostics: diags}
	}
	if vDiags := validator.Validate(program); len(vDiags) > 0 {
		return nil, &DiagnosticError{Diagnostics: vDiags}
	}
	return rt.EvalProgram(ctx, program)
}

// EvalProgram evaluates an already parsed program.
func (rt *Runtime) EvalProgram(ctx context.Context, program *ast.Program) (*Result, error) {
	prev := rt.ctx
	rt.ctx = ctx
	defer func() { rt.ctx = prev }()

	span := program.Span
	rt.ev.Emit(evaluator.TraceRunStart, &span, map[string]string{"file": span.File})
	rt.logger.Debug("run start", "file", span.File, "forms", len(program.Forms))

	result := &Result{Value: evaluator.Unspec}
	for _, form := range program.Forms {
		if err := ctx.Err(); err != nil {
			rt.ev.Emit(evaluator.TraceRunEnd, &span, map[string]string{"status": "cancelled"})
			return result, err
		}

		formSpan := form.NodeSpan()
		rt.ev.Emit(evaluator.TraceFormStart, &formSpan, map[string]string{"kind": form.Kind()})
		val, err := rt.ev.Eval(form, rt.env)
		if err != nil {
			status := "error"
			if ctx.Err() != nil {
				status = "cancelled"
			}
			rt.ev.Emit(evaluator.TraceFormEnd, &formSpan, map[string]string{"status": status})
			rt.ev.Emit(evaluator.TraceRunEnd, &span, map[string]string{"status": status})
			rt.logger.Debug("run failed", "file", span.File, "error", err)
			return result, err
		}
		rt.ev.Emit(evaluator.TraceFormEnd, &formSpan, map[string]string{"status": "ok"})
		result.Value = val
		result.Values = append(result.Values, val)
	}

	rt.ev.Emit(evaluator.TraceRunEnd, &span, map[string]string{"status": "ok"})
	rt.logger.Debug("run end", "file", span.File, "applies", rt.ev.Tracker().Applies)
	return result, nil
}

// Load reads a file and evaluates its contents as one source unit.
func (rt *Runtime) Load(ctx context.Context, path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &evaluator.RuntimeError{
			Code:    diagnostics.EIO,
			Message: fmt.Sprintf("load: %s", err),
		}
	}
	rt.logger.Debug("load", "path", path, "bytes", len(data))
	return rt.Eval(ctx, string(data), path)
}

// loadValue backs the load host procedure. Diagnostics from the loaded
// file surface as a runtime error so the caller's evaluation stops.
func (rt *Runtime) loadValue(ctx context.Context, path string) (evaluator.Value, error) {
	res, err := rt.Load(ctx, path)
	if err != nil {
		if de, ok := err.(*DiagnosticError); ok {
			return nil, &evaluator.RuntimeError{
				Code:    de.Diagnostics[0].Code,
				Message: fmt.Sprintf("load %s: %s", path, de.Error()),
			}
		}
		return nil, err
	}
	return res.Value, nil
}

// Check parses and validates source without evaluating it.
func (rt *Runtime) Check(source, filename string) []diagnostics.Diagnostic {
	program, diags := parser.Parse(source, filename)
	if len(diags) > 0 {
		return diags
	}
	return validator.Validate(program)
}

// Format parses source and renders it in canonical layout. Comments are
// not preserved.
func (rt *Runtime) Format(source, filename string) (string, error) {
	program, diags := parser.Parse(source, filename)
	if len(diags) > 0 {
		return "", &DiagnosticError{Diagnostics: diags}
	}
	return formatter.Format(program), nil
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
