package evaluator

import (
	"errors"
	"fmt"
	"time"

	"github.com/thomasrohde/scheval/pkg/ast"
	"github.com/thomasrohde/scheval/pkg/desugar"
	"github.com/thomasrohde/scheval/pkg/diagnostics"
	"github.com/thomasrohde/scheval/pkg/formatter"
)

// TraceEventType identifies the type of a trace event.
type TraceEventType string

const (
	TraceRunStart       TraceEventType = "run_start"
	TraceRunEnd         TraceEventType = "run_end"
	TraceFormStart      TraceEventType = "form_start"
	TraceFormEnd        TraceEventType = "form_end"
	TraceApplyStart     TraceEventType = "apply_start"
	TraceApplyEnd       TraceEventType = "apply_end"
	TraceDesugar        TraceEventType = "desugar"
	TraceBudgetExceeded TraceEventType = "budget_exceeded"
)

// TraceEvent represents a single trace event emitted during evaluation.
type TraceEvent struct {
	Timestamp string            `json:"ts"`
	RunID     string            `json:"runId"`
	Event     TraceEventType    `json:"event"`
	Span      *ast.Span         `json:"span,omitempty"`
	Data      map[string]string `json:"data,omitempty"`
}

// NativeFn is the implementation behind a primitive procedure.
type NativeFn func(args []Value) (Value, error)

// PrimitiveDef binds a global name to a native implementation via its
// dispatch key.
type PrimitiveDef struct {
	Name    string
	Key     string
	Execute NativeFn
}

// Options configures an Evaluator.
type Options struct {
	Primitives  []PrimitiveDef
	Trace       func(event TraceEvent)
	RunID       string
	Budget      Budget
	// Interrupted is polled on every compound application. A non-nil
	// result stops evaluation with E_CANCELLED wrapping that error.
	Interrupted func() error
}

// Evaluator walks AST nodes against environments.
type Evaluator struct {
	opts    Options
	natives map[string]NativeFn
	order   []PrimitiveDef
	tracker BudgetTracker
}

// New creates an evaluator. Primitives are registered in the given order.
func New(opts Options) *Evaluator {
	if opts.Budget.MaxDepth == 0 {
		opts.Budget.MaxDepth = DefaultMaxDepth
	}
	ev := &Evaluator{
		opts:    opts,
		natives: make(map[string]NativeFn, len(opts.Primitives)),
	}
	for _, def := range opts.Primitives {
		ev.Register(def)
	}
	return ev
}

// Register adds a primitive. Environments created afterwards by
// NewGlobalEnv bind it; existing environments must be updated with Define.
func (ev *Evaluator) Register(def PrimitiveDef) *Primitive {
	if _, exists := ev.natives[def.Key]; !exists {
		ev.order = append(ev.order, def)
	}
	ev.natives[def.Key] = def.Execute
	return NewPrimitive(def.Name, def.Key)
}

// NewGlobalEnv builds a fresh global environment holding one primitive
// procedure per registered entry, in declaration order.
func (ev *Evaluator) NewGlobalEnv() *Env {
	env := NewEnv(nil)
	for _, def := range ev.order {
		env.Define(def.Name, NewPrimitive(def.Name, def.Key))
	}
	return env
}

// Tracker returns the resource counters accumulated so far.
func (ev *Evaluator) Tracker() BudgetTracker {
	return ev.tracker
}

// Emit sends a trace event when tracing is enabled.
func (ev *Evaluator) Emit(event TraceEventType, span *ast.Span, data map[string]string) {
	if ev.opts.Trace == nil {
		return
	}
	ev.opts.Trace(TraceEvent{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		RunID:     ev.opts.RunID,
		Event:     event,
		Span:      span,
		Data:      data,
	})
}

// Eval evaluates node in env.
func (ev *Evaluator) Eval(node ast.Node, env *Env) (Value, error) {
	switch n := node.(type) {
	case *ast.EmptyList:
		return Empty, nil

	case *ast.BoolLiteral:
		return ev.evalBoolean(n.Literal, n.Span)

	case *ast.NumberLiteral:
		num, err := ParseNumber(n.Literal)
		if err != nil {
			return nil, newError(diagnostics.EInvalidLiteral, &n.Span, "%s", err.Error())
		}
		return num, nil

	case *ast.StrLiteral:
		return NewString(n.Value), nil

	case *ast.CharLiteral:
		return NewChar(n.Value), nil

	case *ast.Unassigned:
		return placeholder, nil

	case *ast.Identifier:
		val, err := env.Lookup(n.Name)
		if err != nil {
			return nil, withSpan(err, n.Span)
		}
		return val, nil

	case *ast.Quotation:
		return ev.quote(n.Datum)

	case *ast.ProcedureCall:
		return ev.evalCall(n, env)

	case *ast.Lambda:
		return MakeProcedure(n.Formals, n.Body, env), nil

	case *ast.Conditional:
		test, err := ev.Eval(n.Test, env)
		if err != nil {
			return nil, err
		}
		if IsTruthy(test) {
			return ev.Eval(n.Consequent, env)
		}
		if n.Alternate == nil {
			return Unspec, nil
		}
		return ev.Eval(n.Alternate, env)

	case *ast.Assignment:
		val, err := ev.Eval(n.Expression, env)
		if err != nil {
			return nil, err
		}
		if proc, ok := val.(*Compound); ok && proc.Name == "" {
			proc.Name = n.Identifier.Name
		}
		if err := env.SetVariable(n.Identifier.Name, val); err != nil {
			return nil, withSpan(err, n.Span)
		}
		return Unspec, nil

	case *ast.Definition:
		val, err := ev.Eval(n.Expression, env)
		if err != nil {
			return nil, err
		}
		if proc, ok := val.(*Compound); ok && proc.Name == "" {
			proc.Name = n.Identifier.Name
		}
		env.Define(n.Identifier.Name, val)
		return NewSymbol(n.Identifier.Name), nil

	case *ast.Begin:
		return ev.EvalSequence(n.Forms, env)

	case *ast.Program:
		return ev.EvalSequence(n.Forms, env)

	case *ast.Cond, *ast.And, *ast.Or, *ast.When, *ast.Unless,
		*ast.Let, *ast.LetStar, *ast.Letrec, *ast.LetrecStar, *ast.Do:
		return ev.evalDerived(node, env)
	}

	span := node.NodeSpan()
	return nil, newError(diagnostics.EUnknownForm, &span, "unknown form: %s", node.Kind())
}

// EvalSequence evaluates forms in order and returns the last value. An
// empty sequence yields Unspecified.
func (ev *Evaluator) EvalSequence(forms []ast.Node, env *Env) (Value, error) {
	var result Value = Unspec
	for _, form := range forms {
		val, err := ev.Eval(form, env)
		if err != nil {
			return nil, err
		}
		result = val
	}
	return result, nil
}

func (ev *Evaluator) evalBoolean(literal string, span ast.Span) (Value, error) {
	switch literal {
	case "#t", "#true":
		return True, nil
	case "#f", "#false":
		return False, nil
	}
	return nil, newError(diagnostics.EInvalidLiteral, &span, "invalid boolean literal '%s'", literal)
}

func (ev *Evaluator) evalDerived(node ast.Node, env *Env) (Value, error) {
	span := node.NodeSpan()
	expanded, err := desugar.Expand(node)
	if err != nil {
		var de *desugar.Error
		if errors.As(err, &de) {
			return nil, newError(diagnostics.EDesugar, &de.Span, "%s", de.Message)
		}
		return nil, newError(diagnostics.EDesugar, &span, "%s", err.Error())
	}
	if ev.opts.Trace != nil {
		ev.Emit(TraceDesugar, &span, map[string]string{
			"form":      node.Kind(),
			"into":      expanded.Kind(),
			"expansion": formatter.Node(expanded),
		})
	}
	return ev.Eval(expanded, env)
}

func (ev *Evaluator) evalCall(n *ast.ProcedureCall, env *Env) (Value, error) {
	proc, err := ev.Eval(n.Operator, env)
	if err != nil {
		return nil, err
	}
	args := make([]Value, len(n.Operands))
	for i, operand := range n.Operands {
		if args[i], err = ev.Eval(operand, env); err != nil {
			return nil, err
		}
	}
	val, err := ev.Apply(proc, args)
	if err != nil {
		return nil, withSpan(err, n.Span)
	}
	return val, nil
}

// Apply calls proc with already evaluated arguments.
func (ev *Evaluator) Apply(proc Value, args []Value) (Value, error) {
	switch p := proc.(type) {
	case *Primitive:
		return ev.applyPrimitive(p, args)
	case *Compound:
		return ev.applyCompound(p, args)
	}
	return nil, newError(diagnostics.EType, nil, "not a procedure: %s", TypeName(proc))
}

func (ev *Evaluator) applyPrimitive(p *Primitive, args []Value) (Value, error) {
	fn, ok := ev.natives[p.Key]
	if !ok {
		return nil, newError(diagnostics.EPrimitive, nil, "%s: no native implementation for key '%s'", p.Name, p.Key)
	}
	val, err := fn(args)
	if err != nil {
		var re *RuntimeError
		if errors.As(err, &re) {
			return nil, re
		}
		return nil, newError(diagnostics.EPrimitive, nil, "%s: %s", p.Name, err.Error())
	}
	return val, nil
}

func (ev *Evaluator) applyCompound(p *Compound, args []Value) (Value, error) {
	callEnv, err := p.Env.Extend(p.Formals, args)
	if err != nil {
		if re, ok := err.(*RuntimeError); ok && p.Name != "" {
			re.Message = p.Name + ": " + re.Message
		}
		return nil, err
	}

	ev.tracker.Applies++
	ev.tracker.Depth++
	defer func() { ev.tracker.Depth-- }()
	if ev.tracker.Depth > ev.tracker.MaxSeen {
		ev.tracker.MaxSeen = ev.tracker.Depth
	}
	if ev.opts.Budget.MaxDepth > 0 && ev.tracker.Depth > ev.opts.Budget.MaxDepth {
		ev.Emit(TraceBudgetExceeded, nil, map[string]string{
			"maxDepth": fmt.Sprint(ev.opts.Budget.MaxDepth),
		})
		return nil, newError(diagnostics.EBudget, nil, "recursion depth budget exceeded (max %d)", ev.opts.Budget.MaxDepth)
	}
	if ev.opts.Interrupted != nil {
		if cause := ev.opts.Interrupted(); cause != nil {
			return nil, &RuntimeError{
				Code:    diagnostics.ECancelled,
				Message: "evaluation interrupted: " + cause.Error(),
				Err:     cause,
			}
		}
	}

	name := p.Name
	if name == "" {
		name = "lambda"
	}
	var span *ast.Span
	if len(p.Body) > 0 {
		s := p.Body[0].NodeSpan()
		span = &s
	}
	ev.Emit(TraceApplyStart, span, map[string]string{"procedure": name})
	val, err := ev.EvalSequence(p.Body, callEnv)
	ev.Emit(TraceApplyEnd, span, map[string]string{"procedure": name})
	return val, err
}

// quote converts a datum into a fresh value.
func (ev *Evaluator) quote(datum ast.Node) (Value, error) {
	switch d := datum.(type) {
	case *ast.Identifier:
		return NewSymbol(d.Name), nil
	case *ast.EmptyList:
		return Empty, nil
	case *ast.BoolLiteral, *ast.NumberLiteral, *ast.StrLiteral, *ast.CharLiteral:
		return ev.Eval(d, nil)
	case *ast.Quotation:
		inner, err := ev.quote(d.Datum)
		if err != nil {
			return nil, err
		}
		return List(NewSymbol("quote"), inner), nil
	case *ast.ListDatum:
		var tail Value = Empty
		if d.Tail != nil {
			var err error
			if tail, err = ev.quote(d.Tail); err != nil {
				return nil, err
			}
		}
		items := make([]Value, len(d.Elements))
		for i, e := range d.Elements {
			v, err := ev.quote(e)
			if err != nil {
				return nil, err
			}
			items[i] = v
		}
		for i := len(items) - 1; i >= 0; i-- {
			tail = Cons(items[i], tail)
		}
		return tail, nil
	}
	span := datum.NodeSpan()
	return nil, newError(diagnostics.EUnknownForm, &span, "cannot quote %s", datum.Kind())
}
