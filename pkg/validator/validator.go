// Package validator implements static checks over Scheme programs before
// they are evaluated.
package validator

import (
	"fmt"

	"github.com/thomasrohde/scheval/pkg/ast"
	"github.com/thomasrohde/scheval/pkg/desugar"
	"github.com/thomasrohde/scheval/pkg/diagnostics"
	"github.com/thomasrohde/scheval/pkg/evaluator"
)

type validator struct {
	diags []diagnostics.Diagnostic
}

// Validate checks literals, binding lists and derived-form shapes, and
// returns diagnostics for every problem found. It never evaluates code.
func Validate(program *ast.Program) []diagnostics.Diagnostic {
	v := &validator{}
	for _, form := range program.Forms {
		v.walk(form)
	}
	return v.diags
}

func (v *validator) addDiag(code, msg string, span ast.Span) {
	v.diags = append(v.diags, diagnostics.MakeDiag(code, msg, &span, ""))
}

func (v *validator) walkAll(nodes []ast.Node) {
	for _, n := range nodes {
		v.walk(n)
	}
}

// uniqueNames reports every identifier that appears twice in one binding
// list.
func (v *validator) uniqueNames(context string, ids []*ast.Identifier) {
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id.Name] {
			v.addDiag(diagnostics.EDupBinding, fmt.Sprintf("%s: duplicate binding '%s'", context, id.Name), id.Span)
			continue
		}
		seen[id.Name] = true
	}
}

func bindingNames(specs []*ast.BindSpec) []*ast.Identifier {
	ids := make([]*ast.Identifier, len(specs))
	for i, s := range specs {
		ids[i] = s.Identifier
	}
	return ids
}

func (v *validator) walkBindings(specs []*ast.BindSpec) {
	for _, s := range specs {
		v.walk(s.Init)
	}
}

func (v *validator) walk(node ast.Node) {
	switch n := node.(type) {
	case *ast.BoolLiteral:
		switch n.Literal {
		case "#t", "#true", "#f", "#false":
		default:
			v.addDiag(diagnostics.EInvalidLiteral, fmt.Sprintf("invalid boolean literal '%s'", n.Literal), n.Span)
		}

	case *ast.NumberLiteral:
		if _, err := evaluator.ParseNumber(n.Literal); err != nil {
			v.addDiag(diagnostics.EInvalidLiteral, err.Error(), n.Span)
		}

	case *ast.Quotation:
		v.walkDatum(n.Datum)

	case *ast.ProcedureCall:
		v.walk(n.Operator)
		v.walkAll(n.Operands)

	case *ast.Lambda:
		v.uniqueNames("lambda", n.Formals)
		v.walkAll(n.Body)

	case *ast.Conditional:
		v.walk(n.Test)
		v.walk(n.Consequent)
		if n.Alternate != nil {
			v.walk(n.Alternate)
		}

	case *ast.Assignment:
		v.walk(n.Expression)

	case *ast.Definition:
		v.walk(n.Expression)

	case *ast.Begin:
		v.walkAll(n.Forms)

	case *ast.Cond:
		if _, err := desugar.Expand(n); err != nil {
			if de, ok := err.(*desugar.Error); ok {
				v.addDiag(diagnostics.EDesugar, de.Message, de.Span)
			}
		}
		for _, c := range n.Clauses {
			if !c.IsElse() {
				v.walk(c.Test)
			}
			v.walkAll(c.Sequence)
			if c.Receiver != nil {
				v.walk(c.Receiver)
			}
		}

	case *ast.And:
		v.walkAll(n.Exprs)

	case *ast.Or:
		v.walkAll(n.Exprs)

	case *ast.When:
		v.walk(n.Test)
		v.walkAll(n.Body)

	case *ast.Unless:
		v.walk(n.Test)
		v.walkAll(n.Body)

	case *ast.Let:
		v.uniqueNames("let", bindingNames(n.Bindings))
		v.walkBindings(n.Bindings)
		v.walkAll(n.Body)

	case *ast.LetStar:
		v.walkBindings(n.Bindings)
		v.walkAll(n.Body)

	case *ast.Letrec:
		v.uniqueNames("letrec", bindingNames(n.Bindings))
		v.walkBindings(n.Bindings)
		v.walkAll(n.Body)

	case *ast.LetrecStar:
		v.uniqueNames("letrec*", bindingNames(n.Bindings))
		v.walkBindings(n.Bindings)
		v.walkAll(n.Body)

	case *ast.Do:
		ids := make([]*ast.Identifier, len(n.Specs))
		for i, s := range n.Specs {
			ids[i] = s.Identifier
			v.walk(s.Init)
			if s.Step != nil {
				v.walk(s.Step)
			}
		}
		v.uniqueNames("do", ids)
		v.walk(n.Test)
		v.walkAll(n.Result)
		v.walkAll(n.Commands)
	}
}

// walkDatum checks literals nested inside quoted data.
func (v *validator) walkDatum(node ast.Node) {
	switch d := node.(type) {
	case *ast.ListDatum:
		for _, e := range d.Elements {
			v.walkDatum(e)
		}
		if d.Tail != nil {
			v.walkDatum(d.Tail)
		}
	case *ast.Quotation:
		v.walkDatum(d.Datum)
	case *ast.BoolLiteral, *ast.NumberLiteral:
		v.walk(d)
	}
}
