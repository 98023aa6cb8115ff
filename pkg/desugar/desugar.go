// Package desugar rewrites derived Scheme forms into primitive forms.
//
// Every rewrite is a pure AST-to-AST transformation. The result may itself
// contain derived forms (nested lets, or, and), which the evaluator expands
// again when it reaches them. Temporary names contain braces, which the
// reader never produces, so they cannot capture user identifiers.
package desugar

import (
	"fmt"

	"github.com/thomasrohde/scheval/pkg/ast"
)

// Error reports a malformed derived form.
type Error struct {
	Message string
	Span    ast.Span
}

func (e *Error) Error() string {
	return e.Message
}

// IsDerived reports whether node is a form handled by Expand.
func IsDerived(node ast.Node) bool {
	switch node.(type) {
	case *ast.Cond, *ast.And, *ast.Or, *ast.When, *ast.Unless,
		*ast.Let, *ast.LetStar, *ast.Letrec, *ast.LetrecStar, *ast.Do:
		return true
	}
	return false
}

// Expand performs one rewrite step on a derived form.
func Expand(node ast.Node) (ast.Node, error) {
	switch n := node.(type) {
	case *ast.Cond:
		return expandClauses(n.Clauses, n.Span)
	case *ast.And:
		return expandAnd(n), nil
	case *ast.Or:
		return expandOr(n), nil
	case *ast.When:
		return &ast.Conditional{
			Span:       n.Span,
			Test:       n.Test,
			Consequent: SequenceToNode(n.Body, n.Span),
		}, nil
	case *ast.Unless:
		return &ast.Conditional{
			Span:       n.Span,
			Test:       n.Test,
			Consequent: &ast.Begin{Span: n.Span},
			Alternate:  SequenceToNode(n.Body, n.Span),
		}, nil
	case *ast.Let:
		if n.Name != nil {
			return expandNamedLet(n), nil
		}
		return letToCall(n.Bindings, n.Body, n.Span), nil
	case *ast.LetStar:
		return expandLetStar(n), nil
	case *ast.Letrec:
		return expandLetrec(n), nil
	case *ast.LetrecStar:
		return expandLetrecStar(n), nil
	case *ast.Do:
		return expandDo(n), nil
	}
	return nil, &Error{
		Message: fmt.Sprintf("%s is not a derived form", node.Kind()),
		Span:    node.NodeSpan(),
	}
}

// SequenceToNode turns a body into a single expression.
func SequenceToNode(seq []ast.Node, span ast.Span) ast.Node {
	switch len(seq) {
	case 0:
		return &ast.Begin{Span: span}
	case 1:
		return seq[0]
	default:
		return &ast.Begin{Span: span, Forms: seq}
	}
}

func ident(name string, span ast.Span) *ast.Identifier {
	return &ast.Identifier{Span: span, Name: name}
}

func boolean(v bool, span ast.Span) *ast.BoolLiteral {
	if v {
		return &ast.BoolLiteral{Span: span, Literal: "#t"}
	}
	return &ast.BoolLiteral{Span: span, Literal: "#f"}
}

// --- cond ---

func expandClauses(clauses []*ast.CondClause, span ast.Span) (ast.Node, error) {
	if len(clauses) == 0 {
		return boolean(false, span), nil
	}
	first, rest := clauses[0], clauses[1:]

	if first.IsElse() {
		if len(rest) > 0 {
			return nil, &Error{Message: "cond: else clause isn't last", Span: first.Span}
		}
		return SequenceToNode(first.Sequence, first.Span), nil
	}

	alternate, err := expandClauses(rest, span)
	if err != nil {
		return nil, err
	}

	switch {
	case first.Receiver != nil:
		tmp := ident("{cond}", first.Span)
		return &ast.Let{
			Span:     first.Span,
			Bindings: []*ast.BindSpec{{Span: first.Span, Identifier: tmp, Init: first.Test}},
			Body: []ast.Node{&ast.Conditional{
				Span: first.Span,
				Test: tmp,
				Consequent: &ast.ProcedureCall{
					Span:     first.Span,
					Operator: first.Receiver,
					Operands: []ast.Node{tmp},
				},
				Alternate: alternate,
			}},
		}, nil
	case len(first.Sequence) == 0:
		return &ast.Or{Span: first.Span, Exprs: []ast.Node{first.Test, alternate}}, nil
	default:
		return &ast.Conditional{
			Span:       first.Span,
			Test:       first.Test,
			Consequent: SequenceToNode(first.Sequence, first.Span),
			Alternate:  alternate,
		}, nil
	}
}

// --- and / or ---

func expandAnd(n *ast.And) ast.Node {
	switch len(n.Exprs) {
	case 0:
		return boolean(true, n.Span)
	case 1:
		return n.Exprs[0]
	}
	return &ast.Conditional{
		Span:       n.Span,
		Test:       n.Exprs[0],
		Consequent: &ast.And{Span: n.Span, Exprs: n.Exprs[1:]},
		Alternate:  boolean(false, n.Span),
	}
}

func expandOr(n *ast.Or) ast.Node {
	switch len(n.Exprs) {
	case 0:
		return boolean(false, n.Span)
	case 1:
		return n.Exprs[0]
	}
	tmp := ident("{or}", n.Span)
	return &ast.Let{
		Span:     n.Span,
		Bindings: []*ast.BindSpec{{Span: n.Span, Identifier: tmp, Init: n.Exprs[0]}},
		Body: []ast.Node{&ast.Conditional{
			Span:       n.Span,
			Test:       tmp,
			Consequent: tmp,
			Alternate:  &ast.Or{Span: n.Span, Exprs: n.Exprs[1:]},
		}},
	}
}

// --- let family ---

func letToCall(bindings []*ast.BindSpec, body []ast.Node, span ast.Span) ast.Node {
	formals := make([]*ast.Identifier, len(bindings))
	inits := make([]ast.Node, len(bindings))
	for i, b := range bindings {
		formals[i] = b.Identifier
		inits[i] = b.Init
	}
	return &ast.ProcedureCall{
		Span:     span,
		Operator: &ast.Lambda{Span: span, Formals: formals, Body: body},
		Operands: inits,
	}
}

// expandNamedLet binds the loop procedure in a scope enclosing the call, so
// the body can call itself while the inits cannot see it.
func expandNamedLet(n *ast.Let) ast.Node {
	formals := make([]*ast.Identifier, len(n.Bindings))
	inits := make([]ast.Node, len(n.Bindings))
	for i, b := range n.Bindings {
		formals[i] = b.Identifier
		inits[i] = b.Init
	}
	loop := &ast.Letrec{
		Span: n.Span,
		Bindings: []*ast.BindSpec{{
			Span:       n.Span,
			Identifier: n.Name,
			Init:       &ast.Lambda{Span: n.Span, Formals: formals, Body: n.Body},
		}},
		Body: []ast.Node{n.Name},
	}
	return &ast.ProcedureCall{Span: n.Span, Operator: loop, Operands: inits}
}

func expandLetStar(n *ast.LetStar) ast.Node {
	if len(n.Bindings) == 0 {
		return letToCall(nil, n.Body, n.Span)
	}
	body := n.Body
	var inner ast.Node
	for i := len(n.Bindings) - 1; i >= 0; i-- {
		inner = &ast.Let{Span: n.Span, Bindings: n.Bindings[i : i+1], Body: body}
		body = []ast.Node{inner}
	}
	return inner
}

func placeholders(bindings []*ast.BindSpec) []*ast.BindSpec {
	out := make([]*ast.BindSpec, len(bindings))
	for i, b := range bindings {
		out[i] = &ast.BindSpec{Span: b.Span, Identifier: b.Identifier, Init: &ast.Unassigned{Span: b.Span}}
	}
	return out
}

// expandLetrec evaluates every init while all names hold placeholders, then
// assigns the results.
func expandLetrec(n *ast.Letrec) ast.Node {
	body := make([]ast.Node, 0, len(n.Body)+1)
	if len(n.Bindings) > 0 {
		temps := make([]*ast.BindSpec, len(n.Bindings))
		assigns := make([]ast.Node, len(n.Bindings))
		for i, b := range n.Bindings {
			tmp := ident("{letrec "+b.Identifier.Name+"}", b.Span)
			temps[i] = &ast.BindSpec{Span: b.Span, Identifier: tmp, Init: b.Init}
			assigns[i] = &ast.Assignment{Span: b.Span, Identifier: b.Identifier, Expression: tmp}
		}
		body = append(body, &ast.Let{Span: n.Span, Bindings: temps, Body: assigns})
	}
	body = append(body, n.Body...)
	return &ast.Let{Span: n.Span, Bindings: placeholders(n.Bindings), Body: body}
}

// expandLetrecStar assigns each init as soon as it is evaluated, so later
// inits see earlier values.
func expandLetrecStar(n *ast.LetrecStar) ast.Node {
	body := make([]ast.Node, 0, len(n.Bindings)+len(n.Body))
	for _, b := range n.Bindings {
		body = append(body, &ast.Assignment{Span: b.Span, Identifier: b.Identifier, Expression: b.Init})
	}
	body = append(body, n.Body...)
	return &ast.Let{Span: n.Span, Bindings: placeholders(n.Bindings), Body: body}
}

// --- do ---

func expandDo(n *ast.Do) ast.Node {
	loop := ident("{do}", n.Span)
	bindings := make([]*ast.BindSpec, len(n.Specs))
	steps := make([]ast.Node, len(n.Specs))
	for i, s := range n.Specs {
		bindings[i] = &ast.BindSpec{Span: s.Span, Identifier: s.Identifier, Init: s.Init}
		if s.Step != nil {
			steps[i] = s.Step
		} else {
			steps[i] = s.Identifier
		}
	}

	again := make([]ast.Node, 0, len(n.Commands)+1)
	again = append(again, n.Commands...)
	again = append(again, &ast.ProcedureCall{Span: n.Span, Operator: loop, Operands: steps})

	return &ast.Let{
		Span:     n.Span,
		Name:     loop,
		Bindings: bindings,
		Body: []ast.Node{&ast.Conditional{
			Span:       n.Span,
			Test:       n.Test,
			Consequent: SequenceToNode(n.Result, n.Span),
			Alternate:  &ast.Begin{Span: n.Span, Forms: again},
		}},
	}
}
