// Package parser implements the Scheme parser. It reads tokens into datums
// and then classifies each datum into an AST node by its keyword.
package parser

import (
	"fmt"
	"unicode/utf8"

	"github.com/thomasrohde/scheval/pkg/ast"
	"github.com/thomasrohde/scheval/pkg/diagnostics"
	"github.com/thomasrohde/scheval/pkg/lexer"
)

type parser struct {
	tokens []lexer.Token
	pos    int
	diags  []diagnostics.Diagnostic
}

// Keywords lists the reserved special-form names. A list whose head is one
// of these is parsed as that form, never as a procedure call.
var Keywords = map[string]bool{
	"quote":   true,
	"define":  true,
	"set!":    true,
	"lambda":  true,
	"if":      true,
	"begin":   true,
	"cond":    true,
	"and":     true,
	"or":      true,
	"when":    true,
	"unless":  true,
	"let":     true,
	"let*":    true,
	"letrec":  true,
	"letrec*": true,
	"do":      true,
}

// Parse tokenizes source and parses it into an AST.
func Parse(source, filename string) (*ast.Program, []diagnostics.Diagnostic) {
	tokens, err := lexer.Tokenize(source, filename)
	if err != nil {
		if le, ok := err.(*lexer.LexError); ok {
			return nil, []diagnostics.Diagnostic{le.Diag}
		}
		return nil, []diagnostics.Diagnostic{diagnostics.MakeDiag(diagnostics.ELex, err.Error(), nil, "")}
	}

	p := &parser{tokens: tokens, pos: 0}
	prog := p.parseProgram()
	if len(p.diags) > 0 {
		return nil, p.diags
	}
	return prog, nil
}

// IsIncomplete reports whether parse diagnostics only say the input ended
// before every list was closed, so more input could complete it.
func IsIncomplete(diags []diagnostics.Diagnostic) bool {
	if len(diags) == 0 {
		return false
	}
	for _, d := range diags {
		if d.Hint != hintIncomplete {
			return false
		}
	}
	return true
}

const hintIncomplete = lexer.HintIncomplete

func (p *parser) current() lexer.Token {
	if p.pos >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1] // EOF
	}
	return p.tokens[p.pos]
}

func (p *parser) peek() lexer.TokenType {
	return p.current().Type
}

func (p *parser) advance() lexer.Token {
	tok := p.current()
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return tok
}

func (p *parser) addError(msg string, span ast.Span) {
	p.diags = append(p.diags, diagnostics.MakeDiag(diagnostics.EParse, msg, &span, ""))
}

func (p *parser) addIncomplete(msg string, span ast.Span) {
	p.diags = append(p.diags, diagnostics.MakeDiag(diagnostics.EParse, msg, &span, hintIncomplete))
}

func spanFromTo(start, end ast.Span) ast.Span {
	return ast.Span{
		File:      start.File,
		StartLine: start.StartLine,
		StartCol:  start.StartCol,
		EndLine:   end.EndLine,
		EndCol:    end.EndCol,
	}
}

// --- Program ---

func (p *parser) parseProgram() *ast.Program {
	startSpan := p.current().Span
	var forms []ast.Node

	for p.peek() != lexer.TokEOF {
		d := p.parseDatum()
		if d == nil {
			return nil
		}
		expr := p.toExpr(d)
		if expr == nil {
			return nil
		}
		forms = append(forms, expr)
	}

	return &ast.Program{
		Span:  spanFromTo(startSpan, p.current().Span),
		Forms: forms,
	}
}

// --- Datums ---

func (p *parser) parseDatum() ast.Node {
	tok := p.current()
	switch tok.Type {
	case lexer.TokLParen:
		return p.parseListDatum()

	case lexer.TokQuote:
		p.advance()
		if p.peek() == lexer.TokEOF {
			p.addIncomplete("expected datum after quote", tok.Span)
			return nil
		}
		d := p.parseDatum()
		if d == nil {
			return nil
		}
		return &ast.Quotation{Span: spanFromTo(tok.Span, d.NodeSpan()), Datum: d}

	case lexer.TokBool:
		p.advance()
		return &ast.BoolLiteral{Span: tok.Span, Literal: tok.Value}

	case lexer.TokNumber:
		p.advance()
		return &ast.NumberLiteral{Span: tok.Span, Literal: tok.Value}

	case lexer.TokString:
		p.advance()
		return &ast.StrLiteral{Span: tok.Span, Value: tok.Value}

	case lexer.TokChar:
		p.advance()
		r, _ := utf8.DecodeRuneInString(tok.Value)
		return &ast.CharLiteral{Span: tok.Span, Value: r}

	case lexer.TokIdent:
		p.advance()
		return &ast.Identifier{Span: tok.Span, Name: tok.Value}

	case lexer.TokRParen:
		p.addError("unexpected ')'", tok.Span)
		return nil

	case lexer.TokDot:
		p.addError("unexpected '.'", tok.Span)
		return nil

	default:
		p.addIncomplete("unexpected end of input", tok.Span)
		return nil
	}
}

func (p *parser) parseListDatum() ast.Node {
	open := p.advance() // consume '('
	list := &ast.ListDatum{}

	for {
		switch p.peek() {
		case lexer.TokRParen:
			closing := p.advance()
			list.Span = spanFromTo(open.Span, closing.Span)
			return list

		case lexer.TokEOF:
			p.addIncomplete("missing ')'", open.Span)
			return nil

		case lexer.TokDot:
			dot := p.advance()
			if len(list.Elements) == 0 {
				p.addError("'.' must follow at least one datum", dot.Span)
				return nil
			}
			tail := p.parseDatum()
			if tail == nil {
				return nil
			}
			list.Tail = tail
			if p.peek() == lexer.TokEOF {
				p.addIncomplete("missing ')'", open.Span)
				return nil
			}
			if p.peek() != lexer.TokRParen {
				p.addError("expected ')' after dotted tail", p.current().Span)
				return nil
			}
			closing := p.advance()
			list.Span = spanFromTo(open.Span, closing.Span)
			return list

		default:
			d := p.parseDatum()
			if d == nil {
				return nil
			}
			list.Elements = append(list.Elements, d)
		}
	}
}

// --- Expressions ---

func (p *parser) toExpr(d ast.Node) ast.Node {
	list, ok := d.(*ast.ListDatum)
	if !ok {
		return d
	}
	if list.Tail != nil {
		p.addError("dotted list is not a valid expression", list.Span)
		return nil
	}
	if len(list.Elements) == 0 {
		return &ast.EmptyList{Span: list.Span}
	}

	if head, ok := list.Elements[0].(*ast.Identifier); ok && Keywords[head.Name] {
		return p.parseSpecialForm(head.Name, list)
	}

	operator := p.toExpr(list.Elements[0])
	if operator == nil {
		return nil
	}
	operands := p.toExprs(list.Elements[1:])
	if operands == nil {
		return nil
	}
	return &ast.ProcedureCall{Span: list.Span, Operator: operator, Operands: operands}
}

// toExprs converts every datum; it returns nil on the first failure and a
// non-nil (possibly empty) slice on success.
func (p *parser) toExprs(ds []ast.Node) []ast.Node {
	out := make([]ast.Node, 0, len(ds))
	for _, d := range ds {
		e := p.toExpr(d)
		if e == nil {
			return nil
		}
		out = append(out, e)
	}
	return out
}

func (p *parser) parseSpecialForm(keyword string, list *ast.ListDatum) ast.Node {
	switch keyword {
	case "quote":
		return p.parseQuote(list)
	case "define":
		return p.parseDefine(list)
	case "set!":
		return p.parseAssignment(list)
	case "lambda":
		return p.parseLambda(list)
	case "if":
		return p.parseIf(list)
	case "begin":
		forms := p.toExprs(list.Elements[1:])
		if forms == nil {
			return nil
		}
		return &ast.Begin{Span: list.Span, Forms: forms}
	case "cond":
		return p.parseCond(list)
	case "and":
		exprs := p.toExprs(list.Elements[1:])
		if exprs == nil {
			return nil
		}
		return &ast.And{Span: list.Span, Exprs: exprs}
	case "or":
		exprs := p.toExprs(list.Elements[1:])
		if exprs == nil {
			return nil
		}
		return &ast.Or{Span: list.Span, Exprs: exprs}
	case "when", "unless":
		return p.parseWhenUnless(keyword, list)
	case "let":
		return p.parseLet(list)
	case "let*", "letrec", "letrec*":
		return p.parseLetVariant(keyword, list)
	case "do":
		return p.parseDo(list)
	}
	p.addError(fmt.Sprintf("unknown special form '%s'", keyword), list.Span)
	return nil
}

func (p *parser) parseQuote(list *ast.ListDatum) ast.Node {
	if len(list.Elements) != 2 {
		p.addError("quote expects exactly one datum", list.Span)
		return nil
	}
	return &ast.Quotation{Span: list.Span, Datum: list.Elements[1]}
}

func (p *parser) identifier(d ast.Node, context string) *ast.Identifier {
	id, ok := d.(*ast.Identifier)
	if !ok {
		p.addError(fmt.Sprintf("%s: expected identifier, got %s", context, d.Kind()), d.NodeSpan())
		return nil
	}
	if Keywords[id.Name] {
		p.addError(fmt.Sprintf("%s: cannot bind keyword '%s'", context, id.Name), id.Span)
		return nil
	}
	return id
}

func (p *parser) parseDefine(list *ast.ListDatum) ast.Node {
	if len(list.Elements) < 2 {
		p.addError("define: missing name", list.Span)
		return nil
	}

	// (define (name formals…) body…)
	if target, ok := list.Elements[1].(*ast.ListDatum); ok {
		if len(target.Elements) == 0 {
			p.addError("define: missing procedure name", target.Span)
			return nil
		}
		name := p.identifier(target.Elements[0], "define")
		if name == nil {
			return nil
		}
		if target.Tail != nil {
			p.addError("define: rest parameters are not supported", target.Span)
			return nil
		}
		formals := p.formals(target.Elements[1:])
		if formals == nil {
			return nil
		}
		body := p.body(list.Elements[2:], list.Span, "define")
		if body == nil {
			return nil
		}
		lambda := &ast.Lambda{Span: list.Span, Formals: formals, Body: body}
		return &ast.Definition{Span: list.Span, Identifier: name, Expression: lambda}
	}

	name := p.identifier(list.Elements[1], "define")
	if name == nil {
		return nil
	}
	if len(list.Elements) != 3 {
		p.addError("define: expected (define name expression)", list.Span)
		return nil
	}
	expr := p.toExpr(list.Elements[2])
	if expr == nil {
		return nil
	}
	return &ast.Definition{Span: list.Span, Identifier: name, Expression: expr}
}

func (p *parser) parseAssignment(list *ast.ListDatum) ast.Node {
	if len(list.Elements) != 3 {
		p.addError("set!: expected (set! name expression)", list.Span)
		return nil
	}
	name := p.identifier(list.Elements[1], "set!")
	if name == nil {
		return nil
	}
	expr := p.toExpr(list.Elements[2])
	if expr == nil {
		return nil
	}
	return &ast.Assignment{Span: list.Span, Identifier: name, Expression: expr}
}

// formals returns a non-nil slice on success.
func (p *parser) formals(ds []ast.Node) []*ast.Identifier {
	out := make([]*ast.Identifier, 0, len(ds))
	for _, d := range ds {
		id := p.identifier(d, "formals")
		if id == nil {
			return nil
		}
		out = append(out, id)
	}
	return out
}

func (p *parser) body(ds []ast.Node, span ast.Span, context string) []ast.Node {
	if len(ds) == 0 {
		p.addError(fmt.Sprintf("%s: empty body", context), span)
		return nil
	}
	return p.toExprs(ds)
}

func (p *parser) parseLambda(list *ast.ListDatum) ast.Node {
	if len(list.Elements) < 2 {
		p.addError("lambda: missing formals", list.Span)
		return nil
	}
	params, ok := list.Elements[1].(*ast.ListDatum)
	if !ok {
		p.addError("lambda: rest parameters are not supported", list.Elements[1].NodeSpan())
		return nil
	}
	if params.Tail != nil {
		p.addError("lambda: rest parameters are not supported", params.Span)
		return nil
	}
	formals := p.formals(params.Elements)
	if formals == nil {
		return nil
	}
	body := p.body(list.Elements[2:], list.Span, "lambda")
	if body == nil {
		return nil
	}
	return &ast.Lambda{Span: list.Span, Formals: formals, Body: body}
}

func (p *parser) parseIf(list *ast.ListDatum) ast.Node {
	if len(list.Elements) != 3 && len(list.Elements) != 4 {
		p.addError("if: expected (if test consequent [alternate])", list.Span)
		return nil
	}
	parts := p.toExprs(list.Elements[1:])
	if parts == nil {
		return nil
	}
	node := &ast.Conditional{Span: list.Span, Test: parts[0], Consequent: parts[1]}
	if len(parts) == 3 {
		node.Alternate = parts[2]
	}
	return node
}

func (p *parser) parseCond(list *ast.ListDatum) ast.Node {
	clauses := make([]*ast.CondClause, 0, len(list.Elements)-1)
	for _, d := range list.Elements[1:] {
		cl, ok := d.(*ast.ListDatum)
		if !ok || cl.Tail != nil || len(cl.Elements) == 0 {
			p.addError("cond: clause must be a non-empty list", d.NodeSpan())
			return nil
		}

		clause := &ast.CondClause{Span: cl.Span}
		if id, ok := cl.Elements[0].(*ast.Identifier); ok && id.Name == "else" {
			clause.Test = id
		} else {
			test := p.toExpr(cl.Elements[0])
			if test == nil {
				return nil
			}
			clause.Test = test
		}

		rest := cl.Elements[1:]
		if len(rest) > 0 {
			if arrow, ok := rest[0].(*ast.Identifier); ok && arrow.Name == "=>" {
				if len(rest) != 2 {
					p.addError("cond: '=>' must be followed by exactly one receiver", cl.Span)
					return nil
				}
				recv := p.toExpr(rest[1])
				if recv == nil {
					return nil
				}
				clause.Receiver = recv
				clauses = append(clauses, clause)
				continue
			}
		}
		seq := p.toExprs(rest)
		if seq == nil {
			return nil
		}
		clause.Sequence = seq
		clauses = append(clauses, clause)
	}
	return &ast.Cond{Span: list.Span, Clauses: clauses}
}

func (p *parser) parseWhenUnless(keyword string, list *ast.ListDatum) ast.Node {
	if len(list.Elements) < 2 {
		p.addError(fmt.Sprintf("%s: missing test", keyword), list.Span)
		return nil
	}
	test := p.toExpr(list.Elements[1])
	if test == nil {
		return nil
	}
	body := p.body(list.Elements[2:], list.Span, keyword)
	if body == nil {
		return nil
	}
	if keyword == "when" {
		return &ast.When{Span: list.Span, Test: test, Body: body}
	}
	return &ast.Unless{Span: list.Span, Test: test, Body: body}
}

func (p *parser) bindings(d ast.Node, context string) []*ast.BindSpec {
	list, ok := d.(*ast.ListDatum)
	if !ok || list.Tail != nil {
		p.addError(fmt.Sprintf("%s: bindings must be a list", context), d.NodeSpan())
		return nil
	}
	specs := make([]*ast.BindSpec, 0, len(list.Elements))
	for _, b := range list.Elements {
		pair, ok := b.(*ast.ListDatum)
		if !ok || pair.Tail != nil || len(pair.Elements) != 2 {
			p.addError(fmt.Sprintf("%s: binding must be (name init)", context), b.NodeSpan())
			return nil
		}
		name := p.identifier(pair.Elements[0], context)
		if name == nil {
			return nil
		}
		init := p.toExpr(pair.Elements[1])
		if init == nil {
			return nil
		}
		specs = append(specs, &ast.BindSpec{Span: pair.Span, Identifier: name, Init: init})
	}
	return specs
}

func (p *parser) parseLet(list *ast.ListDatum) ast.Node {
	if len(list.Elements) < 2 {
		p.addError("let: missing bindings", list.Span)
		return nil
	}
	var name *ast.Identifier
	rest := list.Elements[1:]
	if _, ok := rest[0].(*ast.Identifier); ok {
		name = p.identifier(rest[0], "let")
		if name == nil {
			return nil
		}
		rest = rest[1:]
		if len(rest) == 0 {
			p.addError("let: missing bindings", list.Span)
			return nil
		}
	}
	specs := p.bindings(rest[0], "let")
	if specs == nil {
		return nil
	}
	body := p.body(rest[1:], list.Span, "let")
	if body == nil {
		return nil
	}
	return &ast.Let{Span: list.Span, Name: name, Bindings: specs, Body: body}
}

func (p *parser) parseLetVariant(keyword string, list *ast.ListDatum) ast.Node {
	if len(list.Elements) < 2 {
		p.addError(fmt.Sprintf("%s: missing bindings", keyword), list.Span)
		return nil
	}
	specs := p.bindings(list.Elements[1], keyword)
	if specs == nil {
		return nil
	}
	body := p.body(list.Elements[2:], list.Span, keyword)
	if body == nil {
		return nil
	}
	switch keyword {
	case "let*":
		return &ast.LetStar{Span: list.Span, Bindings: specs, Body: body}
	case "letrec":
		return &ast.Letrec{Span: list.Span, Bindings: specs, Body: body}
	default:
		return &ast.LetrecStar{Span: list.Span, Bindings: specs, Body: body}
	}
}

func (p *parser) parseDo(list *ast.ListDatum) ast.Node {
	if len(list.Elements) < 3 {
		p.addError("do: expected (do ((var init [step])…) (test result…) command…)", list.Span)
		return nil
	}

	specList, ok := list.Elements[1].(*ast.ListDatum)
	if !ok || specList.Tail != nil {
		p.addError("do: iteration specs must be a list", list.Elements[1].NodeSpan())
		return nil
	}
	specs := make([]*ast.IterationSpec, 0, len(specList.Elements))
	for _, d := range specList.Elements {
		sl, ok := d.(*ast.ListDatum)
		if !ok || sl.Tail != nil || len(sl.Elements) < 2 || len(sl.Elements) > 3 {
			p.addError("do: iteration spec must be (var init [step])", d.NodeSpan())
			return nil
		}
		name := p.identifier(sl.Elements[0], "do")
		if name == nil {
			return nil
		}
		parts := p.toExprs(sl.Elements[1:])
		if parts == nil {
			return nil
		}
		spec := &ast.IterationSpec{Span: sl.Span, Identifier: name, Init: parts[0]}
		if len(parts) == 2 {
			spec.Step = parts[1]
		}
		specs = append(specs, spec)
	}

	exit, ok := list.Elements[2].(*ast.ListDatum)
	if !ok || exit.Tail != nil || len(exit.Elements) == 0 {
		p.addError("do: expected (test result…)", list.Elements[2].NodeSpan())
		return nil
	}
	exitParts := p.toExprs(exit.Elements)
	if exitParts == nil {
		return nil
	}
	commands := p.toExprs(list.Elements[3:])
	if commands == nil {
		return nil
	}
	return &ast.Do{
		Span:     list.Span,
		Specs:    specs,
		Test:     exitParts[0],
		Result:   exitParts[1:],
		Commands: commands,
	}
}
