// Package formatter renders Scheme ASTs back to source code.
package formatter

import (
	"fmt"
	"strings"

	"github.com/thomasrohde/scheval/pkg/ast"
)

const (
	indent   = "  "
	maxWidth = 72
)

var charNames = map[rune]string{
	' ':  "space",
	'\n': "newline",
	'\t': "tab",
	'\r': "return",
	0:    "null",
	7:    "alarm",
	8:    "backspace",
	127:  "delete",
	27:   "escape",
}

// Format pretty-prints a program back to source code, one top-level form
// per line group. Forms that fit within the line width stay on one line.
func Format(program *ast.Program) string {
	if len(program.Forms) == 0 {
		return ""
	}
	lines := make([]string, len(program.Forms))
	for i, f := range program.Forms {
		lines[i] = pretty(f, 0)
	}
	return strings.Join(lines, "\n") + "\n"
}

// Node renders a single node on one line.
func Node(n ast.Node) string {
	return inline(n)
}

// HasComments reports whether source contains ; comments outside string
// and character literals.
func HasComments(source string) bool {
	inString := false
	escaped := false
	for i := 0; i < len(source); i++ {
		ch := source[i]
		switch {
		case inString:
			if escaped {
				escaped = false
			} else if ch == '\\' {
				escaped = true
			} else if ch == '"' {
				inString = false
			}
		case ch == '"':
			inString = true
		case ch == '#' && i+2 < len(source) && source[i+1] == '\\':
			i += 2 // #\; is a character
		case ch == ';':
			return true
		}
	}
	return false
}

// part renders one sub-element of a broken form at the given depth.
type part func(depth int) string

func nodePart(n ast.Node) part {
	return func(depth int) string { return pretty(n, depth) }
}

func nodeParts(nodes []ast.Node) []part {
	parts := make([]part, len(nodes))
	for i, n := range nodes {
		parts[i] = nodePart(n)
	}
	return parts
}

func pretty(n ast.Node, depth int) string {
	// Try inline first
	s := inline(n)
	if len(indent)*depth+len(s) <= maxWidth {
		return s
	}

	head, parts := shape(n)
	if head == "" || len(parts) == 0 {
		return s
	}

	// Multi-line
	var b strings.Builder
	b.WriteString(head)
	inner := strings.Repeat(indent, depth+1)
	for _, p := range parts {
		b.WriteString("\n" + inner + p(depth+1))
	}
	b.WriteByte(')')
	return b.String()
}

// shape splits a form into the head kept on its first line and the parts
// placed one per line below it.
func shape(n ast.Node) (string, []part) {
	switch node := n.(type) {
	case *ast.ProcedureCall:
		return "(" + inline(node.Operator), nodeParts(node.Operands)
	case *ast.Lambda:
		return "(lambda " + formals(node.Formals), nodeParts(node.Body)
	case *ast.Conditional:
		parts := []part{nodePart(node.Consequent)}
		if node.Alternate != nil {
			parts = append(parts, nodePart(node.Alternate))
		}
		return "(if " + inline(node.Test), parts
	case *ast.Assignment:
		return "(set! " + node.Identifier.Name, []part{nodePart(node.Expression)}
	case *ast.Definition:
		if lam, ok := node.Expression.(*ast.Lambda); ok {
			return "(define " + signature(node.Identifier, lam.Formals), nodeParts(lam.Body)
		}
		return "(define " + node.Identifier.Name, []part{nodePart(node.Expression)}
	case *ast.Begin:
		return "(begin", nodeParts(node.Forms)
	case *ast.And:
		return "(and", nodeParts(node.Exprs)
	case *ast.Or:
		return "(or", nodeParts(node.Exprs)
	case *ast.When:
		return "(when " + inline(node.Test), nodeParts(node.Body)
	case *ast.Unless:
		return "(unless " + inline(node.Test), nodeParts(node.Body)
	case *ast.Cond:
		parts := make([]part, len(node.Clauses))
		for i, c := range node.Clauses {
			c := c
			parts[i] = func(depth int) string { return prettyClause(c, depth) }
		}
		return "(cond", parts
	case *ast.Let:
		head := "(let "
		if node.Name != nil {
			head += node.Name.Name + " "
		}
		return head + bindings(node.Bindings), nodeParts(node.Body)
	case *ast.LetStar:
		return "(let* " + bindings(node.Bindings), nodeParts(node.Body)
	case *ast.Letrec:
		return "(letrec " + bindings(node.Bindings), nodeParts(node.Body)
	case *ast.LetrecStar:
		return "(letrec* " + bindings(node.Bindings), nodeParts(node.Body)
	case *ast.Do:
		return "(do " + iterationSpecs(node.Specs) + " " + list(append([]ast.Node{node.Test}, node.Result...)),
			nodeParts(node.Commands)
	}
	return "", nil
}

func prettyClause(c *ast.CondClause, depth int) string {
	s := clause(c)
	if len(indent)*depth+len(s) <= maxWidth || len(c.Sequence) == 0 {
		return s
	}
	var b strings.Builder
	b.WriteString("(" + inline(c.Test))
	inner := strings.Repeat(indent, depth+1)
	for _, n := range c.Sequence {
		b.WriteString("\n" + inner + pretty(n, depth+1))
	}
	b.WriteByte(')')
	return b.String()
}

func inline(n ast.Node) string {
	switch node := n.(type) {
	case *ast.Program:
		parts := make([]string, len(node.Forms))
		for i, f := range node.Forms {
			parts[i] = inline(f)
		}
		return strings.Join(parts, " ")
	case *ast.EmptyList:
		return "'()"
	case *ast.BoolLiteral:
		return node.Literal
	case *ast.NumberLiteral:
		return node.Literal
	case *ast.StrLiteral:
		return quoteString(node.Value)
	case *ast.CharLiteral:
		return formatChar(node.Value)
	case *ast.Unassigned:
		return "#<unassigned>"
	case *ast.Identifier:
		return node.Name
	case *ast.ListDatum, *ast.Quotation:
		return datum(node)
	case *ast.ProcedureCall:
		return list(append([]ast.Node{node.Operator}, node.Operands...))
	case *ast.Lambda:
		return form("(lambda "+formals(node.Formals), node.Body)
	case *ast.Conditional:
		out := "(if " + inline(node.Test) + " " + inline(node.Consequent)
		if node.Alternate != nil {
			out += " " + inline(node.Alternate)
		}
		return out + ")"
	case *ast.Assignment:
		return "(set! " + node.Identifier.Name + " " + inline(node.Expression) + ")"
	case *ast.Definition:
		if lam, ok := node.Expression.(*ast.Lambda); ok {
			return form("(define "+signature(node.Identifier, lam.Formals), lam.Body)
		}
		return "(define " + node.Identifier.Name + " " + inline(node.Expression) + ")"
	case *ast.Begin:
		return form("(begin", node.Forms)
	case *ast.Cond:
		parts := make([]string, len(node.Clauses))
		for i, c := range node.Clauses {
			parts[i] = clause(c)
		}
		return "(cond " + strings.Join(parts, " ") + ")"
	case *ast.And:
		return form("(and", node.Exprs)
	case *ast.Or:
		return form("(or", node.Exprs)
	case *ast.When:
		return form("(when "+inline(node.Test), node.Body)
	case *ast.Unless:
		return form("(unless "+inline(node.Test), node.Body)
	case *ast.Let:
		head := "(let "
		if node.Name != nil {
			head += node.Name.Name + " "
		}
		return form(head+bindings(node.Bindings), node.Body)
	case *ast.LetStar:
		return form("(let* "+bindings(node.Bindings), node.Body)
	case *ast.Letrec:
		return form("(letrec "+bindings(node.Bindings), node.Body)
	case *ast.LetrecStar:
		return form("(letrec* "+bindings(node.Bindings), node.Body)
	case *ast.Do:
		head := "(do " + iterationSpecs(node.Specs) + " " + list(append([]ast.Node{node.Test}, node.Result...))
		return form(head, node.Commands)
	}
	return fmt.Sprintf("#<%s>", n.Kind())
}

// datum renders quoted data, where lists are literal rather than calls.
func datum(n ast.Node) string {
	switch d := n.(type) {
	case *ast.EmptyList:
		return "()"
	case *ast.Quotation:
		return "'" + datum(d.Datum)
	case *ast.ListDatum:
		parts := make([]string, len(d.Elements))
		for i, e := range d.Elements {
			parts[i] = datum(e)
		}
		out := "(" + strings.Join(parts, " ")
		if d.Tail != nil {
			out += " . " + datum(d.Tail)
		}
		return out + ")"
	}
	return inline(n)
}

func form(head string, body []ast.Node) string {
	if len(body) == 0 {
		return head + ")"
	}
	parts := make([]string, len(body))
	for i, n := range body {
		parts[i] = inline(n)
	}
	return head + " " + strings.Join(parts, " ") + ")"
}

func list(nodes []ast.Node) string {
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = inline(n)
	}
	return "(" + strings.Join(parts, " ") + ")"
}

func formals(ids []*ast.Identifier) string {
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = id.Name
	}
	return "(" + strings.Join(names, " ") + ")"
}

func signature(name *ast.Identifier, ids []*ast.Identifier) string {
	return formals(append([]*ast.Identifier{name}, ids...))
}

func bindings(specs []*ast.BindSpec) string {
	parts := make([]string, len(specs))
	for i, s := range specs {
		parts[i] = "(" + s.Identifier.Name + " " + inline(s.Init) + ")"
	}
	return "(" + strings.Join(parts, " ") + ")"
}

func iterationSpecs(specs []*ast.IterationSpec) string {
	parts := make([]string, len(specs))
	for i, s := range specs {
		p := "(" + s.Identifier.Name + " " + inline(s.Init)
		if s.Step != nil {
			p += " " + inline(s.Step)
		}
		parts[i] = p + ")"
	}
	return "(" + strings.Join(parts, " ") + ")"
}

func clause(c *ast.CondClause) string {
	out := "(" + inline(c.Test)
	if c.Receiver != nil {
		return out + " => " + inline(c.Receiver) + ")"
	}
	for _, n := range c.Sequence {
		out += " " + inline(n)
	}
	return out + ")"
}

func formatChar(r rune) string {
	if name, ok := charNames[r]; ok {
		return `#\` + name
	}
	return `#\` + string(r)
}

func quoteString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&b, `\x%x;`, r)
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}
