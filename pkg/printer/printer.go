// Package printer renders runtime values as text.
package printer

import (
	"fmt"
	"strings"

	"github.com/thomasrohde/scheval/pkg/evaluator"
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

// Write renders v in machine-readable form: strings are quoted and
// escaped, characters use #\ notation.
func Write(v evaluator.Value) string {
	var b strings.Builder
	render(&b, v, true)
	return b.String()
}

// Display renders v for humans: strings and characters print raw.
func Display(v evaluator.Value) string {
	var b strings.Builder
	render(&b, v, false)
	return b.String()
}

func render(b *strings.Builder, v evaluator.Value, write bool) {
	switch val := v.(type) {
	case evaluator.Boolean:
		if val.Value {
			b.WriteString("#t")
		} else {
			b.WriteString("#f")
		}
	case evaluator.Number:
		b.WriteString(val.String())
	case evaluator.String:
		if write {
			writeString(b, val.Value)
		} else {
			b.WriteString(val.Value)
		}
	case evaluator.Char:
		if !write {
			b.WriteRune(val.Value)
		} else if name, ok := charNames[val.Value]; ok {
			b.WriteString(`#\` + name)
		} else {
			b.WriteString(`#\`)
			b.WriteRune(val.Value)
		}
	case evaluator.Symbol:
		b.WriteString(val.Name)
	case evaluator.EmptyList:
		b.WriteString("()")
	case *evaluator.Pair:
		renderPair(b, val, write)
	case evaluator.Unspecified:
		b.WriteString("#<unspecified>")
	case *evaluator.Primitive:
		fmt.Fprintf(b, "#<primitive %s>", val.Name)
	case *evaluator.Compound:
		if val.Name == "" {
			b.WriteString("#<procedure>")
		} else {
			fmt.Fprintf(b, "#<procedure %s>", val.Name)
		}
	default:
		fmt.Fprintf(b, "#<%s>", evaluator.TypeName(v))
	}
}

// renderPair prints a list, stopping with "..." when a cdr chain loops back
// on itself.
func renderPair(b *strings.Builder, p *evaluator.Pair, write bool) {
	if quoted, ok := quoteForm(p); ok {
		b.WriteByte('\'')
		render(b, quoted, write)
		return
	}
	seen := map[*evaluator.Pair]bool{}
	b.WriteByte('(')
	var cur evaluator.Value = p
	first := true
	for {
		switch cell := cur.(type) {
		case *evaluator.Pair:
			if seen[cell] {
				b.WriteString(" ...)")
				return
			}
			seen[cell] = true
			if !first {
				b.WriteByte(' ')
			}
			first = false
			render(b, cell.Car, write)
			cur = cell.Cdr
			continue
		case evaluator.EmptyList:
		default:
			b.WriteString(" . ")
			render(b, cell, write)
		}
		b.WriteByte(')')
		return
	}
}

// quoteForm recognizes (quote x) so it prints as 'x.
func quoteForm(p *evaluator.Pair) (evaluator.Value, bool) {
	sym, ok := p.Car.(evaluator.Symbol)
	if !ok || sym.Name != "quote" {
		return nil, false
	}
	rest, ok := p.Cdr.(*evaluator.Pair)
	if !ok {
		return nil, false
	}
	if _, end := rest.Cdr.(evaluator.EmptyList); !end {
		return nil, false
	}
	return rest.Car, true
}

func writeString(b *strings.Builder, s string) {
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(b, `\x%x;`, r)
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
}
