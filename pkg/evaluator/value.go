// Package evaluator implements the Scheme tree-walking evaluator: the value
// model, lexical environments, procedures, and eval/apply.
package evaluator

// Value is the interface for all runtime values.
// Use the sealed marker method to restrict implementations to this package.
type Value interface {
	schemeValue() // sealed marker
}

// Boolean represents #t or #f.
type Boolean struct {
	Value bool
}

func (Boolean) schemeValue() {}

// String represents a string value.
type String struct {
	Value string
}

func (String) schemeValue() {}

// Char represents a character value.
type Char struct {
	Value rune
}

func (Char) schemeValue() {}

// Symbol represents a symbol. Symbols compare by name.
type Symbol struct {
	Name string
}

func (Symbol) schemeValue() {}

// Pair is a mutable list cell.
type Pair struct {
	Car Value
	Cdr Value
}

func (*Pair) schemeValue() {}

// EmptyList is the () singleton.
type EmptyList struct{}

func (EmptyList) schemeValue() {}

// Unspecified is the value of forms that have no useful result.
type Unspecified struct{}

func (Unspecified) schemeValue() {}

// unassigned is the placeholder bound by letrec-style forms before their
// initializers run. Callers outside this package can never construct one,
// and Lookup refuses to return it.
type unassigned struct{}

func (unassigned) schemeValue() {}

var (
	True   Value = Boolean{Value: true}
	False  Value = Boolean{Value: false}
	Empty  Value = EmptyList{}
	Unspec Value = Unspecified{}

	placeholder Value = unassigned{}
)

// NewBool creates a boolean value.
func NewBool(b bool) Value {
	if b {
		return True
	}
	return False
}

// NewString creates a string value.
func NewString(s string) Value {
	return String{Value: s}
}

// NewChar creates a character value.
func NewChar(r rune) Value {
	return Char{Value: r}
}

// NewSymbol creates a symbol value.
func NewSymbol(name string) Value {
	return Symbol{Name: name}
}

// Cons creates a new pair.
func Cons(car, cdr Value) *Pair {
	return &Pair{Car: car, Cdr: cdr}
}

// List builds a proper list from items.
func List(items ...Value) Value {
	var out Value = Empty
	for i := len(items) - 1; i >= 0; i-- {
		out = Cons(items[i], out)
	}
	return out
}

// ListToSlice flattens a proper list. It reports false for improper lists.
func ListToSlice(v Value) ([]Value, bool) {
	var out []Value
	for {
		switch cell := v.(type) {
		case EmptyList:
			return out, true
		case *Pair:
			out = append(out, cell.Car)
			v = cell.Cdr
		default:
			return out, false
		}
	}
}

// IsTruthy returns false only for the boolean #f. Zero, the empty list and
// the empty string are all truthy.
func IsTruthy(v Value) bool {
	b, ok := v.(Boolean)
	return !ok || b.Value
}

// TypeName returns a short type label used in error messages.
func TypeName(v Value) string {
	switch v.(type) {
	case Boolean:
		return "boolean"
	case Number:
		return "number"
	case String:
		return "string"
	case Char:
		return "character"
	case Symbol:
		return "symbol"
	case *Pair:
		return "pair"
	case EmptyList:
		return "empty list"
	case Unspecified:
		return "unspecified"
	case *Primitive, *Compound:
		return "procedure"
	case unassigned:
		return "unassigned"
	default:
		return "unknown"
	}
}

// Eqv implements eqv?: identity for pairs and procedures, value equality
// for atoms, and exactness-aware equality for numbers.
func Eqv(a, b Value) bool {
	switch x := a.(type) {
	case Number:
		y, ok := b.(Number)
		return ok && x.IsExact() == y.IsExact() && NumEqual(x, y)
	case *Pair:
		y, ok := b.(*Pair)
		return ok && x == y
	case *Primitive:
		y, ok := b.(*Primitive)
		return ok && x == y
	case *Compound:
		y, ok := b.(*Compound)
		return ok && x == y
	case Boolean, String, Char, Symbol, EmptyList, Unspecified:
		return a == b
	}
	return false
}

// Equal implements equal?: structural equality over pairs, eqv? elsewhere.
// Pairs already under comparison are assumed equal, so cyclic lists
// terminate.
func Equal(a, b Value) bool {
	if _, ok := a.(*Pair); !ok {
		return Eqv(a, b)
	}
	return equalPairs(a, b, make(map[[2]*Pair]bool))
}

func equalPairs(a, b Value, seen map[[2]*Pair]bool) bool {
	x, ok := a.(*Pair)
	if !ok {
		return Eqv(a, b)
	}
	y, ok := b.(*Pair)
	if !ok {
		return false
	}
	for {
		if x == y || seen[[2]*Pair{x, y}] {
			return true
		}
		seen[[2]*Pair{x, y}] = true
		if !equalPairs(x.Car, y.Car, seen) {
			return false
		}
		xn, xok := x.Cdr.(*Pair)
		yn, yok := y.Cdr.(*Pair)
		if !xok || !yok {
			return equalPairs(x.Cdr, y.Cdr, seen)
		}
		x, y = xn, yn
	}
}
