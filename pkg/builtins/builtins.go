package builtins

import (
	"io"

	"github.com/thomasrohde/scheval/pkg/evaluator"
)

// RegisterDefaults adds the standard primitives. Output procedures write
// to out.
func RegisterDefaults(r *Registry, out io.Writer) {
	def := func(name, key string, fn evaluator.NativeFn) {
		r.Register(evaluator.PrimitiveDef{Name: name, Key: key, Execute: fn})
	}

	// Pairs and lists
	def("cons", "cons", primCons)
	def("car", "car", primCar)
	def("cdr", "cdr", primCdr)
	def("list", "list", primList)
	def("pair?", "pair?", primIsPair)
	def("list?", "list?", primIsList)
	def("null?", "null?", primIsNull)
	def("append", "append", primAppend)
	def("length", "length", primLength)

	// Output
	def("display", "display", displayTo(out))
	def("write", "write", writeTo(out))
	def("newline", "newline", newlineTo(out))

	// Numbers
	def("number?", "number?", primIsNumber)
	def("zero?", "zero?", primIsZero)
	def("+", "add", primAdd)
	def("-", "subtract", primSubtract)
	def("*", "mul", primMul)
	def("/", "div", primDiv)
	def("quotient", "quotient", integerOp("quotient", evaluator.Quotient))
	def("remainder", "remainder", integerOp("remainder", evaluator.Remainder))
	def("modulo", "modulo", integerOp("modulo", evaluator.Modulo))
	def("<", "lt?", compareChain("<", func(c int) bool { return c < 0 }))
	def("<=", "le?", compareChain("<=", func(c int) bool { return c <= 0 }))
	def(">", "gt?", compareChain(">", func(c int) bool { return c > 0 }))
	def(">=", "ge?", compareChain(">=", func(c int) bool { return c >= 0 }))
	def("=", "same_value?", primNumEqual)

	// Predicates
	def("not", "not", primNot)
	def("eq?", "eq?", primEq)
	def("eqv?", "eqv?", primEqv)
	def("equal?", "equal?", primEqual)
	def("symbol?", "symbol?", primIsSymbol)
	def("string?", "string?", primIsString)
	def("procedure?", "procedure?", primIsProcedure)
	def("boolean?", "boolean?", primIsBoolean)

	// Strings and symbols
	def("string-length", "string-length", primStringLength)
	def("string-append", "string-append", primStringAppend)
	def("substring", "substring", primSubstring)
	def("string=?", "string=?", primStringEqual)
	def("symbol->string", "symbol->string", primSymbolToString)
	def("string->symbol", "string->symbol", primStringToSymbol)
	def("number->string", "number->string", primNumberToString)

	// Mutation
	def("set-car!", "set-car!", primSetCar)
	def("set-cdr!", "set-cdr!", primSetCdr)
}

// Defaults returns a registry populated with RegisterDefaults.
func Defaults(out io.Writer) *Registry {
	r := NewRegistry()
	RegisterDefaults(r, out)
	return r
}

func exactly(name string, args []evaluator.Value, n int) error {
	if len(args) != n {
		return evaluator.ArityError(name, "expected %d argument(s), got %d", n, len(args))
	}
	return nil
}

func atLeast(name string, args []evaluator.Value, n int) error {
	if len(args) < n {
		return evaluator.ArityError(name, "expected at least %d argument(s), got %d", n, len(args))
	}
	return nil
}
