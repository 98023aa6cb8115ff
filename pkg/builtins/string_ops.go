package builtins

import (
	"fmt"
	"strings"

	"github.com/thomasrohde/scheval/pkg/evaluator"
)

func stringArgs(name string, args []evaluator.Value) ([]string, error) {
	strs := make([]string, len(args))
	for i, a := range args {
		s, ok := a.(evaluator.String)
		if !ok {
			return nil, evaluator.TypeError(name, "string", a)
		}
		strs[i] = s.Value
	}
	return strs, nil
}

// index converts an exact non-negative integer argument to an int.
func index(name string, v evaluator.Value) (int, error) {
	n, ok := v.(evaluator.Number)
	if !ok || !n.IsExact() || !n.IsInteger() {
		return 0, evaluator.TypeError(name, "exact integer", v)
	}
	b := n.BigInt()
	if b.Sign() < 0 || !b.IsInt64() {
		return 0, fmt.Errorf("index %s out of range", b)
	}
	return int(b.Int64()), nil
}

// string-length string → integer, counted in characters
func primStringLength(args []evaluator.Value) (evaluator.Value, error) {
	if err := exactly("string-length", args, 1); err != nil {
		return nil, err
	}
	strs, err := stringArgs("string-length", args)
	if err != nil {
		return nil, err
	}
	return evaluator.NewInteger(int64(len([]rune(strs[0])))), nil
}

// string-append string… → string
func primStringAppend(args []evaluator.Value) (evaluator.Value, error) {
	strs, err := stringArgs("string-append", args)
	if err != nil {
		return nil, err
	}
	return evaluator.NewString(strings.Join(strs, "")), nil
}

// substring string start [end] → string
func primSubstring(args []evaluator.Value) (evaluator.Value, error) {
	if len(args) < 2 || len(args) > 3 {
		return nil, evaluator.ArityError("substring", "expected 2 or 3 arguments, got %d", len(args))
	}
	strs, err := stringArgs("substring", args[:1])
	if err != nil {
		return nil, err
	}
	runes := []rune(strs[0])
	start, err := index("substring", args[1])
	if err != nil {
		return nil, err
	}
	end := len(runes)
	if len(args) == 3 {
		if end, err = index("substring", args[2]); err != nil {
			return nil, err
		}
	}
	if start > end || end > len(runes) {
		return nil, fmt.Errorf("range [%d, %d) out of bounds for length %d", start, end, len(runes))
	}
	return evaluator.NewString(string(runes[start:end])), nil
}

// string=? string string… → boolean
func primStringEqual(args []evaluator.Value) (evaluator.Value, error) {
	if err := atLeast("string=?", args, 2); err != nil {
		return nil, err
	}
	strs, err := stringArgs("string=?", args)
	if err != nil {
		return nil, err
	}
	for _, s := range strs[1:] {
		if s != strs[0] {
			return evaluator.False, nil
		}
	}
	return evaluator.True, nil
}

func primSymbolToString(args []evaluator.Value) (evaluator.Value, error) {
	if err := exactly("symbol->string", args, 1); err != nil {
		return nil, err
	}
	sym, ok := args[0].(evaluator.Symbol)
	if !ok {
		return nil, evaluator.TypeError("symbol->string", "symbol", args[0])
	}
	return evaluator.NewString(sym.Name), nil
}

func primStringToSymbol(args []evaluator.Value) (evaluator.Value, error) {
	if err := exactly("string->symbol", args, 1); err != nil {
		return nil, err
	}
	strs, err := stringArgs("string->symbol", args)
	if err != nil {
		return nil, err
	}
	return evaluator.NewSymbol(strs[0]), nil
}

func primNumberToString(args []evaluator.Value) (evaluator.Value, error) {
	if err := exactly("number->string", args, 1); err != nil {
		return nil, err
	}
	n, ok := args[0].(evaluator.Number)
	if !ok {
		return nil, evaluator.TypeError("number->string", "number", args[0])
	}
	return evaluator.NewString(n.String()), nil
}
