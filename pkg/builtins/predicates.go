package builtins

import (
	"github.com/thomasrohde/scheval/pkg/evaluator"
)

// typePredicate builds a one-argument predicate from a type test.
func typePredicate(name string, test func(v evaluator.Value) bool) evaluator.NativeFn {
	return func(args []evaluator.Value) (evaluator.Value, error) {
		if err := exactly(name, args, 1); err != nil {
			return nil, err
		}
		return evaluator.NewBool(test(args[0])), nil
	}
}

var (
	primIsSymbol = typePredicate("symbol?", func(v evaluator.Value) bool {
		_, ok := v.(evaluator.Symbol)
		return ok
	})
	primIsString = typePredicate("string?", func(v evaluator.Value) bool {
		_, ok := v.(evaluator.String)
		return ok
	})
	primIsBoolean = typePredicate("boolean?", func(v evaluator.Value) bool {
		_, ok := v.(evaluator.Boolean)
		return ok
	})
	primIsProcedure = typePredicate("procedure?", func(v evaluator.Value) bool {
		_, ok := v.(evaluator.Procedure)
		return ok
	})
	primNot = typePredicate("not", func(v evaluator.Value) bool {
		return !evaluator.IsTruthy(v)
	})
)

// eq? shares eqv?'s notion of identity: numbers and characters compare by
// value, pairs and procedures by reference.
func primEq(args []evaluator.Value) (evaluator.Value, error) {
	if err := exactly("eq?", args, 2); err != nil {
		return nil, err
	}
	return evaluator.NewBool(evaluator.Eqv(args[0], args[1])), nil
}

func primEqv(args []evaluator.Value) (evaluator.Value, error) {
	if err := exactly("eqv?", args, 2); err != nil {
		return nil, err
	}
	return evaluator.NewBool(evaluator.Eqv(args[0], args[1])), nil
}

func primEqual(args []evaluator.Value) (evaluator.Value, error) {
	if err := exactly("equal?", args, 2); err != nil {
		return nil, err
	}
	return evaluator.NewBool(evaluator.Equal(args[0], args[1])), nil
}
