package builtins

import (
	"github.com/thomasrohde/scheval/pkg/evaluator"
)

// cons obj1 obj2 → pair
func primCons(args []evaluator.Value) (evaluator.Value, error) {
	if err := exactly("cons", args, 2); err != nil {
		return nil, err
	}
	return evaluator.Cons(args[0], args[1]), nil
}

func pairArg(name string, args []evaluator.Value) (*evaluator.Pair, error) {
	if err := exactly(name, args, 1); err != nil {
		return nil, err
	}
	p, ok := args[0].(*evaluator.Pair)
	if !ok {
		return nil, evaluator.TypeError(name, "pair", args[0])
	}
	return p, nil
}

// car pair → obj
func primCar(args []evaluator.Value) (evaluator.Value, error) {
	p, err := pairArg("car", args)
	if err != nil {
		return nil, err
	}
	return p.Car, nil
}

// cdr pair → obj
func primCdr(args []evaluator.Value) (evaluator.Value, error) {
	p, err := pairArg("cdr", args)
	if err != nil {
		return nil, err
	}
	return p.Cdr, nil
}

// list obj… → list
func primList(args []evaluator.Value) (evaluator.Value, error) {
	return evaluator.List(args...), nil
}

func primIsPair(args []evaluator.Value) (evaluator.Value, error) {
	if err := exactly("pair?", args, 1); err != nil {
		return nil, err
	}
	_, ok := args[0].(*evaluator.Pair)
	return evaluator.NewBool(ok), nil
}

// list? is true only for finite proper lists.
func primIsList(args []evaluator.Value) (evaluator.Value, error) {
	if err := exactly("list?", args, 1); err != nil {
		return nil, err
	}
	slow, fast := args[0], args[0]
	for {
		for i := 0; i < 2; i++ {
			switch cell := fast.(type) {
			case evaluator.EmptyList:
				return evaluator.True, nil
			case *evaluator.Pair:
				fast = cell.Cdr
			default:
				return evaluator.False, nil
			}
		}
		slow = slow.(*evaluator.Pair).Cdr
		if p, ok := fast.(*evaluator.Pair); ok && p == slow {
			return evaluator.False, nil
		}
	}
}

func primIsNull(args []evaluator.Value) (evaluator.Value, error) {
	if err := exactly("null?", args, 1); err != nil {
		return nil, err
	}
	_, ok := args[0].(evaluator.EmptyList)
	return evaluator.NewBool(ok), nil
}

// append list… obj → list. Every argument but the last is copied; the last
// is shared as the tail.
func primAppend(args []evaluator.Value) (evaluator.Value, error) {
	if len(args) == 0 {
		return evaluator.Empty, nil
	}
	result := args[len(args)-1]
	for i := len(args) - 2; i >= 0; i-- {
		items, ok := evaluator.ListToSlice(args[i])
		if !ok {
			return nil, evaluator.TypeError("append", "list", args[i])
		}
		for j := len(items) - 1; j >= 0; j-- {
			result = evaluator.Cons(items[j], result)
		}
	}
	return result, nil
}

// length list → integer
func primLength(args []evaluator.Value) (evaluator.Value, error) {
	if err := exactly("length", args, 1); err != nil {
		return nil, err
	}
	if ok, _ := primIsList(args); ok != evaluator.True {
		return nil, evaluator.TypeError("length", "list", args[0])
	}
	items, _ := evaluator.ListToSlice(args[0])
	return evaluator.NewInteger(int64(len(items))), nil
}

func primSetCar(args []evaluator.Value) (evaluator.Value, error) {
	if err := exactly("set-car!", args, 2); err != nil {
		return nil, err
	}
	p, ok := args[0].(*evaluator.Pair)
	if !ok {
		return nil, evaluator.TypeError("set-car!", "pair", args[0])
	}
	p.Car = args[1]
	return evaluator.Unspec, nil
}

func primSetCdr(args []evaluator.Value) (evaluator.Value, error) {
	if err := exactly("set-cdr!", args, 2); err != nil {
		return nil, err
	}
	p, ok := args[0].(*evaluator.Pair)
	if !ok {
		return nil, evaluator.TypeError("set-cdr!", "pair", args[0])
	}
	p.Cdr = args[1]
	return evaluator.Unspec, nil
}
