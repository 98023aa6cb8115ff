package builtins

import (
	"github.com/thomasrohde/scheval/pkg/evaluator"
)

func numbers(name string, args []evaluator.Value) ([]evaluator.Number, error) {
	nums := make([]evaluator.Number, len(args))
	for i, a := range args {
		n, ok := a.(evaluator.Number)
		if !ok {
			return nil, evaluator.TypeError(name, "number", a)
		}
		nums[i] = n
	}
	return nums, nil
}

// fold applies op left to right starting from the first operand.
func fold(nums []evaluator.Number, op func(a, b evaluator.Number) evaluator.Number) evaluator.Number {
	acc := nums[0]
	for _, n := range nums[1:] {
		acc = op(acc, n)
	}
	return acc
}

// + number… → number; (+) is 0
func primAdd(args []evaluator.Value) (evaluator.Value, error) {
	nums, err := numbers("+", args)
	if err != nil {
		return nil, err
	}
	if len(nums) == 0 {
		return evaluator.NewInteger(0), nil
	}
	return fold(nums, evaluator.Add), nil
}

// * number… → number; (*) is 1
func primMul(args []evaluator.Value) (evaluator.Value, error) {
	nums, err := numbers("*", args)
	if err != nil {
		return nil, err
	}
	if len(nums) == 0 {
		return evaluator.NewInteger(1), nil
	}
	return fold(nums, evaluator.Mul), nil
}

// - number number… → number; (- x) negates
func primSubtract(args []evaluator.Value) (evaluator.Value, error) {
	if err := atLeast("-", args, 1); err != nil {
		return nil, err
	}
	nums, err := numbers("-", args)
	if err != nil {
		return nil, err
	}
	if len(nums) == 1 {
		return nums[0].Neg(), nil
	}
	return fold(nums, evaluator.Sub), nil
}

// / number number… → number; (/ x) inverts
func primDiv(args []evaluator.Value) (evaluator.Value, error) {
	if err := atLeast("/", args, 1); err != nil {
		return nil, err
	}
	nums, err := numbers("/", args)
	if err != nil {
		return nil, err
	}
	if len(nums) == 1 {
		nums = append([]evaluator.Number{evaluator.NewInteger(1)}, nums...)
	}
	acc := nums[0]
	for _, n := range nums[1:] {
		if acc, err = evaluator.Div(acc, n); err != nil {
			return nil, err
		}
	}
	return acc, nil
}

func integerOp(name string, op func(a, b evaluator.Number) (evaluator.Number, error)) evaluator.NativeFn {
	return func(args []evaluator.Value) (evaluator.Value, error) {
		if err := exactly(name, args, 2); err != nil {
			return nil, err
		}
		nums, err := numbers(name, args)
		if err != nil {
			return nil, err
		}
		if !nums[0].IsInteger() {
			return nil, evaluator.TypeError(name, "exact integer", args[0])
		}
		if !nums[1].IsInteger() {
			return nil, evaluator.TypeError(name, "exact integer", args[1])
		}
		return op(nums[0], nums[1])
	}
}

// compareChain builds a comparison that holds for every adjacent pair.
func compareChain(name string, holds func(c int) bool) evaluator.NativeFn {
	return func(args []evaluator.Value) (evaluator.Value, error) {
		if err := atLeast(name, args, 2); err != nil {
			return nil, err
		}
		nums, err := numbers(name, args)
		if err != nil {
			return nil, err
		}
		result := true
		for i := 0; i+1 < len(nums); i++ {
			c, err := evaluator.Compare(nums[i], nums[i+1])
			if err != nil {
				return nil, evaluator.TypeError(name, "real number", args[i])
			}
			result = result && holds(c)
		}
		return evaluator.NewBool(result), nil
	}
}

// = number number… → bool; complex operands compare by value
func primNumEqual(args []evaluator.Value) (evaluator.Value, error) {
	if err := atLeast("=", args, 2); err != nil {
		return nil, err
	}
	nums, err := numbers("=", args)
	if err != nil {
		return nil, err
	}
	for i := 0; i+1 < len(nums); i++ {
		if !evaluator.NumEqual(nums[i], nums[i+1]) {
			return evaluator.False, nil
		}
	}
	return evaluator.True, nil
}

func primIsNumber(args []evaluator.Value) (evaluator.Value, error) {
	if err := exactly("number?", args, 1); err != nil {
		return nil, err
	}
	_, ok := args[0].(evaluator.Number)
	return evaluator.NewBool(ok), nil
}

func primIsZero(args []evaluator.Value) (evaluator.Value, error) {
	if err := exactly("zero?", args, 1); err != nil {
		return nil, err
	}
	n, ok := args[0].(evaluator.Number)
	if !ok {
		return nil, evaluator.TypeError("zero?", "number", args[0])
	}
	return evaluator.NewBool(n.IsZero()), nil
}
