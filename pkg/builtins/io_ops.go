package builtins

import (
	"fmt"
	"io"

	"github.com/thomasrohde/scheval/pkg/evaluator"
	"github.com/thomasrohde/scheval/pkg/printer"
)

func outputFn(name string, out io.Writer, render func(evaluator.Value) string) evaluator.NativeFn {
	return func(args []evaluator.Value) (evaluator.Value, error) {
		if err := exactly(name, args, 1); err != nil {
			return nil, err
		}
		if _, err := io.WriteString(out, render(args[0])); err != nil {
			return nil, fmt.Errorf("write failed: %w", err)
		}
		return evaluator.Unspec, nil
	}
}

func displayTo(out io.Writer) evaluator.NativeFn {
	return outputFn("display", out, printer.Display)
}

func writeTo(out io.Writer) evaluator.NativeFn {
	return outputFn("write", out, printer.Write)
}

func newlineTo(out io.Writer) evaluator.NativeFn {
	return func(args []evaluator.Value) (evaluator.Value, error) {
		if err := exactly("newline", args, 0); err != nil {
			return nil, err
		}
		if _, err := io.WriteString(out, "\n"); err != nil {
			return nil, fmt.Errorf("write failed: %w", err)
		}
		return evaluator.Unspec, nil
	}
}
