package runtime_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/thomasrohde/scheval/pkg/diagnostics"
	"github.com/thomasrohde/scheval/pkg/evaluator"
	"github.com/thomasrohde/scheval/pkg/printer"
	"github.com/thomasrohde/scheval/pkg/runtime"
)

func newRuntime(t *testing.T, opts ...runtime.Option) (*runtime.Runtime, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	opts = append([]runtime.Option{runtime.WithOutput(&out)}, opts...)
	return runtime.New(opts...), &out
}

func mustEval(t *testing.T, rt *runtime.Runtime, src string) string {
	t.Helper()
	res, err := rt.Eval(context.Background(), src, "test.scm")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return printer.Write(res.Value)
}

func TestEvalReturnsLastValue(t *testing.T) {
	rt, _ := newRuntime(t)
	res, err := rt.Eval(context.Background(), "(define x 2) (* x 21)", "test.scm")
	if err != nil {
		t.Fatal(err)
	}
	if got := printer.Write(res.Value); got != "42" {
		t.Errorf("value = %s, want 42", got)
	}
	if len(res.Values) != 2 || printer.Write(res.Values[0]) != "x" {
		t.Errorf("values = %v", res.Values)
	}
}

func TestEmptySourceIsUnspecified(t *testing.T) {
	rt, _ := newRuntime(t)
	if got := mustEval(t, rt, "  ; nothing here\n"); got != "#<unspecified>" {
		t.Errorf("empty source = %s", got)
	}
}

func TestSessionPersistsAcrossEval(t *testing.T) {
	rt, _ := newRuntime(t)
	mustEval(t, rt, "(define (square x) (* x x))")
	if got := mustEval(t, rt, "(square 12)"); got != "144" {
		t.Errorf("square = %s", got)
	}
	rt.Reset()
	_, err := rt.Eval(context.Background(), "(square 12)", "test.scm")
	var re *evaluator.RuntimeError
	if !errors.As(err, &re) || re.Code != diagnostics.EUnbound {
		t.Errorf("after reset, err = %v", err)
	}
}

func TestOutputGoesToWriter(t *testing.T) {
	rt, out := newRuntime(t)
	mustEval(t, rt, `(display "hello") (newline) (write "hello")`)
	if got := out.String(); got != "hello\n\"hello\"" {
		t.Errorf("output = %q", got)
	}
}

func TestParseErrorsAreDiagnostics(t *testing.T) {
	rt, _ := newRuntime(t)
	_, err := rt.Eval(context.Background(), "(+ 1", "test.scm")
	var de *runtime.DiagnosticError
	if !errors.As(err, &de) {
		t.Fatalf("expected DiagnosticError, got %T: %v", err, err)
	}
	if de.Diagnostics[0].Code != diagnostics.EParse {
		t.Errorf("code = %s", de.Diagnostics[0].Code)
	}
}

func TestValidationStopsEvaluation(t *testing.T) {
	rt, out := newRuntime(t)
	_, err := rt.Eval(context.Background(), `(display "side effect") (lambda (a a) a)`, "test.scm")
	var de *runtime.DiagnosticError
	if !errors.As(err, &de) {
		t.Fatalf("expected DiagnosticError, got %v", err)
	}
	if de.Diagnostics[0].Code != diagnostics.EDupBinding {
		t.Errorf("code = %s", de.Diagnostics[0].Code)
	}
	if out.Len() != 0 {
		t.Errorf("nothing should run before validation passes, got %q", out.String())
	}
}

func TestRuntimeErrorKeepsEarlierEffects(t *testing.T) {
	rt, _ := newRuntime(t)
	res, err := rt.Eval(context.Background(), "(define a 1) (car '()) (define b 2)", "test.scm")
	if err == nil {
		t.Fatal("expected error")
	}
	if len(res.Values) != 1 {
		t.Errorf("values before failure = %d, want 1", len(res.Values))
	}
	if !rt.Env().IsBound("a") || rt.Env().IsBound("b") {
		t.Error("only forms before the failure should take effect")
	}
}

func TestCheck(t *testing.T) {
	rt, _ := newRuntime(t)
	if diags := rt.Check("(define (f x) x)", "ok.scm"); len(diags) != 0 {
		t.Errorf("unexpected diagnostics: %v", diags)
	}
	diags := rt.Check("(let ((x 1) (x 2)) x)", "bad.scm")
	if len(diags) != 1 || diags[0].Code != diagnostics.EDupBinding {
		t.Errorf("diagnostics = %v", diags)
	}
}

func TestCancelledContext(t *testing.T) {
	rt, out := newRuntime(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := rt.Eval(ctx, `(display "x")`, "test.scm")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if out.Len() != 0 {
		t.Errorf("no form should run, got %q", out.String())
	}
}

func TestCancelDuringLongForm(t *testing.T) {
	var events []evaluator.TraceEvent
	rt, _ := newRuntime(t, runtime.WithTrace(func(ev evaluator.TraceEvent) { events = append(events, ev) }))
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := rt.Eval(ctx, "(do ((i 0 (+ i 1))) ((= i 1500)) (do ((j 0 (+ j 1))) ((= j 1500))))", "test.scm")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want context.DeadlineExceeded", err)
	}
	var re *evaluator.RuntimeError
	if !errors.As(err, &re) || re.Code != diagnostics.ECancelled {
		t.Errorf("err = %v, want %s", err, diagnostics.ECancelled)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("evaluation stopped after %v", elapsed)
	}
	if last := events[len(events)-1]; last.Event != evaluator.TraceRunEnd || last.Data["status"] != "cancelled" {
		t.Errorf("last event = %s %v", last.Event, last.Data)
	}

	// The session stays usable with a live context.
	if got := mustEval(t, rt, "(+ 1 2)"); got != "3" {
		t.Errorf("after cancel = %s", got)
	}
}

func TestTraceEvents(t *testing.T) {
	var events []evaluator.TraceEvent
	rt, _ := newRuntime(t,
		runtime.WithRunID("r1"),
		runtime.WithTrace(func(ev evaluator.TraceEvent) { events = append(events, ev) }),
	)
	mustEval(t, rt, "(define (f) 1) (f)")

	if len(events) == 0 {
		t.Fatal("no trace events")
	}
	if events[0].Event != evaluator.TraceRunStart || events[len(events)-1].Event != evaluator.TraceRunEnd {
		t.Errorf("first/last = %s/%s", events[0].Event, events[len(events)-1].Event)
	}
	counts := map[evaluator.TraceEventType]int{}
	for _, ev := range events {
		if ev.RunID != "r1" {
			t.Errorf("runId = %q", ev.RunID)
		}
		counts[ev.Event]++
	}
	if counts[evaluator.TraceFormStart] != 2 || counts[evaluator.TraceFormEnd] != 2 {
		t.Errorf("form events = %v", counts)
	}
	if counts[evaluator.TraceApplyStart] != 1 {
		t.Errorf("apply events = %v", counts)
	}
}

func TestMaxDepthOption(t *testing.T) {
	rt, _ := newRuntime(t, runtime.WithMaxDepth(20))
	_, err := rt.Eval(context.Background(), "(define (loop n) (+ 1 (loop n))) (loop 0)", "test.scm")
	var re *evaluator.RuntimeError
	if !errors.As(err, &re) || re.Code != diagnostics.EBudget {
		t.Errorf("err = %v, want %s", err, diagnostics.EBudget)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	lib := filepath.Join(dir, "lib.scm")
	if err := os.WriteFile(lib, []byte("(define (twice x) (* 2 x)) 'loaded"), 0o644); err != nil {
		t.Fatal(err)
	}

	rt, _ := newRuntime(t)
	res, err := rt.Load(context.Background(), lib)
	if err != nil {
		t.Fatal(err)
	}
	if got := printer.Write(res.Value); got != "loaded" {
		t.Errorf("load value = %s", got)
	}
	if got := mustEval(t, rt, "(twice 21)"); got != "42" {
		t.Errorf("twice = %s", got)
	}

	_, err = rt.Load(context.Background(), filepath.Join(dir, "missing.scm"))
	var re *evaluator.RuntimeError
	if !errors.As(err, &re) || re.Code != diagnostics.EIO {
		t.Errorf("missing file err = %v", err)
	}
}

func TestLoadProcedure(t *testing.T) {
	dir := t.TempDir()
	lib := filepath.Join(dir, "lib.scm")
	if err := os.WriteFile(lib, []byte("(define answer 42)"), 0o644); err != nil {
		t.Fatal(err)
	}
	bad := filepath.Join(dir, "bad.scm")
	if err := os.WriteFile(bad, []byte("(lambda (x x) x)"), 0o644); err != nil {
		t.Fatal(err)
	}

	rt, _ := newRuntime(t)
	src := `(load "` + filepath.ToSlash(lib) + `") answer`
	if got := mustEval(t, rt, src); got != "42" {
		t.Errorf("answer = %s", got)
	}

	_, err := rt.Eval(context.Background(), `(load "`+filepath.ToSlash(bad)+`")`, "test.scm")
	var re *evaluator.RuntimeError
	if !errors.As(err, &re) || re.Code != diagnostics.EDupBinding {
		t.Errorf("bad load err = %v", err)
	}
}

func TestHostProceduresBoundAfterPrimitives(t *testing.T) {
	rt, _ := newRuntime(t)
	names := rt.Env().Frame().Names()
	if names[0] != "cons" {
		t.Errorf("first binding = %s", names[0])
	}
	if names[len(names)-1] != "version" {
		t.Errorf("last binding = %s", names[len(names)-1])
	}
	if got := mustEval(t, rt, "(version)"); got != `"`+runtime.Version+`"` {
		t.Errorf("version = %s", got)
	}
}

func TestFormat(t *testing.T) {
	rt, _ := newRuntime(t)
	got, err := rt.Format("(define  (f x)\n   (* x   x))", "f.scm")
	if err != nil {
		t.Fatal(err)
	}
	if got != "(define (f x) (* x x))\n" {
		t.Errorf("Format = %q", got)
	}
	if _, err := rt.Format("(define", "f.scm"); err == nil {
		t.Error("expected parse error")
	}
}

func TestDiagnosticErrorMessage(t *testing.T) {
	err := &runtime.DiagnosticError{Diagnostics: []diagnostics.Diagnostic{
		{Code: "E_ONE", Message: "first"},
		{Code: "E_TWO", Message: "second"},
	}}
	if got := err.Error(); got != "E_ONE: first; E_TWO: second" {
		t.Errorf("Error() = %q", got)
	}
}
