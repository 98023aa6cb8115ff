package tools_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/thomasrohde/scheval/pkg/diagnostics"
	"github.com/thomasrohde/scheval/pkg/evaluator"
	"github.com/thomasrohde/scheval/pkg/printer"
	"github.com/thomasrohde/scheval/pkg/tools"
)

func defaults(load tools.Loader) *tools.Registry {
	r := tools.NewRegistry()
	tools.RegisterDefaults(r, load, "9.9.9")
	return r
}

func call(t *testing.T, r *tools.Registry, name string, args ...evaluator.Value) (evaluator.Value, error) {
	t.Helper()
	def := r.Get(name)
	if def == nil {
		t.Fatalf("tool %q not registered", name)
	}
	return def.Execute(context.Background(), args)
}

func TestRegistryOrder(t *testing.T) {
	r := defaults(nil)
	var names []string
	for _, def := range r.All() {
		names = append(names, def.Name)
	}
	want := []string{"load", "read-file", "file-exists?", "directory-list", "version"}
	if len(names) != len(want) {
		t.Fatalf("names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names = %v, want %v", names, want)
			break
		}
	}
}

func TestLoadDelegates(t *testing.T) {
	var gotPath string
	r := defaults(func(ctx context.Context, path string) (evaluator.Value, error) {
		gotPath = path
		return evaluator.NewSymbol("done"), nil
	})
	val, err := call(t, r, "load", evaluator.NewString("lib.scm"))
	if err != nil {
		t.Fatal(err)
	}
	if gotPath != "lib.scm" || printer.Write(val) != "done" {
		t.Errorf("path = %q, value = %s", gotPath, printer.Write(val))
	}

	_, err = call(t, r, "load", evaluator.NewInteger(1))
	var re *evaluator.RuntimeError
	if !errors.As(err, &re) || re.Code != diagnostics.EType {
		t.Errorf("expected E_TYPE, got %v", err)
	}
}

func TestFileTools(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "b.txt")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	r := defaults(nil)

	val, err := call(t, r, "read-file", evaluator.NewString(path))
	if err != nil || printer.Write(val) != `"hello"` {
		t.Errorf("read-file = %v, %v", val, err)
	}

	val, _ = call(t, r, "file-exists?", evaluator.NewString(path))
	if val != evaluator.True {
		t.Errorf("file-exists? = %v", val)
	}
	val, _ = call(t, r, "file-exists?", evaluator.NewString(filepath.Join(dir, "nope")))
	if val != evaluator.False {
		t.Errorf("file-exists? missing = %v", val)
	}

	val, err = call(t, r, "directory-list", evaluator.NewString(dir))
	if err != nil || printer.Write(val) != `("a.txt" "b.txt")` {
		t.Errorf("directory-list = %s, %v", printer.Write(val), err)
	}

	_, err = call(t, r, "read-file", evaluator.NewString(filepath.Join(dir, "nope")))
	var re *evaluator.RuntimeError
	if !errors.As(err, &re) || re.Code != diagnostics.EIO {
		t.Errorf("expected E_IO, got %v", err)
	}
}

func TestVersion(t *testing.T) {
	val, err := call(t, defaults(nil), "version")
	if err != nil || printer.Write(val) != `"9.9.9"` {
		t.Errorf("version = %v, %v", val, err)
	}
}
