// Command scheval is the Scheme evaluator CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/thomasrohde/scheval/pkg/config"
	"github.com/thomasrohde/scheval/pkg/diagnostics"
	"github.com/thomasrohde/scheval/pkg/evaluator"
	"github.com/thomasrohde/scheval/pkg/formatter"
	"github.com/thomasrohde/scheval/pkg/printer"
	"github.com/thomasrohde/scheval/pkg/repl"
	"github.com/thomasrohde/scheval/pkg/runtime"
)

func main() {
	if len(os.Args) < 2 {
		os.Exit(cmdRepl(nil))
	}

	cmd := os.Args[1]
	switch cmd {
	case "run":
		os.Exit(cmdRun(os.Args[2:]))
	case "repl":
		os.Exit(cmdRepl(os.Args[2:]))
	case "check":
		os.Exit(cmdCheck(os.Args[2:]))
	case "fmt":
		os.Exit(cmdFmt(os.Args[2:]))
	case "trace":
		os.Exit(cmdTrace(os.Args[2:]))
	case "config":
		os.Exit(cmdConfig(os.Args[2:]))
	case "version", "--version":
		fmt.Printf("scheval %s\n", runtime.Version)
		os.Exit(0)
	case "help", "--help", "-h":
		usage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		usage(os.Stderr)
		os.Exit(1)
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: scheval <command> [options]")
	fmt.Fprintln(w, "commands: run, repl, check, fmt, trace, config, version")
}

func cmdRun(args []string) int {
	var file string
	pretty := false
	printValue := false
	verbose := false
	tracePath := ""
	maxDepth := int64(0)

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--pretty":
			pretty = true
		case "--max-depth":
			if i+1 < len(args) {
				i++
				n, err := strconv.ParseInt(args[i], 10, 64)
				if err != nil {
					fmt.Fprintf(os.Stderr, "invalid --max-depth: %s\n", args[i])
					return 1
				}
				maxDepth = n
			}
		case "--print":
			printValue = true
		case "--verbose":
			verbose = true
		case "--trace":
			if i+1 < len(args) {
				i++
				tracePath = args[i]
			}
		default:
			if args[i] == "-" || !strings.HasPrefix(args[i], "-") {
				file = args[i]
			}
		}
	}

	if file == "" {
		fmt.Fprintln(os.Stderr, "usage: scheval run <file> [--pretty] [--print] [--verbose] [--trace <path>] [--max-depth <n>]")
		return 1
	}

	source, filename, exitCode := readSource(file, pretty)
	if exitCode != 0 {
		return exitCode
	}

	cfg, cfgErr := loadConfig()
	logger := newLogger(verbose)
	if cfgErr != nil {
		logger.Warn("config ignored", "error", cfgErr)
	}
	if maxDepth != 0 {
		cfg.MaxDepth = maxDepth
	}

	opts := []runtime.Option{
		runtime.WithMaxDepth(cfg.MaxDepth),
		runtime.WithLogger(logger),
	}
	if tracePath != "" {
		f, err := os.Create(tracePath)
		if err != nil {
			diag := diagnostics.MakeDiag(diagnostics.EIO, fmt.Sprintf("cannot create trace file: %s", tracePath), nil, "")
			fmt.Fprintln(os.Stderr, diagnostics.FormatDiagnostics([]diagnostics.Diagnostic{diag}, pretty))
			return 1
		}
		defer f.Close()
		enc := json.NewEncoder(f)
		opts = append(opts,
			runtime.WithRunID(filename),
			runtime.WithTrace(func(ev evaluator.TraceEvent) { _ = enc.Encode(ev) }),
		)
	}
	rt := runtime.New(opts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if code := preload(ctx, rt, cfg, pretty); code != 0 {
		return code
	}

	result, execErr := rt.Eval(ctx, source, filename)
	if execErr != nil {
		return reportError(execErr, pretty)
	}
	if printValue && result != nil {
		fmt.Println(printer.Write(result.Value))
	}
	return 0
}

func cmdRepl(args []string) int {
	verbose := false
	for _, arg := range args {
		if arg == "--verbose" {
			verbose = true
		}
	}

	cfg, cfgErr := loadConfig()
	logger := newLogger(verbose)
	if cfgErr != nil {
		logger.Warn("config ignored", "error", cfgErr)
	}

	rt := runtime.New(
		runtime.WithRunID("repl"),
		runtime.WithMaxDepth(cfg.MaxDepth),
		runtime.WithLogger(logger),
	)
	ctx := context.Background()
	if code := preload(ctx, rt, cfg, true); code != 0 {
		return code
	}

	fmt.Printf("scheval %s (Ctrl-D to exit)\n", runtime.Version)
	editor := repl.OpenEditor(cfg.HistoryFile)
	defer editor.Close()

	if err := repl.New(rt, editor, os.Stdout, cfg.Prompt).Run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func cmdCheck(args []string) int {
	var file string
	pretty := false

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--pretty":
			pretty = true
		default:
			if args[i] == "-" || !strings.HasPrefix(args[i], "-") {
				file = args[i]
			}
		}
	}

	if file == "" {
		fmt.Fprintln(os.Stderr, "usage: scheval check <file> [--pretty]")
		return 1
	}

	source, filename, exitCode := readSource(file, pretty)
	if exitCode != 0 {
		return exitCode
	}

	rt := runtime.New(runtime.WithOutput(io.Discard))
	diags := rt.Check(source, filename)
	if len(diags) > 0 {
		fmt.Fprintln(os.Stderr, diagnostics.FormatDiagnostics(diags, pretty))
		return 2
	}

	if pretty {
		fmt.Println("No errors found.")
	} else {
		fmt.Println("[]")
	}
	return 0
}

func cmdFmt(args []string) int {
	var file string
	write := false

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--write":
			write = true
		default:
			if !strings.HasPrefix(args[i], "-") {
				file = args[i]
			}
		}
	}

	if file == "" {
		fmt.Fprintln(os.Stderr, "usage: scheval fmt <file> [--write]")
		return 1
	}

	source, filename, exitCode := readSource(file, false)
	if exitCode != 0 {
		return exitCode
	}

	rt := runtime.New(runtime.WithOutput(io.Discard))
	formatted, err := rt.Format(source, filename)
	if err != nil {
		return reportError(err, false)
	}

	if formatter.HasComments(source) {
		fmt.Fprintln(os.Stderr, "warning: comments are not preserved by the formatter")
	}

	if write {
		if err := os.WriteFile(file, []byte(formatted), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "error writing file: %s\n", err)
			return 1
		}
		return 0
	}
	fmt.Print(formatted)
	return 0
}

func cmdTrace(args []string) int {
	var file string
	textOutput := false

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--json":
			textOutput = false
		case "--text":
			textOutput = true
		default:
			if !strings.HasPrefix(args[i], "-") {
				file = args[i]
			}
		}
	}

	if file == "" {
		fmt.Fprintln(os.Stderr, "usage: scheval trace <file.jsonl> [--json|--text]")
		return 1
	}

	f, err := os.Open(file)
	if err != nil {
		diag := diagnostics.MakeDiag(diagnostics.EIO, fmt.Sprintf("cannot read file: %s", file), nil, "")
		fmt.Fprintln(os.Stderr, diagnostics.FormatDiagnostics([]diagnostics.Diagnostic{diag}, false))
		return 1
	}
	defer f.Close()

	summary := computeTraceSummary(f)
	if textOutput {
		printTraceSummaryText(os.Stdout, summary)
	} else {
		b, _ := json.Marshal(summary)
		fmt.Println(string(b))
	}
	return 0
}

func cmdConfig(_ []string) int {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	b, _ := json.MarshalIndent(cfg, "", "  ")
	fmt.Println(string(b))
	return 0
}

func loadConfig() (*config.Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return config.Default(), err
	}
	return config.Load(cwd)
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// preload evaluates the configured preload files into the session.
func preload(ctx context.Context, rt *runtime.Runtime, cfg *config.Config, pretty bool) int {
	for _, path := range cfg.Preload {
		if _, err := rt.Load(ctx, path); err != nil {
			return reportError(err, pretty)
		}
	}
	return 0
}

// reportError prints err as diagnostics and returns the exit code: 2 for
// static diagnostics, 4 for evaluation errors.
func reportError(err error, pretty bool) int {
	var diagErr *runtime.DiagnosticError
	if errors.As(err, &diagErr) {
		fmt.Fprintln(os.Stderr, diagnostics.FormatDiagnostics(diagErr.Diagnostics, pretty))
		return 2
	}
	var rtErr *evaluator.RuntimeError
	if errors.As(err, &rtErr) {
		diag := diagnostics.MakeDiag(rtErr.Code, rtErr.Message, rtErr.Span, "")
		fmt.Fprintln(os.Stderr, diagnostics.FormatDiagnostics([]diagnostics.Diagnostic{diag}, pretty))
		return 4
	}
	fmt.Fprintln(os.Stderr, err.Error())
	return 4
}

func readSource(file string, pretty bool) (string, string, int) {
	if file == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error reading stdin: %s\n", err)
			return "", "", 1
		}
		return string(data), "<stdin>", 0
	}

	source, err := os.ReadFile(file)
	if err != nil {
		diag := diagnostics.MakeDiag(diagnostics.EIO, fmt.Sprintf("cannot read file: %s", file), nil, "")
		fmt.Fprintln(os.Stderr, diagnostics.FormatDiagnostics([]diagnostics.Diagnostic{diag}, pretty))
		return "", "", 1
	}
	return string(source), file, 0
}
