// Package repl implements the interactive read-eval-print loop.
package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/peterh/liner"

	"github.com/thomasrohde/scheval/pkg/evaluator"
	"github.com/thomasrohde/scheval/pkg/parser"
	"github.com/thomasrohde/scheval/pkg/printer"
	"github.com/thomasrohde/scheval/pkg/runtime"
)

// Farewell is printed when input ends.
const Farewell = "Bye!"

// LineReader reads one line of input after showing a prompt. It returns
// io.EOF when input ends and liner.ErrPromptAborted on Ctrl-C.
type LineReader interface {
	Prompt(prompt string) (string, error)
}

type historian interface {
	AppendHistory(item string)
}

// Session drives one interactive loop over a runtime.
type Session struct {
	rt     *runtime.Runtime
	in     LineReader
	out    io.Writer
	prompt string
	cont   string
}

// New creates a session. Values and error messages are written to out.
func New(rt *runtime.Runtime, in LineReader, out io.Writer, prompt string) *Session {
	return &Session{
		rt:     rt,
		in:     in,
		out:    out,
		prompt: prompt,
		cont:   ContinuationPrompt(prompt),
	}
}

// ContinuationPrompt returns the prompt shown while a form is incomplete:
// dots as wide as prompt, ending in a space.
func ContinuationPrompt(prompt string) string {
	if len(prompt) <= 1 {
		return prompt
	}
	return strings.Repeat(".", len(prompt)-1) + " "
}

// Complete reports whether src holds whole forms, so it can be evaluated.
// Sources with other syntax errors count as complete; evaluating them
// reports the error.
func Complete(src string) bool {
	_, diags := parser.Parse(src, "repl")
	return !parser.IsIncomplete(diags)
}

// Run reads and evaluates input until it ends or ctx is cancelled.
// Evaluation errors are reported and the loop continues.
func (s *Session) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		src, err := s.read()
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(s.out)
			fmt.Fprintln(s.out, Farewell)
			return nil
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			continue
		}
		if err != nil {
			return err
		}

		trimmed := strings.TrimSpace(src)
		if trimmed == "" {
			continue
		}
		if trimmed == ":quit" {
			fmt.Fprintln(s.out, Farewell)
			return nil
		}
		if h, ok := s.in.(historian); ok {
			h.AppendHistory(strings.ReplaceAll(trimmed, "\n", " "))
		}
		s.eval(ctx, src)
	}
}

// read accumulates lines until they form complete input.
func (s *Session) read() (string, error) {
	var b strings.Builder
	for {
		prompt := s.prompt
		if b.Len() > 0 {
			prompt = s.cont
		}
		line, err := s.in.Prompt(prompt)
		if err != nil {
			return "", err
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
		if src := b.String(); Complete(src) {
			return src, nil
		}
	}
}

func (s *Session) eval(ctx context.Context, src string) {
	res, err := s.rt.Eval(ctx, src, "repl")
	if res != nil {
		for _, v := range res.Values {
			if _, ok := v.(evaluator.Unspecified); ok {
				continue
			}
			fmt.Fprintln(s.out, printer.Write(v))
		}
	}
	if err != nil {
		fmt.Fprintln(s.out, err.Error())
	}
}

// Editor is a liner-backed LineReader with persistent history.
type Editor struct {
	*liner.State
	historyFile string
}

// OpenEditor starts line editing and loads history from historyFile when
// it exists. An empty historyFile disables history.
func OpenEditor(historyFile string) *Editor {
	ln := liner.NewLiner()
	ln.SetCtrlCAborts(true)
	if historyFile != "" {
		if f, err := os.Open(historyFile); err == nil {
			_, _ = ln.ReadHistory(f)
			_ = f.Close()
		}
	}
	return &Editor{State: ln, historyFile: historyFile}
}

// Close saves history and restores the terminal.
func (e *Editor) Close() error {
	if e.historyFile != "" {
		if f, err := os.Create(e.historyFile); err == nil {
			_, _ = e.WriteHistory(f)
			_ = f.Close()
		}
	}
	return e.State.Close()
}
