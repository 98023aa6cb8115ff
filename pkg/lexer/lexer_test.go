package lexer

import (
	"errors"
	"testing"
)

// helper to tokenize and fail on error
func mustTokenize(t *testing.T, source string) []Token {
	t.Helper()
	tokens, err := Tokenize(source, "test.scm")
	if err != nil {
		t.Fatalf("unexpected lex error: %v", err)
	}
	return tokens
}

// helper that strips the trailing EOF for easier assertions
func mustTokenizeNoEOF(t *testing.T, source string) []Token {
	t.Helper()
	tokens := mustTokenize(t, source)
	if len(tokens) == 0 {
		t.Fatal("expected at least one token (EOF)")
	}
	if tokens[len(tokens)-1].Type != TokEOF {
		t.Fatal("last token is not EOF")
	}
	return tokens[:len(tokens)-1]
}

func TestEmptyInput(t *testing.T) {
	tokens := mustTokenize(t, "")
	if len(tokens) != 1 {
		t.Fatalf("expected 1 token (EOF), got %d", len(tokens))
	}
	if tokens[0].Type != TokEOF {
		t.Errorf("expected TokEOF, got %v", tokens[0].Type)
	}
}

func TestSingleTokens(t *testing.T) {
	tests := []struct {
		src   string
		typ   TokenType
		value string
	}{
		{"(", TokLParen, "("},
		{")", TokRParen, ")"},
		{"[", TokLParen, "("},
		{"]", TokRParen, ")"},
		{"'", TokQuote, "'"},
		{".", TokDot, "."},
		{"#t", TokBool, "#t"},
		{"#false", TokBool, "#false"},
		{"#maybe", TokBool, "#maybe"},
		{"42", TokNumber, "42"},
		{"-456", TokNumber, "-456"},
		{"+7", TokNumber, "+7"},
		{"7.8901", TokNumber, "7.8901"},
		{".5", TokNumber, ".5"},
		{"-2/3", TokNumber, "-2/3"},
		{"6.78+9.0i", TokNumber, "6.78+9.0i"},
		{"1e10", TokNumber, "1e10"},
		{"+i", TokNumber, "+i"},
		{"-i", TokNumber, "-i"},
		{"+inc", TokIdent, "+inc"},
		{"foo", TokIdent, "foo"},
		{"set!", TokIdent, "set!"},
		{"let*", TokIdent, "let*"},
		{"+", TokIdent, "+"},
		{"-", TokIdent, "-"},
		{"...", TokIdent, "..."},
		{"<=", TokIdent, "<="},
		{"pair?", TokIdent, "pair?"},
		{"->string", TokIdent, "->string"},
		{`"hello"`, TokString, "hello"},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			tokens := mustTokenizeNoEOF(t, tt.src)
			if len(tokens) != 1 {
				t.Fatalf("expected 1 token, got %d: %v", len(tokens), tokens)
			}
			if tokens[0].Type != tt.typ {
				t.Errorf("type = %v, want %v", tokens[0].Type, tt.typ)
			}
			if tokens[0].Value != tt.value {
				t.Errorf("value = %q, want %q", tokens[0].Value, tt.value)
			}
		})
	}
}

func TestCharLiterals(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{`#\a`, "a"},
		{`#\Z`, "Z"},
		{`#\space`, " "},
		{`#\newline`, "\n"},
		{`#\tab`, "\t"},
		{`#\(`, "("},
		{`#\x41`, "A"},
		{`#\λ`, "λ"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			tokens := mustTokenizeNoEOF(t, tt.src)
			if len(tokens) != 1 || tokens[0].Type != TokChar {
				t.Fatalf("expected one TokChar, got %v", tokens)
			}
			if tokens[0].Value != tt.want {
				t.Errorf("value = %q, want %q", tokens[0].Value, tt.want)
			}
		})
	}
}

func TestStringEscapes(t *testing.T) {
	tokens := mustTokenizeNoEOF(t, `"a\"b\\c\nd\x41;"`)
	if len(tokens) != 1 {
		t.Fatalf("expected 1 token, got %d", len(tokens))
	}
	if want := "a\"b\\c\ndA"; tokens[0].Value != want {
		t.Errorf("value = %q, want %q", tokens[0].Value, want)
	}
}

func TestMultilineString(t *testing.T) {
	tokens := mustTokenizeNoEOF(t, "\"line1\nline2\"")
	if tokens[0].Value != "line1\nline2" {
		t.Errorf("value = %q", tokens[0].Value)
	}
}

func TestCommentsAreSkipped(t *testing.T) {
	tokens := mustTokenizeNoEOF(t, "; leading comment\n(+ 1 2) ; trailing\n")
	want := []TokenType{TokLParen, TokIdent, TokNumber, TokNumber, TokRParen}
	if len(tokens) != len(want) {
		t.Fatalf("expected %d tokens, got %d", len(want), len(tokens))
	}
	for i, typ := range want {
		if tokens[i].Type != typ {
			t.Errorf("token %d: type = %v, want %v", i, tokens[i].Type, typ)
		}
	}
}

func TestQuoteAdjacentToAtom(t *testing.T) {
	tokens := mustTokenizeNoEOF(t, "'(a 'b)")
	want := []TokenType{TokQuote, TokLParen, TokIdent, TokQuote, TokIdent, TokRParen}
	if len(tokens) != len(want) {
		t.Fatalf("expected %d tokens, got %d", len(want), len(tokens))
	}
	for i, typ := range want {
		if tokens[i].Type != typ {
			t.Errorf("token %d: type = %v, want %v", i, tokens[i].Type, typ)
		}
	}
}

func TestSpans(t *testing.T) {
	tokens := mustTokenizeNoEOF(t, "(foo\n  bar)")
	bar := tokens[2]
	if bar.Span.StartLine != 2 || bar.Span.StartCol != 3 {
		t.Errorf("bar span = %d:%d, want 2:3", bar.Span.StartLine, bar.Span.StartCol)
	}
	if bar.Span.File != "test.scm" {
		t.Errorf("file = %q", bar.Span.File)
	}
}

func TestLexErrors(t *testing.T) {
	tests := []string{
		`"unterminated`,
		`"bad \q escape"`,
		`#\nosuchname`,
		`{`,
		`foo|bar`,
	}
	for _, src := range tests {
		t.Run(src, func(t *testing.T) {
			_, err := Tokenize(src, "test.scm")
			if err == nil {
				t.Fatalf("expected lex error for %q", src)
			}
			var le *LexError
			if !errors.As(err, &le) {
				t.Fatalf("expected *LexError, got %T", err)
			}
			if le.Diag.Code != "E_LEX" {
				t.Errorf("code = %q, want E_LEX", le.Diag.Code)
			}
		})
	}
}
