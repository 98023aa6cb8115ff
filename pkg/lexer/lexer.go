// Package lexer implements the Scheme tokenizer.
package lexer

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/thomasrohde/scheval/pkg/ast"
	"github.com/thomasrohde/scheval/pkg/diagnostics"
)

// TokenType identifies the type of a lexer token.
type TokenType int

const (
	// Punctuation
	TokLParen TokenType = iota // (
	TokRParen                  // )
	TokQuote                   // '
	TokDot                     // .

	// Literals
	TokBool
	TokNumber
	TokString
	TokChar

	// Identifiers
	TokIdent

	// Special
	TokEOF
)

// Token represents a single lexer token. For TokChar, Value holds the
// decoded character; for every other kind it holds the source text.
type Token struct {
	Type  TokenType
	Value string
	Span  ast.Span
}

var charNames = map[string]rune{
	"space":     ' ',
	"newline":   '\n',
	"tab":       '\t',
	"nul":       0,
	"null":      0,
	"return":    '\r',
	"linefeed":  '\n',
	"alarm":     7,
	"backspace": 8,
	"delete":    127,
	"escape":    27,
}

type scanner struct {
	source   string
	filename string
	pos      int
	line     int
	col      int
}

func newScanner(source, filename string) *scanner {
	return &scanner{
		source:   source,
		filename: filename,
		pos:      0,
		line:     1,
		col:      1,
	}
}

func (s *scanner) atEnd() bool {
	return s.pos >= len(s.source)
}

func (s *scanner) peek() byte {
	if s.atEnd() {
		return 0
	}
	return s.source[s.pos]
}

func (s *scanner) peekAt(offset int) byte {
	p := s.pos + offset
	if p >= len(s.source) {
		return 0
	}
	return s.source[p]
}

func (s *scanner) advance() byte {
	ch := s.source[s.pos]
	s.pos++
	if ch == '\n' {
		s.line++
		s.col = 1
	} else {
		s.col++
	}
	return ch
}

func (s *scanner) span(startLine, startCol int) ast.Span {
	return ast.Span{
		File:      s.filename,
		StartLine: startLine,
		StartCol:  startCol,
		EndLine:   s.line,
		EndCol:    s.col,
	}
}

func (s *scanner) skipWhitespaceAndComments() {
	for !s.atEnd() {
		ch := s.peek()
		if ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n' || ch == '\f' {
			s.advance()
		} else if ch == ';' {
			for !s.atEnd() && s.peek() != '\n' {
				s.advance()
			}
		} else {
			break
		}
	}
}

// IsDelimiter reports whether ch ends an atom.
func IsDelimiter(ch byte) bool {
	switch ch {
	case ' ', '\t', '\r', '\n', '\f', '(', ')', '"', ';', '\'':
		return true
	}
	return false
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentChar(ch byte) bool {
	if (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || isDigit(ch) {
		return true
	}
	return strings.IndexByte("!$%&*/:<=>?^_~+-.@", ch) >= 0 || ch >= utf8.RuneSelf
}

// looksNumeric decides whether an atom is lexed as a number. Malformed
// numeric text still lexes as TokNumber and is rejected at evaluation.
func looksNumeric(text string) bool {
	if text == "" {
		return false
	}
	if isDigit(text[0]) {
		return true
	}
	if len(text) < 2 {
		return false
	}
	if text == "+i" || text == "-i" {
		return true
	}
	switch text[0] {
	case '+', '-':
		return isDigit(text[1]) || (text[1] == '.' && len(text) > 2 && isDigit(text[2]))
	case '.':
		return isDigit(text[1])
	}
	return false
}

func (s *scanner) scanAtom() string {
	start := s.pos
	for !s.atEnd() && !IsDelimiter(s.peek()) {
		s.advance()
	}
	return s.source[start:s.pos]
}

func (s *scanner) scanString() (Token, error) {
	startLine, startCol := s.line, s.col
	s.advance() // consume opening "

	var buf strings.Builder
	for !s.atEnd() {
		ch := s.peek()
		if ch == '"' {
			s.advance() // consume closing "
			return Token{
				Type:  TokString,
				Value: buf.String(),
				Span:  s.span(startLine, startCol),
			}, nil
		}
		if ch == '\\' {
			s.advance() // consume backslash
			if s.atEnd() {
				return Token{}, s.lexError(startLine, startCol, "unterminated string escape")
			}
			esc := s.advance()
			switch esc {
			case '"':
				buf.WriteByte('"')
			case '\\':
				buf.WriteByte('\\')
			case 'n':
				buf.WriteByte('\n')
			case 'r':
				buf.WriteByte('\r')
			case 't':
				buf.WriteByte('\t')
			case 'a':
				buf.WriteByte(7)
			case 'x':
				// \x41;
				end := strings.IndexByte(s.source[s.pos:], ';')
				if end < 0 {
					return Token{}, s.lexError(startLine, startCol, "unterminated hex escape")
				}
				hexStr := s.source[s.pos : s.pos+end]
				codepoint, err := strconv.ParseUint(hexStr, 16, 32)
				if err != nil {
					return Token{}, s.lexError(startLine, startCol, fmt.Sprintf("invalid hex escape: \\x%s;", hexStr))
				}
				buf.WriteRune(rune(codepoint))
				for i := 0; i <= end; i++ {
					s.advance()
				}
			default:
				return Token{}, s.lexError(startLine, startCol, fmt.Sprintf("invalid escape character: \\%c", esc))
			}
		} else {
			r, size := utf8.DecodeRuneInString(s.source[s.pos:])
			if r == utf8.RuneError && size == 1 {
				return Token{}, s.lexError(startLine, startCol, "invalid UTF-8 character in string")
			}
			buf.WriteRune(r)
			for i := 0; i < size; i++ {
				s.advance()
			}
		}
	}
	return Token{}, s.incomplete(startLine, startCol, "unterminated string literal")
}

func (s *scanner) scanChar() (Token, error) {
	startLine, startCol := s.line, s.col
	s.advance() // #
	s.advance() // backslash
	if s.atEnd() {
		return Token{}, s.lexError(startLine, startCol, "incomplete character literal")
	}

	// The first character is taken even when it is a delimiter: #\( #\space.
	r, size := utf8.DecodeRuneInString(s.source[s.pos:])
	if r == utf8.RuneError && size == 1 {
		return Token{}, s.lexError(startLine, startCol, "invalid UTF-8 character literal")
	}
	start := s.pos
	for i := 0; i < size; i++ {
		s.advance()
	}
	for !s.atEnd() && !IsDelimiter(s.peek()) {
		s.advance()
	}
	text := s.source[start:s.pos]

	if utf8.RuneCountInString(text) == 1 {
		return Token{Type: TokChar, Value: text, Span: s.span(startLine, startCol)}, nil
	}
	if named, ok := charNames[strings.ToLower(text)]; ok {
		return Token{Type: TokChar, Value: string(named), Span: s.span(startLine, startCol)}, nil
	}
	if text[0] == 'x' || text[0] == 'X' {
		codepoint, err := strconv.ParseUint(text[1:], 16, 32)
		if err == nil && utf8.ValidRune(rune(codepoint)) {
			return Token{Type: TokChar, Value: string(rune(codepoint)), Span: s.span(startLine, startCol)}, nil
		}
	}
	return Token{}, s.lexError(startLine, startCol, fmt.Sprintf("unknown character name: #\\%s", text))
}

// HintIncomplete marks diagnostics for input that ended before a token or
// form was closed.
const HintIncomplete = "input ended before the form was complete"

func (s *scanner) lexError(line, col int, msg string) error {
	return s.diag(line, col, msg, "")
}

func (s *scanner) incomplete(line, col int, msg string) error {
	return s.diag(line, col, msg, HintIncomplete)
}

func (s *scanner) diag(line, col int, msg, hint string) error {
	diag := diagnostics.MakeDiag(
		diagnostics.ELex,
		msg,
		&ast.Span{File: s.filename, StartLine: line, StartCol: col, EndLine: line, EndCol: col + 1},
		hint,
	)
	return &LexError{Diag: diag}
}

// LexError wraps a diagnostic for lex errors.
type LexError struct {
	Diag diagnostics.Diagnostic
}

func (e *LexError) Error() string {
	return e.Diag.Message
}

func (s *scanner) nextToken() (Token, error) {
	s.skipWhitespaceAndComments()

	if s.atEnd() {
		return Token{
			Type:  TokEOF,
			Value: "",
			Span:  s.span(s.line, s.col),
		}, nil
	}

	ch := s.peek()
	startLine, startCol := s.line, s.col

	switch ch {
	case '(', '[':
		s.advance()
		return Token{Type: TokLParen, Value: "(", Span: s.span(startLine, startCol)}, nil
	case ')', ']':
		s.advance()
		return Token{Type: TokRParen, Value: ")", Span: s.span(startLine, startCol)}, nil
	case '\'':
		s.advance()
		return Token{Type: TokQuote, Value: "'", Span: s.span(startLine, startCol)}, nil
	case '"':
		return s.scanString()
	case '#':
		if s.peekAt(1) == '\\' {
			return s.scanChar()
		}
		// Any other #-atom is a boolean literal; its validity is
		// decided when it is evaluated.
		text := s.scanAtom()
		return Token{Type: TokBool, Value: text, Span: s.span(startLine, startCol)}, nil
	}

	text := s.scanAtom()
	if text == "" {
		s.advance()
		return Token{}, s.lexError(startLine, startCol, fmt.Sprintf("unexpected character '%c'", ch))
	}
	if text == "." {
		return Token{Type: TokDot, Value: ".", Span: s.span(startLine, startCol)}, nil
	}
	if looksNumeric(text) {
		return Token{Type: TokNumber, Value: text, Span: s.span(startLine, startCol)}, nil
	}
	for i := 0; i < len(text); i++ {
		if !isIdentChar(text[i]) {
			return Token{}, s.lexError(startLine, startCol, fmt.Sprintf("unexpected character '%c' in identifier", text[i]))
		}
	}
	return Token{Type: TokIdent, Value: text, Span: s.span(startLine, startCol)}, nil
}

// Tokenize breaks source code into a slice of tokens.
func Tokenize(source, filename string) ([]Token, error) {
	s := newScanner(source, filename)
	var tokens []Token

	for {
		tok, err := s.nextToken()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == TokEOF {
			break
		}
	}

	return tokens, nil
}
