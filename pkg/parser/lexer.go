package parser

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/d-biehl/robotframework-platynui-sub002/pkg/types"
)

const eof = -1

// Lexer converts an XPath expression into a sequence of tokens.
// The implementation is based on Rob Pike's "Lexical Scanning in Go" technique.
//
// Keywords are not reserved in XPath, so the lexer reports every name as
// TokenName and leaves it to the parser to decide from context whether
// "div" is an operator or an element name.
type Lexer struct {
	input   string // Input string being scanned
	length  int    // Length of input string
	start   int    // Start position of current token
	current int    // Current position in input
	width   int    // Width of last rune read
	err     error  // First error encountered
}

// NewLexer creates a new lexer from the provided input string.
// The input is tokenized by successive calls to the Next method.
func NewLexer(input string) *Lexer {
	return &Lexer{
		input:  input,
		length: len(input),
	}
}

// Next returns the next token from the input.
// When the end of the input is reached, Next returns TokenEOF for all subsequent calls.
func (l *Lexer) Next() Token {
	l.skipWhitespace()
	if l.err != nil {
		return Token{Type: TokenError, Position: l.current}
	}

	ch := l.nextRune()
	if ch == eof {
		return l.eof()
	}

	switch {
	case ch == '"' || ch == '\'':
		return l.scanString(ch)
	case isDigit(ch), ch == '.' && isDigit(l.peek()):
		l.current = l.start
		return l.scanNumber()
	case ch == '$':
		return l.scanVariable()
	case ch == '*' && l.peek() == ':':
		// *:local
		l.nextRune()
		if !l.accept(isNameStart) {
			l.current = l.start + 1
			return l.newToken(TokenStar)
		}
		l.acceptAll(isNameChar)
		return l.newToken(TokenWildcard)
	case isNameStart(ch):
		return l.scanName()
	}

	// Check for two-character symbols first (e.g., !=, <=, //)
	if rts := lookupSymbol2(ch); rts != nil {
		for _, rt := range rts {
			if l.acceptRune(rt.r) {
				return l.newToken(rt.tt)
			}
		}
	}

	// Check for single-character symbols
	if tt := lookupSymbol1(ch); tt > 0 {
		return l.newToken(tt)
	}

	return l.error("unexpected character " + strings.TrimSpace(string(ch)))
}

// Error returns the first error encountered during lexing, if any.
func (l *Lexer) Error() error {
	return l.err
}

// scanString reads a string literal from the current position.
// The opening quote has already been consumed. A doubled quote stands for
// one literal quote character.
func (l *Lexer) scanString(quote rune) Token {
	escaped := false
	for {
		switch l.nextRune() {
		case quote:
			if l.acceptRune(quote) {
				escaped = true
				continue
			}
		case eof:
			return l.error("unterminated string literal")
		default:
			continue
		}
		break
	}

	t := l.newToken(TokenString)
	raw := t.Value[1 : len(t.Value)-1]
	if escaped {
		q := string(quote)
		raw = strings.ReplaceAll(raw, q+q, q)
	}
	t.Value = raw
	return t
}

// scanNumber reads a numeric literal from the current position.
//
//	IntegerLiteral ::= Digits
//	DecimalLiteral ::= ("." Digits) | (Digits "." [0-9]*)
//	DoubleLiteral  ::= (("." Digits) | (Digits ("." [0-9]*)?)) [eE] [+-]? Digits
func (l *Lexer) scanNumber() Token {
	tt := TokenInteger
	l.acceptAll(isDigit)

	if l.acceptRune('.') {
		if l.peek() == '.' {
			// "1.." is an integer followed by "..".
			l.backup()
			return l.newToken(TokenInteger)
		}
		tt = TokenDecimal
		l.acceptAll(isDigit)
	}

	if l.acceptRunes2('e', 'E') {
		l.acceptRunes2('+', '-')
		if !l.acceptAll(isDigit) {
			return l.error("malformed exponent in numeric literal")
		}
		tt = TokenDouble
	}

	if isNameStart(l.peek()) {
		l.nextRune()
		return l.error("numeric literal must be followed by a separator")
	}

	return l.newToken(tt)
}

// scanVariable reads a variable reference. The "$" has already been
// consumed; whitespace and comments may separate it from the name.
func (l *Lexer) scanVariable() Token {
	pos := l.start
	l.skipWhitespace()
	if l.err != nil {
		return Token{Type: TokenError, Position: l.current}
	}
	l.ignore()
	if !l.accept(isNameStart) {
		l.start = pos
		return l.error("expected a variable name after $")
	}
	t := l.scanName()
	if t.Type != TokenName {
		l.start = t.Position
		l.current = t.Position + len(t.Value)
		return l.error("invalid variable name " + t.Value)
	}
	t.Type = TokenVariable
	t.Position = pos
	return t
}

// scanName reads an NCName or a prefixed QName. The first character has
// already been consumed. A trailing ":*" turns the token into a wildcard.
func (l *Lexer) scanName() Token {
	l.acceptAll(isNameChar)

	if l.peek() == ':' {
		save := l.current
		l.nextRune()
		switch {
		case l.accept(isNameStart):
			l.acceptAll(isNameChar)
			return l.newToken(TokenName)
		case l.acceptRune('*'):
			return l.newToken(TokenWildcard)
		}
		// "::" or a stray colon belongs to the next token.
		l.current = save
	}

	return l.newToken(TokenName)
}

// Helper methods

func (l *Lexer) eof() Token {
	return Token{
		Type:     TokenEOF,
		Position: l.current,
	}
}

func (l *Lexer) error(message string) Token {
	t := l.newToken(TokenError)
	l.err = types.NewError(types.ErrSyntax, message, t.Position).WithToken(t.Value)
	return t
}

func (l *Lexer) newToken(tt TokenType) Token {
	t := Token{
		Type:     tt,
		Value:    l.input[l.start:l.current],
		Position: l.start,
	}
	l.width = 0
	l.start = l.current
	return t
}

func (l *Lexer) nextRune() rune {
	if l.err != nil || l.current >= l.length {
		l.width = 0
		return eof
	}

	r, w := utf8.DecodeRuneInString(l.input[l.current:])
	l.width = w
	l.current += w
	return r
}

func (l *Lexer) peek() rune {
	r := l.nextRune()
	l.backup()
	return r
}

func (l *Lexer) backup() {
	l.current -= l.width
}

func (l *Lexer) ignore() {
	l.start = l.current
}

func (l *Lexer) acceptRune(r rune) bool {
	return l.accept(func(c rune) bool {
		return c == r
	})
}

func (l *Lexer) acceptRunes2(r1, r2 rune) bool {
	return l.accept(func(c rune) bool {
		return c == r1 || c == r2
	})
}

func (l *Lexer) accept(isValid func(rune) bool) bool {
	if isValid(l.nextRune()) {
		return true
	}
	l.backup()
	return false
}

func (l *Lexer) acceptAll(isValid func(rune) bool) bool {
	var matched bool
	for l.accept(isValid) {
		matched = true
	}
	return matched
}

// skipWhitespace skips whitespace and (: comments :), which may nest.
func (l *Lexer) skipWhitespace() {
	for l.err == nil {
		l.acceptAll(isWhitespace)
		l.ignore()

		if !strings.HasPrefix(l.input[l.current:], "(:") {
			return
		}
		l.current += 2
		depth := 1
		for depth > 0 {
			rest := l.input[l.current:]
			switch {
			case rest == "":
				l.err = types.NewError(types.ErrSyntax, "unclosed comment", l.start)
				return
			case strings.HasPrefix(rest, "(:"):
				depth++
				l.current += 2
			case strings.HasPrefix(rest, ":)"):
				depth--
				l.current += 2
			default:
				l.nextRune()
			}
		}
		l.ignore()
	}
}

// Character classification functions

func isWhitespace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r':
		return true
	default:
		return false
	}
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isNameStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isNameChar(r rune) bool {
	switch {
	case isNameStart(r), isDigit(r):
		return true
	case r == '-', r == '.', r == 0xB7:
		return true
	}
	return unicode.In(r, unicode.Mn, unicode.Mc, unicode.Nd)
}
