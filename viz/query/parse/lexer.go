package parse

import (
	"strings"
	"unicode"
	"unicode/utf8"

	errors "gopkg.in/src-d/go-errors.v1"
)

var (
	// ErrUnexpectedChar is returned for characters outside the grammar.
	ErrUnexpectedChar = errors.NewKind("unexpected character %q at position %d")
	// ErrUnterminated is returned for strings and quoted identifiers with
	// no closing quote.
	ErrUnterminated = errors.NewKind("unterminated %s starting at position %d")
)

type lexer struct {
	input string
	pos   int
}

// lex tokenizes the whole query string upfront; the parser backtracks by
// index.
func lex(input string) ([]token, error) {
	l := &lexer{input: input}
	var out []token
	for {
		t, err := l.next()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
		if t.typ == tokEOF {
			return out, nil
		}
	}
}

func (l *lexer) next() (token, error) {
	l.skipSpace()
	start := l.pos
	if l.pos >= len(l.input) {
		return token{typ: tokEOF, pos: start}, nil
	}
	c := l.input[l.pos]
	switch {
	case c == ',':
		return l.emit(tokComma, 1)
	case c == '(':
		return l.emit(tokLParen, 1)
	case c == ')':
		return l.emit(tokRParen, 1)
	case c == '*':
		return l.emit(tokStar, 1)
	case c == '+':
		return l.emit(tokPlus, 1)
	case c == '-':
		return l.emit(tokMinus, 1)
	case c == '/':
		return l.emit(tokSlash, 1)
	case c == '=':
		return l.emit(tokEq, 1)
	case c == '!':
		if l.peekAt(1) == '=' {
			return l.emit(tokNe, 2)
		}
		return token{}, ErrUnexpectedChar.New('!', start)
	case c == '<':
		switch l.peekAt(1) {
		case '=':
			return l.emit(tokLe, 2)
		case '>':
			return l.emit(tokNe, 2)
		}
		return l.emit(tokLt, 1)
	case c == '>':
		if l.peekAt(1) == '=' {
			return l.emit(tokGe, 2)
		}
		return l.emit(tokGt, 1)
	case c == '"' || c == '\'':
		return l.quoted(tokString, rune(c), "string")
	case c == '`':
		return l.quoted(tokQuotedIdent, '`', "quoted identifier")
	case c >= '0' && c <= '9' || c == '.':
		return l.number()
	default:
		r, _ := utf8.DecodeRuneInString(l.input[l.pos:])
		if unicode.IsLetter(r) || r == '_' {
			return l.ident()
		}
		return token{}, ErrUnexpectedChar.New(r, start)
	}
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.input) {
		switch l.input[l.pos] {
		case ' ', '\t', '\n', '\r':
			l.pos++
		default:
			return
		}
	}
}

func (l *lexer) peekAt(offset int) byte {
	if l.pos+offset < len(l.input) {
		return l.input[l.pos+offset]
	}
	return 0
}

func (l *lexer) emit(typ tokenType, width int) (token, error) {
	t := token{typ: typ, text: l.input[l.pos : l.pos+width], pos: l.pos}
	l.pos += width
	return t, nil
}

func (l *lexer) quoted(typ tokenType, quote rune, what string) (token, error) {
	start := l.pos
	l.pos++ // opening quote
	end := strings.IndexRune(l.input[l.pos:], quote)
	if end < 0 {
		return token{}, ErrUnterminated.New(what, start)
	}
	t := token{typ: typ, text: l.input[l.pos : l.pos+end], pos: start}
	l.pos += end + 1
	return t, nil
}

func (l *lexer) number() (token, error) {
	start := l.pos
	digits := func() {
		for l.pos < len(l.input) && l.input[l.pos] >= '0' && l.input[l.pos] <= '9' {
			l.pos++
		}
	}
	digits()
	if l.pos < len(l.input) && l.input[l.pos] == '.' {
		l.pos++
		digits()
	}
	if l.input[l.pos-1] == '.' && l.pos-start == 1 {
		return token{}, ErrUnexpectedChar.New('.', start)
	}
	if l.pos < len(l.input) && (l.input[l.pos] == 'e' || l.input[l.pos] == 'E') {
		mark := l.pos
		l.pos++
		if l.pos < len(l.input) && (l.input[l.pos] == '+' || l.input[l.pos] == '-') {
			l.pos++
		}
		before := l.pos
		digits()
		if l.pos == before {
			// not an exponent, e.g. "12exact"; leave it to the next token
			l.pos = mark
		}
	}
	return token{typ: tokNumber, text: l.input[start:l.pos], pos: start}, nil
}

func (l *lexer) ident() (token, error) {
	start := l.pos
	for l.pos < len(l.input) {
		r, size := utf8.DecodeRuneInString(l.input[l.pos:])
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			break
		}
		l.pos += size
	}
	text := l.input[start:l.pos]
	if typ, ok := keywords[strings.ToLower(text)]; ok {
		return token{typ: typ, text: text, pos: start}, nil
	}
	return token{typ: tokIdent, text: text, pos: start}, nil
}
