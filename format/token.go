package format

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tkWhitespace tokenKind = iota
	tkWord
	tkString
	tkQuoted
	tkPlaceholder
	tkLineComment
	tkBlockComment
	tkOpenParen
	tkCloseParen
	tkComma
	tkSemicolon
	tkDot
	tkOperator
)

type token struct {
	kind  tokenKind
	value string
	upper string // upper-cased value for words
}

var multiCharOperators = []string{"<=>", "->>", "<>", "<=", ">=", "!=", "||", "::", ":=", "=>", "->", "&&", "<<", ">>"}

// stringPrefixes may be glued to a following quoted string (N'x', E'x', X'ff').
var stringPrefixes = map[string]bool{"N": true, "E": true, "X": true, "B": true}

type tokenizer struct {
	src    string
	pos    int
	quotes string
}

func tokenize(src string, identQuotes string) []token {
	t := &tokenizer{src: src, quotes: identQuotes}
	var out []token
	for t.pos < len(t.src) {
		out = append(out, t.next())
	}
	return out
}

func (t *tokenizer) next() token {
	s, i := t.src, t.pos
	c := s[i]

	switch {
	case isSpace(c):
		j := i
		for j < len(s) && isSpace(s[j]) {
			j++
		}
		return t.emit(tkWhitespace, j)

	case (c == '#' || c == '$') && i+1 < len(s) && s[i+1] == '{':
		j := strings.IndexByte(s[i:], '}')
		if j < 0 {
			return t.emit(tkPlaceholder, len(s))
		}
		return t.emit(tkPlaceholder, i+j+1)

	case c == '-' && i+1 < len(s) && s[i+1] == '-':
		j := strings.IndexByte(s[i:], '\n')
		if j < 0 {
			return t.emit(tkLineComment, len(s))
		}
		return t.emit(tkLineComment, i+j)

	case c == '/' && i+1 < len(s) && s[i+1] == '*':
		j := strings.Index(s[i+2:], "*/")
		if j < 0 {
			return t.emit(tkBlockComment, len(s))
		}
		return t.emit(tkBlockComment, i+2+j+2)

	case c == '\'':
		return t.emit(tkString, scanQuoted(s, i, '\'', '\''))

	case c == '"' || c == '`':
		if strings.IndexByte(t.quotes, c) >= 0 {
			return t.emit(tkQuoted, scanQuoted(s, i, c, c))
		}
		return t.emit(tkString, scanQuoted(s, i, c, c))

	case c == '[' && strings.IndexByte(t.quotes, '[') >= 0:
		return t.emit(tkQuoted, scanQuoted(s, i, '[', ']'))

	case c == '(':
		return t.emit(tkOpenParen, i+1)
	case c == ')':
		return t.emit(tkCloseParen, i+1)
	case c == ',':
		return t.emit(tkComma, i+1)
	case c == ';':
		return t.emit(tkSemicolon, i+1)

	case c == '.' && !(i+1 < len(s) && isDigit(s[i+1])):
		return t.emit(tkDot, i+1)

	case c == ':' && i+1 < len(s) && (isWordStart(s[i+1:]) || isDigit(s[i+1])):
		return t.emit(tkWord, scanWord(s, i+1))

	case isDigit(c) || c == '.':
		return t.emit(tkWord, scanNumber(s, i))

	case isWordStart(s[i:]):
		j := scanWord(s, i)
		if j < len(s) && s[j] == '\'' && stringPrefixes[strings.ToUpper(s[i:j])] {
			j = scanQuoted(s, j, '\'', '\'')
			return t.emit(tkString, j)
		}
		return t.emit(tkWord, j)
	}

	for _, op := range multiCharOperators {
		if strings.HasPrefix(s[i:], op) {
			return t.emit(tkOperator, i+len(op))
		}
	}
	_, size := utf8.DecodeRuneInString(s[i:])
	return t.emit(tkOperator, i+size)
}

func (t *tokenizer) emit(kind tokenKind, end int) token {
	v := t.src[t.pos:end]
	t.pos = end
	tok := token{kind: kind, value: v}
	if kind == tkWord {
		tok.upper = strings.ToUpper(v)
	}
	return tok
}

// scanQuoted returns the index just past the closing quote. A doubled closing
// quote and a backslash escape do not terminate the literal.
func scanQuoted(s string, i int, open, close byte) int {
	for j := i + 1; j < len(s); j++ {
		switch s[j] {
		case '\\':
			if open == '\'' {
				j++
			}
		case close:
			if j+1 < len(s) && s[j+1] == close && open == close {
				j++
				continue
			}
			return j + 1
		}
	}
	return len(s)
}

func scanWord(s string, i int) int {
	for i < len(s) {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == '$' && i+1 < len(s) && s[i+1] == '{' {
			break
		}
		if r == '_' || r == '$' || r == '@' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			i += size
			continue
		}
		break
	}
	return i
}

// scanNumber reads digits, an optional fraction and an optional exponent.
func scanNumber(s string, i int) int {
	start := i
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
		}
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') && i > start {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		if j < len(s) && isDigit(s[j]) {
			i = j
			for i < len(s) && isDigit(s[i]) {
				i++
			}
		}
	}
	for i < len(s) && (s[i] == '_' || unicode.IsLetter(rune(s[i]))) {
		i++
	}
	return i
}

func isWordStart(s string) bool {
	r, _ := utf8.DecodeRuneInString(s)
	return r == '_' || r == '@' || r == '$' || unicode.IsLetter(r)
}

func isSpace(c byte) bool { return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' }
func isDigit(c byte) bool { return c >= '0' && c <= '9' }
