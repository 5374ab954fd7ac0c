package format

import (
	"strings"
)

// Rules carry the dialect-specific parts of formatting.
type Rules struct {
	Name string
	// IdentQuotes lists the characters that open a quoted identifier: any of
	// `"`, "`" and "[". Other quote characters delimit strings.
	IdentQuotes string
	// TopLevel, TopLevelNoIndent and Newline extend the standard clause
	// keywords. Multi-word keywords are written with single spaces.
	TopLevel         []string
	TopLevelNoIndent []string
	Newline          []string
}

// Options control layout.
type Options struct {
	Indent              string
	LinesBetweenQueries int
	Uppercase           bool
}

func DefaultOptions() Options {
	return Options{Indent: "  ", LinesBetweenQueries: 1}
}

var (
	topLevelWords = []string{
		"SELECT", "FROM", "WHERE", "SET", "GROUP BY", "ORDER BY", "HAVING", "LIMIT", "OFFSET",
		"VALUES", "INSERT INTO", "INSERT IGNORE INTO", "REPLACE INTO", "UPDATE", "DELETE FROM",
		"RETURNING", "WITH", "WINDOW", "FOR UPDATE", "FETCH FIRST", "FETCH NEXT", "PARTITION BY",
	}
	topLevelNoIndentWords = []string{"UNION", "UNION ALL", "UNION DISTINCT", "EXCEPT", "INTERSECT"}
	newlineWords          = []string{
		"AND", "OR", "XOR",
		"JOIN", "INNER JOIN", "CROSS JOIN", "NATURAL JOIN", "STRAIGHT_JOIN",
		"LEFT JOIN", "LEFT OUTER JOIN", "RIGHT JOIN", "RIGHT OUTER JOIN",
		"FULL JOIN", "FULL OUTER JOIN", "CROSS APPLY", "OUTER APPLY",
	}
)

type wordClass int

const (
	plainWord wordClass = iota
	topLevelWord
	topLevelNoIndentWord
	newlineWord
)

// keywordSet maps every keyword to its class and records, for each first word,
// the longest keyword it can start.
type keywordSet struct {
	class   map[string]wordClass
	maxSpan map[string]int
}

func newKeywordSet(r Rules) *keywordSet {
	ks := &keywordSet{class: map[string]wordClass{}, maxSpan: map[string]int{}}
	add := func(words []string, c wordClass) {
		for _, w := range words {
			w = strings.ToUpper(strings.Join(strings.Fields(w), " "))
			if w == "" {
				continue
			}
			ks.class[w] = c
			parts := strings.Fields(w)
			if len(parts) > ks.maxSpan[parts[0]] {
				ks.maxSpan[parts[0]] = len(parts)
			}
		}
	}
	add(topLevelWords, topLevelWord)
	add(r.TopLevel, topLevelWord)
	add(topLevelNoIndentWords, topLevelNoIndentWord)
	add(r.TopLevelNoIndent, topLevelNoIndentWord)
	add(newlineWords, newlineWord)
	add(r.Newline, newlineWord)
	return ks
}

// Format pretty-prints sql. Only whitespace between tokens changes: clause
// keywords start their own line with the clause body indented below them,
// AND/OR and joins start new lines, commas outside parentheses break lines and
// parenthesized subqueries are indented. Literals, quoted identifiers, comments
// and #{}/${} placeholders are copied verbatim.
func Format(sql string, rules Rules, opts Options) string {
	if opts.Indent == "" {
		opts.Indent = "  "
	}
	if opts.LinesBetweenQueries < 0 {
		opts.LinesBetweenQueries = 0
	}
	ks := newKeywordSet(rules)
	toks := mergeKeywords(tokenize(sql, rules.IdentQuotes), ks)

	p := &printer{opts: opts, ks: ks}
	for i, tok := range toks {
		p.write(toks, i, tok)
	}
	return strings.TrimRight(string(p.out), " \t\n")
}

// mergeKeywords joins multi-word keywords separated only by whitespace into a
// single word token, longest match first.
func mergeKeywords(toks []token, ks *keywordSet) []token {
	out := make([]token, 0, len(toks))
	for i := 0; i < len(toks); i++ {
		tok := toks[i]
		span := ks.maxSpan[tok.upper]
		if tok.kind != tkWord || span < 2 {
			out = append(out, tok)
			continue
		}

		var (
			words   = []string{tok.value}
			uppers  = []string{tok.upper}
			bestLen = 0
			bestEnd = i
			j       = i
		)
		for len(words) < span {
			k := j + 1
			for k < len(toks) && toks[k].kind == tkWhitespace {
				k++
			}
			if k >= len(toks) || toks[k].kind != tkWord {
				break
			}
			words = append(words, toks[k].value)
			uppers = append(uppers, toks[k].upper)
			j = k
			if _, ok := ks.class[strings.Join(uppers, " ")]; ok {
				bestLen, bestEnd = len(words), j
			}
		}
		if bestLen == 0 {
			out = append(out, tok)
			continue
		}
		out = append(out, token{
			kind:  tkWord,
			value: strings.Join(words[:bestLen], " "),
			upper: strings.Join(uppers[:bestLen], " "),
		})
		i = bestEnd
	}
	return out
}

type printer struct {
	opts Options
	ks   *keywordSet
	out  []byte

	// levels holds one entry per indentation step: true for a parenthesized
	// block, false for a clause body.
	levels []bool
	// parens records, per open parenthesis, whether it opened a block.
	parens  []bool
	inline  int
	lastTop string
	between bool
}

func (p *printer) write(toks []token, i int, tok token) {
	switch tok.kind {
	case tkWhitespace:
		return
	case tkLineComment:
		p.add(tok.value)
		p.newline()
		return
	case tkBlockComment:
		p.newline()
		p.add(tok.value)
		p.newline()
		return
	case tkOpenParen:
		p.openParen(toks, i)
		return
	case tkCloseParen:
		p.closeParen()
		return
	case tkComma:
		p.trimSpaces()
		p.add(", ")
		if p.inline == 0 && p.lastTop != "LIMIT" {
			p.newline()
		}
		return
	case tkSemicolon:
		p.trimSpaces()
		p.add(";")
		p.levels, p.parens, p.inline, p.lastTop = nil, nil, 0, ""
		p.out = append(p.out, '\n')
		for n := 0; n < p.opts.LinesBetweenQueries; n++ {
			p.out = append(p.out, '\n')
		}
		return
	case tkDot:
		p.trimSpaces()
		p.add(".")
		return
	case tkWord:
		p.word(tok)
		return
	}
	p.add(tok.value + " ")
}

func (p *printer) word(tok token) {
	class := p.ks.class[tok.upper]
	if p.inline > 0 {
		class = plainWord
	}
	value := tok.value
	if p.opts.Uppercase && (class != plainWord || isReserved(tok.upper)) {
		value = tok.upper
	}

	switch tok.upper {
	case "BETWEEN":
		p.between = true
	case "AND":
		if p.between {
			p.between = false
			p.add(value + " ")
			return
		}
	}

	switch class {
	case topLevelWord:
		p.popClause()
		p.newline()
		p.add(value)
		p.levels = append(p.levels, false)
		p.newline()
		p.lastTop = tok.upper
	case topLevelNoIndentWord:
		p.popClause()
		p.newline()
		p.add(value)
		p.newline()
		p.lastTop = tok.upper
	case newlineWord:
		p.newline()
		p.add(value + " ")
	default:
		p.add(value + " ")
	}
}

func (p *printer) openParen(toks []token, i int) {
	if i > 0 && toks[i-1].kind != tkWhitespace {
		p.trimSpaces()
	}
	p.add("(")

	block := p.inline == 0 && startsSubquery(toks, i+1)
	p.parens = append(p.parens, block)
	if block {
		p.levels = append(p.levels, true)
		p.newline()
		return
	}
	p.inline++
}

func (p *printer) closeParen() {
	if len(p.parens) == 0 {
		p.trimSpaces()
		p.add(") ")
		return
	}
	block := p.parens[len(p.parens)-1]
	p.parens = p.parens[:len(p.parens)-1]
	if !block {
		p.inline--
		p.trimSpaces()
		p.add(") ")
		return
	}
	for len(p.levels) > 0 {
		last := p.levels[len(p.levels)-1]
		p.levels = p.levels[:len(p.levels)-1]
		if last {
			break
		}
	}
	p.newline()
	p.add(") ")
}

// popClause leaves the current clause body, staying inside any open block.
func (p *printer) popClause() {
	if n := len(p.levels); n > 0 && !p.levels[n-1] {
		p.levels = p.levels[:n-1]
	}
}

func startsSubquery(toks []token, i int) bool {
	for ; i < len(toks); i++ {
		switch toks[i].kind {
		case tkWhitespace, tkLineComment, tkBlockComment:
			continue
		case tkWord:
			return toks[i].upper == "SELECT" || toks[i].upper == "WITH"
		default:
			return false
		}
	}
	return false
}

func (p *printer) add(s string) { p.out = append(p.out, s...) }

func (p *printer) trimSpaces() {
	for len(p.out) > 0 {
		c := p.out[len(p.out)-1]
		if c != ' ' && c != '\t' {
			return
		}
		p.out = p.out[:len(p.out)-1]
	}
}

func (p *printer) newline() {
	p.trimSpaces()
	if len(p.out) > 0 && p.out[len(p.out)-1] != '\n' {
		p.out = append(p.out, '\n')
	}
	for range p.levels {
		p.out = append(p.out, p.opts.Indent...)
	}
}

var reserved = map[string]bool{
	"AS": true, "ON": true, "IN": true, "IS": true, "NOT": true, "NULL": true, "LIKE": true,
	"BETWEEN": true, "CASE": true, "WHEN": true, "THEN": true, "ELSE": true, "END": true,
	"DISTINCT": true, "ASC": true, "DESC": true, "EXISTS": true, "ALL": true, "ANY": true,
	"INTO": true, "BY": true, "TRUE": true, "FALSE": true, "COUNT": true, "SUM": true,
	"MIN": true, "MAX": true, "AVG": true, "COALESCE": true, "INTERVAL": true, "USING": true,
}

func isReserved(upper string) bool { return reserved[upper] }
