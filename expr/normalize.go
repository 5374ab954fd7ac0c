package expr

import "strings"

var wordOperators = map[string]string{
	"and": "&&",
	"or":  "||",
	"not": "!",
	"eq":  "==",
	"neq": "!=",
	"lt":  "<",
	"gt":  ">",
	"lte": "<=",
	"gte": ">=",
}

var methodAliases = map[string]string{
	"length": "size",
}

// sizeProperties are read without parentheses in templates ("ids.size > 0").
var sizeProperties = map[string]bool{
	"size":   true,
	"length": true,
}

// Normalize rewrites a directive expression into its canonical cached form.
//
// Leading table-style prefixes are removed from dotted identifier chains, so
// "u.name" and "name" share one entry. Chains rooted at a name for which local
// returns true are kept whole, and a chain ending in a method call keeps its
// receiver ("t.ids.size()" becomes "ids.size()"). A trailing size or length
// property becomes a sizeProperty call on its receiver, which prefers a map
// entry of that name. Word operators are replaced by their symbolic form. String and numeric literals are copied untouched.
func Normalize(raw string, local func(string) bool) string {
	var b strings.Builder
	b.Grow(len(raw))

	for i := 0; i < len(raw); {
		c := raw[i]
		switch {
		case c == '\'' || c == '"':
			j := skipString(raw, i)
			b.WriteString(raw[i:j])
			i = j
		case isDigit(c):
			j := i + 1
			for j < len(raw) && (isIdentPart(raw[j]) || raw[j] == '.') {
				j++
			}
			b.WriteString(raw[i:j])
			i = j
		case isIdentStart(c):
			segs, j := scanChain(raw, i)
			b.WriteString(rewriteChain(segs, isCall(raw, j), local))
			i = j
		default:
			b.WriteByte(c)
			i++
		}
	}
	return strings.TrimSpace(b.String())
}

func rewriteChain(segs []string, call bool, local func(string) bool) string {
	last := len(segs) - 1
	if call {
		if alias, ok := methodAliases[segs[last]]; ok && last > 0 {
			segs[last] = alias
		}
	}

	if last == 0 {
		if op, ok := wordOperators[segs[0]]; ok && (!call || segs[0] == "not") {
			return op
		}
		return segs[0]
	}

	if !call && sizeProperties[segs[last]] {
		recv := segs[last-1]
		if local != nil && local(segs[0]) {
			recv = strings.Join(segs[:last], ".")
		}
		return recv + `.sizeProperty("` + segs[last] + `")`
	}
	if local != nil && local(segs[0]) {
		return strings.Join(segs, ".")
	}
	if call {
		return segs[last-1] + "." + segs[last]
	}
	return segs[last]
}

func scanChain(s string, i int) ([]string, int) {
	var segs []string
	for {
		j := i
		for j < len(s) && isIdentPart(s[j]) {
			j++
		}
		segs = append(segs, s[i:j])
		if j+1 < len(s) && s[j] == '.' && isIdentStart(s[j+1]) {
			i = j + 1
			continue
		}
		return segs, j
	}
}

func isCall(s string, i int) bool {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	return i < len(s) && s[i] == '('
}

func skipString(s string, i int) int {
	q := s[i]
	for j := i + 1; j < len(s); j++ {
		switch s[j] {
		case '\\':
			j++
		case q:
			return j + 1
		}
	}
	return len(s)
}

func isDigit(c byte) bool      { return c >= '0' && c <= '9' }
func isIdentStart(c byte) bool { return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' }
func isIdentPart(c byte) bool  { return isIdentStart(c) || isDigit(c) }
