package format

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var std = Rules{Name: "standard", IdentQuotes: `"`}

func TestFormat(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "clauses and conditions",
			in:   "SELECT id, name FROM users WHERE id = 1 AND name = 'x'",
			want: "SELECT\n  id,\n  name\nFROM\n  users\nWHERE\n  id = 1\n  AND name = 'x'",
		},
		{
			name: "subquery",
			in:   "SELECT * FROM t WHERE id IN (SELECT id FROM u)",
			want: "SELECT\n  *\nFROM\n  t\nWHERE\n  id IN (\n    SELECT\n      id\n    FROM\n      u\n  )",
		},
		{
			name: "between keeps its and",
			in:   "SELECT a FROM t WHERE a BETWEEN 1 AND 5 AND b = 2",
			want: "SELECT\n  a\nFROM\n  t\nWHERE\n  a BETWEEN 1 AND 5\n  AND b = 2",
		},
		{
			name: "inline parens",
			in:   "SELECT a FROM t WHERE (a = 1 OR b = 2) AND c = 3",
			want: "SELECT\n  a\nFROM\n  t\nWHERE\n  (a = 1 OR b = 2)\n  AND c = 3",
		},
		{
			name: "placeholders and literals verbatim",
			in:   "SELECT * FROM t WHERE name = #{name} AND note = 'a  ,  b'",
			want: "SELECT\n  *\nFROM\n  t\nWHERE\n  name = #{name}\n  AND note = 'a  ,  b'",
		},
		{
			name: "multi word keywords",
			in:   "select a from t left   join u on t.id=u.id order\n by a",
			want: "select\n  a\nfrom\n  t\n  left join u on t.id = u.id\norder by\n  a",
		},
		{
			name: "statements separated",
			in:   "SELECT 1; SELECT 2",
			want: "SELECT\n  1;\n\nSELECT\n  2",
		},
		{
			name: "line comment",
			in:   "SELECT a -- note\nFROM t",
			want: "SELECT\n  a -- note\nFROM\n  t",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Format(tt.in, std, DefaultOptions()))
		})
	}
}

func TestFormat_Uppercase(t *testing.T) {
	opts := DefaultOptions()
	opts.Uppercase = true
	got := Format("select count(*), max(age) from users limit 10, 20", std, opts)
	assert.Equal(t, "SELECT\n  COUNT(*),\n  MAX(age)\nFROM\n  users\nLIMIT\n  10, 20", got)
}

func TestFormat_QuotedIdentifiers(t *testing.T) {
	mysql := Rules{Name: "mysql", IdentQuotes: "`"}
	got := Format("SELECT `order`, `from` FROM t", mysql, DefaultOptions())
	assert.Equal(t, "SELECT\n  `order`,\n  `from`\nFROM\n  t", got)
}

func TestFormat_DialectKeywords(t *testing.T) {
	oracle := Rules{Name: "oracle", TopLevel: []string{"CONNECT BY", "START WITH"}}
	got := Format("SELECT a FROM t CONNECT BY prior id = pid", oracle, DefaultOptions())
	assert.Equal(t, "SELECT\n  a\nFROM\n  t\nCONNECT BY\n  prior id = pid", got)
}

func TestFormat_OnlyWhitespaceChanges(t *testing.T) {
	inputs := []string{
		"SELECT id, name FROM users WHERE id IN (SELECT uid FROM roles WHERE r = 'a b') ORDER BY name",
		"UPDATE users SET name = #{name}, age = ${age} WHERE id = :id",
		"INSERT INTO t (a, b) VALUES (1, 'x'), (2, N'y')",
		"SELECT a FROM x UNION ALL SELECT b FROM y",
	}
	squash := func(s string) string { return strings.Join(strings.Fields(s), "") }
	for _, in := range inputs {
		out := Format(in, std, DefaultOptions())
		require.Equal(t, squash(in), squash(out), in)
		assert.Equal(t, out, Format(out, std, DefaultOptions()), "formatting is stable")
	}
}

func TestTokenize(t *testing.T) {
	toks := tokenize("a.b >= .5 AND x::int = :p -- c", `"`)
	var kinds []tokenKind
	for _, tk := range toks {
		if tk.kind != tkWhitespace {
			kinds = append(kinds, tk.kind)
		}
	}
	assert.Equal(t, []tokenKind{
		tkWord, tkDot, tkWord, tkOperator, tkWord, tkWord,
		tkWord, tkOperator, tkWord, tkOperator, tkWord, tkLineComment,
	}, kinds)
}
