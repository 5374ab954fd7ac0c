package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprint_StructuralEquality(t *testing.T) {
	a := NewTemplate("q", NewText("SELECT * FROM t"), NewWhere(NewIf("id != null", NewText("AND id = #{id}"))))
	b := NewTemplate("q", NewText("SELECT * FROM t"), NewWhere(NewIf("id != null", NewText("AND id = #{id}"))))
	c := NewTemplate("q", NewText("SELECT * FROM t"), NewWhere(NewIf("id == null", NewText("AND id = #{id}"))))

	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
}

func TestFingerprint_TrimKindsDiffer(t *testing.T) {
	body := NewText("a = 1")
	assert.NotEqual(t, NewWhere(body).Fingerprint(), NewSet(body).Fingerprint())
	assert.NotEqual(t, NewWhere(body).Fingerprint(), NewTrim("WHERE", "AND |OR ", "", "", body).Fingerprint())
}

func TestNewMixed_CopiesAndDropsNil(t *testing.T) {
	children := []Node{NewText("a"), nil, NewText("b")}
	m := NewMixed(children...)
	require.Len(t, m.Children, 2)

	children[0] = NewText("changed")
	assert.Equal(t, "a", m.Children[0].(*Text).Value)
}

func TestParseOverrides(t *testing.T) {
	assert.Equal(t, []string{"AND ", "OR "}, ParseOverrides("and |OR "))
	assert.Nil(t, ParseOverrides(""))
}

func TestForEachWrap_DoesNotMutate(t *testing.T) {
	f := NewForEach("ids", "id", "i", NewText("#{id}"))
	w := f.Wrap("(", ")", ",")

	assert.Empty(t, f.Open)
	assert.Equal(t, "(", w.Open)
	assert.Equal(t, ",", w.Separator)
	assert.NotEqual(t, f.Fingerprint(), w.Fingerprint())
}

func TestWalkAndIsDynamic(t *testing.T) {
	static := NewTemplate("s", NewText("SELECT 1"))
	assert.False(t, IsDynamic(static.Root))

	withPlaceholder := NewTemplate("p", NewText("SELECT * FROM t WHERE id = #{id}"))
	assert.True(t, IsDynamic(withPlaceholder.Root))

	tree := NewTemplate("d",
		NewText("SELECT"),
		NewChoose(NewMixed(NewText("x")), NewWhen("a", NewText("y"))),
		NewForEach("ids", "id", "", NewText("#{id}")),
	)
	assert.True(t, IsDynamic(tree.Root))

	var types []NodeType
	Walk(tree.Root, func(n Node) bool {
		types = append(types, n.Type())
		return true
	})
	assert.Equal(t, []NodeType{NodeMixed, NodeText, NodeChoose, NodeMixed, NodeText, NodeMixed, NodeText, NodeForEach, NodeMixed, NodeText}, types)
}

func TestFingerprint_NilBodies(t *testing.T) {
	var tpl *Template
	require.NotPanics(t, func() {
		tpl = NewTemplate("q",
			NewText("SELECT 1"),
			&If{Test: "a"},
			&Choose{Whens: []When{{Test: "b"}}},
			&ForEach{Collection: "ids"},
			&Trim{Kind: TrimWhere},
		)
	})
	assert.NotZero(t, tpl.Fingerprint())
	assert.NotEqual(t, tpl.Fingerprint(), NewTemplate("q", NewText("SELECT 1")).Fingerprint())
}
