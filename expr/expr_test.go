package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapScope map[string]any

func (m mapScope) Lookup(name string) (any, bool) {
	v, ok := m[name]
	return v, ok
}

func TestNormalize(t *testing.T) {
	loop := func(name string) bool { return name == "item" }

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "name != null", "name != null"},
		{"table prefix", "t.name != null", "name != null"},
		{"deep prefix", "a.b.c > 1", "c > 1"},
		{"loop root kept", "item.id != null", "item.id != null"},
		{"method keeps receiver", "t.ids.size() > 0", "ids.size() > 0"},
		{"length alias", "name.length() > 0", "name.size() > 0"},
		{"word operators", "a != null and b gt 1 or not c", "a != null && b > 1 || ! c"},
		{"string untouched", "name == 'a.b and c'", "name == 'a.b and c'"},
		{"double quoted", `name == "t.x"`, `name == "t.x"`},
		{"float literal", "score >= 1.5", "score >= 1.5"},
		{"global func", "size(ids) > 0", "size(ids) > 0"},
		{"isEmpty keeps receiver", "!t.ids.isEmpty()", "!ids.isEmpty()"},
		{"size property", "t.ids.size > 0", `ids.sizeProperty("size") > 0`},
		{"length property on loop local", "item.name.length > 1", `item.name.sizeProperty("length") > 1`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in, loop))
		})
	}
}

func TestCompileAndEval(t *testing.T) {
	scope := mapScope{
		"name":  "alice",
		"age":   30,
		"ids":   []int{1, 2, 3},
		"empty": []string{},
		"user":  map[string]any{"id": 7},
		"score": 2.5,
		"page":  map[string]any{"current": 1, "size": 20},
	}

	tests := []struct {
		expr string
		want any
	}{
		{"name != null", true},
		{"missing == null", true},
		{"missing != null", false},
		{"age > 18", true},
		{"score > 2", true},
		{"ids.size() > 2", true},
		{"empty.size() == 0", true},
		{"user.id == 7", true},
		{"name.startsWith('al')", true},
		{"name + '!'", "alice!"},
		{"ids.isEmpty()", false},
		{"empty.isEmpty()", true},
		{"name.isEmpty()", false},
		{"missing != null && !missing.isEmpty()", false},
		{`ids.sizeProperty("size") == 3`, true},
		{`name.sizeProperty("length") == 5`, true},
		{`page.sizeProperty("size") == 20`, true},
		{`user.sizeProperty("size") == 1`, true},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			p, err := Compile(tt.expr)
			require.NoError(t, err)
			got, err := p.Eval(scope)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEval_NativeCollections(t *testing.T) {
	p, err := Compile("[1, 2]")
	require.NoError(t, err)
	got, err := p.Eval(mapScope{})
	require.NoError(t, err)
	assert.Equal(t, []any{int64(1), int64(2)}, got)

	p, err = Compile("missing")
	require.NoError(t, err)
	got, err = p.Eval(mapScope{})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCompile_Errors(t *testing.T) {
	_, err := Compile("name ==")
	assert.Error(t, err)

	_, err = Compile("  ")
	assert.Error(t, err)
}

func TestEval_MemberOfMissingFails(t *testing.T) {
	p, err := Compile("user.name == 'x'")
	require.NoError(t, err)
	_, err = p.Eval(mapScope{})
	assert.Error(t, err)
}

func TestTruthy(t *testing.T) {
	var nilPtr *int
	one := 1

	assert.False(t, Truthy(nil))
	assert.False(t, Truthy(false))
	assert.False(t, Truthy(0))
	assert.False(t, Truthy(int64(0)))
	assert.False(t, Truthy(0.0))
	assert.False(t, Truthy(""))
	assert.False(t, Truthy([]int{}))
	assert.False(t, Truthy(map[string]any{}))
	assert.False(t, Truthy(nilPtr))

	assert.True(t, Truthy(true))
	assert.True(t, Truthy(uint8(3)))
	assert.True(t, Truthy(-1.5))
	assert.True(t, Truthy("x"))
	assert.True(t, Truthy([]int{1}))
	assert.True(t, Truthy(&one))
	assert.True(t, Truthy(struct{}{}))
}
