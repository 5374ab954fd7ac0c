package cache

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Konsultn-Engineering/dynsql/apperrors"
	"github.com/Konsultn-Engineering/dynsql/ast"
)

type testScope struct {
	vars   map[string]any
	locals map[string]bool
}

func (s testScope) Lookup(name string) (any, bool) {
	v, ok := s.vars[name]
	return v, ok
}

func (s testScope) IsLocal(name string) bool { return s.locals[name] }

func scope(vars map[string]any) testScope { return testScope{vars: vars} }

// ==========================
// Expression cache
// ==========================

func TestExpressionCache_CompilesOnce(t *testing.T) {
	c := NewExpressionCache()
	s := scope(map[string]any{"id": 5})

	v1, err := c.Eval("id != null", s)
	require.NoError(t, err)
	v2, err := c.Eval("id != null", s)
	require.NoError(t, err)

	assert.Equal(t, v1, v2)
	assert.Equal(t, int64(1), c.Compiles())
	assert.Equal(t, int64(1), c.Hits())
}

func TestExpressionCache_PrefixesShareEntry(t *testing.T) {
	c := NewExpressionCache()
	s := scope(map[string]any{"name": "a"})

	_, err := c.Eval("t.name != null", s)
	require.NoError(t, err)
	_, err = c.Eval("name != null", s)
	require.NoError(t, err)

	assert.Equal(t, int64(1), c.Compiles())
	assert.Equal(t, 1, c.Len())
}

func TestExpressionCache_TwoInstancesAgree(t *testing.T) {
	s := scope(map[string]any{"age": 20})
	a, err := NewExpressionCache().EvalBool("age >= 18", s)
	require.NoError(t, err)
	b, err := NewExpressionCache().EvalBool("age >= 18", s)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.True(t, a)
}

func TestExpressionCache_Concurrent(t *testing.T) {
	c := NewExpressionCache()
	s := scope(map[string]any{"ids": []int{1, 2, 3}})

	const workers = 32
	var wg sync.WaitGroup
	results := make([]any, workers)
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = c.Eval("ids.size() > 2", s)
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, true, results[i])
	}
	assert.Equal(t, int64(1), c.Compiles())
}

func TestExpressionCache_ErrorsCarryExpression(t *testing.T) {
	c := NewExpressionCache()

	_, err := c.Eval("name ==", scope(nil))
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrExpressionEvaluation))
	assert.Contains(t, err.Error(), "error evaluating expression 'name =='")

	// failed compilations are cached too
	_, err = c.Eval("name ==", scope(nil))
	require.Error(t, err)
	assert.Equal(t, int64(1), c.Compiles())
}

func TestExpressionCache_LoopLocalsKeepPrefix(t *testing.T) {
	c := NewExpressionCache()
	s := testScope{
		vars:   map[string]any{"item": map[string]any{"id": 3}, "id": 9},
		locals: map[string]bool{"item": true},
	}

	v, err := c.Eval("item.id", s)
	require.NoError(t, err)
	assert.Equal(t, int64(3), v)
}

func TestDefault_IsShared(t *testing.T) {
	assert.Same(t, Default(), Default())
}

// ==========================
// Template and query caches
// ==========================

func TestTemplateCache_GetOrParse(t *testing.T) {
	tc, err := NewTemplateCache(2)
	require.NoError(t, err)

	parses := 0
	parse := func(s string) (*ast.Template, error) {
		parses++
		return ast.NewTemplate("", ast.NewText(s)), nil
	}

	first, hit, err := tc.GetOrParse("SELECT 1", parse)
	require.NoError(t, err)
	assert.False(t, hit)

	second, hit, err := tc.GetOrParse("SELECT 1", parse)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Same(t, first, second)
	assert.Equal(t, 1, parses)

	_, _, _ = tc.GetOrParse("SELECT 2", parse)
	_, _, _ = tc.GetOrParse("SELECT 3", parse)
	assert.Equal(t, 2, tc.Len())
	_, ok := tc.Get("SELECT 1")
	assert.False(t, ok)
}

func TestTemplateCache_ParseErrorNotCached(t *testing.T) {
	tc, err := NewTemplateCache(0)
	require.NoError(t, err)

	boom := errors.New("boom")
	_, _, err = tc.GetOrParse("<if>", func(string) (*ast.Template, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, tc.Len())
}

func TestTemplateCache_FingerprintCollision(t *testing.T) {
	orig := templateKey
	templateKey = func(string) uint64 { return 1 }
	t.Cleanup(func() { templateKey = orig })

	tc, err := NewTemplateCache(4)
	require.NoError(t, err)
	parse := func(s string) (*ast.Template, error) { return ast.NewTemplate(s, ast.NewText(s)), nil }

	a, _, err := tc.GetOrParse("SELECT 1", parse)
	require.NoError(t, err)
	b, hit, err := tc.GetOrParse("SELECT 2", parse)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "SELECT 1", a.ID)
	assert.Equal(t, "SELECT 2", b.ID)

	_, ok := tc.Get("SELECT 1")
	assert.False(t, ok)
	got, ok := tc.Get("SELECT 2")
	require.True(t, ok)
	assert.Same(t, b, got)
}

func TestQueryCache(t *testing.T) {
	qc := NewQueryCache()
	key := QueryKey(42, "mysql")
	assert.NotEqual(t, key, QueryKey(42, "oracle"))

	_, ok := qc.GetSQL(key)
	assert.False(t, ok)

	qc.SetSQL(key, &CachedQuery{SQL: "SELECT 1", Dialect: "mysql"})
	q, ok := qc.GetSQL(key)
	require.True(t, ok)
	assert.Equal(t, "SELECT 1", q.SQL)
}
