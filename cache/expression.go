package cache

import (
	"sync"
	"sync/atomic"

	"github.com/Konsultn-Engineering/dynsql/apperrors"
	"github.com/Konsultn-Engineering/dynsql/expr"
)

// Scope is what the expression cache needs from a binding environment: name
// lookup plus the set of loop-local names that must survive normalization.
type Scope interface {
	expr.Scope
	IsLocal(name string) bool
}

type exprEntry struct {
	once sync.Once
	prg  *expr.Program
	err  error
}

// ExpressionCache memoizes compiled expressions by normalized text. Entries are
// published with LoadOrStore and compiled under their own sync.Once, so a key is
// compiled at most once and readers never see a half-built program. It never
// evicts.
type ExpressionCache struct {
	entries  sync.Map // string -> *exprEntry
	compiles atomic.Int64
	hits     atomic.Int64
}

func NewExpressionCache() *ExpressionCache {
	return &ExpressionCache{}
}

var (
	defaultOnce  sync.Once
	defaultCache *ExpressionCache
)

// Default returns the process-wide cache.
func Default() *ExpressionCache {
	defaultOnce.Do(func() {
		defaultCache = NewExpressionCache()
	})
	return defaultCache
}

// Program returns the compiled form of an already normalized expression.
func (c *ExpressionCache) Program(normalized string) (*expr.Program, error) {
	if v, ok := c.entries.Load(normalized); ok {
		c.hits.Add(1)
		e := v.(*exprEntry)
		e.once.Do(func() { c.compile(e, normalized) })
		return e.prg, e.err
	}

	v, loaded := c.entries.LoadOrStore(normalized, &exprEntry{})
	if loaded {
		c.hits.Add(1)
	}
	e := v.(*exprEntry)
	e.once.Do(func() { c.compile(e, normalized) })
	return e.prg, e.err
}

func (c *ExpressionCache) compile(e *exprEntry, normalized string) {
	c.compiles.Add(1)
	e.prg, e.err = expr.Compile(normalized)
}

// Eval normalizes raw against the scope's loop-local names, compiles it through
// the cache and evaluates it. Failures are reported as *apperrors.ExpressionError
// carrying the raw expression text.
func (c *ExpressionCache) Eval(raw string, scope Scope) (any, error) {
	normalized := expr.Normalize(raw, scope.IsLocal)
	prg, err := c.Program(normalized)
	if err != nil {
		return nil, &apperrors.ExpressionError{Expr: raw, Err: err}
	}
	v, err := prg.Eval(scope)
	if err != nil {
		return nil, &apperrors.ExpressionError{Expr: raw, Err: err}
	}
	return v, nil
}

// EvalBool evaluates raw and applies guard truthiness.
func (c *ExpressionCache) EvalBool(raw string, scope Scope) (bool, error) {
	v, err := c.Eval(raw, scope)
	if err != nil {
		return false, err
	}
	return expr.Truthy(v), nil
}

// Compiles reports how many compilations have run.
func (c *ExpressionCache) Compiles() int64 { return c.compiles.Load() }

// Hits reports how many lookups found an existing entry.
func (c *ExpressionCache) Hits() int64 { return c.hits.Load() }

func (c *ExpressionCache) Len() int {
	n := 0
	c.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
