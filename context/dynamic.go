package context

import (
	"reflect"
	"strconv"
	"sort"
	"strings"
)

// LoopPrefix starts every root binding generated for a loop-local placeholder.
const LoopPrefix = "__frch_"

// LoopBinding names the root binding that replaces loop-local name in iteration
// uniq.
func LoopBinding(name string, uniq int) string {
	return LoopPrefix + name + "_" + strconv.Itoa(uniq)
}

// DynamicContext is the binding environment of one resolution: a root binding
// map, a stack of loop scopes and the running SQL buffer. It is not safe for
// concurrent use and must not outlive the resolution that created it.
type DynamicContext struct {
	root   map[string]any
	scopes []map[string]any
	buf    *strings.Builder
	uniq   int
}

// NewDynamicContext seeds the root scope with a copy of bindings.
func NewDynamicContext(bindings map[string]any) *DynamicContext {
	root := make(map[string]any, len(bindings)+4)
	for k, v := range bindings {
		root[k] = v
	}
	return &DynamicContext{root: root, buf: &strings.Builder{}}
}

// AppendSQL adds a fragment to the buffer. Fragments are trimmed and joined by
// a single space; blank fragments are dropped.
func (c *DynamicContext) AppendSQL(fragment string) {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return
	}
	if c.buf.Len() > 0 {
		c.buf.WriteByte(' ')
	}
	c.buf.WriteString(fragment)
}

func (c *DynamicContext) SQL() string { return c.buf.String() }

// Capture runs fn against an empty buffer and returns what it appended. The
// outer buffer is restored afterwards whether or not fn fails.
func (c *DynamicContext) Capture(fn func() error) (string, error) {
	outer := c.buf
	c.buf = &strings.Builder{}
	defer func() { c.buf = outer }()

	if err := fn(); err != nil {
		return "", err
	}
	return c.buf.String(), nil
}

// Lookup resolves a bare name, innermost scope first.
func (c *DynamicContext) Lookup(name string) (any, bool) {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if v, ok := c.scopes[i][name]; ok {
			return v, true
		}
	}
	v, ok := c.root[name]
	return v, ok
}

// LookupPath resolves a dotted path by looking up its first segment and
// descending through maps for the rest.
func (c *DynamicContext) LookupPath(path string) (any, bool) {
	segs := strings.Split(path, ".")
	v, ok := c.Lookup(segs[0])
	if !ok {
		return nil, false
	}
	for _, s := range segs[1:] {
		if v, ok = member(v, s); !ok {
			return nil, false
		}
	}
	return v, true
}

func member(v any, name string) (any, bool) {
	switch m := v.(type) {
	case map[string]any:
		r, ok := m[name]
		return r, ok
	case nil:
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String {
		r := rv.MapIndex(reflect.ValueOf(name).Convert(rv.Type().Key()))
		if !r.IsValid() {
			return nil, false
		}
		return r.Interface(), true
	}
	return nil, false
}

// IsLocal reports whether name is bound in any active loop scope.
func (c *DynamicContext) IsLocal(name string) bool {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if _, ok := c.scopes[i][name]; ok {
			return true
		}
	}
	return false
}

// Bind stores a value in the innermost scope, or the root outside loops.
func (c *DynamicContext) Bind(name string, value any) {
	if n := len(c.scopes); n > 0 {
		c.scopes[n-1][name] = value
		return
	}
	c.root[name] = value
}

// BindRoot stores a value in the root scope regardless of nesting.
func (c *DynamicContext) BindRoot(name string, value any) {
	c.root[name] = value
}

// Push opens a loop scope holding locals. Each call must be paired with Pop.
func (c *DynamicContext) Push(locals map[string]any) {
	scope := make(map[string]any, len(locals)+2)
	for k, v := range locals {
		scope[k] = v
	}
	c.scopes = append(c.scopes, scope)
}

func (c *DynamicContext) Pop() {
	if n := len(c.scopes); n > 0 {
		c.scopes[n-1] = nil
		c.scopes = c.scopes[:n-1]
	}
}

func (c *DynamicContext) Depth() int { return len(c.scopes) }

// Locals returns the names bound in the innermost scope, longest first so
// callers can rewrite them without a shorter name matching a longer one's
// prefix.
func (c *DynamicContext) Locals() []string {
	n := len(c.scopes)
	if n == 0 {
		return nil
	}
	names := make([]string, 0, len(c.scopes[n-1]))
	for k := range c.scopes[n-1] {
		names = append(names, k)
	}
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})
	return names
}

// NextUnique returns a counter value unique within this context.
func (c *DynamicContext) NextUnique() int {
	n := c.uniq
	c.uniq++
	return n
}

// Bindings returns a copy of the root scope.
func (c *DynamicContext) Bindings() map[string]any {
	out := make(map[string]any, len(c.root))
	for k, v := range c.root {
		out[k] = v
	}
	return out
}
