package visitor

import (
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/Konsultn-Engineering/dynsql/apperrors"
	"github.com/Konsultn-Engineering/dynsql/ast"
	"github.com/Konsultn-Engineering/dynsql/cache"
	"github.com/Konsultn-Engineering/dynsql/context"
	"github.com/Konsultn-Engineering/dynsql/schema"
)

// Applier renders template nodes into a DynamicContext. It holds no per-call
// state and may be shared between goroutines.
type Applier struct {
	exprs  *cache.ExpressionCache
	logger *zap.Logger
}

func NewApplier(exprs *cache.ExpressionCache, logger *zap.Logger) *Applier {
	if exprs == nil {
		exprs = cache.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Applier{exprs: exprs, logger: logger}
}

// Build applies the template to a fresh context seeded with bindings and
// returns that context.
func (a *Applier) Build(tpl *ast.Template, bindings map[string]any) (*context.DynamicContext, error) {
	ctx := context.NewDynamicContext(bindings)
	if err := a.Apply(tpl.Root, ctx); err != nil {
		return nil, err
	}
	return ctx, nil
}

// Apply renders n into ctx. Directive expressions that fail to evaluate abort
// the whole apply with an *apperrors.ExpressionError.
func (a *Applier) Apply(n ast.Node, ctx *context.DynamicContext) error {
	switch v := n.(type) {
	case nil:
		return nil
	case *ast.Text:
		ctx.AppendSQL(v.Value)
		return nil
	case *ast.Mixed:
		for _, c := range v.Children {
			if err := a.Apply(c, ctx); err != nil {
				return err
			}
		}
		return nil
	case *ast.If:
		ok, err := a.exprs.EvalBool(v.Test, ctx)
		if err != nil || !ok {
			return err
		}
		return a.Apply(v.Body, ctx)
	case *ast.Choose:
		return a.applyChoose(v, ctx)
	case *ast.ForEach:
		return a.applyForEach(v, ctx)
	case *ast.Trim:
		return a.applyTrim(v, ctx)
	case *ast.Bind:
		val, err := a.exprs.Eval(v.Value, ctx)
		if err != nil {
			return err
		}
		ctx.Bind(v.Name, val)
		return nil
	default:
		return fmt.Errorf("unsupported node type %T", n)
	}
}

func (a *Applier) applyChoose(c *ast.Choose, ctx *context.DynamicContext) error {
	for _, w := range c.Whens {
		ok, err := a.exprs.EvalBool(w.Test, ctx)
		if err != nil {
			return err
		}
		if ok {
			return a.Apply(w.Body, ctx)
		}
	}
	return a.Apply(c.Otherwise, ctx)
}

// ===========================
// Trim / Where / Set
// ===========================

func (a *Applier) applyTrim(t *ast.Trim, ctx *context.DynamicContext) error {
	body, err := ctx.Capture(func() error { return a.Apply(t.Body, ctx) })
	if err != nil {
		return err
	}

	body = strings.TrimSpace(body)
	if body == "" {
		return nil
	}
	body = strings.TrimSpace(trimPrefixFold(body, t.PrefixOverrides))
	body = strings.TrimSpace(trimSuffixFold(body, t.SuffixOverrides))
	if body == "" {
		return nil
	}

	var sb strings.Builder
	sb.Grow(len(t.Prefix) + len(body) + len(t.Suffix) + 2)
	if t.Prefix != "" {
		sb.WriteString(t.Prefix)
		sb.WriteByte(' ')
	}
	sb.WriteString(body)
	if t.Suffix != "" {
		sb.WriteByte(' ')
		sb.WriteString(t.Suffix)
	}
	ctx.AppendSQL(sb.String())
	return nil
}

func trimPrefixFold(s string, overrides []string) string {
	for _, o := range overrides {
		if len(s) >= len(o) && strings.EqualFold(s[:len(o)], o) {
			return s[len(o):]
		}
	}
	return s
}

func trimSuffixFold(s string, overrides []string) string {
	for _, o := range overrides {
		if len(s) >= len(o) && strings.EqualFold(s[len(s)-len(o):], o) {
			return s[:len(s)-len(o)]
		}
	}
	return s
}

// ===========================
// ForEach
// ===========================

type loopEntry struct {
	index any
	value any
}

func (a *Applier) applyForEach(f *ast.ForEach, ctx *context.DynamicContext) error {
	coll, err := a.exprs.Eval(f.Collection, ctx)
	if err != nil {
		return err
	}
	entries, err := loopEntries(coll)
	if err != nil {
		return &apperrors.ExpressionError{Expr: f.Collection, Err: err}
	}
	if len(entries) == 0 {
		return nil
	}

	item := f.Item
	if item == "" {
		item = schema.ItemAlias(f.Collection)
	}

	parts := make([]string, 0, len(entries))
	for _, e := range entries {
		locals := map[string]any{item: e.value}
		if f.Index != "" {
			locals[f.Index] = e.index
		}

		ctx.Push(locals)
		rendered, err := ctx.Capture(func() error { return a.Apply(f.Body, ctx) })
		if err != nil {
			ctx.Pop()
			return err
		}
		rendered = a.bindLoopLocals(rendered, ctx)
		ctx.Pop()

		if rendered = strings.TrimSpace(rendered); rendered != "" {
			parts = append(parts, rendered)
		}
	}

	a.logger.Debug("foreach rendered",
		zap.String("collection", f.Collection),
		zap.Int("items", len(entries)))

	if len(parts) == 0 {
		return nil
	}
	ctx.AppendSQL(f.Open + strings.Join(parts, f.Separator) + f.Close)
	return nil
}

// bindLoopLocals renames placeholders that reference names of the innermost
// loop scope to unique root bindings, so the rendering stays resolvable after
// the scope is popped.
func (a *Applier) bindLoopLocals(rendered string, ctx *context.DynamicContext) string {
	uniq := ctx.NextUnique()
	if !strings.Contains(rendered, "{") {
		return rendered
	}
	for _, name := range ctx.Locals() {
		re := placeholderRef(name)
		if !re.MatchString(rendered) {
			continue
		}
		renamed := context.LoopBinding(name, uniq)
		v, _ := ctx.Lookup(name)
		ctx.BindRoot(renamed, v)
		rendered = re.ReplaceAllString(rendered, "${1}"+renamed+"${2}")
	}
	return rendered
}

var refPatterns sync.Map // string -> *regexp.Regexp

// placeholderRef matches name as the root of a #{} or ${} payload.
func placeholderRef(name string) *regexp.Regexp {
	if re, ok := refPatterns.Load(name); ok {
		return re.(*regexp.Regexp)
	}
	re := regexp.MustCompile(`([#$]\{\s*)` + regexp.QuoteMeta(name) + `(\s*[}.:,\[])`)
	actual, _ := refPatterns.LoadOrStore(name, re)
	return actual.(*regexp.Regexp)
}

// loopEntries lists the elements of a slice, array or map. Map entries are
// ordered by key and carry the key as their index.
func loopEntries(coll any) ([]loopEntry, error) {
	if coll == nil {
		return nil, nil
	}
	if list, ok := coll.([]any); ok {
		out := make([]loopEntry, len(list))
		for i, v := range list {
			out[i] = loopEntry{index: i, value: v}
		}
		return out, nil
	}

	rv := reflect.ValueOf(coll)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			break
		}
		out := make([]loopEntry, rv.Len())
		for i := range out {
			out[i] = loopEntry{index: i, value: rv.Index(i).Interface()}
		}
		return out, nil
	case reflect.Map:
		keys := rv.MapKeys()
		sort.Slice(keys, func(i, j int) bool {
			return fmt.Sprint(keys[i].Interface()) < fmt.Sprint(keys[j].Interface())
		})
		out := make([]loopEntry, len(keys))
		for i, k := range keys {
			out[i] = loopEntry{index: k.Interface(), value: rv.MapIndex(k).Interface()}
		}
		return out, nil
	}
	return nil, fmt.Errorf("collection is %T, not a list, array or map", coll)
}
