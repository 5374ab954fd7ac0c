package schema

import (
	"fmt"

	"github.com/Konsultn-Engineering/dynsql/apperrors"
)

// Binder turns declared parameters and runtime values into the root bindings of
// a resolution.
//
// Binding rules, applied after dropping RowBounds parameters and moving Page
// parameters under PageKey:
//   - one Scalar, Array or Collection parameter: {name: value}
//   - one Composite parameter: every field under its own name, plus the whole
//     value under name
//   - several parameters: each under its declared name, nothing flattened
//
// Struct values are normalized into map[string]any first; see Normalize.
type Binder struct {
	PageKey string
	Naming  FieldNaming
	TagName string
}

// Option configures a Binder.
type Option func(*Binder)

// WithPageKey sets the binding name for pagination objects.
func WithPageKey(key string) Option {
	return func(b *Binder) { b.PageKey = key }
}

// WithFieldNaming sets how struct field names become binding keys.
func WithFieldNaming(n FieldNaming) Option {
	return func(b *Binder) { b.Naming = n }
}

// WithTagName sets the struct tag consulted before the json tag.
func WithTagName(tag string) Option {
	return func(b *Binder) { b.TagName = tag }
}

// NewBinder creates a Binder with camelCase field keys, the "param" tag and the
// default page key.
func NewBinder(opts ...Option) *Binder {
	b := &Binder{PageKey: DefaultPageKey, Naming: FieldCamelCase, TagName: "param"}
	for _, opt := range opts {
		opt(b)
	}
	if b.PageKey == "" {
		b.PageKey = DefaultPageKey
	}
	return b
}

var defaultBinder = NewBinder()

// Bind applies the default Binder.
func Bind(params []Param, values ...any) (map[string]any, error) {
	return defaultBinder.Bind(params, values...)
}

// BindMap applies the default Binder.
func BindMap(params []Param, m map[string]any) map[string]any {
	return defaultBinder.BindMap(params, m)
}

// Bind binds positional values aligned with params.
//
// Parameters:
//   - params: declared parameters in order
//   - values: runtime values, one per parameter
//
// Returns:
//   - map[string]any: root bindings
//   - error: apperrors.ErrInvalidBinding when the value count does not match
//
// Example:
//
//	b, _ := schema.Bind([]schema.Param{schema.P("user", schema.Composite)}, user)
//	// b["name"] == b["user"].(map[string]any)["name"]
func (b *Binder) Bind(params []Param, values ...any) (map[string]any, error) {
	if len(values) != len(params) {
		return nil, fmt.Errorf("%w: %d parameters declared, %d values supplied",
			apperrors.ErrInvalidBinding, len(params), len(values))
	}

	out := make(map[string]any, len(params)+4)
	var bound []int
	for i, p := range params {
		switch p.Kind {
		case RowBounds:
		case Page:
			out[b.PageKey] = values[i]
		default:
			bound = append(bound, i)
		}
	}

	if len(bound) == 1 {
		i := bound[0]
		p, v := params[i], values[i]
		if p.Kind == Composite {
			b.flatten(out, p.Name, b.Normalize(v))
			return out, nil
		}
		out[p.Name] = b.Normalize(v)
		return out, nil
	}

	for _, i := range bound {
		out[params[i].Name] = b.Normalize(values[i])
	}
	return out, nil
}

// BindMap binds a pre-built value map, for example one loaded from a persisted
// binding set. Values are used as given except that RowBounds entries are
// dropped, a Page entry moves under PageKey, and a lone Composite parameter whose
// nested map is present gets its fields flattened.
func (b *Binder) BindMap(params []Param, m map[string]any) map[string]any {
	out := make(map[string]any, len(m)+4)
	for k, v := range m {
		out[k] = b.Normalize(v)
	}

	var bound []Param
	for _, p := range params {
		switch p.Kind {
		case RowBounds:
			delete(out, p.Name)
		case Page:
			if v, ok := out[p.Name]; ok && p.Name != b.PageKey {
				out[b.PageKey] = v
				delete(out, p.Name)
			}
		default:
			bound = append(bound, p)
		}
	}

	if len(bound) == 1 && bound[0].Kind == Composite {
		if nested, ok := out[bound[0].Name].(map[string]any); ok {
			b.flatten(out, bound[0].Name, nested)
		}
	}
	return out
}

// flatten binds the fields of a composite value under their own names and the
// value itself under name. Fields never overwrite an existing binding.
func (b *Binder) flatten(out map[string]any, name string, v any) {
	if fields, ok := v.(map[string]any); ok {
		for k, fv := range fields {
			if _, exists := out[k]; !exists {
				out[k] = fv
			}
		}
	}
	out[name] = v
}
