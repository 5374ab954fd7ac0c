package expr

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/common/types/traits"
	"github.com/google/cel-go/ext"
	"github.com/google/cel-go/interpreter"
)

// Scope resolves binding names for evaluation.
type Scope interface {
	Lookup(name string) (any, bool)
}

var (
	envOnce   sync.Once
	sharedEnv *cel.Env
	envErr    error
)

// Env returns the process-wide expression environment. Expressions are parsed
// without type checking, so bindings need no declarations.
func Env() (*cel.Env, error) {
	envOnce.Do(func() {
		sharedEnv, envErr = cel.NewEnv(
			ext.Strings(),
			cel.CrossTypeNumericComparisons(true),
			cel.Function("isEmpty",
				cel.MemberOverload("dyn_is_empty", []*cel.Type{cel.DynType}, cel.BoolType,
					cel.UnaryBinding(isEmpty))),
			cel.Function("sizeProperty",
				cel.MemberOverload("dyn_size_property_string", []*cel.Type{cel.DynType, cel.StringType}, cel.DynType,
					cel.BinaryBinding(sizeProperty))),
		)
	})
	return sharedEnv, envErr
}

// isEmpty reports whether a list, map or string has no elements.
func isEmpty(v ref.Val) ref.Val {
	s, ok := v.(traits.Sizer)
	if !ok {
		return types.NewErr("isEmpty: unsupported type %s", v.Type().TypeName())
	}
	return types.Bool(s.Size().Equal(types.IntZero) == types.True)
}

// sizeProperty reads the size property of recv: a map entry named name when
// present, otherwise the element count.
func sizeProperty(recv, name ref.Val) ref.Val {
	if m, ok := recv.(traits.Mapper); ok {
		if v, found := m.Find(name); found {
			return v
		}
	}
	if s, ok := recv.(traits.Sizer); ok {
		return s.Size()
	}
	return types.NewErr("no such property %v on %s", name.Value(), recv.Type().TypeName())
}

// Program is a compiled expression. It is immutable and safe for concurrent use.
type Program struct {
	Source string
	prg    cel.Program
}

// Compile parses a normalized expression.
func Compile(source string) (*Program, error) {
	if strings.TrimSpace(source) == "" {
		return nil, fmt.Errorf("empty expression")
	}
	env, err := Env()
	if err != nil {
		return nil, fmt.Errorf("expression environment: %w", err)
	}
	ast, issues := env.Parse(source)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, err
	}
	return &Program{Source: source, prg: prg}, nil
}

// Eval evaluates the program against scope and returns a native Go value.
// Lists and maps built inside the expression come back as []any and
// map[string]any; null comes back as nil.
func (p *Program) Eval(scope Scope) (any, error) {
	out, _, err := p.prg.Eval(activation{scope: scope})
	if err != nil {
		return nil, err
	}
	return native(out)
}

func native(v ref.Val) (any, error) {
	switch v.(type) {
	case types.Null:
		return nil, nil
	case traits.Lister:
		if elems, ok := v.Value().([]ref.Val); ok {
			out := make([]any, len(elems))
			for i, e := range elems {
				n, err := native(e)
				if err != nil {
					return nil, err
				}
				out[i] = n
			}
			return out, nil
		}
	case traits.Mapper:
		if entries, ok := v.Value().(map[ref.Val]ref.Val); ok {
			out := make(map[string]any, len(entries))
			for k, e := range entries {
				n, err := native(e)
				if err != nil {
					return nil, err
				}
				out[fmt.Sprint(k.Value())] = n
			}
			return out, nil
		}
	}
	return v.Value(), nil
}

// activation adapts a Scope. Unknown top-level names resolve to null so
// "name != null" guards work on absent bindings; qualified candidates that are
// not bound fall through to member selection.
type activation struct {
	scope Scope
}

func (a activation) ResolveName(name string) (any, bool) {
	if v, ok := a.scope.Lookup(name); ok {
		return v, true
	}
	if strings.Contains(name, ".") {
		return nil, false
	}
	return nil, true
}

func (a activation) Parent() interpreter.Activation { return nil }

// Truthy applies guard coercion: nil is false, numbers are true when non-zero,
// strings, slices and maps when non-empty.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	case reflect.Slice, reflect.Map, reflect.Array, reflect.String:
		return rv.Len() > 0
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return false
		}
		return Truthy(rv.Elem().Interface())
	}
	return true
}
