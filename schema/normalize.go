package schema

import (
	"database/sql/driver"
	"encoding/json"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// fieldPlan locates one exported field and the key it binds under.
type fieldPlan struct {
	key   string
	index []int
}

type planKey struct {
	t      reflect.Type
	naming FieldNaming
	tag    string
}

var planCache sync.Map // planKey -> []fieldPlan

// atomicTypes are struct or array types bound as single values rather than
// flattened into maps.
var atomicTypes = map[reflect.Type]bool{
	reflect.TypeOf(time.Time{}):       true,
	reflect.TypeOf(uuid.UUID{}):       true,
	reflect.TypeOf(ulid.ULID{}):       true,
	reflect.TypeOf(json.RawMessage{}): true,
	reflect.TypeOf([]byte(nil)):       true,
	reflect.TypeOf(time.Duration(0)):  true,
}

var valuerType = reflect.TypeOf((*driver.Valuer)(nil)).Elem()

// Normalize converts a runtime value into the shapes expressions and
// placeholders understand.
//
// Structs become map[string]any keyed through the Binder's naming strategy, with
// the Binder's tag and then the json tag taking precedence ("-" skips a field).
// Embedded structs without a tag are merged into their parent. String-keyed maps
// and slices of structs are normalized recursively. Pointers are dereferenced.
// time.Time, uuid.UUID, ulid.ULID, []byte, json.RawMessage and driver.Valuer
// implementations are kept as they are.
func (b *Binder) Normalize(v any) any {
	if v == nil {
		return nil
	}
	return b.normalize(reflect.ValueOf(v))
}

func (b *Binder) normalize(rv reflect.Value) any {
	if !rv.IsValid() {
		return nil
	}
	t := rv.Type()
	if atomicTypes[t] || t.Implements(valuerType) {
		return rv.Interface()
	}

	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return b.normalize(rv.Elem())

	case reflect.Struct:
		plans := b.plan(t)
		out := make(map[string]any, len(plans))
		for _, fp := range plans {
			f, ok := fieldByIndex(rv, fp.index)
			if !ok {
				out[fp.key] = nil
				continue
			}
			out[fp.key] = b.normalize(f)
		}
		return out

	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return rv.Interface()
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = b.normalize(iter.Value())
		}
		return out

	case reflect.Slice, reflect.Array:
		if t.Kind() == reflect.Slice && rv.IsNil() {
			return nil
		}
		if !needsNormalizing(t.Elem()) {
			return rv.Interface()
		}
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = b.normalize(rv.Index(i))
		}
		return out
	}
	return rv.Interface()
}

func needsNormalizing(t reflect.Type) bool {
	if atomicTypes[t] {
		return false
	}
	switch t.Kind() {
	case reflect.Struct, reflect.Pointer, reflect.Map, reflect.Interface, reflect.Slice:
		return true
	}
	return false
}

// fieldByIndex follows index through embedded pointers, reporting false when a
// nil embedded pointer is crossed.
func fieldByIndex(v reflect.Value, index []int) (reflect.Value, bool) {
	for i, x := range index {
		if i > 0 && v.Kind() == reflect.Pointer {
			if v.IsNil() {
				return reflect.Value{}, false
			}
			v = v.Elem()
		}
		v = v.Field(x)
	}
	return v, true
}

func (b *Binder) plan(t reflect.Type) []fieldPlan {
	key := planKey{t: t, naming: b.Naming, tag: b.TagName}
	if p, ok := planCache.Load(key); ok {
		return p.([]fieldPlan)
	}
	plans := b.buildPlan(t, nil)
	actual, _ := planCache.LoadOrStore(key, plans)
	return actual.([]fieldPlan)
}

func (b *Binder) buildPlan(t reflect.Type, prefix []int) []fieldPlan {
	var plans []fieldPlan
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		index := append(append([]int(nil), prefix...), i)

		name, skip, tagged := b.tagKey(f)
		if skip {
			continue
		}

		if f.Anonymous && !tagged {
			ft := f.Type
			if ft.Kind() == reflect.Pointer {
				if !f.IsExported() {
					continue
				}
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct && !atomicTypes[ft] {
				plans = append(plans, b.buildPlan(ft, index)...)
				continue
			}
		}
		if !f.IsExported() {
			continue
		}
		if name == "" {
			name = b.Naming.Key(f.Name)
		}
		plans = append(plans, fieldPlan{key: name, index: index})
	}
	return plans
}

func (b *Binder) tagKey(f reflect.StructField) (name string, skip, tagged bool) {
	for _, tag := range []string{b.TagName, "json"} {
		if tag == "" {
			continue
		}
		raw, ok := f.Tag.Lookup(tag)
		if !ok {
			continue
		}
		name, _, _ = strings.Cut(raw, ",")
		if name == "-" {
			return "", true, true
		}
		if name != "" {
			return name, false, true
		}
	}
	return "", false, false
}
