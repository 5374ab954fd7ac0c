package dialect

import (
	"reflect"
	"strconv"
	"strings"
)

const (
	DefaultPageCurrent = 1
	DefaultPageSize    = 10
)

// Page selects a window of rows. Current is 1-based.
type Page struct {
	Current int64 `json:"current" yaml:"current"`
	Size    int64 `json:"size" yaml:"size"`
}

// Offset is the number of rows skipped before the page.
func (p Page) Offset() int64 {
	return max(0, p.Current-1) * p.Size
}

// End is the row number of the last row of the page.
func (p Page) End() int64 {
	return p.Size * max(1, p.Current)
}

// Pager is implemented by page objects bound as parameters.
type Pager interface {
	GetCurrent() int64
	GetSize() int64
}

// PageFrom recognizes a page object among bound values: a Page, a Pager, or a
// map carrying "current" and "size". Missing fields default to page 1 of 10.
func PageFrom(v any) (Page, bool) {
	switch p := v.(type) {
	case nil:
		return Page{}, false
	case Page:
		return p, true
	case *Page:
		if p == nil {
			return Page{}, false
		}
		return *p, true
	case Pager:
		return Page{Current: p.GetCurrent(), Size: p.GetSize()}, true
	case map[string]any:
		cur, okCur := lookupInt(p, "current")
		size, okSize := lookupInt(p, "size")
		if !okCur && !okSize {
			return Page{}, false
		}
		if !okCur {
			cur = DefaultPageCurrent
		}
		if !okSize {
			size = DefaultPageSize
		}
		return Page{Current: cur, Size: size}, true
	}
	return Page{}, false
}

func lookupInt(m map[string]any, key string) (int64, bool) {
	for k, v := range m {
		if strings.EqualFold(k, key) {
			return toInt64(v)
		}
	}
	return 0, false
}

func toInt64(v any) (int64, bool) {
	if s, ok := v.(string); ok {
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		return n, err == nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return int64(rv.Float()), true
	}
	return 0, false
}
