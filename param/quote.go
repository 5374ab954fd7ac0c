package param

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// TimeLayout renders temporal values. Fractional seconds appear only when set.
const TimeLayout = "2006-01-02 15:04:05.999999"

// Literal is implemented by values that render themselves as SQL text. The
// result is inlined verbatim.
type Literal interface {
	SQLLiteral() string
}

// Raw is a string inlined without quotes.
type Raw string

func (r Raw) SQLLiteral() string { return string(r) }

// Format renders v as SQL text and reports whether it was quoted.
//
// Textual, temporal and identifier values (string, []byte, time.Time,
// uuid.UUID, ulid.ULID) and structured documents (maps, slices, structs and
// json.RawMessage, rendered as JSON) are wrapped in single quotes. Embedded
// quotes are left as they are. Numbers and booleans are inlined. A
// driver.Valuer is unwrapped before formatting.
func Format(v any) (string, bool, error) {
	switch t := v.(type) {
	case nil:
		return "NULL", false, nil
	case Literal:
		return t.SQLLiteral(), false, nil
	case string:
		return quote(t), true, nil
	case []byte:
		return quote(string(t)), true, nil
	case json.RawMessage:
		return quote(string(t)), true, nil
	case time.Time:
		return quote(t.Format(TimeLayout)), true, nil
	case uuid.UUID:
		return quote(t.String()), true, nil
	case ulid.ULID:
		return quote(t.String()), true, nil
	case bool:
		return strconv.FormatBool(t), false, nil
	case int:
		return strconv.Itoa(t), false, nil
	case int64:
		return strconv.FormatInt(t, 10), false, nil
	case uint64:
		return strconv.FormatUint(t, 10), false, nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), false, nil
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32), false, nil
	case time.Duration:
		return strconv.FormatInt(int64(t), 10), false, nil
	case driver.Valuer:
		inner, err := t.Value()
		if err != nil {
			return "", false, err
		}
		return Format(inner)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return "NULL", false, nil
		}
		return Format(rv.Elem().Interface())
	case reflect.String:
		return quote(rv.String()), true, nil
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), false, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), false, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10), false, nil
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, rv.Type().Bits()), false, nil
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		doc, err := json.Marshal(v)
		if err != nil {
			return "", false, fmt.Errorf("render %T as JSON: %w", v, err)
		}
		return quote(string(doc)), true, nil
	}
	return quote(fmt.Sprint(v)), true, nil
}

// FormatRaw renders v without quotes, for ${} under QuoteRawDollar.
func FormatRaw(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case []byte:
		return string(t), nil
	}
	s, quoted, err := Format(v)
	if err != nil || !quoted {
		return s, err
	}
	return s[1 : len(s)-1], nil
}

func quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('\'')
	b.WriteString(s)
	b.WriteByte('\'')
	return b.String()
}

// escapeQuoted doubles the single quotes inside an already quoted literal.
func escapeQuoted(s string) string {
	inner := s[1 : len(s)-1]
	if !strings.Contains(inner, "'") {
		return s
	}
	return quote(strings.ReplaceAll(inner, "'", "''"))
}
