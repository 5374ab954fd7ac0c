package schema

import (
	"fmt"
	"strings"
	"unicode"

	pluralizer "github.com/gertd/go-pluralize"
)

// Naming utilities for binding keys. Struct fields become binding names through a
// FieldNaming strategy, and loop aliases are derived by singularizing collection
// names.

// pluralizeClient is a singleton instance for consistent pluralization behavior.
var pluralizeClient = pluralizer.NewClient()

// =========================================================================
// Field Naming
// =========================================================================

// FieldNaming represents the convention used to turn Go field names into binding
// keys when a struct parameter is flattened.
type FieldNaming int

const (
	FieldCamelCase  FieldNaming = iota // userId, firstName, createdAt
	FieldSnakeCase                     // user_id, first_name, created_at
	FieldPascalCase                    // UserId, FirstName, CreatedAt
	FieldExact                         // UserID, FirstName, CreatedAt
)

// Key converts a Go field name according to the convention.
func (n FieldNaming) Key(fieldName string) string {
	switch n {
	case FieldSnakeCase:
		return toSnakeCase(fieldName)
	case FieldPascalCase:
		return toPascalCase(fieldName)
	case FieldExact:
		return fieldName
	default:
		return toCamelCase(fieldName)
	}
}

// ParseFieldNaming accepts camel, snake, pascal and exact.
func ParseFieldNaming(s string) (FieldNaming, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "camel", "camelcase":
		return FieldCamelCase, nil
	case "snake", "snake_case":
		return FieldSnakeCase, nil
	case "pascal", "pascalcase":
		return FieldPascalCase, nil
	case "exact", "none":
		return FieldExact, nil
	}
	return 0, fmt.Errorf("unknown field naming %q", s)
}

// =========================================================================
// Core Conversion Functions
// =========================================================================

// initialisms whose lower form should not be split.
var initialisms = map[string]string{
	"ID":     "id",
	"UUID":   "uuid",
	"ULID":   "ulid",
	"URL":    "url",
	"API":    "api",
	"JSON":   "json",
	"SQL":    "sql",
	"OAuth":  "o_auth",
	"OAuth2": "o_auth2",
}

// toSnakeCase converts any naming convention to snake_case.
// Acronym runs stay together: UserID -> user_id, HTTPServer -> http_server.
func toSnakeCase(name string) string {
	if name == "" {
		return ""
	}
	if s, ok := initialisms[name]; ok {
		return s
	}
	if strings.Contains(name, "_") && !hasUpperCase(name) {
		return name
	}

	runes := []rune(name)
	var b strings.Builder
	b.Grow(len(name) + 4)

	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				b.WriteByte('_')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// toCamelCase converts any naming convention to camelCase.
func toCamelCase(name string) string {
	parts := strings.Split(toSnakeCase(name), "_")

	var b strings.Builder
	b.Grow(len(name))
	first := true
	for _, p := range parts {
		if p == "" {
			continue
		}
		if first {
			b.WriteString(p)
			first = false
			continue
		}
		b.WriteString(titleCase(p))
	}
	return b.String()
}

// toPascalCase converts any naming convention to PascalCase.
func toPascalCase(name string) string {
	parts := strings.Split(toSnakeCase(name), "_")

	var b strings.Builder
	b.Grow(len(name))
	for _, p := range parts {
		b.WriteString(titleCase(p))
	}
	return b.String()
}

func titleCase(s string) string {
	if s == "" {
		return ""
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// =========================================================================
// Loop Aliases
// =========================================================================

// ItemAlias derives a loop item name from a collection expression: the final
// path segment singularized ("user.roles" -> "role"). When singularizing does
// not change the name, "item" is used.
func ItemAlias(collection string) string {
	name := strings.TrimSpace(collection)
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	if name == "" || !isIdentifier(name) {
		return "item"
	}
	single := singularize(name)
	if single == "" || single == name {
		return "item"
	}
	return single
}

// singularize converts plural nouns to their singular forms.
func singularize(name string) string {
	if name == "" {
		return ""
	}
	switch strings.ToLower(name) {
	case "people":
		return preserveCase(name, "person")
	case "children":
		return preserveCase(name, "child")
	case "data":
		return preserveCase(name, "datum")
	case "criteria":
		return preserveCase(name, "criterion")
	}
	return preserveCase(name, pluralizeClient.Singular(name))
}

// =========================================================================
// Utility Functions
// =========================================================================

func hasUpperCase(s string) bool {
	for _, r := range s {
		if unicode.IsUpper(r) {
			return true
		}
	}
	return false
}

// preserveCase keeps the leading-letter case of original on result. Camel-case
// input such as "userIds" keeps its inner capitals.
func preserveCase(original, result string) string {
	if original == "" || result == "" {
		return result
	}
	if strings.ToUpper(original) == original && hasUpperCase(original) {
		return strings.ToUpper(result)
	}
	r := []rune(result)
	if unicode.IsUpper([]rune(original)[0]) {
		r[0] = unicode.ToUpper(r[0])
	} else {
		r[0] = unicode.ToLower(r[0])
	}
	return string(r)
}

func isIdentifier(s string) bool {
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) || (i > 0 && unicode.IsDigit(r)) {
			continue
		}
		return false
	}
	return true
}
