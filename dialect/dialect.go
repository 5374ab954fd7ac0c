package dialect

import (
	"strings"

	"github.com/Konsultn-Engineering/dynsql/format"
)

// Dialect is the per-database capability set, selected once per engine.
type Dialect interface {
	Name() string
	QuoteIdentifier(name string) string
	Placeholder(n int) string
	// Paginate wraps a resolved statement so it returns only the rows of page.
	Paginate(sql string, page Page) (string, error)
	FormatRules() format.Rules
}

// trimStatement drops trailing whitespace and semicolons so the statement can
// be wrapped or extended.
func trimStatement(sql string) string {
	return strings.TrimRight(sql, " \t\r\n;")
}

func quoteParts(name, open, close string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		if p == "*" {
			continue
		}
		parts[i] = open + strings.ReplaceAll(p, close, close+close) + close
	}
	return strings.Join(parts, ".")
}
