package dialect

import (
	"fmt"

	"github.com/Konsultn-Engineering/dynsql/format"
)

type SQLite struct{}

func NewSQLiteDialect() Dialect {
	return &SQLite{}
}

func (s SQLite) Name() string { return "sqlite" }

func (s SQLite) QuoteIdentifier(name string) string {
	return quoteParts(name, `"`, `"`)
}

func (s SQLite) Placeholder(n int) string {
	return "?"
}

func (s SQLite) Paginate(sql string, page Page) (string, error) {
	return fmt.Sprintf("%s LIMIT %d OFFSET %d", trimStatement(sql), page.Size, page.Offset()), nil
}

func (s SQLite) FormatRules() format.Rules {
	return format.Rules{
		Name:        s.Name(),
		IdentQuotes: "\"`[",
		TopLevel:    []string{"ON CONFLICT"},
	}
}
