package dialect

import (
	"fmt"

	"github.com/Konsultn-Engineering/dynsql/format"
)

// MySQL also serves MariaDB, which shares its syntax.
type MySQL struct {
	name string
}

func NewMySQLDialect() Dialect {
	return &MySQL{name: "mysql"}
}

func NewMariaDBDialect() Dialect {
	return &MySQL{name: "mariadb"}
}

func (m MySQL) Name() string {
	if m.name == "" {
		return "mysql"
	}
	return m.name
}

func (m MySQL) QuoteIdentifier(name string) string {
	return quoteParts(name, "`", "`")
}

func (m MySQL) Placeholder(n int) string {
	return "?"
}

func (m MySQL) Paginate(sql string, page Page) (string, error) {
	return fmt.Sprintf("%s LIMIT %d, %d", trimStatement(sql), page.Offset(), page.Size), nil
}

func (m MySQL) FormatRules() format.Rules {
	return format.Rules{
		Name:        m.Name(),
		IdentQuotes: "`",
		TopLevel:    []string{"ON DUPLICATE KEY UPDATE", "LOCK IN SHARE MODE"},
	}
}
