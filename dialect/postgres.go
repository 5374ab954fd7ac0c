package dialect

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/Konsultn-Engineering/dynsql/format"
)

type Postgres struct{}

func NewPostgresDialect() Dialect {
	return &Postgres{}
}

func (p Postgres) Name() string { return "postgres" }

func (p Postgres) QuoteIdentifier(name string) string {
	return pgx.Identifier(strings.Split(name, ".")).Sanitize()
}

func (p Postgres) Placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}

func (p Postgres) Paginate(sql string, page Page) (string, error) {
	return fmt.Sprintf("%s LIMIT %d OFFSET %d", trimStatement(sql), page.Size, page.Offset()), nil
}

func (p Postgres) FormatRules() format.Rules {
	return format.Rules{
		Name:        p.Name(),
		IdentQuotes: `"`,
		TopLevel:    []string{"ON CONFLICT", "FETCH FIRST"},
	}
}
