package dialect

import (
	"fmt"
	"strconv"

	"github.com/Konsultn-Engineering/dynsql/format"
)

type Oracle struct{}

func NewOracleDialect() Dialect {
	return &Oracle{}
}

func (o Oracle) Name() string { return "oracle" }

func (o Oracle) QuoteIdentifier(name string) string {
	return quoteParts(name, `"`, `"`)
}

func (o Oracle) Placeholder(n int) string {
	return ":" + strconv.Itoa(n)
}

// Paginate nests the statement under ROWNUM bounds, the only windowing every
// Oracle release supports.
func (o Oracle) Paginate(sql string, page Page) (string, error) {
	return fmt.Sprintf(
		"SELECT * FROM (SELECT TMP.*, ROWNUM ROW_ID FROM (%s) TMP WHERE ROWNUM <= %d) WHERE ROW_ID > %d",
		trimStatement(sql), page.End(), page.Offset(),
	), nil
}

func (o Oracle) FormatRules() format.Rules {
	return format.Rules{
		Name:             o.Name(),
		IdentQuotes:      `"`,
		TopLevel:         []string{"CONNECT BY", "START WITH", "MERGE INTO", "WHEN MATCHED THEN", "WHEN NOT MATCHED THEN"},
		TopLevelNoIndent: []string{"MINUS"},
	}
}
