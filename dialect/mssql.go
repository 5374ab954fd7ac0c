package dialect

import (
	"strconv"

	"github.com/Konsultn-Engineering/dynsql/apperrors"
	"github.com/Konsultn-Engineering/dynsql/format"
)

type MSSQL struct{}

func NewMSSQLDialect() Dialect {
	return &MSSQL{}
}

func (m MSSQL) Name() string { return "mssql" }

func (m MSSQL) QuoteIdentifier(name string) string {
	return quoteParts(name, "[", "]")
}

func (m MSSQL) Placeholder(n int) string {
	return "@p" + strconv.Itoa(n)
}

func (m MSSQL) Paginate(string, Page) (string, error) {
	return "", &apperrors.UnsupportedFeatureError{Dialect: m.Name(), Feature: "pagination"}
}

func (m MSSQL) FormatRules() format.Rules {
	return format.Rules{
		Name:        m.Name(),
		IdentQuotes: `"[`,
		TopLevel:    []string{"OUTPUT", "MERGE INTO"},
	}
}
