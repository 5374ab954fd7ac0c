// Package sqlparse inspects resolved SQL with an external MySQL grammar. It is
// used to sanity-check resolutions, never to rewrite them.
package sqlparse

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xwb1989/sqlparser"
)

type StatementType string

const (
	Select  StatementType = "SELECT"
	Insert  StatementType = "INSERT"
	Replace StatementType = "REPLACE"
	Update  StatementType = "UPDATE"
	Delete  StatementType = "DELETE"
	Union   StatementType = "UNION"
	DDL     StatementType = "DDL"
	Other   StatementType = "OTHER"
)

// Statement summarizes a parsed statement.
type Statement struct {
	Type   StatementType
	Tables []string
}

// Analyze parses sql and reports its statement type and the sorted set of
// tables it reads or writes. Qualified names keep their qualifier.
func Analyze(sql string) (*Statement, error) {
	stmt, err := sqlparser.Parse(strings.TrimRight(strings.TrimSpace(sql), ";"))
	if err != nil {
		return nil, fmt.Errorf("parse sql: %w", err)
	}

	out := &Statement{Type: typeOf(stmt)}
	tables := map[string]struct{}{}
	add := func(tn sqlparser.TableName) {
		if tn.IsEmpty() {
			return
		}
		name := tn.Name.String()
		if !tn.Qualifier.IsEmpty() {
			name = tn.Qualifier.String() + "." + name
		}
		tables[name] = struct{}{}
	}

	switch s := stmt.(type) {
	case *sqlparser.Insert:
		add(s.Table)
	case *sqlparser.DDL:
		add(s.Table)
		add(s.NewName)
	}

	err = sqlparser.Walk(func(node sqlparser.SQLNode) (bool, error) {
		if ate, ok := node.(*sqlparser.AliasedTableExpr); ok {
			if tn, ok := ate.Expr.(sqlparser.TableName); ok {
				add(tn)
			}
		}
		return true, nil
	}, stmt)
	if err != nil {
		return nil, fmt.Errorf("walk sql: %w", err)
	}

	for t := range tables {
		out.Tables = append(out.Tables, t)
	}
	sort.Strings(out.Tables)
	return out, nil
}

func typeOf(stmt sqlparser.Statement) StatementType {
	switch s := stmt.(type) {
	case *sqlparser.Select, *sqlparser.ParenSelect:
		return Select
	case *sqlparser.Union:
		return Union
	case *sqlparser.Insert:
		if strings.EqualFold(strings.TrimSpace(s.Action), strings.TrimSpace(sqlparser.ReplaceStr)) {
			return Replace
		}
		return Insert
	case *sqlparser.Update:
		return Update
	case *sqlparser.Delete:
		return Delete
	case *sqlparser.DDL:
		return DDL
	}
	return Other
}

// Equivalent reports whether a and b parse to the same statement type over the
// same tables.
func Equivalent(a, b string) (bool, error) {
	sa, err := Analyze(a)
	if err != nil {
		return false, err
	}
	sb, err := Analyze(b)
	if err != nil {
		return false, err
	}
	if sa.Type != sb.Type || len(sa.Tables) != len(sb.Tables) {
		return false, nil
	}
	for i := range sa.Tables {
		if sa.Tables[i] != sb.Tables[i] {
			return false, nil
		}
	}
	return true, nil
}
