package builder

import (
	"strings"

	"github.com/Konsultn-Engineering/dynsql/ast"
	"github.com/Konsultn-Engineering/dynsql/dialect"
	"github.com/Konsultn-Engineering/dynsql/schema"
)

// SelectBuilder assembles a SELECT template in code, as an alternative to
// mapper markup. Conditions become <where>/<if> nodes, so the result is
// resolved like any parsed template.
type SelectBuilder struct {
	id      string
	table   string
	columns []string
	quote   dialect.Dialect
	joins   []string
	where   []ast.Node
	orderBy []ast.Node
}

func NewSelect(table string, columns ...string) *SelectBuilder {
	return &SelectBuilder{
		id:      "select_" + table,
		table:   table,
		columns: columns,
	}
}

func (b *SelectBuilder) ID(id string) *SelectBuilder {
	b.id = id
	return b
}

// Quoted quotes the table and column names with d.
func (b *SelectBuilder) Quoted(d dialect.Dialect) *SelectBuilder {
	b.quote = d
	return b
}

func (b *SelectBuilder) Join(join string) *SelectBuilder {
	b.joins = append(b.joins, join)
	return b
}

// Where adds a condition that always applies.
func (b *SelectBuilder) Where(cond string) *SelectBuilder {
	b.where = append(b.where, ast.NewText("AND "+cond))
	return b
}

// WhereIf adds cond when test holds, e.g. WhereIf("name != null", "name = #{name}").
func (b *SelectBuilder) WhereIf(test, cond string) *SelectBuilder {
	b.where = append(b.where, ast.NewIf(test, ast.NewText("AND "+cond)))
	return b
}

// WhereIn adds "column IN (...)" over collection when it is non-empty.
func (b *SelectBuilder) WhereIn(column, collection string) *SelectBuilder {
	item := schema.ItemAlias(collection)
	loop := ast.NewForEach(collection, item, "", ast.NewText("#{"+item+"}")).Wrap("(", ")", ", ")
	b.where = append(b.where, ast.NewIf(
		collection+" != null && "+collection+".size() > 0",
		ast.NewText("AND "+b.ident(column)+" IN"),
		loop,
	))
	return b
}

func (b *SelectBuilder) Order(order string) *SelectBuilder {
	b.orderBy = []ast.Node{ast.NewText("ORDER BY " + order)}
	return b
}

// OrderBy sorts by the ${column} binding when it is set and by fallback
// otherwise.
func (b *SelectBuilder) OrderBy(column, fallback string) *SelectBuilder {
	b.orderBy = []ast.Node{ast.NewChoose(
		ast.NewText("ORDER BY "+fallback),
		ast.NewWhen(column+" != null && "+column+" != ''", ast.NewText("ORDER BY ${"+column+"}")),
	)}
	return b
}

func (b *SelectBuilder) Build() *ast.Template {
	cols := make([]string, len(b.columns))
	for i, c := range b.columns {
		cols[i] = b.ident(c)
	}
	if len(cols) == 0 {
		cols = []string{"*"}
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(cols, ", "))
	sb.WriteString(" FROM ")
	sb.WriteString(b.ident(b.table))
	for _, j := range b.joins {
		sb.WriteString(" ")
		sb.WriteString(j)
	}

	nodes := []ast.Node{ast.NewText(sb.String())}
	if len(b.where) > 0 {
		nodes = append(nodes, ast.NewWhere(b.where...))
	}
	nodes = append(nodes, b.orderBy...)
	return ast.NewTemplate(b.id, nodes...)
}

func (b *SelectBuilder) ident(name string) string {
	if b.quote == nil || name == "*" {
		return name
	}
	return b.quote.QuoteIdentifier(name)
}
