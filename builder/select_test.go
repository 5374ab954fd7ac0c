package builder

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Konsultn-Engineering/dynsql/dialect"
	"github.com/Konsultn-Engineering/dynsql/visitor"
)

func render(t *testing.T, b *SelectBuilder, bindings map[string]any) string {
	t.Helper()
	ctx, err := visitor.NewApplier(nil, nil).Build(b.Build(), bindings)
	require.NoError(t, err)
	return ctx.SQL()
}

func TestSelectBuilder(t *testing.T) {
	b := NewSelect("users", "id", "name").
		Where("deleted_at IS NULL").
		WhereIf("name != null", "name = #{name}").
		WhereIn("id", "ids").
		OrderBy("sort", "id")

	assert.Equal(t,
		"SELECT id, name FROM users WHERE deleted_at IS NULL AND name = #{name} AND id IN (#{__frch_id_1}, #{__frch_id_2}) ORDER BY ${sort}",
		render(t, b, map[string]any{"name": "a", "ids": []int{1, 2}, "sort": "name"}))

	assert.Equal(t,
		"SELECT id, name FROM users WHERE deleted_at IS NULL ORDER BY id",
		render(t, b, nil))
}

func TestSelectBuilder_Quoted(t *testing.T) {
	b := NewSelect("app.users", "id", "order").Quoted(dialect.NewMySQLDialect()).Join("JOIN roles r ON r.uid = id")
	tpl := b.ID("listUsers").Build()

	assert.Equal(t, "listUsers", tpl.ID)
	assert.Equal(t, "SELECT `id`, `order` FROM `app`.`users` JOIN roles r ON r.uid = id", render(t, b, nil))
}

func TestSelectBuilder_NoColumns(t *testing.T) {
	b := NewSelect("t").Order("id DESC")
	assert.Equal(t, "SELECT * FROM t ORDER BY id DESC", render(t, b, nil))
	assert.Equal(t, "select_t", b.Build().ID)
}
