package dynsql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const doc = `<mapper namespace="users">
  <select id="search">
    SELECT id, name FROM users
    <where>
      <if test="name != null">AND name = #{name}</if>
      <if test="ids != null">AND id IN <foreach collection="ids" open="(" separator="," close=")">#{id}</foreach></if>
    </where>
  </select>
</mapper>`

func TestFacade(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	cfg.Format.Enabled = false

	e, err := New(cfg)
	require.NoError(t, err)
	m, err := ParseMapper(doc)
	require.NoError(t, err)

	got, err := e.ResolveStatement(m, "search",
		[]Param{P("name", Scalar), P("ids", Collection), P("page", PageParam)},
		"alice", []int{1, 2}, Page{Current: 1, Size: 20})
	require.NoError(t, err)
	assert.Equal(t, "SELECT id, name FROM users WHERE name = 'alice' AND id IN (1,2) LIMIT 0, 20", got)
}

func TestFacade_Formatted(t *testing.T) {
	e, err := New(nil)
	require.NoError(t, err)
	tpl, err := ParseScript("q", `SELECT a, b FROM t <where><if test="a > 0">a = #{a}</if></where>`)
	require.NoError(t, err)

	got, err := e.Resolve(tpl, []Param{P("a", Scalar)}, 1)
	require.NoError(t, err)
	assert.Equal(t, "SELECT\n  a,\n  b\nFROM\n  t\nWHERE\n  a = 1", got)
}
