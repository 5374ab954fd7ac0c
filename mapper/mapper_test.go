package mapper

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Konsultn-Engineering/dynsql/apperrors"
	"github.com/Konsultn-Engineering/dynsql/ast"
	"github.com/Konsultn-Engineering/dynsql/cache"
	"github.com/Konsultn-Engineering/dynsql/visitor"
)

const userMapper = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE mapper PUBLIC "-//mybatis.org//DTD Mapper 3.0//EN" "http://mybatis.org/dtd/mybatis-3-mapper.dtd">
<mapper namespace="app.UserMapper">
  <resultMap id="userMap" type="User"/>

  <sql id="columns">id, name, ${alias}.age</sql>
  <sql id="byName"><if test="name != null">AND name = #{name}</if></sql>

  <select id="findUsers">
    SELECT <include refid="columns"><property name="alias" value="u"/></include>
    FROM users u
    <where>
      <include refid="app.UserMapper.byName"/>
      <if test="ids != null and ids.size() > 0">
        AND id IN
        <foreach collection="ids" item="id" open="(" separator="," close=")">#{id}</foreach>
      </if>
      <if test="minAge != null"><![CDATA[ AND age >= #{minAge} ]]></if>
    </where>
    <choose>
      <when test="sort == 'name'">ORDER BY name</when>
      <otherwise>ORDER BY id</otherwise>
    </choose>
  </select>

  <select id="findUsers" databaseId="oracle">SELECT * FROM "USERS"</select>

  <update id="updateUser">
    UPDATE users
    <set>
      <if test="name != null">name = #{name},</if>
      <if test="age != null">age = #{age},</if>
    </set>
    WHERE id = #{id}
  </update>

  <insert id="insertUser">
    <selectKey keyProperty="id" resultType="long">SELECT LAST_INSERT_ID()</selectKey>
    <bind name="pattern" value="'%' + name + '%'"/>
    INSERT INTO users (name) VALUES (#{pattern})
  </insert>
</mapper>`

func squash(s string) string { return strings.Join(strings.Fields(s), " ") }

func render(t *testing.T, tpl *ast.Template, bindings map[string]any) string {
	t.Helper()
	ctx, err := visitor.NewApplier(cache.NewExpressionCache(), zap.NewNop()).Build(tpl, bindings)
	require.NoError(t, err)
	return squash(ctx.SQL())
}

// ==========================
// Mapper documents
// ==========================

func TestParse_Statements(t *testing.T) {
	m, err := ParseString(userMapper)
	require.NoError(t, err)
	assert.Equal(t, "app.UserMapper", m.Namespace)

	var ids []string
	for _, st := range m.Statements() {
		ids = append(ids, st.ID+"/"+st.DatabaseID)
	}
	assert.Equal(t, []string{"findUsers/", "findUsers/oracle", "insertUser/", "updateUser/"}, ids)

	st, err := m.Statement("app.UserMapper.updateUser", "")
	require.NoError(t, err)
	assert.Equal(t, KindUpdate, st.Kind)
}

func TestParse_DatabaseIDPreference(t *testing.T) {
	m, err := ParseString(userMapper)
	require.NoError(t, err)

	st, err := m.Statement("findUsers", "oracle")
	require.NoError(t, err)
	assert.Equal(t, "oracle", st.DatabaseID)

	st, err = m.Statement("findUsers", "mysql")
	require.NoError(t, err)
	assert.Equal(t, "", st.DatabaseID)

	_, err = m.Statement("missing", "")
	assert.True(t, errors.Is(err, apperrors.ErrUnknownStatement))
}

func TestParse_RenderSelect(t *testing.T) {
	m, err := ParseString(userMapper)
	require.NoError(t, err)
	st, err := m.Statement("findUsers", "")
	require.NoError(t, err)

	got := render(t, st.Template, map[string]any{
		"name":   "bob",
		"ids":    []int{1, 2},
		"minAge": 18,
		"sort":   "name",
	})
	assert.Equal(t,
		"SELECT id, name, u.age FROM users u WHERE name = #{name} AND id IN (#{__frch_id_1},#{__frch_id_2}) AND age >= #{minAge} ORDER BY name",
		got)

	got = render(t, st.Template, nil)
	assert.Equal(t, "SELECT id, name, u.age FROM users u ORDER BY id", got)
}

func TestParse_RenderSetAndBind(t *testing.T) {
	m, err := ParseString(userMapper)
	require.NoError(t, err)

	upd, err := m.Statement("updateUser", "")
	require.NoError(t, err)
	assert.Equal(t, "UPDATE users SET name = #{name} WHERE id = #{id}",
		render(t, upd.Template, map[string]any{"name": "x", "id": 1}))

	ins, err := m.Statement("insertUser", "")
	require.NoError(t, err)
	ctx, err := visitor.NewApplier(nil, nil).Build(ins.Template, map[string]any{"name": "al"})
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO users (name) VALUES (#{pattern})", ctx.SQL())
	v, ok := ctx.Lookup("pattern")
	require.True(t, ok)
	assert.Equal(t, "%al%", v)
}

// ==========================
// Scripts
// ==========================

func TestParseScript(t *testing.T) {
	tpl, err := ParseScript("s1", `<script>SELECT * FROM t <where><if test="id != null">id = #{id}</if></where></script>`)
	require.NoError(t, err)
	assert.Equal(t, "s1", tpl.ID)
	assert.Equal(t, "SELECT * FROM t WHERE id = #{id}", render(t, tpl, map[string]any{"id": 1}))

	bare, err := ParseScript("s2", `SELECT * FROM t <where><if test="id != null">id = #{id}</if></where>`)
	require.NoError(t, err)
	assert.Equal(t, tpl.Fingerprint(), bare.Fingerprint())
}

// ==========================
// Syntax errors
// ==========================

func TestParse_SyntaxErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		msg  string
	}{
		{"malformed", `<mapper><select id="a">SELECT</mapper>`, ""},
		{"unknown directive", `<mapper><select id="a"><loop/></select></mapper>`, "unknown directive <loop>"},
		{"missing test", `<mapper><select id="a"><if>x</if></select></mapper>`, `requires attribute "test"`},
		{"missing collection", `<mapper><select id="a"><foreach item="x">x</foreach></select></mapper>`, `requires attribute "collection"`},
		{"when outside choose", `<mapper><select id="a"><when test="x">y</when></select></mapper>`, "<when> outside <choose>"},
		{"duplicate otherwise", `<mapper><select id="a"><choose><when test="x">1</when><otherwise>2</otherwise><otherwise>3</otherwise></choose></select></mapper>`, "duplicate <otherwise>"},
		{"unknown include", `<mapper><select id="a"><include refid="nope"/></select></mapper>`, "unknown <sql>"},
		{"include cycle", `<mapper><sql id="x"><include refid="y"/></sql><sql id="y"><include refid="x"/></sql><select id="a"><include refid="x"/></select></mapper>`, "x -> y -> x"},
		{"missing id", `<mapper><select>SELECT 1</select></mapper>`, `requires attribute "id"`},
		{"duplicate id", `<mapper><select id="a">1</select><select id="a">2</select></mapper>`, "duplicate statement id"},
		{"wrong root", `<statements/>`, "expected <mapper>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseString(tt.doc)
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrTemplateSyntax))
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestParse_SyntaxErrorLine(t *testing.T) {
	_, err := ParseString("<mapper>\n<select id=\"a\">\n<bogus/>\n</select>\n</mapper>")
	var se *apperrors.TemplateSyntaxError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 3, se.Line)
}
