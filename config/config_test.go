package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dynsql.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "mysql", cfg.Dialect)
	assert.Equal(t, "page", cfg.PageKey)
	assert.True(t, cfg.Format.Enabled)
	assert.Equal(t, 2, cfg.Format.IndentWidth)
}

func TestLoad_YAML(t *testing.T) {
	path := writeConfig(t, `
dialect: oracle
page_key: MYBAITS_PLUS_PAGE_KEY
quoting:
  policy: raw_dollar
  injection: warn
format:
  indent_width: 4
log:
  level: debug
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "oracle", cfg.Dialect)
	assert.Equal(t, "MYBAITS_PLUS_PAGE_KEY", cfg.PageKey)
	assert.Equal(t, "raw_dollar", cfg.Quoting.Policy)
	assert.Equal(t, "warn", cfg.Quoting.Injection)
	assert.Equal(t, 4, cfg.Format.IndentWidth)
	assert.Equal(t, 1, cfg.Format.LinesBetweenQueries, "defaults fill unset fields")
	assert.Equal(t, 256, cfg.TemplateCacheSize)
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	path := writeConfig(t, "dialect: oracle\n")
	t.Setenv("DYNSQL_DIALECT", "postgres")
	t.Setenv("DYNSQL_VALIDATE", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Dialect)
	assert.True(t, cfg.ValidateSQL)
}

func TestLoad_EnvOnly(t *testing.T) {
	t.Setenv("DYNSQL_INJECTION", "reject")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "reject", cfg.Quoting.Injection)
	assert.Equal(t, "mysql", cfg.Dialect)
}

func TestLoad_Invalid(t *testing.T) {
	_, err := Load(writeConfig(t, "dialect: db2\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "quoting:\n  policy: sometimes\n"))
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	cfg := Default()
	cfg.Log.Level = "warn"
	logger, err := cfg.NewLogger()
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))

	cfg.Log.Level = "loud"
	_, err = cfg.NewLogger()
	assert.Error(t, err)
}

func TestParamOptions(t *testing.T) {
	opts, err := Default().ParamOptions(nil)
	require.NoError(t, err)
	assert.Len(t, opts, 4)
}
