package dialect

import (
	"sort"
	"strings"
	"sync"

	"github.com/Konsultn-Engineering/dynsql/apperrors"
)

var (
	registryMu sync.RWMutex
	registry   = map[string]func() Dialect{}
)

func init() {
	Register(NewMySQLDialect, "mysql")
	Register(NewMariaDBDialect, "mariadb")
	Register(NewTiDBDialect, "tidb")
	Register(NewPostgresDialect, "postgres", "postgresql", "pg", "pgx")
	Register(NewOracleDialect, "oracle", "plsql")
	Register(NewSQLiteDialect, "sqlite", "sqlite3")
	Register(NewMSSQLDialect, "mssql", "sqlserver", "tsql")
}

// Register makes a dialect constructor available under each name.
// Names are case-insensitive; a later registration replaces an earlier one.
func Register(ctor func() Dialect, names ...string) {
	registryMu.Lock()
	defer registryMu.Unlock()
	for _, n := range names {
		registry[strings.ToLower(strings.TrimSpace(n))] = ctor
	}
}

// Lookup returns the dialect registered under name.
func Lookup(name string) (Dialect, error) {
	registryMu.RLock()
	ctor, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	registryMu.RUnlock()
	if !ok {
		return nil, &apperrors.UnsupportedFeatureError{Dialect: name, Feature: "dialect"}
	}
	return ctor(), nil
}

// Names lists every registered name, aliases included.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]string, 0, len(registry))
	for n := range registry {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
