// Package dynsql resolves MyBatis-style dynamic SQL templates into final,
// dialect-correct SQL.
//
//	e, _ := dynsql.New(nil)
//	m, _ := dynsql.ParseMapper(doc)
//	sql, _ := e.ResolveStatement(m, "findUsers", []dynsql.Param{dynsql.P("name", dynsql.Scalar)}, "alice")
package dynsql

import (
	"io"

	"github.com/Konsultn-Engineering/dynsql/ast"
	"github.com/Konsultn-Engineering/dynsql/config"
	"github.com/Konsultn-Engineering/dynsql/dialect"
	"github.com/Konsultn-Engineering/dynsql/engine"
	"github.com/Konsultn-Engineering/dynsql/mapper"
	"github.com/Konsultn-Engineering/dynsql/schema"
)

type (
	Engine   = engine.Engine
	Option   = engine.Option
	Config   = config.Config
	Param    = schema.Param
	Kind     = schema.Kind
	Page     = dialect.Page
	Template = ast.Template
	Mapper   = mapper.Mapper
)

const (
	Scalar     = schema.Scalar
	Array      = schema.Array
	Composite  = schema.Composite
	Collection = schema.Collection
	RowBounds  = schema.RowBounds
	PageParam  = schema.Page
)

var (
	WithLogger  = engine.WithLogger
	WithDialect = engine.WithDialect
)

// New builds an engine; a nil cfg uses the defaults.
func New(cfg *Config, opts ...Option) (*Engine, error) {
	return engine.New(cfg, opts...)
}

// LoadConfig reads a YAML configuration file with DYNSQL_* environment
// overrides.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}

func P(name string, kind Kind) Param { return schema.P(name, kind) }

func ParseMapper(doc string) (*Mapper, error) { return mapper.ParseString(doc) }

func ReadMapper(r io.Reader) (*Mapper, error) { return mapper.Parse(r) }

func ParseScript(id, markup string) (*Template, error) { return mapper.ParseScript(id, markup) }
