package engine

import (
	"fmt"
	"strings"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/Konsultn-Engineering/dynsql/ast"
	"github.com/Konsultn-Engineering/dynsql/cache"
	"github.com/Konsultn-Engineering/dynsql/config"
	"github.com/Konsultn-Engineering/dynsql/context"
	"github.com/Konsultn-Engineering/dynsql/dialect"
	"github.com/Konsultn-Engineering/dynsql/format"
	"github.com/Konsultn-Engineering/dynsql/mapper"
	"github.com/Konsultn-Engineering/dynsql/param"
	"github.com/Konsultn-Engineering/dynsql/schema"
	"github.com/Konsultn-Engineering/dynsql/sqlparse"
	"github.com/Konsultn-Engineering/dynsql/visitor"
)

// DatabaseIDKey is bound to the dialect name in every resolution, so templates
// can branch on the target database.
const DatabaseIDKey = "_databaseId"

// Engine resolves templates into final SQL for one dialect. It is safe for
// concurrent use; every resolution works on its own binding environment.
type Engine struct {
	dialect   dialect.Dialect
	binder    *schema.Binder
	exprs     *cache.ExpressionCache
	applier   *visitor.Applier
	params    *param.Parameterizer
	templates *cache.TemplateCache
	queries   cache.QueryCache

	formatOn bool
	format   format.Options
	validate bool
	logger   *zap.Logger
}

type Option func(*Engine)

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithExpressionCache replaces the process-wide expression cache.
func WithExpressionCache(c *cache.ExpressionCache) Option {
	return func(e *Engine) {
		if c != nil {
			e.exprs = c
		}
	}
}

// WithDialect overrides the configured dialect.
func WithDialect(d dialect.Dialect) Option {
	return func(e *Engine) {
		if d != nil {
			e.dialect = d
		}
	}
}

// New builds an engine from cfg; nil means config.Default().
func New(cfg *config.Config, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	d, err := dialect.Lookup(cfg.Dialect)
	if err != nil {
		return nil, err
	}
	naming, err := schema.ParseFieldNaming(cfg.FieldNaming)
	if err != nil {
		return nil, err
	}
	templates, err := cache.NewTemplateCache(cfg.TemplateCacheSize)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		dialect:   d,
		binder:    schema.NewBinder(schema.WithPageKey(cfg.PageKey), schema.WithFieldNaming(naming)),
		exprs:     cache.Default(),
		templates: templates,
		queries:   cache.NewQueryCache(),
		formatOn:  cfg.Format.Enabled,
		format: format.Options{
			Indent:              strings.Repeat(" ", cfg.Format.IndentWidth),
			LinesBetweenQueries: cfg.Format.LinesBetweenQueries,
			Uppercase:           cfg.Format.Uppercase,
		},
		validate: cfg.ValidateSQL,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}

	popts, err := cfg.ParamOptions(e.logger)
	if err != nil {
		return nil, err
	}
	e.params = param.New(popts...)
	e.applier = visitor.NewApplier(e.exprs, e.logger)
	return e, nil
}

func (e *Engine) Dialect() dialect.Dialect { return e.dialect }

func (e *Engine) Binder() *schema.Binder { return e.binder }

// Resolve binds values positionally to params and resolves tpl.
func (e *Engine) Resolve(tpl *ast.Template, params []schema.Param, values ...any) (string, error) {
	bindings, err := e.binder.Bind(params, values...)
	if err != nil {
		return "", err
	}
	return e.resolve(tpl, bindings)
}

// ResolveMap resolves tpl against a pre-built binding map.
func (e *Engine) ResolveMap(tpl *ast.Template, params []schema.Param, bindings map[string]any) (string, error) {
	return e.resolve(tpl, e.binder.BindMap(params, bindings))
}

// ResolveMarkup parses <script> markup through the template cache and
// resolves it.
func (e *Engine) ResolveMarkup(markup string, params []schema.Param, values ...any) (string, error) {
	tpl, hit, err := e.templates.GetOrParse(markup, func(m string) (*ast.Template, error) {
		return mapper.ParseScript("script", m)
	})
	if err != nil {
		return "", err
	}
	e.logger.Debug("markup template", zap.Bool("cache_hit", hit), zap.Uint64("fingerprint", tpl.Fingerprint()))
	return e.Resolve(tpl, params, values...)
}

// ResolveStatement resolves statement id of m, preferring the variant declared
// for the engine's dialect.
func (e *Engine) ResolveStatement(m *mapper.Mapper, id string, params []schema.Param, values ...any) (string, error) {
	st, err := m.Statement(id, e.dialect.Name())
	if err != nil {
		return "", err
	}
	return e.Resolve(st.Template, params, values...)
}

// ResolveBindingSet resolves statement set.Statement of m with the persisted
// bindings of set.
func (e *Engine) ResolveBindingSet(m *mapper.Mapper, set *schema.BindingSet) (string, error) {
	st, err := m.Statement(set.Statement, e.dialect.Name())
	if err != nil {
		return "", err
	}
	return e.resolve(st.Template, set.Bindings(e.binder))
}

// Analyze reports the statement type and tables of resolved SQL.
func (e *Engine) Analyze(sql string) (*sqlparse.Statement, error) {
	return sqlparse.Analyze(sql)
}

func (e *Engine) resolve(tpl *ast.Template, bindings map[string]any) (string, error) {
	log := e.logger.With(
		zap.String("resolution_id", ulid.Make().String()),
		zap.String("template", tpl.ID),
		zap.String("dialect", e.dialect.Name()),
	)

	_, paged := bindings[e.binder.PageKey]
	static := !paged && !ast.IsDynamic(tpl.Root)
	key := cache.QueryKey(tpl.Fingerprint(), e.dialect.Name())
	if static {
		if q, ok := e.queries.GetSQL(key); ok {
			log.Debug("static template served from cache")
			return q.SQL, nil
		}
	}

	ctx, err := e.build(tpl, bindings)
	if err != nil {
		return "", err
	}
	sql, err := e.params.Substitute(ctx.SQL(), ctx)
	if err != nil {
		return "", err
	}
	if sql, err = e.finish(sql, ctx, log); err != nil {
		return "", err
	}

	if static {
		e.queries.SetSQL(key, &cache.CachedQuery{SQL: sql, TemplateID: tpl.ID, Dialect: e.dialect.Name()})
	}
	log.Debug("template resolved",
		zap.Int64("expr_compiles", e.exprs.Compiles()),
		zap.Int64("expr_hits", e.exprs.Hits()))
	return sql, nil
}

func (e *Engine) build(tpl *ast.Template, bindings map[string]any) (*context.DynamicContext, error) {
	if _, ok := bindings[DatabaseIDKey]; !ok {
		withID := make(map[string]any, len(bindings)+1)
		for k, v := range bindings {
			withID[k] = v
		}
		withID[DatabaseIDKey] = e.dialect.Name()
		bindings = withID
	}
	ctx, err := e.applier.Build(tpl, bindings)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", tpl.ID, err)
	}
	return ctx, nil
}

// finish paginates, formats and optionally validates a statement.
func (e *Engine) finish(sql string, ctx *context.DynamicContext, log *zap.Logger) (string, error) {
	if v, ok := ctx.Lookup(e.binder.PageKey); ok {
		if page, ok := dialect.PageFrom(v); ok {
			paged, err := e.dialect.Paginate(sql, page)
			if err != nil {
				return "", err
			}
			sql = paged
		}
	}

	if e.validate {
		if _, err := sqlparse.Analyze(sql); err != nil {
			log.Warn("resolved sql rejected by parser", zap.Error(err))
		}
	}
	if e.formatOn {
		sql = format.Format(sql, e.dialect.FormatRules(), e.format)
	}
	return sql, nil
}
